package serializer_test

import (
	"encoding/json"
	"testing"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/serializer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScopes(t *testing.T) {
	assert.Equal(t, []string{"admin", "self"}, serializer.ParseScopes("scope:admin,self"))
	assert.Equal(t, []string{"always"}, serializer.ParseScopes("always"))
	assert.Nil(t, serializer.ParseScopes("scope:"))
	assert.Nil(t, serializer.ParseScopes("bogus"))
}

func TestSanitizeUser(t *testing.T) {
	orgID := uuid.New()
	subject := model.User{
		ID:             uuid.New(),
		Email:          "ada@example.com",
		FirstName:      "Ada",
		Phone:          "+2348000000000",
		Role:           model.RoleInstitute,
		OrganizationID: &orgID,
	}

	tests := []struct {
		name      string
		viewer    *model.User
		wantEmail bool
		wantPhone bool
	}{
		{name: "anonymous", viewer: nil},
		{name: "self", viewer: &subject, wantEmail: true, wantPhone: true},
		{name: "admin", viewer: &model.User{ID: uuid.New(), Role: model.RoleAdmin}, wantEmail: true, wantPhone: true},
		{name: "colleague", viewer: &model.User{ID: uuid.New(), Role: model.RoleInstitute, OrganizationID: &orgID}, wantEmail: true},
		{name: "stranger", viewer: &model.User{ID: uuid.New(), Role: model.RoleStudent}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := serializer.Sanitize(tt.viewer, &subject)
			require.NoError(t, err)

			fields, ok := out.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "Ada", fields["first_name"])

			_, hasEmail := fields["email"]
			_, hasPhone := fields["phone"]
			assert.Equal(t, tt.wantEmail, hasEmail)
			assert.Equal(t, tt.wantPhone, hasPhone)
		})
	}
}

func TestSanitizeSlicePassesUnscopedTypes(t *testing.T) {
	admin := &model.User{ID: uuid.New(), Role: model.RoleAdmin}
	users := []*model.User{{ID: uuid.New(), FirstName: "A", Email: "a@example.com"}, {ID: uuid.New(), FirstName: "B"}}

	out, err := serializer.Sanitize(admin, users)
	require.NoError(t, err)
	require.Len(t, out, 2)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "a@example.com")

	offering := model.Offering{ID: uuid.New(), Title: "Physics"}
	same, err := serializer.Sanitize(nil, offering)
	require.NoError(t, err)
	assert.Equal(t, offering, same)
}
