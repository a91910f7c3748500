package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/auth"
	"github.com/dangerclosesec/pathway/internal/config"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/dangerclosesec/pathway/internal/email"
	"github.com/dangerclosesec/pathway/internal/handler"
	"github.com/dangerclosesec/pathway/internal/live"
	"github.com/dangerclosesec/pathway/internal/middleware"
	"github.com/dangerclosesec/pathway/internal/mocks"
	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
	"github.com/dangerclosesec/pathway/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type discardMail struct{}

func (discardMail) SendEmail(email.EmailData) error { return nil }

type apiFixture struct {
	users     *mocks.MockUserRepositoryIface
	apps      *mocks.MockApplicationRepositoryIface
	offerings *mocks.MockOfferingRepositoryIface
	tokens    *auth.TokenManager
	server    *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	ctrl := gomock.NewController(t)
	f := &apiFixture{
		users:     mocks.NewMockUserRepositoryIface(ctrl),
		apps:      mocks.NewMockApplicationRepositoryIface(ctrl),
		offerings: mocks.NewMockOfferingRepositoryIface(ctrl),
		tokens:    auth.NewTokenManager("test_secret", time.Hour),
	}
	factors := mocks.NewMockUserFactorRepositoryIface(ctrl)
	notifications := mocks.NewMockNotificationRepositoryIface(ctrl)
	documents := mocks.NewMockDocumentRepositoryIface(ctrl)
	orgs := mocks.NewMockOrganizationRepositoryIface(ctrl)

	cache := service.NewCacheService(service.CacheConfig{TTL: time.Minute, CleanupFreq: time.Minute})
	t.Cleanup(cache.Close)
	sessions := session.NewManager()

	users := service.NewUserService(f.users, service.NewUserFactorService(factors, auth.NewFastPasswordHasher()),
		f.tokens, discardMail{}, cache, sessions, &config.Config{BaseURL: "https://pathway.test"})
	lifecycle := admission.NewManager(f.apps)

	router := handler.NewRouter(handler.RouterConfig{
		AllowedOrigins: []string{"https://pathway.test"},
		TokenManager:   f.tokens,
		Sessions:       sessions,
		Limiter:        middleware.NewRateLimiter(),
		ApplyLimit:     5,
		ApplyWindow:    time.Minute,
		Users:          users,
		Offerings:      service.NewOfferingService(f.offerings, cache),
		Applications:   service.NewApplicationService(f.apps, f.offerings, lifecycle, live.NewBroker(nil), nil),
		Notifications:  service.NewNotificationService(notifications),
		Documents:      service.NewDocumentService(documents, nil, "documents"),
		Organizations:  service.NewOrganizationService(orgs),
		Reports:        service.NewReportService(f.apps, f.users, f.offerings, orgs),
	})
	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

// login registers u with the user repository mock and returns a token for it.
func (f *apiFixture) login(t *testing.T, u *model.User) string {
	f.users.EXPECT().FindByID(gomock.Any(), u.ID).Return(u, nil).AnyTimes()
	token, err := f.tokens.Generate(u.ID.String(), u.Email, string(u.Role))
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	resp, body := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)
	resp, _ := f.do(t, http.MethodGet, "/api/applications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApplyEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	student := &model.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada", Role: model.RoleStudent, Status: model.StatusActive}
	token := f.login(t, student)

	deadline := time.Now().Add(24 * time.Hour)
	offering := &model.Offering{ID: uuid.New(), OrganizationID: uuid.New(), Kind: model.OfferingCourse, Status: model.OfferingActive, Deadline: &deadline}

	f.offerings.EXPECT().FindByID(gomock.Any(), offering.ID).Return(offering, nil)
	f.apps.EXPECT().Find(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.apps.EXPECT().Create(gomock.Any(), gomock.Any(), admission.MaxApplicationsPerOrganization).
		DoAndReturn(func(_ context.Context, app *model.Application, _ int) error {
			app.ID = uuid.New()
			return nil
		})

	resp, body := f.do(t, http.MethodPost, "/api/applications", token, handler.ApplyRequest{OfferingID: offering.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	app, ok := body["application"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pending", app["status"])
	assert.Nil(t, app["student_response"])
}

func TestApplyEndpointRejectsDuplicates(t *testing.T) {
	f := newAPIFixture(t)
	student := &model.User{ID: uuid.New(), Email: "ada@example.com", Role: model.RoleStudent, Status: model.StatusActive}
	token := f.login(t, student)

	offering := &model.Offering{ID: uuid.New(), OrganizationID: uuid.New(), Status: model.OfferingActive}
	f.offerings.EXPECT().FindByID(gomock.Any(), offering.ID).Return(offering, nil)
	f.apps.EXPECT().Find(gomock.Any(), gomock.Any()).Return([]model.Application{
		{ID: uuid.New(), ApplicantID: student.ID, OfferingID: offering.ID, OrganizationID: offering.OrganizationID},
	}, nil)

	resp, body := f.do(t, http.MethodPost, "/api/applications", token, handler.ApplyRequest{OfferingID: offering.ID})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_applied", body["error_code"])
}

func TestApplyEndpointIsStudentOnly(t *testing.T) {
	f := newAPIFixture(t)
	orgID := uuid.New()
	company := &model.User{ID: uuid.New(), Email: "hr@acme.test", Role: model.RoleCompany, Status: model.StatusActive, OrganizationID: &orgID}
	token := f.login(t, company)

	resp, _ := f.do(t, http.MethodPost, "/api/applications", token, handler.ApplyRequest{OfferingID: uuid.New()})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReviewEndpointReportsStaleState(t *testing.T) {
	f := newAPIFixture(t)
	orgID := uuid.New()
	reviewer := &model.User{ID: uuid.New(), Email: "admissions@uni.test", Role: model.RoleInstitute, Status: model.StatusActive, OrganizationID: &orgID}
	token := f.login(t, reviewer)

	app := &model.Application{ID: uuid.New(), ApplicantID: uuid.New(), OrganizationID: orgID, Status: model.ApplicationPending}
	f.apps.EXPECT().FindByID(gomock.Any(), app.ID).Return(app, nil)
	f.apps.EXPECT().UpdateIf(gomock.Any(), app.ID, gomock.Any(), gomock.Any()).Return(nil, domain.ErrStaleState)

	resp, body := f.do(t, http.MethodPost, "/api/applications/"+app.ID.String()+"/review", token,
		handler.TransitionRequest{Event: admission.EventApprove, ExpectedStatus: model.ApplicationPending})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "stale_state", body["error_code"])
}

func TestReviewEndpointValidatesBody(t *testing.T) {
	f := newAPIFixture(t)
	orgID := uuid.New()
	reviewer := &model.User{ID: uuid.New(), Email: "admissions@uni.test", Role: model.RoleInstitute, Status: model.StatusActive, OrganizationID: &orgID}
	token := f.login(t, reviewer)

	resp, _ := f.do(t, http.MethodPost, "/api/applications/"+uuid.NewString()+"/review", token,
		map[string]string{"event": "archive"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	f := newAPIFixture(t)
	student := &model.User{ID: uuid.New(), Email: "ada@example.com", Role: model.RoleStudent, Status: model.StatusActive}
	token := f.login(t, student)

	resp, _ := f.do(t, http.MethodGet, "/api/admin/report", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminUserListingIncludesContactFields(t *testing.T) {
	f := newAPIFixture(t)
	admin := &model.User{ID: uuid.New(), Email: "root@pathway.test", Role: model.RoleAdmin, Status: model.StatusActive}
	token := f.login(t, admin)

	listed := []*model.User{{ID: uuid.New(), Email: "ada@example.com", Phone: "+234", Role: model.RoleStudent}}
	f.users.EXPECT().FindAllPaginated(gomock.Any(), gomock.Any(), gomock.Any()).Return(listed, int64(1), nil)

	resp, body := f.do(t, http.MethodGet, "/api/admin/users?role=student", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])
	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "+234", data[0].(map[string]any)["phone"])
}

func TestLiveStreamSendsSnapshot(t *testing.T) {
	f := newAPIFixture(t)
	student := &model.User{ID: uuid.New(), Email: "ada@example.com", Role: model.RoleStudent, Status: model.StatusActive}
	token := f.login(t, student)

	f.apps.EXPECT().Find(gomock.Any(), gomock.Any()).Return([]model.Application{
		{ID: uuid.New(), ApplicantID: student.ID, OrganizationID: uuid.New(), Status: model.ApplicationPending},
	}, nil).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/api/applications/live?access_token="+token, nil)
	require.NoError(t, err)

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 4096)
	var got []byte
	for !bytes.Contains(got, []byte("\n\n")) {
		n, err := resp.Body.Read(buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.True(t, bytes.HasPrefix(got, []byte("event: snapshot\n")))
	assert.Contains(t, string(got), `"total":1`)
}
