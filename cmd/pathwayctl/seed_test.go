package main

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	t.Run("accounts and offerings", func(t *testing.T) {
		seed, err := parseSeed(strings.NewReader(`
accounts:
  - email: registrar@uni.example
    first_name: Ada
    role: institute
    organization: Example University
    password: "S3cure!passphrase"
    offerings:
      - title: BSc Computer Science
        intake: 120
        requirements: [maths, physics]
        deadline: 2027-01-31T00:00:00Z
  - email: grace@student.example
    first_name: Grace
    role: student
    password: "S3cure!passphrase"
`))
		require.NoError(t, err)
		require.Len(t, seed.Accounts, 2)

		inst := seed.Accounts[0]
		assert.Equal(t, model.RoleInstitute, inst.Role)
		require.Len(t, inst.Offerings, 1)

		in := inst.Offerings[0].input()
		assert.Equal(t, "BSc Computer Science", in.Title)
		assert.Equal(t, 120, in.Intake)
		assert.Equal(t, []string{"maths", "physics"}, in.Requirements)
		require.NotNil(t, in.Deadline)
		assert.True(t, in.Deadline.Equal(time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("empty file", func(t *testing.T) {
		seed, err := parseSeed(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, seed.Accounts)
	})

	cases := map[string]struct {
		body string
		want string
	}{
		"unknown key": {
			body: "accounts:\n  - email: a@b.example\n    role: student\n    nickname: x\n",
			want: "nickname",
		},
		"missing email": {
			body: "accounts:\n  - role: student\n",
			want: "email is required",
		},
		"duplicate email": {
			body: "accounts:\n  - email: a@b.example\n    role: student\n  - email: a@b.example\n    role: student\n",
			want: "listed twice",
		},
		"student with offerings": {
			body: "accounts:\n  - email: a@b.example\n    role: student\n    offerings:\n      - title: x\n",
			want: "students cannot publish",
		},
		"company without organization": {
			body: "accounts:\n  - email: hr@co.example\n    role: company\n",
			want: "organization is required",
		},
		"admin role": {
			body: "accounts:\n  - email: root@co.example\n    role: admin\n",
			want: "unsupported role",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseSeed(strings.NewReader(tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseSeedExample(t *testing.T) {
	f, err := os.Open("../../deploy/seed.example.yaml")
	require.NoError(t, err)
	defer f.Close()

	seed, err := parseSeed(f)
	require.NoError(t, err)
	require.Len(t, seed.Accounts, 3)
	assert.Equal(t, model.RoleInstitute, seed.Accounts[0].Role)
	require.Len(t, seed.Accounts[0].Offerings, 1)
	assert.NotNil(t, seed.Accounts[0].Offerings[0].Deadline)
	assert.Empty(t, seed.Accounts[2].Offerings)
}
