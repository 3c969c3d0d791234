package ats

import (
	"context"
	"testing"

	"atspro/internal/auth"
	"atspro/internal/errors"
	"atspro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassword(t *testing.T) {
	assert.Equal(t, PasswordCheck{Score: 1, Label: "Weak"}, CheckPassword("abc"))
	assert.Equal(t, PasswordCheck{Score: 3, Label: "Medium"}, CheckPassword("abcdefgh1"))
	assert.Equal(t, PasswordCheck{Score: 5, Label: "Strong"}, CheckPassword(testPassword))
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in, first, last string
	}{
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"  Mary   Ann  Evans ", "Mary", "Ann Evans"},
		{"Cher", "Cher", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	base := SignupRequest{
		Email:           "new@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        "New Person",
		Role:            models.RoleJobSeeker,
	}
	tests := []struct {
		name    string
		mutate  func(*SignupRequest)
		code    string
		message string
	}{
		{"password mismatch", func(r *SignupRequest) { r.ConfirmPassword = "Other1!xyz" }, errors.ErrCodePasswordMismatch, MsgPasswordMismatch},
		{"weak password", func(r *SignupRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, errors.ErrCodeWeakPassword, MsgWeakPassword},
		{"short multi-byte password", func(r *SignupRequest) { r.Password, r.ConfirmPassword = "éééé1", "éééé1" }, errors.ErrCodeWeakPassword, MsgWeakPassword},
		{"missing name", func(r *SignupRequest) { r.FullName = "  " }, errors.ErrCodeInvalidRequest, "Please enter your full name."},
		{"bad email", func(r *SignupRequest) { r.Email = "not-an-email" }, errors.ErrCodeInvalidRequest, "Please enter a valid email address."},
		{"bad role", func(r *SignupRequest) { r.Role = "admin" }, errors.ErrCodeInvalidRequest, ""},
		{"hr without company", func(r *SignupRequest) { r.Role = models.RoleHR }, errors.ErrCodeInvalidRequest, "Please enter your company name."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := svc.Signup(ctx, req, nil)
			appErr := requireCode(t, err, errors.ErrorTypeValidation, tt.code)
			if tt.message != "" {
				assert.Equal(t, tt.message, appErr.Message)
			}
		})
	}
}

func TestSignupCreatesAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, SignupRequest{
		Email:           "Hannah@Acme.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        "Hannah Arendt",
		Role:            models.RoleHR,
		CompanyName:     "Acme Corp",
	}, &Actor{IPAddress: "198.51.100.7", UserAgent: "curl/8"})
	require.NoError(t, err)

	assert.Equal(t, "hannah@acme.com", res.User.Email)
	assert.Equal(t, "Hannah", res.Profile.FirstName)
	assert.Equal(t, "Arendt", res.Profile.LastName)
	assert.True(t, res.Profile.IsActive)

	claims, err := svc.tokens.Parse(res.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, models.RoleHR, claims.Role)

	actor := &Actor{UserID: res.User.ID, Role: res.User.Role}
	acct, err := svc.Me(ctx, actor)
	require.NoError(t, err)
	require.NotNil(t, acct.HRProfile)
	assert.Equal(t, "Acme Corp", acct.HRProfile.CompanyName)
	assert.Nil(t, acct.JobSeeker)

	logs, err := svc.ListActivity(ctx, actor, storePage(10))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ActionSignup, logs[0].Action)
	require.NotNil(t, logs[0].IPAddress)
	assert.Equal(t, "198.51.100.7", *logs[0].IPAddress)

	seeker := newSeeker(t, svc, "sam@example.com")
	acct, err = svc.Me(ctx, seeker)
	require.NoError(t, err)
	assert.NotNil(t, acct.JobSeeker)
	assert.Nil(t, acct.HRProfile)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	newSeeker(t, svc, "dup@example.com")

	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:           "DUP@example.com",
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        "Someone Else",
		Role:            models.RoleJobSeeker,
	}, nil)
	appErr := requireCode(t, err, errors.ErrorTypeConflict, errors.ErrCodeEmailTaken)
	assert.Equal(t, "An account with this email already exists.", appErr.Message)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seeker := newSeeker(t, svc, "sam@example.com")

	_, err := svc.Login(ctx, "sam@example.com", "wrong", nil)
	appErr := requireCode(t, err, errors.ErrorTypeUnauthorized, errors.ErrCodeBadCredentials)
	assert.Equal(t, MsgBadCredentials, appErr.Message)

	_, err = svc.Login(ctx, "nobody@example.com", testPassword, nil)
	requireCode(t, err, errors.ErrorTypeUnauthorized, errors.ErrCodeBadCredentials)

	res, err := svc.Login(ctx, "SAM@example.com", testPassword, &Actor{IPAddress: "192.0.2.1"})
	require.NoError(t, err)
	assert.Equal(t, seeker.UserID, res.User.ID)
	require.NotNil(t, res.Profile.LastLogin)
	assert.NotEmpty(t, res.Session.SessionID)

	n, err := svc.store.CountActivity(ctx, ActionLogin, seeker.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, svc.store.SetProfileActive(ctx, seeker.UserID, false))
	_, err = svc.Login(ctx, "sam@example.com", testPassword, nil)
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeAccountDisabled)
}

func TestGoogleSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	gu := &auth.GoogleUser{Subject: "g-123", Email: "grace@example.com", EmailVerified: true, GivenName: "Grace", FamilyName: "Hopper"}
	first, err := svc.GoogleSignIn(ctx, gu, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.RoleJobSeeker, first.User.Role)
	assert.Equal(t, "Grace Hopper", first.User.FullName)

	again, err := svc.GoogleSignIn(ctx, gu, models.RoleHR, nil)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)
	assert.Equal(t, models.RoleJobSeeker, again.User.Role)

	hr := newHR(t, svc, "hr@example.com")
	linked, err := svc.GoogleSignIn(ctx, &auth.GoogleUser{Subject: "g-456", Email: "hr@example.com", EmailVerified: true}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, hr.UserID, linked.User.ID)

	_, err = svc.GoogleSignIn(ctx, &auth.GoogleUser{Subject: "g-789", Email: "x@example.com"}, "", nil)
	requireCode(t, err, errors.ErrorTypeUnauthorized, errors.ErrCodeInvalidToken)
}

func TestMeRequiresAuth(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Me(context.Background(), nil)
	requireCode(t, err, errors.ErrorTypeUnauthorized, errors.ErrCodeUnauthenticated)
}
