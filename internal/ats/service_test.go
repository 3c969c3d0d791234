package ats

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"atspro/internal/ai"
	"atspro/internal/auth"
	"atspro/internal/config"
	"atspro/internal/errors"
	"atspro/internal/models"
	"atspro/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "Sup3rSecret!"

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Name:   filepath.Join(t.TempDir(), "ats.db"),
	}, nil)
	require.NoError(t, err)
	return newServiceOn(t, st)
}

// newServiceOn builds a service over an already opened store.
func newServiceOn(t *testing.T, st *store.Store) *Service {
	t.Helper()
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	tokens := auth.NewTokenIssuer(config.AuthConfig{
		JWTSecret: strings.Repeat("k", 32),
		TokenTTL:  time.Hour,
	})
	return New(Deps{
		Store:  st,
		Tokens: tokens,
		AI:     ai.NewServiceWithProvider(ai.NewLocalProvider(), nil, nil),
	}, Options{BcryptCost: 4})
}

func signup(t *testing.T, svc *Service, email, name string, role models.UserRole) *Actor {
	t.Helper()
	req := SignupRequest{
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FullName:        name,
		Role:            role,
	}
	if role == models.RoleHR {
		req.CompanyName = "Acme Corp"
	}
	res, err := svc.Signup(context.Background(), req, &Actor{IPAddress: "203.0.113.9", UserAgent: "go-test"})
	require.NoError(t, err)
	return &Actor{UserID: res.User.ID, Role: res.User.Role, SessionID: res.Session.SessionID}
}

func newHR(t *testing.T, svc *Service, email string) *Actor {
	return signup(t, svc, email, "Hannah Recruiter", models.RoleHR)
}

func newSeeker(t *testing.T, svc *Service, email string) *Actor {
	return signup(t, svc, email, "Sam Seeker", models.RoleJobSeeker)
}

func postJob(t *testing.T, svc *Service, hr *Actor, mutate func(*CreateJobRequest)) *models.JobPosting {
	t.Helper()
	req := CreateJobRequest{
		Title:           "Backend Engineer",
		Description:     "Build Go services on PostgreSQL and Kubernetes.",
		Requirements:    "3+ years of Go. Experience with Docker.",
		JobType:         models.JobFullTime,
		ExperienceLevel: models.ExperienceMid,
		SalaryMin:       "90000",
		SalaryMax:       "120000",
	}
	if mutate != nil {
		mutate(&req)
	}
	job, err := svc.CreateJob(context.Background(), hr, req)
	require.NoError(t, err)
	return job
}

func apply(t *testing.T, svc *Service, seeker *Actor, jobID string) *models.Candidate {
	t.Helper()
	app, err := svc.ApplyToJob(context.Background(), seeker, jobID, ApplyRequest{ResumeURL: "https://files.example.com/cv.pdf"})
	require.NoError(t, err)
	return app
}

// requireCode asserts err is an AppError with the given type and code.
func requireCode(t *testing.T, err error, typ errors.ErrorType, code string) *errors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, typ, appErr.Type)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestActorAnonymous(t *testing.T) {
	var nilActor *Actor
	assert.True(t, nilActor.Anonymous())
	assert.True(t, (&Actor{}).Anonymous())
	assert.False(t, (&Actor{UserID: "u1"}).Anonymous())
}

func TestRequireRole(t *testing.T) {
	err := requireRole(nil, models.RoleHR)
	requireCode(t, err, errors.ErrorTypeUnauthorized, errors.ErrCodeUnauthenticated)

	err = requireRole(&Actor{UserID: "u", Role: models.RoleJobSeeker}, models.RoleHR)
	appErr := requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeForbiddenRole)
	assert.Equal(t, "Only HR users can perform this action.", appErr.Message)

	err = requireRole(&Actor{UserID: "u", Role: models.RoleHR}, models.RoleJobSeeker)
	appErr = requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeForbiddenRole)
	assert.Equal(t, "Only job seekers can perform this action.", appErr.Message)

	assert.NoError(t, requireRole(&Actor{UserID: "u", Role: models.RoleHR}, models.RoleHR))
}

func TestStoreErr(t *testing.T) {
	assert.NoError(t, storeErr(nil, "Job"))

	appErr := requireCode(t, storeErr(store.ErrNotFound, "Job"), errors.ErrorTypeNotFound, errors.ErrCodeNotFound)
	assert.Equal(t, "Job not found.", appErr.Message)

	requireCode(t, storeErr(store.ErrDuplicate, "Job"), errors.ErrorTypeConflict, errors.ErrCodeInvalidRequest)
	requireCode(t, storeErr(assert.AnError, "Job"), errors.ErrorTypeInternal, errors.ErrCodeDatabase)

	passthrough := validation("nope")
	assert.Same(t, passthrough, storeErr(passthrough, "Job"))
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, store.Page{Limit: 20}, clampPage(store.Page{}))
	assert.Equal(t, store.Page{Limit: 100, Offset: 0}, clampPage(store.Page{Limit: 500, Offset: -3}))
	assert.Equal(t, store.Page{Limit: 5, Offset: 10}, clampPage(store.Page{Limit: 5, Offset: 10}))
}

func storePage(limit int) store.Page { return store.Page{Limit: limit} }
