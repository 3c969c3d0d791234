package store

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"atspro/internal/config"
	"atspro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		Name:   filepath.Join(t.TempDir(), "test.db"),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func mustUser(t *testing.T, st *Store, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x", FullName: "Test User", Role: role}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func mustJob(t *testing.T, st *Store, creator string, mutate func(*models.JobPosting)) *models.JobPosting {
	t.Helper()
	j := &models.JobPosting{
		Title:           "Backend Engineer",
		CompanyName:     "Acme",
		Description:     "Build services",
		JobType:         models.JobFullTime,
		ExperienceLevel: models.ExperienceMid,
		CreatedBy:       creator,
		IsActive:        true,
		PostedAt:        time.Now().UTC(),
	}
	if mutate != nil {
		mutate(j)
	}
	require.NoError(t, st.CreateJob(context.Background(), j))
	return j
}

func ptr[T any](v T) *T { return &v }

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?mode=rw&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("a.db?mode=rw"))
	assert.Equal(t, "a.db?_pragma=journal_mode(WAL)", sqliteDSN("a.db?_pragma=journal_mode(WAL)"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, nil)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestUserUniqueness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := mustUser(t, st, "  Ada@Example.com ", models.RoleHR)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Len(t, u.ID, 36)

	err := st.CreateUser(ctx, &models.User{Email: "ada@example.com", PasswordHash: "x", FullName: "A", Role: models.RoleHR})
	assert.True(t, stderrors.Is(err, ErrDuplicate), "got %v", err)

	got, err := st.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = st.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchJobs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	hr := mustUser(t, st, "hr@example.com", models.RoleHR)

	base := time.Now().UTC().Add(-time.Hour)
	mustJob(t, st, hr.ID, func(j *models.JobPosting) {
		j.Title = "Go Developer"
		j.SalaryMin, j.SalaryMax = ptr(60000.0), ptr(90000.0)
		j.PostedAt = base
	})
	mustJob(t, st, hr.ID, func(j *models.JobPosting) {
		j.Title = "Data Analyst"
		j.CompanyName = "Go_Corp"
		j.JobType = models.JobContract
		j.ExperienceLevel = models.ExperienceEntry
		j.SalaryMin, j.SalaryMax = ptr(250000.0), ptr(280000.0)
		j.PostedAt = base.Add(time.Minute)
	})
	mustJob(t, st, hr.ID, func(j *models.JobPosting) {
		j.Title = "Designer"
		j.PostedAt = base.Add(2 * time.Minute)
	})
	mustJob(t, st, hr.ID, func(j *models.JobPosting) {
		j.Title = "Closed Go Role"
		j.IsActive = false
	})

	tests := []struct {
		name   string
		filter JobFilter
		titles []string
	}{
		{"all active newest first", JobFilter{}, []string{"Designer", "Data Analyst", "Go Developer"}},
		{"query matches title or company", JobFilter{Query: "GO"}, []string{"Data Analyst", "Go Developer"}},
		{"underscore is literal", JobFilter{Query: "go_"}, []string{"Data Analyst"}},
		{"percent is literal", JobFilter{Query: "%"}, nil},
		{"job type", JobFilter{JobTypes: []models.JobType{models.JobContract}}, []string{"Data Analyst"}},
		{"experience", JobFilter{ExperienceLevels: []models.ExperienceLevel{models.ExperienceMid}}, []string{"Designer", "Go Developer"}},
		{
			"salary overlap keeps unsalaried jobs",
			JobFilter{SalaryMin: ptr(50000.0), SalaryMax: ptr(200000.0)},
			[]string{"Designer", "Go Developer"},
		},
		{
			"salary above every range",
			JobFilter{SalaryMin: ptr(295000.0), SalaryMax: ptr(300000.0)},
			[]string{"Designer"},
		},
		{"pagination", JobFilter{Page: Page{Limit: 1, Offset: 1}}, []string{"Data Analyst"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, total, err := st.SearchJobs(ctx, tt.filter)
			require.NoError(t, err)
			var titles []string
			for _, j := range jobs {
				titles = append(titles, j.Title)
			}
			assert.Equal(t, tt.titles, titles)
			if tt.filter.Limit == 0 {
				assert.EqualValues(t, len(tt.titles), total)
			} else {
				assert.EqualValues(t, 3, total)
			}
		})
	}
}

func TestApplicationUniquenessAndCounters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	hr := mustUser(t, st, "hr@example.com", models.RoleHR)
	seeker := mustUser(t, st, "js@example.com", models.RoleJobSeeker)
	job := mustJob(t, st, hr.ID, nil)

	app := &models.Candidate{CandidateID: seeker.ID, JobID: job.ID, ResumeURL: "r.pdf", Status: models.StatusApplied, AppliedAt: time.Now().UTC()}
	require.NoError(t, st.CreateApplication(ctx, app))

	dup := &models.Candidate{CandidateID: seeker.ID, JobID: job.ID, ResumeURL: "r.pdf", Status: models.StatusApplied, AppliedAt: time.Now().UTC()}
	assert.ErrorIs(t, st.CreateApplication(ctx, dup), ErrDuplicate)

	applied, err := st.HasApplied(ctx, seeker.ID, job.ID)
	require.NoError(t, err)
	assert.True(t, applied)

	require.NoError(t, st.IncrementJobCounter(ctx, job.ID, "application_count"))
	require.NoError(t, st.IncrementJobCounter(ctx, job.ID, "views_count"))
	require.NoError(t, st.IncrementJobCounter(ctx, job.ID, "views_count"))
	assert.Error(t, st.IncrementJobCounter(ctx, job.ID, "title"))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ApplicationCount)
	assert.Equal(t, 2, got.ViewsCount)

	counts, err := st.StatusCounts(ctx, hr.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[models.StatusApplied])

	loaded, err := st.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Job)
	assert.Equal(t, job.Title, loaded.Job.Title)
}

func TestBumpJobAnalytics(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	hr := mustUser(t, st, "hr@example.com", models.RoleHR)
	job := mustJob(t, st, hr.ID, nil)

	day := "2026-10-18"
	require.NoError(t, st.BumpJobAnalytics(ctx, job.ID, day, AnalyticsViews))
	require.NoError(t, st.BumpJobAnalytics(ctx, job.ID, day, AnalyticsViews))
	require.NoError(t, st.BumpJobAnalytics(ctx, job.ID, day, AnalyticsSaves))
	require.NoError(t, st.BumpJobAnalytics(ctx, job.ID, "2026-10-19", AnalyticsApplications))
	assert.Error(t, st.BumpJobAnalytics(ctx, job.ID, day, "share_count"))

	row, err := st.GetJobAnalytics(ctx, job.ID, day)
	require.NoError(t, err)
	assert.Equal(t, 2, row.ViewsCount)
	assert.Equal(t, 1, row.SavesCount)
	assert.Equal(t, 0, row.ApplicationsCount)

	rows, err := st.ListJobAnalytics(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[1].ApplicationsCount)
}

func TestSavedJobs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	hr := mustUser(t, st, "hr@example.com", models.RoleHR)
	seeker := mustUser(t, st, "js@example.com", models.RoleJobSeeker)
	job := mustJob(t, st, hr.ID, nil)

	require.NoError(t, st.SaveJob(ctx, &models.SavedJob{UserID: seeker.ID, JobID: job.ID, SavedAt: time.Now().UTC()}))
	assert.ErrorIs(t, st.SaveJob(ctx, &models.SavedJob{UserID: seeker.ID, JobID: job.ID}), ErrDuplicate)

	ids, err := st.SavedJobIDs(ctx, seeker.ID, []string{job.ID, "other"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{job.ID: true}, ids)

	saved, err := st.ListSavedJobs(ctx, seeker.ID, Page{})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, job.Title, saved[0].Job.Title)

	require.NoError(t, st.DeleteSavedJob(ctx, seeker.ID, job.ID))
	assert.ErrorIs(t, st.DeleteSavedJob(ctx, seeker.ID, job.ID), ErrNotFound)
}

func TestNotificationsExpiry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, st, "js@example.com", models.RoleJobSeeker)
	now := time.Now().UTC()

	for _, n := range []*models.Notification{
		{UserID: u.ID, Title: "fresh", Message: "m", Type: models.NotifySystem, CreatedAt: now},
		{UserID: u.ID, Title: "future expiry", Message: "m", Type: models.NotifySystem, ExpiresAt: ptr(now.Add(time.Hour)), CreatedAt: now.Add(-time.Minute)},
		{UserID: u.ID, Title: "expired", Message: "m", Type: models.NotifySystem, ExpiresAt: ptr(now.Add(-time.Hour))},
	} {
		require.NoError(t, st.CreateNotification(ctx, n))
	}

	list, err := st.ListNotifications(ctx, u.ID, false, now, Page{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fresh", list[0].Title)

	changed, err := st.MarkAllNotificationsRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, changed)

	unread, err := st.ListNotifications(ctx, u.ID, true, now, Page{})
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestRecruitmentMetricUpsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	hr := mustUser(t, st, "hr@example.com", models.RoleHR)

	require.NoError(t, st.UpsertRecruitmentMetric(ctx, &models.RecruitmentMetric{HRUserID: hr.ID, MetricDate: "2026-10-18", TotalApplications: 3}))
	require.NoError(t, st.UpsertRecruitmentMetric(ctx, &models.RecruitmentMetric{HRUserID: hr.ID, MetricDate: "2026-10-18", TotalApplications: 5, OffersMade: 1}))

	m, err := st.GetRecruitmentMetric(ctx, hr.ID, "2026-10-18")
	require.NoError(t, err)
	assert.Equal(t, 5, m.TotalApplications)
	assert.Equal(t, 1, m.OffersMade)
}

func TestAverageInterviewRating(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, ok, err := st.AverageInterviewRating(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	hr := mustUser(t, st, "hr@example.com", models.RoleHR)
	seeker := mustUser(t, st, "js@example.com", models.RoleJobSeeker)
	job := mustJob(t, st, hr.ID, nil)
	app := &models.Candidate{CandidateID: seeker.ID, JobID: job.ID, ResumeURL: "r", Status: models.StatusApplied, AppliedAt: time.Now().UTC()}
	require.NoError(t, st.CreateApplication(ctx, app))

	for _, rating := range []*int{ptr(4), ptr(5), nil} {
		require.NoError(t, st.CreateInterview(ctx, &models.Interview{
			ApplicationID: app.ID, InterviewerID: hr.ID, ScheduledAt: time.Now().UTC(),
			InterviewMode: models.ModeVideo, InterviewType: models.RoundScreening,
			Status: models.InterviewCompleted, OverallRating: rating,
		}))
	}

	avg, ok, err := st.AverageInterviewRating(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 4.5, avg, 0.001)

	ivs, err := st.ListInterviewsForSeeker(ctx, seeker.ID)
	require.NoError(t, err)
	assert.Len(t, ivs, 3)
}
