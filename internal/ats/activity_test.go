package ats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"atspro/internal/models"
	"atspro/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollupRecruitmentMetrics(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	idle := newHR(t, svc, "idle@example.com")
	job := postJob(t, svc, hr, nil)

	statuses := []models.ApplicationStatus{
		models.StatusReviewing,
		models.StatusShortlisted,
		models.StatusSelected,
		models.StatusPlaced,
		models.StatusRejected,
	}
	for i, status := range statuses {
		seeker := newSeeker(t, svc, fmt.Sprintf("seeker%d@example.com", i))
		app := apply(t, svc, seeker, job.ID)
		_, err := svc.UpdateApplicationStatus(ctx, hr, app.ID, StatusUpdate{Status: status})
		require.NoError(t, err)
	}
	untouched := newSeeker(t, svc, "fresh@example.com")
	apply(t, svc, untouched, job.ID)

	metrics, err := svc.RollupRecruitmentMetrics(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	byUser := map[string]models.RecruitmentMetric{}
	for _, m := range metrics {
		byUser[m.HRUserID] = m
	}
	m := byUser[hr.UserID]
	assert.Equal(t, store.Day(time.Now().UTC()), m.MetricDate)
	assert.Equal(t, 6, m.TotalApplications)
	assert.Equal(t, 5, m.ApplicationsReviewed)
	assert.Equal(t, 3, m.CandidatesShortlisted)
	assert.Equal(t, 2, m.OffersMade)
	assert.Equal(t, 1, m.PlacementsCompleted)
	assert.Zero(t, m.InterviewsConducted)
	require.NotNil(t, m.AvgTimeToHire)
	assert.InDelta(t, 0, *m.AvgTimeToHire, 0.1)

	assert.Zero(t, byUser[idle.UserID].TotalApplications)
	assert.Nil(t, byUser[idle.UserID].AvgTimeToHire)

	// A second run for the same day replaces the row.
	_, err = svc.RollupRecruitmentMetrics(ctx, time.Now().UTC())
	require.NoError(t, err)
	stored, err := svc.store.GetRecruitmentMetric(ctx, hr.UserID, m.MetricDate)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.TotalApplications)

	// Applications made after the day are left out.
	yesterday, err := svc.RollupRecruitmentMetrics(ctx, time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, err)
	for _, m := range yesterday {
		assert.Zero(t, m.TotalApplications)
	}
}

func TestRollupCountsPlacementsByPlacementDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	job := postJob(t, svc, hr, nil)

	seeker := newSeeker(t, svc, "seeker@example.com")
	app := apply(t, svc, seeker, job.ID)
	_, err := svc.UpdateApplicationStatus(ctx, hr, app.ID, StatusUpdate{Status: models.StatusPlaced})
	require.NoError(t, err)
	require.NoError(t, svc.store.UpdateApplication(ctx, app.ID, map[string]any{
		"placement_date": time.Now().UTC().AddDate(0, 0, 3),
	}))

	metrics, err := svc.RollupRecruitmentMetrics(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, metrics, 1)

	m := metrics[0]
	assert.Equal(t, 1, m.TotalApplications)
	assert.Equal(t, 1, m.CandidatesShortlisted)
	assert.Equal(t, 1, m.OffersMade)
	assert.Zero(t, m.PlacementsCompleted)
	assert.Nil(t, m.AvgTimeToHire)
}

func TestListActivity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	postJob(t, svc, hr, nil)

	logs, err := svc.ListActivity(ctx, hr, storePage(10))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{ActionSignup, ActionCreateJob}, actions)

	_, err = svc.ListActivity(ctx, nil, storePage(10))
	require.Error(t, err)
}

func TestSuccessRate(t *testing.T) {
	assert.Zero(t, successRate(map[models.ApplicationStatus]int64{models.StatusApplied: 3}))
	assert.Equal(t, 67, successRate(map[models.ApplicationStatus]int64{
		models.StatusApplied:  10,
		models.StatusSelected: 1,
		models.StatusPlaced:   1,
		models.StatusRejected: 1,
	}))
}

func TestLandingStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	empty, err := svc.LandingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, LandingStats{}, *empty)

	f := newPipeline(t)
	second := newSeeker(t, f.svc, "second@example.com")
	app2 := apply(t, f.svc, second, f.job.ID)
	_, err = f.svc.UpdateApplicationStatus(ctx, f.hr, f.app.ID, StatusUpdate{Status: models.StatusPlaced})
	require.NoError(t, err)
	_, err = f.svc.UpdateApplicationStatus(ctx, f.hr, app2.ID, StatusUpdate{Status: models.StatusRejected})
	require.NoError(t, err)

	for _, rating := range []int{5, 4, 4} {
		iv, err := f.svc.ScheduleInterview(ctx, f.hr, f.app.ID, ScheduleRequest{
			ScheduledAt: time.Now().Add(time.Hour), Mode: models.ModeVideo, Type: models.RoundTechnical,
		})
		require.NoError(t, err)
		_, err = f.svc.CompleteInterview(ctx, f.hr, iv.ID, InterviewFeedback{OverallRating: rating, Recommendation: models.RecommendHire})
		require.NoError(t, err)
	}

	stats, err := f.svc.LandingStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.JobsMatched)
	assert.Equal(t, 50, stats.SuccessRate)
	assert.EqualValues(t, 1, stats.Companies)
	assert.EqualValues(t, 1, stats.ActiveJobs)
	assert.Equal(t, 4.3, stats.Rating)
}
