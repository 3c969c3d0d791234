package ats

import (
	"context"
	"fmt"
	"testing"

	"atspro/internal/errors"
	"atspro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHireRate(t *testing.T) {
	total, rate := hireRate(map[models.ApplicationStatus]int64{})
	assert.Zero(t, total)
	assert.Zero(t, rate)

	total, rate = hireRate(map[models.ApplicationStatus]int64{
		models.StatusApplied:  4,
		models.StatusSelected: 1,
		models.StatusPlaced:   1,
	})
	assert.EqualValues(t, 6, total)
	assert.Equal(t, 33, rate)
}

func TestHRDashboard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	job := postJob(t, svc, hr, nil)
	closed := postJob(t, svc, hr, func(r *CreateJobRequest) { r.Title = "Data Engineer" })
	_, err := svc.UpdateJobStatus(ctx, hr, closed.ID, false)
	require.NoError(t, err)

	statuses := []models.ApplicationStatus{models.StatusSelected, models.StatusPlaced, models.StatusRejected, ""}
	for i, status := range statuses {
		seeker := newSeeker(t, svc, fmt.Sprintf("seeker%d@example.com", i))
		app := apply(t, svc, seeker, job.ID)
		if status != "" {
			_, err := svc.UpdateApplicationStatus(ctx, hr, app.ID, StatusUpdate{Status: status})
			require.NoError(t, err)
		}
	}

	dash, err := svc.HRDashboard(ctx, hr)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.Stats.ActiveJobs)
	assert.EqualValues(t, 4, dash.Stats.TotalApplications)
	assert.Equal(t, 50, dash.Stats.HireRate)
	assert.Zero(t, dash.Stats.InterviewsScheduled)
	assert.Len(t, dash.RecentJobs, 2)
	require.Len(t, dash.RecentCandidates, 4)
	assert.Equal(t, "Sam Seeker", dash.RecentCandidates[0].CandidateName)

	// Another recruiter sees none of it.
	other := newHR(t, svc, "other@example.com")
	dash, err = svc.HRDashboard(ctx, other)
	require.NoError(t, err)
	assert.Zero(t, dash.Stats.TotalApplications)
	assert.Empty(t, dash.RecentCandidates)

	seeker := newSeeker(t, svc, "late@example.com")
	_, err = svc.HRDashboard(ctx, seeker)
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeForbiddenRole)
}

func TestSeekerDashboard(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	seeker := newSeeker(t, svc, "sam@example.com")

	dash, err := svc.SeekerDashboard(ctx, seeker)
	require.NoError(t, err)
	assert.Equal(t, 20, dash.ProfileCompletion)
	assert.Zero(t, dash.Stats.ApplicationsSent)

	applied := postJob(t, svc, hr, nil)
	saved := postJob(t, svc, hr, func(r *CreateJobRequest) {
		r.Title = "Platform Engineer"
		r.JobType = models.JobContract
	})
	apply(t, svc, seeker, applied.ID)
	_, err = svc.SaveJob(ctx, seeker, saved.ID)
	require.NoError(t, err)

	_, err = svc.ViewCandidateProfile(ctx, hr, seeker.UserID)
	require.NoError(t, err)
	_, err = svc.ViewCandidateProfile(ctx, hr, seeker.UserID)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, seeker, ProfileUpdate{
		Phone:  ptr("+1 555 0100"),
		Bio:    ptr("Backend developer."),
		Skills: []string{"Go", "SQL"},
	})
	require.NoError(t, err)

	dash, err = svc.SeekerDashboard(ctx, seeker)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.Stats.ApplicationsSent)
	assert.Zero(t, dash.Stats.InterviewInvites)
	assert.EqualValues(t, 2, dash.Stats.ProfileViews)
	assert.EqualValues(t, 1, dash.Stats.SavedJobs)
	assert.Equal(t, 50, dash.ProfileCompletion)
	require.Len(t, dash.RecentApplications, 1)
	require.Len(t, dash.SavedJobs, 1)
	require.Len(t, dash.RecommendedJobs, 1)
	assert.Equal(t, saved.ID, dash.RecommendedJobs[0].ID, "applied jobs are not recommended")

	_, err = svc.SeekerDashboard(ctx, hr)
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeForbiddenRole)
}

func TestProfileCompletion(t *testing.T) {
	assert.Zero(t, profileCompletion(nil, nil))

	jt := models.JobFullTime
	years := 4
	full := profileCompletion(
		&models.Profile{FirstName: "Ada", LastName: "Lovelace", Phone: ptr("1")},
		&models.JobSeeker{
			Bio:              ptr("b"),
			Location:         ptr("London"),
			Skills:           []string{"Go"},
			ResumeURL:        ptr("https://cv"),
			ExperienceYears:  &years,
			LinkedinURL:      ptr("https://linkedin"),
			PreferredJobType: &jt,
		})
	assert.Equal(t, 100, full)
}

func TestViewCandidateProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	seeker := newSeeker(t, svc, "sam@example.com")

	view, err := svc.ViewCandidateProfile(ctx, hr, seeker.UserID)
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", view.Email)
	assert.Equal(t, "Sam", view.Profile.FirstName)
	assert.NotNil(t, view.JobSeeker)

	_, err = svc.ViewCandidateProfile(ctx, seeker, seeker.UserID)
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeForbiddenRole)

	other := newHR(t, svc, "other@example.com")
	_, err = svc.ViewCandidateProfile(ctx, hr, other.UserID)
	requireCode(t, err, errors.ErrorTypeNotFound, errors.ErrCodeNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seeker := newSeeker(t, svc, "sam@example.com")
	hr := newHR(t, svc, "hr@example.com")

	_, err := svc.UpdateProfile(ctx, seeker, ProfileUpdate{FirstName: ptr(" ")})
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)

	contract := models.JobContract
	acct, err := svc.UpdateProfile(ctx, seeker, ProfileUpdate{
		FirstName:        ptr("Samantha"),
		Location:         ptr("Berlin"),
		PreferredJobType: &contract,
		ExperienceYears:  ptr(6),
	})
	require.NoError(t, err)
	assert.Equal(t, "Samantha", acct.Profile.FirstName)
	require.NotNil(t, acct.JobSeeker)
	require.NotNil(t, acct.JobSeeker.Location)
	assert.Equal(t, "Berlin", *acct.JobSeeker.Location)
	require.NotNil(t, acct.JobSeeker.PreferredJobType)
	assert.Equal(t, models.JobContract, *acct.JobSeeker.PreferredJobType)

	_, err = svc.UpdateProfile(ctx, hr, ProfileUpdate{Bio: ptr("I hire people.")})
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)

	acct, err = svc.UpdateProfile(ctx, hr, ProfileUpdate{Phone: ptr("+44 20 7946 0000")})
	require.NoError(t, err)
	require.NotNil(t, acct.Profile.Phone)
	assert.Equal(t, "+44 20 7946 0000", *acct.Profile.Phone)
}
