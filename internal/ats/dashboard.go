package ats

import (
	"context"
	stderrors "errors"
	"math"

	"atspro/internal/models"
	"atspro/internal/store"
)

const (
	dashboardRecent      = 5
	dashboardRecommended = 3
)

type HRStats struct {
	ActiveJobs          int64 `json:"active_jobs"`
	TotalApplications   int64 `json:"total_applications"`
	InterviewsScheduled int64 `json:"interviews_scheduled"`
	HireRate            int   `json:"hire_rate"`
}

type HRDashboard struct {
	Stats            HRStats             `json:"stats"`
	RecentJobs       []models.JobPosting `json:"recent_jobs"`
	RecentCandidates []Applicant         `json:"recent_candidates"`
}

type SeekerStats struct {
	ApplicationsSent int64 `json:"applications_sent"`
	InterviewInvites int64 `json:"interview_invites"`
	ProfileViews     int64 `json:"profile_views"`
	SavedJobs        int64 `json:"saved_jobs"`
}

type SeekerDashboard struct {
	Stats              SeekerStats         `json:"stats"`
	RecentApplications []models.Candidate  `json:"recent_applications"`
	SavedJobs          []models.SavedJob   `json:"saved_jobs"`
	ProfileCompletion  int                 `json:"profile_completion"`
	RecommendedJobs    []models.JobPosting `json:"recommended_jobs"`
}

// hireRate is the share of applications that ended selected or placed, as a
// whole percentage.
func hireRate(counts map[models.ApplicationStatus]int64) (total int64, rate int) {
	var hired int64
	for status, n := range counts {
		total += n
		if status.Hired() {
			hired += n
		}
	}
	if total == 0 {
		return 0, 0
	}
	return total, int(math.Round(100 * float64(hired) / float64(total)))
}

// HRDashboard summarises the caller's postings.
func (s *Service) HRDashboard(ctx context.Context, actor *Actor) (*HRDashboard, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, err
	}

	active, err := s.store.CountActiveJobsByCreator(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Jobs"), "hr_dashboard")
	}
	counts, err := s.store.StatusCounts(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Applications"), "hr_dashboard")
	}
	scheduled, err := s.store.CountScheduledInterviewsForCreator(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Interviews"), "hr_dashboard")
	}
	total, rate := hireRate(counts)

	jobs, err := s.store.ListJobsByCreator(ctx, actor.UserID, store.Page{Limit: dashboardRecent})
	if err != nil {
		return nil, s.fail(storeErr(err, "Jobs"), "hr_dashboard")
	}
	apps, err := s.store.RecentApplicationsForCreator(ctx, actor.UserID, dashboardRecent)
	if err != nil {
		return nil, s.fail(storeErr(err, "Applications"), "hr_dashboard")
	}
	candidates, err := s.applicants(ctx, apps)
	if err != nil {
		return nil, s.fail(err, "hr_dashboard")
	}

	return &HRDashboard{
		Stats: HRStats{
			ActiveJobs:          active,
			TotalApplications:   total,
			InterviewsScheduled: scheduled,
			HireRate:            rate,
		},
		RecentJobs:       jobs,
		RecentCandidates: candidates,
	}, nil
}

// profileCompletion scores ten profile fields at ten points each.
func profileCompletion(p *models.Profile, js *models.JobSeeker) int {
	filled := 0
	check := func(ok bool) {
		if ok {
			filled++
		}
	}
	nonEmpty := func(v *string) bool { return v != nil && *v != "" }

	if p != nil {
		check(p.FirstName != "")
		check(p.LastName != "")
		check(nonEmpty(p.Phone))
	}
	if js != nil {
		check(nonEmpty(js.Bio))
		check(nonEmpty(js.Location))
		check(len(js.Skills) > 0)
		check(nonEmpty(js.ResumeURL))
		check(js.ExperienceYears != nil)
		check(nonEmpty(js.LinkedinURL))
		check(js.PreferredJobType != nil && *js.PreferredJobType != "")
	}
	return filled * 10
}

// SeekerDashboard summarises the caller's job search.
func (s *Service) SeekerDashboard(ctx context.Context, actor *Actor) (*SeekerDashboard, error) {
	if err := requireRole(actor, models.RoleJobSeeker); err != nil {
		return nil, err
	}

	sent, invites, err := s.store.CountApplicationsByCandidate(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Applications"), "seeker_dashboard")
	}
	views, err := s.store.CountActivity(ctx, ActionProfileView, actor.UserID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Activity"), "seeker_dashboard")
	}
	savedCount, err := s.store.CountSavedJobs(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Saved jobs"), "seeker_dashboard")
	}

	recent, err := s.store.ListApplicationsByCandidate(ctx, actor.UserID, store.Page{Limit: dashboardRecent})
	if err != nil {
		return nil, s.fail(storeErr(err, "Applications"), "seeker_dashboard")
	}
	saved, err := s.store.ListSavedJobs(ctx, actor.UserID, store.Page{Limit: dashboardRecent})
	if err != nil {
		return nil, s.fail(storeErr(err, "Saved jobs"), "seeker_dashboard")
	}

	profile, err := s.store.GetProfile(ctx, actor.UserID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Profile"), "seeker_dashboard")
	}
	seeker, err := s.store.GetJobSeeker(ctx, actor.UserID)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, s.fail(storeErr(err, "Job seeker profile"), "seeker_dashboard")
	}

	var preferred *models.JobType
	if seeker != nil {
		preferred = seeker.PreferredJobType
	}
	recommended, err := s.store.RecommendJobs(ctx, actor.UserID, preferred, dashboardRecommended)
	if err != nil {
		return nil, s.fail(storeErr(err, "Jobs"), "seeker_dashboard")
	}

	return &SeekerDashboard{
		Stats: SeekerStats{
			ApplicationsSent: sent,
			InterviewInvites: invites,
			ProfileViews:     views,
			SavedJobs:        savedCount,
		},
		RecentApplications: recent,
		SavedJobs:          saved,
		ProfileCompletion:  profileCompletion(profile, seeker),
		RecommendedJobs:    recommended,
	}, nil
}

// CandidateProfile is what the hiring team sees of a job seeker.
type CandidateProfile struct {
	Profile   *models.Profile   `json:"profile"`
	JobSeeker *models.JobSeeker `json:"job_seeker"`
	Email     string            `json:"email"`
}

// ViewCandidateProfile shows a job seeker's profile to an HR user and counts
// the view.
func (s *Service) ViewCandidateProfile(ctx context.Context, actor *Actor, userID string) (*CandidateProfile, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "view_candidate")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Candidate"), "view_candidate", "user_id", userID)
	}
	if user.Role != models.RoleJobSeeker {
		return nil, s.fail(storeErr(store.ErrNotFound, "Candidate"), "view_candidate", "user_id", userID)
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Profile"), "view_candidate", "user_id", userID)
	}
	seeker, err := s.store.GetJobSeeker(ctx, userID)
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, s.fail(storeErr(err, "Job seeker profile"), "view_candidate", "user_id", userID)
	}

	s.logActivityBestEffort(ctx, actor, ActionProfileView, "user", userID, nil)
	return &CandidateProfile{Profile: profile, JobSeeker: seeker, Email: user.Email}, nil
}
