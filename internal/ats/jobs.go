package ats

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"strings"

	"atspro/internal/errors"
	"atspro/internal/models"
	"atspro/internal/observability"
	"atspro/internal/store"

	"gorm.io/datatypes"
)

// Salary slider bounds of the job search.
const (
	SalaryFloor      = 30000
	SalaryCeiling    = 300000
	SalaryStep       = 5000
	DefaultSalaryMin = 50000
	DefaultSalaryMax = 200000
)

// JobSearch is the job board filter. Nil salary bounds mean the salary
// filter was not sent.
type JobSearch struct {
	Query            string
	JobTypes         []models.JobType
	ExperienceLevels []models.ExperienceLevel
	SalaryMin        *float64
	SalaryMax        *float64
	Limit            int
	Offset           int
}

// JobListing is a posting plus the caller's relation to it.
type JobListing struct {
	models.JobPosting
	IsSaved    bool `json:"is_saved"`
	HasApplied bool `json:"has_applied"`
}

type JobSearchResult struct {
	Jobs  []JobListing `json:"jobs"`
	Total int64        `json:"total"`
}

func validSalaryBound(v float64) bool {
	return v >= SalaryFloor && v <= SalaryCeiling && math.Mod(v, SalaryStep) == 0
}

func (q *JobSearch) validate() error {
	for _, t := range q.JobTypes {
		if !t.Valid() {
			return validation(fmt.Sprintf("Unknown job type %q.", t))
		}
	}
	for _, l := range q.ExperienceLevels {
		if !l.Valid() {
			return validation(fmt.Sprintf("Unknown experience level %q.", l))
		}
	}
	if q.SalaryMin == nil && q.SalaryMax == nil {
		return nil
	}
	if q.SalaryMin == nil {
		q.SalaryMin = ptr(float64(SalaryFloor))
	}
	if q.SalaryMax == nil {
		q.SalaryMax = ptr(float64(SalaryCeiling))
	}
	if !validSalaryBound(*q.SalaryMin) || !validSalaryBound(*q.SalaryMax) {
		return validation(fmt.Sprintf("Salary range must be between %d and %d in steps of %d.", SalaryFloor, SalaryCeiling, SalaryStep))
	}
	if *q.SalaryMin > *q.SalaryMax {
		return validation("Minimum salary cannot be greater than maximum salary.")
	}
	return nil
}

// SearchJobs lists active postings, newest first.
func (s *Service) SearchJobs(ctx context.Context, actor *Actor, q JobSearch) (*JobSearchResult, error) {
	if err := q.validate(); err != nil {
		return nil, s.fail(err, "search_jobs")
	}
	page := clampPage(store.Page{Limit: q.Limit, Offset: q.Offset})

	jobs, total, err := s.store.SearchJobs(ctx, store.JobFilter{
		Query:            q.Query,
		JobTypes:         q.JobTypes,
		ExperienceLevels: q.ExperienceLevels,
		SalaryMin:        q.SalaryMin,
		SalaryMax:        q.SalaryMax,
		Page:             page,
	})
	if err != nil {
		return nil, s.fail(storeErr(err, "Jobs"), "search_jobs")
	}

	listings, err := s.listings(ctx, actor, jobs)
	if err != nil {
		return nil, s.fail(err, "search_jobs")
	}
	return &JobSearchResult{Jobs: listings, Total: total}, nil
}

// listings attaches saved/applied flags for a signed-in job seeker.
func (s *Service) listings(ctx context.Context, actor *Actor, jobs []models.JobPosting) ([]JobListing, error) {
	out := make([]JobListing, len(jobs))
	for i, j := range jobs {
		out[i] = JobListing{JobPosting: j}
	}
	if actor.Anonymous() || actor.Role != models.RoleJobSeeker || len(jobs) == 0 {
		return out, nil
	}

	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	saved, err := s.store.SavedJobIDs(ctx, actor.UserID, ids)
	if err != nil {
		return nil, storeErr(err, "Saved jobs")
	}
	applied, err := s.store.AppliedJobIDs(ctx, actor.UserID, ids)
	if err != nil {
		return nil, storeErr(err, "Applications")
	}
	for i := range out {
		out[i].IsSaved = saved[out[i].ID]
		out[i].HasApplied = applied[out[i].ID]
	}
	return out, nil
}

// GetJob returns one posting and counts the view.
func (s *Service) GetJob(ctx context.Context, actor *Actor, id string) (*JobListing, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, s.fail(storeErr(err, "Job"), "get_job", "job_id", id)
	}
	if !job.IsActive && (actor.Anonymous() || actor.UserID != job.CreatedBy) {
		applied := false
		if !actor.Anonymous() {
			if applied, err = s.store.HasApplied(ctx, actor.UserID, id); err != nil {
				return nil, s.fail(storeErr(err, "Application"), "get_job", "job_id", id)
			}
		}
		if !applied {
			return nil, s.fail(errors.NewNotFoundError(errors.ErrCodeNotFound, "Job not found.", nil), "get_job", "job_id", id)
		}
	}

	if err := s.store.IncrementJobCounter(ctx, id, "views_count"); err != nil {
		s.logger.LogError(err, "Failed to count job view", "job_id", id)
	} else {
		job.ViewsCount++
	}
	if err := s.store.BumpJobAnalytics(ctx, id, s.today(), store.AnalyticsViews); err != nil {
		s.logger.LogError(err, "Failed to update job analytics", "job_id", id)
	}

	listings, err := s.listings(ctx, actor, []models.JobPosting{*job})
	if err != nil {
		return nil, s.fail(err, "get_job", "job_id", id)
	}
	return &listings[0], nil
}

// ApplyRequest is the application form.
type ApplyRequest struct {
	CoverLetter string         `json:"cover_letter"`
	ResumeURL   string         `json:"resume_url"`
	Answers     map[string]any `json:"answers"`
}

// ApplyToJob submits the caller's application.
func (s *Service) ApplyToJob(ctx context.Context, actor *Actor, jobID string, req ApplyRequest) (*models.Candidate, error) {
	if err := requireRole(actor, models.RoleJobSeeker); err != nil {
		return nil, s.fail(err, "apply")
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Job"), "apply", "job_id", jobID)
	}
	now := s.now()
	if !job.IsActive || (job.ApplicationDeadline != nil && now.After(*job.ApplicationDeadline)) {
		return nil, s.fail(errors.NewConflictError(errors.ErrCodeJobClosed, "This job is no longer accepting applications.", nil),
			"apply", "job_id", jobID)
	}

	alreadyApplied := errors.NewConflictError(errors.ErrCodeAlreadyApplied, "You have already applied to this job.", nil)
	applied, err := s.store.HasApplied(ctx, actor.UserID, jobID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Application"), "apply", "job_id", jobID)
	}
	if applied {
		return nil, s.fail(alreadyApplied, "apply", "job_id", jobID, "user_id", actor.UserID)
	}

	resumeURL := strings.TrimSpace(req.ResumeURL)
	if resumeURL == "" {
		seeker, err := s.store.GetJobSeeker(ctx, actor.UserID)
		if err != nil && !stderrors.Is(err, store.ErrNotFound) {
			return nil, s.fail(storeErr(err, "Job seeker profile"), "apply")
		}
		if seeker != nil && seeker.ResumeURL != nil {
			resumeURL = *seeker.ResumeURL
		}
	}
	if resumeURL == "" {
		return nil, s.fail(validation("Please add a resume before applying."), "apply", "job_id", jobID)
	}

	app := &models.Candidate{
		CandidateID: actor.UserID,
		JobID:       jobID,
		ResumeURL:   resumeURL,
		CoverLetter: models.StringPtr(strings.TrimSpace(req.CoverLetter)),
		Status:      models.StatusApplied,
		AppliedAt:   now,
	}
	if len(req.Answers) > 0 {
		raw, err := json.Marshal(req.Answers)
		if err != nil {
			return nil, s.fail(validation("Application answers are not valid."), "apply")
		}
		app.ApplicationAnswers = datatypes.JSON(raw)
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateApplication(ctx, app); err != nil {
			if stderrors.Is(err, store.ErrDuplicate) {
				return alreadyApplied
			}
			return err
		}
		if err := tx.IncrementJobCounter(ctx, jobID, "application_count"); err != nil {
			return err
		}
		if err := tx.BumpJobAnalytics(ctx, jobID, store.Day(now), store.AnalyticsApplications); err != nil {
			return err
		}
		if err := s.notify(ctx, tx, Notice{
			UserID:            job.CreatedBy,
			Type:              models.NotifyApplication,
			Title:             "New application",
			Message:           fmt.Sprintf("A new candidate applied to %s.", job.Title),
			Priority:          models.PriorityMedium,
			ActionURL:         fmt.Sprintf("/api/v1/jobs/%s/applications", jobID),
			RelatedEntityID:   app.ID,
			RelatedEntityType: "candidate",
		}); err != nil {
			return err
		}
		return s.logActivity(ctx, tx, actor, ActionApply, "job_posting", jobID, map[string]any{"application_id": app.ID})
	})
	if err != nil {
		return nil, s.fail(storeErr(err, "Application"), "apply", "job_id", jobID)
	}

	s.record(ctx, observability.EventApplicationSubmitted)
	s.logger.Info("Application submitted", "application_id", app.ID, "job_id", jobID, "user_id", actor.UserID)
	app.Job = job
	return app, nil
}

// SaveJob bookmarks a posting for the caller.
func (s *Service) SaveJob(ctx context.Context, actor *Actor, jobID string) (*models.SavedJob, error) {
	if err := requireRole(actor, models.RoleJobSeeker); err != nil {
		return nil, s.fail(err, "save_job")
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Job"), "save_job", "job_id", jobID)
	}

	saved := &models.SavedJob{UserID: actor.UserID, JobID: jobID, SavedAt: s.now()}
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.SaveJob(ctx, saved); err != nil {
			if stderrors.Is(err, store.ErrDuplicate) {
				return errors.NewConflictError(errors.ErrCodeAlreadySaved, "This job is already in your saved jobs.", err)
			}
			return err
		}
		if err := tx.BumpJobAnalytics(ctx, jobID, s.today(), store.AnalyticsSaves); err != nil {
			return err
		}
		return s.logActivity(ctx, tx, actor, ActionSaveJob, "job_posting", jobID, nil)
	})
	if err != nil {
		return nil, s.fail(storeErr(err, "Saved job"), "save_job", "job_id", jobID)
	}

	s.logger.Info("Job saved", "job_id", jobID, "user_id", actor.UserID)
	saved.Job = job
	return saved, nil
}

// UnsaveJob removes a bookmark.
func (s *Service) UnsaveJob(ctx context.Context, actor *Actor, jobID string) error {
	if err := requireRole(actor, models.RoleJobSeeker); err != nil {
		return s.fail(err, "unsave_job")
	}
	if err := s.store.DeleteSavedJob(ctx, actor.UserID, jobID); err != nil {
		return s.fail(storeErr(err, "Saved job"), "unsave_job", "job_id", jobID)
	}
	s.logger.Info("Job unsaved", "job_id", jobID, "user_id", actor.UserID)
	return nil
}

func (s *Service) ListSavedJobs(ctx context.Context, actor *Actor, page store.Page) ([]models.SavedJob, error) {
	if err := requireRole(actor, models.RoleJobSeeker); err != nil {
		return nil, s.fail(err, "list_saved_jobs")
	}
	saved, err := s.store.ListSavedJobs(ctx, actor.UserID, clampPage(page))
	if err != nil {
		return nil, s.fail(storeErr(err, "Saved jobs"), "list_saved_jobs")
	}
	return saved, nil
}

// ListMyApplications returns the caller's applications with their jobs.
func (s *Service) ListMyApplications(ctx context.Context, actor *Actor, page store.Page) ([]models.Candidate, error) {
	if err := requireRole(actor, models.RoleJobSeeker); err != nil {
		return nil, s.fail(err, "list_applications")
	}
	apps, err := s.store.ListApplicationsByCandidate(ctx, actor.UserID, clampPage(page))
	if err != nil {
		return nil, s.fail(storeErr(err, "Applications"), "list_applications")
	}
	return apps, nil
}

// WithdrawApplication pulls an application that has not been decided yet.
func (s *Service) WithdrawApplication(ctx context.Context, actor *Actor, applicationID string) (*models.Candidate, error) {
	if err := requireRole(actor, models.RoleJobSeeker); err != nil {
		return nil, s.fail(err, "withdraw")
	}
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Application"), "withdraw", "application_id", applicationID)
	}
	if app.CandidateID != actor.UserID {
		return nil, s.fail(notOwner("application"), "withdraw", "application_id", applicationID)
	}
	if !app.Status.Withdrawable() {
		return nil, s.fail(errors.NewValidationError(errors.ErrCodeInvalidStatus,
			"This application can no longer be withdrawn.", nil), "withdraw", "status", app.Status)
	}

	now := s.now()
	err = s.store.UpdateApplication(ctx, app.ID, map[string]any{
		"status":            models.StatusWithdrawn,
		"status_updated_at": now,
		"status_updated_by": actor.UserID,
	})
	if err != nil {
		return nil, s.fail(storeErr(err, "Application"), "withdraw", "application_id", applicationID)
	}
	app.Status = models.StatusWithdrawn
	app.StatusUpdatedAt = &now
	app.StatusUpdatedBy = &actor.UserID

	s.logActivityBestEffort(ctx, actor, ActionUpdateStatus, "candidate", app.ID, map[string]any{"status": models.StatusWithdrawn})
	s.record(ctx, observability.EventStatusChanged)
	s.logger.Info("Application withdrawn", "application_id", app.ID)
	return app, nil
}

func ptr[T any](v T) *T { return &v }
