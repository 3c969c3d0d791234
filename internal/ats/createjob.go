package ats

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"atspro/internal/models"
	"atspro/internal/observability"
	"atspro/internal/store"
)

// MsgSelectJobType is shown when the posting form lacks its two selects.
const MsgSelectJobType = "Please select job type and experience level."

// CreateJobRequest mirrors the posting form; numbers and dates arrive as text.
type CreateJobRequest struct {
	Title               string                 `json:"title"`
	CompanyName         string                 `json:"company_name"`
	Description         string                 `json:"description"`
	Requirements        string                 `json:"requirements"`
	Responsibilities    string                 `json:"responsibilities"`
	Benefits            string                 `json:"benefits"`
	Location            string                 `json:"location"`
	SalaryMin           string                 `json:"salary_min"`
	SalaryMax           string                 `json:"salary_max"`
	JobType             models.JobType         `json:"job_type"`
	ExperienceLevel     models.ExperienceLevel `json:"experience_level"`
	RemoteAllowed       bool                   `json:"remote_allowed"`
	ApplicationDeadline string                 `json:"application_deadline"`
}

// parseSalary reads an optional amount. Empty means NULL.
func parseSalary(raw, field string) (*float64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, validation("Please enter a valid " + field + ".")
	}
	return &v, nil
}

// parseDeadline accepts RFC 3339 or a plain date, which means end of that day.
func parseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		t = t.Add(24*time.Hour - time.Second)
		return &t, nil
	}
	return nil, validation("Please enter the application deadline as YYYY-MM-DD.")
}

// CreateJob publishes a new posting for an HR user.
func (s *Service) CreateJob(ctx context.Context, actor *Actor, req CreateJobRequest) (*models.JobPosting, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "create_job")
	}
	if req.JobType == "" || req.ExperienceLevel == "" {
		return nil, s.fail(validation(MsgSelectJobType), "create_job")
	}
	if !req.JobType.Valid() || !req.ExperienceLevel.Valid() {
		return nil, s.fail(validation(MsgSelectJobType), "create_job",
			"job_type", req.JobType, "experience_level", req.ExperienceLevel)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, s.fail(validation("Please fill in the job title and description."), "create_job")
	}

	salaryMin, err := parseSalary(req.SalaryMin, "minimum salary")
	if err != nil {
		return nil, s.fail(err, "create_job")
	}
	salaryMax, err := parseSalary(req.SalaryMax, "maximum salary")
	if err != nil {
		return nil, s.fail(err, "create_job")
	}
	if salaryMin != nil && salaryMax != nil && *salaryMin > *salaryMax {
		return nil, s.fail(validation("Minimum salary cannot be greater than maximum salary."), "create_job")
	}
	deadline, err := parseDeadline(req.ApplicationDeadline)
	if err != nil {
		return nil, s.fail(err, "create_job")
	}

	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		hr, err := s.store.GetHRProfile(ctx, actor.UserID)
		if err != nil && !stderrors.Is(err, store.ErrNotFound) {
			return nil, s.fail(storeErr(err, "HR profile"), "create_job")
		}
		if hr != nil {
			company = hr.CompanyName
		}
	}
	if company == "" {
		return nil, s.fail(validation("Please enter the company name."), "create_job")
	}

	now := s.now()
	job := &models.JobPosting{
		Title:               strings.TrimSpace(req.Title),
		CompanyName:         company,
		Description:         strings.TrimSpace(req.Description),
		Requirements:        models.StringPtr(strings.TrimSpace(req.Requirements)),
		Responsibilities:    models.StringPtr(strings.TrimSpace(req.Responsibilities)),
		Benefits:            models.StringPtr(strings.TrimSpace(req.Benefits)),
		Location:            models.StringPtr(strings.TrimSpace(req.Location)),
		SalaryMin:           salaryMin,
		SalaryMax:           salaryMax,
		JobType:             req.JobType,
		ExperienceLevel:     req.ExperienceLevel,
		RemoteAllowed:       req.RemoteAllowed,
		ApplicationDeadline: deadline,
		CreatedBy:           actor.UserID,
		IsActive:            true,
		PostedAt:            now,
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateJob(ctx, job); err != nil {
			return err
		}
		return s.logActivity(ctx, tx, actor, ActionCreateJob, "job_posting", job.ID, map[string]any{"title": job.Title})
	})
	if err != nil {
		return nil, s.fail(storeErr(err, "Job"), "create_job")
	}

	s.record(ctx, observability.EventJobCreated)
	s.logger.Info("Job created", "job_id", job.ID, "created_by", actor.UserID)
	return job, nil
}

// ownJob loads a posting and checks the caller created it.
func (s *Service) ownJob(ctx context.Context, actor *Actor, jobID string) (*models.JobPosting, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, storeErr(err, "Job")
	}
	if job.CreatedBy != actor.UserID {
		return nil, notOwner("job")
	}
	return job, nil
}

// UpdateJobStatus closes or reopens one of the caller's postings.
func (s *Service) UpdateJobStatus(ctx context.Context, actor *Actor, jobID string, active bool) (*models.JobPosting, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "update_job_status")
	}
	job, err := s.ownJob(ctx, actor, jobID)
	if err != nil {
		return nil, s.fail(err, "update_job_status", "job_id", jobID)
	}
	if job.IsActive == active {
		return job, nil
	}
	if err := s.store.SetJobActive(ctx, jobID, active); err != nil {
		return nil, s.fail(storeErr(err, "Job"), "update_job_status", "job_id", jobID)
	}
	job.IsActive = active
	s.logger.Info("Job status changed", "job_id", jobID, "is_active", active)
	return job, nil
}

// ListMyJobs returns the caller's postings with their counters.
func (s *Service) ListMyJobs(ctx context.Context, actor *Actor, page store.Page) ([]models.JobPosting, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "list_my_jobs")
	}
	jobs, err := s.store.ListJobsByCreator(ctx, actor.UserID, clampPage(page))
	if err != nil {
		return nil, s.fail(storeErr(err, "Jobs"), "list_my_jobs")
	}
	return jobs, nil
}

// JobAnalytics returns the daily counters of one of the caller's postings.
func (s *Service) JobAnalytics(ctx context.Context, actor *Actor, jobID string) ([]models.JobAnalytics, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "job_analytics")
	}
	if _, err := s.ownJob(ctx, actor, jobID); err != nil {
		return nil, s.fail(err, "job_analytics", "job_id", jobID)
	}
	rows, err := s.store.ListJobAnalytics(ctx, jobID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Job analytics"), "job_analytics", "job_id", jobID)
	}
	return rows, nil
}
