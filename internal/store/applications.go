package store

import (
	"context"
	"time"

	"atspro/internal/models"
)

func (s *Store) CreateApplication(ctx context.Context, app *models.Candidate) error {
	return wrap(s.conn(ctx).Create(app).Error, "create application")
}

// GetApplication loads an application with its job posting.
func (s *Store) GetApplication(ctx context.Context, id string) (*models.Candidate, error) {
	var app models.Candidate
	if err := s.conn(ctx).Preload("Job").First(&app, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get application")
	}
	return &app, nil
}

func (s *Store) HasApplied(ctx context.Context, userID, jobID string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Candidate{}).
		Where("candidate_id = ? AND job_id = ?", userID, jobID).Count(&n).Error
	return n > 0, wrap(err, "check application")
}

// AppliedJobIDs reports which of jobIDs the user has applied to.
func (s *Store) AppliedJobIDs(ctx context.Context, userID string, jobIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(jobIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := s.conn(ctx).Model(&models.Candidate{}).
		Where("candidate_id = ? AND job_id IN ?", userID, jobIDs).Pluck("job_id", &ids).Error
	if err != nil {
		return nil, wrap(err, "applied job ids")
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ListApplicationsByCandidate returns a seeker's applications, newest first.
func (s *Store) ListApplicationsByCandidate(ctx context.Context, userID string, page Page) ([]models.Candidate, error) {
	var apps []models.Candidate
	q := s.conn(ctx).Preload("Job").Where("candidate_id = ?", userID).Order("applied_at DESC").Order("id")
	if err := page.apply(q).Find(&apps).Error; err != nil {
		return nil, wrap(err, "list applications")
	}
	return apps, nil
}

// ListApplicationsByJob returns a job's applications, optionally by status.
func (s *Store) ListApplicationsByJob(ctx context.Context, jobID string, status *models.ApplicationStatus) ([]models.Candidate, error) {
	q := s.conn(ctx).Preload("Job").Where("job_id = ?", jobID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var apps []models.Candidate
	if err := q.Order("applied_at DESC").Order("id").Find(&apps).Error; err != nil {
		return nil, wrap(err, "list job applications")
	}
	return apps, nil
}

// RecentApplicationsForCreator returns the newest applications across an HR
// user's postings.
func (s *Store) RecentApplicationsForCreator(ctx context.Context, hrUserID string, limit int) ([]models.Candidate, error) {
	var apps []models.Candidate
	err := s.conn(ctx).Preload("Job").
		Joins("JOIN job_postings ON job_postings.id = candidates.job_id").
		Where("job_postings.created_by = ?", hrUserID).
		Order("candidates.applied_at DESC").Order("candidates.id").
		Limit(limit).Find(&apps).Error
	if err != nil {
		return nil, wrap(err, "recent applications")
	}
	return apps, nil
}

// ApplicationsForCreator returns every application to an HR user's postings
// submitted before the cutoff.
func (s *Store) ApplicationsForCreator(ctx context.Context, hrUserID string, before time.Time) ([]models.Candidate, error) {
	var apps []models.Candidate
	err := s.conn(ctx).
		Joins("JOIN job_postings ON job_postings.id = candidates.job_id").
		Where("job_postings.created_by = ? AND candidates.applied_at < ?", hrUserID, before).
		Find(&apps).Error
	if err != nil {
		return nil, wrap(err, "applications for creator")
	}
	return apps, nil
}

func (s *Store) UpdateApplication(ctx context.Context, id string, fields map[string]any) error {
	err := s.conn(ctx).Model(&models.Candidate{}).Where("id = ?", id).Updates(fields).Error
	return wrap(err, "update application")
}

// StatusCounts groups applications by status. An empty creator counts every
// application in the system.
func (s *Store) StatusCounts(ctx context.Context, creatorID string) (map[models.ApplicationStatus]int64, error) {
	type row struct {
		Status models.ApplicationStatus
		N      int64
	}
	q := s.conn(ctx).Model(&models.Candidate{}).Select("candidates.status AS status, COUNT(*) AS n")
	if creatorID != "" {
		q = q.Joins("JOIN job_postings ON job_postings.id = candidates.job_id").
			Where("job_postings.created_by = ?", creatorID)
	}

	var rows []row
	if err := q.Group("candidates.status").Scan(&rows).Error; err != nil {
		return nil, wrap(err, "count applications by status")
	}
	out := make(map[models.ApplicationStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// CountScheduledInterviewsForCreator counts applications to the HR user's
// postings that have an interview scheduled.
func (s *Store) CountScheduledInterviewsForCreator(ctx context.Context, hrUserID string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Candidate{}).
		Joins("JOIN job_postings ON job_postings.id = candidates.job_id").
		Where("job_postings.created_by = ? AND candidates.interview_scheduled = ?", hrUserID, true).
		Count(&n).Error
	return n, wrap(err, "count scheduled interviews")
}

// CountApplicationsByCandidate returns how many applications the seeker has
// sent and how many of them have an interview scheduled.
func (s *Store) CountApplicationsByCandidate(ctx context.Context, userID string) (sent, invites int64, err error) {
	base := s.conn(ctx).Model(&models.Candidate{}).Where("candidate_id = ?", userID)
	if err = base.Count(&sent).Error; err != nil {
		return 0, 0, wrap(err, "count applications")
	}
	err = s.conn(ctx).Model(&models.Candidate{}).
		Where("candidate_id = ? AND interview_scheduled = ?", userID, true).Count(&invites).Error
	return sent, invites, wrap(err, "count interview invites")
}
