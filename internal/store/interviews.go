package store

import (
	"context"
	"database/sql"
	"time"

	"atspro/internal/models"
)

func (s *Store) CreateInterview(ctx context.Context, iv *models.Interview) error {
	return wrap(s.conn(ctx).Create(iv).Error, "create interview")
}

// GetInterview loads an interview with its application and job.
func (s *Store) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	var iv models.Interview
	err := s.conn(ctx).Preload("Application.Job").First(&iv, "id = ?", id).Error
	if err != nil {
		return nil, wrap(err, "get interview")
	}
	return &iv, nil
}

func (s *Store) UpdateInterview(ctx context.Context, id string, fields map[string]any) error {
	err := s.conn(ctx).Model(&models.Interview{}).Where("id = ?", id).Updates(fields).Error
	return wrap(err, "update interview")
}

// ListInterviewsByInterviewer returns interviews an HR user runs, soonest first.
func (s *Store) ListInterviewsByInterviewer(ctx context.Context, interviewerID string) ([]models.Interview, error) {
	var ivs []models.Interview
	err := s.conn(ctx).Preload("Application.Job").
		Where("interviewer_id = ?", interviewerID).
		Order("scheduled_at").Order("id").Find(&ivs).Error
	if err != nil {
		return nil, wrap(err, "list interviews")
	}
	return ivs, nil
}

// ListInterviewsForSeeker returns interviews on the seeker's applications.
func (s *Store) ListInterviewsForSeeker(ctx context.Context, userID string) ([]models.Interview, error) {
	var ivs []models.Interview
	err := s.conn(ctx).Preload("Application.Job").
		Joins("JOIN candidates ON candidates.id = interviews.candidate_id").
		Where("candidates.candidate_id = ?", userID).
		Order("interviews.scheduled_at").Order("interviews.id").Find(&ivs).Error
	if err != nil {
		return nil, wrap(err, "list seeker interviews")
	}
	return ivs, nil
}

// CountCompletedInterviewsForCreator counts completed interviews on the HR
// user's postings scheduled before the cutoff.
func (s *Store) CountCompletedInterviewsForCreator(ctx context.Context, hrUserID string, before time.Time) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Interview{}).
		Joins("JOIN candidates ON candidates.id = interviews.candidate_id").
		Joins("JOIN job_postings ON job_postings.id = candidates.job_id").
		Where("job_postings.created_by = ? AND interviews.status = ? AND interviews.scheduled_at < ?",
			hrUserID, models.InterviewCompleted, before).
		Count(&n).Error
	return n, wrap(err, "count completed interviews")
}

// AverageInterviewRating is the mean overall rating. ok is false when no
// interview has been rated.
func (s *Store) AverageInterviewRating(ctx context.Context) (avg float64, ok bool, err error) {
	var v sql.NullFloat64
	err = s.conn(ctx).Model(&models.Interview{}).
		Where("overall_rating IS NOT NULL").
		Select("AVG(overall_rating)").Scan(&v).Error
	if err != nil {
		return 0, false, wrap(err, "average interview rating")
	}
	return v.Float64, v.Valid, nil
}
