package store

import (
	"context"

	"atspro/internal/models"
)

func (s *Store) SaveJob(ctx context.Context, saved *models.SavedJob) error {
	return wrap(s.conn(ctx).Create(saved).Error, "save job")
}

// DeleteSavedJob removes a bookmark, ErrNotFound when there was none.
func (s *Store) DeleteSavedJob(ctx context.Context, userID, jobID string) error {
	res := s.conn(ctx).Where("user_id = ? AND job_id = ?", userID, jobID).Delete(&models.SavedJob{})
	if res.Error != nil {
		return wrap(res.Error, "delete saved job")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListSavedJobs(ctx context.Context, userID string, page Page) ([]models.SavedJob, error) {
	var saved []models.SavedJob
	q := s.conn(ctx).Preload("Job").Where("user_id = ?", userID).Order("saved_at DESC").Order("id")
	if err := page.apply(q).Find(&saved).Error; err != nil {
		return nil, wrap(err, "list saved jobs")
	}
	return saved, nil
}

// SavedJobIDs reports which of jobIDs the user has bookmarked.
func (s *Store) SavedJobIDs(ctx context.Context, userID string, jobIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(jobIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := s.conn(ctx).Model(&models.SavedJob{}).
		Where("user_id = ? AND job_id IN ?", userID, jobIDs).Pluck("job_id", &ids).Error
	if err != nil {
		return nil, wrap(err, "saved job ids")
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *Store) CountSavedJobs(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.SavedJob{}).Where("user_id = ?", userID).Count(&n).Error
	return n, wrap(err, "count saved jobs")
}
