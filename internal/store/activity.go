package store

import (
	"context"

	"atspro/internal/models"
)

func (s *Store) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	return wrap(s.conn(ctx).Create(entry).Error, "log activity")
}

// CountActivity counts log rows for an action, narrowed to one entity when
// entityID is set.
func (s *Store) CountActivity(ctx context.Context, action, entityID string) (int64, error) {
	q := s.conn(ctx).Model(&models.ActivityLog{}).Where("action = ?", action)
	if entityID != "" {
		q = q.Where("entity_id = ?", entityID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, wrap(err, "count activity")
}

// ListActivity returns a user's own log, newest first.
func (s *Store) ListActivity(ctx context.Context, userID string, page Page) ([]models.ActivityLog, error) {
	var rows []models.ActivityLog
	q := s.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id")
	if err := page.apply(q).Find(&rows).Error; err != nil {
		return nil, wrap(err, "list activity")
	}
	return rows, nil
}
