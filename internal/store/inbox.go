package store

import (
	"context"
	"time"

	"atspro/internal/models"
)

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	return wrap(s.conn(ctx).Create(m).Error, "create message")
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	if err := s.conn(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get message")
	}
	return &m, nil
}

// ListMessages returns messages addressed to the user, newest first.
func (s *Store) ListMessages(ctx context.Context, recipientID string, page Page) ([]models.Message, error) {
	var msgs []models.Message
	q := s.conn(ctx).Where("recipient_id = ?", recipientID).Order("sent_at DESC").Order("id")
	if err := page.apply(q).Find(&msgs).Error; err != nil {
		return nil, wrap(err, "list messages")
	}
	return msgs, nil
}

func (s *Store) MarkMessageRead(ctx context.Context, id string, at time.Time) error {
	err := s.conn(ctx).Model(&models.Message{}).Where("id = ?", id).
		Updates(map[string]any{"is_read": true, "read_at": at}).Error
	return wrap(err, "mark message read")
}

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	return wrap(s.conn(ctx).Create(n).Error, "create notification")
}

func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := s.conn(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get notification")
	}
	return &n, nil
}

// ListNotifications returns the user's unexpired notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, now time.Time, page Page) ([]models.Notification, error) {
	q := s.conn(ctx).Where("user_id = ?", userID).
		Where("(expires_at IS NULL OR expires_at > ?)", now)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.Notification
	if err := page.apply(q.Order("created_at DESC").Order("id")).Find(&out).Error; err != nil {
		return nil, wrap(err, "list notifications")
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	err := s.conn(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true).Error
	return wrap(err, "mark notification read")
}

// MarkAllNotificationsRead returns how many notifications changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res := s.conn(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true)
	return res.RowsAffected, wrap(res.Error, "mark all notifications read")
}
