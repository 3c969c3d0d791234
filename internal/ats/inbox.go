package ats

import (
	"context"
	"strings"
	"time"

	"atspro/internal/models"
	"atspro/internal/store"
)

// Notice describes a notification to create.
type Notice struct {
	UserID            string
	Type              models.NotificationType
	Title             string
	Message           string
	Priority          models.PriorityLevel
	ActionURL         string
	RelatedEntityID   string
	RelatedEntityType string
	ExpiresAt         *time.Time
}

func (s *Service) notify(ctx context.Context, st *store.Store, n Notice) error {
	if n.Priority == "" {
		n.Priority = models.PriorityMedium
	}
	return st.CreateNotification(ctx, &models.Notification{
		UserID:            n.UserID,
		Title:             n.Title,
		Message:           n.Message,
		Type:              n.Type,
		Priority:          n.Priority,
		ActionURL:         models.StringPtr(n.ActionURL),
		RelatedEntityID:   models.StringPtr(n.RelatedEntityID),
		RelatedEntityType: models.StringPtr(n.RelatedEntityType),
		ExpiresAt:         n.ExpiresAt,
		CreatedAt:         s.now(),
	})
}

// Notify creates a notification outside any transaction.
func (s *Service) Notify(ctx context.Context, n Notice) error {
	if n.UserID == "" || strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Message) == "" {
		return s.fail(validation("Notification needs a recipient, a title and a message."), "notify")
	}
	if !n.Type.Valid() {
		return s.fail(validation("Unknown notification type."), "notify")
	}
	if n.Priority != "" && !n.Priority.Valid() {
		return s.fail(validation("Unknown notification priority."), "notify")
	}
	if err := s.notify(ctx, s.store, n); err != nil {
		return s.fail(storeErr(err, "Notification"), "notify", "user_id", n.UserID)
	}
	return nil
}

// MessageRequest is a message to send.
type MessageRequest struct {
	RecipientID string             `json:"recipient_id"`
	Subject     string             `json:"subject"`
	Body        string             `json:"message_body"`
	Type        models.MessageType `json:"message_type"`
	CandidateID string             `json:"candidate_id"`
}

func (s *Service) sendMessage(ctx context.Context, st *store.Store, senderID string, req MessageRequest) (*models.Message, error) {
	if req.Type == "" {
		req.Type = models.MessageGeneral
	}
	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		CandidateID: models.StringPtr(req.CandidateID),
		Subject:     models.StringPtr(strings.TrimSpace(req.Subject)),
		MessageBody: strings.TrimSpace(req.Body),
		MessageType: req.Type,
		SentAt:      s.now(),
	}
	return msg, st.CreateMessage(ctx, msg)
}

// SendMessage delivers a message from the caller to another user.
func (s *Service) SendMessage(ctx context.Context, actor *Actor, req MessageRequest) (*models.Message, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, s.fail(validation("Message cannot be empty."), "send_message")
	}
	if req.RecipientID == "" || req.RecipientID == actor.UserID {
		return nil, s.fail(validation("Please choose a recipient."), "send_message")
	}
	if req.Type != "" && !req.Type.Valid() {
		return nil, s.fail(validation("Unknown message type."), "send_message")
	}
	if _, err := s.store.GetUser(ctx, req.RecipientID); err != nil {
		return nil, s.fail(storeErr(err, "Recipient"), "send_message", "recipient_id", req.RecipientID)
	}
	if req.CandidateID != "" {
		app, err := s.store.GetApplication(ctx, req.CandidateID)
		if err != nil {
			return nil, s.fail(storeErr(err, "Application"), "send_message")
		}
		if !s.involved(actor, app) {
			return nil, s.fail(notOwner("application"), "send_message", "application_id", app.ID)
		}
	}

	msg, err := s.sendMessage(ctx, s.store, actor.UserID, req)
	if err != nil {
		return nil, s.fail(storeErr(err, "Message"), "send_message")
	}
	s.logger.Info("Message sent", "message_id", msg.ID, "sender_id", actor.UserID, "recipient_id", req.RecipientID)
	return msg, nil
}

// involved reports whether the caller is the applicant or the job's creator.
func (s *Service) involved(actor *Actor, app *models.Candidate) bool {
	if app.CandidateID == actor.UserID {
		return true
	}
	return app.Job != nil && app.Job.CreatedBy == actor.UserID
}

// Inbox lists messages addressed to the caller.
func (s *Service) Inbox(ctx context.Context, actor *Actor, page store.Page) ([]models.Message, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, actor.UserID, clampPage(page))
	if err != nil {
		return nil, s.fail(storeErr(err, "Messages"), "inbox")
	}
	return msgs, nil
}

// MarkMessageRead marks one of the caller's messages as read.
func (s *Service) MarkMessageRead(ctx context.Context, actor *Actor, id string) (*models.Message, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, s.fail(storeErr(err, "Message"), "read_message", "message_id", id)
	}
	if msg.RecipientID != actor.UserID {
		return nil, s.fail(notOwner("message"), "read_message", "message_id", id)
	}
	if msg.IsRead {
		return msg, nil
	}

	now := s.now()
	if err := s.store.MarkMessageRead(ctx, id, now); err != nil {
		return nil, s.fail(storeErr(err, "Message"), "read_message", "message_id", id)
	}
	msg.IsRead = true
	msg.ReadAt = &now
	return msg, nil
}

// ListNotifications returns the caller's unexpired notifications.
func (s *Service) ListNotifications(ctx context.Context, actor *Actor, unreadOnly bool, page store.Page) ([]models.Notification, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	out, err := s.store.ListNotifications(ctx, actor.UserID, unreadOnly, s.now(), clampPage(page))
	if err != nil {
		return nil, s.fail(storeErr(err, "Notifications"), "list_notifications")
	}
	return out, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, actor *Actor, id string) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return s.fail(storeErr(err, "Notification"), "read_notification", "notification_id", id)
	}
	if n.UserID != actor.UserID {
		return s.fail(notOwner("notification"), "read_notification", "notification_id", id)
	}
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return s.fail(storeErr(err, "Notification"), "read_notification", "notification_id", id)
	}
	return nil
}

// MarkAllNotificationsRead returns how many notifications were unread.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor *Actor) (int64, error) {
	if err := requireAuth(actor); err != nil {
		return 0, err
	}
	n, err := s.store.MarkAllNotificationsRead(ctx, actor.UserID)
	if err != nil {
		return 0, s.fail(storeErr(err, "Notifications"), "read_all_notifications")
	}
	return n, nil
}
