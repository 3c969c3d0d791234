package ats

import (
	"context"
	"testing"
	"time"

	"atspro/internal/errors"
	"atspro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	f := newPipeline(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   MessageRequest
		typ   errors.ErrorType
		code  string
		actor *Actor
	}{
		{"empty body", MessageRequest{RecipientID: f.seeker.UserID}, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest, f.hr},
		{"to self", MessageRequest{RecipientID: f.hr.UserID, Body: "hi"}, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest, f.hr},
		{"bad type", MessageRequest{RecipientID: f.seeker.UserID, Body: "hi", Type: "fax"}, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest, f.hr},
		{"unknown recipient", MessageRequest{RecipientID: "ghost", Body: "hi"}, errors.ErrorTypeNotFound, errors.ErrCodeNotFound, f.hr},
		{"anonymous", MessageRequest{RecipientID: f.seeker.UserID, Body: "hi"}, errors.ErrorTypeUnauthorized, errors.ErrCodeUnauthenticated, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendMessage(ctx, tt.actor, tt.req)
			requireCode(t, err, tt.typ, tt.code)
		})
	}

	outsider := newHR(t, f.svc, "outsider@example.com")
	_, err := f.svc.SendMessage(ctx, outsider, MessageRequest{RecipientID: f.seeker.UserID, Body: "hi", CandidateID: f.app.ID})
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeNotOwner)

	msg, err := f.svc.SendMessage(ctx, f.seeker, MessageRequest{
		RecipientID: f.hr.UserID,
		Subject:     " Question ",
		Body:        "Is the role remote friendly?",
		CandidateID: f.app.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageGeneral, msg.MessageType)
	require.NotNil(t, msg.Subject)
	assert.Equal(t, "Question", *msg.Subject)
	assert.False(t, msg.IsRead)

	inbox, err := f.svc.Inbox(ctx, f.hr, storePage(0))
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, msg.ID, inbox[0].ID)

	_, err = f.svc.MarkMessageRead(ctx, f.seeker, msg.ID)
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeNotOwner)

	read, err := f.svc.MarkMessageRead(ctx, f.hr, msg.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	again, err := f.svc.MarkMessageRead(ctx, f.hr, msg.ID)
	require.NoError(t, err)
	assert.True(t, again.IsRead)
}

func TestNotifications(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seeker := newSeeker(t, svc, "sam@example.com")
	hr := newHR(t, svc, "hr@example.com")

	err := svc.Notify(ctx, Notice{UserID: seeker.UserID, Type: models.NotifySystem, Title: "", Message: "x"})
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)
	err = svc.Notify(ctx, Notice{UserID: seeker.UserID, Type: "carrier", Title: "t", Message: "x"})
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)

	past := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, svc.Notify(ctx, Notice{UserID: seeker.UserID, Type: models.NotifySystem, Title: "Old", Message: "expired", ExpiresAt: &past}))
	require.NoError(t, svc.Notify(ctx, Notice{UserID: seeker.UserID, Type: models.NotifySystem, Title: "Welcome", Message: "Hello"}))
	require.NoError(t, svc.Notify(ctx, Notice{UserID: seeker.UserID, Type: models.NotifyJobUpdate, Title: "Reminder", Message: "Finish your profile", Priority: models.PriorityLow}))

	notes, err := svc.ListNotifications(ctx, seeker, false, storePage(10))
	require.NoError(t, err)
	require.Len(t, notes, 2, "expired notifications are hidden")
	for _, n := range notes {
		assert.NotEqual(t, "Old", n.Title)
	}

	err = svc.MarkNotificationRead(ctx, hr, notes[0].ID)
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeNotOwner)

	require.NoError(t, svc.MarkNotificationRead(ctx, seeker, notes[0].ID))
	unread, err := svc.ListNotifications(ctx, seeker, true, storePage(10))
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	n, err := svc.MarkAllNotificationsRead(ctx, seeker)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "the expired notification is still unread")

	unread, err = svc.ListNotifications(ctx, seeker, true, storePage(10))
	require.NoError(t, err)
	assert.Empty(t, unread)
}
