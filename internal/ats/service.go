// Package ats implements the applicant tracking use cases on top of the store,
// auth and AI layers. Handlers and CLI commands call into Service; it owns
// every validation rule, authorization check and side effect.
package ats

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"atspro/internal/ai"
	"atspro/internal/auth"
	"atspro/internal/errors"
	"atspro/internal/models"
	"atspro/internal/observability"
	"atspro/internal/resume"
	"atspro/internal/store"
)

// Actor is the authenticated caller plus the request facts that end up in
// the activity log.
type Actor struct {
	UserID    string
	Role      models.UserRole
	SessionID string
	IPAddress string
	UserAgent string
}

// Anonymous reports whether no one is signed in.
func (a *Actor) Anonymous() bool { return a == nil || a.UserID == "" }

// Options tunes the service.
type Options struct {
	BcryptCost int
}

// Service carries every operation of the tracker.
type Service struct {
	store     *store.Store
	tokens    *auth.TokenIssuer
	ai        *ai.Service
	extractor *resume.Extractor
	obs       *observability.ObservabilityManager
	logger    *errors.Logger
	opts      Options
	now       func() time.Time
}

// Deps groups the collaborators New needs. AI, Extractor and Observability
// may be nil.
type Deps struct {
	Store         *store.Store
	Tokens        *auth.TokenIssuer
	AI            *ai.Service
	Extractor     *resume.Extractor
	Observability *observability.ObservabilityManager
	Logger        *errors.Logger
}

func New(deps Deps, opts Options) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	extractor := deps.Extractor
	if extractor == nil {
		extractor = resume.NewExtractor(0, logger)
	}
	return &Service{
		store:     deps.Store,
		tokens:    deps.Tokens,
		ai:        deps.AI,
		extractor: extractor,
		obs:       deps.Observability,
		logger:    logger,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Store exposes the persistence layer for health checks.
func (s *Service) Store() *store.Store { return s.store }

// AI exposes the AI service for health checks. May be nil.
func (s *Service) AI() *ai.Service { return s.ai }

// requireAuth rejects anonymous callers.
func requireAuth(actor *Actor) error {
	if actor.Anonymous() {
		return errors.NewUnauthorizedError(errors.ErrCodeUnauthenticated, "Please sign in to continue.", nil)
	}
	return nil
}

// requireRole rejects callers without role.
func requireRole(actor *Actor, role models.UserRole) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if actor.Role != role {
		msg := "Only HR users can perform this action."
		if role == models.RoleJobSeeker {
			msg = "Only job seekers can perform this action."
		}
		return errors.NewForbiddenError(errors.ErrCodeForbiddenRole, msg, nil).
			WithContext("required_role", role)
	}
	return nil
}

func validation(message string) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, message, nil)
}

func notOwner(what string) error {
	return errors.NewForbiddenError(errors.ErrCodeNotOwner, fmt.Sprintf("You do not have access to this %s.", what), nil)
}

// storeErr maps persistence failures to AppErrors. what names the entity in
// not-found messages.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return errors.NewNotFoundError(errors.ErrCodeNotFound, fmt.Sprintf("%s not found.", what), err)
	case stderrors.Is(err, store.ErrDuplicate):
		return errors.NewConflictError(errors.ErrCodeInvalidRequest, fmt.Sprintf("%s already exists.", what), err)
	}
	return errors.NewInternalError(errors.ErrCodeDatabase, "Something went wrong. Please try again.", err)
}

// fail logs err at the right level and returns it unchanged.
func (s *Service) fail(err error, op string, args ...any) error {
	args = append([]any{"operation", op}, args...)
	if appErr, ok := errors.As(err); ok && appErr.Type != errors.ErrorTypeInternal {
		s.logger.Warn("Request rejected", append(args, "error_code", appErr.Code, "error_message", appErr.Message)...)
		return err
	}
	s.logger.LogError(err, "Operation failed", args...)
	return err
}

// record emits a business event counter.
func (s *Service) record(ctx context.Context, event string) {
	s.obs.RecordBusinessEvent(ctx, event)
}

func (s *Service) today() string { return store.Day(s.now()) }
