package server

import (
	"context"
	"net/http"
	"strings"

	"atspro/internal/ats"
	"atspro/internal/errors"
	"atspro/internal/models"
)

// access describes who may call a route.
type access int

const (
	public   access = iota // no token looked at
	optional               // token used when present
	signedIn
	hrOnly
	seekerOnly
)

type actorKey struct{}

// Handler returns the full middleware stack, otelhttp outermost.
func (s *Server) Handler() http.Handler {
	return s.Observability.HTTPMiddleware()(s.setupRoutes())
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	s.handle(mux, "GET /api/v1/landing", public, s.landingHandler)

	// Accounts
	s.handle(mux, "POST /api/v1/auth/signup", public, s.signupHandler)
	s.handle(mux, "POST /api/v1/auth/login", public, s.loginHandler)
	s.handle(mux, "POST /api/v1/auth/password-strength", public, s.passwordStrengthHandler)
	s.handle(mux, "GET /api/v1/auth/google/login", public, s.googleLoginHandler)
	s.handle(mux, "GET /api/v1/auth/google/callback", public, s.googleCallbackHandler)
	s.handle(mux, "GET /api/v1/me", signedIn, s.meHandler)
	s.handle(mux, "PATCH /api/v1/me", signedIn, s.updateProfileHandler)
	s.handle(mux, "GET /api/v1/activity", signedIn, s.activityHandler)

	// Job board
	s.handle(mux, "GET /api/v1/jobs", optional, s.searchJobsHandler)
	s.handle(mux, "GET /api/v1/jobs/{id}", optional, s.getJobHandler)
	s.handle(mux, "POST /api/v1/jobs", hrOnly, s.createJobHandler)
	s.handle(mux, "PATCH /api/v1/jobs/{id}/status", hrOnly, s.jobStatusHandler)
	s.handle(mux, "GET /api/v1/jobs/{id}/analytics", hrOnly, s.jobAnalyticsHandler)
	s.handle(mux, "GET /api/v1/hr/jobs", hrOnly, s.myJobsHandler)
	s.handle(mux, "POST /api/v1/jobs/{id}/apply", seekerOnly, s.applyHandler)
	s.handle(mux, "POST /api/v1/jobs/{id}/save", seekerOnly, s.saveJobHandler)
	s.handle(mux, "DELETE /api/v1/jobs/{id}/save", seekerOnly, s.unsaveJobHandler)
	s.handle(mux, "GET /api/v1/saved-jobs", seekerOnly, s.savedJobsHandler)
	s.handle(mux, "GET /api/v1/applications", seekerOnly, s.myApplicationsHandler)
	s.handle(mux, "POST /api/v1/applications/{id}/withdraw", seekerOnly, s.withdrawHandler)

	// Hiring pipeline
	s.handle(mux, "GET /api/v1/jobs/{id}/applications", hrOnly, s.jobApplicationsHandler)
	s.handle(mux, "PATCH /api/v1/applications/{id}/status", hrOnly, s.applicationStatusHandler)
	s.handle(mux, "POST /api/v1/applications/{id}/interviews", hrOnly, s.scheduleInterviewHandler)
	s.handle(mux, "GET /api/v1/interviews", signedIn, s.interviewsHandler)
	s.handle(mux, "POST /api/v1/interviews/{id}/complete", hrOnly, s.completeInterviewHandler)
	s.handle(mux, "GET /api/v1/candidates/{userID}", hrOnly, s.candidateProfileHandler)

	// Messaging
	s.handle(mux, "GET /api/v1/messages", signedIn, s.inboxHandler)
	s.handle(mux, "POST /api/v1/messages", signedIn, s.sendMessageHandler)
	s.handle(mux, "POST /api/v1/messages/{id}/read", signedIn, s.readMessageHandler)
	s.handle(mux, "GET /api/v1/notifications", signedIn, s.notificationsHandler)
	s.handle(mux, "POST /api/v1/notifications/{id}/read", signedIn, s.readNotificationHandler)
	s.handle(mux, "POST /api/v1/notifications/read-all", signedIn, s.readAllNotificationsHandler)

	// Dashboards
	s.handle(mux, "GET /api/v1/dashboard/hr", signedIn, s.hrDashboardHandler)
	s.handle(mux, "GET /api/v1/dashboard/jobseeker", signedIn, s.seekerDashboardHandler)

	// AI tools
	s.handle(mux, "GET /api/v1/ai/tools", signedIn, s.toolsHandler)
	s.handle(mux, "POST /api/v1/ai/resume-matcher", signedIn, s.resumeMatcherHandler)
	s.handle(mux, "POST /api/v1/ai/interview-summary", hrOnly, s.interviewSummaryHandler)
	s.handle(mux, "POST /api/v1/ai/chat-summarizer", hrOnly, s.chatSummarizerHandler)
	s.handle(mux, "POST /api/v1/ai/bias-detector", hrOnly, s.biasDetectorHandler)
	s.handle(mux, "POST /api/v1/ai/bias-detector/{id}/review", hrOnly, s.biasReviewHandler)
	s.handle(mux, "GET /api/v1/ai/results/{kind}/{id}", signedIn, s.exportHandler)

	return mux
}

// handle registers h behind rate limit, authentication, role gate and size
// limit, in that order.
func (s *Server) handle(mux *http.ServeMux, pattern string, a access, h http.HandlerFunc) {
	h = s.requestSizeLimitMiddleware()(h)
	switch a {
	case hrOnly:
		h = s.roleMiddleware(models.RoleHR)(h)
	case seekerOnly:
		h = s.roleMiddleware(models.RoleJobSeeker)(h)
	}
	h = s.authMiddleware(a)(h)
	mux.HandleFunc(pattern, s.rateLimitMiddleware()(h))
}

// authMiddleware resolves the bearer token into an ats.Actor. Public routes
// still get an actor carrying the client address for the activity log.
func (s *Server) authMiddleware(a access) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor := &ats.Actor{IPAddress: getClientIP(r), UserAgent: r.UserAgent()}

			token := bearerToken(r)
			if a == public || (a == optional && token == "") {
				next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
				return
			}

			if token == "" {
				s.Logger.Info("Authentication failed: missing token",
					"endpoint", r.URL.Path,
					"client_ip", actor.IPAddress)
				s.writeError(w, r, errors.NewUnauthorizedError(errors.ErrCodeUnauthenticated, "Please sign in to continue.", nil))
				return
			}

			claims, err := s.Tokens.Parse(token)
			if err != nil {
				s.Logger.Info("Authentication failed: invalid token",
					"endpoint", r.URL.Path,
					"client_ip", actor.IPAddress)
				s.writeError(w, r, errors.NewUnauthorizedError(errors.ErrCodeInvalidToken, "Your session has expired. Please sign in again.", err))
				return
			}

			actor.UserID = claims.Subject
			actor.Role = claims.Role
			actor.SessionID = claims.SessionID
			s.Logger.Debug("Authentication successful",
				"endpoint", r.URL.Path,
				"user_id", actor.UserID,
				"role", actor.Role)

			next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
		}
	}
}

// roleMiddleware answers 403 before the handler runs when the role differs.
func (s *Server) roleMiddleware(role models.UserRole) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if actor := actorFrom(r); actor.Role != role {
				msg := "Only HR users can perform this action."
				if role == models.RoleJobSeeker {
					msg = "Only job seekers can perform this action."
				}
				s.writeError(w, r, errors.NewForbiddenError(errors.ErrCodeForbiddenRole, msg, nil))
				return
			}
			next(w, r)
		}
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

func bearerToken(r *http.Request) string {
	after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}

// actorFrom returns the caller set by authMiddleware.
func actorFrom(r *http.Request) *ats.Actor {
	if actor, ok := r.Context().Value(actorKey{}).(*ats.Actor); ok {
		return actor
	}
	return &ats.Actor{IPAddress: getClientIP(r), UserAgent: r.UserAgent()}
}
