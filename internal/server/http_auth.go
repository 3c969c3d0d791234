package server

import (
	"net/http"

	"atspro/internal/ats"
	"atspro/internal/errors"
	"atspro/internal/models"
)

func (s *Server) landingHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ATS.LandingStats(r.Context())
	s.respond(w, r, http.StatusOK, stats, err)
}

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.SignupRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ATS.Signup(r.Context(), req, actorFrom(r))
	s.respond(w, r, http.StatusCreated, res, err)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ATS.Login(r.Context(), req.Email, req.Password, actorFrom(r))
	s.respond(w, r, http.StatusOK, res, err)
}

// passwordStrengthHandler backs the live strength meter on the signup form.
func (s *Server) passwordStrengthHandler(w http.ResponseWriter, r *http.Request) {
	var req PasswordCheckRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ats.CheckPassword(req.Password))
}

// googleLoginHandler redirects to Google's consent page. The chosen role
// travels in the signed state parameter.
func (s *Server) googleLoginHandler(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil {
		s.writeError(w, r, errors.NewNotFoundError(errors.ErrCodeNotFound, "Google sign-in is not enabled.", nil))
		return
	}

	role := models.UserRole(r.URL.Query().Get("role"))
	if role == "" {
		role = models.RoleJobSeeker
	}
	if !role.Valid() {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Unknown role.", nil))
		return
	}

	state, err := s.Tokens.SignState(role)
	if err != nil {
		s.writeError(w, r, errors.NewInternalError(errors.ErrCodeInternal, "Google sign-in failed. Please try again.", err))
		return
	}
	http.Redirect(w, r, s.Google.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) googleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if s.Google == nil {
		s.writeError(w, r, errors.NewNotFoundError(errors.ErrCodeNotFound, "Google sign-in is not enabled.", nil))
		return
	}

	q := r.URL.Query()
	if reason := q.Get("error"); reason != "" {
		s.Logger.Info("Google sign-in cancelled", "reason", reason)
		s.writeError(w, r, errors.NewUnauthorizedError(errors.ErrCodeInvalidToken, "Google sign-in was cancelled.", nil))
		return
	}

	role, err := s.Tokens.ParseState(q.Get("state"))
	if err != nil {
		s.writeError(w, r, errors.NewUnauthorizedError(errors.ErrCodeInvalidToken, "Google sign-in expired. Please try again.", err))
		return
	}
	if q.Get("code") == "" {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Missing authorization code.", nil))
		return
	}

	gu, err := s.Google.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		s.writeError(w, r, errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "Could not reach Google. Please try again.", err))
		return
	}

	res, err := s.ATS.GoogleSignIn(r.Context(), gu, role, actorFrom(r))
	s.respond(w, r, http.StatusOK, res, err)
}

func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	acct, err := s.ATS.Me(r.Context(), actorFrom(r))
	s.respond(w, r, http.StatusOK, acct, err)
}

func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req ats.ProfileUpdate
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	acct, err := s.ATS.UpdateProfile(r.Context(), actorFrom(r), req)
	s.respond(w, r, http.StatusOK, acct, err)
}

func (s *Server) activityHandler(w http.ResponseWriter, r *http.Request) {
	logs, err := s.ATS.ListActivity(r.Context(), actorFrom(r), pageFrom(r))
	s.respond(w, r, http.StatusOK, map[string]any{"activity": logs}, err)
}
