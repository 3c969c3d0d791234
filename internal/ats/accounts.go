package ats

import (
	"context"
	stderrors "errors"
	"net/mail"
	"strings"

	"atspro/internal/auth"
	"atspro/internal/errors"
	"atspro/internal/models"
	"atspro/internal/observability"
	"atspro/internal/store"

	"github.com/google/uuid"
)

// User-facing auth messages.
const (
	MsgPasswordMismatch = "Passwords do not match. Please try again."
	MsgWeakPassword     = "Please create a stronger password with at least 8 characters, uppercase, lowercase, and numbers."
	MsgBadCredentials   = "Invalid email or password."
)

// SignupRequest is the signup form.
type SignupRequest struct {
	Email           string          `json:"email"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirm_password"`
	FullName        string          `json:"full_name"`
	Role            models.UserRole `json:"role"`
	CompanyName     string          `json:"company_name"`
}

// AuthResult is returned by every sign-in path.
type AuthResult struct {
	Session *auth.Session   `json:"session"`
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile"`
}

// Account is the signed-in user's full record.
type Account struct {
	User      *models.User      `json:"user"`
	Profile   *models.Profile   `json:"profile"`
	HRProfile *models.HRProfile `json:"hr_profile,omitempty"`
	JobSeeker *models.JobSeeker `json:"job_seeker,omitempty"`
}

// PasswordCheck is the live strength meter.
type PasswordCheck struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// CheckPassword scores a password for the signup form.
func CheckPassword(pw string) PasswordCheck {
	score := auth.PasswordStrength(pw)
	return PasswordCheck{Score: score, Label: auth.StrengthLabel(score)}
}

// splitName splits on the first space.
func splitName(full string) (first, last string) {
	full = strings.Join(strings.Fields(full), " ")
	first, last, _ = strings.Cut(full, " ")
	return first, last
}

func validateSignup(req *SignupRequest) error {
	if req.Password != req.ConfirmPassword {
		return errors.NewValidationError(errors.ErrCodePasswordMismatch, MsgPasswordMismatch, nil)
	}
	if auth.PasswordStrength(req.Password) < auth.MinStrength {
		return errors.NewValidationError(errors.ErrCodeWeakPassword, MsgWeakPassword, nil)
	}
	if strings.TrimSpace(req.FullName) == "" {
		return validation("Please enter your full name.")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil || addr.Address != strings.TrimSpace(req.Email) {
		return validation("Please enter a valid email address.")
	}
	if !req.Role.Valid() {
		return validation("Please choose whether you are a job seeker or an HR professional.")
	}
	if req.Role == models.RoleHR && strings.TrimSpace(req.CompanyName) == "" {
		return validation("Please enter your company name.")
	}
	return nil
}

// Signup creates the account, its profile and the role-specific profile in
// one transaction, then starts a session.
func (s *Service) Signup(ctx context.Context, req SignupRequest, meta *Actor) (*AuthResult, error) {
	if err := validateSignup(&req); err != nil {
		return nil, s.fail(err, "signup", "email", req.Email)
	}

	hash, err := auth.HashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, s.fail(errors.NewInternalError(errors.ErrCodeInternal, "Something went wrong. Please try again.", err), "signup")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
	}
	profile, err := s.createAccount(ctx, user, strings.TrimSpace(req.CompanyName), nil, meta)
	if err != nil {
		return nil, s.fail(err, "signup", "email", req.Email)
	}

	s.logger.Info("User signed up", "user_id", user.ID, "role", user.Role)
	return s.startSession(ctx, user, profile)
}

// createAccount writes users, profiles and hr_profiles/job_seekers rows.
func (s *Service) createAccount(ctx context.Context, user *models.User, company string, picture *string, meta *Actor) (*models.Profile, error) {
	first, last := splitName(user.FullName)
	profile := &models.Profile{
		FirstName:         first,
		LastName:          last,
		Role:              user.Role,
		ProfilePictureURL: picture,
		IsActive:          true,
	}

	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			if stderrors.Is(err, store.ErrDuplicate) {
				return errors.NewConflictError(errors.ErrCodeEmailTaken, "An account with this email already exists.", err)
			}
			return err
		}
		profile.UserID = user.ID
		if err := tx.CreateProfile(ctx, profile); err != nil {
			return err
		}

		switch user.Role {
		case models.RoleHR:
			if err := tx.CreateHRProfile(ctx, &models.HRProfile{UserID: user.ID, CompanyName: company}); err != nil {
				return err
			}
		case models.RoleJobSeeker:
			if err := tx.CreateJobSeeker(ctx, &models.JobSeeker{UserID: user.ID}); err != nil {
				return err
			}
		}

		actor := withUser(meta, user)
		return s.logActivity(ctx, tx, actor, ActionSignup, "user", user.ID, map[string]any{"role": user.Role})
	})
	if err != nil {
		return nil, storeErr(err, "Account")
	}

	s.record(ctx, observability.EventSignup)
	return profile, nil
}

// withUser copies request metadata onto a freshly identified user.
func withUser(meta *Actor, user *models.User) *Actor {
	actor := &Actor{UserID: user.ID, Role: user.Role}
	if meta != nil {
		actor.IPAddress = meta.IPAddress
		actor.UserAgent = meta.UserAgent
	}
	return actor
}

func (s *Service) startSession(ctx context.Context, user *models.User, profile *models.Profile) (*AuthResult, error) {
	session, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, s.fail(errors.NewInternalError(errors.ErrCodeInvalidToken, "Could not start a session. Please try again.", err), "session")
	}
	return &AuthResult{Session: session, User: user, Profile: profile}, nil
}

// Login checks credentials and starts a session.
func (s *Service) Login(ctx context.Context, email, password string, meta *Actor) (*AuthResult, error) {
	badCredentials := errors.NewUnauthorizedError(errors.ErrCodeBadCredentials, MsgBadCredentials, nil)

	user, err := s.store.GetUserByEmail(ctx, email)
	if stderrors.Is(err, store.ErrNotFound) {
		return nil, s.fail(badCredentials, "login", "email", email)
	}
	if err != nil {
		return nil, s.fail(storeErr(err, "User"), "login")
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, s.fail(badCredentials, "login", "user_id", user.ID)
	}

	return s.completeLogin(ctx, user, meta, "password")
}

func (s *Service) completeLogin(ctx context.Context, user *models.User, meta *Actor, method string) (*AuthResult, error) {
	profile, err := s.store.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Profile"), "login", "user_id", user.ID)
	}
	if !profile.IsActive {
		return nil, s.fail(errors.NewForbiddenError(errors.ErrCodeAccountDisabled, "This account has been deactivated.", nil),
			"login", "user_id", user.ID)
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, s.fail(storeErr(err, "Profile"), "login", "user_id", user.ID)
	}
	profile.LastLogin = &now

	result, err := s.startSession(ctx, user, profile)
	if err != nil {
		return nil, err
	}
	actor := withUser(meta, user)
	actor.SessionID = result.Session.SessionID
	s.logActivityBestEffort(ctx, actor, ActionLogin, "user", user.ID, map[string]any{"method": method})
	s.record(ctx, observability.EventLogin)

	s.logger.Info("User logged in", "user_id", user.ID, "method", method)
	return result, nil
}

// GoogleSignIn signs in the Google account, linking it to an existing user
// by verified email or creating a new one with role.
func (s *Service) GoogleSignIn(ctx context.Context, gu *auth.GoogleUser, role models.UserRole, meta *Actor) (*AuthResult, error) {
	if gu == nil || gu.Subject == "" {
		return nil, s.fail(errors.NewUnauthorizedError(errors.ErrCodeInvalidToken, "Google sign-in failed. Please try again.", nil), "google_login")
	}

	user, err := s.store.GetUserByGoogleSubject(ctx, gu.Subject)
	switch {
	case err == nil:
		return s.completeLogin(ctx, user, meta, "google")
	case !stderrors.Is(err, store.ErrNotFound):
		return nil, s.fail(storeErr(err, "User"), "google_login")
	}

	if gu.Email == "" || !gu.EmailVerified {
		return nil, s.fail(errors.NewUnauthorizedError(errors.ErrCodeInvalidToken,
			"Your Google account has no verified email address.", nil), "google_login")
	}

	user, err = s.store.GetUserByEmail(ctx, gu.Email)
	switch {
	case err == nil:
		if err := s.store.LinkGoogleSubject(ctx, user.ID, gu.Subject); err != nil {
			return nil, s.fail(storeErr(err, "User"), "google_login", "user_id", user.ID)
		}
		return s.completeLogin(ctx, user, meta, "google")
	case !stderrors.Is(err, store.ErrNotFound):
		return nil, s.fail(storeErr(err, "User"), "google_login")
	}

	if !role.Valid() {
		role = models.RoleJobSeeker
	}
	// Google accounts never log in with a password; store an unguessable one.
	hash, err := auth.HashPassword(uuid.NewString()+uuid.NewString(), s.opts.BcryptCost)
	if err != nil {
		return nil, s.fail(errors.NewInternalError(errors.ErrCodeInternal, "Something went wrong. Please try again.", err), "google_login")
	}
	subject := gu.Subject
	name := strings.TrimSpace(gu.Name)
	if name == "" {
		name = strings.TrimSpace(gu.GivenName + " " + gu.FamilyName)
	}
	if name == "" {
		name, _, _ = strings.Cut(gu.Email, "@")
	}
	user = &models.User{
		Email:         gu.Email,
		PasswordHash:  hash,
		FullName:      name,
		Role:          role,
		GoogleSubject: &subject,
	}
	if _, err := s.createAccount(ctx, user, "", models.StringPtr(gu.Picture), meta); err != nil {
		return nil, s.fail(err, "google_login", "email", gu.Email)
	}
	s.logger.Info("User signed up with Google", "user_id", user.ID, "role", user.Role)
	return s.completeLogin(ctx, user, meta, "google")
}

// Me returns the caller's account with the role-specific profile.
func (s *Service) Me(ctx context.Context, actor *Actor) (*Account, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "User")
	}
	profile, err := s.store.GetProfile(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "Profile")
	}

	acct := &Account{User: user, Profile: profile}
	switch user.Role {
	case models.RoleHR:
		hr, err := s.store.GetHRProfile(ctx, user.ID)
		if err != nil && !stderrors.Is(err, store.ErrNotFound) {
			return nil, storeErr(err, "HR profile")
		}
		acct.HRProfile = hr
	case models.RoleJobSeeker:
		js, err := s.store.GetJobSeeker(ctx, user.ID)
		if err != nil && !stderrors.Is(err, store.ErrNotFound) {
			return nil, storeErr(err, "Job seeker profile")
		}
		acct.JobSeeker = js
	}
	return acct, nil
}
