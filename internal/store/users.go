package store

import (
	"context"
	"strings"
	"time"

	"atspro/internal/models"
)

// CreateUser inserts the identity row. Email is stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return wrap(s.conn(ctx).Create(u).Error, "create user")
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get user")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.conn(ctx).First(&u, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, wrap(err, "get user by email")
	}
	return &u, nil
}

func (s *Store) GetUserByGoogleSubject(ctx context.Context, subject string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "google_subject = ?", subject).Error; err != nil {
		return nil, wrap(err, "get user by google subject")
	}
	return &u, nil
}

// LinkGoogleSubject attaches a Google account to an existing user.
func (s *Store) LinkGoogleSubject(ctx context.Context, userID, subject string) error {
	err := s.conn(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("google_subject", subject).Error
	return wrap(err, "link google subject")
}

func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) error {
	return wrap(s.conn(ctx).Create(p).Error, "create profile")
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := s.conn(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, wrap(err, "get profile")
	}
	return &p, nil
}

// GetProfiles returns profiles keyed by user id.
func (s *Store) GetProfiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	out := make(map[string]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.Profile
	if err := s.conn(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, wrap(err, "get profiles")
	}
	for _, p := range rows {
		out[p.UserID] = p
	}
	return out, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	err := s.conn(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).
		Update("last_login", at).Error
	return wrap(err, "update last login")
}

// UpdateProfile writes the given columns of the user's profile row.
func (s *Store) UpdateProfile(ctx context.Context, userID string, fields map[string]any) error {
	err := s.conn(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(fields).Error
	return wrap(err, "update profile")
}

func (s *Store) SetProfileActive(ctx context.Context, userID string, active bool) error {
	err := s.conn(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).
		Update("is_active", active).Error
	return wrap(err, "update profile active")
}

func (s *Store) CreateHRProfile(ctx context.Context, p *models.HRProfile) error {
	return wrap(s.conn(ctx).Create(p).Error, "create hr profile")
}

func (s *Store) GetHRProfile(ctx context.Context, userID string) (*models.HRProfile, error) {
	var p models.HRProfile
	if err := s.conn(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, wrap(err, "get hr profile")
	}
	return &p, nil
}

func (s *Store) CreateJobSeeker(ctx context.Context, js *models.JobSeeker) error {
	return wrap(s.conn(ctx).Create(js).Error, "create job seeker")
}

func (s *Store) GetJobSeeker(ctx context.Context, userID string) (*models.JobSeeker, error) {
	var js models.JobSeeker
	if err := s.conn(ctx).First(&js, "user_id = ?", userID).Error; err != nil {
		return nil, wrap(err, "get job seeker")
	}
	return &js, nil
}

// UpdateJobSeeker writes the given columns of the seeker's row.
func (s *Store) UpdateJobSeeker(ctx context.Context, userID string, fields map[string]any) error {
	err := s.conn(ctx).Model(&models.JobSeeker{}).Where("user_id = ?", userID).Updates(fields).Error
	return wrap(err, "update job seeker")
}
