package ats

import (
	"context"
	"strings"

	"atspro/internal/models"
	"atspro/internal/store"

	"gorm.io/datatypes"
)

// ProfileUpdate carries the editable profile fields. Nil leaves a field alone;
// an empty string clears it.
type ProfileUpdate struct {
	FirstName        *string         `json:"first_name"`
	LastName         *string         `json:"last_name"`
	Phone            *string         `json:"phone"`
	Bio              *string         `json:"bio"`
	Location         *string         `json:"location"`
	Skills           []string        `json:"skills"`
	ResumeURL        *string         `json:"resume_url"`
	ExperienceYears  *int            `json:"experience_years"`
	LinkedinURL      *string         `json:"linkedin_url"`
	PortfolioURL     *string         `json:"portfolio_url"`
	PreferredJobType *models.JobType `json:"preferred_job_type"`
	ExpectedSalary   *float64        `json:"expected_salary"`
	NoticePeriod     *string         `json:"notice_period"`
	Availability     *string         `json:"availability"`
}

func optional(v *string) *string {
	return models.StringPtr(strings.TrimSpace(*v))
}

func (u ProfileUpdate) split() (profile, seeker map[string]any, err error) {
	profile = map[string]any{}
	seeker = map[string]any{}

	if u.FirstName != nil {
		if strings.TrimSpace(*u.FirstName) == "" {
			return nil, nil, validation("First name cannot be empty.")
		}
		profile["first_name"] = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		profile["last_name"] = strings.TrimSpace(*u.LastName)
	}
	if u.Phone != nil {
		profile["phone"] = optional(u.Phone)
	}

	for col, v := range map[string]*string{
		"bio":           u.Bio,
		"location":      u.Location,
		"resume_url":    u.ResumeURL,
		"linkedin_url":  u.LinkedinURL,
		"portfolio_url": u.PortfolioURL,
		"notice_period": u.NoticePeriod,
		"availability":  u.Availability,
	} {
		if v != nil {
			seeker[col] = optional(v)
		}
	}
	if u.Skills != nil {
		skills := make([]string, 0, len(u.Skills))
		for _, sk := range u.Skills {
			if sk = strings.TrimSpace(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
		seeker["skills"] = datatypes.NewJSONSlice(skills)
	}
	if u.ExperienceYears != nil {
		if *u.ExperienceYears < 0 || *u.ExperienceYears > 70 {
			return nil, nil, validation("Please enter valid years of experience.")
		}
		seeker["experience_years"] = *u.ExperienceYears
	}
	if u.PreferredJobType != nil {
		if *u.PreferredJobType != "" && !u.PreferredJobType.Valid() {
			return nil, nil, validation("Unknown job type.")
		}
		if *u.PreferredJobType == "" {
			seeker["preferred_job_type"] = nil
		} else {
			seeker["preferred_job_type"] = *u.PreferredJobType
		}
	}
	if u.ExpectedSalary != nil {
		if *u.ExpectedSalary < 0 {
			return nil, nil, validation("Please enter a valid salary.")
		}
		seeker["expected_salary"] = *u.ExpectedSalary
	}
	return profile, seeker, nil
}

// UpdateProfile edits the caller's profile. Job seeker fields are rejected
// for HR users.
func (s *Service) UpdateProfile(ctx context.Context, actor *Actor, u ProfileUpdate) (*Account, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	profile, seeker, err := u.split()
	if err != nil {
		return nil, s.fail(err, "update_profile")
	}
	if len(seeker) > 0 && actor.Role != models.RoleJobSeeker {
		return nil, s.fail(validation("Only job seekers have these profile fields."), "update_profile")
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if len(profile) > 0 {
			if err := tx.UpdateProfile(ctx, actor.UserID, profile); err != nil {
				return err
			}
		}
		if len(seeker) > 0 {
			return tx.UpdateJobSeeker(ctx, actor.UserID, seeker)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(storeErr(err, "Profile"), "update_profile", "user_id", actor.UserID)
	}
	s.logger.Info("Profile updated", "user_id", actor.UserID, "fields", len(profile)+len(seeker))
	return s.Me(ctx, actor)
}
