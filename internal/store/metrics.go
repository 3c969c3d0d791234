package store

import (
	"context"

	"atspro/internal/models"

	"gorm.io/gorm/clause"
)

func (s *Store) CountActiveJobs(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.JobPosting{}).Where("is_active = ?", true).Count(&n).Error
	return n, wrap(err, "count active jobs")
}

// CountActiveCompanies counts distinct company names among active postings.
func (s *Store) CountActiveCompanies(ctx context.Context) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.JobPosting{}).Where("is_active = ?", true).
		Distinct("company_name").Count(&n).Error
	return n, wrap(err, "count companies")
}

// ListUserIDsByRole returns every user id holding role.
func (s *Store) ListUserIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	var ids []string
	err := s.conn(ctx).Model(&models.User{}).Where("role = ?", role).Order("id").Pluck("id", &ids).Error
	return ids, wrap(err, "list users by role")
}

// UpsertRecruitmentMetric writes the (hr_user_id, metric_date) row, replacing
// any earlier rollup for that day.
func (s *Store) UpsertRecruitmentMetric(ctx context.Context, m *models.RecruitmentMetric) error {
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "hr_user_id"}, {Name: "metric_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"job_id", "total_applications", "applications_reviewed", "candidates_shortlisted",
			"interviews_conducted", "offers_made", "placements_completed", "avg_time_to_hire",
			"cost_per_hire",
		}),
	}).Create(m).Error
	return wrap(err, "upsert recruitment metric")
}

func (s *Store) GetRecruitmentMetric(ctx context.Context, hrUserID, day string) (*models.RecruitmentMetric, error) {
	var m models.RecruitmentMetric
	err := s.conn(ctx).First(&m, "hr_user_id = ? AND metric_date = ?", hrUserID, day).Error
	if err != nil {
		return nil, wrap(err, "get recruitment metric")
	}
	return &m, nil
}
