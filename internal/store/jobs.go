package store

import (
	"context"
	"fmt"
	"strings"

	"atspro/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobFilter narrows SearchJobs. Empty slices and nil bounds match everything.
type JobFilter struct {
	Query            string
	JobTypes         []models.JobType
	ExperienceLevels []models.ExperienceLevel
	SalaryMin        *float64
	SalaryMax        *float64
	Page
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// SearchJobs returns active postings, newest first, plus the unpaged total.
func (s *Store) SearchJobs(ctx context.Context, f JobFilter) ([]models.JobPosting, int64, error) {
	q := s.conn(ctx).Model(&models.JobPosting{}).Where("is_active = ?", true)

	if term := strings.TrimSpace(f.Query); term != "" {
		pattern := escapeLike(term)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(company_name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if len(f.JobTypes) > 0 {
		q = q.Where("job_type IN ?", f.JobTypes)
	}
	if len(f.ExperienceLevels) > 0 {
		q = q.Where("experience_level IN ?", f.ExperienceLevels)
	}
	// Overlap test; postings without any salary are never filtered out.
	if f.SalaryMin != nil && f.SalaryMax != nil {
		q = q.Where(
			"((salary_min IS NULL AND salary_max IS NULL) OR "+
				"(COALESCE(salary_max, salary_min) >= ? AND COALESCE(salary_min, salary_max) <= ?))",
			*f.SalaryMin, *f.SalaryMax)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, wrap(err, "count jobs")
	}

	var jobs []models.JobPosting
	err := f.Page.apply(q.Order("posted_at DESC").Order("id")).Find(&jobs).Error
	if err != nil {
		return nil, 0, wrap(err, "search jobs")
	}
	return jobs, total, nil
}

func (s *Store) CreateJob(ctx context.Context, job *models.JobPosting) error {
	return wrap(s.conn(ctx).Create(job).Error, "create job")
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.JobPosting, error) {
	var job models.JobPosting
	if err := s.conn(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get job")
	}
	return &job, nil
}

// GetJobs returns postings keyed by id.
func (s *Store) GetJobs(ctx context.Context, ids []string) (map[string]models.JobPosting, error) {
	out := make(map[string]models.JobPosting, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var jobs []models.JobPosting
	if err := s.conn(ctx).Where("id IN ?", ids).Find(&jobs).Error; err != nil {
		return nil, wrap(err, "get jobs")
	}
	for _, j := range jobs {
		out[j.ID] = j
	}
	return out, nil
}

func (s *Store) SetJobActive(ctx context.Context, id string, active bool) error {
	err := s.conn(ctx).Model(&models.JobPosting{}).Where("id = ?", id).Update("is_active", active).Error
	return wrap(err, "update job status")
}

// ListJobsByCreator returns an HR user's postings, newest first.
func (s *Store) ListJobsByCreator(ctx context.Context, userID string, page Page) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	q := s.conn(ctx).Where("created_by = ?", userID).Order("posted_at DESC").Order("id")
	if err := page.apply(q).Find(&jobs).Error; err != nil {
		return nil, wrap(err, "list jobs by creator")
	}
	return jobs, nil
}

func (s *Store) CountActiveJobsByCreator(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.JobPosting{}).
		Where("created_by = ? AND is_active = ?", userID, true).Count(&n).Error
	return n, wrap(err, "count active jobs")
}

// IncrementJobCounter adds one to views_count or application_count.
func (s *Store) IncrementJobCounter(ctx context.Context, jobID, column string) error {
	switch column {
	case "views_count", "application_count":
	default:
		return fmt.Errorf("unknown job counter %q", column)
	}
	err := s.conn(ctx).Model(&models.JobPosting{}).Where("id = ?", jobID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	return wrap(err, "increment "+column)
}

// RecommendJobs returns the newest active postings the user has not applied
// to, restricted to jobType when given.
func (s *Store) RecommendJobs(ctx context.Context, userID string, jobType *models.JobType, limit int) ([]models.JobPosting, error) {
	applied := s.conn(ctx).Model(&models.Candidate{}).Select("job_id").Where("candidate_id = ?", userID)
	q := s.conn(ctx).Where("is_active = ?", true).Where("id NOT IN (?)", applied)
	if jobType != nil {
		q = q.Where("job_type = ?", *jobType)
	}
	var jobs []models.JobPosting
	if err := q.Order("posted_at DESC").Order("id").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, wrap(err, "recommend jobs")
	}
	return jobs, nil
}

// Analytics columns that BumpJobAnalytics may touch.
const (
	AnalyticsViews        = "views_count"
	AnalyticsApplications = "applications_count"
	AnalyticsSaves        = "saves_count"
)

// BumpJobAnalytics upserts the (job, day) row and adds one to column.
func (s *Store) BumpJobAnalytics(ctx context.Context, jobID, day, column string) error {
	row := models.JobAnalytics{JobID: jobID, Date: day}
	switch column {
	case AnalyticsViews:
		row.ViewsCount = 1
	case AnalyticsApplications:
		row.ApplicationsCount = 1
	case AnalyticsSaves:
		row.SavesCount = 1
	default:
		return fmt.Errorf("unknown analytics column %q", column)
	}

	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]any{
			column: gorm.Expr("job_analytics." + column + " + 1"),
		}),
	}).Create(&row).Error
	return wrap(err, "bump job analytics")
}

func (s *Store) GetJobAnalytics(ctx context.Context, jobID, day string) (*models.JobAnalytics, error) {
	var row models.JobAnalytics
	if err := s.conn(ctx).First(&row, "job_id = ? AND date = ?", jobID, day).Error; err != nil {
		return nil, wrap(err, "get job analytics")
	}
	return &row, nil
}

// ListJobAnalytics returns a job's daily rows, oldest first.
func (s *Store) ListJobAnalytics(ctx context.Context, jobID string) ([]models.JobAnalytics, error) {
	var rows []models.JobAnalytics
	if err := s.conn(ctx).Where("job_id = ?", jobID).Order("date").Find(&rows).Error; err != nil {
		return nil, wrap(err, "list job analytics")
	}
	return rows, nil
}
