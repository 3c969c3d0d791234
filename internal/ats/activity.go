package ats

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"atspro/internal/models"
	"atspro/internal/store"

	"gorm.io/datatypes"
)

// Activity log actions.
const (
	ActionSignup            = "signup"
	ActionLogin             = "login"
	ActionApply             = "apply"
	ActionSaveJob           = "save_job"
	ActionCreateJob         = "create_job"
	ActionUpdateStatus      = "update_status"
	ActionScheduleInterview = "schedule_interview"
	ActionAITool            = "ai_tool"
	ActionProfileView       = "profile_view"
)

// logActivity writes one audit row through st so it joins any surrounding
// transaction.
func (s *Service) logActivity(ctx context.Context, st *store.Store, actor *Actor, action, entityType, entityID string, metadata map[string]any) error {
	if actor.Anonymous() {
		return nil
	}
	entry := &models.ActivityLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: models.StringPtr(entityType),
		EntityID:   models.StringPtr(entityID),
		IPAddress:  models.StringPtr(actor.IPAddress),
		UserAgent:  models.StringPtr(actor.UserAgent),
		SessionID:  models.StringPtr(actor.SessionID),
		CreatedAt:  s.now(),
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		entry.Metadata = datatypes.JSON(raw)
	}
	return st.LogActivity(ctx, entry)
}

// logActivityBestEffort is used outside transactions where a lost audit row
// must not fail the request.
func (s *Service) logActivityBestEffort(ctx context.Context, actor *Actor, action, entityType, entityID string, metadata map[string]any) {
	if err := s.logActivity(ctx, s.store, actor, action, entityType, entityID, metadata); err != nil {
		s.logger.LogError(err, "Failed to write activity log", "action", action, "user_id", actor.UserID)
	}
}

// ListActivity returns the caller's own activity, newest first.
func (s *Service) ListActivity(ctx context.Context, actor *Actor, page store.Page) ([]models.ActivityLog, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	rows, err := s.store.ListActivity(ctx, actor.UserID, clampPage(page))
	return rows, storeErr(err, "Activity")
}

// RollupRecruitmentMetrics writes one recruitment_metrics row per HR user for
// the calendar day of date. Figures are a snapshot as of the end of that day.
func (s *Service) RollupRecruitmentMetrics(ctx context.Context, date time.Time) ([]models.RecruitmentMetric, error) {
	day := store.Day(date)
	start, _ := time.Parse("2006-01-02", day)
	end := start.AddDate(0, 0, 1)

	hrUsers, err := s.store.ListUserIDsByRole(ctx, models.RoleHR)
	if err != nil {
		return nil, s.fail(storeErr(err, "Users"), "rollup")
	}

	out := make([]models.RecruitmentMetric, 0, len(hrUsers))
	for _, hrID := range hrUsers {
		m, err := s.rollupFor(ctx, hrID, day, end)
		if err != nil {
			return nil, s.fail(err, "rollup", "hr_user_id", hrID)
		}
		if err := s.store.UpsertRecruitmentMetric(ctx, m); err != nil {
			return nil, s.fail(storeErr(err, "Recruitment metric"), "rollup", "hr_user_id", hrID)
		}
		out = append(out, *m)
	}

	s.logger.Info("Recruitment metrics rolled up", "date", day, "hr_users", len(out))
	return out, nil
}

func (s *Service) rollupFor(ctx context.Context, hrID, day string, end time.Time) (*models.RecruitmentMetric, error) {
	apps, err := s.store.ApplicationsForCreator(ctx, hrID, end)
	if err != nil {
		return nil, storeErr(err, "Applications")
	}
	conducted, err := s.store.CountCompletedInterviewsForCreator(ctx, hrID, end)
	if err != nil {
		return nil, storeErr(err, "Interviews")
	}

	m := &models.RecruitmentMetric{
		HRUserID:            hrID,
		MetricDate:          day,
		TotalApplications:   len(apps),
		InterviewsConducted: int(conducted),
	}
	var hireDays float64
	var hires int
	for _, a := range apps {
		status := a.Status
		// A placement dated after the day was still an offer on that day.
		if status == models.StatusPlaced && (a.PlacementDate == nil || !a.PlacementDate.Before(end)) {
			status = models.StatusSelected
		}

		switch status {
		case models.StatusApplied, models.StatusWithdrawn:
		default:
			m.ApplicationsReviewed++
		}
		switch status {
		case models.StatusShortlisted, models.StatusInterviewed, models.StatusSelected, models.StatusPlaced:
			m.CandidatesShortlisted++
		}
		if status.Hired() {
			m.OffersMade++
		}
		if status == models.StatusPlaced {
			m.PlacementsCompleted++
			hireDays += a.PlacementDate.Sub(a.AppliedAt).Hours() / 24
			hires++
		}
	}
	if hires > 0 {
		avg := math.Round(hireDays/float64(hires)*10) / 10
		m.AvgTimeToHire = &avg
	}
	return m, nil
}

// clampPage applies the list defaults: 20 rows, at most 100.
func clampPage(p store.Page) store.Page {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
