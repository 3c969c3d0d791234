package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"atspro/internal/errors"
	"atspro/internal/models"
	"atspro/internal/observability"
	"atspro/internal/store"

	"gorm.io/datatypes"
)

// DefaultInterviewMinutes is used when a schedule request leaves the duration out.
const DefaultInterviewMinutes = 60

// Applicant is an application as the hiring team sees it.
type Applicant struct {
	models.Candidate
	CandidateName string   `json:"candidate_name"`
	MatchScore    *float64 `json:"match_score,omitempty"`
}

// applicants decorates apps with names and the latest resume match score.
func (s *Service) applicants(ctx context.Context, apps []models.Candidate) ([]Applicant, error) {
	ids := make([]string, 0, len(apps))
	for _, a := range apps {
		ids = append(ids, a.CandidateID)
	}
	profiles, err := s.store.GetProfiles(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "Profiles")
	}
	scores, err := s.store.LatestMatchScores(ctx, apps)
	if err != nil {
		return nil, storeErr(err, "Match scores")
	}

	out := make([]Applicant, len(apps))
	for i, a := range apps {
		out[i] = Applicant{Candidate: a}
		if p, ok := profiles[a.CandidateID]; ok {
			out[i].CandidateName = p.FullName()
		}
		if score, ok := scores[store.MatchKey(a.CandidateID, a.JobID)]; ok {
			out[i].MatchScore = &score
		}
	}
	return out, nil
}

// ListJobApplications returns the applications to one of the caller's
// postings, optionally filtered by status.
func (s *Service) ListJobApplications(ctx context.Context, actor *Actor, jobID string, status *models.ApplicationStatus) ([]Applicant, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "list_job_applications")
	}
	if status != nil && !status.Valid() {
		return nil, s.fail(validation(fmt.Sprintf("Unknown application status %q.", *status)), "list_job_applications")
	}
	if _, err := s.ownJob(ctx, actor, jobID); err != nil {
		return nil, s.fail(err, "list_job_applications", "job_id", jobID)
	}

	apps, err := s.store.ListApplicationsByJob(ctx, jobID, status)
	if err != nil {
		return nil, s.fail(storeErr(err, "Applications"), "list_job_applications", "job_id", jobID)
	}
	out, err := s.applicants(ctx, apps)
	if err != nil {
		return nil, s.fail(err, "list_job_applications", "job_id", jobID)
	}
	return out, nil
}

// ownApplication loads an application to one of the caller's postings.
func (s *Service) ownApplication(ctx context.Context, actor *Actor, id string) (*models.Candidate, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Application")
	}
	if app.Job == nil || app.Job.CreatedBy != actor.UserID {
		return nil, notOwner("application")
	}
	return app, nil
}

// StatusUpdate is the hiring team's decision on an application.
type StatusUpdate struct {
	Status      models.ApplicationStatus `json:"status"`
	HRNotes     *string                  `json:"hr_notes"`
	Rating      *int                     `json:"rating"`
	FinalSalary *float64                 `json:"final_salary_offered"`
}

func (u StatusUpdate) validate() error {
	if !u.Status.Valid() {
		return errors.NewValidationError(errors.ErrCodeInvalidStatus, "Please choose a valid application status.", nil)
	}
	if u.Status == models.StatusWithdrawn {
		return errors.NewValidationError(errors.ErrCodeInvalidStatus, "Only the candidate can withdraw an application.", nil)
	}
	if u.Rating != nil && (*u.Rating < 1 || *u.Rating > 5) {
		return validation("Rating must be between 1 and 5.")
	}
	if u.FinalSalary != nil && *u.FinalSalary < 0 {
		return validation("Please enter a valid salary.")
	}
	return nil
}

var statusMessages = map[models.ApplicationStatus]string{
	models.StatusApplied:     "Your application for %s is back in the queue.",
	models.StatusReviewing:   "Your application for %s is being reviewed.",
	models.StatusShortlisted: "Good news! You have been shortlisted for %s.",
	models.StatusInterviewed: "Thanks for interviewing for %s. We will be in touch soon.",
	models.StatusSelected:    "Congratulations! You have been selected for %s.",
	models.StatusRejected:    "Your application for %s was not successful this time.",
	models.StatusPlaced:      "Welcome aboard! Your placement for %s is confirmed.",
}

// UpdateApplicationStatus moves an application through the pipeline and
// tells the candidate.
func (s *Service) UpdateApplicationStatus(ctx context.Context, actor *Actor, applicationID string, req StatusUpdate) (*models.Candidate, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "update_status")
	}
	if err := req.validate(); err != nil {
		return nil, s.fail(err, "update_status", "application_id", applicationID)
	}
	app, err := s.ownApplication(ctx, actor, applicationID)
	if err != nil {
		return nil, s.fail(err, "update_status", "application_id", applicationID)
	}
	if app.Status == models.StatusWithdrawn {
		return nil, s.fail(errors.NewConflictError(errors.ErrCodeInvalidStatus,
			"This application has been withdrawn by the candidate.", nil), "update_status", "application_id", applicationID)
	}

	now := s.now()
	previous := app.Status
	fields := map[string]any{
		"status":            req.Status,
		"status_updated_at": now,
		"status_updated_by": actor.UserID,
	}
	if req.HRNotes != nil {
		fields["hr_notes"] = models.StringPtr(strings.TrimSpace(*req.HRNotes))
	}
	if req.Rating != nil {
		fields["rating"] = *req.Rating
	}
	if req.FinalSalary != nil {
		fields["final_salary_offered"] = *req.FinalSalary
	}
	if req.Status == models.StatusPlaced && app.PlacementDate == nil {
		fields["placement_date"] = now
	}

	title := app.Job.Title
	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.UpdateApplication(ctx, app.ID, fields); err != nil {
			return err
		}
		if previous != req.Status {
			text := fmt.Sprintf(statusMessages[req.Status], title)
			if err := s.notify(ctx, tx, Notice{
				UserID:            app.CandidateID,
				Type:              models.NotifyApplication,
				Title:             "Application update",
				Message:           text,
				ActionURL:         "/api/v1/applications",
				RelatedEntityID:   app.ID,
				RelatedEntityType: "candidate",
			}); err != nil {
				return err
			}
			if _, err := s.sendMessage(ctx, tx, actor.UserID, MessageRequest{
				RecipientID: app.CandidateID,
				Subject:     "Update on your application for " + title,
				Body:        text,
				Type:        models.MessageApplicationUpdate,
				CandidateID: app.ID,
			}); err != nil {
				return err
			}
		}
		return s.logActivity(ctx, tx, actor, ActionUpdateStatus, "candidate", app.ID,
			map[string]any{"from": previous, "to": req.Status})
	})
	if err != nil {
		return nil, s.fail(storeErr(err, "Application"), "update_status", "application_id", applicationID)
	}

	updated, err := s.store.GetApplication(ctx, app.ID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Application"), "update_status", "application_id", applicationID)
	}
	s.record(ctx, observability.EventStatusChanged)
	s.logger.Info("Application status updated", "application_id", app.ID, "from", previous, "to", req.Status)
	return updated, nil
}

// ScheduleRequest is the interview scheduling form.
type ScheduleRequest struct {
	ScheduledAt     time.Time                 `json:"scheduled_at"`
	DurationMinutes int                       `json:"duration_minutes"`
	Mode            models.InterviewMode      `json:"interview_mode"`
	Type            models.InterviewRoundType `json:"interview_type"`
	Round           int                       `json:"interview_round"`
	MeetingLink     string                    `json:"meeting_link"`
	Location        string                    `json:"location"`
	Agenda          string                    `json:"agenda"`
}

func (r *ScheduleRequest) validate(now time.Time) error {
	if r.ScheduledAt.IsZero() || !r.ScheduledAt.After(now) {
		return validation("Please pick an interview time in the future.")
	}
	if !r.Mode.Valid() {
		return validation("Please choose phone, video or in-person.")
	}
	if !r.Type.Valid() {
		return validation("Please choose the interview round type.")
	}
	if r.DurationMinutes == 0 {
		r.DurationMinutes = DefaultInterviewMinutes
	}
	if r.DurationMinutes < 0 || r.DurationMinutes > 8*60 {
		return validation("Interview duration must be between 1 and 480 minutes.")
	}
	if r.Round == 0 {
		r.Round = 1
	}
	if r.Round < 0 {
		return validation("Interview round must be positive.")
	}
	return nil
}

// ScheduleInterview books an interview on an application. The application
// status is left alone.
func (s *Service) ScheduleInterview(ctx context.Context, actor *Actor, applicationID string, req ScheduleRequest) (*models.Interview, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "schedule_interview")
	}
	now := s.now()
	if err := req.validate(now); err != nil {
		return nil, s.fail(err, "schedule_interview", "application_id", applicationID)
	}
	app, err := s.ownApplication(ctx, actor, applicationID)
	if err != nil {
		return nil, s.fail(err, "schedule_interview", "application_id", applicationID)
	}
	switch app.Status {
	case models.StatusWithdrawn, models.StatusRejected:
		return nil, s.fail(errors.NewConflictError(errors.ErrCodeInvalidStatus,
			"Interviews cannot be scheduled for a closed application.", nil),
			"schedule_interview", "application_id", applicationID, "status", app.Status)
	}

	iv := &models.Interview{
		ApplicationID:   app.ID,
		InterviewerID:   actor.UserID,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		InterviewMode:   req.Mode,
		InterviewType:   req.Type,
		InterviewRound:  req.Round,
		Status:          models.InterviewScheduled,
		MeetingLink:     models.StringPtr(strings.TrimSpace(req.MeetingLink)),
		Location:        models.StringPtr(strings.TrimSpace(req.Location)),
		Agenda:          models.StringPtr(strings.TrimSpace(req.Agenda)),
	}

	when := iv.ScheduledAt.Format("Mon, 02 Jan 2006 15:04 MST")
	text := fmt.Sprintf("You have a %s interview for %s on %s (%d minutes).",
		strings.ReplaceAll(string(req.Mode), "_", "-"), app.Job.Title, when, req.DurationMinutes)
	if iv.MeetingLink != nil {
		text += " Join: " + *iv.MeetingLink
	}

	err = s.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.CreateInterview(ctx, iv); err != nil {
			return err
		}
		if err := tx.UpdateApplication(ctx, app.ID, map[string]any{"interview_scheduled": true}); err != nil {
			return err
		}
		if _, err := s.sendMessage(ctx, tx, actor.UserID, MessageRequest{
			RecipientID: app.CandidateID,
			Subject:     "Interview invitation: " + app.Job.Title,
			Body:        text,
			Type:        models.MessageInterviewInvite,
			CandidateID: app.ID,
		}); err != nil {
			return err
		}
		if err := s.notify(ctx, tx, Notice{
			UserID:            app.CandidateID,
			Type:              models.NotifyInterview,
			Title:             "Interview scheduled",
			Message:           text,
			Priority:          models.PriorityHigh,
			ActionURL:         "/api/v1/interviews",
			RelatedEntityID:   iv.ID,
			RelatedEntityType: "interview",
		}); err != nil {
			return err
		}
		return s.logActivity(ctx, tx, actor, ActionScheduleInterview, "interview", iv.ID,
			map[string]any{"application_id": app.ID, "scheduled_at": iv.ScheduledAt})
	})
	if err != nil {
		return nil, s.fail(storeErr(err, "Interview"), "schedule_interview", "application_id", applicationID)
	}

	s.record(ctx, observability.EventInterviewScheduled)
	s.logger.Info("Interview scheduled", "interview_id", iv.ID, "application_id", app.ID, "scheduled_at", iv.ScheduledAt)
	return iv, nil
}

// InterviewFeedback closes an interview.
type InterviewFeedback struct {
	OverallRating      int                       `json:"overall_rating"`
	Recommendation     models.RecommendationType `json:"recommendation"`
	RawFeedback        string                    `json:"raw_feedback"`
	StructuredFeedback map[string]any            `json:"structured_feedback"`
	NextSteps          string                    `json:"next_steps"`
}

// CompleteInterview records the interviewer's verdict.
func (s *Service) CompleteInterview(ctx context.Context, actor *Actor, interviewID string, fb InterviewFeedback) (*models.Interview, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "complete_interview")
	}
	if fb.OverallRating < 1 || fb.OverallRating > 5 {
		return nil, s.fail(validation("Overall rating must be between 1 and 5."), "complete_interview")
	}
	if !fb.Recommendation.Valid() {
		return nil, s.fail(validation("Please choose a hiring recommendation."), "complete_interview")
	}

	iv, err := s.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Interview"), "complete_interview", "interview_id", interviewID)
	}
	if iv.InterviewerID != actor.UserID {
		return nil, s.fail(notOwner("interview"), "complete_interview", "interview_id", interviewID)
	}
	if iv.Status == models.InterviewCompleted || iv.Status == models.InterviewCancelled {
		return nil, s.fail(errors.NewConflictError(errors.ErrCodeInvalidStatus,
			fmt.Sprintf("This interview is already %s.", iv.Status), nil), "complete_interview", "interview_id", interviewID)
	}

	fields := map[string]any{
		"status":         models.InterviewCompleted,
		"overall_rating": fb.OverallRating,
		"recommendation": fb.Recommendation,
		"raw_feedback":   models.StringPtr(strings.TrimSpace(fb.RawFeedback)),
		"next_steps":     models.StringPtr(strings.TrimSpace(fb.NextSteps)),
	}
	if len(fb.StructuredFeedback) > 0 {
		raw, err := json.Marshal(fb.StructuredFeedback)
		if err != nil {
			return nil, s.fail(validation("Structured feedback is not valid."), "complete_interview")
		}
		fields["structured_feedback"] = datatypes.JSON(raw)
	}
	if err := s.store.UpdateInterview(ctx, iv.ID, fields); err != nil {
		return nil, s.fail(storeErr(err, "Interview"), "complete_interview", "interview_id", interviewID)
	}

	updated, err := s.store.GetInterview(ctx, iv.ID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Interview"), "complete_interview", "interview_id", interviewID)
	}
	s.logger.Info("Interview completed", "interview_id", iv.ID, "rating", fb.OverallRating, "recommendation", fb.Recommendation)
	return updated, nil
}

// ListInterviews returns interviews the caller runs (HR) or attends (job seeker).
func (s *Service) ListInterviews(ctx context.Context, actor *Actor) ([]models.Interview, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	var (
		ivs []models.Interview
		err error
	)
	if actor.Role == models.RoleHR {
		ivs, err = s.store.ListInterviewsByInterviewer(ctx, actor.UserID)
	} else {
		ivs, err = s.store.ListInterviewsForSeeker(ctx, actor.UserID)
	}
	if err != nil {
		return nil, s.fail(storeErr(err, "Interviews"), "list_interviews")
	}
	return ivs, nil
}
