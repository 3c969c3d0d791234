package store

import (
	"context"

	"atspro/internal/models"
)

func (s *Store) SaveResumeAnalysis(ctx context.Context, r *models.ResumeAnalysis) error {
	return wrap(s.conn(ctx).Create(r).Error, "save resume analysis")
}

func (s *Store) GetResumeAnalysis(ctx context.Context, id string) (*models.ResumeAnalysis, error) {
	var r models.ResumeAnalysis
	if err := s.conn(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get resume analysis")
	}
	return &r, nil
}

// LatestMatchScores returns the newest match score per application, keyed by
// "<candidate_id>/<job_id>".
func (s *Store) LatestMatchScores(ctx context.Context, apps []models.Candidate) (map[string]float64, error) {
	out := make(map[string]float64)
	if len(apps) == 0 {
		return out, nil
	}
	userIDs := make([]string, 0, len(apps))
	for _, a := range apps {
		userIDs = append(userIDs, a.CandidateID)
	}

	var rows []models.ResumeAnalysis
	err := s.conn(ctx).Select("candidate_id", "job_id", "match_score", "processed_at").
		Where("candidate_id IN ? AND job_id IS NOT NULL", userIDs).
		Order("processed_at DESC").Find(&rows).Error
	if err != nil {
		return nil, wrap(err, "latest match scores")
	}
	for _, r := range rows {
		key := MatchKey(*r.CandidateID, *r.JobID)
		if _, seen := out[key]; !seen {
			out[key] = r.MatchScore
		}
	}
	return out, nil
}

// MatchKey is the LatestMatchScores map key for one application.
func MatchKey(candidateID, jobID string) string {
	return candidateID + "/" + jobID
}

func (s *Store) SaveInterviewSummary(ctx context.Context, r *models.InterviewSummary) error {
	return wrap(s.conn(ctx).Create(r).Error, "save interview summary")
}

func (s *Store) GetInterviewSummary(ctx context.Context, id string) (*models.InterviewSummary, error) {
	var r models.InterviewSummary
	if err := s.conn(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get interview summary")
	}
	return &r, nil
}

func (s *Store) SaveChatAnalysis(ctx context.Context, r *models.ChatAnalysis) error {
	return wrap(s.conn(ctx).Create(r).Error, "save chat analysis")
}

func (s *Store) GetChatAnalysis(ctx context.Context, id string) (*models.ChatAnalysis, error) {
	var r models.ChatAnalysis
	if err := s.conn(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get chat analysis")
	}
	return &r, nil
}

func (s *Store) SaveBiasDetection(ctx context.Context, r *models.BiasDetection) error {
	return wrap(s.conn(ctx).Create(r).Error, "save bias detection")
}

func (s *Store) GetBiasDetection(ctx context.Context, id string) (*models.BiasDetection, error) {
	var r models.BiasDetection
	if err := s.conn(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "get bias detection")
	}
	return &r, nil
}

// ReviewBiasDetection records the HR user's response to a detection.
func (s *Store) ReviewBiasDetection(ctx context.Context, id, response string) error {
	err := s.conn(ctx).Model(&models.BiasDetection{}).Where("id = ?", id).
		Updates(map[string]any{"reviewed_by_hr": true, "hr_response": response}).Error
	return wrap(err, "review bias detection")
}
