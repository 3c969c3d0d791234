package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"atspro/internal/ai"
	"atspro/internal/config"
	"atspro/internal/errors"
	"atspro/internal/formatters"
	"atspro/internal/models"
	"atspro/internal/observability"
	"atspro/internal/store"
	"atspro/internal/types"

	"gorm.io/datatypes"
)

// AI tool identifiers. They double as ExportResult kinds.
const (
	ToolResumeMatcher    = "resume-matcher"
	ToolInterviewSummary = "interview-summary"
	ToolChatSummarizer   = "chat-summarizer"
	ToolBiasDetector     = "bias-detector"
)

// AccessAll marks a tool every signed-in user may run.
const AccessAll = "all"

type Tool struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Access      string `json:"access"`
}

// Tools is the AI tool catalogue.
var Tools = []Tool{
	{ID: ToolResumeMatcher, Title: "Resume Matcher AI", Description: "Match resumes to job descriptions with AI precision", Access: AccessAll},
	{ID: ToolInterviewSummary, Title: "Interview Summary Generator", Description: "Generate structured summaries from interview transcripts", Access: string(models.RoleHR)},
	{ID: ToolChatSummarizer, Title: "Candidate Chat Summarizer", Description: "Extract key insights from candidate communications", Access: string(models.RoleHR)},
	{ID: ToolBiasDetector, Title: "Bias Detector", Description: "Identify and prevent unconscious bias in hiring", Access: string(models.RoleHR)},
}

// FilteredTools returns the tools open to the caller's role.
func FilteredTools(actor *Actor) []Tool {
	out := make([]Tool, 0, len(Tools))
	for _, t := range Tools {
		if t.Access == AccessAll || (!actor.Anonymous() && t.Access == string(actor.Role)) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Service) requireTool(actor *Actor, id string) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if !slices.ContainsFunc(FilteredTools(actor), func(t Tool) bool { return t.ID == id }) {
		return errors.NewForbiddenError(errors.ErrCodeForbiddenRole, "This AI tool is only available to HR users.", nil).
			WithContext("tool", id)
	}
	if s.ai == nil {
		return errors.NewAIError(errors.ErrCodeAIUnavailable, "AI tools are not available right now.", nil)
	}
	return nil
}

func toJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// MatchRequest is the resume matcher form. Either JobID or JobDescription
// selects the job; either ResumeText or ResumeFile supplies the resume.
type MatchRequest struct {
	JobID          string `json:"job_id"`
	JobDescription string `json:"job_description"`
	ResumeText     string `json:"resume_text"`
	ResumeFile     []byte `json:"-"`
	ResumeFileName string `json:"-"`
	ResumeURL      string `json:"resume_url"`
	CandidateID    string `json:"candidate_id"`
}

// MatchResult is a stored analysis plus its score band.
type MatchResult struct {
	*models.ResumeAnalysis
	Band string `json:"band"`
}

// MatchResume scores a resume against a posting or a pasted description.
func (s *Service) MatchResume(ctx context.Context, actor *Actor, req MatchRequest) (*MatchResult, error) {
	if err := s.requireTool(actor, ToolResumeMatcher); err != nil {
		return nil, s.fail(err, "match_resume")
	}
	start := time.Now()

	input := types.MatchResumeInput{JobDescription: strings.TrimSpace(req.JobDescription)}
	var jobID *string
	if req.JobID != "" {
		job, err := s.store.GetJob(ctx, req.JobID)
		if err != nil {
			return nil, s.fail(storeErr(err, "Job"), "match_resume", "job_id", req.JobID)
		}
		parts := []string{job.Description}
		for _, p := range []*string{job.Requirements, job.Responsibilities} {
			if p != nil {
				parts = append(parts, *p)
			}
		}
		input.JobDescription = strings.Join(parts, "\n\n")
		input.JobTitle = job.Title
		jobID = &job.ID
	}
	if input.JobDescription == "" {
		return nil, s.fail(validation("Please choose a job or paste a job description."), "match_resume")
	}

	input.Resume = strings.TrimSpace(req.ResumeText)
	if len(req.ResumeFile) > 0 {
		text, err := s.extractor.FromBytes(req.ResumeFileName, req.ResumeFile)
		if err != nil {
			return nil, s.fail(err, "match_resume", "file", req.ResumeFileName)
		}
		input.Resume = text
	}
	if input.Resume == "" {
		return nil, s.fail(validation("Please upload a resume or paste its text."), "match_resume")
	}

	candidateID := strings.TrimSpace(req.CandidateID)
	if actor.Role == models.RoleJobSeeker {
		candidateID = actor.UserID
	}

	out, err := s.ai.MatchResume(ctx, input)
	if err != nil {
		return nil, s.fail(err, "match_resume")
	}

	analysis := NewResumeAnalysis(input, out)
	analysis.RequestedBy = actor.UserID
	analysis.CandidateID = models.StringPtr(candidateID)
	analysis.JobID = jobID
	analysis.ResumeURL = strings.TrimSpace(req.ResumeURL)
	analysis.ProcessingTimeMS = time.Since(start).Milliseconds()
	analysis.ProcessedAt = s.now()
	err = s.persistTool(ctx, actor, ToolResumeMatcher, "ai_resume_analysis", func(tx *store.Store) (string, error) {
		if err := tx.SaveResumeAnalysis(ctx, analysis); err != nil {
			return "", err
		}
		return analysis.ID, nil
	})
	if err != nil {
		return nil, s.fail(err, "match_resume")
	}

	s.logger.Info("Resume matched", "analysis_id", analysis.ID, "score", analysis.MatchScore, "ms", analysis.ProcessingTimeMS)
	return &MatchResult{ResumeAnalysis: analysis, Band: ai.MatchBand(analysis.MatchScore)}, nil
}

// NewResumeAnalysis converts a provider result into the stored analysis
// shape. Ownership and timing fields are left to the caller.
func NewResumeAnalysis(input types.MatchResumeInput, out types.MatchResumeOutput) *models.ResumeAnalysis {
	return &models.ResumeAnalysis{
		JobDescription:  input.JobDescription,
		MatchScore:      out.MatchScore,
		SkillMatches:    datatypes.NewJSONSlice(out.SkillMatches),
		KeywordMatches:  datatypes.NewJSONSlice(out.KeywordMatches),
		EducationMatch:  toJSON(out.EducationMatch),
		ExperienceMatch: toJSON(out.ExperienceMatch),
		Strengths:       datatypes.NewJSONSlice(out.Strengths),
		Weaknesses:      datatypes.NewJSONSlice(out.Weaknesses),
		AISummary:       models.StringPtr(out.Summary),
		Recommendations: models.StringPtr(out.Recommendations),
	}
}

// persistTool runs save and writes the ai_tool audit row in one transaction.
// save returns the id of the stored result.
func (s *Service) persistTool(ctx context.Context, actor *Actor, tool, entityType string, save func(tx *store.Store) (string, error)) error {
	err := s.store.Transaction(ctx, func(tx *store.Store) error {
		id, err := save(tx)
		if err != nil {
			return err
		}
		return s.logActivity(ctx, tx, actor, ActionAITool, entityType, id,
			map[string]any{"tool": tool, "provider": s.providerFor(tool)})
	})
	return storeErr(err, "AI result")
}

func (s *Service) providerFor(tool string) string {
	switch tool {
	case ToolResumeMatcher:
		return s.ai.ProviderName(config.OpResumeMatch)
	case ToolInterviewSummary:
		return s.ai.ProviderName(config.OpInterviewSummary)
	case ToolChatSummarizer:
		return s.ai.ProviderName(config.OpChatSummary)
	case ToolBiasDetector:
		return s.ai.ProviderName(config.OpBiasDetection)
	}
	return ""
}

// InterviewSummaryRequest is the interview summary form. With InterviewID the
// candidate, date and type come from the scheduled interview.
type InterviewSummaryRequest struct {
	InterviewID   string               `json:"interview_id"`
	CandidateID   string               `json:"candidate_id"`
	InterviewType models.InterviewType `json:"interview_type"`
	Transcript    string               `json:"transcript"`
	RawFeedback   string               `json:"raw_feedback"`
}

// interviewTypeFor maps a scheduled interview onto the summary's type.
func interviewTypeFor(iv *models.Interview) models.InterviewType {
	switch iv.InterviewType {
	case models.RoundTechnical:
		return models.InterviewTypeTechnical
	case models.RoundBehavioral:
		return models.InterviewTypeBehavioral
	}
	return models.InterviewType(iv.InterviewMode)
}

// SummarizeInterview turns an interview transcript into a structured summary.
func (s *Service) SummarizeInterview(ctx context.Context, actor *Actor, req InterviewSummaryRequest) (*models.InterviewSummary, error) {
	if err := s.requireTool(actor, ToolInterviewSummary); err != nil {
		return nil, s.fail(err, "summarize_interview")
	}

	summary := &models.InterviewSummary{
		CandidateID:   strings.TrimSpace(req.CandidateID),
		InterviewerID: actor.UserID,
		InterviewType: req.InterviewType,
		InterviewDate: s.now(),
	}
	var jobTitle string
	if req.InterviewID != "" {
		iv, err := s.store.GetInterview(ctx, req.InterviewID)
		if err != nil {
			return nil, s.fail(storeErr(err, "Interview"), "summarize_interview", "interview_id", req.InterviewID)
		}
		if iv.InterviewerID != actor.UserID {
			return nil, s.fail(notOwner("interview"), "summarize_interview", "interview_id", req.InterviewID)
		}
		summary.InterviewID = &iv.ID
		summary.InterviewDate = iv.ScheduledAt
		if iv.Application != nil {
			summary.CandidateID = iv.Application.CandidateID
			if iv.Application.Job != nil {
				jobTitle = iv.Application.Job.Title
			}
		}
		if summary.InterviewType == "" {
			summary.InterviewType = interviewTypeFor(iv)
		}
	}
	if summary.CandidateID == "" {
		return nil, s.fail(validation("Please choose the candidate."), "summarize_interview")
	}
	if !summary.InterviewType.Valid() {
		return nil, s.fail(validation("Please choose the interview type."), "summarize_interview")
	}

	out, err := s.ai.SummarizeInterview(ctx, types.SummarizeInterviewInput{
		Transcript:    req.Transcript,
		InterviewType: summary.InterviewType,
		JobTitle:      jobTitle,
	})
	if err != nil {
		return nil, s.fail(err, "summarize_interview")
	}

	summary.AudioTranscript = models.StringPtr(strings.TrimSpace(req.Transcript))
	summary.RawFeedback = models.StringPtr(strings.TrimSpace(req.RawFeedback))
	summary.AIGeneratedSummary = models.StringPtr(out.Summary)
	summary.KeyStrengths = datatypes.NewJSONSlice(out.KeyStrengths)
	summary.AreasForImprovement = datatypes.NewJSONSlice(out.AreasForImprovement)
	summary.TechnicalScore = ptr(out.TechnicalScore)
	summary.CommunicationScore = ptr(out.CommunicationScore)
	summary.CulturalFitScore = ptr(out.CulturalFitScore)
	summary.OverallRating = ptr(out.OverallRating)
	summary.RecommendedNextSteps = models.StringPtr(out.RecommendedNextSteps)
	summary.BiasFlags = datatypes.NewJSONSlice(out.BiasFlags)
	summary.ProcessedAt = s.now()

	err = s.persistTool(ctx, actor, ToolInterviewSummary, "ai_interview_summary", func(tx *store.Store) (string, error) {
		if err := tx.SaveInterviewSummary(ctx, summary); err != nil {
			return "", err
		}
		return summary.ID, nil
	})
	if err != nil {
		return nil, s.fail(err, "summarize_interview")
	}

	s.logger.Info("Interview summarized", "summary_id", summary.ID, "candidate_id", summary.CandidateID, "rating", out.OverallRating)
	return summary, nil
}

// ChatSummaryRequest is the chat summarizer form. Transcript holds one
// "Speaker: text" line per message.
type ChatSummaryRequest struct {
	CandidateID string   `json:"candidate_id"`
	JobID       string   `json:"job_id"`
	Transcript  []string `json:"transcript"`
}

// SplitTranscript breaks pasted chat text into non-empty lines.
func SplitTranscript(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// SummarizeChat extracts what a candidate conversation revealed.
func (s *Service) SummarizeChat(ctx context.Context, actor *Actor, req ChatSummaryRequest) (*models.ChatAnalysis, error) {
	if err := s.requireTool(actor, ToolChatSummarizer); err != nil {
		return nil, s.fail(err, "summarize_chat")
	}
	if strings.TrimSpace(req.CandidateID) == "" || strings.TrimSpace(req.JobID) == "" {
		return nil, s.fail(validation("Please choose the candidate and the job."), "summarize_chat")
	}
	job, err := s.store.GetJob(ctx, req.JobID)
	if err != nil {
		return nil, s.fail(storeErr(err, "Job"), "summarize_chat", "job_id", req.JobID)
	}

	var lines []string
	for _, l := range req.Transcript {
		lines = append(lines, SplitTranscript(l)...)
	}
	out, err := s.ai.SummarizeChat(ctx, types.SummarizeChatInput{Transcript: lines, JobTitle: job.Title})
	if err != nil {
		return nil, s.fail(err, "summarize_chat")
	}

	analysis := &models.ChatAnalysis{
		CandidateID:                strings.TrimSpace(req.CandidateID),
		JobID:                      job.ID,
		HRUserID:                   actor.UserID,
		ChatTranscript:             datatypes.NewJSONSlice(lines),
		SalaryExpectations:         datatypes.NewJSONType(out.SalaryExpectations),
		ExtractedAvailability:      datatypes.NewJSONType(out.Availability),
		WorkArrangementPreferences: datatypes.NewJSONSlice(out.WorkArrangementPreferences),
		LocationPreferences:        datatypes.NewJSONSlice(out.LocationPreferences),
		NoticePeriodDiscussed:      models.StringPtr(out.NoticePeriod),
		RedFlags:                   datatypes.NewJSONSlice(out.RedFlags),
		PositiveIndicators:         datatypes.NewJSONSlice(out.PositiveIndicators),
		KeyConcerns:                datatypes.NewJSONSlice(out.KeyConcerns),
		ConfidenceScore:            &out.ConfidenceScore,
		AIRecommendation:           models.StringPtr(out.Recommendation),
		ProcessedAt:                s.now(),
	}
	if out.InterestLevel != "" {
		analysis.InterestLevel = &out.InterestLevel
	}

	err = s.persistTool(ctx, actor, ToolChatSummarizer, "ai_chat_analysis", func(tx *store.Store) (string, error) {
		if err := tx.SaveChatAnalysis(ctx, analysis); err != nil {
			return "", err
		}
		return analysis.ID, nil
	})
	if err != nil {
		return nil, s.fail(err, "summarize_chat")
	}

	s.logger.Info("Chat summarized", "analysis_id", analysis.ID, "candidate_id", analysis.CandidateID, "interest", out.InterestLevel)
	return analysis, nil
}

// BiasRequest is the bias detector form. SourceID defaults to the candidate.
type BiasRequest struct {
	CandidateID string            `json:"candidate_id"`
	SourceType  models.BiasSource `json:"source_type"`
	SourceID    string            `json:"source_id"`
	Content     string            `json:"content"`
}

// alertPriority maps a severity onto the bias alert priority. ok is false
// when no alert is due.
func alertPriority(sev models.SeverityLevel) (models.PriorityLevel, bool) {
	switch sev {
	case models.SeverityCritical:
		return models.PriorityUrgent, true
	case models.SeverityHigh:
		return models.PriorityHigh, true
	}
	return "", false
}

// DetectBias screens hiring text and raises an alert for high severity.
func (s *Service) DetectBias(ctx context.Context, actor *Actor, req BiasRequest) (*models.BiasDetection, error) {
	if err := s.requireTool(actor, ToolBiasDetector); err != nil {
		return nil, s.fail(err, "detect_bias")
	}
	if strings.TrimSpace(req.CandidateID) == "" {
		return nil, s.fail(validation("Please choose the candidate."), "detect_bias")
	}
	if !req.SourceType.Valid() {
		return nil, s.fail(validation("Please choose what kind of text this is."), "detect_bias")
	}
	sourceID := strings.TrimSpace(req.SourceID)
	if sourceID == "" {
		sourceID = strings.TrimSpace(req.CandidateID)
	}

	out, err := s.ai.DetectBias(ctx, types.DetectBiasInput{Content: req.Content, SourceType: req.SourceType})
	if err != nil {
		return nil, s.fail(err, "detect_bias")
	}

	det := &models.BiasDetection{
		CandidateID:               strings.TrimSpace(req.CandidateID),
		HRUserID:                  actor.UserID,
		SourceType:                req.SourceType,
		SourceID:                  sourceID,
		OriginalContent:           req.Content,
		SeverityLevel:             out.SeverityLevel,
		FlaggedPhrases:            datatypes.NewJSONSlice(out.FlaggedPhrases),
		BiasCategories:            datatypes.NewJSONSlice(out.BiasCategories),
		BiasFlags:                 datatypes.NewJSONSlice(phrases(out.FlaggedPhrases)),
		SuggestedAlternatives:     datatypes.NewJSONSlice(out.SuggestedAlternatives),
		AIExplanation:             models.StringPtr(out.Explanation),
		CorrectiveRecommendations: models.StringPtr(out.CorrectiveRecommendations),
		DetectedAt:                s.now(),
	}
	priority, alert := alertPriority(out.SeverityLevel)

	err = s.persistTool(ctx, actor, ToolBiasDetector, "ai_bias_detection", func(tx *store.Store) (string, error) {
		if err := tx.SaveBiasDetection(ctx, det); err != nil {
			return "", err
		}
		if !alert {
			return det.ID, nil
		}
		return det.ID, s.notify(ctx, tx, Notice{
			UserID: actor.UserID,
			Type:   models.NotifyBiasAlert,
			Title:  "Potential bias detected",
			Message: fmt.Sprintf("%s-severity bias found in %s: %s",
				upperFirst(string(out.SeverityLevel)), strings.ReplaceAll(string(req.SourceType), "_", " "),
				strings.Join(out.BiasCategories, ", ")),
			Priority:          priority,
			ActionURL:         "/api/v1/ai/results/" + ToolBiasDetector + "/" + det.ID,
			RelatedEntityID:   det.ID,
			RelatedEntityType: "ai_bias_detection",
		})
	})
	if err != nil {
		return nil, s.fail(err, "detect_bias")
	}

	if alert {
		s.record(ctx, observability.EventBiasAlert)
		s.logger.Warn("Bias alert raised", "detection_id", det.ID, "severity", det.SeverityLevel, "hr_user_id", actor.UserID)
	}
	s.logger.Info("Bias check completed", "detection_id", det.ID, "severity", det.SeverityLevel, "flags", len(out.FlaggedPhrases))
	return det, nil
}

func phrases(flagged []models.FlaggedPhrase) []string {
	out := make([]string, 0, len(flagged))
	for _, f := range flagged {
		out = append(out, f.Phrase)
	}
	return out
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ReviewBias records the HR user's response to one of their detections.
func (s *Service) ReviewBias(ctx context.Context, actor *Actor, id, response string) (*models.BiasDetection, error) {
	if err := requireRole(actor, models.RoleHR); err != nil {
		return nil, s.fail(err, "review_bias")
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, s.fail(validation("Please describe how this was addressed."), "review_bias")
	}
	det, err := s.store.GetBiasDetection(ctx, id)
	if err != nil {
		return nil, s.fail(storeErr(err, "Bias detection"), "review_bias", "detection_id", id)
	}
	if det.HRUserID != actor.UserID {
		return nil, s.fail(notOwner("bias report"), "review_bias", "detection_id", id)
	}
	if err := s.store.ReviewBiasDetection(ctx, id, response); err != nil {
		return nil, s.fail(storeErr(err, "Bias detection"), "review_bias", "detection_id", id)
	}
	det.ReviewedByHR = true
	det.HRResponse = &response
	s.logger.Info("Bias detection reviewed", "detection_id", id)
	return det, nil
}

// Export is a rendered tool result.
type Export struct {
	Content     string
	ContentType string
}

var exportContentTypes = map[string]string{
	"json":     "application/json",
	"text":     "text/plain; charset=utf-8",
	"markdown": "text/markdown; charset=utf-8",
}

// ExportResult renders a stored tool result as json, text or markdown. Resume
// analyses are visible to whoever requested them, the candidate and HR; the
// other results to HR only.
func (s *Service) ExportResult(ctx context.Context, actor *Actor, kind, id, format string) (*Export, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if format == "" {
		format = "json"
	}
	contentType, ok := exportContentTypes[format]
	if !ok || !formatters.GlobalRegistry.Supports(format) {
		return nil, s.fail(errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported export format %q. Use json, text or markdown.", format), nil), "export")
	}

	var (
		result any
		err    error
	)
	switch kind {
	case ToolResumeMatcher:
		var r *models.ResumeAnalysis
		r, err = s.store.GetResumeAnalysis(ctx, id)
		if err == nil && actor.Role != models.RoleHR && r.RequestedBy != actor.UserID &&
			(r.CandidateID == nil || *r.CandidateID != actor.UserID) {
			return nil, s.fail(notOwner("analysis"), "export", "kind", kind, "id", id)
		}
		result = r
	case ToolInterviewSummary, ToolChatSummarizer, ToolBiasDetector:
		if err := requireRole(actor, models.RoleHR); err != nil {
			return nil, s.fail(err, "export", "kind", kind)
		}
		switch kind {
		case ToolInterviewSummary:
			result, err = s.store.GetInterviewSummary(ctx, id)
		case ToolChatSummarizer:
			result, err = s.store.GetChatAnalysis(ctx, id)
		default:
			result, err = s.store.GetBiasDetection(ctx, id)
		}
	default:
		return nil, s.fail(storeErr(store.ErrNotFound, "Result type"), "export", "kind", kind)
	}
	if err != nil {
		return nil, s.fail(storeErr(err, "Result"), "export", "kind", kind, "id", id)
	}

	content, err := formatters.GlobalRegistry.Format(result, format)
	if err != nil {
		return nil, s.fail(errors.NewInternalError(errors.ErrCodeInternal, "Could not export this result.", err), "export", "kind", kind)
	}
	return &Export{Content: content, ContentType: contentType}, nil
}
