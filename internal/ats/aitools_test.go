package ats

import (
	"context"
	"testing"
	"time"

	"atspro/internal/errors"
	"atspro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Sam Seeker
Backend developer with 5 years of experience.
Skills: Go, PostgreSQL, Docker, Kubernetes, REST APIs.
B.Sc. Computer Science.`

func TestFilteredTools(t *testing.T) {
	ids := func(tools []Tool) []string {
		out := make([]string, 0, len(tools))
		for _, tool := range tools {
			out = append(out, tool.ID)
		}
		return out
	}

	assert.Equal(t, []string{ToolResumeMatcher}, ids(FilteredTools(nil)))
	assert.Equal(t, []string{ToolResumeMatcher}, ids(FilteredTools(&Actor{UserID: "u", Role: models.RoleJobSeeker})))
	assert.Equal(t, []string{ToolResumeMatcher, ToolInterviewSummary, ToolChatSummarizer, ToolBiasDetector},
		ids(FilteredTools(&Actor{UserID: "u", Role: models.RoleHR})))
}

func TestHROnlyToolsRejectSeekers(t *testing.T) {
	svc := newTestService(t)
	seeker := newSeeker(t, svc, "sam@example.com")

	_, err := svc.DetectBias(context.Background(), seeker, BiasRequest{
		CandidateID: seeker.UserID, SourceType: models.BiasSourceCandidateNotes, Content: "fine",
	})
	appErr := requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeForbiddenRole)
	assert.Equal(t, "This AI tool is only available to HR users.", appErr.Message)

	_, err = svc.SummarizeChat(context.Background(), nil, ChatSummaryRequest{})
	requireCode(t, err, errors.ErrorTypeUnauthorized, errors.ErrCodeUnauthenticated)
}

func TestToolsWithoutAI(t *testing.T) {
	svc := newTestService(t)
	svc.ai = nil
	hr := newHR(t, svc, "hr@example.com")

	_, err := svc.MatchResume(context.Background(), hr, MatchRequest{JobDescription: "Go", ResumeText: "Go"})
	requireCode(t, err, errors.ErrorTypeAI, errors.ErrCodeAIUnavailable)
}

func TestMatchResume(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	seeker := newSeeker(t, svc, "sam@example.com")
	job := postJob(t, svc, hr, nil)

	_, err := svc.MatchResume(ctx, seeker, MatchRequest{JobID: job.ID})
	appErr := requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)
	assert.Equal(t, "Please upload a resume or paste its text.", appErr.Message)

	_, err = svc.MatchResume(ctx, seeker, MatchRequest{ResumeText: sampleResume})
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)

	res, err := svc.MatchResume(ctx, seeker, MatchRequest{
		JobID:          job.ID,
		ResumeFile:     []byte(sampleResume),
		ResumeFileName: "resume.txt",
		CandidateID:    "someone-else",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, seeker.UserID, res.RequestedBy)
	require.NotNil(t, res.CandidateID)
	assert.Equal(t, seeker.UserID, *res.CandidateID, "seekers can only match their own resume")
	require.NotNil(t, res.JobID)
	assert.Equal(t, job.ID, *res.JobID)
	assert.Contains(t, res.JobDescription, "3+ years of Go")
	assert.Greater(t, res.MatchScore, 0.0)
	assert.NotEmpty(t, res.Band)

	stored, err := svc.store.GetResumeAnalysis(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.MatchScore, stored.MatchScore)

	n, err := svc.store.CountActivity(ctx, ActionAITool, res.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// The score now shows up next to the application.
	apply(t, svc, seeker, job.ID)
	apps, err := svc.ListJobApplications(ctx, hr, job.ID, nil)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].MatchScore)
	assert.Equal(t, res.MatchScore, *apps[0].MatchScore)
}

func TestExportResult(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	seeker := newSeeker(t, svc, "sam@example.com")
	stranger := newSeeker(t, svc, "other@example.com")

	res, err := svc.MatchResume(ctx, seeker, MatchRequest{
		JobDescription: "Go developer with PostgreSQL experience.",
		ResumeText:     sampleResume,
	})
	require.NoError(t, err)

	out, err := svc.ExportResult(ctx, seeker, ToolResumeMatcher, res.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", out.ContentType)
	assert.Contains(t, out.Content, `"match_score"`)

	out, err = svc.ExportResult(ctx, hr, ToolResumeMatcher, res.ID, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out.Content, "# Resume Match")
	assert.Contains(t, out.Content, "Match Score")

	out, err = svc.ExportResult(ctx, seeker, ToolResumeMatcher, res.ID, "text")
	require.NoError(t, err)
	assert.Contains(t, out.Content, "RESUME MATCH")

	_, err = svc.ExportResult(ctx, stranger, ToolResumeMatcher, res.ID, "json")
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeNotOwner)

	_, err = svc.ExportResult(ctx, seeker, ToolResumeMatcher, res.ID, "xml")
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidFormat)

	_, err = svc.ExportResult(ctx, seeker, "horoscope", res.ID, "json")
	requireCode(t, err, errors.ErrorTypeNotFound, errors.ErrCodeNotFound)

	_, err = svc.ExportResult(ctx, seeker, ToolBiasDetector, res.ID, "json")
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeForbiddenRole)

	_, err = svc.ExportResult(ctx, hr, ToolResumeMatcher, "missing", "json")
	requireCode(t, err, errors.ErrorTypeNotFound, errors.ErrCodeNotFound)
}

func TestDetectBias(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	seeker := newSeeker(t, svc, "sam@example.com")

	_, err := svc.DetectBias(ctx, hr, BiasRequest{CandidateID: seeker.UserID, SourceType: "gossip", Content: "x"})
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)

	clean, err := svc.DetectBias(ctx, hr, BiasRequest{
		CandidateID: seeker.UserID,
		SourceType:  models.BiasSourceInterviewFeedback,
		Content:     "Strong system design answers and good test coverage.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityLow, clean.SeverityLevel)
	assert.Equal(t, seeker.UserID, clean.SourceID)

	notes, err := svc.ListNotifications(ctx, hr, true, storePage(10))
	require.NoError(t, err)
	assert.Empty(t, notes)

	det, err := svc.DetectBias(ctx, hr, BiasRequest{
		CandidateID: seeker.UserID,
		SourceType:  models.BiasSourceHiringDecision,
		SourceID:    "decision-1",
		Content:     "She is pregnant and too old for this team.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityCritical, det.SeverityLevel)
	assert.Equal(t, "decision-1", det.SourceID)
	assert.Len(t, det.FlaggedPhrases, 2)

	notes, err = svc.ListNotifications(ctx, hr, true, storePage(10))
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyBiasAlert, notes[0].Type)
	assert.Equal(t, models.PriorityUrgent, notes[0].Priority)
	assert.Contains(t, notes[0].Message, "Critical-severity bias found in hiring decision")

	_, err = svc.ReviewBias(ctx, hr, det.ID, "  ")
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)

	other := newHR(t, svc, "other@example.com")
	_, err = svc.ReviewBias(ctx, other, det.ID, "Rewrote the decision notes.")
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeNotOwner)

	reviewed, err := svc.ReviewBias(ctx, hr, det.ID, "Rewrote the decision notes.")
	require.NoError(t, err)
	assert.True(t, reviewed.ReviewedByHR)

	stored, err := svc.store.GetBiasDetection(ctx, det.ID)
	require.NoError(t, err)
	assert.True(t, stored.ReviewedByHR)
	require.NotNil(t, stored.HRResponse)
	assert.Equal(t, "Rewrote the decision notes.", *stored.HRResponse)
}

func TestSummarizeInterview(t *testing.T) {
	f := newPipeline(t)
	ctx := context.Background()
	iv, err := f.svc.ScheduleInterview(ctx, f.hr, f.app.ID, ScheduleRequest{
		ScheduledAt: time.Now().Add(time.Hour), Mode: models.ModeVideo, Type: models.RoundTechnical,
	})
	require.NoError(t, err)

	_, err = f.svc.SummarizeInterview(ctx, f.hr, InterviewSummaryRequest{InterviewType: models.InterviewTypeVideo, Transcript: "hello"})
	requireCode(t, err, errors.ErrorTypeValidation, errors.ErrCodeInvalidRequest)

	summary, err := f.svc.SummarizeInterview(ctx, f.hr, InterviewSummaryRequest{
		InterviewID: iv.ID,
		Transcript:  "Interviewer: Tell me about Go.\nCandidate: I built a distributed cache in Go and tested it thoroughly. I communicate clearly with my team.",
	})
	require.NoError(t, err)
	assert.Equal(t, f.seeker.UserID, summary.CandidateID)
	assert.Equal(t, models.InterviewTypeTechnical, summary.InterviewType)
	require.NotNil(t, summary.InterviewID)
	assert.Equal(t, iv.ID, *summary.InterviewID)
	require.NotNil(t, summary.AudioTranscript)
	assert.Contains(t, *summary.AudioTranscript, "distributed cache")
	require.NotNil(t, summary.OverallRating)

	other := newHR(t, f.svc, "other@example.com")
	_, err = f.svc.SummarizeInterview(ctx, other, InterviewSummaryRequest{InterviewID: iv.ID, Transcript: "x"})
	requireCode(t, err, errors.ErrorTypeForbidden, errors.ErrCodeNotOwner)

	out, err := f.svc.ExportResult(ctx, f.hr, ToolInterviewSummary, summary.ID, "json")
	require.NoError(t, err)
	assert.Contains(t, out.Content, summary.ID)
}

func TestSummarizeChat(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	hr := newHR(t, svc, "hr@example.com")
	seeker := newSeeker(t, svc, "sam@example.com")
	job := postJob(t, svc, hr, nil)

	_, err := svc.SummarizeChat(ctx, hr, ChatSummaryRequest{CandidateID: seeker.UserID, JobID: "missing", Transcript: []string{"Candidate: hi"}})
	requireCode(t, err, errors.ErrorTypeNotFound, errors.ErrCodeNotFound)

	analysis, err := svc.SummarizeChat(ctx, hr, ChatSummaryRequest{
		CandidateID: seeker.UserID,
		JobID:       job.ID,
		Transcript: []string{
			"Recruiter: Thanks for your time today.\n\nCandidate: I am really excited about this role.",
			"Candidate: My notice period is 30 days.",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, hr.UserID, analysis.HRUserID)
	assert.Len(t, analysis.ChatTranscript, 3)

	n, err := svc.store.CountActivity(ctx, ActionAITool, analysis.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSplitTranscript(t *testing.T) {
	assert.Equal(t, []string{"A: one", "B: two"}, SplitTranscript("  A: one \n\n\tB: two\n"))
	assert.Nil(t, SplitTranscript(" \n "))
}

func TestAlertPriority(t *testing.T) {
	p, ok := alertPriority(models.SeverityCritical)
	assert.True(t, ok)
	assert.Equal(t, models.PriorityUrgent, p)

	p, ok = alertPriority(models.SeverityHigh)
	assert.True(t, ok)
	assert.Equal(t, models.PriorityHigh, p)

	_, ok = alertPriority(models.SeverityMedium)
	assert.False(t, ok)
}
