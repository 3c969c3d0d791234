package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"atspro/internal/models"
	"atspro/internal/types"

	"gorm.io/datatypes"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	for _, style := range []style{textStyle, markdownStyle} {
		registry.RegisterFormatter(style.name, "ResumeAnalysis", &ResumeAnalysisFormatter{style})
		registry.RegisterFormatter(style.name, "InterviewSummary", &InterviewSummaryFormatter{style})
		registry.RegisterFormatter(style.name, "ChatAnalysis", &ChatAnalysisFormatter{style})
		registry.RegisterFormatter(style.name, "BiasDetection", &BiasDetectionFormatter{style})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// Supports reports whether format is registered at all.
func (fr *FormatterRegistry) Supports(format string) bool {
	_, ok := fr.formatters[format]
	return ok
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *models.ResumeAnalysis, models.ResumeAnalysis:
		return "ResumeAnalysis"
	case *models.InterviewSummary, models.InterviewSummary:
		return "InterviewSummary"
	case *models.ChatAnalysis, models.ChatAnalysis:
		return "ChatAnalysis"
	case *models.BiasDetection, models.BiasDetection:
		return "BiasDetection"
	default:
		return "any"
	}
}

// deref accepts a value or a pointer to it.
func deref[T any](data any) (T, error) {
	switch v := data.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("expected %T, got %T", zero, data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// style switches headings and emphasis between plain text and markdown.
type style struct {
	name string
	h1   func(string) string
	h2   func(string) string
	bold func(string) string
}

var textStyle = style{
	name: "text",
	h1:   func(s string) string { return "=== " + strings.ToUpper(s) + " ===\n\n" },
	h2:   func(s string) string { return s + ":\n" },
	bold: func(s string) string { return s },
}

var markdownStyle = style{
	name: "markdown",
	h1:   func(s string) string { return "# " + s + "\n\n" },
	h2:   func(s string) string { return "## " + s + "\n\n" },
	bold: func(s string) string { return "**" + s + "**" },
}

func (s style) field(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s %s\n", s.bold(label+":"), value)
}

func (s style) list(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(s.h2(title))
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func (s style) section(b *strings.Builder, title string, body *string) {
	if body == nil || *body == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(s.h2(title))
	b.WriteString(*body)
	b.WriteString("\n")
}

func intScore(v *int, outOf int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d", *v, outOf)
}

func fitScore(raw datatypes.JSON) string {
	if len(raw) == 0 {
		return ""
	}
	var fit types.FitAssessment
	if err := json.Unmarshal(raw, &fit); err != nil {
		return ""
	}
	if fit.Notes == "" {
		return fmt.Sprintf("%d/100", fit.Score)
	}
	return fmt.Sprintf("%d/100 (%s)", fit.Score, fit.Notes)
}

// ResumeAnalysisFormatter renders a resume match.
type ResumeAnalysisFormatter struct{ style style }

func (f *ResumeAnalysisFormatter) Format(data any) (string, error) {
	r, err := deref[models.ResumeAnalysis](data)
	if err != nil {
		return "", err
	}
	s := f.style

	var b strings.Builder
	b.WriteString(s.h1("Resume Match"))
	s.field(&b, "Match Score", fmt.Sprintf("%.1f/100 (%s)", r.MatchScore, band(r.MatchScore)))
	s.field(&b, "Education", fitScore(r.EducationMatch))
	s.field(&b, "Experience", fitScore(r.ExperienceMatch))
	if r.ProcessingTimeMS > 0 {
		s.field(&b, "Processing Time", fmt.Sprintf("%dms", r.ProcessingTimeMS))
	}
	s.section(&b, "Summary", r.AISummary)

	if len(r.SkillMatches) > 0 {
		skills := make([]string, 0, len(r.SkillMatches))
		for _, m := range r.SkillMatches {
			mark := "missing"
			if m.Matched {
				mark = "found"
			}
			line := fmt.Sprintf("%s: %s", m.Skill, mark)
			if m.Evidence != "" {
				line += fmt.Sprintf(" (%q)", m.Evidence)
			}
			skills = append(skills, line)
		}
		s.list(&b, "Skills", skills)
	}
	if len(r.KeywordMatches) > 0 {
		keywords := make([]string, 0, len(r.KeywordMatches))
		for _, k := range r.KeywordMatches {
			keywords = append(keywords, fmt.Sprintf("%s x%d", k.Keyword, k.Count))
		}
		s.list(&b, "Keywords", keywords)
	}
	s.list(&b, "Strengths", r.Strengths)
	s.list(&b, "Weaknesses", r.Weaknesses)
	s.section(&b, "Recommendations", r.Recommendations)

	return b.String(), nil
}

func (f *ResumeAnalysisFormatter) SupportedType() string { return "ResumeAnalysis" }

func band(score float64) string {
	switch {
	case score >= 90:
		return "Excellent fit"
	case score >= 80:
		return "Good fit"
	default:
		return "Needs review"
	}
}

// InterviewSummaryFormatter renders an interview summary.
type InterviewSummaryFormatter struct{ style style }

func (f *InterviewSummaryFormatter) Format(data any) (string, error) {
	r, err := deref[models.InterviewSummary](data)
	if err != nil {
		return "", err
	}
	s := f.style

	var b strings.Builder
	b.WriteString(s.h1("Interview Summary"))
	s.field(&b, "Interview Type", string(r.InterviewType))
	if !r.InterviewDate.IsZero() {
		s.field(&b, "Date", r.InterviewDate.Format("2006-01-02"))
	}
	s.field(&b, "Technical", intScore(r.TechnicalScore, 10))
	s.field(&b, "Communication", intScore(r.CommunicationScore, 10))
	s.field(&b, "Cultural Fit", intScore(r.CulturalFitScore, 10))
	s.field(&b, "Overall Rating", intScore(r.OverallRating, 5))
	s.section(&b, "Summary", r.AIGeneratedSummary)
	s.list(&b, "Key Strengths", r.KeyStrengths)
	s.list(&b, "Areas for Improvement", r.AreasForImprovement)
	s.section(&b, "Recommended Next Steps", r.RecommendedNextSteps)
	s.list(&b, "Bias Flags", r.BiasFlags)

	return b.String(), nil
}

func (f *InterviewSummaryFormatter) SupportedType() string { return "InterviewSummary" }

// ChatAnalysisFormatter renders a chat analysis.
type ChatAnalysisFormatter struct{ style style }

func (f *ChatAnalysisFormatter) Format(data any) (string, error) {
	r, err := deref[models.ChatAnalysis](data)
	if err != nil {
		return "", err
	}
	s := f.style

	var b strings.Builder
	b.WriteString(s.h1("Chat Analysis"))
	if r.InterestLevel != nil {
		s.field(&b, "Interest Level", strings.ReplaceAll(string(*r.InterestLevel), "_", " "))
	}
	if r.ConfidenceScore != nil {
		s.field(&b, "Confidence", fmt.Sprintf("%.0f%%", *r.ConfidenceScore*100))
	}
	s.field(&b, "Salary Expectations", salaryText(r.SalaryExpectations.Data()))
	s.field(&b, "Availability", r.ExtractedAvailability.Data().StartDate)
	if r.NoticePeriodDiscussed != nil {
		s.field(&b, "Notice Period", *r.NoticePeriodDiscussed)
	}
	s.list(&b, "Work Arrangement", r.WorkArrangementPreferences)
	s.list(&b, "Locations", r.LocationPreferences)
	s.list(&b, "Positive Indicators", r.PositiveIndicators)
	s.list(&b, "Red Flags", r.RedFlags)
	s.list(&b, "Key Concerns", r.KeyConcerns)
	s.section(&b, "Recommendation", r.AIRecommendation)

	return b.String(), nil
}

func (f *ChatAnalysisFormatter) SupportedType() string { return "ChatAnalysis" }

func salaryText(e models.SalaryExpectation) string {
	cur := e.Currency
	if cur != "" {
		cur = " " + cur
	}
	switch {
	case e.Min != nil && e.Max != nil && *e.Min != *e.Max:
		return fmt.Sprintf("%.0f-%.0f%s", *e.Min, *e.Max, cur)
	case e.Min != nil:
		return fmt.Sprintf("%.0f%s", *e.Min, cur)
	case e.Max != nil:
		return fmt.Sprintf("up to %.0f%s", *e.Max, cur)
	}
	return e.Notes
}

// BiasDetectionFormatter renders a bias screening.
type BiasDetectionFormatter struct{ style style }

func (f *BiasDetectionFormatter) Format(data any) (string, error) {
	r, err := deref[models.BiasDetection](data)
	if err != nil {
		return "", err
	}
	s := f.style

	var b strings.Builder
	b.WriteString(s.h1("Bias Detection"))
	s.field(&b, "Severity", string(r.SeverityLevel))
	s.field(&b, "Source", strings.ReplaceAll(string(r.SourceType), "_", " "))
	s.section(&b, "Explanation", r.AIExplanation)

	if len(r.FlaggedPhrases) > 0 {
		phrases := make([]string, 0, len(r.FlaggedPhrases))
		for _, p := range r.FlaggedPhrases {
			line := fmt.Sprintf("%q (%s)", p.Phrase, p.Category)
			if p.Suggestion != "" {
				line += ": " + p.Suggestion
			}
			phrases = append(phrases, line)
		}
		s.list(&b, "Flagged Phrases", phrases)
	}
	s.list(&b, "Suggested Alternatives", r.SuggestedAlternatives)
	s.section(&b, "Corrective Recommendations", r.CorrectiveRecommendations)
	if r.ReviewedByHR {
		s.section(&b, "HR Response", r.HRResponse)
	}

	return b.String(), nil
}

func (f *BiasDetectionFormatter) SupportedType() string { return "BiasDetection" }

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
