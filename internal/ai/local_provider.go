package ai

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"atspro/internal/config"
	"atspro/internal/models"
	"atspro/internal/types"
)

// LocalProvider answers every operation with deterministic text heuristics
// and never touches the network.
type LocalProvider struct{}

var _ AIProvider = (*LocalProvider)(nil)

func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

func (p *LocalProvider) Name() string { return config.ProviderLocal }

func (p *LocalProvider) GetModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Provider: config.ProviderLocal, Name: "heuristic", Available: true}
}

func (p *LocalProvider) Close() error { return nil }

const maxKeywords = 15

var (
	yearsRe    = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years?|yrs?)`)
	sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]?`)
)

var educationLevels = []struct {
	level int
	re    *regexp.Regexp
}{
	{3, regexp.MustCompile(`(?i)\b(?:ph\.?d|doctorate)\b`)},
	{2, regexp.MustCompile(`(?i)\b(?:master'?s?|m\.?sc|mba)\b`)},
	{1, regexp.MustCompile(`(?i)\b(?:bachelor'?s?|b\.?sc|b\.?a\.|degree)\b`)},
}

func educationLevel(text string) int {
	for _, e := range educationLevels {
		if e.re.MatchString(text) {
			return e.level
		}
	}
	return 0
}

func maxYears(text string) int {
	best := 0
	for _, m := range yearsRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > best {
			best = n
		}
	}
	return best
}

// MatchResume scores skills (70%) and job keywords (30%).
func (p *LocalProvider) MatchResume(ctx context.Context, input types.MatchResumeInput) (types.MatchResumeOutput, *TokenUsage, error) {
	if err := ctx.Err(); err != nil {
		return types.MatchResumeOutput{}, nil, err
	}
	job := jobText(input)

	required := findSkills(job)
	for _, s := range input.RequiredSkills {
		if s = strings.TrimSpace(s); s != "" && !slices.ContainsFunc(required, func(r string) bool { return strings.EqualFold(r, s) }) {
			required = append(required, s)
		}
	}

	var out types.MatchResumeOutput
	var matched, missing []string
	for _, skill := range required {
		m := models.SkillMatch{Skill: skill}
		if loc := skillPattern(skill).FindStringSubmatchIndex(input.Resume); loc != nil {
			m.Matched = true
			m.Evidence = excerpt(input.Resume, loc[2], loc[3])
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
		out.SkillMatches = append(out.SkillMatches, m)
	}

	keywords := topKeywords(input.JobDescription, maxKeywords)
	hits := 0
	for _, kw := range keywords {
		n := countWord(input.Resume, kw)
		if n > 0 {
			hits++
		}
		out.KeywordMatches = append(out.KeywordMatches, models.KeywordMatch{Keyword: kw, Count: n})
	}

	skillFrac := ratio(len(matched), len(required))
	kwFrac := ratio(hits, len(keywords))
	switch {
	case len(required) == 0:
		out.MatchScore = 100 * kwFrac
	default:
		out.MatchScore = 70*skillFrac + 30*kwFrac
	}
	out.MatchScore = math.Round(out.MatchScore*10) / 10

	out.EducationMatch = educationFit(educationLevel(job), educationLevel(input.Resume))
	out.ExperienceMatch = experienceFit(maxYears(job), maxYears(input.Resume))

	if len(matched) > 0 {
		out.Strengths = append(out.Strengths,
			fmt.Sprintf("Matches %d of %d required skills: %s", len(matched), len(required), strings.Join(matched, ", ")))
	}
	if len(keywords) > 0 && kwFrac >= 0.6 {
		out.Strengths = append(out.Strengths, "Resume language closely mirrors the job posting")
	}
	if out.ExperienceMatch.Score >= 100 {
		out.Strengths = append(out.Strengths, out.ExperienceMatch.Notes)
	}
	if len(missing) > 0 {
		out.Weaknesses = append(out.Weaknesses, "Missing skills: "+strings.Join(missing, ", "))
	}
	if out.ExperienceMatch.Score < 75 {
		out.Weaknesses = append(out.Weaknesses, out.ExperienceMatch.Notes)
	}
	if out.EducationMatch.Score < 60 {
		out.Weaknesses = append(out.Weaknesses, out.EducationMatch.Notes)
	}

	title := input.JobTitle
	if title == "" {
		title = "this role"
	}
	out.Summary = fmt.Sprintf("%s for %s with a %.0f%% match.", MatchBand(out.MatchScore), title, out.MatchScore)
	switch {
	case out.MatchScore >= 80:
		out.Recommendations = "Move the candidate forward to a screening call."
	case len(missing) > 0:
		out.Recommendations = "Probe the missing skills before advancing: " + strings.Join(missing, ", ") + "."
	default:
		out.Recommendations = "Review the resume manually; automated signals are weak."
	}
	return out, nil, nil
}

// MatchBand labels a match score the way recruiters read it.
func MatchBand(score float64) string {
	switch {
	case score >= 90:
		return "Excellent fit"
	case score >= 80:
		return "Good fit"
	default:
		return "Needs review"
	}
}

func educationFit(required, have int) types.FitAssessment {
	names := []string{"no degree", "a bachelor's degree", "a master's degree", "a doctorate"}
	switch {
	case required == 0:
		return types.FitAssessment{Score: 80, Notes: "No formal education requirement stated"}
	case have >= required:
		return types.FitAssessment{Score: 100, Notes: fmt.Sprintf("Meets the requirement of %s", names[required])}
	case have > 0:
		return types.FitAssessment{Score: 60, Notes: fmt.Sprintf("Holds %s; the posting asks for %s", names[have], names[required])}
	default:
		return types.FitAssessment{Score: 30, Notes: fmt.Sprintf("No degree found; the posting asks for %s", names[required])}
	}
}

func experienceFit(required, have int) types.FitAssessment {
	switch {
	case required == 0:
		return types.FitAssessment{Score: 75, Notes: "No minimum experience stated"}
	case have >= required:
		return types.FitAssessment{Score: 100, Notes: fmt.Sprintf("%d years of experience meets the %d year minimum", have, required)}
	case have == 0:
		return types.FitAssessment{Score: 40, Notes: fmt.Sprintf("Years of experience not stated; the posting asks for %d", required)}
	default:
		return types.FitAssessment{
			Score: int(math.Round(100 * float64(have) / float64(required))),
			Notes: fmt.Sprintf("%d years of experience against a %d year minimum", have, required),
		}
	}
}

var (
	techPositive = []string{"implemented", "designed", "architected", "built", "optimized", "optimised", "scaled", "debugged", "solved", "automated", "refactored", "deployed", "tested"}
	techNegative = []string{"struggled", "couldn't", "could not", "unable", "didn't know", "did not know", "unfamiliar", "incorrect", "wrong answer", "no experience"}
	commPositive = []string{"clearly", "articulate", "concise", "structured", "explained", "listened", "confident"}
	commNegative = []string{"rambling", "unclear", "vague", "interrupted", "hesitant", "confusing", "nervous"}
	fitPositive  = []string{"team", "collaborated", "collaborative", "mentored", "feedback", "curious", "eager to learn", "ownership", "values"}
	fitNegative  = []string{"blamed", "arrogant", "dismissive", "negative about", "complained", "rude"}
)

func containsAny(s string, words []string) int {
	n := 0
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

func sentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); len(s) > 3 {
			out = append(out, s)
		}
	}
	return out
}

// SummarizeInterview scores each dimension from lexicon hits per sentence.
func (p *LocalProvider) SummarizeInterview(ctx context.Context, input types.SummarizeInterviewInput) (types.SummarizeInterviewOutput, *TokenUsage, error) {
	if err := ctx.Err(); err != nil {
		return types.SummarizeInterviewOutput{}, nil, err
	}
	var out types.SummarizeInterviewOutput
	tech, comm, fit := 5, 5, 5
	tech += min(len(findSkills(input.Transcript)), 3)

	for _, s := range sentences(input.Transcript) {
		tp, tn := containsAny(s, techPositive), containsAny(s, techNegative)
		cp, cn := containsAny(s, commPositive), containsAny(s, commNegative)
		fp, fn := containsAny(s, fitPositive), containsAny(s, fitNegative)
		tech += tp - tn
		comm += cp - cn
		fit += fp - fn

		positive, negative := tp+cp+fp, tn+cn+fn
		switch {
		case positive > negative && len(out.KeyStrengths) < 3:
			out.KeyStrengths = append(out.KeyStrengths, s)
		case negative > positive && len(out.AreasForImprovement) < 3:
			out.AreasForImprovement = append(out.AreasForImprovement, s)
		}
	}

	out.TechnicalScore, out.CommunicationScore, out.CulturalFitScore = tech, comm, fit
	out.OverallRating = int(math.Round(float64(clampInt(tech, 1, 10)+clampInt(comm, 1, 10)+clampInt(fit, 1, 10)) / 6))
	clampInterviewScores(&out)

	for _, f := range scanBias(input.Transcript) {
		out.BiasFlags = append(out.BiasFlags, fmt.Sprintf("%s (%s)", f.Phrase, f.Category))
	}

	kind := strings.ReplaceAll(string(input.InterviewType), "_", " ")
	if kind == "" {
		kind = "general"
	}
	out.Summary = fmt.Sprintf("%s interview. Technical %d/10, communication %d/10, cultural fit %d/10; overall %d/5.",
		upperFirst(kind), out.TechnicalScore, out.CommunicationScore, out.CulturalFitScore, out.OverallRating)
	switch {
	case out.OverallRating >= 4:
		out.RecommendedNextSteps = "Advance to the next interview round."
	case out.OverallRating == 3:
		out.RecommendedNextSteps = "Schedule a follow-up to cover the areas for improvement."
	default:
		out.RecommendedNextSteps = "Do not advance at this time."
	}
	if len(out.BiasFlags) > 0 {
		out.RecommendedNextSteps += " Review the flagged remarks before sharing this feedback."
	}
	return out, nil, nil
}

var (
	speakerRe  = regexp.MustCompile(`^\s*([^:]{1,40}):\s*(.*)$`)
	salaryRe   = regexp.MustCompile(`(?i)([$€£])?\s?(\d{2,3}(?:,\d{3})+|\d{2,3}(?:\.\d+)?\s?k\b)`)
	noticeRe   = regexp.MustCompile(`(?i)\b(\d+|one|two|three|four|six|eight)[\s-]+(weeks?|months?)(?:'s?)?\s+(?:of\s+)?notice\b|\bnotice period (?:of|is) (\d+|one|two|three|four|six|eight)\s+(weeks?|months?)`)
	startRe    = regexp.MustCompile(`(?i)\b(?:start|begin|join)\s+(?:on|in|by|from|after)\s+([^.,;!?]{2,30})`)
	basedInRe  = regexp.MustCompile(`\b(?:based in|live in|living in|located in|relocate to|move to)\s+([A-Z][\w-]+(?:\s[A-Z][\w-]+)?)`)
	recruiters = []string{"recruiter", "hr", "interviewer", "hiring manager", "talent"}
)

var (
	interestUp = []string{"excited", "very interested", "really interested", "love", "looking forward", "keen", "great fit", "perfect fit", "can't wait"}
	interestDn = []string{"not sure", "hesitant", "not interested", "other offer", "competing offer", "counter offer", "counteroffer", "concerned", "doubt"}
	redFlags   = map[string]string{
		"competing offer": "Has a competing offer",
		"other offer":     "Has a competing offer",
		"counter offer":   "May accept a counter offer",
		"counteroffer":    "May accept a counter offer",
		"not interested":  "Expressed a lack of interest",
		"job hopping":     "Frequent job changes",
		"let go":          "Recent involuntary departure",
	}
)

// SummarizeChat extracts what the candidate said about pay, timing and
// preferences.
func (p *LocalProvider) SummarizeChat(ctx context.Context, input types.SummarizeChatInput) (types.SummarizeChatOutput, *TokenUsage, error) {
	if err := ctx.Err(); err != nil {
		return types.SummarizeChatOutput{}, nil, err
	}
	var candidateLines []string
	for _, line := range input.Transcript {
		if m := speakerRe.FindStringSubmatch(line); m != nil {
			if isRecruiter(m[1]) {
				continue
			}
			line = m[2]
		}
		if line = strings.TrimSpace(line); line != "" {
			candidateLines = append(candidateLines, line)
		}
	}
	text := strings.Join(candidateLines, "\n")
	lower := strings.ToLower(text)

	var out types.SummarizeChatOutput
	found := 0

	up, down := containsAny(text, interestUp), containsAny(text, interestDn)
	out.InterestLevel = interestFor(up - down)
	if up+down > 0 {
		found++
	}
	for _, w := range interestUp {
		if strings.Contains(lower, w) {
			out.PositiveIndicators = append(out.PositiveIndicators, "Said: \""+w+"\"")
		}
	}

	if salary, ok := extractSalary(text); ok {
		out.SalaryExpectations = salary
		found++
	}
	if notice := extractNotice(text); notice != "" {
		out.NoticePeriod = notice
		found++
	}
	if m := startRe.FindStringSubmatch(text); m != nil {
		out.Availability = models.Availability{StartDate: strings.TrimSpace(m[1]), Notes: strings.TrimSpace(m[0])}
		found++
	} else if strings.Contains(lower, "immediately") {
		out.Availability = models.Availability{StartDate: "immediately"}
		found++
	}

	for _, a := range []struct{ word, label string }{
		{"remote", "remote"}, {"hybrid", "hybrid"}, {"on-site", "on_site"}, {"onsite", "on_site"}, {"in office", "on_site"}, {"in the office", "on_site"},
	} {
		if strings.Contains(lower, a.word) && !slices.Contains(out.WorkArrangementPreferences, a.label) {
			out.WorkArrangementPreferences = append(out.WorkArrangementPreferences, a.label)
		}
	}
	if len(out.WorkArrangementPreferences) > 0 {
		found++
	}

	for _, m := range basedInRe.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(out.LocationPreferences, m[1]) {
			out.LocationPreferences = append(out.LocationPreferences, m[1])
		}
	}
	if strings.Contains(lower, "relocat") {
		out.LocationPreferences = append(out.LocationPreferences, "open to relocation")
	}
	if len(out.LocationPreferences) > 0 {
		found++
	}

	keys := make([]string, 0, len(redFlags))
	for k := range redFlags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(lower, k) && !slices.Contains(out.RedFlags, redFlags[k]) {
			out.RedFlags = append(out.RedFlags, redFlags[k])
		}
	}
	for _, line := range candidateLines {
		if containsAny(line, []string{"concern", "worried", "question about", "unsure about"}) > 0 {
			out.KeyConcerns = append(out.KeyConcerns, line)
		}
	}

	out.ConfidenceScore = math.Round((0.3+0.7*float64(found)/6)*100) / 100
	switch {
	case len(out.RedFlags) > 0:
		out.Recommendation = "Address the red flags with the candidate before extending an offer."
	case out.InterestLevel == models.InterestVeryHigh || out.InterestLevel == models.InterestHigh:
		out.Recommendation = "Candidate is engaged; move to the next stage promptly."
	case out.InterestLevel == models.InterestMedium:
		out.Recommendation = "Follow up to gauge interest and clarify open points."
	default:
		out.Recommendation = "Interest appears low; confirm whether the candidate wishes to continue."
	}
	return out, nil, nil
}

func isRecruiter(speaker string) bool {
	lower := strings.ToLower(speaker)
	words := strings.Fields(lower)
	for _, r := range recruiters {
		if strings.Contains(r, " ") && strings.Contains(lower, r) || slices.Contains(words, r) {
			return true
		}
	}
	return false
}

func interestFor(net int) models.InterestLevel {
	switch {
	case net >= 3:
		return models.InterestVeryHigh
	case net >= 1:
		return models.InterestHigh
	case net == 0:
		return models.InterestMedium
	case net == -1:
		return models.InterestLow
	default:
		return models.InterestVeryLow
	}
}

func extractSalary(text string) (models.SalaryExpectation, bool) {
	var amounts []float64
	var currency string
	for _, m := range salaryRe.FindAllStringSubmatch(text, -1) {
		raw := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(m[2]), ",", ""))
		mult := 1.0
		if strings.HasSuffix(raw, "k") {
			raw = strings.TrimSpace(strings.TrimSuffix(raw, "k"))
			mult = 1000
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		v *= mult
		if v < 10000 {
			continue
		}
		amounts = append(amounts, v)
		if currency == "" {
			currency = map[string]string{"$": "USD", "€": "EUR", "£": "GBP"}[m[1]]
		}
	}
	if len(amounts) == 0 {
		return models.SalaryExpectation{}, false
	}
	lo, hi := slices.Min(amounts), slices.Max(amounts)
	return models.SalaryExpectation{Min: &lo, Max: &hi, Currency: currency}, true
}

var numberWords = map[string]string{"one": "1", "two": "2", "three": "3", "four": "4", "six": "6", "eight": "8"}

func extractNotice(text string) string {
	m := noticeRe.FindStringSubmatch(text)
	if m == nil {
		if strings.Contains(strings.ToLower(text), "no notice") {
			return "none"
		}
		return ""
	}
	n, unit := m[1], m[2]
	if n == "" {
		n, unit = m[3], m[4]
	}
	if w, ok := numberWords[strings.ToLower(n)]; ok {
		n = w
	}
	unit = strings.TrimSuffix(strings.ToLower(unit), "s")
	if n != "1" {
		unit += "s"
	}
	return n + " " + unit
}

// DetectBias flags lexicon phrases and grades severity by their total weight.
func (p *LocalProvider) DetectBias(ctx context.Context, input types.DetectBiasInput) (types.DetectBiasOutput, *TokenUsage, error) {
	if err := ctx.Err(); err != nil {
		return types.DetectBiasOutput{}, nil, err
	}
	flags := scanBias(input.Content)

	out := types.DetectBiasOutput{FlaggedPhrases: []models.FlaggedPhrase{}}
	weight := 0
	var advice []string
	for _, f := range flags {
		out.FlaggedPhrases = append(out.FlaggedPhrases, f.FlaggedPhrase)
		weight += f.weight
		if !slices.Contains(out.BiasCategories, f.Category) {
			out.BiasCategories = append(out.BiasCategories, f.Category)
			advice = append(advice, biasAdvice[f.Category])
		}
		if !slices.Contains(out.SuggestedAlternatives, f.Suggestion) {
			out.SuggestedAlternatives = append(out.SuggestedAlternatives, f.Suggestion)
		}
	}
	out.SeverityLevel = models.SeverityLevel(severityForWeight(weight))

	if len(flags) == 0 {
		out.Explanation = "No potentially biased language was found."
		out.CorrectiveRecommendations = "No changes needed."
		return out, nil, nil
	}
	out.Explanation = fmt.Sprintf("Found %d potentially biased phrase(s) in the %s, touching on %s.",
		len(flags), strings.ReplaceAll(string(input.SourceType), "_", " "),
		strings.ReplaceAll(strings.Join(out.BiasCategories, ", "), "_", " "))
	out.CorrectiveRecommendations = strings.Join(advice, " ")
	return out, nil, nil
}

type biasHit struct {
	models.FlaggedPhrase
	weight int
	start  int
}

// scanBias matches heavier terms first and drops hits overlapping an
// earlier one, returning hits in text order.
func scanBias(text string) []biasHit {
	terms := slices.Clone(biasLexicon)
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].weight > terms[j].weight })

	var hits []biasHit
	var spans [][2]int
	for _, t := range terms {
		for _, loc := range t.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2], loc[3]
			if slices.ContainsFunc(spans, func(s [2]int) bool { return start < s[1] && s[0] < end }) {
				continue
			}
			spans = append(spans, [2]int{start, end})
			hits = append(hits, biasHit{
				FlaggedPhrase: models.FlaggedPhrase{Phrase: text[start:end], Category: t.category, Suggestion: t.suggestion},
				weight:        t.weight,
				start:         start,
			})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	return hits
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// excerpt returns up to 40 characters either side of [start, end).
func excerpt(text string, start, end int) string {
	from := max(0, start-40)
	to := min(len(text), end+40)
	for from > 0 && !isBoundary(text[from]) {
		from--
	}
	for to < len(text) && !isBoundary(text[to]) {
		to++
	}
	return strings.Join(strings.Fields(text[from:to]), " ")
}

func isBoundary(b byte) bool { return b == ' ' || b == '\n' || b == '\t' }

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
