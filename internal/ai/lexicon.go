package ai

import (
	"regexp"
	"strings"
)

type skillTerm struct {
	name string
	re   *regexp.Regexp
}

// term compiles alternatives into one case-insensitive pattern bounded by
// non-word characters. Group 1 holds the matched phrase.
func term(alternatives ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\w+#.])(` + strings.Join(alternatives, "|") + `)(?:$|[^\w+#])`)
}

func sk(name string, alternatives ...string) skillTerm {
	if len(alternatives) == 0 {
		alternatives = []string{regexp.QuoteMeta(strings.ToLower(name))}
	}
	return skillTerm{name: name, re: term(alternatives...)}
}

var skillLexicon = []skillTerm{
	sk("Go", `(?-i:Go)`, `golang`),
	sk("Python"),
	sk("Java"),
	sk("JavaScript", `javascript`, `(?-i:JS)`, `ecmascript`),
	sk("TypeScript"),
	sk("React", `react(?:\.js|js)?`),
	sk("Vue.js", `vue(?:\.js|js)?`),
	sk("Angular"),
	sk("Node.js", `node(?:\.js|js)?`),
	sk("HTML", `html5?`),
	sk("CSS", `css3?`, `sass`, `tailwind`),
	sk("SQL", `sql`),
	sk("PostgreSQL", `postgres(?:ql)?`),
	sk("MySQL"),
	sk("MongoDB", `mongo(?:db)?`),
	sk("Redis"),
	sk("Kafka", `kafka`),
	sk("Docker"),
	sk("Kubernetes", `kubernetes`, `k8s`),
	sk("Terraform"),
	sk("AWS", `aws`, `amazon web services`),
	sk("GCP", `gcp`, `google cloud`),
	sk("Azure"),
	sk("Linux"),
	sk("Git", `git`, `github`, `gitlab`),
	sk("CI/CD", `ci/cd`, `continuous integration`, `continuous delivery`),
	sk("REST", `rest(?:ful)?(?: api)?`),
	sk("GraphQL"),
	sk("gRPC", `grpc`),
	sk("Rust"),
	sk("C++", `c\+\+`),
	sk("C#", `c#`),
	sk(".NET", `\.net`, `dotnet`),
	sk("Spring", `spring(?: boot)?`),
	sk("Django"),
	sk("Flask"),
	sk("Machine Learning", `machine learning`, `(?-i:ML)`),
	sk("Data Analysis", `data analysis`, `data analytics`),
	sk("Excel"),
	sk("Salesforce"),
	sk("Figma"),
	sk("Agile", `agile`, `scrum`, `kanban`),
	sk("Project Management", `project management`),
	sk("Leadership", `leadership`, `team lead`, `led a team`),
	sk("Communication", `communication`),
}

// findSkills returns the lexicon skills mentioned in text, in lexicon order.
func findSkills(text string) []string {
	var found []string
	for _, s := range skillLexicon {
		if s.re.MatchString(text) {
			found = append(found, s.name)
		}
	}
	return found
}

func skillPattern(name string) *regexp.Regexp {
	for _, s := range skillLexicon {
		if strings.EqualFold(s.name, name) {
			return s.re
		}
	}
	return term(regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(name))))
}

var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "also": true, "and": true, "are": true, "been": true,
	"being": true, "both": true, "can": true, "candidate": true, "company": true, "could": true,
	"daily": true, "each": true, "experience": true, "from": true, "have": true, "help": true,
	"into": true, "join": true, "just": true, "looking": true, "more": true, "most": true, "must": true,
	"other": true, "our": true, "over": true, "plus": true, "role": true, "should": true, "some": true,
	"such": true, "team": true, "than": true, "that": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "through": true, "using": true,
	"very": true, "well": true, "were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "will": true, "with": true, "within": true, "work": true, "working": true,
	"would": true, "years": true, "your": true, "you": true, "able": true, "strong": true,
	"ability": true, "including": true, "required": true, "requirements": true, "preferred": true,
	"responsibilities": true, "knowledge": true, "skills": true, "understanding": true,
}

var wordRe = regexp.MustCompile(`[a-z][a-z0-9+#]{3,}`)

// topKeywords returns the n most frequent non-stopword terms of text, ties
// broken by first appearance.
func topKeywords(text string, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if stopwords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	// stable selection keeps first-appearance order among equal counts
	picked := make([]string, 0, n)
	used := map[string]bool{}
	for len(picked) < n && len(picked) < len(order) {
		best := ""
		for _, w := range order {
			if used[w] {
				continue
			}
			if best == "" || counts[w] > counts[best] {
				best = w
			}
		}
		used[best] = true
		picked = append(picked, best)
	}
	return picked
}

func countWord(text, word string) int {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	return len(re.FindAllStringIndex(text, -1))
}

type biasTerm struct {
	re         *regexp.Regexp
	category   string
	weight     int
	suggestion string
}

func bt(category string, weight int, suggestion string, alternatives ...string) biasTerm {
	return biasTerm{re: term(alternatives...), category: category, weight: weight, suggestion: suggestion}
}

const (
	biasAge            = "age"
	biasGender         = "gender"
	biasFamily         = "family_status"
	biasNationalOrigin = "national_origin"
	biasDisability     = "disability"
	biasReligion       = "religion"
	biasRace           = "race_ethnicity"
	biasEducation      = "education"
	biasAppearance     = "appearance"
)

var biasLexicon = []biasTerm{
	bt(biasAge, 1, "Describe the specific skills needed instead of age-coded traits", `young`, `youthful`, `energetic`),
	bt(biasAge, 2, "Focus on current skills rather than career stage", `digital native`, `fresh blood`, `old school`, `overqualified`),
	bt(biasAge, 3, "Remove references to the candidate's age", `too old`, `too young`, `close to retirement`, `near retirement`, `his age`, `her age`),
	bt(biasGender, 1, "Use gender-neutral wording such as \"everyone\" or \"team\"", `guys`, `manpower`, `chairman`, `rockstar`, `ninja`),
	bt(biasGender, 2, "Describe the observed behaviour and its impact on the work", `emotional`, `bossy`, `abrasive`, `aggressive for a`),
	bt(biasGender, 3, "Evaluate the candidate against the role requirements, not gender", `for a woman`, `for a girl`, `for a man`, `female candidate`, `male candidate`),
	bt(biasFamily, 3, "Family circumstances are not job-related; remove them", `pregnan\w*`, `maternity`, `has kids`, `has children`, `young children`, `single mother`, `single mom`, `plans to have`, `married`),
	bt(biasNationalOrigin, 2, "Assess communication against the role's stated needs", `accent`, `native english speaker`, `native speaker`, `foreigner`, `foreign-born`),
	bt(biasNationalOrigin, 3, "Nationality and origin are protected; remove them", `where (?:he|she|they) (?:is|are) from`, `immigrant`, `visa status`),
	bt(biasDisability, 3, "Health and disability are protected; assess job-related abilities only", `wheelchair`, `disabled`, `disability`, `handicap\w*`, `mental health`, `medical condition`),
	bt(biasReligion, 3, "Religious practice is protected; remove it", `religious`, `church`, `mosque`, `synagogue`, `hijab`, `prays`),
	bt(biasRace, 2, "Avoid descriptors tied to ethnicity or origin", `exotic`, `urban`, `articulate for`),
	bt(biasRace, 3, "Race and ethnicity are protected; remove them", `ethnic(?:ity)?`, `racial(?:ly)?`),
	bt(biasEducation, 1, "State the knowledge required instead of school prestige", `ivy league`, `top-tier school`, `prestigious university`, `elite university`, `good school`),
	bt(biasAppearance, 2, "Appearance is not job-related unless the role requires it", `attractive`, `overweight`, `good-looking`, `pretty`),
}

var biasAdvice = map[string]string{
	biasAge:            "Assess skills and achievements without reference to age or career stage.",
	biasGender:         "Use gender-neutral language and anchor feedback in observed behaviour.",
	biasFamily:         "Remove comments about family, pregnancy or caring responsibilities.",
	biasNationalOrigin: "Evaluate language ability only against documented role requirements.",
	biasDisability:     "Discuss accommodations with HR instead of recording health details.",
	biasReligion:       "Remove references to religious belief or practice.",
	biasRace:           "Remove descriptors tied to race or ethnicity.",
	biasEducation:      "Judge demonstrated knowledge rather than institution prestige.",
	biasAppearance:     "Remove comments on physical appearance.",
}

// severityForWeight maps the summed weight of flagged phrases to a severity.
func severityForWeight(weight int) string {
	switch {
	case weight <= 0:
		return "low"
	case weight <= 2:
		return "medium"
	case weight <= 4:
		return "high"
	default:
		return "critical"
	}
}
