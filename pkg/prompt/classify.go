package prompt

import "strings"

// Flags are keyword-derived hints about a prompt. They are independent of
// each other and never persisted.
type Flags struct {
	IsSensitive     bool `json:"is_sensitive"`
	IsResearch      bool `json:"is_research"`
	IsTimeSensitive bool `json:"is_time_sensitive"`
}

type category int

const (
	categorySensitive category = iota
	categoryResearch
	categoryTimeSensitive
)

// keywords are matched as lower-case substrings. Short words that are
// commonly embedded in unrelated words ("war", "law", "now") are left out.
var keywords = map[category][]string{
	categorySensitive: {
		"politic",
		"government",
		"election",
		"policy",
		"policies",
		"legislation",
		"religio",
		"medical",
		"medicine",
		"medication",
		"diagnos",
		"symptom",
		"health",
		"mental illness",
		"legal",
		"lawsuit",
		"attorney",
		"immigration",
		"abortion",
		"investment",
		"taxes",
		"suicide",
	},
	categoryResearch: {
		"research",
		"study",
		"studies",
		"analyze",
		"analyse",
		"analysis",
		"compare",
		"comparison",
		"evidence",
		"statistic",
		"sources",
		"citation",
		"literature",
		"investigate",
		"in-depth",
	},
	categoryTimeSensitive: {
		"today",
		"tonight",
		"tomorrow",
		"yesterday",
		"current",
		"latest",
		"recent",
		"this week",
		"this month",
		"this year",
		"right now",
		"news",
		"upcoming",
		"deadline",
		"timeline",
		"schedule",
	},
}

func matches(lower string, c category) bool {
	for _, kw := range keywords[c] {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Classify derives Flags from the prompt by keyword membership
func Classify(prompt string) Flags {
	lower := strings.ToLower(prompt)
	return Flags{
		IsSensitive:     matches(lower, categorySensitive),
		IsResearch:      matches(lower, categoryResearch),
		IsTimeSensitive: matches(lower, categoryTimeSensitive),
	}
}
