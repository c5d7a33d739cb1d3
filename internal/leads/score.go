package leads

import (
	"regexp"
	"strings"
)

// Quality scoring. The score gates routing: anything below SpamThreshold is
// parked as spam and never offered to providers.
const (
	SpamThreshold = 20
	maxScore      = 100
)

var spamKeywords = []string{
	"seo service",
	"backlink",
	"crypto",
	"guaranteed ranking",
	"viagra",
	"work from home",
	"earn money fast",
}

var testNames = []string{
	"test",
	"testing",
	"asdf",
	"qwerty",
	"john doe",
	"jane doe",
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ScoreQuality rates intake completeness and plausibility on a 0..100 scale.
func ScoreQuality(l LeadRequest) int {
	score := 0

	if l.ContactPhone != "" {
		score += 30
	}
	if l.ContactEmail != "" {
		score += 30
	}
	if l.ContactName != "" {
		score += 10
	}
	if l.PostalCode != "" {
		score += 10
	}
	if l.Title != "" {
		score += 5
	}
	if len(strings.TrimSpace(l.Description)) >= 20 {
		score += 10
	}
	if l.BudgetMinMinor != nil || l.BudgetMaxMinor != nil {
		score += 5
	}

	text := strings.ToLower(l.Title + " " + l.Description)
	for _, kw := range spamKeywords {
		if strings.Contains(text, kw) {
			score -= 40
			break
		}
	}
	if len(urlPattern.FindAllString(text, 2)) >= 2 {
		score -= 25
	}

	name := strings.ToLower(strings.TrimSpace(l.ContactName))
	for _, tn := range testNames {
		if name == tn {
			score -= 20
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// IsSpamScore reports whether a quality score is below the routing threshold.
func IsSpamScore(score int) bool {
	return score < SpamThreshold
}
