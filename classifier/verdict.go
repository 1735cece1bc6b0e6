package classifier

import (
	"regexp"
	"strings"

	"jobscout/models"
)

var noWord = regexp.MustCompile(`\bno\b`)

// ParseVerdict reads a follow-up answer. Any case-insensitive "yes" counts as
// yes; otherwise a standalone "no" counts as no; anything else is
// inconclusive.
func ParseVerdict(answer string) models.Verdict {
	lower := strings.ToLower(answer)
	switch {
	case strings.Contains(lower, "yes"):
		return models.VerdictYes
	case noWord.MatchString(lower):
		return models.VerdictNo
	default:
		return models.VerdictInconclusive
	}
}
