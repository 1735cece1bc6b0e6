package classifier

import (
	"testing"

	"jobscout/models"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   models.Verdict
	}{
		{"plain yes", "Yes", models.VerdictYes},
		{"lower yes with period", "yes.", models.VerdictYes},
		{"yes in sentence", "The answer is YES, you are eligible", models.VerdictYes},
		{"plain no", "No", models.VerdictNo},
		{"no with explanation", "No. The company does not sponsor visas.", models.VerdictNo},
		{"empty", "", models.VerdictInconclusive},
		{"hedged", "It depends on your graduation date.", models.VerdictInconclusive},
		{"no inside word", "Cannot determine from the notice", models.VerdictInconclusive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVerdict(tt.answer); got != tt.want {
				t.Errorf("ParseVerdict(%q) = %v, want %v", tt.answer, got, tt.want)
			}
		})
	}
}
