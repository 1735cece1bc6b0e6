package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"jobscout/models"
)

func sampleOutcomes() []models.ClassificationOutcome {
	saved := models.ClassificationOutcome{ID: "123", FinalAction: models.ActionBookmarked, Bookmark: models.BookmarkSaved}
	saved.SetStage(1, true, "eligible")
	saved.SetStage(2, true, "backend")
	saved.SetStage(3, true, "python")

	rejected := models.ClassificationOutcome{ID: "456", FinalAction: models.ActionSkipped}
	rejected.SetStage(1, false, "no sponsorship")

	failed := models.ClassificationOutcome{ID: "789", FinalAction: models.ActionSkipped, ServiceError: "reasoning service failed during eligibility stage: timeout"}
	failed.SetStage(1, false, "")

	unclear := models.ClassificationOutcome{ID: "999", FinalAction: models.ActionSkipped, InconclusiveStage: 2}
	unclear.SetStage(1, true, "eligible")
	unclear.SetStage(2, false, "depends")
	unclear.SetAnswer(2, "Maybe,\n it depends")

	return []models.ClassificationOutcome{saved, rejected, failed, unclear}
}

func TestRender(t *testing.T) {
	tests := []struct {
		filter    Filter
		wantShown int
		wantIDs   []string
		skipIDs   []string
	}{
		{FilterAll, 4, []string{"123", "456", "789", "999"}, nil},
		{FilterBookmarked, 1, []string{"123"}, []string{"456", "789"}},
		{FilterSkipped, 2, []string{"456", "999"}, []string{"123", "789"}},
		{FilterErrors, 1, []string{"789"}, []string{"123", "456"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			var buf bytes.Buffer
			shown := Render(&buf, sampleOutcomes(), tt.filter)
			require.Equal(t, tt.wantShown, shown)

			out := buf.String()
			for _, id := range tt.wantIDs {
				require.Contains(t, out, id)
			}
			for _, id := range tt.skipIDs {
				require.NotContains(t, out, id)
			}
			require.Contains(t, out, "1 bookmarked")
			require.Contains(t, out, "3 skipped")
		})
	}
}

func TestStageCell(t *testing.T) {
	o := sampleOutcomes()
	require.Equal(t, "yes", stageCell(o[0], 3))
	require.Equal(t, "no", stageCell(o[1], 1))
	require.Equal(t, "-", stageCell(o[1], 2))
	require.Equal(t, "error", stageCell(o[2], 1))
	require.Equal(t, "?", stageCell(o[3], 2))
}

func TestParseFilter(t *testing.T) {
	for _, s := range []string{"", "bookmarked", "Skipped", " errors "} {
		_, err := ParseFilter(s)
		require.NoError(t, err, s)
	}
	_, err := ParseFilter("saved")
	require.Error(t, err)
}

func TestNoteShowsInconclusiveAnswer(t *testing.T) {
	o := sampleOutcomes()
	require.Equal(t, `stage 2 inconclusive: "Maybe, it depends"`, note(o[3]))
	require.Equal(t, "", note(o[1]))

	bare := models.ClassificationOutcome{InconclusiveStage: 1}
	require.Equal(t, "stage 1 inconclusive", note(bare))
}
