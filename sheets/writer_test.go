package sheets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobscout/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://docs.google.com/spreadsheets/d/abc123/edit", "abc123"},
		{"https://docs.google.com/spreadsheets/d/abc123/edit?usp=sharing", "abc123"},
		{"https://docs.google.com/spreadsheets/d/abc123?gid=0", "abc123"},
		{"https://docs.google.com/spreadsheets/d/abc123#gid=0", "abc123"},
		{"https://example.com/sheet", ""},
	}

	for _, tt := range tests {
		if got := ExtractSpreadsheetID(tt.url); got != tt.want {
			t.Errorf("ExtractSpreadsheetID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "jobs 2024-08-18", "jobs 2024-08-18"},
		{"invalid chars", "a/b\\c?d*e[f]g'h", "a_b_c_d_e_f_g_h"},
		{"blank", "   ", "Sheet1"},
		{"too long", strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeSheetName(tt.input); got != tt.want {
				t.Errorf("sanitizeSheetName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutcomeRows(t *testing.T) {
	skipped := models.ClassificationOutcome{ID: "456", FinalAction: models.ActionSkipped}
	skipped.SetStage(1, false, "no sponsorship")

	saved := models.ClassificationOutcome{
		ID:          "123",
		FinalAction: models.ActionBookmarked,
		Bookmark:    models.BookmarkSaved,
		Language:    "en",
		ProcessedAt: time.Date(2024, 8, 18, 9, 30, 0, 0, time.UTC),
	}
	saved.SetStage(1, true, "eligible")
	saved.SetStage(2, true, "backend")
	saved.SetStage(3, true, "python")
	saved.SetAnswer(1, "Yes")
	saved.SetAnswer(2, "Yes.")
	saved.SetAnswer(3, "yes")
	saved.Description = "Backend intern, Python"

	rows := outcomeRows([]models.ClassificationOutcome{skipped, saved}, true)
	require.Len(t, rows, 3)
	require.Len(t, rows[0], len(header))

	require.Equal(t, []interface{}{"456", "skipped", "", "No", "no sponsorship", "", "", "", "", "", "", "", "", "", "", ""}, rows[1])
	require.Equal(t, []interface{}{
		"123", "bookmarked", "saved",
		"Yes", "eligible", "Yes",
		"Yes", "backend", "Yes.",
		"Yes", "python", "yes",
		"", "en", "2024-08-18T09:30:00Z", "Backend intern, Python",
	}, rows[2])
	for _, row := range rows[1:] {
		require.Len(t, row, len(header))
	}

	require.Len(t, outcomeRows([]models.ClassificationOutcome{saved}, false), 1)
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"type":"service_account","client_email":"x@y"}`), 0600))
	user := filepath.Join(dir, "user.json")
	require.NoError(t, os.WriteFile(user, []byte(`{"type":"authorized_user"}`), 0600))

	tests := []struct {
		name    string
		path    string
		env     string
		wantErr bool
	}{
		{"file", valid, "", false},
		{"env", "", ` {"type":"service_account"} `, false},
		{"file wins over env", valid, "garbage", false},
		{"wrong type", user, "", true},
		{"missing file", filepath.Join(dir, "nope.json"), "", true},
		{"nothing configured", "", "  ", true},
		{"invalid json", "", "{", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCredentials(tt.path, tt.env)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
