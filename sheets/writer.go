// Package sheets exports the result journal to Google Sheets.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"jobscout/models"
)

// maxSheetName is the longest sheet title Google Sheets accepts
const maxSheetName = 100

// maxCell is the most characters Google Sheets stores in one cell
const maxCell = 50000

var header = []interface{}{
	"Job ID", "Final Action", "Bookmark",
	"Eligible", "Eligibility Explanation", "Eligibility Answer",
	"Domain Fit", "Domain Explanation", "Domain Answer",
	"Skill Fit", "Skill Explanation", "Skill Answer",
	"Service Error", "Language", "Processed At", "Description",
}

// Writer writes outcomes into one spreadsheet
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *slog.Logger
}

// LoadCredentials reads service account credentials from path, or from
// envValue when path is empty, and checks they are a service account key
func LoadCredentials(path, envValue string) ([]byte, error) {
	var credsJSON []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	} else {
		envValue = strings.TrimSpace(envValue)
		if envValue == "" {
			return nil, errors.New("credentials not found: pass --credentials or set GOOGLE_SHEETS_CREDENTIALS")
		}
		credsJSON = []byte(envValue)
	}

	var creds struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if creds.Type != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account key, got type %q", creds.Type)
	}
	return credsJSON, nil
}

// NewWriter creates a writer for spreadsheetID
func NewWriter(ctx context.Context, spreadsheetID string, credsJSON []byte, logger *slog.Logger) (*Writer, error) {
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Writer{service: service, spreadsheetID: spreadsheetID, logger: logger}, nil
}

// CreateSheetAndWriteOutcomes adds a sheet named sheetName at the front of
// the spreadsheet and writes outcomes into it. It returns the final sheet
// name and its gid.
func (w *Writer) CreateSheetAndWriteOutcomes(ctx context.Context, sheetName string, outcomes []models.ClassificationOutcome) (string, int64, error) {
	sheetName = sanitizeSheetName(sheetName)

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName, Index: 0},
			},
		}},
	}
	resp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	w.logger.Info("created sheet", "name", sheetName, "gid", sheetID)

	if err := w.write(ctx, fmt.Sprintf("'%s'!A1", sheetName), outcomeRows(outcomes, true)); err != nil {
		return "", 0, err
	}
	w.logger.Info("exported outcomes", "sheet", sheetName, "rows", len(outcomes))
	return sheetName, sheetID, nil
}

// AppendOutcomes adds outcomes below the existing rows of sheetName
func (w *Writer) AppendOutcomes(ctx context.Context, sheetName string, outcomes []models.ClassificationOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	sheetName = sanitizeSheetName(sheetName)

	resp, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, fmt.Sprintf("'%s'!A:A", sheetName)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read existing rows: %w", err)
	}
	nextRow := len(resp.Values) + 1

	if err := w.write(ctx, fmt.Sprintf("'%s'!A%d", sheetName, nextRow), outcomeRows(outcomes, nextRow == 1)); err != nil {
		return err
	}
	w.logger.Info("appended outcomes", "sheet", sheetName, "rows", len(outcomes), "from_row", nextRow)
	return nil
}

func (w *Writer) write(ctx context.Context, range_ string, values [][]interface{}) error {
	_, err := w.service.Spreadsheets.Values.Update(w.spreadsheetID, range_, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write to sheet: %w", err)
	}
	return nil
}

// outcomeRows renders outcomes as sheet rows. Unattempted stages are blank.
func outcomeRows(outcomes []models.ClassificationOutcome, withHeader bool) [][]interface{} {
	var values [][]interface{}
	if withHeader {
		values = append(values, header)
	}
	for _, o := range outcomes {
		row := []interface{}{string(o.ID), string(o.FinalAction), string(o.Bookmark)}
		for n := 1; n <= models.StageCount; n++ {
			pass, explanation, attempted := o.Stage(n)
			answer, _ := o.Answer(n)
			if !attempted {
				row = append(row, "", "", "")
				continue
			}
			row = append(row, yesNo(pass), explanation, answer)
		}
		processedAt := ""
		if !o.ProcessedAt.IsZero() {
			processedAt = o.ProcessedAt.Format(time.RFC3339)
		}
		description := o.Description
		if r := []rune(description); len(r) > maxCell {
			description = string(r[:maxCell])
		}
		row = append(row, o.ServiceError, o.Language, processedAt, description)
		values = append(values, row)
	}
	return values
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// sanitizeSheetName replaces characters Google Sheets rejects in titles
func sanitizeSheetName(name string) string {
	result := strings.NewReplacer("/", "_", "\\", "_", "?", "_", "*", "_", "[", "_", "]", "_", "'", "_").Replace(name)
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	if r := []rune(result); len(r) > maxSheetName {
		result = string(r[:maxSheetName])
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
// such as https://docs.google.com/spreadsheets/d/ID/edit?usp=sharing
func ExtractSpreadsheetID(url string) string {
	_, idPart, found := strings.Cut(url, "/d/")
	if !found {
		return ""
	}
	if idx := strings.IndexAny(idPart, "/?#"); idx != -1 {
		idPart = idPart[:idx]
	}
	return strings.TrimSpace(idPart)
}
