package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jobscout/sheets"
	"jobscout/state"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var spreadsheetURL, credentialsPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the recorded outcomes into a new Google Sheets tab.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("spreadsheet") {
				cfg.Sheets.SpreadsheetURL = spreadsheetURL
			}
			if cmd.Flags().Changed("credentials") {
				cfg.Sheets.CredentialsPath = credentialsPath
			}

			spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL)
			if spreadsheetID == "" {
				return fmt.Errorf("could not extract spreadsheet id from %q", cfg.Sheets.SpreadsheetURL)
			}

			outcomes, err := state.NewJournal(cfg.State.ResultsFile, opts.logger).Read()
			if err != nil {
				return err
			}
			if len(outcomes) == 0 {
				return errors.New("no outcomes recorded yet")
			}

			creds, err := sheets.LoadCredentials(cfg.Sheets.CredentialsPath, cfg.Secrets.SheetsCredentials)
			if err != nil {
				return err
			}
			writer, err := sheets.NewWriter(cmd.Context(), spreadsheetID, creds, opts.logger)
			if err != nil {
				return err
			}

			name := "jobscout " + time.Now().Format("2006-01-02 15:04")
			sheetName, gid, err := writer.CreateSheetAndWriteOutcomes(cmd.Context(), name, outcomes)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d outcomes to sheet %q: https://docs.google.com/spreadsheets/d/%s/edit#gid=%d\n",
				len(outcomes), sheetName, spreadsheetID, gid)
			return nil
		},
	}
	cmd.Flags().StringVar(&spreadsheetURL, "spreadsheet", "", "Google Sheets URL (overrides sheets.spreadsheet_url)")
	cmd.Flags().StringVar(&credentialsPath, "credentials", "", "service account JSON file (or set GOOGLE_SHEETS_CREDENTIALS)")
	return cmd
}
