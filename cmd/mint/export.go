package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/config"
	"github.com/Veraticus/mint-balance/internal/engine"
	"github.com/Veraticus/mint-balance/internal/service"
	"github.com/Veraticus/mint-balance/internal/sheets"
)

func exportCmd() *cobra.Command {
	var (
		auth      bool
		printOnly bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export operations to Google Sheets",
		Long: `Export every operation as date, amount, category and note rows, amounts in the
display currency.

Authentication uses a service account (sheets.service_account_path) or an OAuth
client (sheets.client_id and sheets.client_secret). Run 'mint export --auth' once
to authorize the OAuth client in a browser.

Examples:
  mint export --auth
  mint export
  mint export --print`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if auth {
				return runSheetsAuth(ctx, cmd)
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.ledger.ExportRows(ctx)
			if err != nil {
				return fmt.Errorf("failed to build export rows: %w", err)
			}
			values := make([][]string, 0, len(rows))
			for _, r := range rows {
				values = append(values, r.Values())
			}

			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(engine.ExportHeader(), values))
				return nil
			}

			sheetsCfg, err := config.LoadSheetsConfig()
			if err != nil {
				return fmt.Errorf("sheets export is not configured: %w", err)
			}
			writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
			if err != nil {
				return err
			}
			if err := writeRows(ctx, writer, values); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d operations", len(values))))
			fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("https://docs.google.com/spreadsheets/d/"+writer.SpreadsheetID()))
			if sheetsCfg.SpreadsheetID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Set sheets.spreadsheet_id to reuse this spreadsheet next time."))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&auth, "auth", false, "authorize the OAuth client and save a token")
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the rows instead of uploading them")
	return cmd
}

func writeRows(ctx context.Context, w service.RowWriter, rows [][]string) error {
	if err := w.Write(ctx, engine.ExportHeader(), rows); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	return nil
}

func runSheetsAuth(ctx context.Context, cmd *cobra.Command) error {
	oauthCfg, err := config.LoadSheetsOAuth2Config()
	if err != nil {
		return err
	}

	_, err = sheets.Authenticate(ctx, oauthCfg, func(url string) {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Open this URL in your browser to authorize mint:"))
		fmt.Fprintln(cmd.OutOrStdout(), url)
	})
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Saved token to "+oauthCfg.TokenFile))
	return nil
}
