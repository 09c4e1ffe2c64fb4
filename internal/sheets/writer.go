package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/service"
)

// Writer replaces the contents of one sheet with tabular rows.
type Writer struct {
	api           spreadsheetAPI
	logger        *slog.Logger
	spreadsheetID string
	config        Config
}

// NewWriter creates a Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	api, err := newGoogleAPI(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newWriter(api, config, logger), nil
}

func newWriter(api spreadsheetAPI, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.SheetTitle == "" {
		config.SheetTitle = DefaultConfig().SheetTitle
	}
	return &Writer{
		api:           api,
		logger:        logger,
		config:        config,
		spreadsheetID: config.SpreadsheetID,
	}
}

// SpreadsheetID returns the target spreadsheet, set after the first Write when one was created.
func (w *Writer) SpreadsheetID() string {
	return w.spreadsheetID
}

// Write clears the sheet and writes header followed by rows.
func (w *Writer) Write(ctx context.Context, header []string, rows [][]string) error {
	w.logger.Info("starting sheet export", "rows", len(rows))

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if err := w.ensureSpreadsheet(ctx, retryOpts); err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	sheetRange := fmt.Sprintf("'%s'!A:Z", w.config.SheetTitle)
	err := common.WithRetry(ctx, func() error {
		return w.api.Clear(ctx, w.spreadsheetID, sheetRange)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := toValues(header, rows)
	for start := 0; start < len(values); start += w.config.BatchSize {
		end := min(start+w.config.BatchSize, len(values))
		batch := values[start:end]
		rng := fmt.Sprintf("'%s'!A%d", w.config.SheetTitle, start+1)

		err := common.WithRetry(ctx, func() error {
			return w.api.Update(ctx, w.spreadsheetID, rng, batch)
		}, retryOpts)
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", start+1, err)
		}
		w.logger.Debug("wrote batch", "start_row", start+1, "rows", len(batch))
	}

	if w.config.EnableFormatting && len(header) > 0 {
		err := common.WithRetry(ctx, func() error {
			return w.api.Format(ctx, w.spreadsheetID, len(header))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheet export completed",
		"spreadsheet_id", w.spreadsheetID,
		"rows_written", len(values))
	return nil
}

func (w *Writer) ensureSpreadsheet(ctx context.Context, opts service.RetryOptions) error {
	if w.spreadsheetID != "" {
		return common.WithRetry(ctx, func() error {
			return w.api.Exists(ctx, w.spreadsheetID)
		}, opts)
	}

	var id, url string
	err := common.WithRetry(ctx, func() error {
		var err error
		id, url, err = w.api.Create(ctx, w.config.SpreadsheetName, w.config.SheetTitle, w.config.TimeZone)
		return err
	}, opts)
	if err != nil {
		return err
	}

	w.spreadsheetID = id
	w.logger.Info("created new spreadsheet", "id", id, "url", url)
	return nil
}

func toValues(header []string, rows [][]string) [][]any {
	values := make([][]any, 0, len(rows)+1)
	if len(header) > 0 {
		values = append(values, stringsToAny(header))
	}
	for _, row := range rows {
		values = append(values, stringsToAny(row))
	}
	return values
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
