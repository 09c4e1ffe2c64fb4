package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/config"
	"github.com/Veraticus/mint-balance/internal/engine"
	"github.com/Veraticus/mint-balance/internal/model"
	"github.com/Veraticus/mint-balance/internal/ofx"
	"github.com/Veraticus/mint-balance/internal/pattern"
)

func importCmd() *cobra.Command {
	var (
		dryRun          bool
		expenseCategory string
		incomeCategory  string
	)

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import operations from OFX/QFX statements",
		Long: `Import operations from OFX or QFX statements exported from your bank.

Amounts are converted from the statement currency into the base currency.
Zero amount lines are skipped. Lines matching an import rule (import.rules in
the config file) are filed under the rule's category, the rest under
--expense-category or --income-category.

Examples:
  # Preview a statement
  mint import ~/Downloads/statement.ofx --dry-run

  # Import every statement, filing expenses under Food
  mint import ~/Downloads/*.qfx --expense-category Food`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			parser := ofx.NewParser()
			var imported []model.ImportedOperation
			for _, path := range files {
				ops, err := parseStatement(cmd, parser, path)
				if err != nil {
					return err
				}
				imported = append(imported, ops...)
			}
			if len(imported) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No operations found."))
				return nil
			}

			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"Date", "Amount", "Currency", "Note"}, importedRows(imported)))
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Dry run: %d operations not recorded", len(imported))))
				return nil
			}

			handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Operations recorded so far are kept.")
			ctx, stop := handler.HandleInterrupts(cmd.Context())
			defer stop()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			expenseID, err := resolveCategory(ctx, a.ledger, expenseCategory, model.KindExpense)
			if err != nil {
				return err
			}
			incomeID, err := resolveCategory(ctx, a.ledger, incomeCategory, model.KindIncome)
			if err != nil {
				return err
			}
			categorizer, err := newCategorizer(ctx, a.ledger)
			if err != nil {
				return err
			}

			bar := newProgressBar(cmd, len(imported))
			var recorded, failed int
			for _, op := range imported {
				if ctx.Err() != nil {
					break
				}

				categoryID := expenseID
				if op.Income {
					categoryID = incomeID
				}
				if id, ok := categorizer.categorize(ctx, op); ok {
					categoryID = id
				}
				_, err := a.ledger.Record(ctx, engine.RecordInput{
					Date:       op.Date,
					CategoryID: categoryID,
					Note:       op.Note,
					Currency:   op.Currency,
					Amount:     op.Amount,
					Income:     op.Income,
				})
				switch {
				case err == nil:
					recorded++
				case errors.Is(err, ctx.Err()):
				default:
					failed++
					slog.Warn("failed to record imported operation", "date", op.Date, "note", op.Note, "error", err)
				}
				if err := bar.Add(1); err != nil {
					slog.Debug("failed to update progress bar", "error", err)
				}
			}

			summary := fmt.Sprintf("Recorded: %d\nFailed:   %d\nFiles:    %d", recorded, failed, len(files))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Import", summary))
			if handler.WasInterrupted() {
				return fmt.Errorf("import interrupted after %d of %d operations", recorded+failed, len(imported))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview without recording")
	cmd.Flags().StringVar(&expenseCategory, "expense-category", "", "category for imported expenses")
	cmd.Flags().StringVar(&incomeCategory, "income-category", "", "category for imported incomes")
	return cmd
}

// expandFiles resolves glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("no files found matching pattern", "pattern", pattern)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

func parseStatement(cmd *cobra.Command, parser *ofx.Parser, path string) ([]model.ImportedOperation, error) {
	f, err := os.Open(path) //nolint:gosec // user supplied statement path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("failed to close statement", "path", path, "error", cerr)
		}
	}()

	ops, err := parser.ParseFile(cmd.Context(), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ops, nil
}

func importedRows(ops []model.ImportedOperation) [][]string {
	rows := make([][]string, 0, len(ops))
	for _, op := range ops {
		amount := op.Amount
		if !op.Income {
			amount = -amount
		}
		rows = append(rows, []string{
			op.Date.Format(dateLayout),
			cli.FormatAmount(strconv.FormatFloat(amount, 'f', 2, 64), amount < 0),
			op.Currency,
			op.Note,
		})
	}
	return rows
}

func newProgressBar(cmd *cobra.Command, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Recording operations...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
}

// categorizer resolves import rules to category ids of the ledger.
type categorizer struct {
	matcher *pattern.MatcherImpl
	ids     map[model.Kind]map[string]int64
}

func newCategorizer(ctx context.Context, ledger *engine.Engine) (*categorizer, error) {
	rules, err := config.LoadImportRules()
	if err != nil {
		return nil, err
	}
	categories, err := ledger.Categories(ctx, nil)
	if err != nil {
		return nil, err
	}
	if err := pattern.Validate(rules, categories); err != nil {
		return nil, fmt.Errorf("invalid import rules: %w", err)
	}
	matcher, err := pattern.NewMatcher(rules)
	if err != nil {
		return nil, err
	}

	ids := map[model.Kind]map[string]int64{
		model.KindExpense: {},
		model.KindIncome:  {},
	}
	for _, c := range categories {
		name := strings.ToLower(c.Name)
		if _, seen := ids[c.Kind][name]; !seen {
			ids[c.Kind][name] = c.ID
		}
	}
	return &categorizer{matcher: matcher, ids: ids}, nil
}

// categorize returns the category of the best matching rule whose kind fits the operation.
func (c *categorizer) categorize(ctx context.Context, op model.ImportedOperation) (*int64, bool) {
	matches, err := c.matcher.Match(ctx, op)
	if err != nil {
		return nil, false
	}
	kind := model.KindFromIncome(op.Income)
	for _, rule := range matches {
		if id, ok := c.ids[kind][strings.ToLower(rule.Category)]; ok {
			return &id, true
		}
	}
	return nil, false
}
