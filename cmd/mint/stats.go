package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/engine"
	"github.com/Veraticus/mint-balance/internal/model"
)

func statsCmd() *cobra.Command {
	var (
		days   int
		points int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize expenses by category and month",
		Long: `Show where the money went: expense share per category, income and expenses per
month, and the tail of the running balance.

Examples:
  mint stats
  mint stats --days 30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var window *int
			if cmd.Flags().Changed("days") {
				window = &days
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			agg, err := a.ledger.Aggregate(ctx, window)
			if err != nil {
				return err
			}
			if agg.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No operations in this period."))
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Expenses by category"))
			fmt.Fprintln(out, cli.RenderTable([]string{"Category", "Amount", "Share"}, shareRows(a.ledger, agg)))
			fmt.Fprintln(out, cli.FormatTitle("By month"))
			fmt.Fprintln(out, cli.RenderTable([]string{"Month", "Income", "Expenses", "Net"}, monthRows(a.ledger, agg)))
			fmt.Fprintln(out, cli.FormatTitle("Balance"))
			fmt.Fprintln(out, cli.RenderTable([]string{"Date", "Balance"}, seriesRows(a.ledger, agg, points)))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "only include operations from the last N days")
	cmd.Flags().IntVar(&points, "points", 10, "number of balance samples to show")
	return cmd
}

// shareRows lists categories by descending expense.
func shareRows(ledger *engine.Engine, agg *model.Aggregation) [][]string {
	names := make([]string, 0, len(agg.CategoryShare))
	var total float64
	for name, v := range agg.CategoryShare {
		names = append(names, name)
		total += v
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := agg.CategoryShare[names[i]], agg.CategoryShare[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		v := agg.CategoryShare[name]
		share := 0.0
		if total > 0 {
			share = v / total * 100
		}
		rows = append(rows, []string{name, ledger.FormatMoney(v), fmt.Sprintf("%5.1f%% %s", share, bar(share))})
	}
	return rows
}

func monthRows(ledger *engine.Engine, agg *model.Aggregation) [][]string {
	months := agg.Months()
	rows := make([][]string, 0, len(months))
	for _, m := range months {
		in, out := agg.MonthlyIncome[m], agg.MonthlyExpense[m]
		net := model.RoundCents(in - out)
		rows = append(rows, []string{
			m,
			ledger.FormatMoney(in),
			ledger.FormatMoney(out),
			cli.FormatAmount(ledger.FormatMoney(net), net < 0),
		})
	}
	return rows
}

// seriesRows returns the last n balance samples.
func seriesRows(ledger *engine.Engine, agg *model.Aggregation, n int) [][]string {
	series := agg.BalanceSeries
	if n > 0 && len(series) > n {
		series = series[len(series)-n:]
	}
	rows := make([][]string, 0, len(series))
	for _, p := range series {
		rows = append(rows, []string{
			p.Time.Format(dateLayout),
			cli.FormatAmount(ledger.FormatMoney(p.Balance), p.Balance < 0),
		})
	}
	return rows
}

func bar(percent float64) string {
	return strings.Repeat("█", int(percent/5+0.5))
}
