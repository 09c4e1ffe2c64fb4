package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/engine"
	"github.com/Veraticus/mint-balance/internal/model"
)

func addCmd() *cobra.Command {
	var (
		income   bool
		category string
		date     string
		note     string
		currency string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an expense or income",
		Long: `Record an operation. Amounts are entered in the display currency unless --currency
is given and are stored in the base currency. The sign of the amount is ignored.

Examples:
  mint add 350 --category Food --note "lunch"
  mint add 85000 --income --category Salary --date 2024-01-10
  mint add 20 --currency USD --category Transport`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			when, err := parseDate(date, time.Now())
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			categoryID, err := resolveCategory(ctx, a.ledger, category, model.KindFromIncome(income))
			if err != nil {
				return err
			}

			id, err := a.ledger.Record(ctx, engine.RecordInput{
				Date:       when,
				CategoryID: categoryID,
				Note:       note,
				Currency:   currency,
				Amount:     amount,
				Income:     income,
			})
			if err != nil {
				return fmt.Errorf("failed to record operation: %w", err)
			}
			if id == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Zero amount, nothing recorded"))
				return nil
			}

			balance, err := a.ledger.BalanceAmount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded operation #%d, balance %s", id, a.ledger.FormatMoney(balance))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&income, "income", "i", false, "record an income instead of an expense")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category name or id")
	cmd.Flags().StringVarP(&date, "date", "d", "", "operation date (YYYY-MM-DD, default now)")
	cmd.Flags().StringVarP(&note, "note", "n", "", "free text note")
	cmd.Flags().StringVar(&currency, "currency", "", "currency of the amount (default: display currency)")

	return cmd
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an operation and reverse its balance effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid operation id %q", args[0])
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !yes {
				ok, err := cli.Confirm(ctx, cli.NewLineReader(cmd.InOrStdin()), cmd.OutOrStdout(), fmt.Sprintf("Delete operation #%d?", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Cancelled"))
					return nil
				}
			}

			if err := a.ledger.Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete operation: %w", err)
			}
			balance, err := a.ledger.BalanceAmount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted operation #%d, balance %s", id, a.ledger.FormatMoney(balance))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operations, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ops, err := a.ledger.Operations(ctx)
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No operations yet. Use 'mint add' to record one."))
				return nil
			}
			if limit > 0 && len(ops) > limit {
				ops = ops[:limit]
			}

			rows := make([][]string, 0, len(ops))
			for _, op := range ops {
				signed := model.FromMinorUnits(op.Signed())
				rows = append(rows, []string{
					strconv.FormatInt(op.ID, 10),
					op.Date.Format(dateLayout),
					cli.FormatAmount(a.ledger.FormatMoney(signed), signed < 0),
					op.CategoryName,
					op.Note,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Date", "Amount", "Category", "Note"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "show at most this many operations")
	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the balance and lifetime totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			balance, err := a.ledger.BalanceAmount(ctx)
			if err != nil {
				return err
			}
			income, expense, err := a.ledger.Totals(ctx)
			if err != nil {
				return err
			}

			content := fmt.Sprintf("Balance:  %s\nIncome:   %s\nExpenses: %s",
				cli.FormatAmount(a.ledger.FormatMoney(balance), balance < 0),
				cli.FormatAmount(a.ledger.FormatMoney(income), false),
				cli.FormatAmount(a.ledger.FormatMoney(expense), true))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Account", content))
			return nil
		},
	}
}
