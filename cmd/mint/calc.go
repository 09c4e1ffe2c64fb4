package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/finance"
)

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <amount> <from> <to>",
		Short: "Convert an amount between currencies",
		Example: `  mint convert 100 USD EUR
  mint convert 5000 rub usd`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			converted, err := a.ledger.Convert(amount, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n",
				formatCode(amount, from), cli.BoldStyle.Render(formatCode(converted, to)))
			return nil
		},
	}
}

func loanCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "loan <principal> <annual-rate-%> <months>",
		Short:   "Compute the monthly annuity payment of a loan",
		Example: `  mint loan 120000 12 12`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			rate, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			months, err := parseMonths(args[2])
			if err != nil {
				return err
			}

			payment, err := finance.LoanPayment(principal, rate, months)
			if err != nil {
				return err
			}
			total, interest, err := finance.TotalPaid(principal, rate, months)
			if err != nil {
				return err
			}

			content := fmt.Sprintf("Monthly payment: %s\nTotal paid:      %.2f\nInterest:        %.2f",
				cli.BoldStyle.Render(fmt.Sprintf("%.2f", payment)), total, interest)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Loan", content))
			return nil
		},
	}
}

func depositCmd() *cobra.Command {
	var (
		contribution float64
		simple       bool
	)

	cmd := &cobra.Command{
		Use:   "deposit <initial> <annual-rate-%> <months>",
		Short: "Project the final amount of a deposit",
		Example: `  mint deposit 10000 12 12
  mint deposit 0 12 2 --contribution 100
  mint deposit 10000 12 12 --simple`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			initial, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			rate, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			months, err := parseMonths(args[2])
			if err != nil {
				return err
			}

			final, err := finance.DepositGrowth(initial, rate, months, contribution, !simple)
			if err != nil {
				return err
			}
			invested := initial + contribution*float64(months)

			content := fmt.Sprintf("Final amount: %s\nInvested:     %.2f\nEarned:       %.2f",
				cli.BoldStyle.Render(fmt.Sprintf("%.2f", final)), invested, final-invested)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Deposit", content))
			return nil
		},
	}

	cmd.Flags().Float64Var(&contribution, "contribution", 0, "amount added at the start of every month")
	cmd.Flags().BoolVar(&simple, "simple", false, "simple interest instead of monthly capitalization")
	return cmd
}

func parseMonths(s string) (int, error) {
	months, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid term %q: expected a whole number of months", s)
	}
	return months, nil
}

func formatCode(amount float64, code string) string {
	return fmt.Sprintf("%.2f %s", amount, code)
}
