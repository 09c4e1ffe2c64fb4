package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
)

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Show or refresh exchange rates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the exchange rates in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			printRates(cmd, a)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch today's rates even if the cache is current",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.rates.Refresh(ctx); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("All rate sources failed, keeping previous rates"))
				printRates(cmd, a)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exchange rates updated"))
			printRates(cmd, a)
			return nil
		},
	})

	return cmd
}

func printRates(cmd *cobra.Command, a *app) {
	base := a.rates.Base()
	table := a.rates.Rates()

	rows := make([][]string, 0, len(table))
	for _, code := range a.rates.Codes() {
		rows = append(rows, []string{code, strconv.FormatFloat(table[code], 'f', 4, 64)})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Rates in %s", base)))
	fmt.Fprintln(out, cli.RenderTable([]string{"Code", "Rate"}, rows))
	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("as of %s (%s)", a.rates.Date().Format(dateLayout), a.rates.State())))
}
