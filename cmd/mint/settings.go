package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mint-balance/internal/cli"
	"github.com/Veraticus/mint-balance/internal/config"
	"github.com/Veraticus/mint-balance/internal/settings"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View or change preferences",
		Long: `View or change user preferences: language, theme and display_currency.

The exchange rate cache lives in the same file under fx_rates and fx_date.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show all preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(settings.Keys()))
			for _, key := range settings.Keys() {
				rows = append(rows, []string{key, store.Effective(key)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"Key", "Value"}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "get <key>",
		Short:     "Print one preference",
		Args:      cobra.ExactArgs(1),
		ValidArgs: settings.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}
			if !settings.IsKnownKey(args[0]) {
				return fmt.Errorf("%w: %s", settings.ErrUnknownKey, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Effective(args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change a preference",
		Example:   "  mint settings set display_currency USD\n  mint settings set theme dark",
		Args:      cobra.ExactArgs(2),
		ValidArgs: settings.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings()
			if err != nil {
				return err
			}
			if err := store.SetChecked(args[0], args[1]); err != nil {
				return err
			}
			if err := store.Sync(); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s = %s", strings.ToLower(args[0]), store.Effective(args[0]))))
			return nil
		},
	})

	return cmd
}

// openSettings loads the settings file without touching the database or rate sources.
func openSettings() (*settings.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return settings.New(cfg.SettingsPath)
}
