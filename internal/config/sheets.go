package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/sheets"
)

// LoadSheetsConfig loads Google Sheets configuration from viper, falling back
// to GOOGLE_SHEETS_* environment variables for unset values.
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = firstSet(viper.GetString("sheets.service_account_path"), os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	config.ServiceAccountPath = ExpandPath(config.ServiceAccountPath)
	config.ClientID = firstSet(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstSet(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstSet(viper.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	config.SpreadsheetID = firstSet(viper.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	config.SpreadsheetName = firstSet(viper.GetString("sheets.spreadsheet_name"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"), config.SpreadsheetName)
	config.SheetTitle = firstSet(viper.GetString("sheets.sheet_title"), config.SheetTitle)
	config.TimeZone = firstSet(viper.GetString("sheets.time_zone"), config.TimeZone)

	// A saved token from `mint export --auth` stands in for a refresh token.
	if config.ServiceAccountPath == "" && config.RefreshToken == "" {
		config.TokenFile = SheetsTokenPath()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SheetsTokenPath returns where the OAuth2 token for Sheets is stored.
func SheetsTokenPath() string {
	return ExpandPath(firstSet(viper.GetString("sheets.token_file"), DefaultPath("sheets-token.json")))
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadSheetsOAuth2Config returns the OAuth client used by `mint export --auth`.
func LoadSheetsOAuth2Config() (sheets.OAuth2Config, error) {
	cfg := sheets.OAuth2Config{
		ClientID:     firstSet(viper.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID")),
		ClientSecret: firstSet(viper.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")),
		TokenFile:    SheetsTokenPath(),
		CallbackAddr: viper.GetString("sheets.callback_addr"),
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return cfg, fmt.Errorf("%w: sheets.client_id and sheets.client_secret", common.ErrMissingConfig)
	}
	return cfg, nil
}
