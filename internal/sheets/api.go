package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/mint-balance/internal/common"
)

// spreadsheetAPI is the slice of the Sheets API the writer needs.
type spreadsheetAPI interface {
	Exists(ctx context.Context, spreadsheetID string) error
	Create(ctx context.Context, title, sheetTitle, timeZone string) (id, url string, err error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	Format(ctx context.Context, spreadsheetID string, columns int) error
}

type googleAPI struct {
	srv *sheets.Service
}

// newGoogleAPI authenticates with a service account key or OAuth2 credentials.
func newGoogleAPI(ctx context.Context, cfg Config) (*googleAPI, error) {
	var tokenSource oauth2.TokenSource

	if cfg.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(cfg.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthCfg := OAuth2Config{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret, TokenFile: cfg.TokenFile}
		token := &oauth2.Token{RefreshToken: cfg.RefreshToken, TokenType: "Bearer"}
		if cfg.RefreshToken == "" {
			saved, err := LoadToken(cfg.TokenFile)
			if err != nil {
				return nil, fmt.Errorf("no refresh token configured and no saved token at %s: %w", cfg.TokenFile, err)
			}
			token = saved
		}
		tokenSource = oauthCfg.oauth2().TokenSource(ctx, token)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return &googleAPI{srv: srv}, nil
}

func (g *googleAPI) Exists(ctx context.Context, spreadsheetID string) error {
	_, err := g.srv.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	return classify(err)
}

func (g *googleAPI) Create(ctx context.Context, title, sheetTitle, timeZone string) (string, string, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title, TimeZone: timeZone},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: sheetTitle}},
		},
	}
	created, err := g.srv.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", "", classify(err)
	}
	return created.SpreadsheetId, created.SpreadsheetUrl, nil
}

func (g *googleAPI) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := g.srv.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return classify(err)
}

func (g *googleAPI) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := g.srv.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return classify(err)
}

// Format bolds and freezes the header row and fits column widths.
func (g *googleAPI) Format(ctx context.Context, spreadsheetID string, columns int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        0,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
	}

	_, err := g.srv.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).
		Do()
	return classify(err)
}

// classify marks API errors for the retry loop: quota errors back off,
// server errors retry, other client errors fail at once.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return common.Transient(err)
	default:
		return common.Permanent(err)
	}
}
