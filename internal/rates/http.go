package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/Veraticus/mint-balance/internal/common"
	"github.com/Veraticus/mint-balance/internal/model"
)

// Default endpoints and timeout of the built-in sources.
const (
	DefaultExchangeRateHostURL  = "https://api.exchangerate.host/latest"
	DefaultOpenExchangeRatesURL = "https://open.er-api.com/v6/latest/USD"
	DefaultTimeout              = 5 * time.Second
)

// maxResponseBytes caps the size of a rate payload.
const maxResponseBytes = 1 << 20

// HTTPSourceConfig describes a JSON endpoint publishing quotes against an anchor currency.
type HTTPSourceConfig struct {
	// SuccessValue is compared with the value at SuccessPath.
	SuccessValue any
	Client       *http.Client
	Name         string
	URL          string
	// SuccessPath is a jsonpath expression selecting the success indicator. Empty disables the check.
	SuccessPath string
	// QuotesPath selects an object of code to "units of code per one anchor".
	QuotesPath string
	Anchor     string
	Timeout    time.Duration
	// SuccessOptional treats a missing indicator as success.
	SuccessOptional bool
}

// HTTPSource fetches a rate table over HTTP.
type HTTPSource struct {
	client *http.Client
	cfg    HTTPSourceConfig
}

// NewHTTPSource creates a source from cfg.
func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.QuotesPath == "" {
		cfg.QuotesPath = "$.rates"
	}
	if cfg.Anchor == "" {
		cfg.Anchor = "USD"
	}
	cfg.Anchor = strings.ToUpper(cfg.Anchor)

	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPSource{client: client, cfg: cfg}
}

// ExchangeRateHost returns the primary source. accessKey may be empty.
func ExchangeRateHost(endpoint, accessKey string, symbols []string, timeout time.Duration) (*HTTPSource, error) {
	if endpoint == "" {
		endpoint = DefaultExchangeRateHostURL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid exchangerate.host url: %w", err)
	}

	q := u.Query()
	q.Set("base", "USD")
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}
	if accessKey != "" {
		q.Set("access_key", accessKey)
	}
	u.RawQuery = q.Encode()

	return NewHTTPSource(HTTPSourceConfig{
		Name:            "exchangerate.host",
		URL:             u.String(),
		Anchor:          "USD",
		QuotesPath:      "$.rates",
		SuccessPath:     "$.success",
		SuccessValue:    true,
		SuccessOptional: true,
		Timeout:         timeout,
	}), nil
}

// OpenExchangeRates returns the secondary source.
func OpenExchangeRates(endpoint string, timeout time.Duration) *HTTPSource {
	if endpoint == "" {
		endpoint = DefaultOpenExchangeRatesURL
	}
	return NewHTTPSource(HTTPSourceConfig{
		Name:         "open.er-api.com",
		URL:          endpoint,
		Anchor:       "USD",
		QuotesPath:   "$.rates",
		SuccessPath:  "$.result",
		SuccessValue: "success",
		Timeout:      timeout,
	})
}

// Name identifies the source in logs.
func (s *HTTPSource) Name() string {
	return s.cfg.Name
}

// Fetch downloads and decodes the quote table.
func (s *HTTPSource) Fetch(ctx context.Context) (model.RateTable, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return model.RateTable{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return model.RateTable{}, fmt.Errorf("%w: %w", common.ErrRateSourceFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.RateTable{}, fmt.Errorf("%w: unexpected status %s", common.ErrRateSourceFailed, resp.Status)
	}

	var doc any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&doc); err != nil {
		return model.RateTable{}, fmt.Errorf("%w: invalid json: %w", common.ErrRateSourceFailed, err)
	}

	if err := s.checkSuccess(doc); err != nil {
		return model.RateTable{}, err
	}

	quotes, err := s.quotes(doc)
	if err != nil {
		return model.RateTable{}, err
	}

	// Quotes count units per anchor; the table wants anchor value per unit.
	table := model.RateTable{Anchor: s.cfg.Anchor, Rates: make(map[string]float64, len(quotes))}
	for code, quote := range quotes {
		if !validRate(quote) {
			continue
		}
		table.Rates[strings.ToUpper(code)] = 1 / quote
	}
	table.Rates[s.cfg.Anchor] = 1
	return table, nil
}

func (s *HTTPSource) checkSuccess(doc any) error {
	if s.cfg.SuccessPath == "" {
		return nil
	}
	v, err := jsonpath.Get(s.cfg.SuccessPath, doc)
	if err != nil {
		if s.cfg.SuccessOptional {
			return nil
		}
		return fmt.Errorf("%w: missing success indicator %s", common.ErrRateSourceFailed, s.cfg.SuccessPath)
	}
	v = unwrapSingle(v)
	if !reflect.DeepEqual(v, s.cfg.SuccessValue) {
		return fmt.Errorf("%w: %s = %v", common.ErrRateSourceFailed, s.cfg.SuccessPath, v)
	}
	return nil
}

func (s *HTTPSource) quotes(doc any) (map[string]float64, error) {
	v, err := jsonpath.Get(s.cfg.QuotesPath, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: no quotes at %s: %w", common.ErrRateSourceFailed, s.cfg.QuotesPath, err)
	}

	obj, ok := unwrapSingle(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: quotes at %s are %T, not an object", common.ErrRateSourceFailed, s.cfg.QuotesPath, v)
	}

	quotes := make(map[string]float64, len(obj))
	for code, raw := range obj {
		if f, ok := raw.(float64); ok {
			quotes[code] = f
		}
	}
	return quotes, nil
}

// unwrapSingle flattens the one-element list jsonpath may return for a filter expression.
func unwrapSingle(v any) any {
	if list, ok := v.([]any); ok && len(list) == 1 {
		return list[0]
	}
	return v
}
