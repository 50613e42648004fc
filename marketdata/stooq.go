package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultStooqURL is the daily CSV download endpoint of stooq.
const DefaultStooqURL = "https://stooq.com/q/d/l/"

// Stooq downloads daily closes from stooq.
type Stooq struct {
	HTTP    *http.Client // Defaults to http.DefaultClient.
	BaseURL string       // Defaults to DefaultStooqURL.
}

// Fetch downloads the daily series of symbol (e.g. "9501.JP" or "^NKX") between start and end included.
func (s Stooq) Fetch(ctx context.Context, symbol string, start, end time.Time) (Series, error) {
	base := s.BaseURL
	if base == "" {
		base = DefaultStooqURL
	}
	q := url.Values{}
	q.Set("s", strings.ToLower(symbol))
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	q.Set("i", "d")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return Series{}, err
	}
	resp, err := httpClient(s.HTTP).Do(req)
	if err != nil {
		return Series{}, fmt.Errorf("stooq %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Series{}, fmt.Errorf("stooq %s: unexpected status %s", symbol, resp.Status)
	}
	return ReadCSV(symbol, resp.Body, CSVOptions{})
}

func httpClient(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
