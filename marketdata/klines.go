package marketdata

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultKlinesURL is the public klines endpoint of the forex exchange.
const DefaultKlinesURL = "https://forex-api.coin.z.com/public/v1/klines"

// Bar is one intraday OHLC bar.
type Bar struct {
	OpenTime               time.Time
	Open, High, Low, Close float64
}

// Klines downloads intraday bars one trading day at a time.
type Klines struct {
	HTTP        *http.Client
	BaseURL     string        // Defaults to DefaultKlinesURL.
	Symbol      string        // e.g. USD_JPY
	PriceType   string        // ASK or BID
	Interval    string        // e.g. 5min
	Concurrency int           // Days fetched in parallel, at least one.
	Limiter     *rate.Limiter // Optional request rate limit.
	Log         logrus.FieldLogger
}

type klinesResponse struct {
	Status int `json:"status"`
	Data   []struct {
		OpenTime json.Number `json:"openTime"`
		Open     json.Number `json:"open"`
		High     json.Number `json:"high"`
		Low      json.Number `json:"low"`
		Close    json.Number `json:"close"`
	} `json:"data"`
}

// FetchDay returns the bars of the given day. A day without data (market
// closed) returns no bars and no error.
func (k *Klines) FetchDay(ctx context.Context, date time.Time) ([]Bar, error) {
	if k.Limiter != nil {
		if err := k.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	base := k.BaseURL
	if base == "" {
		base = DefaultKlinesURL
	}
	q := url.Values{}
	q.Set("symbol", k.Symbol)
	q.Set("priceType", k.PriceType)
	q.Set("interval", k.Interval)
	q.Set("date", date.Format("20060102"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient(k.HTTP).Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines %s: %w", date.Format("20060102"), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("klines %s: unexpected status %s", date.Format("20060102"), resp.Status)
	}
	var body klinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("klines %s: %w", date.Format("20060102"), err)
	}
	if body.Status != 0 {
		return nil, fmt.Errorf("klines %s: api status %d", date.Format("20060102"), body.Status)
	}
	bars := make([]Bar, 0, len(body.Data))
	for _, d := range body.Data {
		ms, err := d.OpenTime.Int64()
		if err != nil {
			return nil, fmt.Errorf("klines %s: openTime: %w", date.Format("20060102"), err)
		}
		var b Bar
		b.OpenTime = time.UnixMilli(ms).UTC()
		for _, f := range []struct {
			dst *float64
			src json.Number
		}{{&b.Open, d.Open}, {&b.High, d.High}, {&b.Low, d.Low}, {&b.Close, d.Close}} {
			if *f.dst, err = f.src.Float64(); err != nil {
				return nil, fmt.Errorf("klines %s: %w", date.Format("20060102"), err)
			}
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// FetchRange returns the bars of every day from `from` to `to` included, ordered by time.
func (k *Klines) FetchRange(ctx context.Context, from, to time.Time) ([]Bar, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("end %s before start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	var days []time.Time
	for d := day(from); !d.After(day(to)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	perDay := make([][]Bar, len(days))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(k.Concurrency, 1))
	for i, d := range days {
		i, d := i, d
		g.Go(func() error {
			bars, err := k.FetchDay(ctx, d)
			if err != nil {
				return err
			}
			if k.Log != nil {
				k.Log.WithFields(logrus.Fields{"date": d.Format("2006-01-02"), "bars": len(bars)}).Debug("klines fetched")
			}
			perDay[i] = bars
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Bar
	for _, bars := range perDay {
		all = append(all, bars...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].OpenTime.Before(all[j].OpenTime) })
	return all, nil
}

var barsHeader = []string{"openTime", "open", "high", "low", "close"}

// WriteBarsCSV writes the bars with openTime as milliseconds since the epoch.
func WriteBarsCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(barsHeader); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			strconv.FormatInt(b.OpenTime.UnixMilli(), 10),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadBarsCSV reads bars written by WriteBarsCSV. Extra columns are ignored.
func ReadBarsCSV(r io.Reader) ([]Bar, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1
	header, err := rd.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	idx := make([]int, len(barsHeader))
	for i, h := range barsHeader {
		c, ok := cols[h]
		if !ok {
			return nil, fmt.Errorf("missing column %q", h)
		}
		idx[i] = c
	}

	var bars []Bar
	for line := 2; ; line++ {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		vals := make([]float64, len(idx))
		for i, c := range idx {
			if c >= len(rec) {
				return nil, fmt.Errorf("line %d has %d fields", line, len(rec))
			}
			if vals[i], err = strconv.ParseFloat(rec[c], 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		bars = append(bars, Bar{
			OpenTime: time.UnixMilli(int64(vals[0])).UTC(),
			Open:     vals[1],
			High:     vals[2],
			Low:      vals[3],
			Close:    vals[4],
		})
	}
	return bars, nil
}
