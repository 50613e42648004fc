package marketdata

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// klinesServer serves two bars per weekday and nothing on weekends.
func klinesServer(t *testing.T, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		q := r.URL.Query()
		assert.Equal(t, "USD_JPY", q.Get("symbol"))
		assert.Equal(t, "ASK", q.Get("priceType"))
		assert.Equal(t, "5min", q.Get("interval"))
		d, err := time.Parse("20060102", q.Get("date"))
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			fmt.Fprint(w, `{"status":0,"data":[],"responsetime":"2023-11-04T00:00:00.000Z"}`)
			return
		}
		t0 := d.Add(21 * time.Hour).UnixMilli()
		fmt.Fprintf(w, `{"status":0,"data":[
			{"openTime":"%d","open":"149.5","high":"149.6","low":"149.4","close":"149.55"},
			{"openTime":"%d","open":"149.55","high":"149.7","low":"149.5","close":"149.65"}
		]}`, t0, t0+int64(5*time.Minute/time.Millisecond))
	}))
}

func TestKlinesFetchDay(t *testing.T) {
	var calls int32
	srv := klinesServer(t, &calls)
	defer srv.Close()

	k := &Klines{HTTP: srv.Client(), BaseURL: srv.URL, Symbol: "USD_JPY", PriceType: "ASK", Interval: "5min"}
	bars, err := k.FetchDay(context.Background(), date(2023, 10, 30))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, date(2023, 10, 30).Add(21*time.Hour), bars[0].OpenTime)
	assert.Equal(t, 149.55, bars[0].Close)
	assert.Equal(t, 149.7, bars[1].High)

	bars, err = k.FetchDay(context.Background(), date(2023, 10, 29))
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestKlinesFetchRange(t *testing.T) {
	var calls int32
	srv := klinesServer(t, &calls)
	defer srv.Close()

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	k := &Klines{
		HTTP: srv.Client(), BaseURL: srv.URL,
		Symbol: "USD_JPY", PriceType: "ASK", Interval: "5min",
		Concurrency: 3,
		Limiter:     rate.NewLimiter(rate.Inf, 1),
		Log:         logger,
	}
	// Friday to Tuesday.
	bars, err := k.FetchRange(context.Background(), date(2023, 11, 3), date(2023, 11, 7))
	require.NoError(t, err)
	assert.EqualValues(t, 5, atomic.LoadInt32(&calls))
	require.Len(t, bars, 6)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].OpenTime.Before(bars[i].OpenTime))
	}
	assert.Len(t, hook.AllEntries(), 5)

	_, err = k.FetchRange(context.Background(), date(2023, 11, 7), date(2023, 11, 3))
	assert.Error(t, err)
}

func TestKlinesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("date") {
		case "20231101":
			fmt.Fprint(w, `{"status":5,"data":[]}`)
		case "20231102":
			fmt.Fprint(w, `{"status":0,"data":[{"openTime":"x","open":"1","high":"1","low":"1","close":"1"}]}`)
		default:
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	k := &Klines{HTTP: srv.Client(), BaseURL: srv.URL}
	for _, d := range []time.Time{date(2023, 11, 1), date(2023, 11, 2), date(2023, 11, 3)} {
		_, err := k.FetchDay(context.Background(), d)
		assert.Errorf(t, err, "%s", d)
	}
	_, err := k.FetchRange(context.Background(), date(2023, 11, 1), date(2023, 11, 3))
	assert.Error(t, err)
}

func TestBarsCSV(t *testing.T) {
	bars := []Bar{
		{OpenTime: time.UnixMilli(1698613200000).UTC(), Open: 149.5, High: 149.6, Low: 149.4, Close: 149.55},
		{OpenTime: time.UnixMilli(1698613500000).UTC(), Open: 149.55, High: 149.7, Low: 149.5, Close: 149.65},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteBarsCSV(&buf, bars))
	assert.Contains(t, buf.String(), "openTime,open,high,low,close\n1698613200000,149.5,")

	got, err := ReadBarsCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, bars, got)

	_, err = ReadBarsCSV(bytes.NewBufferString("openTime,close\n1,2\n"))
	assert.Error(t, err)
}
