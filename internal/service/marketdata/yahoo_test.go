package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chartBody(timestamps []int64, closes, volumes []string) string {
	ts := ""
	for i, t := range timestamps {
		if i > 0 {
			ts += ","
		}
		ts += fmt.Sprintf("%d", t)
	}
	join := func(vals []string) string {
		out := ""
		for i, v := range vals {
			if i > 0 {
				out += ","
			}
			out += v
		}
		return out
	}
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{"close":[%s],"volume":[%s]}]}}],"error":null}}`,
		ts, join(closes), join(volumes))
}

func TestFetchParsesChart(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Minute)
	t1 := now.Add(-30 * time.Minute).Unix()
	t2 := now.Add(-25 * time.Minute).Unix()
	t3 := now.Add(-20 * time.Minute).Unix()

	var gotPath, gotRange, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, chartBody(
			[]int64{t1, t2, t3},
			[]string{"12.5", "null", "12.8"},
			[]string{"1000", "null", "2500"},
		))
	}))
	defer srv.Close()

	src := New(srv.URL, time.Second)
	points, err := src.Fetch(context.Background(), "BIF.CO", time.Hour)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotPath != "/v8/finance/chart/BIF.CO" {
		t.Errorf("path = %q", gotPath)
	}
	if gotRange != "1d" || gotInterval != "5m" {
		t.Errorf("range/interval = %q/%q, want 1d/5m", gotRange, gotInterval)
	}

	// the null close bar is skipped
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Price != 12.5 || points[0].Volume != 1000 {
		t.Errorf("first point = %+v", points[0])
	}
	if !points[0].Timestamp.Equal(time.Unix(t1, 0).UTC()) {
		t.Errorf("first timestamp = %v", points[0].Timestamp)
	}
	if points[1].Price != 12.8 || points[1].Volume != 2500 {
		t.Errorf("second point = %+v", points[1])
	}
}

func TestFetchSkipsBarsBeforeLookback(t *testing.T) {
	now := time.Now().UTC()
	old := now.Add(-3 * time.Hour).Unix()
	recent := now.Add(-10 * time.Minute).Unix()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(
			[]int64{old, recent},
			[]string{"11.0", "11.5"},
			[]string{"100", "200"},
		))
	}))
	defer srv.Close()

	src := New(srv.URL, time.Second)
	points, err := src.Fetch(context.Background(), "BIF.CO", time.Hour)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(points) != 1 || points[0].Price != 11.5 {
		t.Fatalf("got %+v, want only the recent bar", points)
	}
}

func TestFetchChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	src := New(srv.URL, time.Second)
	if _, err := src.Fetch(context.Background(), "NOPE", time.Hour); err == nil {
		t.Fatal("expected an error for a chart error payload")
	}
}

func TestFetchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	}))
	defer srv.Close()

	src := New(srv.URL, time.Second)
	if _, err := src.Fetch(context.Background(), "BIF.CO", time.Hour); err == nil {
		t.Fatal("expected an error for an empty result")
	}
}

func TestRangeFor(t *testing.T) {
	tests := []struct {
		lookback time.Duration
		rng      string
		interval string
	}{
		{time.Hour, "1d", "5m"},
		{24 * time.Hour, "1d", "5m"},
		{3 * 24 * time.Hour, "5d", "15m"},
		{14 * 24 * time.Hour, "1mo", "1h"},
		{60 * 24 * time.Hour, "3mo", "1d"},
	}
	for _, tt := range tests {
		rng, interval := rangeFor(tt.lookback)
		if rng != tt.rng || interval != tt.interval {
			t.Errorf("rangeFor(%v) = %s/%s, want %s/%s", tt.lookback, rng, interval, tt.rng, tt.interval)
		}
	}
}
