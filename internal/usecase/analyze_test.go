package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/analytics"
	"github.com/Kagemann/brondby-stock-tracker/pkg/logger"
)

type fakeMarketStore struct {
	points []models.PricePoint
	err    error
}

func (f *fakeMarketStore) Init(ctx context.Context) error { return nil }
func (f *fakeMarketStore) StorePoint(ctx context.Context, symbol string, p models.PricePoint) error {
	f.points = append(f.points, p)
	return nil
}
func (f *fakeMarketStore) StoreBatch(ctx context.Context, symbol string, ps []models.PricePoint) error {
	f.points = append(f.points, ps...)
	return nil
}
func (f *fakeMarketStore) GetRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	return f.points, f.err
}
func (f *fakeMarketStore) Health(ctx context.Context) error { return nil }
func (f *fakeMarketStore) Close() error                     { return nil }

type fakeNewsStore struct {
	items []models.NewsItem
	err   error
}

func (f *fakeNewsStore) StoreItem(ctx context.Context, it models.NewsItem) error {
	f.items = append(f.items, it)
	return nil
}
func (f *fakeNewsStore) StoreBatch(ctx context.Context, its []models.NewsItem) error {
	f.items = append(f.items, its...)
	return nil
}
func (f *fakeNewsStore) GetRange(ctx context.Context, from, to time.Time) ([]models.NewsItem, error) {
	return f.items, f.err
}
func (f *fakeNewsStore) Close() error { return nil }

type fakeResultStore struct {
	mu      sync.Mutex
	reports []*models.AnalysisReport
	err     error
}

func (f *fakeResultStore) SaveReport(ctx context.Context, r *models.AnalysisReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, r)
	return nil
}
func (f *fakeResultStore) RecentAlerts(ctx context.Context, since time.Time, limit int) ([]models.AlertCondition, error) {
	return nil, nil
}
func (f *fakeResultStore) Close() error { return nil }

type fakeAlertLog struct {
	mu    sync.Mutex
	fired map[string]time.Time
}

func newFakeAlertLog() *fakeAlertLog {
	return &fakeAlertLog{fired: map[string]time.Time{}}
}
func (f *fakeAlertLog) RecentlyFired(ctx context.Context) (map[string]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Time, len(f.fired))
	for k, v := range f.fired {
		out[k] = v
	}
	return out, nil
}
func (f *fakeAlertLog) MarkFired(ctx context.Context, key string, at time.Time, cooldown time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired[key] = at
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches [][]models.AlertCondition
	err     error
}

func (f *fakeNotifier) Notify(ctx context.Context, alerts []models.AlertCondition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, alerts)
	return nil
}
func (f *fakeNotifier) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordAnalysisRun(string)                {}
func (nopMetrics) RecordAlert(string)                      {}
func (nopMetrics) RecordInsights(int)                      {}
func (nopMetrics) RecordError(string)                      {}
func (nopMetrics) RecordLatency(string, time.Duration)     {}
func (nopMetrics) RecordLastPrice(float64)                 {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestAnalyze(t *testing.T, market *fakeMarketStore, news *fakeNewsStore, results *fakeResultStore, alertLog *fakeAlertLog, notifier *fakeNotifier) *AnalyzeUseCase {
	t.Helper()
	th := analytics.DefaultThresholds()
	uc, err := NewAnalyzeUseCase(AnalyzeDeps{
		Market:     market,
		News:       news,
		Results:    results,
		Alerts:     alertLog,
		Notify:     notifier,
		Metrics:    nopMetrics{},
		Log:        testLogger(t),
		Aggregator: analytics.NewSentimentAggregator(),
		Detector:   analytics.NewMovementDetector(th),
		Correlator: analytics.NewCorrelator(),
		Insights:   analytics.NewInsightGenerator(th),
		Evaluator:  analytics.NewAlertEvaluator(th),
		Symbol:     "BIF",
		Thresholds: th,
	})
	if err != nil {
		t.Fatalf("new analyze usecase: %v", err)
	}
	return uc
}

func TestAnalyzeRunFullPipeline(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	market := &fakeMarketStore{points: []models.PricePoint{
		{Timestamp: start.Add(time.Hour), Price: 100, Volume: 1000},
		{Timestamp: start.Add(2 * time.Hour), Price: 108, Volume: 4000},
	}}
	news := &fakeNewsStore{items: []models.NewsItem{
		{ID: "n1", Timestamp: start.Add(time.Hour), SentimentScore: 0.6, RelevanceScore: 1},
		{ID: "n2", Timestamp: start.Add(90 * time.Minute), SentimentScore: 0.7, RelevanceScore: 1},
		{ID: "n3", Timestamp: start.Add(2 * time.Hour), SentimentScore: 0.5, RelevanceScore: 1},
	}}
	results := &fakeResultStore{}
	alertLog := newFakeAlertLog()
	notifier := &fakeNotifier{}

	uc := newTestAnalyze(t, market, news, results, alertLog, notifier)
	report, err := uc.Run(context.Background(), start, end, "manual")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Sentiment.ArticleCount != 3 {
		t.Fatalf("articleCount = %d, want 3", report.Sentiment.ArticleCount)
	}
	if report.Correlation.Confidence == "" {
		t.Fatal("correlation result not populated on the report")
	}
	if len(report.Events) != 2 {
		t.Fatalf("got %d events, want price surge and volume surge", len(report.Events))
	}
	if len(report.Insights) == 0 {
		t.Fatal("expected at least the bullish insight")
	}
	if len(report.Alerts) == 0 {
		t.Fatal("expected price movement alert")
	}
	if len(results.reports) != 1 {
		t.Fatalf("report not persisted: %d", len(results.reports))
	}
	if len(notifier.batches) != 1 {
		t.Fatalf("alerts not delivered: %d batches", len(notifier.batches))
	}
	if len(alertLog.fired) != len(report.Alerts) {
		t.Fatalf("fired keys = %d, want %d", len(alertLog.fired), len(report.Alerts))
	}
	if report.Errors != nil {
		t.Fatalf("unexpected errors: %v", report.Errors)
	}
}

func TestAnalyzeRunDeduplicatesAcrossRuns(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	market := &fakeMarketStore{points: []models.PricePoint{
		{Timestamp: start.Add(time.Hour), Price: 100, Volume: 1000},
		{Timestamp: start.Add(2 * time.Hour), Price: 110, Volume: 1000},
	}}
	results := &fakeResultStore{}
	uc := newTestAnalyze(t, market, &fakeNewsStore{}, results, newFakeAlertLog(), &fakeNotifier{})

	first, err := uc.Run(context.Background(), start, end, "manual")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.Alerts) != 1 {
		t.Fatalf("first run alerts = %d, want 1", len(first.Alerts))
	}

	// same window again, immediately: the dedupe key is still hot
	second, err := uc.Run(context.Background(), start, end, "manual")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(second.Alerts) != 0 {
		t.Fatalf("second run alerts = %d, want 0 within cooldown", len(second.Alerts))
	}
}

func TestAnalyzeRunPartialFetchFailure(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	market := &fakeMarketStore{err: errors.New("clickhouse down")}
	news := &fakeNewsStore{items: []models.NewsItem{
		{ID: "n1", Timestamp: start.Add(time.Hour), SentimentScore: 0.8, RelevanceScore: 1},
		{ID: "n2", Timestamp: start.Add(2 * time.Hour), SentimentScore: 0.7, RelevanceScore: 1},
		{ID: "n3", Timestamp: start.Add(3 * time.Hour), SentimentScore: 0.9, RelevanceScore: 1},
	}}
	uc := newTestAnalyze(t, market, news, &fakeResultStore{}, newFakeAlertLog(), &fakeNotifier{})

	report, err := uc.Run(context.Background(), start, end, "scheduled")
	if err != nil {
		t.Fatalf("partial failure should not abort the run: %v", err)
	}
	if report.Errors["prices"] == "" {
		t.Fatal("price fetch failure should be reported")
	}
	// sentiment side still produced results
	if report.Sentiment.ArticleCount != 3 {
		t.Fatalf("articleCount = %d, want 3", report.Sentiment.ArticleCount)
	}
	if len(report.Events) != 0 {
		t.Fatalf("no prices should mean no events, got %d", len(report.Events))
	}
}

func TestAnalyzeRunRejectsBadWindow(t *testing.T) {
	uc := newTestAnalyze(t, &fakeMarketStore{}, &fakeNewsStore{}, &fakeResultStore{}, newFakeAlertLog(), &fakeNotifier{})
	now := time.Now()
	if _, err := uc.Run(context.Background(), now, now, "manual"); err == nil {
		t.Fatal("empty window should be rejected")
	}
}

func TestNewAnalyzeUseCaseValidatesThresholds(t *testing.T) {
	th := analytics.DefaultThresholds()
	th.PriceThresholdPct = -2
	_, err := NewAnalyzeUseCase(AnalyzeDeps{Symbol: "BIF", Thresholds: th})
	var ce *analytics.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *analytics.ConfigError", err)
	}
}
