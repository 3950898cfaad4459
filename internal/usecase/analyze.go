package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domrepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	domsvc "github.com/Kagemann/brondby-stock-tracker/internal/domain/service"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/analytics"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/features"
	"github.com/Kagemann/brondby-stock-tracker/pkg/logger"
)

// AnalyzeUseCase runs one full analysis pass: fetch snapshots, run the five
// engine components, persist the report and deliver fired alerts. The engine
// itself stays pure; every side effect lives here.
type AnalyzeUseCase struct {
	market  domrepo.MarketStore
	news    domrepo.NewsStore
	results domrepo.ResultStore
	alerts  domrepo.AlertLog
	notify  domrepo.Notifier
	metrics domrepo.Metrics
	log     *logger.Logger

	aggregator domsvc.SentimentAggregator
	detector   domsvc.MovementDetector
	correlator domsvc.Correlator
	insights   domsvc.InsightGenerator
	evaluator  domsvc.AlertEvaluator

	symbol     string
	thresholds analytics.Thresholds
	timeout    time.Duration
}

type AnalyzeDeps struct {
	Market  domrepo.MarketStore
	News    domrepo.NewsStore
	Results domrepo.ResultStore
	Alerts  domrepo.AlertLog
	Notify  domrepo.Notifier
	Metrics domrepo.Metrics
	Log     *logger.Logger

	Aggregator domsvc.SentimentAggregator
	Detector   domsvc.MovementDetector
	Correlator domsvc.Correlator
	Insights   domsvc.InsightGenerator
	Evaluator  domsvc.AlertEvaluator

	Symbol     string
	Thresholds analytics.Thresholds
}

func NewAnalyzeUseCase(d AnalyzeDeps) (*AnalyzeUseCase, error) {
	if err := d.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if d.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	return &AnalyzeUseCase{
		market:     d.Market,
		news:       d.News,
		results:    d.Results,
		alerts:     d.Alerts,
		notify:     d.Notify,
		metrics:    d.Metrics,
		log:        d.Log,
		aggregator: d.Aggregator,
		detector:   d.Detector,
		correlator: d.Correlator,
		insights:   d.Insights,
		evaluator:  d.Evaluator,
		symbol:     d.Symbol,
		thresholds: d.Thresholds,
		timeout:    30 * time.Second,
	}, nil
}

// Run executes one analysis over [windowStart, windowEnd). Trigger is
// recorded in metrics as "scheduled" or "manual". Partial fetch failures are
// reported in the result's Errors map; the run proceeds with what it has.
func (uc *AnalyzeUseCase) Run(ctx context.Context, windowStart, windowEnd time.Time, trigger string) (*models.AnalysisReport, error) {
	if !windowEnd.After(windowStart) {
		return nil, fmt.Errorf("window end must be after start")
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	started := time.Now()
	uc.metrics.RecordAnalysisRun(trigger)

	report := &models.AnalysisReport{
		ID:          uuid.NewString(),
		Symbol:      uc.symbol,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		GeneratedAt: started,
		Errors:      map[string]string{},
	}

	prices, items := uc.fetchSnapshots(ctx, report, windowStart, windowEnd)

	agg, err := uc.aggregator.Aggregate(items, windowStart, windowEnd)
	if err != nil && !errors.Is(err, analytics.ErrInsufficientData) {
		uc.metrics.RecordError("aggregate")
		return nil, fmt.Errorf("aggregate sentiment: %w", err)
	}
	report.Sentiment = agg

	events, skipped := uc.detector.Detect(prices, windowStart, windowEnd)
	report.Events = events
	report.SkippedSamples = skipped
	if skipped > 0 {
		uc.log.Warn("skipped invalid price samples", logger.Int("count", skipped))
	}
	if len(prices) > 0 {
		uc.metrics.RecordLastPrice(prices[len(prices)-1].Price)
	}

	report.Correlation = uc.correlator.Correlate(
		uc.bucketAggregates(items, windowStart, windowEnd), events, windowStart, windowEnd)

	report.Insights = uc.insights.Generate(agg, events, report.Correlation)
	uc.metrics.RecordInsights(len(report.Insights))

	report.Alerts = uc.evaluateAlerts(ctx, report, agg, events)

	if err := uc.results.SaveReport(ctx, report); err != nil {
		// the analysis itself succeeded, surface the persistence failure
		uc.metrics.RecordError("save_report")
		report.Errors["persist"] = err.Error()
		uc.log.Error("save analysis report failed", logger.Error(err))
	}
	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	uc.metrics.RecordLatency("analysis_run", time.Since(started))
	uc.log.Info("analysis completed",
		logger.String("run_id", report.ID),
		logger.Int("events", len(report.Events)),
		logger.Int("insights", len(report.Insights)),
		logger.Int("alerts", len(report.Alerts)),
		logger.Duration("took", time.Since(started)))
	return report, nil
}

// fetchSnapshots loads prices and news concurrently. A failed fetch logs,
// lands in the report's Errors map and yields an empty snapshot.
func (uc *AnalyzeUseCase) fetchSnapshots(ctx context.Context, report *models.AnalysisReport, from, to time.Time) ([]models.PricePoint, []models.NewsItem) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		prices []models.PricePoint
		items  []models.NewsItem
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		ps, err := uc.market.GetRange(ctx, uc.symbol, from, to)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			uc.metrics.RecordError("fetch_prices")
			report.Errors["prices"] = err.Error()
			return
		}
		prices = ps
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ns, err := uc.news.GetRange(ctx, from, to)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			uc.metrics.RecordError("fetch_news")
			report.Errors["news"] = err.Error()
			return
		}
		items = ns
	}()

	wg.Wait()
	return prices, items
}

// bucketAggregates computes the per-sub-window sentiment series feeding the
// correlator. Empty buckets are kept in place so bucket order still maps to
// the window partition; they simply carry no data.
func (uc *AnalyzeUseCase) bucketAggregates(items []models.NewsItem, windowStart, windowEnd time.Time) []models.SentimentAggregate {
	buckets := features.PartitionWindow(windowStart, windowEnd, uc.thresholds.CorrelationBuckets)
	aggs := make([]models.SentimentAggregate, 0, len(buckets))
	for _, b := range buckets {
		agg, err := uc.aggregator.Aggregate(items, b.Start, b.End)
		if err != nil && !errors.Is(err, analytics.ErrInsufficientData) {
			uc.log.Warn("bucket aggregate failed", logger.Error(err))
		}
		aggs = append(aggs, agg)
	}
	return aggs
}

func (uc *AnalyzeUseCase) evaluateAlerts(ctx context.Context, report *models.AnalysisReport, agg models.SentimentAggregate, events []models.MovementEvent) []models.AlertCondition {
	fired, err := uc.alerts.RecentlyFired(ctx)
	if err != nil {
		// fall back to no suppression rather than dropping alerts
		uc.metrics.RecordError("alert_log")
		report.Errors["alert_log"] = err.Error()
		fired = nil
	}

	alerts := uc.evaluator.Evaluate(agg, events, report.Correlation, fired, report.GeneratedAt)
	for _, a := range alerts {
		uc.metrics.RecordAlert(string(a.Type))
		if err := uc.alerts.MarkFired(ctx, a.DedupeKey, a.FiredAt, uc.thresholds.AlertCooldown); err != nil {
			uc.log.Error("mark alert fired failed",
				logger.String("key", a.DedupeKey), logger.Error(err))
		}
	}

	if len(alerts) > 0 {
		if err := uc.notify.Notify(ctx, alerts); err != nil {
			uc.metrics.RecordError("notify")
			report.Errors["notify"] = err.Error()
		}
	}
	return alerts
}
