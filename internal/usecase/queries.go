package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domrepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	domsvc "github.com/Kagemann/brondby-stock-tracker/internal/domain/service"
	"github.com/Kagemann/brondby-stock-tracker/internal/service/cache"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/analytics"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/features"
)

// Read-only query projections are cheap to recompute but hit on every
// dashboard poll, so responses are cached briefly.
const queryCacheTTL = 30 * time.Second

// QueriesUseCase serves on-demand read projections of the engine outputs.
type QueriesUseCase struct {
	market  domrepo.MarketStore
	news    domrepo.NewsStore
	results domrepo.ResultStore

	aggregator domsvc.SentimentAggregator
	detector   domsvc.MovementDetector
	correlator domsvc.Correlator
	insights   domsvc.InsightGenerator

	cache      cache.BytesCache
	symbol     string
	thresholds analytics.Thresholds
}

func NewQueriesUseCase(
	market domrepo.MarketStore,
	news domrepo.NewsStore,
	results domrepo.ResultStore,
	aggregator domsvc.SentimentAggregator,
	detector domsvc.MovementDetector,
	correlator domsvc.Correlator,
	insights domsvc.InsightGenerator,
	c cache.BytesCache,
	symbol string,
	thresholds analytics.Thresholds,
) *QueriesUseCase {
	return &QueriesUseCase{
		market:     market,
		news:       news,
		results:    results,
		aggregator: aggregator,
		detector:   detector,
		correlator: correlator,
		insights:   insights,
		cache:      c,
		symbol:     symbol,
		thresholds: thresholds,
	}
}

func (uc *QueriesUseCase) window(hours int) (time.Time, time.Time) {
	end := time.Now().UTC()
	return end.Add(-time.Duration(hours) * time.Hour), end
}

// GetSentiment aggregates news sentiment over the trailing window. An empty
// window is a valid result with HasData false, not an error.
func (uc *QueriesUseCase) GetSentiment(ctx context.Context, hours int) (models.SentimentAggregate, error) {
	var out models.SentimentAggregate
	key := fmt.Sprintf("q:sentiment:%d", hours)
	if uc.fromCache(key, &out) {
		return out, nil
	}

	from, to := uc.window(hours)
	items, err := uc.news.GetRange(ctx, from, to)
	if err != nil {
		return out, fmt.Errorf("get news: %w", err)
	}
	out, err = uc.aggregator.Aggregate(items, from, to)
	if err != nil && !errors.Is(err, analytics.ErrInsufficientData) {
		return out, err
	}
	uc.toCache(key, out)
	return out, nil
}

// GetCorrelation computes the sentiment/price correlation over the trailing
// window from fresh snapshots.
func (uc *QueriesUseCase) GetCorrelation(ctx context.Context, hours int) (models.CorrelationResult, error) {
	var out models.CorrelationResult
	key := fmt.Sprintf("q:correlation:%d", hours)
	if uc.fromCache(key, &out) {
		return out, nil
	}

	from, to := uc.window(hours)
	prices, items, err := uc.snapshots(ctx, from, to)
	if err != nil {
		return out, err
	}

	events, _ := uc.detector.Detect(prices, from, to)
	out = uc.correlator.Correlate(uc.bucketize(items, from, to), events, from, to)
	uc.toCache(key, out)
	return out, nil
}

// GetInsights runs the full pure pipeline over the trailing window and
// returns the ranked statements without persisting anything.
func (uc *QueriesUseCase) GetInsights(ctx context.Context, hours int) ([]models.Insight, error) {
	var out []models.Insight
	key := fmt.Sprintf("q:insights:%d", hours)
	if uc.fromCache(key, &out) {
		return out, nil
	}

	from, to := uc.window(hours)
	prices, items, err := uc.snapshots(ctx, from, to)
	if err != nil {
		return nil, err
	}

	agg, err := uc.aggregator.Aggregate(items, from, to)
	if err != nil && !errors.Is(err, analytics.ErrInsufficientData) {
		return nil, err
	}
	events, _ := uc.detector.Detect(prices, from, to)
	corr := uc.correlator.Correlate(uc.bucketize(items, from, to), events, from, to)

	out = uc.insights.Generate(agg, events, corr)
	uc.toCache(key, out)
	return out, nil
}

// GetAlerts returns alerts fired within the trailing window, newest first.
func (uc *QueriesUseCase) GetAlerts(ctx context.Context, hours, limit int) ([]models.AlertCondition, error) {
	if limit <= 0 {
		limit = 50
	}
	from, _ := uc.window(hours)
	return uc.results.RecentAlerts(ctx, from, limit)
}

// GetPrices returns the price series for the trailing window, capped to the
// most recent limit points.
func (uc *QueriesUseCase) GetPrices(ctx context.Context, hours, limit int) ([]models.PricePoint, error) {
	from, to := uc.window(hours)
	return uc.GetPricesRange(ctx, from, to, limit)
}

// GetPricesRange is GetPrices with an explicit time range.
func (uc *QueriesUseCase) GetPricesRange(ctx context.Context, from, to time.Time, limit int) ([]models.PricePoint, error) {
	if limit <= 0 {
		limit = 2000
	}
	points, err := uc.market.GetRange(ctx, uc.symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

func (uc *QueriesUseCase) snapshots(ctx context.Context, from, to time.Time) ([]models.PricePoint, []models.NewsItem, error) {
	prices, err := uc.market.GetRange(ctx, uc.symbol, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("get prices: %w", err)
	}
	items, err := uc.news.GetRange(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("get news: %w", err)
	}
	return prices, items, nil
}

func (uc *QueriesUseCase) bucketize(items []models.NewsItem, from, to time.Time) []models.SentimentAggregate {
	buckets := features.PartitionWindow(from, to, uc.thresholds.CorrelationBuckets)
	aggs := make([]models.SentimentAggregate, 0, len(buckets))
	for _, b := range buckets {
		agg, _ := uc.aggregator.Aggregate(items, b.Start, b.End)
		aggs = append(aggs, agg)
	}
	return aggs
}

func (uc *QueriesUseCase) fromCache(key string, dest interface{}) bool {
	if uc.cache == nil {
		return false
	}
	b, ok, err := uc.cache.GetBytes(key)
	if err != nil || !ok {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}

func (uc *QueriesUseCase) toCache(key string, v interface{}) {
	if uc.cache == nil {
		return
	}
	if b, err := json.Marshal(v); err == nil {
		_ = uc.cache.SetBytes(key, b, queryCacheTTL)
	}
}
