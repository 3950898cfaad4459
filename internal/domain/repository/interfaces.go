package repository

import (
	"context"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
)

// MarketStore supplies and records price observations for the tracked symbol.
type MarketStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StorePoint(ctx context.Context, symbol string, p models.PricePoint) error
	StoreBatch(ctx context.Context, symbol string, points []models.PricePoint) error
	GetRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error)
	Health(ctx context.Context) error
	Close() error
}

// NewsStore supplies and records scored news items.
type NewsStore interface {
	StoreItem(ctx context.Context, item models.NewsItem) error
	StoreBatch(ctx context.Context, items []models.NewsItem) error
	GetRange(ctx context.Context, from, to time.Time) ([]models.NewsItem, error)
	Close() error
}

// ResultStore persists analysis outputs keyed by run, and serves read-only
// projections of past runs.
type ResultStore interface {
	SaveReport(ctx context.Context, report *models.AnalysisReport) error
	RecentAlerts(ctx context.Context, since time.Time, limit int) ([]models.AlertCondition, error)
	Close() error
}

// QuoteSource fetches recent price observations from an external market
// data provider.
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string, lookback time.Duration) ([]models.PricePoint, error)
}

// AlertLog tracks recently fired alert dedupe keys. The snapshot returned by
// RecentlyFired is passed into the evaluator as an explicit input; the caller
// records keys of conditions it actually emitted.
type AlertLog interface {
	RecentlyFired(ctx context.Context) (map[string]time.Time, error)
	MarkFired(ctx context.Context, key string, at time.Time, cooldown time.Duration) error
}

// Notifier delivers fired alert conditions over an external channel.
// Delivery success is not reported back to the analysis pipeline.
type Notifier interface {
	Notify(ctx context.Context, alerts []models.AlertCondition) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordAnalysisRun(trigger string)
	RecordAlert(alertType string)
	RecordInsights(count int)
	RecordError(stage string)
	RecordLatency(stage string, d time.Duration)
	RecordLastPrice(price float64)
}
