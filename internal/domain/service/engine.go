package service

import (
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
)

// SentimentAggregator reduces scored news inside [windowStart, windowEnd)
// into one aggregate. An empty window yields ErrInsufficientData together
// with a zero-signal aggregate; callers display it as "no signal".
type SentimentAggregator interface {
	Aggregate(items []models.NewsItem, windowStart, windowEnd time.Time) (models.SentimentAggregate, error)
}

// MovementDetector scans an ordered price series pairwise and emits
// threshold-crossing events. The second return value counts pairs skipped
// for invalid input (non-positive baselines); one bad sample never aborts
// the scan.
type MovementDetector interface {
	Detect(series []models.PricePoint, windowStart, windowEnd time.Time) ([]models.MovementEvent, int)
}

// Correlator aligns per-bucket sentiment aggregates with movement events and
// computes a Pearson coefficient plus a confidence label. It never fails:
// an undefined correlation is reported as coefficient 0 with low confidence.
type Correlator interface {
	Correlate(aggregates []models.SentimentAggregate, events []models.MovementEvent, windowStart, windowEnd time.Time) models.CorrelationResult
}

// InsightGenerator composes detector, aggregator and correlator outputs into
// ranked human-readable insights, ordered by confidence descending.
type InsightGenerator interface {
	Generate(aggregate models.SentimentAggregate, events []models.MovementEvent, correlation models.CorrelationResult) []models.Insight
}

// AlertEvaluator applies the configured thresholds and deduplicates against
// recently fired keys. Recording emitted keys is the caller's job.
type AlertEvaluator interface {
	Evaluate(aggregate models.SentimentAggregate, events []models.MovementEvent, correlation models.CorrelationResult, previouslyFired map[string]time.Time, now time.Time) []models.AlertCondition
}
