package analytics

import (
	"math"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domsvc "github.com/Kagemann/brondby-stock-tracker/internal/domain/service"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/features"
)

const minCorrelationSamples = 3

// Correlator aligns per-bucket sentiment with a movement magnitude score and
// computes a Pearson coefficient over the buckets holding both signals.
//
// Magnitude-score policy: per bucket, the sum of signed magnitudes of
// PRICE_SURGE and PRICE_DROP events whose timestamp falls in the bucket.
// VOLUME_SURGE events are excluded; volume has no sign and would bias the
// score upward.
type Correlator struct{}

func NewCorrelator() *Correlator { return &Correlator{} }

// Correlate pairs aggregates with movement scores bucket by bucket. The
// aggregates must be in chronological bucket order for [windowStart,
// windowEnd); the partition width is derived from their count. A bucket
// enters the sample only when it has at least one article and at least one
// price movement event. Fewer than three samples yields coefficient 0 with
// low confidence rather than an error.
func (c *Correlator) Correlate(aggregates []models.SentimentAggregate, events []models.MovementEvent, windowStart, windowEnd time.Time) models.CorrelationResult {
	result := models.CorrelationResult{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Confidence:  models.ConfidenceLow,
	}

	buckets := features.PartitionWindow(windowStart, windowEnd, len(aggregates))
	if buckets == nil {
		return result
	}

	scores := make([]float64, len(buckets))
	hasMovement := make([]bool, len(buckets))
	for _, ev := range events {
		if ev.Kind == models.MovementVolumeSurge {
			continue
		}
		idx := features.BucketIndex(buckets, ev.Timestamp)
		if idx < 0 {
			continue
		}
		scores[idx] += ev.Magnitude
		hasMovement[idx] = true
	}

	var xs, ys []float64
	for i, agg := range aggregates {
		if !agg.HasData || agg.ArticleCount == 0 || !hasMovement[i] {
			continue
		}
		xs = append(xs, agg.MeanSentiment)
		ys = append(ys, scores[i])
	}

	result.SampleSize = len(xs)
	if result.SampleSize < minCorrelationSamples {
		return result
	}

	result.Coefficient = features.Pearson(xs, ys)
	result.Confidence = confidenceFor(result.Coefficient, result.SampleSize)
	return result
}

// confidenceFor maps (|coefficient|, sampleSize) to a label. Ties resolve
// toward the lower label.
func confidenceFor(coefficient float64, sampleSize int) models.ConfidenceLabel {
	abs := math.Abs(coefficient)
	switch {
	case abs >= 0.6 && sampleSize >= 10:
		return models.ConfidenceHigh
	case abs >= 0.3 && sampleSize >= 5:
		return models.ConfidenceModerate
	default:
		return models.ConfidenceLow
	}
}

var _ domsvc.Correlator = (*Correlator)(nil)
