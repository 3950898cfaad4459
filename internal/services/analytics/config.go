package analytics

import "time"

// Thresholds is the tuning surface of the engine. Values are validated once
// before an analysis run; components assume a validated set.
type Thresholds struct {
	// PriceThresholdPct is the minimum absolute percent change between two
	// adjacent points for a PRICE_SURGE or PRICE_DROP event.
	PriceThresholdPct float64
	// VolumeThresholdPct is the minimum percent volume increase for a
	// VOLUME_SURGE event.
	VolumeThresholdPct float64
	// SentimentExtreme is the absolute mean sentiment above which the
	// sentiment-extreme alert fires.
	SentimentExtreme float64
	// CorrelationSignificance is the absolute coefficient above which the
	// correlation-pattern alert fires.
	CorrelationSignificance float64
	// MinArticles is the minimum article count for sentiment insights and
	// the sentiment-extreme alert.
	MinArticles int
	// AlertCooldown suppresses repeat firings of the same dedupe key.
	AlertCooldown time.Duration
	// CorrelationBuckets is the number of equal-width sub-windows the
	// analysis window is partitioned into for the correlation series.
	CorrelationBuckets int
}

// DefaultThresholds returns the stock tuning used when config omits the
// analysis section.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PriceThresholdPct:       5.0,
		VolumeThresholdPct:      100.0,
		SentimentExtreme:        0.5,
		CorrelationSignificance: 0.6,
		MinArticles:             3,
		AlertCooldown:           time.Hour,
		CorrelationBuckets:      12,
	}
}

// Validate rejects threshold values outside their valid ranges.
func (t Thresholds) Validate() error {
	if t.PriceThresholdPct <= 0 {
		return &ConfigError{Field: "price_threshold_pct", Reason: "must be positive"}
	}
	if t.VolumeThresholdPct <= 0 {
		return &ConfigError{Field: "volume_threshold_pct", Reason: "must be positive"}
	}
	if t.SentimentExtreme <= 0 || t.SentimentExtreme > 1 {
		return &ConfigError{Field: "sentiment_extreme", Reason: "must be in (0, 1]"}
	}
	if t.CorrelationSignificance <= 0 || t.CorrelationSignificance > 1 {
		return &ConfigError{Field: "correlation_significance", Reason: "must be in (0, 1]"}
	}
	if t.MinArticles < 1 {
		return &ConfigError{Field: "min_articles", Reason: "must be at least 1"}
	}
	if t.AlertCooldown <= 0 {
		return &ConfigError{Field: "alert_cooldown", Reason: "must be positive"}
	}
	if t.CorrelationBuckets < 3 {
		return &ConfigError{Field: "correlation_buckets", Reason: "must be at least 3"}
	}
	return nil
}
