package models

import "time"

// MovementKind classifies a detected price/volume movement.
type MovementKind string

const (
	MovementPriceSurge  MovementKind = "price_surge"
	MovementPriceDrop   MovementKind = "price_drop"
	MovementVolumeSurge MovementKind = "volume_surge"
)

// ConfidenceLabel is a categorical summary of statistical reliability.
type ConfidenceLabel string

const (
	ConfidenceLow      ConfidenceLabel = "low"
	ConfidenceModerate ConfidenceLabel = "moderate"
	ConfidenceHigh     ConfidenceLabel = "high"
)

// InsightCategory classifies a generated insight.
type InsightCategory string

const (
	InsightBullish InsightCategory = "bullish"
	InsightBearish InsightCategory = "bearish"
	InsightNeutral InsightCategory = "neutral"
	InsightPattern InsightCategory = "pattern"
)

// AlertType classifies a fired alert condition.
type AlertType string

const (
	AlertPriceMovement      AlertType = "price_movement"
	AlertVolumeSurge        AlertType = "volume_surge"
	AlertSentimentExtreme   AlertType = "sentiment_extreme"
	AlertCorrelationPattern AlertType = "correlation_pattern"
)

// MovementEvent is a threshold crossing between two adjacent price points.
// Magnitude is the signed percent change (price kinds) or percent volume
// increase (volume kind). Events are derived and regenerated per run.
type MovementEvent struct {
	Timestamp   time.Time
	Kind        MovementKind
	Magnitude   float64
	WindowStart time.Time
	WindowEnd   time.Time
}

// SentimentAggregate summarizes scored news within [WindowStart, WindowEnd).
// HasData is false when the window held no articles; MeanSentiment and
// WeightedSentiment are then meaningless and callers must treat the window
// as "no signal", not zero.
type SentimentAggregate struct {
	WindowStart       time.Time
	WindowEnd         time.Time
	MeanSentiment     float64
	WeightedSentiment float64 // relevance-weighted
	ArticleCount      int
	PositiveCount     int
	NegativeCount     int
	NeutralCount      int
	HasData           bool
}

// CorrelationResult is the Pearson correlation between aligned sentiment and
// movement series. Confidence is derived only from |Coefficient| and
// SampleSize; external code never infers it.
type CorrelationResult struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Coefficient float64 // [-1, 1]
	Confidence  ConfidenceLabel
	SampleSize  int
}

// Evidence points an insight back at the signals that produced it.
type Evidence struct {
	Aggregate   *SentimentAggregate `json:"aggregate,omitempty"`
	Events      []MovementEvent     `json:"events,omitempty"`
	Correlation *CorrelationResult  `json:"correlation,omitempty"`
}

// Insight is one human-readable statement ranked by confidence in [0, 1].
type Insight struct {
	Statement  string
	Category   InsightCategory
	Confidence float64
	Evidence   Evidence
}

// AlertCondition is one crossed threshold. No two conditions with the same
// DedupeKey fire within the configured cooldown window; callers record
// fired keys and pass them back on the next evaluation.
type AlertCondition struct {
	ID              string
	Type            AlertType
	TriggeringValue float64
	Threshold       float64
	Severity        string // warning, or critical at twice the threshold
	Message         string
	FiredAt         time.Time
	DedupeKey       string
}

// AnalysisReport is the consolidated output of one analysis run.
// Per-stage soft failures are reported in Errors instead of aborting the run.
type AnalysisReport struct {
	ID             string
	Symbol         string
	WindowStart    time.Time
	WindowEnd      time.Time
	GeneratedAt    time.Time
	Sentiment      SentimentAggregate
	Events         []MovementEvent
	Correlation    CorrelationResult
	Insights       []Insight
	Alerts         []AlertCondition
	SkippedSamples int
	Errors         map[string]string
}
