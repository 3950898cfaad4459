package analytics

import (
	"testing"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
)

func testEvaluator() *AlertEvaluator {
	return NewAlertEvaluator(DefaultThresholds())
}

func TestEvaluateQuietPeriod(t *testing.T) {
	alerts := testEvaluator().Evaluate(models.SentimentAggregate{}, nil, models.CorrelationResult{}, nil, testWindowStart)
	if len(alerts) != 0 {
		t.Fatalf("quiet period should yield no alerts, got %+v", alerts)
	}
}

func TestEvaluatePriceMovementAlert(t *testing.T) {
	events := []models.MovementEvent{
		{Timestamp: testWindowStart, Kind: models.MovementPriceDrop, Magnitude: -6.2},
	}

	alerts := testEvaluator().Evaluate(models.SentimentAggregate{}, events, models.CorrelationResult{}, nil, testWindowStart)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	a := alerts[0]
	if a.Type != models.AlertPriceMovement {
		t.Fatalf("type = %s, want %s", a.Type, models.AlertPriceMovement)
	}
	if a.TriggeringValue != -6.2 || a.Threshold != 5.0 {
		t.Fatalf("value/threshold = %v/%v, want -6.2/5.0", a.TriggeringValue, a.Threshold)
	}
	if a.ID == "" || a.DedupeKey == "" {
		t.Fatal("alert must carry an ID and a dedupe key")
	}
}

func TestEvaluateThresholdIsStrict(t *testing.T) {
	events := []models.MovementEvent{
		{Timestamp: testWindowStart, Kind: models.MovementPriceSurge, Magnitude: 5.0},
	}

	alerts := testEvaluator().Evaluate(models.SentimentAggregate{}, events, models.CorrelationResult{}, nil, testWindowStart)
	if len(alerts) != 0 {
		t.Fatalf("exactly-at-threshold should not fire, got %+v", alerts)
	}
}

func TestEvaluateSentimentExtreme(t *testing.T) {
	tests := []struct {
		name string
		agg  models.SentimentAggregate
		want int
	}{
		{"fires", models.SentimentAggregate{MeanSentiment: -0.62, ArticleCount: 4, HasData: true}, 1},
		{"too few articles", models.SentimentAggregate{MeanSentiment: -0.62, ArticleCount: 2, HasData: true}, 0},
		{"not extreme", models.SentimentAggregate{MeanSentiment: 0.4, ArticleCount: 6, HasData: true}, 0},
		{"no data", models.SentimentAggregate{MeanSentiment: 0.9, ArticleCount: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := testEvaluator().Evaluate(tt.agg, nil, models.CorrelationResult{}, nil, testWindowStart)
			if len(alerts) != tt.want {
				t.Fatalf("got %d alerts, want %d", len(alerts), tt.want)
			}
		})
	}
}

func TestEvaluateCorrelationAlert(t *testing.T) {
	corr := models.CorrelationResult{Coefficient: 0.81, Confidence: models.ConfidenceHigh, SampleSize: 12}

	alerts := testEvaluator().Evaluate(models.SentimentAggregate{}, nil, corr, nil, testWindowStart)
	if len(alerts) != 1 || alerts[0].Type != models.AlertCorrelationPattern {
		t.Fatalf("want one correlation alert, got %+v", alerts)
	}
}

func TestEvaluateDedupWithinCooldown(t *testing.T) {
	e := testEvaluator()
	events := []models.MovementEvent{
		{Timestamp: testWindowStart, Kind: models.MovementPriceSurge, Magnitude: 8},
	}

	first := e.Evaluate(models.SentimentAggregate{}, events, models.CorrelationResult{}, nil, testWindowStart)
	if len(first) != 1 {
		t.Fatalf("first run should fire, got %d", len(first))
	}

	fired := map[string]time.Time{first[0].DedupeKey: first[0].FiredAt}
	again := e.Evaluate(models.SentimentAggregate{}, events, models.CorrelationResult{}, fired, testWindowStart.Add(10*time.Minute))
	if len(again) != 0 {
		t.Fatalf("repeat firing within cooldown should be suppressed, got %+v", again)
	}

	later := e.Evaluate(models.SentimentAggregate{}, events, models.CorrelationResult{}, fired, testWindowStart.Add(2*time.Hour))
	if len(later) != 1 {
		t.Fatalf("alert should fire again after cooldown, got %d", len(later))
	}
}

func TestEvaluateSeverity(t *testing.T) {
	events := []models.MovementEvent{
		{Timestamp: testWindowStart, Kind: models.MovementPriceDrop, Magnitude: -11},
	}

	alerts := testEvaluator().Evaluate(models.SentimentAggregate{}, events, models.CorrelationResult{}, nil, testWindowStart)
	if len(alerts) != 1 || alerts[0].Severity != "critical" {
		t.Fatalf("double-threshold move should be critical, got %+v", alerts)
	}
}

func TestDedupeKeyStablePerBucket(t *testing.T) {
	cooldown := time.Hour
	a := DedupeKey(models.AlertPriceMovement, testWindowStart.Add(5*time.Minute), cooldown)
	b := DedupeKey(models.AlertPriceMovement, testWindowStart.Add(40*time.Minute), cooldown)
	c := DedupeKey(models.AlertPriceMovement, testWindowStart.Add(65*time.Minute), cooldown)

	if a != b {
		t.Fatalf("same bucket should share a key: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("next bucket should get a new key: %s", c)
	}
	if d := DedupeKey(models.AlertVolumeSurge, testWindowStart.Add(5*time.Minute), cooldown); d == a {
		t.Fatalf("different types must not share keys: %s", d)
	}
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Thresholds)
		field  string
	}{
		{"valid defaults", func(*Thresholds) {}, ""},
		{"negative price", func(t *Thresholds) { t.PriceThresholdPct = -1 }, "price_threshold_pct"},
		{"zero volume", func(t *Thresholds) { t.VolumeThresholdPct = 0 }, "volume_threshold_pct"},
		{"sentiment above one", func(t *Thresholds) { t.SentimentExtreme = 1.5 }, "sentiment_extreme"},
		{"zero cooldown", func(t *Thresholds) { t.AlertCooldown = 0 }, "alert_cooldown"},
		{"too few buckets", func(t *Thresholds) { t.CorrelationBuckets = 2 }, "correlation_buckets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			err := th.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ce, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("err = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Fatalf("field = %s, want %s", ce.Field, tt.field)
			}
		})
	}
}
