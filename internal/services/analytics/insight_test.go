package analytics

import (
	"testing"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
)

func testGenerator() *InsightGenerator {
	return NewInsightGenerator(DefaultThresholds())
}

func bullishAggregate(mean float64, count int) models.SentimentAggregate {
	return models.SentimentAggregate{
		WindowStart:   testWindowStart,
		WindowEnd:     testWindowStart.Add(24 * time.Hour),
		MeanSentiment: mean,
		ArticleCount:  count,
		HasData:       true,
	}
}

func TestGenerateBullishInsight(t *testing.T) {
	insights := testGenerator().Generate(bullishAggregate(0.6, 3), nil, models.CorrelationResult{Confidence: models.ConfidenceLow})
	if len(insights) != 1 {
		t.Fatalf("got %d insights, want 1", len(insights))
	}
	if insights[0].Category != models.InsightBullish {
		t.Fatalf("category = %s, want %s", insights[0].Category, models.InsightBullish)
	}
	if insights[0].Confidence < 0 || insights[0].Confidence > 1 {
		t.Fatalf("confidence %v outside [0, 1]", insights[0].Confidence)
	}
	if insights[0].Evidence.Aggregate == nil {
		t.Fatal("bullish insight must reference the aggregate")
	}
}

func TestGenerateBearishInsight(t *testing.T) {
	insights := testGenerator().Generate(bullishAggregate(-0.45, 5), nil, models.CorrelationResult{Confidence: models.ConfidenceLow})
	if len(insights) != 1 || insights[0].Category != models.InsightBearish {
		t.Fatalf("want one bearish insight, got %+v", insights)
	}
}

func TestGenerateNoSentimentInsightBelowCut(t *testing.T) {
	tests := []struct {
		name string
		agg  models.SentimentAggregate
	}{
		{"mild sentiment", bullishAggregate(0.2, 10)},
		{"too few articles", bullishAggregate(0.9, 2)},
		{"no data", models.SentimentAggregate{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights := testGenerator().Generate(tt.agg, nil, models.CorrelationResult{Confidence: models.ConfidenceLow})
			if len(insights) != 0 {
				t.Fatalf("expected no insights, got %+v", insights)
			}
		})
	}
}

func TestGenerateMovementInsight(t *testing.T) {
	events := []models.MovementEvent{
		{Timestamp: testWindowStart.Add(time.Hour), Kind: models.MovementPriceDrop, Magnitude: -7.5,
			WindowStart: testWindowStart, WindowEnd: testWindowStart.Add(time.Hour)},
		{Timestamp: testWindowStart.Add(2 * time.Hour), Kind: models.MovementVolumeSurge, Magnitude: 300},
	}

	insights := testGenerator().Generate(models.SentimentAggregate{}, events, models.CorrelationResult{Confidence: models.ConfidenceLow})
	if len(insights) != 1 {
		t.Fatalf("got %d insights, want 1", len(insights))
	}
	if insights[0].Category != models.InsightPattern {
		t.Fatalf("category = %s, want %s", insights[0].Category, models.InsightPattern)
	}
	if len(insights[0].Evidence.Events) != 1 || insights[0].Evidence.Events[0].Kind != models.MovementPriceDrop {
		t.Fatalf("evidence should reference the price drop: %+v", insights[0].Evidence)
	}
}

func TestGenerateCorrelationInsight(t *testing.T) {
	corr := models.CorrelationResult{
		Coefficient: -0.72,
		Confidence:  models.ConfidenceHigh,
		SampleSize:  12,
	}

	insights := testGenerator().Generate(models.SentimentAggregate{}, nil, corr)
	if len(insights) != 1 {
		t.Fatalf("got %d insights, want 1", len(insights))
	}
	if insights[0].Evidence.Correlation == nil {
		t.Fatal("correlation insight must reference the result")
	}
	if insights[0].Confidence != 0.72 {
		t.Fatalf("confidence = %v, want |coefficient|", insights[0].Confidence)
	}
}

func TestGenerateOrderedByConfidence(t *testing.T) {
	agg := bullishAggregate(0.5, 4)
	events := []models.MovementEvent{
		{Timestamp: testWindowStart.Add(time.Hour), Kind: models.MovementPriceSurge, Magnitude: 12,
			WindowStart: testWindowStart, WindowEnd: testWindowStart.Add(time.Hour)},
	}
	corr := models.CorrelationResult{Coefficient: 0.65, Confidence: models.ConfidenceHigh, SampleSize: 10}

	insights := testGenerator().Generate(agg, events, corr)
	if len(insights) != 3 {
		t.Fatalf("got %d insights, want 3", len(insights))
	}
	for i := 1; i < len(insights); i++ {
		if insights[i].Confidence > insights[i-1].Confidence {
			t.Fatalf("insights not sorted by confidence: %v before %v",
				insights[i-1].Confidence, insights[i].Confidence)
		}
	}
	// 12% move over a 5% threshold clamps to confidence 1.0 and ranks first
	if insights[0].Category != models.InsightPattern || insights[0].Evidence.Events == nil {
		t.Fatalf("strongest insight should be the movement pattern, got %+v", insights[0])
	}
}

func TestGenerateTieBreakKeepsRuleOrder(t *testing.T) {
	// sentiment and correlation rules both land on confidence 0.65
	agg := bullishAggregate(0.65, 3)
	corr := models.CorrelationResult{Coefficient: 0.65, Confidence: models.ConfidenceHigh, SampleSize: 10}

	insights := testGenerator().Generate(agg, nil, corr)
	if len(insights) != 2 {
		t.Fatalf("got %d insights, want 2", len(insights))
	}
	if insights[0].Category != models.InsightBullish {
		t.Fatalf("sentiment rule should win the tie, got %s first", insights[0].Category)
	}
}
