package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
)

var testWindowStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newsItem(offset time.Duration, sentiment, relevance float64) models.NewsItem {
	return models.NewsItem{
		Timestamp:      testWindowStart.Add(offset),
		SentimentScore: sentiment,
		RelevanceScore: relevance,
	}
}

func TestAggregateMeanAndCounts(t *testing.T) {
	end := testWindowStart.Add(24 * time.Hour)
	items := []models.NewsItem{
		newsItem(time.Hour, 0.6, 1.0),
		newsItem(2*time.Hour, 0.7, 1.0),
		newsItem(3*time.Hour, 0.5, 1.0),
	}

	agg, err := NewSentimentAggregator().Aggregate(items, testWindowStart, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.ArticleCount != 3 {
		t.Fatalf("articleCount = %d, want 3", agg.ArticleCount)
	}
	if math.Abs(agg.MeanSentiment-0.6) > 1e-9 {
		t.Fatalf("meanSentiment = %v, want 0.6", agg.MeanSentiment)
	}
	if agg.PositiveCount != 3 || agg.NegativeCount != 0 || agg.NeutralCount != 0 {
		t.Fatalf("distribution = %d/%d/%d, want 3/0/0",
			agg.PositiveCount, agg.NegativeCount, agg.NeutralCount)
	}
	if !agg.HasData {
		t.Fatal("HasData should be true")
	}
}

func TestAggregateSingleItemMeanIsExact(t *testing.T) {
	end := testWindowStart.Add(time.Hour)
	items := []models.NewsItem{newsItem(time.Minute, -0.37, 0.8)}

	agg, err := NewSentimentAggregator().Aggregate(items, testWindowStart, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.MeanSentiment != -0.37 {
		t.Fatalf("single-item mean = %v, want exactly -0.37", agg.MeanSentiment)
	}
}

func TestAggregateEmptyWindow(t *testing.T) {
	end := testWindowStart.Add(time.Hour)
	items := []models.NewsItem{
		newsItem(-time.Hour, 0.9, 1.0), // before window
		newsItem(2*time.Hour, 0.9, 1.0), // after window
	}

	agg, err := NewSentimentAggregator().Aggregate(items, testWindowStart, end)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
	if agg.ArticleCount != 0 || agg.HasData {
		t.Fatalf("empty window produced data: %+v", agg)
	}
}

func TestAggregateWindowBoundsHalfOpen(t *testing.T) {
	end := testWindowStart.Add(time.Hour)
	items := []models.NewsItem{
		newsItem(0, 0.5, 1.0),        // at start, included
		newsItem(time.Hour, 0.5, 1.0), // at end, excluded
	}

	agg, err := NewSentimentAggregator().Aggregate(items, testWindowStart, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.ArticleCount != 1 {
		t.Fatalf("articleCount = %d, want 1", agg.ArticleCount)
	}
}

func TestAggregateRelevanceWeighting(t *testing.T) {
	end := testWindowStart.Add(time.Hour)
	items := []models.NewsItem{
		newsItem(time.Minute, 1.0, 1.0),
		newsItem(2*time.Minute, -1.0, 0.0),
	}

	agg, err := NewSentimentAggregator().Aggregate(items, testWindowStart, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(agg.MeanSentiment) > 1e-9 {
		t.Fatalf("meanSentiment = %v, want 0", agg.MeanSentiment)
	}
	if math.Abs(agg.WeightedSentiment-1.0) > 1e-9 {
		t.Fatalf("weightedSentiment = %v, want 1.0", agg.WeightedSentiment)
	}
}

func TestAggregateZeroRelevanceFallsBackToMean(t *testing.T) {
	end := testWindowStart.Add(time.Hour)
	items := []models.NewsItem{
		newsItem(time.Minute, 0.4, 0),
		newsItem(2*time.Minute, 0.8, 0),
	}

	agg, err := NewSentimentAggregator().Aggregate(items, testWindowStart, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(agg.WeightedSentiment-agg.MeanSentiment) > 1e-9 {
		t.Fatalf("weighted %v should fall back to mean %v",
			agg.WeightedSentiment, agg.MeanSentiment)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	end := testWindowStart.Add(24 * time.Hour)
	items := []models.NewsItem{
		newsItem(time.Hour, 0.31, 0.9),
		newsItem(5*time.Hour, -0.12, 0.4),
		newsItem(9*time.Hour, 0.77, 1.0),
	}

	a := NewSentimentAggregator()
	first, err1 := a.Aggregate(items, testWindowStart, end)
	second, err2 := a.Aggregate(items, testWindowStart, end)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if first != second {
		t.Fatalf("aggregation not deterministic: %+v vs %+v", first, second)
	}
}
