package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domsvc "github.com/Kagemann/brondby-stock-tracker/internal/domain/service"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/features"
)

// Sentiment mean beyond which a directional insight fires.
const sentimentInsightCut = 0.3

// InsightGenerator composes component outputs into ranked statements.
type InsightGenerator struct {
	thresholds Thresholds
}

func NewInsightGenerator(t Thresholds) *InsightGenerator {
	return &InsightGenerator{thresholds: t}
}

// Generate evaluates each insight rule independently; every rule emits zero
// or one insight and all firings are kept. Output is stable-sorted by
// confidence descending, ties keep the fixed rule order: sentiment first,
// then movement, then correlation.
func (g *InsightGenerator) Generate(aggregate models.SentimentAggregate, events []models.MovementEvent, correlation models.CorrelationResult) []models.Insight {
	insights := make([]models.Insight, 0, 4)

	if aggregate.HasData && aggregate.ArticleCount >= g.thresholds.MinArticles {
		switch {
		case aggregate.MeanSentiment > sentimentInsightCut:
			insights = append(insights, models.Insight{
				Statement: fmt.Sprintf("News sentiment is bullish: mean score %.2f across %d articles",
					aggregate.MeanSentiment, aggregate.ArticleCount),
				Category:   models.InsightBullish,
				Confidence: features.Clamp(math.Abs(aggregate.MeanSentiment), 0, 1),
				Evidence:   models.Evidence{Aggregate: &aggregate},
			})
		case aggregate.MeanSentiment < -sentimentInsightCut:
			insights = append(insights, models.Insight{
				Statement: fmt.Sprintf("News sentiment is bearish: mean score %.2f across %d articles",
					aggregate.MeanSentiment, aggregate.ArticleCount),
				Category:   models.InsightBearish,
				Confidence: features.Clamp(math.Abs(aggregate.MeanSentiment), 0, 1),
				Evidence:   models.Evidence{Aggregate: &aggregate},
			})
		}
	}

	if ev, ok := strongestPriceMove(events, g.thresholds.PriceThresholdPct); ok {
		direction := "surged"
		if ev.Kind == models.MovementPriceDrop {
			direction = "dropped"
		}
		insights = append(insights, models.Insight{
			Statement: fmt.Sprintf("Price %s %.1f%% between %s and %s",
				direction, math.Abs(ev.Magnitude),
				ev.WindowStart.Format("15:04"), ev.WindowEnd.Format("15:04")),
			Category:   models.InsightPattern,
			Confidence: features.Clamp(math.Abs(ev.Magnitude)/g.thresholds.PriceThresholdPct, 0, 1),
			Evidence:   models.Evidence{Events: []models.MovementEvent{ev}},
		})
	}

	if correlation.Confidence == models.ConfidenceModerate || correlation.Confidence == models.ConfidenceHigh {
		direction := "positive"
		if correlation.Coefficient < 0 {
			direction = "negative"
		}
		insights = append(insights, models.Insight{
			Statement: fmt.Sprintf("Sentiment and price movement show a %s %s correlation (r=%.2f over %d samples)",
				string(correlation.Confidence), direction, correlation.Coefficient, correlation.SampleSize),
			Category:   models.InsightPattern,
			Confidence: features.Clamp(math.Abs(correlation.Coefficient), 0, 1),
			Evidence:   models.Evidence{Correlation: &correlation},
		})
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Confidence > insights[j].Confidence
	})
	return insights
}

// strongestPriceMove returns the largest significant price movement, if any.
// The original append order makes earlier events win exact magnitude ties.
func strongestPriceMove(events []models.MovementEvent, significance float64) (models.MovementEvent, bool) {
	var best models.MovementEvent
	found := false
	for _, ev := range events {
		if ev.Kind == models.MovementVolumeSurge {
			continue
		}
		if math.Abs(ev.Magnitude) < significance {
			continue
		}
		if !found || math.Abs(ev.Magnitude) > math.Abs(best.Magnitude) {
			best = ev
			found = true
		}
	}
	return best, found
}

var _ domsvc.InsightGenerator = (*InsightGenerator)(nil)
