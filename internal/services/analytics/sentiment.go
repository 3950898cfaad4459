package analytics

import (
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domsvc "github.com/Kagemann/brondby-stock-tracker/internal/domain/service"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/features"
)

// Per-item polarity cut for the positive/negative/neutral distribution.
const polarityCut = 0.2

// SentimentAggregator reduces scored news inside a window to one aggregate.
type SentimentAggregator struct{}

func NewSentimentAggregator() *SentimentAggregator { return &SentimentAggregator{} }

// Aggregate filters items to [windowStart, windowEnd) and computes the mean,
// relevance-weighted mean and polarity counts. An empty window returns
// ErrInsufficientData with HasData false; the aggregate is still usable for
// display as "no signal".
func (a *SentimentAggregator) Aggregate(items []models.NewsItem, windowStart, windowEnd time.Time) (models.SentimentAggregate, error) {
	agg := models.SentimentAggregate{
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	in := features.FilterNews(items, windowStart, windowEnd)
	if len(in) == 0 {
		return agg, ErrInsufficientData
	}

	var sum, weightedSum, weightSum float64
	for _, it := range in {
		sum += it.SentimentScore
		weightedSum += it.SentimentScore * it.RelevanceScore
		weightSum += it.RelevanceScore
		switch {
		case it.SentimentScore > polarityCut:
			agg.PositiveCount++
		case it.SentimentScore < -polarityCut:
			agg.NegativeCount++
		default:
			agg.NeutralCount++
		}
	}

	agg.ArticleCount = len(in)
	agg.MeanSentiment = sum / float64(len(in))
	if weightSum > 0 {
		agg.WeightedSentiment = weightedSum / weightSum
	} else {
		// all items carry zero relevance, fall back to the plain mean
		agg.WeightedSentiment = agg.MeanSentiment
	}
	agg.HasData = true
	return agg, nil
}

var _ domsvc.SentimentAggregator = (*SentimentAggregator)(nil)
