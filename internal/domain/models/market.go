package models

import "time"

// PricePoint is a single observation of the tracked instrument.
// Series are ordered by strictly increasing Timestamp and immutable once recorded.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
	Volume    int64
}

// NewsItem is a scored article about the tracked entity. Sentiment and
// relevance are computed upstream by source adapters; the engine consumes
// them as plain numbers and never branches on the source.
type NewsItem struct {
	ID             string
	Timestamp      time.Time // publication time
	Title          string
	URL            string
	Source         string
	SentimentScore float64 // [-1, 1]
	RelevanceScore float64 // [0, 1]
}
