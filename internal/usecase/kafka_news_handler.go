package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domrepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	pkgkafka "github.com/Kagemann/brondby-stock-tracker/pkg/kafka"
)

// KafkaNewsHandler consumes scored news items from Kafka and writes them to
// the news store. Scoring happens upstream; items arrive with sentiment and
// relevance already attached.
type KafkaNewsHandler struct {
	topic   string
	news    domrepo.NewsStore
	metrics domrepo.Metrics
}

func NewKafkaNewsHandler(topic string, news domrepo.NewsStore, metrics domrepo.Metrics) *KafkaNewsHandler {
	return &KafkaNewsHandler{topic: topic, news: news, metrics: metrics}
}

func (h *KafkaNewsHandler) Topic() string { return h.topic }

// incoming message schema:
// {id, ts, title, url, source, sentiment, relevance}
func (h *KafkaNewsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ID        string  `json:"id"`
		TS        int64   `json:"ts"`
		Title     string  `json:"title"`
		URL       string  `json:"url"`
		Source    string  `json:"source"`
		Sentiment float64 `json:"sentiment"`
		Relevance float64 `json:"relevance"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.ID == "" || m.TS == 0 {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("news message missing id or timestamp")
	}
	if m.TS > 1e11 { // ms
		m.TS = m.TS / 1000
	}
	if m.Sentiment < -1 || m.Sentiment > 1 || m.Relevance < 0 || m.Relevance > 1 {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("news message %s has out-of-range scores", m.ID)
	}

	start := time.Now()
	err := h.news.StoreItem(ctx, models.NewsItem{
		ID:             m.ID,
		Timestamp:      time.Unix(m.TS, 0).UTC(),
		Title:          m.Title,
		URL:            m.URL,
		Source:         m.Source,
		SentimentScore: m.Sentiment,
		RelevanceScore: m.Relevance,
	})
	h.metrics.RecordLatency("news_insert", time.Since(start))
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaNewsHandler)(nil)
