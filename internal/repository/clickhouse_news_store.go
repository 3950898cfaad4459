package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	"github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
)

// ClickHouseNewsStore persists scored news items in ClickHouse.
type ClickHouseNewsStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseNewsStore creates ClickHouse news storage.
func NewClickHouseNewsStore(db *sql.DB, table string) repository.NewsStore {
	return &ClickHouseNewsStore{db: db, table: table}
}

func (s *ClickHouseNewsStore) StoreItem(ctx context.Context, item models.NewsItem) error {
	q := fmt.Sprintf("INSERT INTO %s (id, ts, title, url, source, sentiment, relevance) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		item.ID, item.Timestamp, item.Title, item.URL, item.Source,
		item.SentimentScore, item.RelevanceScore)
	return err
}

func (s *ClickHouseNewsStore) StoreBatch(ctx context.Context, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	values := make([]string, 0, len(items))
	args := make([]interface{}, 0, len(items)*7)
	for _, it := range items {
		if it.ID == "" || it.Timestamp.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, it.ID, it.Timestamp, it.Title, it.URL, it.Source,
			it.SentimentScore, it.RelevanceScore)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (id, ts, title, url, source, sentiment, relevance) VALUES %s", s.table, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseNewsStore) GetRange(ctx context.Context, from, to time.Time) ([]models.NewsItem, error) {
	q := fmt.Sprintf("SELECT id, ts, title, url, source, sentiment, relevance FROM %s WHERE ts >= ? AND ts < ? ORDER BY ts ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.NewsItem
	for rows.Next() {
		var it models.NewsItem
		if err := rows.Scan(&it.ID, &it.Timestamp, &it.Title, &it.URL, &it.Source,
			&it.SentimentScore, &it.RelevanceScore); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *ClickHouseNewsStore) Close() error {
	return nil // Pool managed by pkg
}
