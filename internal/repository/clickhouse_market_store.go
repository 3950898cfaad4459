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

// ClickHouseMarketStore persists price observations in ClickHouse.
type ClickHouseMarketStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseMarketStore creates ClickHouse price storage.
func NewClickHouseMarketStore(db *sql.DB, table string) repository.MarketStore {
	return &ClickHouseMarketStore{db: db, table: table}
}

func (s *ClickHouseMarketStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseMarketStore) StorePoint(ctx context.Context, symbol string, p models.PricePoint) error {
	q := fmt.Sprintf("INSERT INTO %s (symbol, ts, price, volume) VALUES (?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, symbol, p.Timestamp, p.Price, p.Volume)
	return err
}

func (s *ClickHouseMarketStore) StoreBatch(ctx context.Context, symbol string, points []models.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips, chunked at 2000 rows.
	const chunkSize = 2000
	for start := 0; start < len(points); start += chunkSize {
		end := start + chunkSize
		if end > len(points) {
			end = len(points)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, p := range points[start:end] {
			if p.Timestamp.IsZero() || p.Price <= 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, symbol, p.Timestamp, p.Price, p.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, price, volume) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseMarketStore) GetRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	q := fmt.Sprintf("SELECT ts, price, volume FROM %s WHERE symbol = ? AND ts >= ? AND ts < ? ORDER BY ts ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Timestamp, &p.Price, &p.Volume); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (s *ClickHouseMarketStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseMarketStore) Close() error {
	return nil // Pool managed by pkg
}
