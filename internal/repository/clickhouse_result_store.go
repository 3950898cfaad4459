package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	"github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
)

// ClickHouseResultStore persists analysis runs and fired alerts. Insights and
// movement events are stored as JSON blobs alongside the flat correlation
// columns; they are read back only as whole reports.
type ClickHouseResultStore struct {
	db          *sql.DB
	reportTable string
	alertTable  string
}

// NewClickHouseResultStore creates ClickHouse result storage.
func NewClickHouseResultStore(db *sql.DB, reportTable, alertTable string) repository.ResultStore {
	return &ClickHouseResultStore{db: db, reportTable: reportTable, alertTable: alertTable}
}

func (s *ClickHouseResultStore) SaveReport(ctx context.Context, report *models.AnalysisReport) error {
	insights, err := json.Marshal(report.Insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}
	events, err := json.Marshal(report.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s
		(run_id, symbol, window_start, window_end, generated_at,
		 mean_sentiment, weighted_sentiment, article_count,
		 coefficient, confidence, sample_size,
		 insights, events, skipped_samples)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.reportTable)
	_, err = s.db.ExecContext(ctx, q,
		report.ID, report.Symbol, report.WindowStart, report.WindowEnd, report.GeneratedAt,
		report.Sentiment.MeanSentiment, report.Sentiment.WeightedSentiment, report.Sentiment.ArticleCount,
		report.Correlation.Coefficient, string(report.Correlation.Confidence), report.Correlation.SampleSize,
		string(insights), string(events), report.SkippedSamples)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if len(report.Alerts) == 0 {
		return nil
	}
	values := make([]string, 0, len(report.Alerts))
	args := make([]interface{}, 0, len(report.Alerts)*9)
	for _, a := range report.Alerts {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, a.ID, report.ID, string(a.Type), a.TriggeringValue,
			a.Threshold, a.Severity, a.Message, a.FiredAt, a.DedupeKey)
	}
	q = fmt.Sprintf(`INSERT INTO %s
		(id, run_id, type, triggering_value, threshold, severity, message, fired_at, dedupe_key)
		VALUES %s`, s.alertTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert alerts: %w", err)
	}
	return nil
}

func (s *ClickHouseResultStore) RecentAlerts(ctx context.Context, since time.Time, limit int) ([]models.AlertCondition, error) {
	q := fmt.Sprintf(`SELECT id, type, triggering_value, threshold, severity, message, fired_at, dedupe_key
		FROM %s WHERE fired_at >= ? ORDER BY fired_at DESC LIMIT ?`, s.alertTable)
	rows, err := s.db.QueryContext(ctx, q, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.AlertCondition
	for rows.Next() {
		var a models.AlertCondition
		var typ string
		if err := rows.Scan(&a.ID, &typ, &a.TriggeringValue, &a.Threshold,
			&a.Severity, &a.Message, &a.FiredAt, &a.DedupeKey); err != nil {
			return nil, err
		}
		a.Type = models.AlertType(typ)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *ClickHouseResultStore) Close() error {
	return nil // Pool managed by pkg
}
