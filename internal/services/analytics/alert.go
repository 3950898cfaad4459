package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domsvc "github.com/Kagemann/brondby-stock-tracker/internal/domain/service"
)

// AlertEvaluator applies the alert threshold table and deduplicates against
// recently fired keys. It owns no state; the caller records fired keys.
type AlertEvaluator struct {
	thresholds Thresholds
}

func NewAlertEvaluator(t Thresholds) *AlertEvaluator {
	return &AlertEvaluator{thresholds: t}
}

// Evaluate checks every alert rule against the run's outputs. A quiet period
// returns an empty slice, never an error. The same dedupe key fires at most
// once per cooldown window.
func (e *AlertEvaluator) Evaluate(aggregate models.SentimentAggregate, events []models.MovementEvent, correlation models.CorrelationResult, previouslyFired map[string]time.Time, now time.Time) []models.AlertCondition {
	alerts := make([]models.AlertCondition, 0, 4)

	if ev, ok := strongestPriceMove(events, 0); ok && math.Abs(ev.Magnitude) > e.thresholds.PriceThresholdPct {
		direction := "up"
		if ev.Magnitude < 0 {
			direction = "down"
		}
		alerts = e.appendIfCool(alerts, previouslyFired, now, models.AlertCondition{
			Type:            models.AlertPriceMovement,
			TriggeringValue: ev.Magnitude,
			Threshold:       e.thresholds.PriceThresholdPct,
			Message:         fmt.Sprintf("Price moved %s %.1f%%", direction, math.Abs(ev.Magnitude)),
		})
	}

	if ev, ok := strongestVolumeSurge(events); ok && ev.Magnitude > e.thresholds.VolumeThresholdPct {
		alerts = e.appendIfCool(alerts, previouslyFired, now, models.AlertCondition{
			Type:            models.AlertVolumeSurge,
			TriggeringValue: ev.Magnitude,
			Threshold:       e.thresholds.VolumeThresholdPct,
			Message:         fmt.Sprintf("Trading volume surged %.0f%%", ev.Magnitude),
		})
	}

	if aggregate.HasData &&
		math.Abs(aggregate.MeanSentiment) > e.thresholds.SentimentExtreme &&
		aggregate.ArticleCount >= e.thresholds.MinArticles {
		tone := "positive"
		if aggregate.MeanSentiment < 0 {
			tone = "negative"
		}
		alerts = e.appendIfCool(alerts, previouslyFired, now, models.AlertCondition{
			Type:            models.AlertSentimentExtreme,
			TriggeringValue: aggregate.MeanSentiment,
			Threshold:       e.thresholds.SentimentExtreme,
			Message: fmt.Sprintf("Extreme %s news sentiment: mean %.2f across %d articles",
				tone, aggregate.MeanSentiment, aggregate.ArticleCount),
		})
	}

	if math.Abs(correlation.Coefficient) > e.thresholds.CorrelationSignificance {
		alerts = e.appendIfCool(alerts, previouslyFired, now, models.AlertCondition{
			Type:            models.AlertCorrelationPattern,
			TriggeringValue: correlation.Coefficient,
			Threshold:       e.thresholds.CorrelationSignificance,
			Message: fmt.Sprintf("Strong sentiment/price correlation: r=%.2f over %d samples",
				correlation.Coefficient, correlation.SampleSize),
		})
	}

	return alerts
}

// appendIfCool fills in identity fields and drops the alert when its dedupe
// key fired within the cooldown window.
func (e *AlertEvaluator) appendIfCool(alerts []models.AlertCondition, previouslyFired map[string]time.Time, now time.Time, alert models.AlertCondition) []models.AlertCondition {
	alert.FiredAt = now
	alert.DedupeKey = DedupeKey(alert.Type, now, e.thresholds.AlertCooldown)
	if last, ok := previouslyFired[alert.DedupeKey]; ok && now.Sub(last) < e.thresholds.AlertCooldown {
		return alerts
	}
	alert.ID = uuid.NewString()
	alert.Severity = severityFor(alert.TriggeringValue, alert.Threshold)
	return append(alerts, alert)
}

// DedupeKey identifies an alert condition within one cooldown-sized time
// bucket. Firings in the same bucket share a key and collapse to one alert.
func DedupeKey(t models.AlertType, at time.Time, cooldown time.Duration) string {
	return fmt.Sprintf("%s:%d", t, at.Truncate(cooldown).Unix())
}

func severityFor(value, threshold float64) string {
	if threshold > 0 && math.Abs(value) >= 2*threshold {
		return "critical"
	}
	return "warning"
}

// strongestVolumeSurge returns the largest volume surge event, if any.
func strongestVolumeSurge(events []models.MovementEvent) (models.MovementEvent, bool) {
	var best models.MovementEvent
	found := false
	for _, ev := range events {
		if ev.Kind != models.MovementVolumeSurge {
			continue
		}
		if !found || ev.Magnitude > best.Magnitude {
			best = ev
			found = true
		}
	}
	return best, found
}

var _ domsvc.AlertEvaluator = (*AlertEvaluator)(nil)
