package analytics

import (
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domsvc "github.com/Kagemann/brondby-stock-tracker/internal/domain/service"
	"github.com/Kagemann/brondby-stock-tracker/internal/services/features"
)

// MovementDetector emits threshold-crossing events from an ordered
// price/volume series.
type MovementDetector struct {
	thresholds Thresholds
}

func NewMovementDetector(t Thresholds) *MovementDetector {
	return &MovementDetector{thresholds: t}
}

// Detect scans adjacent point pairs inside [windowStart, windowEnd) and emits
// PRICE_SURGE, PRICE_DROP and VOLUME_SURGE events. Price and volume checks
// are independent, so one pair can produce two events. A sample with a
// non-positive price is malformed: it is counted once in the skipped return
// and every pair touching it is dropped, with the scan continuing on later
// pairs. A zero-volume sample is valid; a pair with a zero-volume baseline
// simply cannot produce a volume event. Fewer than two points in the window
// yields no events and no skips.
func (d *MovementDetector) Detect(series []models.PricePoint, windowStart, windowEnd time.Time) ([]models.MovementEvent, int) {
	in := features.FilterPrices(series, windowStart, windowEnd)
	if len(in) < 2 {
		return nil, 0
	}

	skipped := 0
	for _, p := range in {
		if p.Price <= 0 {
			skipped++
		}
	}

	events := make([]models.MovementEvent, 0)
	for i := 1; i < len(in); i++ {
		prev, cur := in[i-1], in[i]
		if prev.Price <= 0 || cur.Price <= 0 {
			continue
		}

		change, ok := features.PercentChange(prev.Price, cur.Price)
		if !ok {
			continue
		}
		if change >= d.thresholds.PriceThresholdPct {
			events = append(events, models.MovementEvent{
				Timestamp:   cur.Timestamp,
				Kind:        models.MovementPriceSurge,
				Magnitude:   change,
				WindowStart: prev.Timestamp,
				WindowEnd:   cur.Timestamp,
			})
		} else if change <= -d.thresholds.PriceThresholdPct {
			events = append(events, models.MovementEvent{
				Timestamp:   cur.Timestamp,
				Kind:        models.MovementPriceDrop,
				Magnitude:   change,
				WindowStart: prev.Timestamp,
				WindowEnd:   cur.Timestamp,
			})
		}

		if volChange, ok := features.PercentChange(float64(prev.Volume), float64(cur.Volume)); ok {
			if volChange >= d.thresholds.VolumeThresholdPct {
				events = append(events, models.MovementEvent{
					Timestamp:   cur.Timestamp,
					Kind:        models.MovementVolumeSurge,
					Magnitude:   volChange,
					WindowStart: prev.Timestamp,
					WindowEnd:   cur.Timestamp,
				})
			}
		}
	}
	return events, skipped
}

var _ domsvc.MovementDetector = (*MovementDetector)(nil)
