package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
)

func pricePoint(offset time.Duration, price float64, volume int64) models.PricePoint {
	return models.PricePoint{
		Timestamp: testWindowStart.Add(offset),
		Price:     price,
		Volume:    volume,
	}
}

func testDetector() *MovementDetector {
	return NewMovementDetector(DefaultThresholds())
}

func TestDetectPriceSurge(t *testing.T) {
	series := []models.PricePoint{
		pricePoint(0, 100, 1000),
		pricePoint(time.Hour, 106, 1000),
	}

	events, skipped := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Kind != models.MovementPriceSurge {
		t.Fatalf("kind = %s, want %s", ev.Kind, models.MovementPriceSurge)
	}
	if math.Abs(ev.Magnitude-6.0) > 1e-9 {
		t.Fatalf("magnitude = %v, want 6.0", ev.Magnitude)
	}
	if !ev.WindowStart.Equal(series[0].Timestamp) || !ev.WindowEnd.Equal(series[1].Timestamp) {
		t.Fatalf("event window %v..%v does not match pair", ev.WindowStart, ev.WindowEnd)
	}
}

func TestDetectPriceDropSignedMagnitude(t *testing.T) {
	series := []models.PricePoint{
		pricePoint(0, 200, 500),
		pricePoint(time.Hour, 180, 500),
	}

	events, _ := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Kind != models.MovementPriceDrop {
		t.Fatalf("kind = %s, want %s", events[0].Kind, models.MovementPriceDrop)
	}
	if math.Abs(events[0].Magnitude-(-10.0)) > 1e-9 {
		t.Fatalf("magnitude = %v, want -10.0", events[0].Magnitude)
	}
}

func TestDetectPriceAndVolumeCoFire(t *testing.T) {
	series := []models.PricePoint{
		pricePoint(0, 100, 1000),
		pricePoint(time.Hour, 110, 2500),
	}

	events, _ := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (price and volume)", len(events))
	}
	kinds := map[models.MovementKind]bool{}
	for _, ev := range events {
		kinds[ev.Kind] = true
	}
	if !kinds[models.MovementPriceSurge] || !kinds[models.MovementVolumeSurge] {
		t.Fatalf("expected surge and volume events, got %v", kinds)
	}
}

func TestDetectBelowThresholdIsQuiet(t *testing.T) {
	series := []models.PricePoint{
		pricePoint(0, 100, 1000),
		pricePoint(time.Hour, 104, 1500),
		pricePoint(2*time.Hour, 101, 1400),
	}

	events, skipped := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if len(events) != 0 || skipped != 0 {
		t.Fatalf("expected quiet scan, got %d events %d skipped", len(events), skipped)
	}
}

func TestDetectShortSeries(t *testing.T) {
	tests := []struct {
		name   string
		series []models.PricePoint
	}{
		{"empty", nil},
		{"single point", []models.PricePoint{pricePoint(0, 100, 1000)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, skipped := testDetector().Detect(tt.series, testWindowStart, testWindowStart.Add(time.Hour))
			if len(events) != 0 || skipped != 0 {
				t.Fatalf("got %d events %d skipped, want none", len(events), skipped)
			}
		})
	}
}

func TestDetectSkipsBadBaseline(t *testing.T) {
	series := []models.PricePoint{
		pricePoint(0, 100, 1000),
		pricePoint(time.Hour, 0, 1000),   // bad quote
		pricePoint(2*time.Hour, 110, 1000),
		pricePoint(3*time.Hour, 120, 1000),
	}

	events, skipped := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	// the 110 -> 120 pair still evaluates
	if len(events) != 1 || events[0].Kind != models.MovementPriceSurge {
		t.Fatalf("scan did not continue past bad sample: %+v", events)
	}
}

func TestDetectBadQuoteNeverBecomesBaseline(t *testing.T) {
	// the zero-price quote must not yield a -100% drop from itself, and the
	// pair it would anchor (0 -> 110) must not fire either
	series := []models.PricePoint{
		pricePoint(0, 100, 1000),
		pricePoint(time.Hour, 0, 1000),
		pricePoint(2*time.Hour, 110, 1000),
	}

	events, skipped := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if len(events) != 0 {
		t.Fatalf("pairs touching the bad sample fired: %+v", events)
	}
}

func TestDetectBadFirstSample(t *testing.T) {
	series := []models.PricePoint{
		pricePoint(0, -1, 1000),
		pricePoint(time.Hour, 100, 1000),
		pricePoint(2*time.Hour, 110, 1000),
	}

	events, skipped := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if len(events) != 1 || events[0].Kind != models.MovementPriceSurge {
		t.Fatalf("100 -> 110 pair did not evaluate: %+v", events)
	}
}

func TestDetectZeroVolumeBaseline(t *testing.T) {
	// no trading in the baseline bar is a valid sample: the price check
	// still runs and nothing is counted as skipped
	series := []models.PricePoint{
		pricePoint(0, 100, 0),
		pricePoint(time.Hour, 106, 5000),
	}

	events, skipped := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(events) != 1 || events[0].Kind != models.MovementPriceSurge {
		t.Fatalf("got %+v, want only the price surge", events)
	}
}

func TestDetectFiltersToWindow(t *testing.T) {
	series := []models.PricePoint{
		pricePoint(-2*time.Hour, 50, 1000), // before window
		pricePoint(0, 100, 1000),
		pricePoint(time.Hour, 110, 1000),
	}

	events, _ := testDetector().Detect(series, testWindowStart, testWindowStart.Add(24*time.Hour))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (pre-window pair excluded)", len(events))
	}
	if math.Abs(events[0].Magnitude-10.0) > 1e-9 {
		t.Fatalf("magnitude = %v, want 10.0", events[0].Magnitude)
	}
}

func TestDetectIdempotent(t *testing.T) {
	series := []models.PricePoint{
		pricePoint(0, 100, 1000),
		pricePoint(time.Hour, 93, 3000),
		pricePoint(2*time.Hour, 99, 900),
	}

	d := testDetector()
	end := testWindowStart.Add(24 * time.Hour)
	first, s1 := d.Detect(series, testWindowStart, end)
	second, s2 := d.Detect(series, testWindowStart, end)
	if s1 != s2 || len(first) != len(second) {
		t.Fatalf("detection not idempotent")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("event %d differs between runs", i)
		}
	}
}
