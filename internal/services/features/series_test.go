package features

import (
	"math"
	"testing"
	"time"
)

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name string
		prev float64
		cur  float64
		want float64
		ok   bool
	}{
		{"up five percent", 100, 105, 5, true},
		{"down ten percent", 200, 180, -10, true},
		{"flat", 50, 50, 0, true},
		{"zero baseline", 0, 10, 0, false},
		{"negative baseline", -5, 10, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PercentChange(tt.prev, tt.cur)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
		want float64
	}{
		{"perfect positive", []float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, 1},
		{"perfect negative", []float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}, -1},
		{"zero variance x", []float64{3, 3, 3}, []float64{1, 2, 3}, 0},
		{"zero variance y", []float64{1, 2, 3}, []float64{7, 7, 7}, 0},
		{"too short", []float64{1}, []float64{2}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pearson(tt.xs, tt.ys)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPearsonBounded(t *testing.T) {
	xs := []float64{0.1, 0.2, 0.30000001, 0.4}
	ys := []float64{1, 2, 3, 4}
	r := Pearson(xs, ys)
	if r < -1 || r > 1 {
		t.Fatalf("coefficient %v outside [-1, 1]", r)
	}
}

func TestPartitionWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	buckets := PartitionWindow(start, end, 12)
	if len(buckets) != 12 {
		t.Fatalf("got %d buckets, want 12", len(buckets))
	}
	if !buckets[0].Start.Equal(start) {
		t.Fatalf("first bucket starts at %v, want %v", buckets[0].Start, start)
	}
	if !buckets[11].End.Equal(end) {
		t.Fatalf("last bucket ends at %v, want %v", buckets[11].End, end)
	}
	for i := 1; i < len(buckets); i++ {
		if !buckets[i].Start.Equal(buckets[i-1].End) {
			t.Fatalf("gap between bucket %d and %d", i-1, i)
		}
	}

	if got := PartitionWindow(start, start, 4); got != nil {
		t.Fatalf("empty window should yield nil, got %v", got)
	}
	if got := PartitionWindow(start, end, 0); got != nil {
		t.Fatalf("zero buckets should yield nil, got %v", got)
	}
}

func TestBucketIndex(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	buckets := PartitionWindow(start, end, 4)

	if got := BucketIndex(buckets, start); got != 0 {
		t.Fatalf("start belongs to bucket 0, got %d", got)
	}
	if got := BucketIndex(buckets, start.Add(90*time.Minute)); got != 1 {
		t.Fatalf("want bucket 1, got %d", got)
	}
	if got := BucketIndex(buckets, end); got != -1 {
		t.Fatalf("window end is exclusive, got %d", got)
	}
	if got := BucketIndex(buckets, start.Add(-time.Second)); got != -1 {
		t.Fatalf("before window should be -1, got %d", got)
	}
}
