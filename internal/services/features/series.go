package features

import (
	"math"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
)

// PercentChange computes the signed percentage change from prev to cur.
// Returns (0, false) when prev is not a usable baseline.
func PercentChange(prev, cur float64) (float64, bool) {
	if prev <= 0 {
		return 0, false
	}
	return (cur - prev) / prev * 100, true
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Pearson computes the Pearson correlation coefficient of two equal-length
// series. Returns 0 when either series has zero variance or fewer than two
// points; a correlation that cannot be computed is treated as no correlation.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)
	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	r := cov / math.Sqrt(varX*varY)
	// guard against float drift past the mathematical bounds
	return Clamp(r, -1, 1)
}

// Bucket is one equal-width partition of an analysis window.
type Bucket struct {
	Start time.Time
	End   time.Time
}

// PartitionWindow splits [start, end) into n equal-width buckets. The last
// bucket always ends exactly at end so truncation error never leaks samples.
func PartitionWindow(start, end time.Time, n int) []Bucket {
	if n <= 0 || !end.After(start) {
		return nil
	}
	width := end.Sub(start) / time.Duration(n)
	if width <= 0 {
		return nil
	}
	out := make([]Bucket, 0, n)
	for i := 0; i < n; i++ {
		bs := start.Add(time.Duration(i) * width)
		be := bs.Add(width)
		if i == n-1 {
			be = end
		}
		out = append(out, Bucket{Start: bs, End: be})
	}
	return out
}

// BucketIndex returns which bucket of the partition t falls into, or -1 when
// t is outside [start, end).
func BucketIndex(buckets []Bucket, t time.Time) int {
	for i, b := range buckets {
		if !t.Before(b.Start) && t.Before(b.End) {
			return i
		}
	}
	return -1
}

// FilterNews returns the items whose timestamp falls inside [start, end).
func FilterNews(items []models.NewsItem, start, end time.Time) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(items))
	for _, it := range items {
		if !it.Timestamp.Before(start) && it.Timestamp.Before(end) {
			out = append(out, it)
		}
	}
	return out
}

// FilterPrices returns the points whose timestamp falls inside [start, end).
func FilterPrices(series []models.PricePoint, start, end time.Time) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(series))
	for _, p := range series {
		if !p.Timestamp.Before(start) && p.Timestamp.Before(end) {
			out = append(out, p)
		}
	}
	return out
}
