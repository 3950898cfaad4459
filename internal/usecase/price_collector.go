package usecase

import (
	"context"
	"sync"
	"time"

	drepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	mid "github.com/Kagemann/brondby-stock-tracker/internal/middleware"
	"github.com/Kagemann/brondby-stock-tracker/pkg/logger"
)

// PriceCollector polls the quote source on a fixed cadence and feeds new
// points through the ingest pipeline into market storage.
type PriceCollector struct {
	source   drepo.QuoteSource
	pipe     *mid.IngestPipeline
	metrics  drepo.Metrics
	log      *logger.Logger
	symbol   string
	interval time.Duration
	lookback time.Duration

	stop chan struct{}
	done sync.WaitGroup
}

// NewPriceCollector creates a new PriceCollector.
func NewPriceCollector(
	source drepo.QuoteSource,
	pipe *mid.IngestPipeline,
	metrics drepo.Metrics,
	log *logger.Logger,
	symbol string,
	interval, lookback time.Duration,
) *PriceCollector {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if lookback <= 0 {
		lookback = time.Hour
	}
	return &PriceCollector{
		source:   source,
		pipe:     pipe,
		metrics:  metrics,
		log:      log,
		symbol:   symbol,
		interval: interval,
		lookback: lookback,
		stop:     make(chan struct{}),
	}
}

// Start polls immediately, then on every tick until Stop or context cancel.
func (c *PriceCollector) Start(ctx context.Context) {
	c.pipe.Start(ctx)
	c.done.Add(1)
	go func() {
		defer c.done.Done()
		c.poll(ctx)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				c.poll(ctx)
			}
		}
	}()
}

func (c *PriceCollector) poll(ctx context.Context) {
	start := time.Now()
	points, err := c.source.Fetch(ctx, c.symbol, c.lookback)
	if err != nil {
		c.metrics.RecordError("quote_fetch")
		c.log.Error("quote fetch failed",
			logger.String("symbol", c.symbol),
			logger.Error(err))
		return
	}
	c.metrics.RecordLatency("quote_fetch", time.Since(start))

	stored := 0
	for _, pt := range points {
		if err := c.pipe.Process(ctx, pt); err != nil {
			continue
		}
		stored++
	}
	if len(points) > 0 {
		c.metrics.RecordLastPrice(points[len(points)-1].Price)
	}
	c.log.Debug("quote poll complete",
		logger.String("symbol", c.symbol),
		logger.Int("fetched", len(points)),
		logger.Int("stored", stored))
}

// Stop halts polling and the pipeline flush loop.
func (c *PriceCollector) Stop() {
	close(c.stop)
	c.done.Wait()
	c.pipe.Stop()
}
