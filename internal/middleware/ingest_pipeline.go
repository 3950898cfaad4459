package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domrepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
)

// PointSink is the minimal downstream the pipeline needs.
type PointSink interface {
	StorePoint(ctx context.Context, symbol string, p models.PricePoint) error
}

// IngestPipeline sits between the quote source and storage. It validates
// incoming points, throttles duplicates, and buffers when the store is
// unavailable.
type IngestPipeline struct {
	sink    PointSink
	metrics domrepo.Metrics
	symbol  string
	bufSize int
	bufCh   chan models.PricePoint
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	lastTS  time.Time // newest accepted point
}

type PipelineOption func(*IngestPipeline)

// WithBufferSize sets the temporary buffer size used when the store is
// unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(sink PointSink, metrics domrepo.Metrics, symbol string, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		sink:    sink,
		metrics: metrics,
		symbol:  symbol,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.PricePoint, p.bufSize)
	return p
}

// Start launches background flushing of buffered points.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case pt := <-p.bufCh:
				if err := p.sink.StorePoint(ctx, p.symbol, pt); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- pt:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and forwards a point to storage, buffering on errors.
// Points at or before the newest accepted timestamp are dropped, so a
// polling source can resubmit overlapping bars without duplicating rows.
func (p *IngestPipeline) Process(ctx context.Context, pt models.PricePoint) error {
	start := time.Now()
	if err := validatePoint(pt); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	p.mu.Lock()
	if !pt.Timestamp.After(p.lastTS) {
		p.mu.Unlock()
		return nil
	}
	p.lastTS = pt.Timestamp
	p.mu.Unlock()

	if err := p.sink.StorePoint(ctx, p.symbol, pt); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- pt:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start))
	return nil
}

func validatePoint(pt models.PricePoint) error {
	if pt.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if pt.Price <= 0 {
		return fmt.Errorf("non-positive price")
	}
	if pt.Volume < 0 {
		return fmt.Errorf("negative volume")
	}
	return nil
}
