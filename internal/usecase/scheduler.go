package usecase

import (
	"context"
	"time"

	"github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	"github.com/Kagemann/brondby-stock-tracker/pkg/logger"
)

// ReportSink receives completed reports for live distribution. The websocket
// hub implements it; delivery must not block the scheduler.
type ReportSink interface {
	Publish(report *models.AnalysisReport)
}

// Scheduler triggers a full analysis pass on a fixed cadence.
type Scheduler struct {
	analyze  *AnalyzeUseCase
	sink     ReportSink
	log      *logger.Logger
	window   time.Duration
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(analyze *AnalyzeUseCase, sink ReportSink, log *logger.Logger, window, interval time.Duration) *Scheduler {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		analyze:  analyze,
		sink:     sink,
		log:      log,
		window:   window,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic loop. One pass runs immediately so a fresh
// deploy has results before the first tick.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	s.runOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	end := time.Now().UTC()
	start := end.Add(-s.window)

	report, err := s.analyze.Run(ctx, start, end, "scheduled")
	if err != nil {
		s.log.Error("scheduled analysis failed", logger.Error(err))
		return
	}
	if s.sink != nil {
		s.sink.Publish(report)
	}
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}
