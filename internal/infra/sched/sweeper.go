package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// SweepWorker periodically sweeps the in-process dialog and rate limit tables.
// Redis expires its keys by itself, so the worker only runs without Redis.
type SweepWorker struct {
	interval time.Duration
	targets  map[string]Sweeper
	log      *zerolog.Logger
}

func NewSweepWorker(interval time.Duration, targets map[string]Sweeper, logger *zerolog.Logger) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "SweepWorker").Logger()
	return &SweepWorker{interval: interval, targets: targets, log: &l}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping sweep worker")
			return nil
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *SweepWorker) sweep() {
	for name, t := range w.targets {
		if n := t.Sweep(); n > 0 {
			w.log.Debug().Str("target", name).Int("removed", n).Msg("swept")
		}
	}
}
