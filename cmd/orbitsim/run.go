package main

import (
	"context"
	"errors"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
)

// unpacedClock lets a headless driver run without waiting between ticks.
type unpacedClock struct{}

func (unpacedClock) Now() time.Time { return time.Now() }

func (unpacedClock) Sleep(ctx context.Context, _ time.Duration) error {
	runtime.Gosched()
	return ctx.Err()
}

type runCloser interface {
	ID() string
	Close(metrics map[string]float64) (*storage.RunMetadata, error)
}

// abandon closes the recording of a failed run. Both errors are returned,
// the run's first.
func abandon(rec runCloser, values map[string]float64, runErr error, log *zap.Logger) error {
	if _, err := rec.Close(values); err != nil {
		log.Error("closing failed run", zap.String("run_id", rec.ID()), zap.Error(err))
		return errors.Join(runErr, err)
	}
	return runErr
}

type runResult struct {
	Meta    *storage.RunMetadata
	Stats   sim.Stats
	Metrics metrics.Set
}

// record drives cfg until n frames with a state have been written to st.
// The driver and the recorder run as an errgroup; the recorder disconnecting
// is what ends the driver. An interrupt keeps what was recorded so far.
func record(ctx context.Context, cfg *config.Config, n int, st *storage.Store, log *zap.Logger, opts ...sim.Option) (*runResult, error) {
	driver := newDriver(cfg, log, opts...)

	rec, err := st.Create(storage.RunMetadata{
		Preset:    cfg.Preset,
		TargetFPS: cfg.TargetFPS,
		Step:      cfg.Step,
		Speed:     cfg.Speed,
		Gravity:   cfg.Gravity,
		Softening: cfg.Softening,
		Bodies:    len(cfg.Bodies),
		Colors:    cfg.Colors(),
	})
	if err != nil {
		return nil, err
	}
	log.Info("recording run", zap.String("run_id", rec.ID()), zap.Int("frames", n))

	set := metrics.Defaults(cfg.Kernel())
	in := make(chan sim.Instruction, 1)
	out := sim.NewStream(1)

	initial := cfg.InitialState()
	in <- sim.Configure(cfg.Speed, &initial)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return driver.Run(gctx, in, out)
	})
	g.Go(func() error {
		defer out.Close()
		for written := 0; written < n; {
			select {
			case f := <-out.Frames():
				if err := rec.Write(f.State); err != nil {
					return err
				}
				if f.Stopped() {
					continue
				}
				set.Observe(*f.State)
				written++
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, abandon(rec, set.Values(), err, log)
	}
	if err != nil {
		log.Warn("run interrupted", zap.String("run_id", rec.ID()))
	}

	meta, cerr := rec.Close(set.Values())
	if cerr != nil {
		return nil, cerr
	}

	stats := driver.Stats()
	log.Info("run recorded",
		zap.String("run_id", meta.ID),
		zap.Int("frames", meta.Frames),
		zap.Uint64("steps", stats.Steps),
		zap.Uint64("overruns", stats.Overruns))

	return &runResult{Meta: meta, Stats: stats, Metrics: set}, nil
}
