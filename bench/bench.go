// Package bench measures random point sampling and path finding over a
// navigation mesh.
package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gorustyt/navquery/common"
	"github.com/gorustyt/navquery/detour"
)

var ErrTooManySampleFailures = errors.New("bench: too many failed samples")

type Config struct {
	Iterations       int   `json:"iterations"`
	Seed             int64 `json:"seed"`
	Workers          int   `json:"workers"`
	MaxSampleRetries int   `json:"maxSampleRetries"` // per draw, exceeding it aborts the run
	MaxNodes         int32 `json:"maxNodes"`
	MaxIterations    int   `json:"maxIterations"` // 0 for no limit
	StraightPath     bool  `json:"straightPath"`

	Metrics *Metrics `json:"-"`
}

func DefaultConfig() Config {
	return Config{
		Iterations:       1000,
		Seed:             1,
		Workers:          1,
		MaxSampleRetries: 100,
		MaxNodes:         2048,
	}
}

type samplePair struct {
	startRef, endRef detour.DtNodeRef
	startPos, endPos common.Vec3
}

// worker owns everything one goroutine touches.
type worker struct {
	id      int
	query   *detour.DtNavMeshQuery
	rng     *rand.Rand
	filter  detour.QueryFilter
	cfg     *Config
	pairs   []samplePair
	acc     accumulator
	metrics *Metrics
}

// Run draws Iterations pairs of random points, then finds a path between each
// pair. Iterations are split evenly over Workers; worker i draws from a source
// seeded with Seed+i, so a run is reproducible for a fixed worker count.
func Run(ctx context.Context, mesh *detour.DtNavMesh, filter detour.QueryFilter, cfg Config, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mesh == nil || filter == nil {
		return nil, fmt.Errorf("bench: %w", detour.ErrInvalidParam)
	}
	if cfg.Iterations < 0 || cfg.MaxSampleRetries < 0 {
		return nil, fmt.Errorf("bench: negative iterations or retries: %w", detour.ErrInvalidParam)
	}
	workers := max(cfg.Workers, 1)
	workers = min(workers, max(cfg.Iterations, 1))

	ws := make([]*worker, workers)
	for i := range ws {
		q, status := detour.NewDtNavMeshQuery(mesh, cfg.MaxNodes)
		if status.DtStatusFailed() {
			return nil, fmt.Errorf("bench: init query: %w", status.Err())
		}
		q.SetMaxIterations(cfg.MaxIterations)
		lo, hi := i*cfg.Iterations/workers, (i+1)*cfg.Iterations/workers
		ws[i] = &worker{
			id:      i,
			query:   q,
			rng:     rand.New(rand.NewSource(cfg.Seed + int64(i))),
			filter:  filter,
			cfg:     &cfg,
			pairs:   make([]samplePair, hi-lo),
			metrics: cfg.Metrics,
		}
	}
	logger.Info("bench start",
		zap.Int("iterations", cfg.Iterations),
		zap.Int("workers", workers),
		zap.Int64("seed", cfg.Seed))

	report := &Report{Iterations: cfg.Iterations, Workers: workers}

	start := time.Now()
	if err := runPhase(ctx, ws, (*worker).samplePhase); err != nil {
		return nil, err
	}
	report.SampleTime = time.Since(start)
	logger.Debug("sampling done", zap.Duration("elapsed", report.SampleTime))

	start = time.Now()
	if err := runPhase(ctx, ws, (*worker).pathPhase); err != nil {
		return nil, err
	}
	report.PathTime = time.Since(start)

	for _, w := range ws {
		report.add(&w.acc)
	}
	logger.Info("bench done", zap.Object("report", report))
	return report, nil
}

// runPhase runs fn on every worker concurrently and returns the first error.
func runPhase(ctx context.Context, ws []*worker, fn func(*worker, context.Context) error) error {
	if len(ws) == 1 {
		return fn(ws[0], ctx)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := make([]error, len(ws))
	var wg sync.WaitGroup
	for i, w := range ws {
		wg.Add(1)
		go func(i int, w *worker) {
			defer wg.Done()
			if err := fn(w, ctx); err != nil {
				errs[i] = err
				cancel()
			}
		}(i, w)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (w *worker) samplePhase(ctx context.Context) error {
	for i := range w.pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := &w.pairs[i]
		var err error
		if p.startRef, p.startPos, err = w.draw(); err != nil {
			return err
		}
		if p.endRef, p.endPos, err = w.draw(); err != nil {
			return err
		}
	}
	return nil
}

// draw samples one point, retrying failed attempts. Every failure is counted.
func (w *worker) draw() (detour.DtNodeRef, common.Vec3, error) {
	for failures := 0; ; {
		t0 := time.Now()
		ref, pos, status := w.query.FindRandomPoint(w.filter, w.rng)
		d := time.Since(t0)
		w.acc.sampleAttempts++
		w.acc.sampleCalls += d
		ok := status.DtStatusSucceed()
		w.metrics.observeSample(ok, d)
		if ok {
			return ref, pos, nil
		}
		w.acc.sampleFailures++
		failures++
		if failures > w.cfg.MaxSampleRetries {
			return 0, pos, fmt.Errorf("%w: worker %d, %d in a row: %w", ErrTooManySampleFailures, w.id, failures, status.Err())
		}
	}
}

func (w *worker) pathPhase(ctx context.Context) error {
	for i := range w.pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := &w.pairs[i]
		t0 := time.Now()
		res := w.query.FindPath(p.startRef, p.endRef, p.startPos, p.endPos, w.filter)
		d := time.Since(t0)
		w.acc.pathCalls += d

		result := "complete"
		switch {
		case !res.Succeeded():
			result = "failed"
			w.acc.pathFailures++
		case res.Partial():
			result = "partial"
			w.acc.partialPaths++
		}
		if res.Status.DtStatusDetail(detour.DT_OUT_OF_NODES) {
			w.acc.outOfNodes++
		}
		w.acc.pathNodes += len(res.Path)
		w.metrics.observePath(result, len(res.Path), d)

		if w.cfg.StraightPath && len(res.Path) > 0 {
			endPos := p.endPos
			if res.Partial() {
				// Stop at the closest point of the last polygon reached.
				last := res.Path[len(res.Path)-1]
				if closest, _, status := w.query.GetAttachedNavMesh().ClosestPointOnPoly(last, endPos); status.DtStatusSucceed() {
					endPos = closest
				}
			}
			t0 = time.Now()
			pts, status := w.query.FindStraightPath(p.startPos, endPos, res.Path)
			w.acc.straightCalls += time.Since(t0)
			if status.DtStatusSucceed() {
				w.acc.straightPaths++
				w.acc.corners += len(pts)
			}
		}
	}
	return nil
}
