// Package evaluator distributes scoring-kernel work across goroutines.
// Spatial indexes are built once by the caller and shared read-only between
// workers; each worker owns a disjoint slice of the grid.
package evaluator

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/scoring"
)

const (
	// singleWorkerThreshold - below this many points the goroutine overhead
	// is not worth amortizing.
	singleWorkerThreshold = 10_000

	// pointsPerWorker sizes the pool so each worker gets a meaningful chunk.
	pointsPerWorker = 3_000

	// maxWorkersDefault caps the pool regardless of available CPUs.
	maxWorkersDefault = 8
)

// GridPoint - a single evaluation site. Value is filled in by Evaluate.
type GridPoint struct {
	Lat float64
	Lng float64
}

// Evaluator runs kernels over point grids.
type Evaluator struct {
	maxWorkers int
	logger     *zap.Logger
}

// New creates an evaluator. maxWorkers <= 0 selects min(NumCPU, 8).
func New(maxWorkers int, logger *zap.Logger) *Evaluator {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	if maxWorkers > maxWorkersDefault {
		maxWorkers = maxWorkersDefault
	}
	return &Evaluator{
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// workerCount returns the pool size for n points.
func (e *Evaluator) workerCount(n int) int {
	if n < singleWorkerThreshold {
		return 1
	}
	byLoad := (n + pointsPerWorker - 1) / pointsPerWorker
	w := e.maxWorkers
	if byLoad < w {
		w = byLoad
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Evaluate computes K for every point, preserving slice order. On
// cancellation no partial result is emitted. A worker panic triggers a
// single-threaded fallback over the entire grid: correctness beats
// throughput.
func (e *Evaluator) Evaluate(ctx context.Context, kernel *scoring.Kernel, points []GridPoint) ([]float64, error) {
	if len(points) == 0 {
		return []float64{}, nil
	}

	workers := e.workerCount(len(points))
	if workers == 1 {
		return e.evaluateSerial(ctx, kernel, points)
	}

	values := make([]float64, len(points))
	chunk := (len(points) + workers - 1) / workers

	var wg sync.WaitGroup
	panics := make(chan interface{}, workers)
	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(points) {
			end = len(points)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics <- r
					cancel()
				}
			}()
			for i := start; i < end; i++ {
				if i%256 == 0 && workerCtx.Err() != nil {
					return
				}
				values[i] = kernel.EvaluatePoint(points[i].Lat, points[i].Lng)
			}
		}(start, end)
	}

	wg.Wait()
	close(panics)

	if r, ok := <-panics; ok {
		e.logger.Error("evaluator worker panicked, falling back to serial evaluation",
			zap.Any("panic", r),
			zap.Int("points", len(points)),
			zap.Int("workers", workers),
		)
		return e.evaluateSerial(ctx, kernel, points)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluation cancelled: %w", err)
	}

	return values, nil
}

func (e *Evaluator) evaluateSerial(ctx context.Context, kernel *scoring.Kernel, points []GridPoint) ([]float64, error) {
	values := make([]float64, len(points))
	for i, p := range points {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("evaluation cancelled: %w", err)
			}
		}
		values[i] = kernel.EvaluatePoint(p.Lat, p.Lng)
	}
	return values, nil
}

// EvaluateBreakdowns computes full per-factor breakdowns for a small point
// set (popups). Always serial; popup requests carry a handful of points.
func (e *Evaluator) EvaluateBreakdowns(ctx context.Context, kernel *scoring.Kernel, points []GridPoint) ([]domain.FactorBreakdown, error) {
	out := make([]domain.FactorBreakdown, len(points))
	for i, p := range points {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation cancelled: %w", err)
		}
		out[i] = kernel.EvaluateBreakdown(p.Lat, p.Lng)
	}
	return out, nil
}
