package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/gearbox/internal/sim"
)

// ErrNoCandidate indicates every grid point failed or scored non-finite.
var ErrNoCandidate = errors.New("optim: no candidate produced a finite score")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Runner executes one candidate and returns its result.
type Runner func(ctx context.Context, params map[string]float64) (*sim.Result, error)

// Score reduces a result to a value to minimize.
type Score func(r *sim.Result) float64

// MetricScore scores by a named metric. Runs that recorded errors or
// never produced the metric score +Inf.
func MetricScore(name string) Score {
	return func(r *sim.Result) float64 {
		if len(r.Errors) > 0 {
			return math.Inf(1)
		}
		v, ok := r.Metrics[name]
		if !ok {
			return math.Inf(1)
		}
		return v
	}
}

type Candidate struct {
	Params map[string]float64
	Score  float64
}

// Search evaluates every grid point and returns the lowest finite score.
// Candidates that fail to run are skipped. Context cancellation aborts
// the search.
func (g *GridSearch) Search(ctx context.Context, run Runner, score Score) (Candidate, error) {
	best := Candidate{Score: math.Inf(1)}

	err := g.searchRecursive(ctx, 0, make(map[string]float64), run, score, &best)
	if err != nil {
		return Candidate{}, err
	}
	if best.Params == nil {
		return Candidate{}, ErrNoCandidate
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	run Runner,
	score Score,
	best *Candidate,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		result, err := run(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		val := score(result)
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		if val < best.Score {
			best.Score = val
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, run, score, best); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}
