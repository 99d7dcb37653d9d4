package optim

import (
	"context"
	"math"
	"sync"
)

// Points enumerates the grid in the order Search visits it.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[i]))
		for _, p := range points {
			for _, v := range g.ranges[i] {
				q := make(map[string]float64, len(p)+1)
				for k, pv := range p {
					q[k] = pv
				}
				q[name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// SearchParallel evaluates the grid across workers goroutines. run must be
// safe for concurrent use. Ties resolve to the earliest grid point, so the
// winner matches Search.
func (g *GridSearch) SearchParallel(ctx context.Context, run Runner, score Score, workers int) (Candidate, error) {
	points := g.Points()
	scores := make([]float64, len(points))

	ParallelFor(len(points), workers, func(start, end int) {
		for i := start; i < end; i++ {
			scores[i] = math.Inf(1)
			if ctx.Err() != nil {
				continue
			}
			result, err := run(ctx, points[i])
			if err != nil {
				continue
			}
			scores[i] = score(result)
		}
	})

	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	best := Candidate{Score: math.Inf(1)}
	for i, val := range scores {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		if val < best.Score {
			best = Candidate{Params: points[i], Score: val}
		}
	}
	if best.Params == nil {
		return Candidate{}, ErrNoCandidate
	}
	return best, nil
}

// ParallelFor splits [0, n) into at most workers contiguous chunks and
// runs fn on each concurrently.
func ParallelFor(n, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
