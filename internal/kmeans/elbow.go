package kmeans

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/runger/rfmseg/internal/feature"
)

// Candidate k range defaults for the elbow sweep.
const (
	DefaultKMin = 1
	DefaultKMax = 10
)

// SweepPoint is one point of the elbow diagnostic curve.
type SweepPoint struct {
	K         int     `json:"k"`
	WSS       float64 `json:"wss"`
	Converged bool    `json:"converged"`
}

// SweepOptions configures the elbow sweep.
type SweepOptions struct {
	KMin          int // 0 means DefaultKMin
	KMax          int // 0 means DefaultKMax
	Restarts      int
	MaxIterations int
	Seed          int64
	// Workers bounds the parallelism across k values. 0 means GOMAXPROCS.
	Workers int
}

// Sweep evaluates every candidate k independently and returns the (k, wss)
// curve ordered by k. It never picks a k; that decision stays with the
// operator.
//
// Each k runs with the same top-level seed, so the curve is reproducible
// and independent of how the workers interleave.
func Sweep(ctx context.Context, points []feature.Vector, opts SweepOptions) ([]SweepPoint, error) {
	kMin := opts.KMin
	if kMin == 0 {
		kMin = DefaultKMin
	}
	kMax := opts.KMax
	if kMax == 0 {
		kMax = DefaultKMax
	}
	if kMin < 1 || kMax < kMin {
		return nil, fmt.Errorf("%w: range %d..%d", ErrBadK, kMin, kMax)
	}
	if kMax > len(points) {
		return nil, fmt.Errorf("%w: k_max=%d, points=%d", ErrBadK, kMax, len(points))
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if n := kMax - kMin + 1; workers > n {
		workers = n
	}

	results := make([]SweepPoint, kMax-kMin+1)
	errs := make([]error, kMax-kMin+1)
	kCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := range kCh {
				res, err := Run(points, Options{
					K:             k,
					Restarts:      opts.Restarts,
					MaxIterations: opts.MaxIterations,
					Seed:          opts.Seed,
				})
				i := k - kMin
				if err != nil {
					errs[i] = err
					continue
				}
				results[i] = SweepPoint{K: k, WSS: res.WSS, Converged: res.Converged}
			}
		}()
	}

	for k := kMin; k <= kMax; k++ {
		select {
		case <-ctx.Done():
			close(kCh)
			wg.Wait()
			return nil, ctx.Err()
		case kCh <- k:
		}
	}
	close(kCh)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// SuggestElbow returns the k with the largest drop-off in marginal WSS
// reduction (largest second difference). It is a hint for the diagnostic
// display only, never an automatic choice. Returns 0 when the curve is too
// short to bend.
func SuggestElbow(curve []SweepPoint) int {
	if len(curve) < 3 {
		return 0
	}
	bestK := 0
	bestBend := 0.0
	for i := 1; i < len(curve)-1; i++ {
		bend := (curve[i-1].WSS - curve[i].WSS) - (curve[i].WSS - curve[i+1].WSS)
		if bend > bestBend {
			bestBend = bend
			bestK = curve[i].K
		}
	}
	return bestK
}
