// Package kmeans partitions scaled feature vectors with Lloyd's algorithm.
//
// Every restart draws from its own RNG stream derived from the top-level
// seed and the restart index, so a fixed seed reproduces the same result
// no matter how restarts are scheduled.
package kmeans

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/runger/rfmseg/internal/feature"
)

// Defaults for the segmenter configuration.
const (
	DefaultRestarts      = 25
	DefaultMaxIterations = 100
)

// Configuration errors, rejected before any clustering runs.
var (
	ErrBadK        = errors.New("cluster count must be between 1 and the number of points")
	ErrBadRestarts = errors.New("restart count must be at least 1")
)

// Options configures one segmentation.
type Options struct {
	K             int
	Restarts      int   // 0 means DefaultRestarts
	MaxIterations int   // 0 means DefaultMaxIterations
	Seed          int64 // top-level seed; restart streams derive from it
}

// Result is the outcome of the best restart.
type Result struct {
	// Assignments holds a 1-based cluster id per input point.
	Assignments []int
	// Centroids are the final cluster centers, indexed by cluster id - 1.
	Centroids []feature.Vector
	// WSS is the total within-cluster sum of squared distances.
	WSS float64
	// Converged reports whether the winning restart stabilized within the
	// iteration cap. False only when no restart converged.
	Converged bool
	// Restart is the index of the winning restart.
	Restart int
}

// Run clusters the points into k groups and keeps the lowest-WSS restart.
//
// Restarts that hit the iteration cap without stabilizing are excluded from
// the selection as long as at least one restart converged; if none did, the
// lowest-WSS non-converged result is returned with Converged=false.
func Run(points []feature.Vector, opts Options) (*Result, error) {
	if opts.K < 1 || opts.K > len(points) {
		return nil, fmt.Errorf("%w: k=%d, points=%d", ErrBadK, opts.K, len(points))
	}
	restarts := opts.Restarts
	if restarts == 0 {
		restarts = DefaultRestarts
	}
	if restarts < 1 {
		return nil, fmt.Errorf("%w: restarts=%d", ErrBadRestarts, opts.Restarts)
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	var best *Result
	for r := 0; r < restarts; r++ {
		rng := rand.New(rand.NewSource(restartSeed(opts.Seed, r)))
		res := lloyd(points, opts.K, maxIter, rng)
		res.Restart = r
		if better(res, best) {
			best = res
		}
	}
	return best, nil
}

// restartSeed derives an independent stream seed for one restart.
// The multiplier is a large odd constant so neighboring restarts do not
// share low-order source state.
func restartSeed(seed int64, restart int) int64 {
	return seed + int64(restart)*0x9E3779B9
}

// better reports whether a should replace b as the winning restart.
// Converged restarts always beat non-converged ones; ties fall to WSS.
func better(a, b *Result) bool {
	if b == nil {
		return true
	}
	if a.Converged != b.Converged {
		return a.Converged
	}
	return a.WSS < b.WSS
}

// lloyd runs one restart of Lloyd's algorithm.
func lloyd(points []feature.Vector, k, maxIter int, rng *rand.Rand) *Result {
	centroids := initCentroids(points, k, rng)
	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = -1
	}

	converged := false
	for iter := 0; iter < maxIter; iter++ {
		changed := assign(points, centroids, assignments)
		recompute(points, centroids, assignments, rng)
		if !changed {
			converged = true
			break
		}
	}

	res := &Result{
		Assignments: make([]int, len(points)),
		Centroids:   centroids,
		WSS:         wss(points, centroids, assignments),
		Converged:   converged,
	}
	for i, a := range assignments {
		res.Assignments[i] = a + 1 // 1-based cluster ids
	}
	return res
}

// initCentroids picks k distinct points as starting centers (Forgy
// initialization) using the restart's RNG stream.
func initCentroids(points []feature.Vector, k int, rng *rand.Rand) []feature.Vector {
	perm := rng.Perm(len(points))
	centroids := make([]feature.Vector, k)
	for i := 0; i < k; i++ {
		centroids[i] = points[perm[i]]
	}
	return centroids
}

// assign moves each point to its nearest centroid. Ties break to the
// lowest centroid index. Returns whether any assignment changed.
func assign(points []feature.Vector, centroids []feature.Vector, assignments []int) bool {
	changed := false
	for i, p := range points {
		bestIdx := 0
		bestDist := sqDist(p, centroids[0])
		for c := 1; c < len(centroids); c++ {
			if d := sqDist(p, centroids[c]); d < bestDist {
				bestDist = d
				bestIdx = c
			}
		}
		if assignments[i] != bestIdx {
			assignments[i] = bestIdx
			changed = true
		}
	}
	return changed
}

// recompute replaces each centroid with the mean of its assigned points.
// A cluster that lost all members is reseeded to a random point so k is
// preserved.
func recompute(points []feature.Vector, centroids []feature.Vector, assignments []int, rng *rand.Rand) {
	counts := make([]int, len(centroids))
	sums := make([]feature.Vector, len(centroids))
	for i, a := range assignments {
		counts[a]++
		for d := 0; d < feature.Dims; d++ {
			sums[a][d] += points[i][d]
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			centroids[c] = points[rng.Intn(len(points))]
			continue
		}
		for d := 0; d < feature.Dims; d++ {
			centroids[c][d] = sums[c][d] / float64(counts[c])
		}
	}
}

// wss sums squared distances from each point to its assigned centroid.
func wss(points []feature.Vector, centroids []feature.Vector, assignments []int) float64 {
	var total float64
	for i, a := range assignments {
		total += sqDist(points[i], centroids[a])
	}
	return total
}

func sqDist(a, b feature.Vector) float64 {
	var sum float64
	for d := 0; d < feature.Dims; d++ {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}

// Distinct counts the unique points in the matrix; callers can use it to
// reject k values larger than the number of distinguishable customers.
func Distinct(points []feature.Vector) int {
	seen := make(map[feature.Vector]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}
