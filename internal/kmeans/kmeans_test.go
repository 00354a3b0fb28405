package kmeans

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/runger/rfmseg/internal/feature"
)

// blobs generates n points around each of the given centers with a small
// deterministic jitter.
func blobs(n int, spread float64, centers ...feature.Vector) []feature.Vector {
	rng := rand.New(rand.NewSource(1))
	var points []feature.Vector
	for _, c := range centers {
		for i := 0; i < n; i++ {
			var p feature.Vector
			for d := 0; d < feature.Dims; d++ {
				p[d] = c[d] + rng.NormFloat64()*spread
			}
			points = append(points, p)
		}
	}
	return points
}

func TestRun_SeparatedBlobs(t *testing.T) {
	t.Parallel()

	points := blobs(20, 0.05,
		feature.Vector{-3, -3, -3},
		feature.Vector{3, 3, 3},
	)

	res, err := Run(points, Options{K: 2, Restarts: 10, Seed: 42})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Converged {
		t.Error("expected convergence on trivially separable data")
	}

	// All points of one blob must share a cluster id, and the two blobs
	// must differ.
	first := res.Assignments[0]
	for i := 1; i < 20; i++ {
		if res.Assignments[i] != first {
			t.Fatalf("blob 1 split across clusters at point %d", i)
		}
	}
	second := res.Assignments[20]
	if second == first {
		t.Fatal("both blobs landed in the same cluster")
	}
	for i := 21; i < 40; i++ {
		if res.Assignments[i] != second {
			t.Fatalf("blob 2 split across clusters at point %d", i)
		}
	}

	// Ids are 1-based.
	for _, a := range res.Assignments {
		if a < 1 || a > 2 {
			t.Fatalf("assignment %d outside 1..2", a)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	points := blobs(15, 0.5,
		feature.Vector{-1, 0, 1},
		feature.Vector{2, 2, -1},
		feature.Vector{0, -2, 0},
	)

	a, err := Run(points, Options{K: 3, Restarts: 25, Seed: 7})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := Run(points, Options{K: 3, Restarts: 25, Seed: 7})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(a.Assignments, b.Assignments) {
		t.Error("assignments differ across identical seeded runs")
	}
	if a.WSS != b.WSS {
		t.Errorf("WSS differs: %v vs %v", a.WSS, b.WSS)
	}
	if a.Restart != b.Restart {
		t.Errorf("winning restart differs: %d vs %d", a.Restart, b.Restart)
	}
}

func TestRun_KEqualsOne(t *testing.T) {
	t.Parallel()

	points := blobs(10, 1.0, feature.Vector{0, 0, 0})
	res, err := Run(points, Options{K: 1, Restarts: 3, Seed: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, a := range res.Assignments {
		if a != 1 {
			t.Fatalf("assignment = %d, want 1", a)
		}
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	t.Parallel()

	points := blobs(5, 0.1, feature.Vector{0, 0, 0})

	if _, err := Run(points, Options{K: 0, Restarts: 1}); !errors.Is(err, ErrBadK) {
		t.Errorf("k=0: err = %v, want ErrBadK", err)
	}
	if _, err := Run(points, Options{K: 6, Restarts: 1}); !errors.Is(err, ErrBadK) {
		t.Errorf("k>n: err = %v, want ErrBadK", err)
	}
	if _, err := Run(points, Options{K: 2, Restarts: -1}); !errors.Is(err, ErrBadRestarts) {
		t.Errorf("restarts=-1: err = %v, want ErrBadRestarts", err)
	}
}

func TestRun_DefaultsApplied(t *testing.T) {
	t.Parallel()

	points := blobs(10, 0.2, feature.Vector{0, 0, 0}, feature.Vector{5, 5, 5})
	res, err := Run(points, Options{K: 2, Seed: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res == nil || len(res.Assignments) != 20 {
		t.Fatal("expected a full result with default restarts/iterations")
	}
}

func TestDistinct(t *testing.T) {
	t.Parallel()

	points := []feature.Vector{
		{1, 1, 1}, {1, 1, 1}, {2, 2, 2},
	}
	if got := Distinct(points); got != 2 {
		t.Errorf("Distinct = %d, want 2", got)
	}
}
