package feature

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/runger/rfmseg/internal/rfm"
)

const eps = 1e-9

func sampleRecords() []rfm.Record {
	return []rfm.Record{
		{CustomerID: "a", Recency: 0, Frequency: 1, Monetary: 50},
		{CustomerID: "b", Recency: 30, Frequency: 2, Monetary: 300},
		{CustomerID: "c", Recency: 200, Frequency: 1, Monetary: 80},
		{CustomerID: "d", Recency: 365, Frequency: 5, Monetary: 1200},
	}
}

func TestLogTransform_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, r := range sampleRecords() {
		v := logTransform(r)
		if got := math.Expm1(v[0]); math.Abs(got-float64(r.Recency)) > eps {
			t.Errorf("recency round-trip = %v, want %d", got, r.Recency)
		}
		if got := math.Expm1(v[1]); math.Abs(got-float64(r.Frequency)) > eps {
			t.Errorf("frequency round-trip = %v, want %d", got, r.Frequency)
		}
		if got := math.Expm1(v[2]); math.Abs(got-r.Monetary) > 1e-6 {
			t.Errorf("monetary round-trip = %v, want %v", got, r.Monetary)
		}
	}
}

func TestPrepare_StandardizedColumns(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	matrix, _, err := Prepare(records)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if len(matrix) != len(records) {
		t.Fatalf("got %d vectors, want %d (one-to-one)", len(matrix), len(records))
	}

	n := float64(len(matrix))
	for d := 0; d < Dims; d++ {
		var sum, sumSq float64
		for _, v := range matrix {
			sum += v[d]
			sumSq += v[d] * v[d]
		}
		mean := sum / n
		variance := sumSq/n - mean*mean
		if math.Abs(mean) > 1e-9 {
			t.Errorf("column %d mean = %v, want ~0", d, mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Errorf("column %d variance = %v, want ~1", d, variance)
		}
	}
}

func TestFit_ZeroVariance(t *testing.T) {
	t.Parallel()

	// All frequencies identical: the frequency column is constant.
	records := []rfm.Record{
		{CustomerID: "a", Recency: 10, Frequency: 1, Monetary: 50},
		{CustomerID: "b", Recency: 20, Frequency: 1, Monetary: 60},
		{CustomerID: "c", Recency: 30, Frequency: 1, Monetary: 70},
	}

	_, err := Fit(records)
	if !errors.Is(err, ErrZeroVariance) {
		t.Fatalf("err = %v, want ErrZeroVariance", err)
	}
	if got := err.Error(); !strings.Contains(got, "frequency") {
		t.Errorf("error %q does not name the offending column", got)
	}
}

func TestFit_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Fit(nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestTransform_NoNaN(t *testing.T) {
	t.Parallel()

	matrix, _, err := Prepare(sampleRecords())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	for i, v := range matrix {
		for d := 0; d < Dims; d++ {
			if math.IsNaN(v[d]) || math.IsInf(v[d], 0) {
				t.Errorf("vector %d dim %d = %v", i, d, v[d])
			}
		}
	}
}
