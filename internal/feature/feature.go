// Package feature turns raw RFM records into the scaled matrix the
// clustering stage consumes.
//
// Scaling is an explicit two-phase, whole-batch operation: first the
// log-transformed population statistics are fitted over every record, then
// each record is standardized with those statistics. There is deliberately
// no streaming path; the full record set must be materialized first.
package feature

import (
	"errors"
	"fmt"
	"math"

	"github.com/runger/rfmseg/internal/rfm"
)

// Dims is the fixed dimensionality of the feature space: recency,
// frequency, monetary.
const Dims = 3

// Column names, indexed by feature dimension.
var columns = [Dims]string{"recency", "frequency", "monetary"}

// ErrZeroVariance is returned when a feature column is constant across the
// population, which makes standardization undefined and indicates a data
// problem upstream.
var ErrZeroVariance = errors.New("zero variance in feature column")

// ErrEmptyInput is returned when there are no records to scale.
var ErrEmptyInput = errors.New("no records to scale")

// Vector is one customer's position in the scaled feature space.
type Vector [Dims]float64

// Scaler holds the population statistics of the log-transformed metrics.
type Scaler struct {
	Mean   [Dims]float64
	StdDev [Dims]float64
}

// logTransform maps a record to ln(m+1) per metric. The +1 offset keeps
// recency 0 defined and is applied to all three metrics for consistency.
func logTransform(r rfm.Record) Vector {
	return Vector{
		math.Log1p(float64(r.Recency)),
		math.Log1p(float64(r.Frequency)),
		math.Log1p(r.Monetary),
	}
}

// Fit computes population mean and standard deviation of the
// log-transformed metrics over all records.
func Fit(records []rfm.Record) (*Scaler, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	n := float64(len(records))
	var sum, sumSq [Dims]float64
	for _, r := range records {
		v := logTransform(r)
		for d := 0; d < Dims; d++ {
			sum[d] += v[d]
			sumSq[d] += v[d] * v[d]
		}
	}

	var s Scaler
	for d := 0; d < Dims; d++ {
		s.Mean[d] = sum[d] / n
		variance := sumSq[d]/n - s.Mean[d]*s.Mean[d]
		if variance < 0 {
			variance = 0 // float noise on near-constant columns
		}
		s.StdDev[d] = math.Sqrt(variance)
		if s.StdDev[d] == 0 {
			return nil, fmt.Errorf("%w: %s", ErrZeroVariance, columns[d])
		}
	}
	return &s, nil
}

// Transform standardizes one record with the fitted statistics.
func (s *Scaler) Transform(r rfm.Record) Vector {
	v := logTransform(r)
	for d := 0; d < Dims; d++ {
		v[d] = (v[d] - s.Mean[d]) / s.StdDev[d]
	}
	return v
}

// Prepare fits the scaler over the whole record set and returns the scaled
// matrix, one vector per record in input order.
func Prepare(records []rfm.Record) ([]Vector, *Scaler, error) {
	scaler, err := Fit(records)
	if err != nil {
		return nil, nil, err
	}
	matrix := make([]Vector, len(records))
	for i, r := range records {
		matrix[i] = scaler.Transform(r)
	}
	return matrix, scaler, nil
}
