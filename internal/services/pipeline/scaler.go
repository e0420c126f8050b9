package pipeline

import (
	"fmt"
	"math"

	"FinCast/internal/domain/models"
)

type ScalerKind string

const (
	ScalerMinMax   ScalerKind = "minmax"
	ScalerStandard ScalerKind = "standard"
)

// ScalingContext is a fitted per-column affine transform: x' = (x - offset) / scale.
type ScalingContext struct {
	Kind    ScalerKind
	Columns []string
	offset  []float64
	scale   []float64
}

// FitScaler fits kind over rows (n × F). MinMax maps each column to [0,1];
// Standard uses mean and population standard deviation. A constant column
// gets scale 1.
func FitScaler(kind ScalerKind, columns []string, rows [][]float64) (*ScalingContext, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to scale", models.ErrInvalidInput)
	}
	f := len(columns)
	s := &ScalingContext{Kind: kind, Columns: columns, offset: make([]float64, f), scale: make([]float64, f)}

	for j := 0; j < f; j++ {
		switch kind {
		case ScalerMinMax:
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, r := range rows {
				lo = math.Min(lo, r[j])
				hi = math.Max(hi, r[j])
			}
			s.offset[j], s.scale[j] = lo, hi-lo
		case ScalerStandard:
			var sum float64
			for _, r := range rows {
				sum += r[j]
			}
			mean := sum / float64(len(rows))
			var ss float64
			for _, r := range rows {
				d := r[j] - mean
				ss += d * d
			}
			s.offset[j], s.scale[j] = mean, math.Sqrt(ss/float64(len(rows)))
		default:
			return nil, fmt.Errorf("%w: unknown scaler %q", models.ErrInvalidInput, kind)
		}
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}
	return s, nil
}

// Width is the number of features.
func (s *ScalingContext) Width() int { return len(s.scale) }

// Transform scales one row into a new slice.
func (s *ScalingContext) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.offset[j]) / s.scale[j]
	}
	return out
}

// InverseRow undoes Transform.
func (s *ScalingContext) InverseRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = v*s.scale[j] + s.offset[j]
	}
	return out
}

// Inverse maps scaled values of one column back to original units. Each value
// is placed in a zero-filled row of full width and inverted through the joint
// transform.
func (s *ScalingContext) Inverse(col int, values []float64) []float64 {
	out := make([]float64, len(values))
	scratch := make([]float64, s.Width())
	for i, v := range values {
		for j := range scratch {
			scratch[j] = 0
		}
		scratch[col] = v
		out[i] = s.InverseRow(scratch)[col]
	}
	return out
}
