package forecasters

import (
	"context"
	"fmt"
	"math"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
)

// LinearTrend fits a least-squares line through the target feature of each
// window and extrapolates one step. When a weekday feature index is given,
// the mean training residual per weekday of the last input row is added back.
type LinearTrend struct {
	weekday int
}

// NewLinearTrend builds the model. weekdayFeature < 0 disables the weekday offset.
func NewLinearTrend(weekdayFeature int) *LinearTrend {
	return &LinearTrend{weekday: weekdayFeature}
}

type trendModel struct {
	offsets map[int64]float64
}

func (l *LinearTrend) Name() string { return "linear-trend" }

func (l *LinearTrend) Fit(_ context.Context, train []models.Window) (domsvc.Model, error) {
	m := trendModel{offsets: map[int64]float64{}}
	if l.weekday < 0 {
		return m, nil
	}
	sums := map[int64]float64{}
	counts := map[int64]int{}
	for _, w := range train {
		k, ok := l.key(w)
		if !ok {
			return nil, fmt.Errorf("window has no feature %d", l.weekday)
		}
		sums[k] += w.Target - extrapolate(w)
		counts[k]++
	}
	for k, s := range sums {
		m.offsets[k] = s / float64(counts[k])
	}
	return m, nil
}

func (l *LinearTrend) Predict(_ context.Context, model domsvc.Model, windows []models.Window) ([]float64, error) {
	m, ok := model.(trendModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model %T", model)
	}
	out := make([]float64, len(windows))
	for i, w := range windows {
		out[i] = extrapolate(w)
		if k, ok := l.key(w); ok {
			out[i] += m.offsets[k]
		}
	}
	return out, nil
}

// key buckets the scaled weekday value of the last input row.
func (l *LinearTrend) key(w models.Window) (int64, bool) {
	if l.weekday < 0 || len(w.Input) == 0 || l.weekday >= len(w.Input[0]) {
		return 0, false
	}
	return int64(math.Round(w.Last(l.weekday) * 1e6)), true
}

// extrapolate evaluates the OLS line through (i, x_i) at i = len(window).
func extrapolate(w models.Window) float64 {
	n := float64(len(w.Input))
	if n < 2 {
		return w.Last(0)
	}
	var sx, sy, sxx, sxy float64
	for i, row := range w.Input {
		x := float64(i)
		sx += x
		sy += row[0]
		sxx += x * x
		sxy += x * row[0]
	}
	den := n*sxx - sx*sx
	slope := (n*sxy - sx*sy) / den
	intercept := (sy - slope*sx) / n
	return intercept + slope*n
}

var _ domsvc.Forecaster = (*LinearTrend)(nil)
