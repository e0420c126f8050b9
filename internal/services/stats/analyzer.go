// Package stats implements the statistical pass-throughs of the market API.
package stats

import (
	"context"
	"fmt"
	"math"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	"FinCast/pkg/logger"
)

const (
	// ADFCritical5 is the MacKinnon 5% critical value for the constant-only case.
	ADFCritical5 = -2.86

	minADFPoints  = 8
	DefaultPeriod = 12
)

type Analyzer struct {
	log *logger.Logger
}

func NewAnalyzer(l *logger.Logger) *Analyzer {
	if l == nil {
		l = logger.NewNop()
	}
	return &Analyzer{log: l}
}

// Stationarity runs an augmented Dickey-Fuller test with a constant and one
// lagged difference:
//
//	Δy_t = a + b·y_{t-1} + c·Δy_{t-1} + e_t
//
// The statistic is the t-ratio of b.
func (a *Analyzer) Stationarity(_ context.Context, series []float64) (domsvc.StationarityResult, error) {
	if len(series) < minADFPoints {
		return domsvc.StationarityResult{}, fmt.Errorf("%w: stationarity needs at least %d points, got %d", models.ErrInvalidInput, minADFPoints, len(series))
	}
	if err := finite(series); err != nil {
		return domsvc.StationarityResult{}, err
	}

	n := len(series)
	x := make([][]float64, 0, n-2)
	y := make([]float64, 0, n-2)
	for t := 2; t < n; t++ {
		x = append(x, []float64{1, series[t-1], series[t-1] - series[t-2]})
		y = append(y, series[t]-series[t-1])
	}

	beta, xtxInv, err := ols(x, y)
	if err != nil {
		return domsvc.StationarityResult{}, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	var ssr float64
	for i, row := range x {
		r := y[i] - dot(row, beta)
		ssr += r * r
	}
	dof := float64(len(y) - len(beta))
	se := math.Sqrt(ssr / dof * xtxInv[1][1])

	var stat float64
	switch {
	case se > 0:
		stat = beta[1] / se
	case beta[1] < 0:
		stat = math.Inf(-1)
	default:
		stat = math.Inf(1)
	}

	res := domsvc.StationarityResult{
		IsStationary:  stat < ADFCritical5,
		Statistic:     stat,
		CriticalValue: ADFCritical5,
		Lags:          1,
		Observations:  len(y),
	}
	a.log.Debug("adf test", logger.Int("nobs", res.Observations), logger.Float64("stat", stat))
	return res, nil
}

// Decompose splits series additively into trend, seasonal and residual parts.
// Trend and residual are nil for the first and last period/2 points.
func (a *Analyzer) Decompose(_ context.Context, series []float64, period int) (domsvc.Decomposition, error) {
	if period < 2 {
		return domsvc.Decomposition{}, fmt.Errorf("%w: period must be at least 2, got %d", models.ErrInvalidInput, period)
	}
	n := len(series)
	if n < 2*period {
		return domsvc.Decomposition{}, fmt.Errorf("%w: decomposition needs at least %d points for period %d, got %d", models.ErrInvalidInput, 2*period, period, n)
	}
	if err := finite(series); err != nil {
		return domsvc.Decomposition{}, err
	}

	trend := movingAverage(series, period)

	sums := make([]float64, period)
	counts := make([]int, period)
	for i, tr := range trend {
		if tr == nil {
			continue
		}
		sums[i%period] += series[i] - *tr
		counts[i%period]++
	}
	phase := make([]float64, period)
	var mean float64
	for p := range phase {
		if counts[p] > 0 {
			phase[p] = sums[p] / float64(counts[p])
		}
		mean += phase[p]
	}
	mean /= float64(period)

	out := domsvc.Decomposition{
		Trend:    trend,
		Seasonal: make([]*float64, n),
		Resid:    make([]*float64, n),
	}
	for i := range series {
		s := phase[i%period] - mean
		out.Seasonal[i] = &s
		if trend[i] != nil {
			r := series[i] - *trend[i] - s
			out.Resid[i] = &r
		}
	}
	return out, nil
}

// movingAverage is a centered MA of length period; even periods use the 2×period
// MA with half weights on both ends.
func movingAverage(series []float64, period int) []*float64 {
	n := len(series)
	half := period / 2
	out := make([]*float64, n)
	for i := half; i < n-half; i++ {
		var sum float64
		if period%2 == 1 {
			for j := i - half; j <= i+half; j++ {
				sum += series[j]
			}
		} else {
			sum = 0.5*series[i-half] + 0.5*series[i+half]
			for j := i - half + 1; j < i+half; j++ {
				sum += series[j]
			}
		}
		v := sum / float64(period)
		out[i] = &v
	}
	return out
}

func finite(series []float64) error {
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at %d", models.ErrInvalidInput, i)
		}
	}
	return nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// ols solves the normal equations and returns the coefficients with (X'X)^-1.
func ols(x [][]float64, y []float64) ([]float64, [][]float64, error) {
	k := len(x[0])
	xtx := make([][]float64, k)
	xty := make([]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	for r, row := range x {
		for i := 0; i < k; i++ {
			xty[i] += row[i] * y[r]
			for j := 0; j < k; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}
	inv, err := invert(xtx)
	if err != nil {
		return nil, nil, err
	}
	beta := make([]float64, k)
	for i := range beta {
		beta[i] = dot(inv[i], xty)
	}
	return beta, inv, nil
}

// invert uses Gauss-Jordan elimination with partial pivoting.
func invert(m [][]float64) ([][]float64, error) {
	k := len(m)
	a := make([][]float64, k)
	for i := range a {
		a[i] = make([]float64, 2*k)
		copy(a[i], m[i])
		a[i][k+i] = 1
	}
	for col := 0; col < k; col++ {
		pivot := col
		for r := col + 1; r < k; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("regression is singular (constant or degenerate series)")
		}
		a[col], a[pivot] = a[pivot], a[col]
		p := a[col][col]
		for j := range a[col] {
			a[col][j] /= p
		}
		for r := 0; r < k; r++ {
			if r == col {
				continue
			}
			f := a[r][col]
			for j := range a[r] {
				a[r][j] -= f * a[col][j]
			}
		}
	}
	inv := make([][]float64, k)
	for i := range inv {
		inv[i] = a[i][k:]
	}
	return inv, nil
}

var _ domsvc.StatsAnalyzer = (*Analyzer)(nil)
