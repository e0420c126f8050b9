// Package features derives summary statistics from daily closes.
package features

import (
	"math"

	"FinCast/internal/domain/models"
)

// TradingDaysPerYear annualizes daily figures.
const TradingDaysPerYear = 252

// LogReturns computes r_t = ln(C_t / C_{t-1}). Non-positive prices yield 0.
// The result has len(closes)-1 entries, or nil for fewer than two closes.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev, cur := closes[i-1], closes[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility is the annualized sample deviation of the last window
// returns. It returns 0 when fewer than window returns exist.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for _, r := range logReturns[len(logReturns)-window:] {
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// Summary describes the close series of a dataset.
type Summary struct {
	LastClose  float64 `json:"last_close"`
	LastReturn float64 `json:"last_return"`
	Volatility float64 `json:"realized_volatility"`
}

// Summarize uses every available return for the volatility estimate.
func Summarize(ds *models.Dataset) Summary {
	closes, ok := ds.Column(models.ColClose)
	if !ok || len(closes) == 0 {
		return Summary{}
	}
	s := Summary{LastClose: closes[len(closes)-1]}
	rets := LogReturns(closes)
	if len(rets) > 0 {
		s.LastReturn = rets[len(rets)-1]
		s.Volatility = RealizedVolatility(rets, len(rets), TradingDaysPerYear)
	}
	return s
}
