package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"FinCast/internal/domain/models"
)

func TestLogReturns(t *testing.T) {
	assert.Nil(t, LogReturns([]float64{1}))
	r := LogReturns([]float64{100, 110, 0, 121})
	assert.Len(t, r, 3)
	assert.InDelta(t, math.Log(1.1), r[0], 1e-12)
	assert.Zero(t, r[1])
	assert.Zero(t, r[2])
}

func TestRealizedVolatility(t *testing.T) {
	assert.Zero(t, RealizedVolatility([]float64{0.01}, 2, 252))
	assert.InDelta(t, 0, RealizedVolatility([]float64{0.01, 0.01, 0.01}, 3, 252), 1e-6)

	v := RealizedVolatility([]float64{0.01, -0.01}, 2, 252)
	assert.InDelta(t, math.Sqrt(0.0002*252), v, 1e-12)
}

func TestSummarize(t *testing.T) {
	ds := &models.Dataset{Columns: []string{"Date", "Close"}}
	for i, c := range []float64{100, 101, 99, 102} {
		ds.Candles = append(ds.Candles, models.Candle{Date: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC), Close: c})
	}
	s := Summarize(ds)
	assert.Equal(t, 102.0, s.LastClose)
	assert.InDelta(t, math.Log(102.0/99.0), s.LastReturn, 1e-12)
	assert.Positive(t, s.Volatility)

	assert.Equal(t, Summary{}, Summarize(&models.Dataset{}))
}
