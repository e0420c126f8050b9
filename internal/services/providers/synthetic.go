package providers

import (
	"context"
	"crypto/md5"
	"math/big"
	"math/rand/v2"
	"time"

	"FinCast/internal/domain/models"
	"FinCast/pkg/util"
)

// Synthetic generates a deterministic random-walk series per symbol. It is the
// last cascade stage and only fails on an empty date range.
type Synthetic struct{}

func NewSynthetic() *Synthetic { return &Synthetic{} }

func (s *Synthetic) Name() string          { return NameSynthetic }
func (s *Synthetic) Source() models.Source { return models.SourceSynthetic }
func (s *Synthetic) Label() string         { return "Demo Data (Offline Mode)" }

// Seed derives the generator seed from the symbol: md5 as a big integer mod 10000.
func Seed(symbol string) uint64 {
	sum := md5.Sum([]byte(symbol))
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, big.NewInt(10000)).Uint64()
}

// NewRand returns a PCG generator seeded from the symbol.
func NewRand(symbol string) *rand.Rand {
	seed := Seed(symbol)
	return rand.New(rand.NewPCG(seed, seed))
}

// BasePrice is the starting level of the walk, between 100 and 499.
func BasePrice(symbol string) float64 {
	return float64(100 + Seed(symbol)%400)
}

// Walk returns n prices base·(1+Σr) with daily returns r ~ N(0.0005, 0.015).
func Walk(r *rand.Rand, base float64, n int) []float64 {
	out := make([]float64, n)
	cum := 0.0
	for i := range out {
		cum += 0.0005 + 0.015*r.NormFloat64()
		out[i] = base * (1 + cum)
	}
	return out
}

// Uniform draws from [lo, hi).
func Uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func (s *Synthetic) Fetch(_ context.Context, symbol string, start, end time.Time) (*models.RawTable, error) {
	n := util.DaysInclusive(start, end)
	if n == 0 {
		return nil, models.ErrNoDataAvailable
	}

	r := NewRand(symbol)
	closes := Walk(r, BasePrice(symbol), n)
	opens := scaled(r, closes, 0.98, 0.995)
	highs := scaled(r, closes, 1.01, 1.03)
	lows := scaled(r, closes, 0.97, 0.99)

	day := util.CalendarDate(start)
	t := &models.RawTable{
		Columns: []string{models.ColDate, models.ColOpen, models.ColHigh, models.ColLow, models.ColClose, models.ColVolume},
		Rows:    make([]map[string]any, n),
	}
	for i := 0; i < n; i++ {
		t.Rows[i] = map[string]any{
			models.ColDate:   day.AddDate(0, 0, i),
			models.ColOpen:   opens[i],
			models.ColHigh:   highs[i],
			models.ColLow:    lows[i],
			models.ColClose:  closes[i],
			models.ColVolume: int64(10000 + r.IntN(990000)),
		}
	}
	return t, nil
}

func scaled(r *rand.Rand, base []float64, lo, hi float64) []float64 {
	out := make([]float64, len(base))
	for i, v := range base {
		out[i] = v * Uniform(r, lo, hi)
	}
	return out
}
