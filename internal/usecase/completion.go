package usecase

import (
	"math"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/providers"
)

// Complete synthesizes required price columns the source did not provide and
// returns their names. With a Close column, Open/High/Low are derived from it.
// Without one, a walk seeded from the symbol replaces all four prices. The
// generator is seeded from the symbol, so the same input completes the same way.
func Complete(ds *models.Dataset) []string {
	var missing []string
	for _, col := range models.RequiredColumns {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 || ds.Len() == 0 {
		return nil
	}

	r := providers.NewRand(ds.Symbol)
	n := ds.Len()

	if ds.HasColumn(models.ColClose) {
		bands := map[string][2]float64{
			models.ColOpen: {0.98, 1.02},
			models.ColHigh: {1.0, 1.03},
			models.ColLow:  {0.97, 1.0},
		}
		var made []string
		for _, col := range missing {
			b, ok := bands[col]
			if !ok {
				continue
			}
			for i := range ds.Candles {
				ds.Candles[i].SetValue(col, ds.Candles[i].Close*providers.Uniform(r, b[0], b[1]))
			}
			ds.AddColumn(col)
			made = append(made, col)
		}
		ds.SortByDate()
		return made
	}

	closes := providers.Walk(r, providers.BasePrice(ds.Symbol), n)
	for i := range ds.Candles {
		c := &ds.Candles[i]
		c.Close = closes[i]
		c.Open = closes[i] * providers.Uniform(r, 0.98, 1.02)
	}
	for i := range ds.Candles {
		c := &ds.Candles[i]
		c.High = math.Max(c.Open, c.Close) * providers.Uniform(r, 1.0, 1.03)
	}
	for i := range ds.Candles {
		c := &ds.Candles[i]
		c.Low = math.Min(c.Open, c.Close) * providers.Uniform(r, 0.97, 1.0)
	}
	for _, col := range []string{models.ColOpen, models.ColHigh, models.ColLow, models.ColClose} {
		ds.AddColumn(col)
	}
	ds.SortByDate()
	return []string{models.ColOpen, models.ColHigh, models.ColLow, models.ColClose}
}
