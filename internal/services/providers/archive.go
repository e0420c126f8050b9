package providers

import (
	"context"
	"fmt"
	"time"

	"FinCast/internal/domain/models"
	"FinCast/internal/domain/repository"
)

// Archive serves candles previously archived from upstream fetches.
type Archive struct {
	store repository.CandleArchive
}

func NewArchive(store repository.CandleArchive) *Archive {
	return &Archive{store: store}
}

func (a *Archive) Name() string          { return NameArchive }
func (a *Archive) Source() models.Source { return models.SourceArchive }
func (a *Archive) Label() string         { return "Archive" }

func (a *Archive) Fetch(ctx context.Context, symbol string, start, end time.Time) (*models.RawTable, error) {
	candles, err := a.store.Load(ctx, symbol, start, end)
	if err != nil {
		return nil, miss(ctx, a.Name(), err)
	}
	if len(candles) == 0 {
		return nil, miss(ctx, a.Name(), fmt.Errorf("no archived rows"))
	}

	t := &models.RawTable{
		Columns: []string{models.ColDate, models.ColOpen, models.ColHigh, models.ColLow, models.ColClose, models.ColVolume},
		Rows:    make([]map[string]any, len(candles)),
	}
	for i, c := range candles {
		row := map[string]any{
			models.ColDate:   c.Date,
			models.ColOpen:   c.Open,
			models.ColHigh:   c.High,
			models.ColLow:    c.Low,
			models.ColClose:  c.Close,
			models.ColVolume: c.Volume,
		}
		for k, v := range c.Extra {
			row[k] = v
			t.AddColumn(k)
		}
		t.Rows[i] = row
	}
	return t, nil
}
