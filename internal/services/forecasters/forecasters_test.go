package forecasters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

func win(target float64, rows ...[]float64) models.Window {
	return models.Window{Input: rows, Target: target}
}

func TestPersistence_PredictsLastValue(t *testing.T) {
	p := NewPersistence()
	m, err := p.Fit(context.Background(), nil)
	require.NoError(t, err)

	out, err := p.Predict(context.Background(), m, []models.Window{
		win(0, []float64{1}, []float64{2}),
		win(0, []float64{5}, []float64{3}),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, out)
}

func TestLinearTrend_ExtrapolatesLine(t *testing.T) {
	l := NewLinearTrend(-1)
	m, err := l.Fit(context.Background(), nil)
	require.NoError(t, err)

	out, err := l.Predict(context.Background(), m, []models.Window{
		win(0, []float64{1}, []float64{3}, []float64{5}),
		win(0, []float64{4}, []float64{4}),
	})
	require.NoError(t, err)
	assert.InDelta(t, 7, out[0], 1e-12)
	assert.InDelta(t, 4, out[1], 1e-12)
}

func TestLinearTrend_WeekdayOffset(t *testing.T) {
	l := NewLinearTrend(1)
	// Flat windows; targets on weekday 0.25 sit 1 above the line, on 0.5 exactly on it.
	train := []models.Window{
		win(3, []float64{2, 0}, []float64{2, 0.25}),
		win(3, []float64{2, 0}, []float64{2, 0.25}),
		win(2, []float64{2, 0}, []float64{2, 0.5}),
	}
	m, err := l.Fit(context.Background(), train)
	require.NoError(t, err)

	out, err := l.Predict(context.Background(), m, []models.Window{
		win(0, []float64{5, 0}, []float64{5, 0.25}),
		win(0, []float64{5, 0}, []float64{5, 0.5}),
		win(0, []float64{5, 0}, []float64{5, 0.75}),
	})
	require.NoError(t, err)
	assert.InDelta(t, 6, out[0], 1e-9)
	assert.InDelta(t, 5, out[1], 1e-9)
	assert.InDelta(t, 5, out[2], 1e-9, "unseen weekday gets no offset")
}

func TestLinearTrend_RejectsForeignModel(t *testing.T) {
	_, err := NewLinearTrend(-1).Predict(context.Background(), struct{}{}, nil)
	assert.Error(t, err)
}
