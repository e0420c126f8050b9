// Package forecasters holds the in-process models used when no remote model
// service is configured.
package forecasters

import (
	"context"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
)

// Persistence predicts that the next value equals the last one in the window.
type Persistence struct{}

func NewPersistence() *Persistence { return &Persistence{} }

func (p *Persistence) Name() string { return "persistence" }

func (p *Persistence) Fit(_ context.Context, _ []models.Window) (domsvc.Model, error) {
	return struct{}{}, nil
}

func (p *Persistence) Predict(_ context.Context, _ domsvc.Model, windows []models.Window) ([]float64, error) {
	out := make([]float64, len(windows))
	for i, w := range windows {
		out[i] = w.Last(0)
	}
	return out, nil
}

var _ domsvc.Forecaster = (*Persistence)(nil)
