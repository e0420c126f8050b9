package service

import (
	"context"

	"FinCast/internal/domain/models"
)

// Model is an opaque fitted model handle owned by the Forecaster that made it.
type Model any

// Forecaster fits on training windows and predicts one scaled value per window.
type Forecaster interface {
	Name() string
	Fit(ctx context.Context, train []models.Window) (Model, error)
	Predict(ctx context.Context, m Model, windows []models.Window) ([]float64, error)
}

// StationarityResult is the outcome of a unit-root test.
type StationarityResult struct {
	IsStationary  bool    `json:"is_stationary"`
	Statistic     float64 `json:"adf_statistic"`
	CriticalValue float64 `json:"critical_value"`
	Lags          int     `json:"lags"`
	Observations  int     `json:"nobs"`
}

// Decomposition splits a series into additive components. Nil entries mark
// positions where the component is undefined.
type Decomposition struct {
	Trend    []*float64 `json:"trend"`
	Seasonal []*float64 `json:"seasonal"`
	Resid    []*float64 `json:"resid"`
}

// StatsAnalyzer runs the statistical pass-throughs exposed by the API.
type StatsAnalyzer interface {
	Stationarity(ctx context.Context, series []float64) (StationarityResult, error)
	Decompose(ctx context.Context, series []float64, period int) (Decomposition, error)
}
