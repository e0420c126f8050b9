package models

import "time"

// ModelKind selects a forecasting profile.
type ModelKind string

const (
	KindTransformer ModelKind = "transformer"
	KindLSTM        ModelKind = "lstm"
	KindProphet     ModelKind = "prophet"
)

// Window is a fixed-length slice of scaled feature rows and the next-step
// value of feature 0.
type Window struct {
	Input  [][]float64 `json:"input"`
	Target float64     `json:"target"`
}

// Last returns the final value of a feature in the window.
func (w Window) Last(feature int) float64 {
	return w.Input[len(w.Input)-1][feature]
}

// Metrics are accuracy figures in original units.
type Metrics struct {
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// ForecastRecord is a point forecast with bounds.
type ForecastRecord struct {
	Dates     []string  `json:"ds"`
	Yhat      []float64 `json:"yhat"`
	YhatLower []float64 `json:"yhat_lower"`
	YhatUpper []float64 `json:"yhat_upper"`
}

// ForecastResult has the same fields whether or not the model succeeded.
// FuturePredictions is a naive random walk from the last observed value and
// does not come from the model.
type ForecastResult struct {
	ID                string         `json:"id"`
	Symbol            string         `json:"symbol"`
	Kind              ModelKind      `json:"model"`
	TargetColumn      string         `json:"column"`
	WindowSize        int            `json:"window_size"`
	TrainWindows      int            `json:"train_windows"`
	TestWindows       int            `json:"test_windows"`
	Metrics           Metrics        `json:"metrics"`
	Predictions       []float64      `json:"predictions"`
	Actuals           []float64      `json:"actuals"`
	TestDates         []string       `json:"test_dates"`
	FuturePredictions []float64      `json:"future_predictions"`
	FutureDates       []string       `json:"future_dates"`
	Forecast          ForecastRecord `json:"forecast"`
	Degraded          bool           `json:"degraded"`
	Warning           string         `json:"warning"`
	ExtrapolationNote string         `json:"extrapolation_note"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// ForecastEvent is published after every run.
type ForecastEvent struct {
	ID       string    `json:"id"`
	Symbol   string    `json:"symbol"`
	Kind     ModelKind `json:"model"`
	Column   string    `json:"column"`
	Degraded bool      `json:"degraded"`
	Metrics  Metrics   `json:"metrics"`
	At       time.Time `json:"at"`
}

// DatasetEvent is published when the cascade resolves a dataset from a
// fresh fetch.
type DatasetEvent struct {
	Symbol     string    `json:"symbol"`
	Source     Source    `json:"source"`
	Start      string    `json:"start_date"`
	End        string    `json:"end_date"`
	Rows       int       `json:"rows"`
	LastClose  float64   `json:"last_close"`
	Volatility float64   `json:"realized_volatility"`
	At         time.Time `json:"at"`
}
