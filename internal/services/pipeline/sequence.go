// Package pipeline turns a dataset into scaled fixed-length windows with a
// chronological train/test split.
package pipeline

import (
	"fmt"
	"math"
	"time"

	"FinCast/internal/domain/models"
)

const (
	MinTrainWindows = 10
	MinTestWindows  = 3

	// rowMargin is how many rows beyond one window a dataset must have.
	rowMargin     = 5
	trainFraction = 0.8
)

type Options struct {
	TargetColumn     string
	CalendarFeatures bool
	WindowSize       int
	Scaler           ScalerKind
}

// Result holds the windows and everything needed to map predictions back.
// Window inputs share row storage and must be treated as read-only.
type Result struct {
	Train     []models.Window
	Test      []models.Window
	Scaling   *ScalingContext
	Features  []string
	TrainSize int
	// TestDates and Actuals line up with the test windows: rows TrainSize..n-1.
	TestDates []time.Time
	Actuals   []float64
	LastDate  time.Time
	LastValue float64
}

// FitAndWindow builds features, fits the scaler over all rows, splits 80/20
// chronologically and windows both parts. The test part starts W rows before
// the split so its first window predicts the first held-out row.
func FitAndWindow(ds *models.Dataset, opts Options) (*Result, error) {
	w := opts.WindowSize
	if w < 1 {
		return nil, fmt.Errorf("%w: window size must be positive, got %d", models.ErrInvalidInput, w)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", models.ErrInvalidInput)
	}
	target, ok := ds.Column(opts.TargetColumn)
	if !ok {
		return nil, models.ColumnNotFound(opts.TargetColumn)
	}
	for i, v := range target {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite %s at row %d", models.ErrInvalidInput, opts.TargetColumn, i)
		}
	}

	n := len(target)
	if n <= w+rowMargin-1 {
		return nil, &models.InsufficientDataError{Rows: n, Required: w + rowMargin, Window: w}
	}
	trainSize := int(math.Floor(trainFraction * float64(n)))
	trainWindows := trainSize - w
	testWindows := n - trainSize
	if trainSize <= w || trainWindows < MinTrainWindows || testWindows < MinTestWindows {
		if trainWindows < 0 {
			trainWindows = 0
		}
		return nil, &models.InsufficientSequencesError{
			Train: trainWindows, Test: testWindows,
			MinTrain: MinTrainWindows, MinTest: MinTestWindows,
		}
	}

	features := []string{opts.TargetColumn}
	if opts.CalendarFeatures {
		features = append(features, FeatureDayOfWeek, FeatureDayOfMonth, FeatureMonth)
	}
	raw := make([][]float64, n)
	for i := range raw {
		row := make([]float64, 0, len(features))
		row = append(row, target[i])
		if opts.CalendarFeatures {
			row = append(row, calendarFeatures(ds.Candles[i].Date)...)
		}
		raw[i] = row
	}

	kind := opts.Scaler
	if kind == "" {
		kind = ScalerMinMax
	}
	sc, err := FitScaler(kind, features, raw)
	if err != nil {
		return nil, err
	}
	scaled := make([][]float64, n)
	for i, r := range raw {
		scaled[i] = sc.Transform(r)
	}

	res := &Result{
		Train:     Windows(scaled[:trainSize], w),
		Test:      Windows(scaled[trainSize-w:], w),
		Scaling:   sc,
		Features:  features,
		TrainSize: trainSize,
		TestDates: make([]time.Time, 0, testWindows),
		LastDate:  ds.Candles[n-1].Date,
		LastValue: target[n-1],
	}
	targets := make([]float64, len(res.Test))
	for i, win := range res.Test {
		targets[i] = win.Target
	}
	res.Actuals = sc.Inverse(0, targets)
	for i := trainSize; i < n; i++ {
		res.TestDates = append(res.TestDates, ds.Candles[i].Date)
	}
	return res, nil
}

// Windows slides a window of length w over rows: input rows[i:i+w], target
// feature 0 of rows[i+w]. L rows give L-w windows.
func Windows(rows [][]float64, w int) []models.Window {
	if len(rows) <= w {
		return []models.Window{}
	}
	out := make([]models.Window, 0, len(rows)-w)
	for i := 0; i+w < len(rows); i++ {
		out = append(out, models.Window{Input: rows[i : i+w], Target: rows[i+w][0]})
	}
	return out
}
