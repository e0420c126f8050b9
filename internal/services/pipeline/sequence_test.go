package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinCast/internal/domain/models"
)

func series(n int) *models.Dataset {
	ds := &models.Dataset{Symbol: "T", Columns: []string{"Date", "Close"}}
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	for i := 0; i < n; i++ {
		ds.Candles = append(ds.Candles, models.Candle{Date: d.AddDate(0, 0, i), Close: 100 + float64(i) + math.Sin(float64(i))})
	}
	return ds
}

func TestFitAndWindow_Arithmetic(t *testing.T) {
	res, err := FitAndWindow(series(40), Options{TargetColumn: "Close", WindowSize: 10, Scaler: ScalerMinMax})
	require.NoError(t, err)

	assert.Equal(t, 32, res.TrainSize)
	assert.Len(t, res.Train, 22)
	assert.Len(t, res.Test, 8)
	assert.Len(t, res.TestDates, 8)
	assert.Len(t, res.Actuals, 8)
	for _, w := range append(res.Train, res.Test...) {
		assert.Len(t, w.Input, 10)
	}
}

func TestFitAndWindow_WindowCountIsLMinusW(t *testing.T) {
	for _, tc := range []struct{ n, w int }{{40, 10}, {60, 7}, {200, 30}, {100, 2}} {
		res, err := FitAndWindow(series(tc.n), Options{TargetColumn: "Close", WindowSize: tc.w, Scaler: ScalerStandard})
		require.NoError(t, err, "n=%d w=%d", tc.n, tc.w)
		assert.Equal(t, tc.n-tc.w, len(res.Train)+len(res.Test), "n=%d w=%d", tc.n, tc.w)
	}
}

func TestFitAndWindow_InsufficientData(t *testing.T) {
	_, err := FitAndWindow(series(14), Options{TargetColumn: "Close", WindowSize: 10})
	require.ErrorIs(t, err, models.ErrInsufficientData)
	var ide *models.InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 14, ide.Rows)
	assert.Equal(t, 15, ide.Required)

	_, err = FitAndWindow(series(15), Options{TargetColumn: "Close", WindowSize: 10})
	require.ErrorIs(t, err, models.ErrInsufficientSequences)
	var ise *models.InsufficientSequencesError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 2, ise.Train)
	assert.Equal(t, 3, ise.Test)
}

func TestFitAndWindow_TestTargetsAlignWithTestDates(t *testing.T) {
	ds := series(50)
	res, err := FitAndWindow(ds, Options{TargetColumn: "Close", WindowSize: 5, Scaler: ScalerMinMax})
	require.NoError(t, err)

	for i, d := range res.TestDates {
		row := res.TrainSize + i
		assert.Equal(t, ds.Candles[row].Date, d)
		assert.InDelta(t, ds.Candles[row].Close, res.Actuals[i], 1e-9)
	}
	assert.Equal(t, ds.Candles[49].Date, res.LastDate)
	assert.Equal(t, ds.Candles[49].Close, res.LastValue)
}

func TestFitAndWindow_CalendarFeatures(t *testing.T) {
	res, err := FitAndWindow(series(40), Options{TargetColumn: "Close", WindowSize: 7, CalendarFeatures: true, Scaler: ScalerStandard})
	require.NoError(t, err)

	assert.Equal(t, []string{"Close", FeatureDayOfWeek, FeatureDayOfMonth, FeatureMonth}, res.Features)
	first := res.Scaling.InverseRow(res.Train[0].Input[0])
	assert.InDelta(t, 0, first[1], 1e-9, "2024-01-01 is a Monday")
	assert.InDelta(t, 1, first[2], 1e-9)
	assert.InDelta(t, 1, first[3], 1e-9)
}

func TestFitAndWindow_InvalidInput(t *testing.T) {
	_, err := FitAndWindow(series(40), Options{TargetColumn: "Volume", WindowSize: 10})
	assert.ErrorIs(t, err, models.ErrColumnNotFound)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = FitAndWindow(&models.Dataset{}, Options{TargetColumn: "Close", WindowSize: 10})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = FitAndWindow(series(40), Options{TargetColumn: "Close", WindowSize: 0})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	ds := series(40)
	ds.Candles[3].Close = math.NaN()
	_, err = FitAndWindow(ds, Options{TargetColumn: "Close", WindowSize: 10})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestScaler_InverseRoundTrip(t *testing.T) {
	rows := [][]float64{{10, 0, 5}, {20, 6, 5}, {15, 3, 5}, {-4, 1, 5}}
	for _, kind := range []ScalerKind{ScalerMinMax, ScalerStandard} {
		sc, err := FitScaler(kind, []string{"a", "b", "c"}, rows)
		require.NoError(t, err)
		for col := 0; col < 3; col++ {
			scaled := make([]float64, len(rows))
			orig := make([]float64, len(rows))
			for i, r := range rows {
				scaled[i] = sc.Transform(r)[col]
				orig[i] = r[col]
			}
			back := sc.Inverse(col, scaled)
			for i := range orig {
				assert.InDelta(t, orig[i], back[i], 1e-9, "%s col %d row %d", kind, col, i)
			}
		}
	}
}

func TestScaler_MinMaxRangeAndConstantColumn(t *testing.T) {
	sc, err := FitScaler(ScalerMinMax, []string{"a", "c"}, [][]float64{{2, 7}, {4, 7}, {3, 7}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, sc.Transform([]float64{2, 7}))
	assert.Equal(t, []float64{1, 0}, sc.Transform([]float64{4, 7}))
}

func TestScaler_StandardUsesPopulationStd(t *testing.T) {
	sc, err := FitScaler(ScalerStandard, []string{"a"}, [][]float64{{1}, {3}})
	require.NoError(t, err)
	assert.InDelta(t, -1, sc.Transform([]float64{1})[0], 1e-12)
	assert.InDelta(t, 1, sc.Transform([]float64{3})[0], 1e-12)
}

func TestWindows_TooShort(t *testing.T) {
	assert.Empty(t, Windows([][]float64{{1}, {2}}, 2))
}
