package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/services/pipeline"
	"FinCast/pkg/logger"
	"FinCast/pkg/tracing"
)

const (
	extrapolationStep = 0.015
	degradedBand      = 0.05

	ExtrapolationNote = "future_predictions are a random walk from the last observed value (daily moves within ±1.5%), not model output"
)

// ForecastRequest selects what to forecast. WindowSize 0 uses the profile default.
type ForecastRequest struct {
	Kind         models.ModelKind
	TargetColumn string
	WindowSize   int
}

// Runner executes the shared forecasting pipeline for every model kind.
type Runner struct {
	profiles    map[models.ModelKind]Profile
	forecasters map[models.ModelKind]domsvc.Forecaster
	events      domrepo.EventPublisher
	metrics     domrepo.Metrics
	log         *logger.Logger
	now         func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type RunnerOption func(*Runner)

// WithRand fixes the random source used for future extrapolation.
func WithRand(r *rand.Rand) RunnerOption {
	return func(rn *Runner) { rn.rng = r }
}

func WithRunnerEvents(p domrepo.EventPublisher) RunnerOption {
	return func(rn *Runner) { rn.events = p }
}

func WithRunnerMetrics(m domrepo.Metrics) RunnerOption {
	return func(rn *Runner) { rn.metrics = m }
}

func WithRunnerLogger(l *logger.Logger) RunnerOption {
	return func(rn *Runner) { rn.log = l }
}

func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(rn *Runner) { rn.now = now }
}

func NewRunner(profiles map[models.ModelKind]Profile, forecasters map[models.ModelKind]domsvc.Forecaster, opts ...RunnerOption) *Runner {
	r := &Runner{profiles: profiles, forecasters: forecasters, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	return r
}

// Profile returns the profile of kind.
func (r *Runner) Profile(kind models.ModelKind) (Profile, bool) {
	p, ok := r.profiles[kind]
	return p, ok
}

// Run validates, windows, fits and predicts. Model failures degrade the result
// instead of failing the request; data problems are returned as errors.
func (r *Runner) Run(ctx context.Context, ds *models.Dataset, req ForecastRequest) (res *models.ForecastResult, err error) {
	began := time.Now()
	ctx, span := tracing.StartSpan(ctx, "forecast.run", attribute.String("kind", string(req.Kind)))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			r.record(req.Kind, "error", began)
		}
	}()

	// Validating
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", models.ErrInvalidInput)
	}
	prof, ok := r.profiles[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%q: %w", req.Kind, models.ErrUnknownModel)
	}
	f, ok := r.forecasters[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%q has no forecaster: %w", req.Kind, models.ErrUnknownModel)
	}
	column := req.TargetColumn
	if column == "" {
		column = models.ColClose
	}
	window := req.WindowSize
	if window == 0 {
		window = prof.Window
	}

	// Windowing
	_, wspan := tracing.StartSpan(ctx, "forecast.window")
	seq, err := pipeline.FitAndWindow(ds, pipeline.Options{
		TargetColumn:     column,
		CalendarFeatures: prof.Calendar,
		WindowSize:       window,
		Scaler:           prof.Scaler,
	})
	wspan.End()
	if err != nil {
		return nil, err
	}

	res = &models.ForecastResult{
		ID:                uuid.NewString(),
		Symbol:            ds.Symbol,
		Kind:              req.Kind,
		TargetColumn:      column,
		WindowSize:        window,
		TrainWindows:      len(seq.Train),
		TestWindows:       len(seq.Test),
		Predictions:       []float64{},
		Actuals:           seq.Actuals,
		TestDates:         formatDates(seq.TestDates),
		ExtrapolationNote: ExtrapolationNote,
		GeneratedAt:       r.now().UTC(),
	}

	// Fitting, Predicting
	scaled, ferr := r.fitPredict(ctx, f, seq)

	// FutureExtrapolation
	res.FutureDates, res.FuturePredictions = r.extrapolate(seq.LastDate, seq.LastValue, prof.Horizon)

	if ferr != nil {
		res.Degraded = true
		res.Warning = "Using fallback prediction due to model error: " + ferr.Error()
		res.Forecast = bandRecord(res.FutureDates, res.FuturePredictions, degradedBand)
		r.log.Warn("forecast degraded",
			logger.String("kind", string(req.Kind)),
			logger.String("symbol", ds.Symbol),
			logger.String("forecaster", f.Name()),
			logger.Error(fmt.Errorf("%w: %w", models.ErrModelFailure, ferr)),
		)
	} else {
		res.Predictions = seq.Scaling.Inverse(0, scaled)
		res.Metrics = Score(seq.Actuals, res.Predictions)
		res.Forecast = sigmaRecord(res.TestDates, res.Predictions, prof.BoundSigma*res.Metrics.RMSE)
	}

	outcome := "success"
	if res.Degraded {
		outcome = "degraded"
	}
	r.record(req.Kind, outcome, began)
	r.publish(ctx, res)

	r.log.Info("forecast finished",
		logger.String("id", res.ID),
		logger.String("kind", string(req.Kind)),
		logger.String("symbol", ds.Symbol),
		logger.Int("train_windows", res.TrainWindows),
		logger.Int("test_windows", res.TestWindows),
		logger.Bool("degraded", res.Degraded),
		logger.Duration("took", time.Since(began)),
	)
	return res, nil
}

// fitPredict runs the forecaster and validates its output. A panic inside the
// model is reported as an error.
func (r *Runner) fitPredict(ctx context.Context, f domsvc.Forecaster, seq *pipeline.Result) (preds []float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			preds, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	model, err := func() (domsvc.Model, error) {
		ctx, span := tracing.StartSpan(ctx, "forecast.fit")
		defer span.End()
		return f.Fit(ctx, seq.Train)
	}()
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	preds, err = func() ([]float64, error) {
		ctx, span := tracing.StartSpan(ctx, "forecast.predict")
		defer span.End()
		return f.Predict(ctx, model, seq.Test)
	}()
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(preds) != len(seq.Test) {
		return nil, fmt.Errorf("predict: got %d values for %d windows", len(preds), len(seq.Test))
	}
	for i, v := range preds {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("predict: non-finite value at %d", i)
		}
	}
	return preds, nil
}

// extrapolate walks h days from the last observation, each step moving the
// value by a uniform factor in [-1.5%, +1.5%].
func (r *Runner) extrapolate(last time.Time, value float64, h int) ([]string, []float64) {
	dates := make([]string, 0, h)
	values := make([]float64, 0, h)

	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	for i := 1; i <= h; i++ {
		u := -extrapolationStep + r.rng.Float64()*2*extrapolationStep
		value *= 1 + u
		dates = append(dates, last.AddDate(0, 0, i).Format(models.DateLayout))
		values = append(values, value)
	}
	return dates, values
}

// Score computes MAE, MSE, RMSE and R² of predicted against actual.
func Score(actual, predicted []float64) models.Metrics {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return models.Metrics{}
	}
	var mean float64
	for _, a := range actual {
		mean += a
	}
	mean /= float64(n)

	var abs, ssRes, ssTot float64
	for i, a := range actual {
		d := a - predicted[i]
		abs += math.Abs(d)
		ssRes += d * d
		ssTot += (a - mean) * (a - mean)
	}
	m := models.Metrics{
		MAE:  abs / float64(n),
		MSE:  ssRes / float64(n),
		RMSE: math.Sqrt(ssRes / float64(n)),
	}
	switch {
	case ssTot == 0 && ssRes == 0:
		m.R2 = 1
	case ssTot == 0:
		m.R2 = 0
	default:
		m.R2 = 1 - ssRes/ssTot
	}
	return m
}

func sigmaRecord(dates []string, yhat []float64, half float64) models.ForecastRecord {
	rec := models.ForecastRecord{Dates: dates, Yhat: yhat, YhatLower: make([]float64, len(yhat)), YhatUpper: make([]float64, len(yhat))}
	for i, v := range yhat {
		rec.YhatLower[i] = v - half
		rec.YhatUpper[i] = v + half
	}
	return rec
}

func bandRecord(dates []string, yhat []float64, band float64) models.ForecastRecord {
	rec := models.ForecastRecord{Dates: dates, Yhat: yhat, YhatLower: make([]float64, len(yhat)), YhatUpper: make([]float64, len(yhat))}
	for i, v := range yhat {
		rec.YhatLower[i] = v * (1 - band)
		rec.YhatUpper[i] = v * (1 + band)
	}
	return rec
}

func formatDates(ds []time.Time) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Format(models.DateLayout)
	}
	return out
}

func (r *Runner) record(kind models.ModelKind, outcome string, began time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordForecast(string(kind), outcome, time.Since(began).Seconds())
}

func (r *Runner) publish(ctx context.Context, res *models.ForecastResult) {
	if r.events == nil {
		return
	}
	evt := models.ForecastEvent{
		ID:       res.ID,
		Symbol:   res.Symbol,
		Kind:     res.Kind,
		Column:   res.TargetColumn,
		Degraded: res.Degraded,
		Metrics:  res.Metrics,
		At:       res.GeneratedAt,
	}
	if err := r.events.PublishForecast(ctx, evt); err != nil && !errors.Is(err, context.Canceled) {
		r.log.Warn("publish forecast event failed", logger.String("id", res.ID), logger.Error(err))
		if r.metrics != nil {
			r.metrics.RecordError("publish_forecast")
		}
	}
}
