package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"FinCast/internal/domain/models"
	"FinCast/internal/usecase"
	xhttp "FinCast/pkg/http"
	"FinCast/pkg/logger"
)

// clientSymbol labels datasets posted in the request body.
const clientSymbol = "CLIENT"

// ForecastHandler exposes the forecasting pipeline per model kind.
type ForecastHandler struct {
	log     *logger.Logger
	cascade *usecase.Cascade
	runner  *usecase.Runner
	limit   echo.MiddlewareFunc
}

// NewForecastHandler builds the handler. limit may be nil.
func NewForecastHandler(l *logger.Logger, cascade *usecase.Cascade, runner *usecase.Runner, limit echo.MiddlewareFunc) *ForecastHandler {
	return &ForecastHandler{log: l, cascade: cascade, runner: runner, limit: limit}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if h.limit != nil {
		mw = append(mw, h.limit)
	}
	g := e.Group("/api", mw...)
	g.POST("/transformer", h.Transformer)
	g.POST("/lstm", h.LSTM)
	g.POST("/prophet", h.Prophet)
	g.POST("/forecast/:kind", h.Forecast)
}

func (h *ForecastHandler) Transformer(c echo.Context) error {
	req := &models.TransformerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, req.Data, usecase.ForecastRequest{Kind: models.KindTransformer, TargetColumn: req.Column, WindowSize: req.SequenceLength})
}

func (h *ForecastHandler) LSTM(c echo.Context) error {
	req := &models.LSTMRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, req.Data, usecase.ForecastRequest{Kind: models.KindLSTM, TargetColumn: req.Column, WindowSize: req.SeqLength})
}

func (h *ForecastHandler) Prophet(c echo.Context) error {
	req := &models.ProphetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.run(c, req.Data, usecase.ForecastRequest{Kind: models.KindProphet, TargetColumn: req.Column, WindowSize: req.Window})
}

// Forecast runs any registered kind on posted data or on a ticker range
// resolved through the cascade.
func (h *ForecastHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	kind := models.ModelKind(c.Param("kind"))
	if _, ok := h.runner.Profile(kind); !ok {
		return xhttp.AppErrorResponse(c, toAppError(models.ErrUnknownModel).WithParam("kind", string(kind)))
	}
	fr := usecase.ForecastRequest{Kind: kind, TargetColumn: req.Column, WindowSize: req.Window}

	if len(req.Data) > 0 {
		return h.run(c, req.Data, fr)
	}
	if req.Ticker == "" || req.StartDate == "" || req.EndDate == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("either data or ticker with start_date and end_date is required"))
	}
	start, _ := time.Parse(models.DateLayout, req.StartDate)
	end, _ := time.Parse(models.DateLayout, req.EndDate)

	ctx := c.Request().Context()
	ds, err := h.cascade.Fetch(ctx, req.Ticker, start, end)
	if err != nil {
		h.log.Error("forecast data failed", logger.String("ticker", req.Ticker), logger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	res, err := h.runner.Run(ctx, ds, fr)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) run(c echo.Context, data []map[string]any, fr usecase.ForecastRequest) error {
	ds, err := h.cascade.FromRecords(clientSymbol, data)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	res, err := h.runner.Run(c.Request().Context(), ds, fr)
	if err != nil {
		h.log.Warn("forecast rejected", logger.String("kind", string(fr.Kind)), logger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}
