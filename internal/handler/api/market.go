package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/usecase"
	xhttp "FinCast/pkg/http"
	"FinCast/pkg/logger"
)

// MarketHandler serves ticker lookup, historical data and statistics.
type MarketHandler struct {
	log     *logger.Logger
	symbols *usecase.SymbolCatalog
	cascade *usecase.Cascade
	stats   domsvc.StatsAnalyzer
}

func NewMarketHandler(l *logger.Logger, symbols *usecase.SymbolCatalog, cascade *usecase.Cascade, stats domsvc.StatsAnalyzer) *MarketHandler {
	return &MarketHandler{log: l, symbols: symbols, cascade: cascade, stats: stats}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/check-ticker", h.CheckTicker)
	g.GET("/symbols", h.Symbols)
	g.POST("/stock-data", h.StockData)
	g.POST("/stationarity", h.Stationarity)
	g.POST("/decomposition", h.Decomposition)
}

func (h *MarketHandler) CheckTicker(c echo.Context) error {
	req := &models.CheckTickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.symbols.Check(*req))
}

func (h *MarketHandler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.symbols.List())
}

func (h *MarketHandler) StockData(c echo.Context) error {
	req := &models.StockDataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, _ := time.Parse(models.DateLayout, req.StartDate)
	end, _ := time.Parse(models.DateLayout, req.EndDate)

	ds, err := h.cascade.Fetch(c.Request().Context(), req.Ticker, start, end)
	if err != nil {
		h.log.Error("stock data failed", logger.String("ticker", req.Ticker), logger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, models.StockDataResponse{
		Data:        ds.Records(),
		Columns:     ds.Columns,
		Source:      ds.Source,
		SourceLabel: ds.Label,
	})
}

func (h *MarketHandler) Stationarity(c echo.Context) error {
	req := &models.StationarityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.stats.Stationarity(c.Request().Context(), req.ColumnData)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

type decompositionResponse struct {
	Dates []string `json:"dates"`
	domsvc.Decomposition
}

func (h *MarketHandler) Decomposition(c echo.Context) error {
	req := &models.DecompositionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if len(req.Dates) != len(req.ColumnData) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("dates has %d entries, column_data has %d", len(req.Dates), len(req.ColumnData)))
	}
	d, err := h.stats.Decompose(c.Request().Context(), req.ColumnData, req.Period)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, decompositionResponse{Dates: req.Dates, Decomposition: d})
}
