package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "github.com/Kagemann/brondby-stock-tracker/internal/domain/models"
	domrepo "github.com/Kagemann/brondby-stock-tracker/internal/domain/repository"
	"github.com/Kagemann/brondby-stock-tracker/internal/service/ratelimit"
	"github.com/Kagemann/brondby-stock-tracker/internal/usecase"
	xhttp "github.com/Kagemann/brondby-stock-tracker/pkg/http"
	xlogger "github.com/Kagemann/brondby-stock-tracker/pkg/logger"
)

// AnalysisEchoHandler exposes read projections of the engine outputs and the
// manual analysis trigger.
type AnalysisEchoHandler struct {
	logger  *xlogger.Logger
	queries *usecase.QueriesUseCase
	analyze *usecase.AnalyzeUseCase
	market  domrepo.MarketStore
	limiter *ratelimit.Limiter
	window  time.Duration
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, queries *usecase.QueriesUseCase, analyze *usecase.AnalyzeUseCase, market domrepo.MarketStore, limiter *ratelimit.Limiter, window time.Duration) *AnalysisEchoHandler {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &AnalysisEchoHandler{
		logger:  logger,
		queries: queries,
		analyze: analyze,
		market:  market,
		limiter: limiter,
		window:  window,
	}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/sentiment", h.Sentiment)
	g.GET("/correlation", h.Correlation)
	g.GET("/insights", h.Insights)
	g.GET("/alerts", h.Alerts)
	g.GET("/prices", h.Prices)
	g.POST("/analyze", h.Analyze)
	g.GET("/health", h.Health)
}

// read endpoints refill fast, the manual trigger is deliberately tight
const (
	readBurst     = 20.0
	readRefill    = 10.0
	triggerBurst  = 2.0
	triggerRefill = 0.2
)

func (h *AnalysisEchoHandler) allow(c echo.Context, class string, capacity, refill float64) bool {
	if h.limiter == nil {
		return true
	}
	return h.limiter.Allow(class+":"+c.RealIP(), capacity, refill)
}

func (h *AnalysisEchoHandler) Sentiment(c echo.Context) error {
	if !h.allow(c, "read", readBurst, readRefill) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetSentiment(c.Request().Context(), req.Hours)
	if err != nil {
		h.logger.Error("sentiment query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Correlation(c echo.Context) error {
	if !h.allow(c, "read", readBurst, readRefill) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
	req := &models.CorrelationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetCorrelation(c.Request().Context(), req.Hours)
	if err != nil {
		h.logger.Error("correlation query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Insights(c echo.Context) error {
	if !h.allow(c, "read", readBurst, readRefill) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
	req := &models.InsightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetInsights(c.Request().Context(), req.Hours)
	if err != nil {
		h.logger.Error("insights query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Alerts(c echo.Context) error {
	if !h.allow(c, "read", readBurst, readRefill) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.queries.GetAlerts(c.Request().Context(), req.Hours, req.Limit)
	if err != nil {
		h.logger.Error("alerts query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

func (h *AnalysisEchoHandler) Prices(c echo.Context) error {
	if !h.allow(c, "read", readBurst, readRefill) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// explicit from/to override the trailing-hours window
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now().UTC())
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), to.Add(-time.Duration(req.Hours)*time.Hour))
	res, err := h.queries.GetPricesRange(c.Request().Context(), from, to, req.Limit)
	if err != nil {
		h.logger.Error("prices query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, res, int64(len(res)))
}

// Analyze triggers an on-demand analysis pass over the trailing window and
// returns the full report.
func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	if !h.allow(c, "trigger", triggerBurst, triggerRefill) {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(req.Hours) * time.Hour)
	report, err := h.analyze.Run(c.Request().Context(), start, end, "manual")
	if err != nil {
		h.logger.Error("manual analysis error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	if err := h.market.Health(c.Request().Context()); err != nil {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
