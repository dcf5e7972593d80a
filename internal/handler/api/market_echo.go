package api

import (
	"context"
	"net/http"
	"time"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/service/ratelimit"
	"TradeForge/internal/usecase"
	xhttp "TradeForge/pkg/http"
	xlogger "TradeForge/pkg/logger"
	"TradeForge/pkg/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// HealthCheck probes one backing collaborator.
type HealthCheck func(ctx context.Context) error

// MarketHandler serves read access to the onboarded market and the
// trade journal.
type MarketHandler struct {
	logger  *xlogger.Logger
	report  *usecase.MarketReport
	trades  *usecase.TradeLog
	limiter *ratelimit.Limiter
	checks  map[string]HealthCheck
}

// NewMarketHandler creates the handler. limiter may be nil to disable
// rate limiting of trade writes.
func NewMarketHandler(
	logger *xlogger.Logger,
	report *usecase.MarketReport,
	trades *usecase.TradeLog,
	limiter *ratelimit.Limiter,
	checks map[string]HealthCheck,
) *MarketHandler {
	return &MarketHandler{logger: logger, report: report, trades: trades, limiter: limiter, checks: checks}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/sectors", h.Sectors)
	g.GET("/agents", h.Agents)
	g.GET("/agents/:id", h.Agent)
	g.GET("/report", h.Report)
	g.GET("/trades", h.Trades)
	g.POST("/trades", h.RecordTrade)
}

func (h *MarketHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	return xhttp.DataResponse(c, status, results)
}

func (h *MarketHandler) Sectors(c echo.Context) error {
	rows, err := h.report.Sectors(c.Request().Context())
	if err != nil {
		h.logger.Error("list sectors failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, len(rows))
}

func (h *MarketHandler) Agents(c echo.Context) error {
	req := &models.AgentListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sectorID := uuid.Nil
	if req.SectorID != "" {
		sectorID = uuid.MustParse(req.SectorID)
	}

	rows, err := h.report.Agents(c.Request().Context(), sectorID, req.Limit)
	if err != nil {
		h.logger.Error("list agents failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, len(rows))
}

func (h *MarketHandler) Agent(c echo.Context) error {
	req := &models.AgentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.report.Agent(c.Request().Context(), uuid.MustParse(req.ID))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *MarketHandler) Report(c echo.Context) error {
	lines, err := h.report.Lines(c.Request().Context())
	if err != nil {
		h.logger.Error("render report failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, lines)
}

func (h *MarketHandler) Trades(c echo.Context) error {
	req := &models.TradeQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to := util.TimeRange(req.From, req.To, time.Now().UTC())

	rows, err := h.trades.Query(c.Request().Context(), usecase.TradeQuery{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("query trades failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.ListResponse(c, rows, len(rows))
}

func (h *MarketHandler) RecordTrade(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("trade write rate exceeded"))
	}

	req := &models.RecordTradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid price %q", req.Price))
	}
	executedAt := time.Now().UTC()
	if req.ExecutedAt != "" {
		t, ok := util.ParseTime(req.ExecutedAt)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid executed_at %q", req.ExecutedAt))
		}
		executedAt = t.UTC()
	}

	trade := &models.TradeHistory{
		ID:          uuid.New(),
		BuyerID:     uuid.MustParse(req.BuyerID),
		SellerID:    uuid.MustParse(req.SellerID),
		AssetSymbol: req.AssetSymbol,
		Price:       price,
		Quantity:    req.Quantity,
		ExecutedAt:  executedAt,
	}
	if err := h.trades.Record(c.Request().Context(), trade); err != nil {
		h.logger.Warn("record trade failed", xlogger.String("symbol", req.AssetSymbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, trade)
}
