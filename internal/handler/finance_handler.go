package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"tussles/internal/apperror"
	"tussles/internal/finance"
	"tussles/internal/middleware"
	"tussles/internal/model"
	"tussles/internal/service"
	"tussles/pkg/response"

	"github.com/gin-gonic/gin"
)

const maxTrendCount = 120

type FinanceHandler struct {
	financeService service.FinanceService
}

func NewFinanceHandler(financeService service.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService}
}

func (h *FinanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/finance")
	group.Use(middleware.RequireRole(model.RoleOwner))
	{
		group.GET("/net-profit", h.NetProfit)
		group.GET("/trends", h.ProfitTrends)
		group.GET("/breakeven", h.Breakeven)
		group.GET("/companies", h.CompanyProfits)
	}
}

// NetProfit reports revenue, costs and profit for completed orders
// @Summary      Net profit
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Param        period      query     string  false  "weekly, monthly or yearly (default monthly)"
// @Param        start_date  query     string  false  "Inclusive start (YYYY-MM-DD)"
// @Param        end_date    query     string  false  "Inclusive end (YYYY-MM-DD)"
// @Success      200         {object}  response.Response{data=finance.NetProfitReport}
// @Failure      400         {object}  response.Response
// @Router       /api/finance/net-profit [get]
func (h *FinanceHandler) NetProfit(c *gin.Context) {
	period, err := finance.ParseNetProfitPeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	rng, err := parseRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.financeService.NetProfit(c.Request.Context(), period, rng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(report))
}

// ProfitTrends buckets completed orders by period
// @Summary      Profit trends
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Param        period  query     string  false  "daily, weekly or monthly (default monthly)"
// @Param        count   query     int     false  "Number of most recent buckets (default 12)"
// @Success      200     {object}  response.Response{data=[]finance.TrendPoint}
// @Failure      400     {object}  response.Response
// @Router       /api/finance/trends [get]
func (h *FinanceHandler) ProfitTrends(c *gin.Context) {
	period, err := finance.ParseTrendPeriod(c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}

	count := finance.DefaultTrendCount
	if raw := strings.TrimSpace(c.Query("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTrendCount {
			respondError(c, apperror.FieldError("count", "count must be an integer between 1 and 120"))
			return
		}
		count = n
	}

	trends, err := h.financeService.ProfitTrends(c.Request.Context(), period, count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(trends))
}

// Breakeven estimates the revenue needed to cover monthly salaries
// @Summary      Break-even analysis
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=finance.BreakevenReport}
// @Router       /api/finance/breakeven [get]
func (h *FinanceHandler) Breakeven(c *gin.Context) {
	report, err := h.financeService.Breakeven(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(report))
}

// CompanyProfits ranks companies by gross profit
// @Summary      Profit by company
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]finance.CompanyProfit}
// @Router       /api/finance/companies [get]
func (h *FinanceHandler) CompanyProfits(c *gin.Context) {
	profits, err := h.financeService.CompanyProfits(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(profits))
}

// parseRange accepts dates or RFC3339 timestamps. A bare end date covers the whole day.
func parseRange(rawStart, rawEnd string) (finance.Range, error) {
	var rng finance.Range
	fields := map[string]string{}

	if s := strings.TrimSpace(rawStart); s != "" {
		if t, _, err := parseQueryTime(s); err != nil {
			fields["start_date"] = "start_date must be a valid date (YYYY-MM-DD)"
		} else {
			rng.Start = &t
		}
	}
	if s := strings.TrimSpace(rawEnd); s != "" {
		if t, dateOnly, err := parseQueryTime(s); err != nil {
			fields["end_date"] = "end_date must be a valid date (YYYY-MM-DD)"
		} else {
			if dateOnly {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			rng.End = &t
		}
	}

	if len(fields) > 0 {
		return finance.Range{}, apperror.Validation("Invalid date range", fields)
	}
	if rng.Start != nil && rng.End != nil && rng.End.Before(*rng.Start) {
		return finance.Range{}, apperror.FieldError("end_date", "end_date must not be before start_date")
	}
	return rng, nil
}

func parseQueryTime(s string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t.UTC(), false, err
}
