package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	"github.com/kakeibo-dev/kakeibo_app/internal/core/domain"
	portssvc "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/services"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
	"github.com/kakeibo-dev/kakeibo_app/internal/middleware"
)

// reportingHandler handles HTTP requests for statements and dashboards.
type reportingHandler struct {
	ledger    portssvc.LedgerSvcFacade
	reporting portssvc.ReportingSvcFacade
}

func newReportingHandler(ledger portssvc.LedgerSvcFacade, reporting portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{ledger: ledger, reporting: reporting}
}

// registerReportingRoutes registers the statement and dashboard routes.
func registerReportingRoutes(rg *gin.RouterGroup, ledger portssvc.LedgerSvcFacade, reporting portssvc.ReportingSvcFacade) {
	h := newReportingHandler(ledger, reporting)

	reports := rg.Group("/reports")
	{
		reports.GET("/trial-balance", h.trialBalance)
		reports.GET("/balance-sheet", h.balanceSheet)
		reports.GET("/income-statement", h.incomeStatement)
		reports.GET("/category-breakdown", h.categoryBreakdown)
		reports.GET("/monthly-summary", h.monthlySummary)
	}
}

// trialBalance godoc
// @Summary Trial balance
// @Description Returns the signed balance of every account with activity, after the debit/credit self-check
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Include entries dated up to and including this date (YYYY-MM-DD)"
// @Success 200 {object} dto.TrialBalanceResponse
// @Failure 400 {object} map[string]string "Invalid asOf date"
// @Failure 500 {object} map[string]string "Failed to compute trial balance"
// @Router /reports/trial-balance [get]
func (h *reportingHandler) trialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf, ok := optionalDateParam(c, "asOf")
	if !ok {
		return
	}

	rows, err := h.ledger.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvariantViolation) {
			logger.Error("Trial balance self-check failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ledger state inconsistent"})
		} else {
			logger.Error("Failed to compute trial balance", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute trial balance"})
		}
		return
	}

	resp := dto.TrialBalanceResponse{Rows: dto.ToTrialBalanceRowResponses(rows)}
	if asOf != nil {
		resp.AsOf = asOf.Format(dto.DateLayout)
	}
	c.JSON(http.StatusOK, resp)
}

// balanceSheet godoc
// @Summary Balance sheet
// @Description Point-in-time statement of financial position. Defaults to today when asOf is omitted
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Statement date (YYYY-MM-DD)"
// @Success 200 {object} dto.BalanceSheetResponse
// @Failure 400 {object} map[string]string "Invalid asOf date"
// @Failure 500 {object} map[string]string "Failed to compute balance sheet"
// @Router /reports/balance-sheet [get]
func (h *reportingHandler) balanceSheet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOfParam, ok := optionalDateParam(c, "asOf")
	if !ok {
		return
	}
	asOf := time.Now()
	if asOfParam != nil {
		asOf = *asOfParam
	}

	report, err := h.reporting.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		logger.Error("Failed to compute balance sheet", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balance sheet"})
		return
	}

	c.JSON(http.StatusOK, dto.BalanceSheetResponse{
		AsOf:                      asOf.Format(dto.DateLayout),
		Assets:                    dto.ToAccountAmountResponses(report.Assets),
		LiabilitiesAndEquity:      dto.ToAccountAmountResponses(report.LiabilitiesAndEquity),
		TotalAssets:               dto.ToMoneyResponse(report.TotalAssets),
		TotalLiabilitiesAndEquity: dto.ToMoneyResponse(report.TotalLiabilitiesAndEquity),
	})
}

// incomeStatement godoc
// @Summary Income statement
// @Description Revenue and expense activity over an inclusive date period
// @Tags reports
// @Produce  json
// @Param   from query string true "Inclusive period start (YYYY-MM-DD)"
// @Param   to query string true "Inclusive period end (YYYY-MM-DD)"
// @Success 200 {object} dto.IncomeStatementResponse
// @Failure 400 {object} map[string]string "Missing or invalid period dates"
// @Failure 500 {object} map[string]string "Failed to compute income statement"
// @Router /reports/income-statement [get]
func (h *reportingHandler) incomeStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	from, to, ok := periodParams(c)
	if !ok {
		return
	}

	report, err := h.reporting.IncomeStatement(c.Request.Context(), from, to)
	if err != nil {
		logger.Error("Failed to compute income statement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute income statement"})
		return
	}

	c.JSON(http.StatusOK, dto.IncomeStatementResponse{
		PeriodFrom:    from.Format(dto.DateLayout),
		PeriodTo:      to.Format(dto.DateLayout),
		Revenue:       dto.ToAccountAmountResponses(report.Revenue),
		Expenses:      dto.ToAccountAmountResponses(report.Expenses),
		TotalRevenue:  dto.ToMoneyResponse(report.TotalRevenue),
		TotalExpenses: dto.ToMoneyResponse(report.TotalExpenses),
		NetIncome:     dto.ToMoneyResponse(report.NetIncome),
	})
}

// categoryBreakdown godoc
// @Summary Category breakdown
// @Description Splits one account type's period activity per account or sub-account, with each row's share of the category total
// @Tags reports
// @Produce  json
// @Param   type query string true "Account type to break down" Enums(ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE)
// @Param   from query string true "Inclusive period start (YYYY-MM-DD)"
// @Param   to query string true "Inclusive period end (YYYY-MM-DD)"
// @Success 200 {array} dto.CategoryBreakdownRowResponse
// @Failure 400 {object} map[string]string "Missing or invalid parameters"
// @Failure 500 {object} map[string]string "Failed to compute breakdown"
// @Router /reports/category-breakdown [get]
func (h *reportingHandler) categoryBreakdown(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountType := domain.AccountType(c.Query("type"))
	from, to, ok := periodParams(c)
	if !ok {
		return
	}

	rows, err := h.reporting.CategoryBreakdown(c.Request.Context(), accountType, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Invalid account type for breakdown", slog.String("type", string(accountType)))
			c.JSON(http.StatusBadRequest, validationBody(err))
		} else {
			logger.Error("Failed to compute category breakdown", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute breakdown"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCategoryBreakdownResponses(rows))
}

// monthlySummary godoc
// @Summary Monthly summary
// @Description Total income, total expense and net for one calendar month
// @Tags reports
// @Produce  json
// @Param   year query int true "Calendar year"
// @Param   month query int true "Calendar month (1-12)"
// @Success 200 {object} dto.MonthlySummaryResponse
// @Failure 400 {object} map[string]string "Missing or invalid year/month"
// @Failure 500 {object} map[string]string "Failed to compute summary"
// @Router /reports/monthly-summary [get]
func (h *reportingHandler) monthlySummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params struct {
		Year  int `form:"year" binding:"required"`
		Month int `form:"month" binding:"required,min=1,max=12"`
	}
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for monthlySummary", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	summary, err := h.reporting.MonthlySummary(c.Request.Context(), params.Year, time.Month(params.Month))
	if err != nil {
		logger.Error("Failed to compute monthly summary", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	c.JSON(http.StatusOK, dto.MonthlySummaryResponse{
		Year:    summary.Year,
		Month:   summary.Month,
		Income:  dto.ToMoneyResponse(summary.Income),
		Expense: dto.ToMoneyResponse(summary.Expense),
		Net:     dto.ToMoneyResponse(summary.Net),
	})
}

// periodParams parses the required from/to query parameters. On a missing or
// malformed value it writes the 400 response and returns ok=false.
func periodParams(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse(dto.DateLayout, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(dto.DateLayout, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, expected YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
