package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
	"lasyfinance/internal/services"
)

// ReportHandler serves dashboard and report aggregates.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// reportRange reads from_date and to_date as inclusive days and returns the
// half-open range the report service expects.
func reportRange(c *gin.Context) (from, to *time.Time, err error) {
	if from, err = queryDate(c, "from_date"); err != nil {
		return nil, nil, err
	}
	if to, err = queryDate(c, "to_date"); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, apperrors.ErrInvalidDateRange
	}
	if to != nil {
		end := models.DateOf(*to).AddDate(0, 0, 1)
		to = &end
	}
	return from, to, nil
}

// GetSummary returns the dashboard totals
// @Summary     Dashboard summary
// @Description Income, expense and balance for the period, plus open payables and receivables
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "First day to include (YYYY-MM-DD)"
// @Param       to_date   query string false "Last day to include (YYYY-MM-DD)"
// @Success     200 {object} services.Summary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.GetSummary(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetMonthly returns income and expense per month
// @Summary     Monthly report
// @Description Income, expense and balance per calendar month, oldest first
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "First day to include (YYYY-MM-DD)"
// @Param       to_date   query string false "Last day to include (YYYY-MM-DD)"
// @Success     200 {array} services.MonthlyTotals "Monthly totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly [get]
func (h *ReportHandler) GetMonthly(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months, err := h.reportService.GetMonthly(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": months})
}

// GetByCategory returns totals per category
// @Summary     Category report
// @Description Totals per category name for one transaction type, largest first
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "Transaction type (income, expense; default expense)"
// @Param       from_date query string false "First day to include (YYYY-MM-DD)"
// @Param       to_date   query string false "Last day to include (YYYY-MM-DD)"
// @Success     200 {array} services.CategoryTotal "Category totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/categories [get]
func (h *ReportHandler) GetByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txType := models.TransactionType(c.DefaultQuery("type", string(models.TransactionTypeExpense)))
	if !txType.Valid() {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income or expense"))
		return
	}

	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reportService.GetByCategory(userID, txType, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"type": txType, "categories": totals})
}
