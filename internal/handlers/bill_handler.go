package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
	"lasyfinance/internal/services"
)

// BillHandler serves one bill kind; the router mounts a payable and a
// receivable instance.
type BillHandler struct {
	billService services.BillServicer
	kind        models.BillKind
}

// NewBillHandler creates a BillHandler for the given kind.
func NewBillHandler(billService services.BillServicer, kind models.BillKind) *BillHandler {
	return &BillHandler{billService: billService, kind: kind}
}

// CreateBillRequest represents the request payload for creating a payable or receivable
type CreateBillRequest struct {
	PartyName          string                    `json:"party_name" binding:"required,max=200"`
	Description        string                    `json:"description" binding:"max=500"`
	Amount             decimal.Decimal           `json:"amount" swaggertype:"string" binding:"decimal_positive"`
	DueDate            string                    `json:"due_date" binding:"required"`
	IsRecurring        bool                      `json:"is_recurring"`
	RecurrenceInterval models.RecurrenceInterval `json:"recurrence_interval" binding:"omitempty,recurrence_interval"`
	RecurrenceCount    *int                      `json:"recurrence_count" binding:"omitempty,min=1"`
	RecurrenceEndDate  *string                   `json:"recurrence_end_date"`
}

// UpdateBillRequest represents the request payload for updating a bill
type UpdateBillRequest struct {
	PartyName          *string                    `json:"party_name" binding:"omitempty,min=1,max=200"`
	Description        *string                    `json:"description" binding:"omitempty,max=500"`
	Amount             *decimal.Decimal           `json:"amount" swaggertype:"string" binding:"omitempty,decimal_positive"`
	DueDate            *string                    `json:"due_date"`
	IsRecurring        *bool                      `json:"is_recurring"`
	RecurrenceInterval *models.RecurrenceInterval `json:"recurrence_interval" binding:"omitempty,recurrence_interval"`
	RecurrenceCount    *int                       `json:"recurrence_count" binding:"omitempty,min=1"`
	RecurrenceEndDate  *string                    `json:"recurrence_end_date"`
}

// PayBillResponse is returned when a bill is marked as paid.
type PayBillResponse struct {
	Bill *models.Bill `json:"bill"`
	Next *models.Bill `json:"next,omitempty"`
}

// CreateBill handles the creation of a payable or receivable
// @Summary     Create a bill
// @Description Create a pending account payable or receivable, optionally recurring
// @Tags        bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBillRequest true "Bill details"
// @Success     201 {object} models.Bill "Bill created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payables [post]
// @Router      /receivables [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	due, err := parseFlexibleTime(req.DueDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid due_date format, use RFC3339 or YYYY-MM-DD"))
		return
	}
	endDate, err := parseOptionalTime("recurrence_end_date", req.RecurrenceEndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.CreateBill(userID, h.kind, services.BillInput{
		PartyName:          req.PartyName,
		Description:        req.Description,
		Amount:             req.Amount,
		DueDate:            due,
		IsRecurring:        req.IsRecurring,
		RecurrenceInterval: req.RecurrenceInterval,
		RecurrenceCount:    req.RecurrenceCount,
		RecurrenceEndDate:  endDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bill": bill})
}

// GetUserBills handles listing payables or receivables
// @Summary     List bills
// @Description Get a paginated list of bills ordered by due date. Overdue is derived from the current date.
// @Tags        bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Filter by status (pending, paid, overdue)"
// @Param       from_date query string false "First due date to include (YYYY-MM-DD)"
// @Param       to_date   query string false "Last due date to include (YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Bill] "Paginated bills"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payables [get]
// @Router      /receivables [get]
func (h *BillHandler) GetUserBills(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filter services.BillFilter
	if v := c.Query("status"); v != "" {
		status := models.BillStatus(v)
		switch status {
		case models.BillStatusPending, models.BillStatusPaid, models.BillStatusOverdue:
			filter.Status = &status
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status, must be pending, paid, or overdue"))
			return
		}
	}
	if filter.FromDate, err = queryDate(c, "from_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.ToDate, err = queryDate(c, "to_date"); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.billService.GetUserBills(userID, h.kind, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBillByID handles the retrieval of a single bill
// @Summary     Get bill by ID
// @Description Get a payable or receivable by ID
// @Tags        bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Bill ID"
// @Success     200 {object} models.Bill "Bill details"
// @Failure     400 {object} ErrorResponse "Invalid bill ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payables/{id} [get]
// @Router      /receivables/{id} [get]
func (h *BillHandler) GetBillByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.GetBillByID(userID, h.kind, billID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bill": bill})
}

// UpdateBill handles updating a bill
// @Summary     Update bill
// @Description Update fields of a payable or receivable. Turning recurrence off clears its settings.
// @Tags        bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Bill ID"
// @Param       request body UpdateBillRequest true "Fields to update"
// @Success     200 {object} models.Bill "Updated bill"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payables/{id} [put]
// @Router      /receivables/{id} [put]
func (h *BillHandler) UpdateBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	due, err := parseOptionalTime("due_date", req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	endDate, err := parseOptionalTime("recurrence_end_date", req.RecurrenceEndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.UpdateBill(userID, h.kind, billID, services.BillUpdate{
		PartyName:          req.PartyName,
		Description:        req.Description,
		Amount:             req.Amount,
		DueDate:            due,
		IsRecurring:        req.IsRecurring,
		RecurrenceInterval: req.RecurrenceInterval,
		RecurrenceCount:    req.RecurrenceCount,
		RecurrenceEndDate:  endDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bill": bill})
}

// DeleteBill handles the deletion of a bill
// @Summary     Delete bill
// @Description Delete a payable or receivable by ID
// @Tags        bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Bill ID"
// @Success     200 {object} MessageResponse "Bill deleted"
// @Failure     400 {object} ErrorResponse "Invalid bill ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payables/{id} [delete]
// @Router      /receivables/{id} [delete]
func (h *BillHandler) DeleteBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.billService.DeleteBill(userID, h.kind, billID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted successfully"})
}

// PayBill marks a bill as paid
// @Summary     Mark bill as paid
// @Description Settle a bill. Paying twice is a no-op. For recurring bills the next occurrence is created and returned.
// @Tags        bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Bill ID"
// @Success     200 {object} PayBillResponse "Paid bill and next occurrence"
// @Failure     400 {object} ErrorResponse "Invalid bill ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payables/{id}/pay [post]
// @Router      /receivables/{id}/pay [post]
func (h *BillHandler) PayBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	paid, next, err := h.billService.MarkPaid(userID, h.kind, billID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, PayBillResponse{Bill: paid, Next: next})
}
