package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
	"lasyfinance/internal/pagination"
	"lasyfinance/internal/services"
)

// --- mock bill service ---

type mockBillService struct {
	createBillFn   func(userID string, kind models.BillKind, in services.BillInput) (*models.Bill, error)
	getUserBillsFn func(userID string, kind models.BillKind, page pagination.PageRequest, filter services.BillFilter) (*pagination.PageResponse[models.Bill], error)
	getBillByIDFn  func(userID string, kind models.BillKind, billID string) (*models.Bill, error)
	updateBillFn   func(userID string, kind models.BillKind, billID string, upd services.BillUpdate) (*models.Bill, error)
	deleteBillFn   func(userID string, kind models.BillKind, billID string) error
	markPaidFn     func(userID string, kind models.BillKind, billID string) (*models.Bill, *models.Bill, error)
}

func (m *mockBillService) CreateBill(userID string, kind models.BillKind, in services.BillInput) (*models.Bill, error) {
	if m.createBillFn != nil {
		return m.createBillFn(userID, kind, in)
	}
	return &models.Bill{Kind: kind}, nil
}

func (m *mockBillService) GetUserBills(userID string, kind models.BillKind, page pagination.PageRequest, filter services.BillFilter) (*pagination.PageResponse[models.Bill], error) {
	if m.getUserBillsFn != nil {
		return m.getUserBillsFn(userID, kind, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Bill{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBillService) GetBillByID(userID string, kind models.BillKind, billID string) (*models.Bill, error) {
	if m.getBillByIDFn != nil {
		return m.getBillByIDFn(userID, kind, billID)
	}
	return &models.Bill{Kind: kind}, nil
}

func (m *mockBillService) UpdateBill(userID string, kind models.BillKind, billID string, upd services.BillUpdate) (*models.Bill, error) {
	if m.updateBillFn != nil {
		return m.updateBillFn(userID, kind, billID, upd)
	}
	return &models.Bill{Kind: kind}, nil
}

func (m *mockBillService) DeleteBill(userID string, kind models.BillKind, billID string) error {
	if m.deleteBillFn != nil {
		return m.deleteBillFn(userID, kind, billID)
	}
	return nil
}

func (m *mockBillService) MarkPaid(userID string, kind models.BillKind, billID string) (*models.Bill, *models.Bill, error) {
	if m.markPaidFn != nil {
		return m.markPaidFn(userID, kind, billID)
	}
	return &models.Bill{Kind: kind, EffectiveStatus: models.BillStatusPaid}, nil, nil
}

func (m *mockBillService) PendingPayables(_ string, _ int) ([]models.Bill, error) {
	return nil, nil
}

func setupBillRouter(svc services.BillServicer) *gin.Engine {
	r := newTestRouter()
	auth := r.Group("/", injectUserID(testUserID))
	for path, kind := range map[string]models.BillKind{
		"/payables":    models.BillKindPayable,
		"/receivables": models.BillKindReceivable,
	} {
		h := NewBillHandler(svc, kind)
		g := auth.Group(path)
		g.POST("", h.CreateBill)
		g.GET("", h.GetUserBills)
		g.GET("/:id", h.GetBillByID)
		g.PUT("/:id", h.UpdateBill)
		g.DELETE("/:id", h.DeleteBill)
		g.POST("/:id/pay", h.PayBill)
	}
	return r
}

func TestBillHandler_CreateBill(t *testing.T) {
	t.Run("routes kind from the mount point", func(t *testing.T) {
		var gotKind models.BillKind
		var got services.BillInput
		svc := &mockBillService{
			createBillFn: func(_ string, kind models.BillKind, in services.BillInput) (*models.Bill, error) {
				gotKind, got = kind, in
				return &models.Bill{Kind: kind, PartyName: in.PartyName, EffectiveStatus: models.BillStatusPending}, nil
			},
		}
		r := setupBillRouter(svc)

		rec := doRequest(r, "POST", "/receivables",
			`{"party_name":"Cliente A","amount":"1500","due_date":"2026-04-10","is_recurring":true,"recurrence_interval":"monthly","recurrence_count":3,"recurrence_end_date":"2026-12-31"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotKind != models.BillKindReceivable {
			t.Errorf("expected receivable, got %s", gotKind)
		}
		if !got.Amount.Equal(decimal.NewFromInt(1500)) {
			t.Errorf("expected 1500, got %s", got.Amount)
		}
		if !got.DueDate.Equal(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected due date %s", got.DueDate)
		}
		if !got.IsRecurring || got.RecurrenceInterval != models.RecurrenceMonthly {
			t.Errorf("expected monthly recurrence, got %+v", got)
		}
		if got.RecurrenceCount == nil || *got.RecurrenceCount != 3 {
			t.Errorf("expected count 3, got %v", got.RecurrenceCount)
		}
		if got.RecurrenceEndDate == nil {
			t.Error("expected recurrence end date")
		}
		bill := parseJSON(t, rec)["bill"].(map[string]interface{})
		if bill["status"] != "pending" {
			t.Errorf("expected pending status, got %v", bill["status"])
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing_party", `{"amount":"10","due_date":"2026-04-10"}`},
		{"missing_due_date", `{"party_name":"Luz","amount":"10"}`},
		{"bad_due_date", `{"party_name":"Luz","amount":"10","due_date":"amanhã"}`},
		{"zero_amount", `{"party_name":"Luz","amount":"0","due_date":"2026-04-10"}`},
		{"bad_interval", `{"party_name":"Luz","amount":"10","due_date":"2026-04-10","is_recurring":true,"recurrence_interval":"daily"}`},
		{"zero_count", `{"party_name":"Luz","amount":"10","due_date":"2026-04-10","recurrence_count":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupBillRouter(&mockBillService{})

			rec := doRequest(r, "POST", "/payables", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBillHandler_GetUserBills(t *testing.T) {
	t.Run("passes status and range", func(t *testing.T) {
		var gotKind models.BillKind
		var got services.BillFilter
		svc := &mockBillService{
			getUserBillsFn: func(_ string, kind models.BillKind, _ pagination.PageRequest, filter services.BillFilter) (*pagination.PageResponse[models.Bill], error) {
				gotKind, got = kind, filter
				resp := pagination.NewPageResponse([]models.Bill{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupBillRouter(svc)

		rec := doRequest(r, "GET", "/payables?status=overdue&from_date=2026-03-01&to_date=2026-03-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotKind != models.BillKindPayable {
			t.Errorf("expected payable, got %s", gotKind)
		}
		if got.Status == nil || *got.Status != models.BillStatusOverdue {
			t.Errorf("expected overdue filter, got %v", got.Status)
		}
		if got.FromDate == nil || got.ToDate == nil {
			t.Error("expected date range")
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		r := setupBillRouter(&mockBillService{})

		rec := doRequest(r, "GET", "/payables?status=late", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestBillHandler_GetBillByID(t *testing.T) {
	t.Run("returns 404 for the other kind", func(t *testing.T) {
		svc := &mockBillService{
			getBillByIDFn: func(_ string, kind models.BillKind, _ string) (*models.Bill, error) {
				if kind != models.BillKindPayable {
					return nil, apperrors.ErrBillNotFound
				}
				return &models.Bill{Kind: kind}, nil
			},
		}
		r := setupBillRouter(svc)

		if rec := doRequest(r, "GET", "/payables/"+testItemID, ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for payable, got %d", rec.Code)
		}
		rec := doRequest(r, "GET", "/receivables/"+testItemID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for receivable, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BILL_NOT_FOUND")
	})
}

func TestBillHandler_UpdateBill(t *testing.T) {
	t.Run("passes provided fields", func(t *testing.T) {
		var got services.BillUpdate
		svc := &mockBillService{
			updateBillFn: func(_ string, _ models.BillKind, _ string, upd services.BillUpdate) (*models.Bill, error) {
				got = upd
				return &models.Bill{}, nil
			},
		}
		r := setupBillRouter(svc)

		rec := doRequest(r, "PUT", "/payables/"+testItemID, `{"due_date":"2026-05-01","is_recurring":false}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.DueDate == nil || got.DueDate.Month() != time.May {
			t.Errorf("expected May due date, got %v", got.DueDate)
		}
		if got.IsRecurring == nil || *got.IsRecurring {
			t.Errorf("expected recurrence off, got %v", got.IsRecurring)
		}
		if got.Amount != nil || got.PartyName != nil {
			t.Error("expected untouched fields to stay nil")
		}
	})
}

func TestBillHandler_PayBill(t *testing.T) {
	t.Run("returns next occurrence", func(t *testing.T) {
		svc := &mockBillService{
			markPaidFn: func(_ string, kind models.BillKind, id string) (*models.Bill, *models.Bill, error) {
				paid := &models.Bill{Base: models.Base{ID: id}, Kind: kind, EffectiveStatus: models.BillStatusPaid}
				next := &models.Bill{Base: models.Base{ID: testUserID}, Kind: kind, EffectiveStatus: models.BillStatusPending}
				return paid, next, nil
			},
		}
		r := setupBillRouter(svc)

		rec := doRequest(r, "POST", "/payables/"+testItemID+"/pay", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["bill"].(map[string]interface{})["status"] != "paid" {
			t.Errorf("expected paid bill, got %v", result["bill"])
		}
		if result["next"].(map[string]interface{})["status"] != "pending" {
			t.Errorf("expected pending next occurrence, got %v", result["next"])
		}
	})

	t.Run("omits next for one-off bills", func(t *testing.T) {
		r := setupBillRouter(&mockBillService{})

		rec := doRequest(r, "POST", "/receivables/"+testItemID+"/pay", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if _, ok := parseJSON(t, rec)["next"]; ok {
			t.Error("expected no next occurrence")
		}
	})
}

func TestBillHandler_DeleteBill(t *testing.T) {
	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupBillRouter(&mockBillService{})

		rec := doRequest(r, "DELETE", "/payables/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
