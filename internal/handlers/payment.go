package handlers

import (
	"net/http"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/services"
	"github.com/shopspring/decimal"
)

// PaymentHandler records installments and exposes supplier debt.
type PaymentHandler struct {
	Ledger *services.LedgerService
}

func NewPaymentHandler(ledger *services.LedgerService) *PaymentHandler {
	return &PaymentHandler{Ledger: ledger}
}

type recordPaymentRequest struct {
	OrderID           uint            `json:"order_id"`
	Amount            decimal.Decimal `json:"amount"`
	InstallmentNumber int             `json:"installment_number"`
	Notes             string          `json:"notes"`
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in recordPaymentRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	p, err := h.Ledger.RecordPayment(r.Context(), services.RecordPaymentInput{
		OrderID:           in.OrderID,
		Amount:            in.Amount,
		InstallmentNumber: in.InstallmentNumber,
		RecordedByID:      uid,
		Notes:             in.Notes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// List supports ?order_id=, ?supplier_id=, ?from= and ?to=.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := services.PaymentFilter{
		OrderID:    q.id("order_id"),
		SupplierID: q.id("supplier_id"),
		From:       q.date("from"),
		To:         q.date("to"),
	}
	if q.err(w) {
		return
	}
	sp, hp := page(r)
	items, total, err := h.Ledger.ListPayments(r.Context(), f, sp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, total, hp)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	p, err := h.Ledger.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) Debts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.Ledger.AggregateDebtBySupplier(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if debts == nil {
		debts = []services.SupplierDebt{}
	}
	httpx.JSON(w, http.StatusOK, debts)
}

func (h *PaymentHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := services.OutstandingFilter{SupplierID: q.id("supplier_id")}
	if q.err(w) {
		return
	}
	sp, hp := page(r)
	items, total, err := h.Ledger.ListOutstandingOrders(r.Context(), f, sp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, total, hp)
}
