package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/internal/services"
	"github.com/shopspring/decimal"
)

// OrderHandler serves the order lifecycle and the per-order ledger views.
type OrderHandler struct {
	Orders *services.OrderService
	Ledger *services.LedgerService
	Now    func() time.Time
}

func NewOrderHandler(orders *services.OrderService, ledger *services.LedgerService) *OrderHandler {
	return &OrderHandler{Orders: orders, Ledger: ledger, Now: time.Now}
}

type orderItemRequest struct {
	ProductID     uint            `json:"product_id"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

type createOrderRequest struct {
	SupplierID           uint               `json:"supplier_id"`
	ExpectedDeliveryDate Date               `json:"expected_delivery_date"`
	Items                []orderItemRequest `json:"items"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in createOrderRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	input := services.CreateOrderInput{
		SupplierID:           in.SupplierID,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate.Time,
		CallerID:             uid,
	}
	for _, it := range in.Items {
		input.Items = append(input.Items, services.OrderItemInput{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			PurchasePrice: it.PurchasePrice,
		})
	}
	order, err := h.Orders.CreateOrder(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

// List supports ?status=, ?supplier_id=, ?purchasing_agent_id=, ?from= and ?to=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := services.OrderFilter{
		Status:            models.OrderStatus(q.str("status")),
		SupplierID:        q.id("supplier_id"),
		PurchasingAgentID: q.id("purchasing_agent_id"),
		From:              q.date("from"),
		To:                q.date("to"),
	}
	if q.err(w) {
		return
	}
	sp, hp := page(r)
	items, total, err := h.Orders.ListOrders(r.Context(), f, sp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, total, hp)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	order, err := h.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	order, err := h.Orders.MarkDelivered(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	order, err := h.Orders.CancelOrder(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Orders.Stats(r.Context(), h.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *OrderHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	b, err := h.Ledger.ComputeBalance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *OrderHandler) Payments(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	hist, err := h.Ledger.InstallmentHistory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, hist)
}

func (h *OrderHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	plan, err := h.Ledger.SuggestedSchedule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order_id": id, "installments": plan})
}
