package handlers

import (
	"net/http"

	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/services"
)

type SupplierHandler struct {
	Suppliers *services.SupplierService
}

func NewSupplierHandler(suppliers *services.SupplierService) *SupplierHandler {
	return &SupplierHandler{Suppliers: suppliers}
}

type supplierRequest struct {
	Number  string `json:"number"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (in supplierRequest) input() services.SupplierInput {
	return services.SupplierInput{Number: in.Number, Name: in.Name, Address: in.Address, Phone: in.Phone, Email: in.Email}
}

func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := services.SupplierFilter{Search: q.str("q"), IncludeArchived: q.flag("include_archived")}
	if q.err(w) {
		return
	}
	sp, hp := page(r)
	items, total, err := h.Suppliers.List(r.Context(), f, sp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, total, hp)
}

func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in supplierRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	s, err := h.Suppliers.Create(r.Context(), in.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	s, err := h.Suppliers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in supplierRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	s, err := h.Suppliers.Update(r.Context(), id, in.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *SupplierHandler) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	s, err := h.Suppliers.ToggleArchive(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	if err := h.Suppliers.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
