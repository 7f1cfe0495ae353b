package handlers

import (
	"net/http"

	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/services"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{Catalog: catalog}
}

type productRequest struct {
	Code          string          `json:"code"`
	Designation   string          `json:"designation"`
	StockQuantity int             `json:"stock_quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ImageRef      string          `json:"image_ref"`
	SubCategoryID uint            `json:"sub_category_id"`
}

func (in productRequest) input() services.ProductInput {
	return services.ProductInput{
		Code:          in.Code,
		Designation:   in.Designation,
		StockQuantity: in.StockQuantity,
		UnitPrice:     in.UnitPrice,
		ImageRef:      in.ImageRef,
		SubCategoryID: in.SubCategoryID,
	}
}

// List supports ?q=, ?sub_category_id=, ?include_archived= and ?low_stock=<threshold>.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := services.ProductFilter{
		Search:          q.str("q"),
		SubCategoryID:   q.id("sub_category_id"),
		IncludeArchived: q.flag("include_archived"),
		LowStock:        q.intPtr("low_stock"),
	}
	if q.err(w) {
		return
	}
	sp, hp := page(r)
	items, total, err := h.Catalog.ListProducts(r.Context(), f, sp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, total, hp)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in productRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), in.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	p, err := h.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in productRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	p, err := h.Catalog.UpdateProduct(r.Context(), id, in.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	p, err := h.Catalog.ToggleProductArchive(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
