package handlers

import (
	"net/http"

	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/services"
)

// CatalogHandler serves categories and sub-categories.
type CatalogHandler struct {
	Catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog}
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{Name: in.Name, Description: in.Description}
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := services.CategoryFilter{Search: q.str("q"), IncludeArchived: q.flag("include_archived")}
	if q.err(w) {
		return
	}
	sp, hp := page(r)
	items, total, err := h.Catalog.ListCategories(r.Context(), f, sp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, total, hp)
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), in.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	c, err := h.Catalog.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in categoryRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	c, err := h.Catalog.UpdateCategory(r.Context(), id, in.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) ToggleCategoryArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	c, err := h.Catalog.ToggleCategoryArchive(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	if err := h.Catalog.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Sub-categories

type subCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  uint   `json:"category_id"`
}

func (in subCategoryRequest) input() services.SubCategoryInput {
	return services.SubCategoryInput{Name: in.Name, Description: in.Description, CategoryID: in.CategoryID}
}

func (h *CatalogHandler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := services.SubCategoryFilter{
		CategoryID:      q.id("category_id"),
		Search:          q.str("q"),
		IncludeArchived: q.flag("include_archived"),
	}
	if q.err(w) {
		return
	}
	sp, hp := page(r)
	items, total, err := h.Catalog.ListSubCategories(r.Context(), f, sp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, total, hp)
}

func (h *CatalogHandler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	var in subCategoryRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	sc, err := h.Catalog.CreateSubCategory(r.Context(), in.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sc)
}

func (h *CatalogHandler) GetSubCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	sc, err := h.Catalog.GetSubCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sc)
}

func (h *CatalogHandler) UpdateSubCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in subCategoryRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	sc, err := h.Catalog.UpdateSubCategory(r.Context(), id, in.input())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sc)
}

func (h *CatalogHandler) ToggleSubCategoryArchive(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	sc, err := h.Catalog.ToggleSubCategoryArchive(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sc)
}

func (h *CatalogHandler) DeleteSubCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	if err := h.Catalog.DeleteSubCategory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
