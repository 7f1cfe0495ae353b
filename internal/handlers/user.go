package handlers

import (
	"net/http"

	"github.com/diewo77/quincaillerie/gate"
	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/services"
)

// UserHandler manages staff accounts.
type UserHandler struct {
	Users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type createUserRequest struct {
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	LastName  string    `json:"last_name"`
	FirstName string    `json:"first_name"`
	Role      gate.Role `json:"role"`
	Active    *bool     `json:"active"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in createUserRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	u, err := h.Users.Create(r.Context(), services.UserInput{
		Email:     in.Email,
		Password:  in.Password,
		LastName:  in.LastName,
		FirstName: in.FirstName,
		Role:      in.Role,
		Active:    active,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	sp, hp := page(r)
	items, total, err := h.Users.List(r.Context(), sp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, total, hp)
}

func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in struct {
		Active bool `json:"active"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	u, err := h.Users.SetActive(r.Context(), id, in.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		badID(w)
		return
	}
	var in struct {
		Role gate.Role `json:"role"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	u, err := h.Users.SetRole(r.Context(), id, in.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}
