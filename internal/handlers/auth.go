package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/internal/services"
)

type AuthHandler struct {
	Users    *services.UserService
	TokenTTL time.Duration
}

func NewAuthHandler(users *services.UserService, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = auth.DefaultTTL
	}
	return &AuthHandler{Users: users, TokenTTL: ttl}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		badJSON(w, err)
		return
	}
	user, err := h.Users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	token, exp := auth.IssueToken(user.ID, h.TokenTTL)
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp, User: user})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
		return
	}
	user, err := h.Users.Get(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
