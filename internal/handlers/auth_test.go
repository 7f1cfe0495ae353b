package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/gate"
	"github.com/diewo77/quincaillerie/internal/models"
	"github.com/diewo77/quincaillerie/internal/services"
)

func TestLoginAndMe(t *testing.T) {
	db := setupTestDB(t)
	users := services.NewUserService(db)
	h := NewAuthHandler(users, 0)
	u := createUser(t, db, "chef@test", gate.RoleManager)

	w := call(t, h.Login, http.MethodPost, "/auth/login", map[string]string{"email": "CHEF@test", "password": "secret123"}, 0, "")
	expectStatus(t, w, http.StatusOK)
	var resp loginResponse
	decode(t, w, &resp)
	uid, err := auth.ParseToken(resp.Token)
	if err != nil || uid != u.ID {
		t.Fatalf("token for %d expected, got %d (%v)", u.ID, uid, err)
	}

	w = call(t, h.Login, http.MethodPost, "/auth/login", map[string]string{"email": "chef@test", "password": "wrong"}, 0, "")
	expectStatus(t, w, http.StatusUnauthorized)

	w = call(t, h.Me, http.MethodGet, "/auth/me", nil, u.ID, "")
	expectStatus(t, w, http.StatusOK)
	var me models.User
	decode(t, w, &me)
	if me.Email != "chef@test" {
		t.Fatalf("unexpected me %+v", me)
	}

	w = call(t, h.Me, http.MethodGet, "/auth/me", nil, 0, "")
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestUserHandler(t *testing.T) {
	db := setupTestDB(t)
	users := services.NewUserService(db)
	var changed []uint
	users.OnChange(func(id uint) { changed = append(changed, id) })
	h := NewUserHandler(users)

	w := call(t, h.Create, http.MethodPost, "/users", map[string]any{
		"email": "caisse@test", "password": "motdepasse", "last_name": "Sarr", "first_name": "Fatou", "role": "PAYMENT_AGENT",
	}, 0, "")
	expectStatus(t, w, http.StatusCreated)
	var u models.User
	decode(t, w, &u)
	if !u.Active || u.Role != gate.RolePaymentAgent {
		t.Fatalf("unexpected user %+v", u)
	}

	w = call(t, h.Create, http.MethodPost, "/users", map[string]any{
		"email": "caisse@test", "password": "motdepasse", "last_name": "Sarr", "first_name": "Fatou", "role": "PAYMENT_AGENT",
	}, 0, "")
	expectStatus(t, w, http.StatusConflict)

	w = call(t, h.Create, http.MethodPost, "/users", map[string]any{
		"email": "x@test", "password": "motdepasse", "last_name": "X", "first_name": "Y", "role": "ADMIN",
	}, 0, "")
	expectStatus(t, w, http.StatusBadRequest)

	id := fmt.Sprint(u.ID)
	w = call(t, h.SetActive, http.MethodPost, "/users/"+id+"/active", map[string]bool{"active": false}, 0, id)
	expectStatus(t, w, http.StatusOK)
	if len(changed) != 1 || changed[0] != u.ID {
		t.Fatalf("expected change hook for %d, got %v", u.ID, changed)
	}

	w = call(t, h.SetRole, http.MethodPost, "/users/"+id+"/role", map[string]string{"role": "ROOT"}, 0, id)
	expectStatus(t, w, http.StatusBadRequest)
	w = call(t, h.SetRole, http.MethodPost, "/users/"+id+"/role", map[string]string{"role": "MANAGER"}, 0, id)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &u)
	if u.Role != gate.RoleManager || len(changed) != 2 {
		t.Fatalf("expected MANAGER and a second change hook, got %+v %v", u, changed)
	}
}
