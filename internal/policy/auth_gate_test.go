package policy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/gate"
)

func newTestGate() *AuthGate {
	r := gate.NewStaticResolver[uint]()
	r.Set(1, &gate.Subject{UserID: 1, Role: gate.RolePurchasingAgent, Active: true})
	r.Set(2, &gate.Subject{UserID: 2, Role: gate.RolePaymentAgent, Active: true})
	r.Set(3, &gate.Subject{UserID: 3, Role: gate.RoleManager, Active: false})
	return NewAuthGateWithResolver(r, time.Minute)
}

func TestRequirePermission(t *testing.T) {
	ag := newTestGate()
	var seen *gate.Subject
	h := ag.RequirePermission(ResourceOrder, gate.ActionDeliver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		uid  uint
		want int
	}{
		{"anonymous", 0, http.StatusUnauthorized},
		{"unknown user", 99, http.StatusUnauthorized},
		{"inactive user", 3, http.StatusUnauthorized},
		{"wrong role", 2, http.StatusForbidden},
		{"allowed", 1, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/orders/1/deliver", nil)
			if tt.uid != 0 {
				req = req.WithContext(auth.WithUserID(req.Context(), tt.uid))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d got %d (%s)", tt.want, w.Code, w.Body.String())
			}
		})
	}
	if seen == nil || seen.UserID != 1 {
		t.Fatalf("expected subject of user 1 in context, got %+v", seen)
	}
}

func TestRequirePermissionResolverFailure(t *testing.T) {
	ag := NewAuthGateWithResolver(gate.ResolverFunc[uint](func(context.Context, uint) (*gate.Subject, error) {
		return nil, errors.New("database is down")
	}), time.Minute)
	h := ag.RequirePermission(ResourceOrder, gate.ActionList)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), 1))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d (%s)", w.Code, w.Body.String())
	}
}
