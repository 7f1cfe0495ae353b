// Package auth issues and verifies signed bearer tokens and carries the
// authenticated user id through the request context.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/quincaillerie/httpx"
)

type ctxKey string

const (
	userIDCtxKey = ctxKey("userID")

	// DefaultTTL is the lifetime of tokens issued by IssueToken.
	DefaultTTL = 12 * time.Hour
)

// ErrInvalidToken is returned for malformed, tampered or expired tokens.
var ErrInvalidToken = errors.New("invalid_token")

// UserVerifier is an optional callback to validate that a token's user still exists and is active.
// Set it during app bootstrap via SetUserVerifier. If nil, no extra verification is performed.
type UserVerifier func(ctx context.Context, uid uint) bool

var (
	verifier UserVerifier
	secret   string
	now      = time.Now
)

// SetUserVerifier configures the global verifier used by RequireAuth.
func SetUserVerifier(v UserVerifier) { verifier = v }

// SetSecret overrides the signing secret (AUTH_SECRET otherwise).
func SetSecret(s string) { secret = s }

// Secret returns the configured secret, AUTH_SECRET, or a default dev value.
func Secret() string {
	if secret != "" {
		return secret
	}
	if s := os.Getenv("AUTH_SECRET"); s != "" {
		return s
	}
	return "devauthsecret"
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// IssueToken returns a signed token "uid.exp.sig" valid for ttl.
func IssueToken(userID uint, ttl time.Duration) (token string, expiresAt time.Time) {
	expiresAt = now().Add(ttl)
	payload := strconv.FormatUint(uint64(userID), 10) + "." + strconv.FormatInt(expiresAt.Unix(), 10)
	return payload + "." + sign(payload), expiresAt
}

// ParseToken validates the signature and expiry and returns the user id.
func ParseToken(token string) (uint, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, ErrInvalidToken
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(payload))) {
		return 0, ErrInvalidToken
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || now().Unix() >= exp {
		return 0, ErrInvalidToken
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || id64 == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id64), nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Middleware attaches user id to request context if a valid bearer token is present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := bearerToken(r); ok {
			if uid, err := ParseToken(tok); err == nil {
				r = r.WithContext(WithUserID(r.Context(), uid))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth returns 401 JSON unless the request carries a valid token for a verified user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			code := "unauthenticated"
			if _, present := bearerToken(r); present {
				code = ErrInvalidToken.Error()
			}
			httpx.JSONError(w, http.StatusUnauthorized, code, nil)
			return
		}
		if verifier != nil && !verifier(r.Context(), uid) {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthenticated", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
