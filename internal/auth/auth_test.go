package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		header string
		url    string
		want   string
	}{
		{"bearer header", "Bearer abc", "/api/x", "abc"},
		{"lowercase scheme", "bearer abc", "/api/x", "abc"},
		{"other scheme", "Basic abc", "/api/x?access_token=q", ""},
		{"query fallback", "", "/api/live/transactions?access_token=q", "q"},
		{"nothing", "", "/api/x", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if got := TokenFromRequest(r); got != tc.want {
				t.Errorf("TokenFromRequest() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestJWTVerifier(t *testing.T) {
	v, err := NewJWTVerifier("secret", "https://auth.example/auth/v1")
	if err != nil {
		t.Fatalf("NewJWTVerifier() error = %v", err)
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	good, _ := v.Sign(Identity{UID: "u1", Email: "u1@example.com"}, jwt.RegisteredClaims{ExpiresAt: future})
	id, err := v.Verify(context.Background(), good)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.UID != "u1" || id.Email != "u1@example.com" {
		t.Errorf("Verify() = %+v", id)
	}

	other, _ := NewJWTVerifier("other", "https://auth.example/auth/v1")
	forged, _ := other.Sign(Identity{UID: "u1"}, jwt.RegisteredClaims{ExpiresAt: future})
	expired, _ := v.Sign(Identity{UID: "u1"}, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))})
	wrongIssuer, _ := v.Sign(Identity{UID: "u1"}, jwt.RegisteredClaims{Issuer: "https://evil.example", ExpiresAt: future})
	noSubject, _ := v.Sign(Identity{}, jwt.RegisteredClaims{ExpiresAt: future})

	for name, token := range map[string]string{
		"wrong secret": forged,
		"expired":      expired,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
		"garbage":      "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}

	if _, err := v.Verify(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Errorf("Verify(\"\") error = %v, want ErrMissingToken", err)
	}
}

func TestMiddleware(t *testing.T) {
	v, _ := NewJWTVerifier("secret", "")
	token, _ := v.Sign(Identity{UID: "owner-1"}, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})

	var seen string
	h := Middleware(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerFrom(r.Context())
	}))

	cases := []struct {
		name       string
		header     string
		wantStatus int
		wantOwner  string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "owner-1"},
		{"missing token", "", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			r := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if seen != tc.wantOwner {
				t.Errorf("owner = %q, want %q", seen, tc.wantOwner)
			}
		})
	}
}

func TestMiddlewareStaticIdentity(t *testing.T) {
	var seen string
	h := Middleware(StaticVerifier{ID: Identity{UID: "dev"}}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerFrom(r.Context())
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))
	if w.Code != http.StatusOK || seen != "dev" {
		t.Fatalf("static identity: status %d owner %q", w.Code, seen)
	}
}

func TestDenyRejectsEverything(t *testing.T) {
	for _, token := range []string{"", "anything"} {
		if _, err := (Deny{}).Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Deny.Verify(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}
