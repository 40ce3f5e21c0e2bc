package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHS256RoundTrip(t *testing.T) {
	token, err := SignHS256("host-1", "owner", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	claims, err := NewVerifier("test-secret", nil).Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.HostID() != "host-1" || claims.Role != "owner" {
		t.Fatalf("claims mismatch: got %+v", claims)
	}
	if _, err := NewVerifier("wrong-secret", nil).Parse(token); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := SignHS256("host-1", "", "s", -time.Minute)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := NewVerifier("s", nil).Parse(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestRS256WithoutJWKSRejected(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "host-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "kid-1"
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := NewVerifier("secret", nil).Parse(signed); err == nil {
		t.Fatal("expected rs256 to fail without a jwks client")
	}
}

func TestRequireHost(t *testing.T) {
	v := NewVerifier("secret", nil)
	h := RequireHost(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if HostIDFromContext(r.Context()) != "host-9" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	token, _ := SignHS256("host-9", "owner", "secret", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	reqBad := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqBad.Header.Set("Authorization", "Bearer badtoken")
	rwBad := httptest.NewRecorder()
	h.ServeHTTP(rwBad, reqBad)
	if rwBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwBad.Code)
	}
}

func TestOptionalHostAnonymous(t *testing.T) {
	h := OptionalHost(NewVerifier("secret", nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ClaimsFromContext(r.Context()) != nil {
			t.Fatal("anonymous request should carry no claims")
		}
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}
