package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func runHostJWT(t *testing.T, secret string, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	rec := httptest.NewRecorder()
	called := false
	HostJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := HostClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected host claims in context")
		}
		if claims.Subject != "voice-bridge" {
			t.Fatalf("unexpected subject %q", claims.Subject)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestHostJWTMissingSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+signedHostToken(t, "secret", time.Minute))
	rec, called := runHostJWT(t, "", req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", rec.Code)
	}
}

func TestHostJWTMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	rec, called := runHostJWT(t, "secret", req)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHostJWTRejectsBadTokens(t *testing.T) {
	for name, token := range map[string]string{
		"wrong secret": signedHostToken(t, "wrong", time.Minute),
		"expired":      signedHostToken(t, "secret", -time.Minute),
		"garbage":      "not-a-jwt",
	} {
		req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec, called := runHostJWT(t, "secret", req)
		if called || rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}

func TestHostJWTValidToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+signedHostToken(t, "secret", time.Minute))
	rec, called := runHostJWT(t, "secret", req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected handler call with 200, got %d", rec.Code)
	}
}

func TestHostJWTQueryToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sessions/ws?access_token="+signedHostToken(t, "secret", time.Minute), nil)
	rec, called := runHostJWT(t, "secret", req)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected query token to be accepted, got %d", rec.Code)
	}
}

func signedHostToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "voice-bridge",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
