package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "gateway-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func authRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func runAuth(t *testing.T, auth *Authenticator, req *http.Request, scopes ...string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler := auth.Middleware(scopes...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticatorDisabledPassesThrough(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: false}, nil)
	rec := runAuth(t, auth, authRequest(""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", rec.Code)
	}
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret}, nil)
	rec := runAuth(t, auth, authRequest(""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticatorValidatesSignatureAndClaims(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{
		Enabled:    true,
		HMACSecret: testSecret,
		Issuer:     "questhub",
		Audience:   "gateway",
	}, nil)

	good := signToken(t, jwt.MapClaims{
		"iss":   "questhub",
		"aud":   "gateway",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": "quests:write",
	})
	if rec := runAuth(t, auth, authRequest(good)); rec.Code != http.StatusOK {
		t.Fatalf("expected valid token accepted, got %d", rec.Code)
	}

	badIssuer := signToken(t, jwt.MapClaims{
		"iss": "someone-else",
		"aud": "gateway",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if rec := runAuth(t, auth, authRequest(badIssuer)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected issuer mismatch rejected, got %d", rec.Code)
	}
}

func TestAuthenticatorEnforcesScopes(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{Enabled: true, HMACSecret: testSecret}, nil)
	token := signToken(t, jwt.MapClaims{
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": "quests:read",
	})
	if rec := runAuth(t, auth, authRequest(token), "quests:write"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected insufficient scope, got %d", rec.Code)
	}
	if rec := runAuth(t, auth, authRequest(token), "quests:read"); rec.Code != http.StatusOK {
		t.Fatalf("expected matching scope accepted, got %d", rec.Code)
	}
}
