package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"corridor/pkg/httpx"
	"corridor/pkg/request"
)

func authCfg() AuthConfig {
	return AuthConfig{
		BackendKeys:  map[string]struct{}{"bk-1": {}},
		FrontendKeys: map[string]struct{}{"fk-1": {}},
		AdminKeys:    map[string]struct{}{"ak-1": {}},
	}
}

func TestAuth_NoKeyUnauthorized(t *testing.T) {
	h := Chain(okHandler(), Auth(authCfg()))
	rec := httptest.NewRecorder()
	h.Serve(rec, testRequest(t, "GET", "/v1/notes"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_IdentityInExtensions(t *testing.T) {
	var id Identity
	h := Chain(httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
		got, ok := IdentityFrom(r)
		if !ok {
			t.Errorf("identity missing")
		}
		id = got
		w.WriteHeader(http.StatusOK)
	}), Auth(authCfg()))

	req := testRequest(t, "GET", "/v1/notes")
	req.Header.Set("Authorization", "Bearer bk-1")
	rec := httptest.NewRecorder()
	h.Serve(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if id.Role != RoleBackend || id.Key != "bk-1" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestAuth_XAPIKeyFallback(t *testing.T) {
	h := Chain(okHandler(), Auth(authCfg()))
	req := testRequest(t, "GET", "/v1/notes")
	req.Header.Set("X-API-Key", "ak-1")
	rec := httptest.NewRecorder()
	h.Serve(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_FrontendScope(t *testing.T) {
	h := Chain(okHandler(), Auth(authCfg()))

	req := testRequest(t, "GET", "/v1/notes/abc")
	req.Header.Set("X-API-Key", "fk-1")
	rec := httptest.NewRecorder()
	h.Serve(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("frontend blocked from notes api: %d", rec.Code)
	}

	req2 := testRequest(t, "GET", "/admin/stats")
	req2.Header.Set("X-API-Key", "fk-1")
	rec2 := httptest.NewRecorder()
	h.Serve(rec2, req2)
	if rec2.Code != http.StatusForbidden {
		t.Fatalf("frontend reached admin api: %d", rec2.Code)
	}
}

func TestAuth_BackendBlockedFromAdmin(t *testing.T) {
	h := Chain(okHandler(), Auth(authCfg()))
	req := testRequest(t, "GET", "/admin/stats")
	req.Header.Set("X-API-Key", "bk-1")
	rec := httptest.NewRecorder()
	h.Serve(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("backend reached admin api: %d", rec.Code)
	}
}

func TestAuth_ProbesStayOpen(t *testing.T) {
	h := Chain(okHandler(), Auth(authCfg()))
	rec := httptest.NewRecorder()
	h.Serve(rec, testRequest(t, "GET", "/healthz"))
	if rec.Code != http.StatusOK {
		t.Fatalf("probe blocked: %d", rec.Code)
	}
}

func TestAuth_IPWhitelist(t *testing.T) {
	cfg := authCfg()
	cfg.IPWhitelist = []string{"198.51.100.1"}
	h := Chain(okHandler(), Auth(cfg))

	// testRequest remote is 203.0.113.9
	req := testRequest(t, "GET", "/v1/notes")
	req.Header.Set("X-API-Key", "bk-1")
	rec := httptest.NewRecorder()
	h.Serve(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-whitelisted ip, got %d", rec.Code)
	}

	cfg.IPWhitelist = []string{"203.0.113.9"}
	h2 := Chain(okHandler(), Auth(cfg))
	rec2 := httptest.NewRecorder()
	req2 := testRequest(t, "GET", "/v1/notes")
	req2.Header.Set("X-API-Key", "bk-1")
	h2.Serve(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("whitelisted ip blocked: %d", rec2.Code)
	}
}

func TestRateLimit_BurstExhaustion(t *testing.T) {
	h := Chain(okHandler(), RateLimit(RateLimitConfig{RPS: 1, Burst: 2}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.Serve(rec, testRequest(t, "GET", "/x"))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %v", codes)
	}
}

func TestRateLimit_KeyedByIdentity(t *testing.T) {
	h := Chain(okHandler(), Auth(authCfg()), RateLimit(RateLimitConfig{RPS: 1, Burst: 1}))

	do := func(key string) int {
		req := testRequest(t, "GET", "/v1/notes")
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()
		h.Serve(rec, req)
		return rec.Code
	}

	if c := do("bk-1"); c != http.StatusOK {
		t.Fatalf("first backend call: %d", c)
	}
	if c := do("bk-1"); c != http.StatusTooManyRequests {
		t.Fatalf("second backend call should be limited, got %d", c)
	}
	// a different key has its own bucket
	if c := do("ak-1"); c != http.StatusOK {
		t.Fatalf("admin key sharing backend bucket: %d", c)
	}
}
