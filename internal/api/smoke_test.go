// Package api_test runs HTTP-level smoke tests using net/http/httptest.
// These tests do NOT require a PostgreSQL database — they verify:
//   - Gin router routing and middleware wiring
//   - Request validation error responses (400)
//   - Response format consistency (success/error envelope)
//   - CORS preflight handling
package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/malagaclima/lluviabet/internal/api"
	"github.com/malagaclima/lluviabet/internal/config"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func testCfg() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Env = "development"
	cfg.Server.Port = "8080"
	return cfg
}

// buildTestRouter creates a Gin engine with nil services: requests that fail
// validation never reach them, which is exactly the layer under test here.
func buildTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return api.SetupRouter(api.RouterDeps{
		BettingSvc: nil,
		Engine:     nil,
		WalletSvc:  nil,
		RewardSvc:  nil,
		Source:     nil,
		Hub:        nil,
		Cfg:        testCfg(),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("response is not valid JSON: %v — body: %s", err, rr.Body.String())
	}
	return m
}

// ── /health ───────────────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rr.Code)
	}
}

// ── Wager endpoints — validation layer ────────────────────────────────────────

func TestPlaceWager_MissingFields(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/wagers", `{}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST /api/wagers empty body = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["success"] != false {
		t.Errorf("response.success should be false on error, got %v", body["success"])
	}
	if body["code"] == nil {
		t.Errorf("error envelope missing 'code', got: %v", body)
	}
}

func TestPlaceWager_NegativeStake(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{"category":"rain_amount","predicted_value":5,"stake":"-20.00"}`
	rr := do(t, h, http.MethodPost, "/api/wagers", payload, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("negative stake = %d, want 400", rr.Code)
	}
}

func TestPlaceWager_MalformedStake(t *testing.T) {
	h := buildTestRouter(t)
	payload := `{"category":"rain_amount","predicted_value":5,"stake":"lots"}`
	rr := do(t, h, http.MethodPost, "/api/wagers", payload, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed stake = %d, want 400", rr.Code)
	}
}

func TestCancelWager_BadID(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/wagers/not-a-uuid/cancel", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("cancel with bad id = %d, want 400", rr.Code)
	}
}

func TestVerifyWager_BadID(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/wagers/123/verify", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("verify with bad id = %d, want 400", rr.Code)
	}
}

func TestGetWager_BadID(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/wagers/zzz", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("get with bad id = %d, want 400", rr.Code)
	}
}

func TestQuoteOdds_MissingPredicted(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodGet, "/api/odds/quote?category=rain_amount", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("quote without predicted = %d, want 400", rr.Code)
	}
}

// ── Error envelope format ─────────────────────────────────────────────────────

func TestErrorEnvelope_HasRequiredFields(t *testing.T) {
	h := buildTestRouter(t)
	rr := do(t, h, http.MethodPost, "/api/wagers", `{}`, nil)
	body := decodeBody(t, rr)

	for _, field := range []string{"success", "error", "code"} {
		if _, ok := body[field]; !ok {
			t.Errorf("error envelope missing field %q, got: %v", field, body)
		}
	}
	if body["success"] != false {
		t.Errorf("error envelope.success = %v, want false", body["success"])
	}
}

// ── CORS headers ──────────────────────────────────────────────────────────────

func TestCORSOptionsRequest(t *testing.T) {
	h := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/wagers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	// OPTIONS should return 204 (no content) in dev mode
	if rr.Code != http.StatusNoContent && rr.Code != http.StatusOK {
		t.Errorf("OPTIONS /api/wagers = %d, want 204 or 200", rr.Code)
	}
	allow := rr.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(allow, "POST") {
		t.Errorf("Access-Control-Allow-Methods missing POST, got %q", allow)
	}
}

func TestCORSAllowOrigin_Dev(t *testing.T) {
	h := buildTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	// In dev mode, CORS origin should be wildcard
	origin := rr.Header().Get("Access-Control-Allow-Origin")
	if origin != "*" {
		t.Errorf("Dev CORS origin = %q, want *", origin)
	}
}

// X-User-ID header handling lives in the identity middleware; its bucket
// fallback is tested in internal/api/middleware.
