package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doRPC(t *testing.T, handler http.Handler, method string, params interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]interface{}{"method": method}
	if params != nil {
		body["params"] = params
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandlerGetInfoRoundTrips(t *testing.T) {
	s, params := newTestServer(t)
	rec := doRPC(t, s.Handler(), "getinfo", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var info InfoResult
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if info.Network != params.Name {
		t.Fatalf("expected network %q, got %q", params.Name, info.Network)
	}
}

func TestHandlerUnknownMethodReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRPC(t, s.Handler(), "not_a_real_method", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerMalformedBodyReturns400(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerGetBlockMalformedHashFails(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRPC(t, s.Handler(), "getblock", map[string]string{"hash": "00"})
	if rec.Code == http.StatusOK {
		t.Fatalf("expected a failure status for a malformed hash, got 200")
	}
}

func TestHandlerLivenessAndReadiness(t *testing.T) {
	s, _ := newTestServer(t)
	handler := s.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected liveness 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected readiness 503 with no peers, got %d", rec.Code)
	}

	for i := 0; i < MinPeerCount; i++ {
		if err := s.Peers.AddPeer(string(rune('a'+i)), true); err != nil {
			t.Fatalf("AddPeer: %v", err)
		}
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected readiness 200 once peers are connected, got %d", rec.Code)
	}
}

func TestHandlerSendRawTransactionRejectsGarbageHex(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRPC(t, s.Handler(), "sendrawtransaction", map[string]interface{}{"hex": "zz"})
	if rec.Code == http.StatusOK {
		t.Fatalf("expected a failure status for invalid hex, got 200")
	}
}
