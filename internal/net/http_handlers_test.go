package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	server "radfield/server"
	"radfield/server/internal/radiation"
	"radfield/server/internal/tickstore"
	"radfield/server/logging"
)

func newTestHandler(t *testing.T, store *tickstore.Store) (*server.Hub, nethttp.Handler) {
	t.Helper()
	hub := server.NewHub(log.New(io.Discard, "", 0), "test-scenario", 5)
	handler := NewHTTPHandler(hub, HTTPHandlerConfig{
		Logger:   log.New(io.Discard, "", 0),
		TickRate: 5,
		Scenario: "test-scenario",
		Metrics:  logging.NewMetrics(),
		Store:    store,
	})
	return hub, handler
}

func TestHealthEndpoint(t *testing.T) {
	_, handler := newTestHandler(t, nil)

	req := httptest.NewRequest(nethttp.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	_, handler := newTestHandler(t, nil)

	req := httptest.NewRequest(nethttp.MethodGet, "/diagnostics", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		Status   string `json:"status"`
		TickRate int    `json:"tickRate"`
		Scenario string `json:"scenario"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode diagnostics: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("expected status ok, got %q", payload.Status)
	}
	if payload.TickRate != 5 {
		t.Fatalf("expected tick rate 5, got %d", payload.TickRate)
	}
	if payload.Scenario != "test-scenario" {
		t.Fatalf("expected scenario echoed, got %q", payload.Scenario)
	}
}

func TestPassesWithoutStoreReturnsNotFound(t *testing.T) {
	_, handler := newTestHandler(t, nil)

	req := httptest.NewRequest(nethttp.MethodGet, "/passes", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != nethttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPassesReturnsStoredSummaries(t *testing.T) {
	store, err := tickstore.Open(filepath.Join(t.TempDir(), "ticks.sqlite"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	report := radiation.Report{
		Tick:     12,
		Exposure: map[string]float64{"engineer": 30},
	}
	if err := store.RecordPass(report, time.Now()); err != nil {
		t.Fatalf("failed to record pass: %v", err)
	}

	_, handler := newTestHandler(t, store)

	req := httptest.NewRequest(nethttp.MethodGet, "/passes?limit=10", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var payload struct {
		Passes []tickstore.Row `json:"passes"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode passes: %v", err)
	}
	if len(payload.Passes) != 1 || payload.Passes[0].Tick != 12 {
		t.Fatalf("expected stored pass for tick 12, got %+v", payload.Passes)
	}
}

func TestPassesRejectsInvalidLimit(t *testing.T) {
	store, err := tickstore.Open(filepath.Join(t.TempDir(), "ticks.sqlite"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	_, handler := newTestHandler(t, store)

	req := httptest.NewRequest(nethttp.MethodGet, "/passes?limit=zero", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestWebSocketFeed(t *testing.T) {
	hub, handler := newTestHandler(t, nil)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read hello: %v", err)
	}
	var hello struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &hello); err != nil {
		t.Fatalf("failed to decode hello: %v", err)
	}
	if hello.Type != "hello" {
		t.Fatalf("expected hello, got %q", hello.Type)
	}

	hub.BroadcastPass(radiation.Report{Tick: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read pass: %v", err)
	}
	var pass struct {
		Type   string `json:"type"`
		Report struct {
			Tick uint64 `json:"tick"`
		} `json:"report"`
	}
	if err := json.Unmarshal(data, &pass); err != nil {
		t.Fatalf("failed to decode pass: %v", err)
	}
	if pass.Type != "pass" || pass.Report.Tick != 2 {
		t.Fatalf("expected pass for tick 2, got %+v", pass)
	}
}
