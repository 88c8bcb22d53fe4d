package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	server "radfield/server"
	"radfield/server/internal/sim"
	"radfield/server/internal/tickstore"
	"radfield/server/logging"
)

// HTTPHandlerConfig wires the endpoints to the running simulation. Store may
// be nil when no tick store is configured; /passes then returns 404.
type HTTPHandlerConfig struct {
	Logger   *log.Logger
	TickRate int
	Scenario string
	Loop     *sim.Loop
	Metrics  *logging.Metrics
	Store    *tickstore.Store
}

// NewHTTPHandler builds the debug/diagnostics surface: health, diagnostics,
// recent pass summaries, and the WebSocket pass feed.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var tick uint64
		if cfg.Loop != nil {
			tick = cfg.Loop.Tick()
		}
		var telemetry any
		if cfg.Metrics != nil {
			telemetry = cfg.Metrics.Snapshot()
		}

		payload := struct {
			Status      string `json:"status"`
			ServerTime  int64  `json:"serverTime"`
			Tick        uint64 `json:"tick"`
			TickRate    int    `json:"tickRate"`
			Scenario    string `json:"scenario,omitempty"`
			Subscribers any    `json:"subscribers"`
			Telemetry   any    `json:"telemetry,omitempty"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Tick:        tick,
			TickRate:    cfg.TickRate,
			Scenario:    cfg.Scenario,
			Subscribers: hub.DiagnosticsSnapshot(),
			Telemetry:   telemetry,
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/passes", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Store == nil {
			httpError(w, "tick store not configured", nethttp.StatusNotFound)
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value <= 0 {
				httpError(w, "invalid limit", nethttp.StatusBadRequest)
				return
			}
			limit = value
		}

		rows, err := cfg.Store.RecentPasses(limit)
		if err != nil {
			logger.Printf("failed to read pass summaries: %v", err)
			httpError(w, "failed to read passes", nethttp.StatusInternalServerError)
			return
		}

		payload := struct {
			Passes []tickstore.Row `json:"passes"`
		}{Passes: rows}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("upgrade failed: %v", err)
			return
		}

		id, err := hub.Subscribe(conn)
		if err != nil {
			logger.Printf("subscribe failed: %v", err)
			conn.Close()
			return
		}

		// The feed is one-way. Read until the client goes away so pings
		// and close frames are serviced.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Disconnect(id)
				return
			}
		}
	})

	return mux
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
