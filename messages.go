package server

import "radfield/server/internal/radiation"

type helloMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	Scenario   string `json:"scenario,omitempty"`
	TickRate   int    `json:"tickRate"`
	ServerTime int64  `json:"serverTime"`
}

type passMessage struct {
	Ver        int              `json:"ver"`
	Type       string           `json:"type"`
	ServerTime int64            `json:"serverTime"`
	Report     radiation.Report `json:"report"`
}

type diagnosticsSubscriber struct {
	ID          string `json:"id"`
	ConnectedAt int64  `json:"connectedAt"`
}
