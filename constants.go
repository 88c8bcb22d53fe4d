package server

import "time"

const (
	ProtocolVersion = 1
	writeWait       = 10 * time.Second
)
