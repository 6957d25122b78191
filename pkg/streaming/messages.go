package streaming

import (
	"encoding/json"

	"github.com/hololab/tabletop4d/pkg/core"
)

// Message type constants for the spectator stream.
const (
	TypeStartMatch = "start_match"
	TypeEndMatch   = "end_match"
	TypeTurn       = "turn"
	TypeCapture    = "capture"
	TypeSync       = "sync"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartMatchPayload carries the match header and its starting lineup.
type StartMatchPayload struct {
	Match *core.Match `json:"match"`
}
