package streaming

import (
	"encoding/json"

	"github.com/cwstats/recorder/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartRound = "start_round"
	TypeEndRound   = "end_round"
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

// StartRoundPayload carries the record as it looked when the round began.
type StartRoundPayload struct {
	Record *core.GameRecord `json:"record"`
}

// EndRoundPayload carries the finalized record and its summary lines.
type EndRoundPayload struct {
	Record  *core.GameRecord `json:"record"`
	Outcome core.Outcome     `json:"outcome"`
	Lines   []string         `json:"lines"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}
