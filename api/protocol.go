package api

import (
	"encoding/json"
	"fmt"

	"github.com/matt-g-everett/ledrace/race"
)

// Message types sent over the websocket.
const (
	// MsgPlan carries the race plan, sent once when a browser connects.
	MsgPlan = "plan"
	// MsgFrame carries a FrameMessage, sent every frame.
	MsgFrame = "frame"
)

// Envelope wraps every message sent to a browser.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

// FrameMessage is one frame of the race.
type FrameMessage struct {
	Frame    int               `json:"frame"`
	Finished bool              `json:"finished"`
	States   []race.FrameState `json:"states"`
}

// Encode marshals payload into an Envelope of type t.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("api: encode with empty message type")
	}
	if payload == nil {
		return nil, fmt.Errorf("api: encode %q with nil payload", t)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("api: encode %q: %w", t, err)
	}

	return json.Marshal(Envelope{T: t, P: pb})
}
