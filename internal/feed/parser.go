package feed

import (
	"encoding/json"
	"fmt"

	"marketpulse/internal/model"
)

// envelope is the wire frame every upstream message arrives in.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event is one decoded market-data message. Kind selects which of the
// payload fields is populated.
type Event struct {
	Kind  model.EventKind
	Trade model.Trade
	Book  model.BookSnapshot
	Bar   model.Bar
}

// parseEvent decodes an inbound frame. Control frames (pong,
// subscription acks) return a nil event and nil error so the caller
// can skip them without logging.
func parseEvent(msg []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	switch model.EventKind(env.Type) {
	case model.EventTrade:
		evt := &Event{Kind: model.EventTrade}
		if err := json.Unmarshal(env.Data, &evt.Trade); err != nil {
			return nil, fmt.Errorf("failed to decode trade: %w", err)
		}
		return evt, nil
	case model.EventBook:
		evt := &Event{Kind: model.EventBook}
		if err := json.Unmarshal(env.Data, &evt.Book); err != nil {
			return nil, fmt.Errorf("failed to decode book snapshot: %w", err)
		}
		return evt, nil
	case model.EventBar:
		evt := &Event{Kind: model.EventBar}
		if err := json.Unmarshal(env.Data, &evt.Bar); err != nil {
			return nil, fmt.Errorf("failed to decode bar: %w", err)
		}
		return evt, nil
	case "pong", "subscribed":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}
