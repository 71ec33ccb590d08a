package events

import "encoding/json"

// Message is the wire format of the event channel. Every frame carries a
// type discriminator; notification payloads nest under data.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Handler receives every successfully parsed inbound message. Handlers are
// invoked for all registered callbacks in no guaranteed order; a panicking
// handler does not prevent delivery to the others.
type Handler func(msg Message)
