// Package events carries the live order feed: a websocket hub the mock
// API broadcasts on, and a watcher clients use to follow it.
package events

import (
	"encoding/json"
	"time"
)

// Event types broadcast by the hub.
const (
	TypeOrderCreated       = "order_created"
	TypeOrderStatusChanged = "order_status_changed"
	TypeAnimalListed       = "animal_listed"
)

// Message is the wire envelope for one event.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func newMessage(eventType string, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}
