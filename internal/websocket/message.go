package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// TypeState carries a full session state snapshot. Clients may also send
	// it, without payload, to ask for one.
	TypeState MessageType = "state"
	// TypeReload tells the browser to drop everything it holds and reload.
	TypeReload MessageType = "reload"
	TypePing   MessageType = "ping"
	TypePong   MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type ReloadPayload struct {
	Reason   string `json:"reason"`
	Location string `json:"location,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
