// Package protocol defines the messages exchanged with game clients and their JSON envelope.
package protocol

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Message is any message that can be carried in an Envelope.
type Message interface {
	Name() string
}

// Envelope is the wire form of a message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrUnknownType is returned when decoding an envelope whose type has no registered decoder.
var ErrUnknownType = eris.New("unknown message type")

var decoders = map[string]func([]byte) (Message, error){ //nolint:gochecknoglobals // registry of inbound messages
	EquipItemRequest{}.Name():  decode[EquipItemRequest],
	DropItemRequest{}.Name():   decode[DropItemRequest],
	PickupItemRequest{}.Name(): decode[PickupItemRequest],
}

func decode[T Message](payload []byte) (Message, error) {
	var msg T
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, eris.Wrapf(err, "failed to unmarshal %s", msg.Name())
	}
	return msg, nil
}

// Encode wraps msg in an envelope.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to marshal %s", msg.Name())
	}
	data, err := json.Marshal(Envelope{Type: msg.Name(), Payload: payload})
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal envelope")
	}
	return data, nil
}

// Decode parses an inbound envelope into its request.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "failed to unmarshal envelope")
	}
	fn, ok := decoders[env.Type]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownType, "%q", env.Type)
	}
	return fn(env.Payload)
}
