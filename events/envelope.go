/*
Package events delivers ledger notifications to the outside world.

PURPOSE:
  The ledger emits generic.Event values after each committed operation.
  This package wraps them in an Envelope (id, type, account, timestamp)
  and hands them to a transport.

PUBLISHERS:
  AMQPPublisher: RabbitMQ topic exchange, one message per event
  LogPublisher:  Structured log line per event (default)
  Fanout:        Several publishers at once

DELIVERY:
  Publishing happens after commit. A failed publish is reported to the
  caller but never undoes ledger state.

SEE ALSO:
  - generic/events.go: Event types
  - hydration/ledger.go: Emits events
*/
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/warp/hydration-engine/generic"
)

// Envelope is the wire format of a published event.
type Envelope struct {
	ID         uuid.UUID         `json:"id"`
	Type       string            `json:"type"`
	Account    generic.AccountID `json:"account"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    json.RawMessage   `json:"payload"`
}

// NewEnvelope wraps e with a fresh id.
func NewEnvelope(e generic.Event, at time.Time) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", e.Name(), err)
	}
	return Envelope{
		ID:         uuid.New(),
		Type:       e.Name(),
		Account:    e.Subject(),
		OccurredAt: at.UTC(),
		Payload:    payload,
	}, nil
}

// RoutingKey is the AMQP topic for this envelope, e.g. "hydration.water_logged".
func (e Envelope) RoutingKey() string {
	return "hydration." + e.Type
}

// ToJSON encodes the envelope.
func (e Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON decodes an envelope produced by ToJSON.
func EnvelopeFromJSON(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
