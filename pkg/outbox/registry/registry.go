// Package registry maps outbox rows onto Pub/Sub messages.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/db/models"
	"github.com/wholesaledesk/ordering-backend/pkg/enums"
	"github.com/wholesaledesk/ordering-backend/pkg/outbox"
	"github.com/wholesaledesk/ordering-backend/pkg/outbox/payloads"
)

// ErrUndeliverable marks rows that can never be published as stored.
// The relay parks them instead of retrying.
var ErrUndeliverable = errors.New("outbox event undeliverable")

type attributeFunc func(data json.RawMessage, aggregateID uuid.UUID) (map[string]string, error)

// Route binds an event type to its aggregate and destination topic.
type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	attributes    attributeFunc
}

// Message is a resolved row ready for publishing.
type Message struct {
	Topic      string
	EventID    string
	OccurredAt time.Time
	Attributes map[string]string
	Body       []byte
}

type Registry struct {
	routes map[enums.OutboxEventType]Route
}

// New builds the registry from the configured topic names.
func New(cfg config.PubSubConfig) (*Registry, error) {
	ordersTopic := strings.TrimSpace(cfg.OrdersTopic)
	if ordersTopic == "" {
		return nil, errors.New("orders topic is required")
	}
	reg := &Registry{routes: map[enums.OutboxEventType]Route{}}
	reg.add(Route{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		Topic:         ordersTopic,
		attributes:    orderCreatedAttributes,
	})
	return reg, nil
}

func (r *Registry) add(route Route) {
	r.routes[route.EventType] = route
}

// Resolve checks the row against its route and builds the message. Every
// error it returns wraps ErrUndeliverable.
func (r *Registry) Resolve(event models.OutboxEvent) (*Message, error) {
	route, ok := r.routes[event.EventType]
	if !ok {
		return nil, undeliverable(fmt.Errorf("no route for event type %q", event.EventType))
	}
	if route.AggregateType != event.AggregateType {
		return nil, undeliverable(fmt.Errorf("event %s belongs to %s, row says %s", event.EventType, route.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, undeliverable(errors.New("aggregate_id missing"))
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, undeliverable(err)
	}
	attrs, err := route.attributes(envelope.Data, event.AggregateID)
	if err != nil {
		return nil, undeliverable(fmt.Errorf("%s: %w", event.EventType, err))
	}

	attrs["event_id"] = envelope.EventID
	attrs["event_type"] = string(event.EventType)
	attrs["aggregate_type"] = string(event.AggregateType)
	attrs["aggregate_id"] = event.AggregateID.String()
	attrs["occurred_at"] = envelope.OccurredAt.UTC().Format(time.RFC3339Nano)
	attrs["envelope_version"] = strconv.Itoa(envelope.Version)

	return &Message{
		Topic:      route.Topic,
		EventID:    envelope.EventID,
		OccurredAt: envelope.OccurredAt,
		Attributes: attrs,
		Body:       event.Payload,
	}, nil
}

func undeliverable(err error) error {
	return fmt.Errorf("%w: %w", ErrUndeliverable, err)
}

func orderCreatedAttributes(data json.RawMessage, aggregateID uuid.UUID) (map[string]string, error) {
	var payload payloads.OrderCreatedEvent
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if payload.OrderID != aggregateID {
		return nil, fmt.Errorf("payload order %s does not match aggregate %s", payload.OrderID, aggregateID)
	}
	if payload.OrderNumber <= 0 {
		return nil, errors.New("order_number must be positive")
	}
	return map[string]string{
		"order_number":       strconv.FormatInt(payload.OrderNumber, 10),
		"order_type":         string(payload.OrderType),
		"payment_method":     string(payload.PaymentMethod),
		"created_by_user_id": payload.CreatedByUserID.String(),
	}, nil
}
