// Package webhooks validates inbound Genuka webhook deliveries and routes
// them by event type. The shipped handlers only log; business effects are
// out of scope for the bridge.
package webhooks

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/genukahq/go-oauth-bridge/signature"
)

// Handler processes a single decoded event.
type Handler func(ctx context.Context, event Event) error

// EventRecorder counts handled events, usually backed by the Prometheus
// collector.
type EventRecorder interface {
	RecordWebhookEvent(eventType string)
}

type Dispatcher struct {
	secret   string
	handlers map[EventType]Handler
	recorder EventRecorder
}

type DispatcherOption func(*Dispatcher)

// WithRecorder attaches an event counter to the dispatcher.
func WithRecorder(recorder EventRecorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorder = recorder
	}
}

// NewDispatcher builds a dispatcher with logging stubs registered for every
// known event type. Callers can overwrite individual handlers with Register.
func NewDispatcher(secret string, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		secret:   secret,
		handlers: make(map[EventType]Handler),
	}
	for _, opt := range options {
		opt(d)
	}
	for _, eventType := range KnownEventTypes() {
		d.handlers[eventType] = logStub(eventType)
	}
	return d
}

// Register installs or replaces the handler for an event type.
func (d *Dispatcher) Register(eventType EventType, handler Handler) {
	d.handlers[eventType] = handler
}

// Handle verifies and dispatches one raw delivery. A missing signature
// header is tolerated with a warning; a present but wrong signature is an
// error. Unknown event types are logged and acknowledged, never rejected.
func (d *Dispatcher) Handle(ctx context.Context, rawBody []byte, signatureHeader string) error {
	if signatureHeader == "" {
		log.Warn().Msg("webhook received without signature")
	} else if !signature.VerifyPayload(rawBody, signatureHeader, d.secret) {
		return errors.New("invalid webhook signature")
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return errors.Wrap(err, "decode webhook event")
	}

	event := Event{Type: EventType(envelope.Type), Raw: rawBody}

	handler, ok := d.handlers[event.Type]
	if !ok {
		log.Warn().Str("type", envelope.Type).RawJSON("event", rawBody).Msg("unknown webhook event type")
		d.record("unknown")
		return nil
	}

	if err := handler(ctx, event); err != nil {
		return err
	}
	d.record(envelope.Type)
	return nil
}

func (d *Dispatcher) record(eventType string) {
	if d.recorder != nil {
		d.recorder.RecordWebhookEvent(eventType)
	}
}

func logStub(eventType EventType) Handler {
	return func(_ context.Context, event Event) error {
		log.Info().Str("type", string(eventType)).RawJSON("event", event.Raw).Msg("webhook event received")
		return nil
	}
}
