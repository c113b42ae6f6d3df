package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects published on the message bus.
const (
	SubjectSubmissionReceived = "classly.submissions.received"
	SubjectGradingCompleted   = "classly.grading.completed"
	SubjectScoresReset        = "classly.grading.reset"
)

// EventPublisher broadcasts domain events for downstream consumers. A nil
// connection turns publishing into a no-op so single-node deployments run
// without a broker.
type EventPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher wraps a NATS connection, which may be nil.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) *EventPublisher {
	return &EventPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

type busEvent struct {
	Subject string      `json:"subject"`
	SentAt  time.Time   `json:"sent_at"`
	Payload interface{} `json:"payload"`
}

// Publish emits an event on the given subject. Failures are logged, never
// surfaced; event delivery must not affect request outcomes.
func (p *EventPublisher) Publish(subject string, payload interface{}) {
	if p == nil || p.conn == nil {
		return
	}

	data, err := json.Marshal(busEvent{Subject: subject, SentAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
