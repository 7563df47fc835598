package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/estate-crm-api/internal/dto"
	"github.com/noah-isme/estate-crm-api/internal/models"
)

const defaultRecordSubject = "audit.records"

type natsRecordPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSRecordPublisher publishes persisted change records on a NATS subject.
// A nil connection yields a nil publisher.
func NewNATSRecordPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) RecordPublisher {
	if conn == nil {
		return nil
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = defaultRecordSubject
	}
	return &natsRecordPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "record_publisher").Logger(),
	}
}

func (p *natsRecordPublisher) Publish(_ context.Context, record models.ChangeRecord) error {
	payload, err := json.Marshal(dto.NewChangeRecordResponse(record))
	if err != nil {
		return err
	}

	subject := p.subject + "." + string(record.EntityKind)
	if err := p.conn.Publish(subject, payload); err != nil {
		return err
	}

	p.logger.Debug().Str("subject", subject).Int64("sequence_id", record.SequenceID).Msg("change record published")
	return nil
}
