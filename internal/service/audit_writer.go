package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/observability"
	"github.com/noah-isme/estate-crm-api/internal/repository"
	"github.com/noah-isme/estate-crm-api/pkg/diff"
)

var (
	// ErrStoreUnavailable indicates the backing store could not be queried.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStorePersistFailure indicates a change record could not be appended.
	ErrStorePersistFailure = errors.New("failed to persist change record")
	// ErrSequenceRace indicates the assigned sequence ID collided twice in a row.
	ErrSequenceRace = errors.New("sequence id collision")
)

// ChangeIntent describes one change to be recorded, before persistence.
type ChangeIntent struct {
	ActorID    int64             `validate:"required"`
	EntityKind models.EntityKind `validate:"required,oneof=user property company lead"`
	EntityID   int64             `validate:"required"`
	FieldName  string            `validate:"required_if=Action updated"`
	OldValue   *string
	NewValue   *string
	Action     models.ActionKind `validate:"required,oneof=created updated deleted soft-deleted removed-from-team"`
	TenantID   *int64
	// DisplayHint names the entity when it can no longer be looked up, e.g. after deletion.
	DisplayHint string
}

// RecordWriter appends immutable change records to the audit log.
type RecordWriter interface {
	RecordChange(ctx context.Context, intent ChangeIntent) (models.ChangeRecord, error)
	// RecordChanges writes one record per changed path. Every path is
	// attempted; written records are returned alongside the joined failures.
	RecordChanges(ctx context.Context, result diff.Result, base ChangeIntent) ([]models.ChangeRecord, error)
}

// RecordPublisher fans persisted records out to other consumers.
type RecordPublisher interface {
	Publish(ctx context.Context, record models.ChangeRecord) error
}

type recordWriter struct {
	sequences SequenceGenerator
	records   repository.ChangeRecordRepository
	composer  MessageComposer
	publisher RecordPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewRecordWriter constructs the audit record writer. publisher may be nil.
func NewRecordWriter(sequences SequenceGenerator, records repository.ChangeRecordRepository, composer MessageComposer, publisher RecordPublisher, validate *validator.Validate, logger zerolog.Logger) RecordWriter {
	return &recordWriter{
		sequences: sequences,
		records:   records,
		composer:  composer,
		publisher: publisher,
		validator: validate,
		logger:    logger.With().Str("component", "record_writer").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/estate-crm-api/internal/service/audit"),
		now:       time.Now,
	}
}

func (w *recordWriter) RecordChange(ctx context.Context, intent ChangeIntent) (models.ChangeRecord, error) {
	ctx, span := w.tracer.Start(ctx, "audit.record_change", trace.WithAttributes(
		attribute.String("audit.entity_kind", string(intent.EntityKind)),
		attribute.Int64("audit.entity_id", intent.EntityID),
		attribute.String("audit.action", string(intent.Action)),
	))
	defer span.End()

	if err := w.validator.Struct(intent); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		w.count(intent, "invalid")
		return models.ChangeRecord{}, err
	}

	record := models.ChangeRecord{
		ActorID:    intent.ActorID,
		EntityKind: intent.EntityKind,
		EntityID:   intent.EntityID,
		Action:     intent.Action,
		Category:   intent.EntityKind.Category(),
		TenantID:   intent.TenantID,
		Message:    w.composer.Compose(ctx, intent),
		CreatedAt:  w.now().UTC(),
	}
	if intent.Action == models.ActionRemovedFromTeam {
		record.Category = models.CategoryTeams
	}
	if intent.Action == models.ActionUpdated {
		field := intent.FieldName
		record.FieldName = &field
		record.OldValue = intent.OldValue
		record.NewValue = intent.NewValue
	}

	if err := w.append(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		w.count(intent, "failed")
		w.logger.Warn().Err(err).
			Str("entity_kind", string(intent.EntityKind)).
			Int64("entity_id", intent.EntityID).
			Str("action", string(intent.Action)).
			Msg("failed to record change")
		return models.ChangeRecord{}, err
	}

	span.SetAttributes(attribute.Int64("audit.sequence_id", record.SequenceID))
	w.count(intent, "recorded")

	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, record); err != nil {
			w.logger.Warn().Err(err).Int64("sequence_id", record.SequenceID).Msg("failed to publish change record")
		}
	}

	return record, nil
}

// append assigns a sequence ID and stores the record, retrying once with a
// fresh ID when the first one collides.
func (w *recordWriter) append(ctx context.Context, record *models.ChangeRecord) error {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := w.sequences.Next(ctx, models.SequenceRecords)
		if err != nil {
			return err
		}
		record.SequenceID = id

		err = w.records.Append(ctx, record)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateSequence) {
			return fmt.Errorf("%w: %w", ErrStorePersistFailure, err)
		}
		w.logger.Warn().Int64("sequence_id", id).Int("attempt", attempt+1).Msg("sequence id collision")
	}

	return ErrSequenceRace
}

func (w *recordWriter) RecordChanges(ctx context.Context, result diff.Result, base ChangeIntent) ([]models.ChangeRecord, error) {
	base.Action = models.ActionUpdated

	intents := make([]ChangeIntent, 0, len(result.Different)+len(result.Missing))
	for _, path := range result.Paths() {
		change := result.Different[path]
		intent := base
		intent.FieldName = path
		intent.OldValue = stringValue(change.Old)
		intent.NewValue = stringValue(change.New)
		intents = append(intents, intent)
	}
	for _, path := range result.Missing {
		intent := base
		intent.FieldName = path
		intent.OldValue = nil
		intent.NewValue = stringValue(result.MissingValue(path))
		intents = append(intents, intent)
	}

	records := make([]models.ChangeRecord, 0, len(intents))
	var errs []error
	for _, intent := range intents {
		record, err := w.RecordChange(ctx, intent)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", intent.FieldName, err))
			continue
		}
		records = append(records, record)
	}

	return records, errors.Join(errs...)
}

func (w *recordWriter) count(intent ChangeIntent, outcome string) {
	observability.AuditRecords().WithLabelValues(string(intent.EntityKind), string(intent.Action), outcome).Inc()
}

func stringValue(value any) *string {
	if diff.IsEmpty(value) {
		return nil
	}
	text := diff.Stringify(value)
	return &text
}
