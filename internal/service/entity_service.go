package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/estate-crm-api/internal/dto"
	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/repository"
	"github.com/noah-isme/estate-crm-api/pkg/diff"
)

// AuditWarning is appended to success messages when the audit trail could not be written.
const AuditWarning = "audit trail may be incomplete"

var (
	// ErrRequiredFields indicates a create payload lacks required fields.
	ErrRequiredFields = errors.New("required fields missing")
	// ErrNotInTeam indicates the user has no team leader to be removed from.
	ErrNotInTeam = errors.New("user is not a member of a team")
)

// Actor identifies the authenticated user performing a mutation.
type Actor struct {
	ID       int64
	Role     string
	TenantID *int64
}

// canSee reports whether data owned by tenant is visible to the actor.
// Actors without a tenant see everything.
func (a Actor) canSee(tenant *int64) bool {
	if a.TenantID == nil {
		return true
	}
	return tenant != nil && *tenant == *a.TenantID
}

// EntityService performs CRUD on audited entities and records every change.
// Audit failures never undo the primary mutation; they surface as warnings.
type EntityService interface {
	Create(ctx context.Context, actor Actor, kind models.EntityKind, payload map[string]any) (dto.EntityResponse, error)
	Get(ctx context.Context, actor Actor, kind models.EntityKind, id int64) (dto.EntityResponse, error)
	Update(ctx context.Context, actor Actor, kind models.EntityKind, id int64, payload map[string]any) (dto.EntityResponse, error)
	Delete(ctx context.Context, actor Actor, kind models.EntityKind, id int64, hard bool) (dto.EntityResponse, error)
	RemoveFromTeam(ctx context.Context, actor Actor, userID int64) (dto.EntityResponse, error)
}

type entityService struct {
	store     repository.EntityStore
	sequences SequenceGenerator
	writer    RecordWriter
	composer  MessageComposer
	logger    zerolog.Logger
}

// NewEntityService constructs the entity mutation service.
func NewEntityService(store repository.EntityStore, sequences SequenceGenerator, writer RecordWriter, composer MessageComposer, logger zerolog.Logger) EntityService {
	return &entityService{
		store:     store,
		sequences: sequences,
		writer:    writer,
		composer:  composer,
		logger:    logger.With().Str("component", "entity_service").Logger(),
	}
}

func (s *entityService) Create(ctx context.Context, actor Actor, kind models.EntityKind, payload map[string]any) (dto.EntityResponse, error) {
	schema, ok := models.SchemaFor(kind)
	if !ok {
		return dto.EntityResponse{}, fmt.Errorf("%w: %s", repository.ErrUnsupportedKind, kind)
	}

	values, err := schema.Coerce(payload)
	if err != nil {
		return dto.EntityResponse{}, err
	}
	applyDefaults(kind, actor, values)

	if missing := schema.MissingRequired(values); len(missing) > 0 {
		return dto.EntityResponse{}, fmt.Errorf("%w: %s", ErrRequiredFields, strings.Join(missing, ", "))
	}

	entity, _ := models.NewEntity(kind)
	for _, spec := range schema.Fields {
		value, ok := values[spec.Name]
		if !ok {
			continue
		}
		if err := entity.Assign(spec.Name, value); err != nil {
			return dto.EntityResponse{}, err
		}
	}

	id, err := s.sequences.Next(ctx, kind.Sequence())
	if err != nil {
		return dto.EntityResponse{}, err
	}
	entity.SetEntityID(id)

	if _, err := s.store.Save(ctx, entity); err != nil {
		s.logger.Error().Err(err).Str("entity_kind", string(kind)).Int64("entity_id", id).Msg("failed to create entity")
		return dto.EntityResponse{}, err
	}

	response := dto.NewEntityResponse(entity)
	s.recordLifecycle(ctx, actor, entity, models.ActionCreated, &response)
	return response, nil
}

func (s *entityService) Get(ctx context.Context, actor Actor, kind models.EntityKind, id int64) (dto.EntityResponse, error) {
	entity, err := s.load(ctx, actor, kind, id)
	if err != nil {
		return dto.EntityResponse{}, err
	}
	return dto.NewEntityResponse(entity), nil
}

func (s *entityService) Update(ctx context.Context, actor Actor, kind models.EntityKind, id int64, payload map[string]any) (dto.EntityResponse, error) {
	schema, ok := models.SchemaFor(kind)
	if !ok {
		return dto.EntityResponse{}, fmt.Errorf("%w: %s", repository.ErrUnsupportedKind, kind)
	}

	values, err := schema.Coerce(payload)
	if err != nil {
		return dto.EntityResponse{}, err
	}

	entity, err := s.load(ctx, actor, kind, id)
	if err != nil {
		return dto.EntityResponse{}, err
	}

	before := entity.Snapshot()
	for _, spec := range schema.Fields {
		value, ok := values[spec.Name]
		if !ok {
			continue
		}
		if spec.Type == models.ValueObject {
			value = mergeObject(before[spec.Name], value)
		}
		if err := entity.Assign(spec.Name, value); err != nil {
			return dto.EntityResponse{}, err
		}
	}

	result := diff.CompareFields(schema.DiffFields(), before, entity.Snapshot())
	response := dto.NewEntityResponse(entity)
	if result.Empty() {
		return response, nil
	}

	if _, err := s.store.Save(ctx, entity); err != nil {
		s.logger.Error().Err(err).Str("entity_kind", string(kind)).Int64("entity_id", id).Msg("failed to update entity")
		return dto.EntityResponse{}, err
	}
	s.composer.Invalidate(ctx, kind, id)

	response.Display = entity.DisplayName()
	response.Changed = append(result.Paths(), result.Missing...)

	records, err := s.writer.RecordChanges(ctx, result, ChangeIntent{
		ActorID:    actor.ID,
		EntityKind: kind,
		EntityID:   id,
		TenantID:   entity.TenantID(),
	})
	for _, record := range records {
		response.Records = append(response.Records, record.SequenceID)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("entity_kind", string(kind)).Int64("entity_id", id).Msg("audit trail incomplete after update")
		response.Warnings = append(response.Warnings, AuditWarning)
	}

	return response, nil
}

func (s *entityService) Delete(ctx context.Context, actor Actor, kind models.EntityKind, id int64, hard bool) (dto.EntityResponse, error) {
	entity, err := s.load(ctx, actor, kind, id)
	if err != nil {
		return dto.EntityResponse{}, err
	}

	if err := s.store.Delete(ctx, entity, hard); err != nil {
		if !errors.Is(err, repository.ErrEntityNotFound) {
			s.logger.Error().Err(err).Str("entity_kind", string(kind)).Int64("entity_id", id).Msg("failed to delete entity")
		}
		return dto.EntityResponse{}, err
	}
	s.composer.Invalidate(ctx, kind, id)

	action := models.ActionSoftDeleted
	if hard {
		action = models.ActionDeleted
	}

	response := dto.NewEntityResponse(entity)
	s.recordLifecycle(ctx, actor, entity, action, &response)
	return response, nil
}

func (s *entityService) RemoveFromTeam(ctx context.Context, actor Actor, userID int64) (dto.EntityResponse, error) {
	entity, err := s.load(ctx, actor, models.EntityUser, userID)
	if err != nil {
		return dto.EntityResponse{}, err
	}

	user := entity.(*models.User)
	if user.TeamLeaderID == nil {
		return dto.EntityResponse{}, ErrNotInTeam
	}
	user.TeamLeaderID = nil

	if _, err := s.store.Save(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to remove user from team")
		return dto.EntityResponse{}, err
	}
	s.composer.Invalidate(ctx, models.EntityUser, userID)

	response := dto.NewEntityResponse(user)
	s.recordLifecycle(ctx, actor, user, models.ActionRemovedFromTeam, &response)
	return response, nil
}

func (s *entityService) load(ctx context.Context, actor Actor, kind models.EntityKind, id int64) (models.Entity, error) {
	entity, err := s.store.FindByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !actor.canSee(entity.TenantID()) {
		return nil, repository.ErrEntityNotFound
	}
	return entity, nil
}

func (s *entityService) recordLifecycle(ctx context.Context, actor Actor, entity models.Entity, action models.ActionKind, response *dto.EntityResponse) {
	record, err := s.writer.RecordChange(ctx, ChangeIntent{
		ActorID:     actor.ID,
		EntityKind:  entity.Kind(),
		EntityID:    entity.EntityID(),
		Action:      action,
		TenantID:    entity.TenantID(),
		DisplayHint: entity.DisplayName(),
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("entity_kind", string(entity.Kind())).
			Int64("entity_id", entity.EntityID()).
			Str("action", string(action)).
			Msg("audit trail incomplete")
		response.Warnings = append(response.Warnings, AuditWarning)
		return
	}
	response.Records = append(response.Records, record.SequenceID)
}

func applyDefaults(kind models.EntityKind, actor Actor, values map[string]any) {
	schema, _ := models.SchemaFor(kind)
	if _, ok := schema.Field("company_id"); ok && actor.TenantID != nil {
		if current, set := values["company_id"].(*int64); !set || current == nil {
			tenant := *actor.TenantID
			values["company_id"] = &tenant
		}
	}

	switch kind {
	case models.EntityLead:
		if diff.IsEmpty(values["status"]) {
			values["status"] = models.LeadStatusNew
		}
	case models.EntityUser:
		if _, ok := values["active"]; !ok {
			values["active"] = true
		}
	}
}

// mergeObject overlays a partial object update on the stored value so keys
// absent from the payload are kept.
func mergeObject(current, update any) any {
	patch, ok := update.(map[string]any)
	if !ok {
		return update
	}
	base, ok := current.(map[string]any)
	if !ok || len(patch) == 0 {
		return patch
	}

	merged := make(map[string]any, len(base)+len(patch))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range patch {
		merged[key] = value
	}
	return merged
}
