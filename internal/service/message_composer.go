package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/repository"
)

const maxDisplayedValue = 120

// MessageComposer renders a change intent as a human readable sentence.
// Lookup failures degrade to placeholders; Compose never fails.
type MessageComposer interface {
	Compose(ctx context.Context, intent ChangeIntent) string
	Invalidate(ctx context.Context, kind models.EntityKind, id int64)
}

type messageComposer struct {
	store     repository.EntityStore
	cache     DisplayNameCache
	catalog   MessageCatalog
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewMessageComposer constructs a composer. cache may be nil.
func NewMessageComposer(store repository.EntityStore, cache DisplayNameCache, catalog MessageCatalog, logger zerolog.Logger) MessageComposer {
	return &messageComposer{
		store:     store,
		cache:     cache,
		catalog:   catalog,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "message_composer").Logger(),
	}
}

func (c *messageComposer) Compose(ctx context.Context, intent ChangeIntent) string {
	replacements := []string{
		"{actor}", c.actorName(ctx, intent.ActorID),
		"{entity}", c.entityName(ctx, intent),
		"{kind}", c.catalog.kindLabel(intent.EntityKind),
	}

	var template string
	switch intent.Action {
	case models.ActionUpdated:
		template = c.catalog.Updated
		replacements = append(replacements,
			"{field}", c.fieldLabel(intent.EntityKind, intent.FieldName),
			"{old}", c.displayValue(intent.OldValue),
			"{new}", c.displayValue(intent.NewValue),
		)
	case models.ActionRemovedFromTeam:
		template = c.catalog.RemovedFromTeam
	default:
		template = c.catalog.Lifecycle
		replacements = append(replacements, "{verb}", c.catalog.verb(intent.Action))
	}

	return strings.NewReplacer(replacements...).Replace(template)
}

func (c *messageComposer) Invalidate(ctx context.Context, kind models.EntityKind, id int64) {
	if c.cache == nil {
		return
	}
	keys := []string{entityCacheKey(kind, id)}
	if kind == models.EntityUser {
		keys = append(keys, actorCacheKey(id))
	}
	c.cache.Invalidate(ctx, keys...)
}

func (c *messageComposer) actorName(ctx context.Context, actorID int64) string {
	key := actorCacheKey(actorID)
	if name, ok := c.cached(ctx, key); ok {
		return name
	}

	entity, err := c.store.FindByID(ctx, models.EntityUser, actorID)
	if err != nil {
		c.logger.Debug().Err(err).Int64("actor_id", actorID).Msg("actor not resolved")
		return c.catalog.UnknownUser
	}

	name := entity.DisplayName()
	if user, ok := entity.(*models.User); ok && user.FullName() != "" {
		name = user.FullName()
	}
	c.remember(ctx, key, name)
	return name
}

func (c *messageComposer) entityName(ctx context.Context, intent ChangeIntent) string {
	key := entityCacheKey(intent.EntityKind, intent.EntityID)
	if name, ok := c.cached(ctx, key); ok {
		return name
	}

	entity, err := c.store.FindByID(ctx, intent.EntityKind, intent.EntityID)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("entity_kind", string(intent.EntityKind)).
			Int64("entity_id", intent.EntityID).
			Msg("entity not resolved")
		if hint := strings.TrimSpace(intent.DisplayHint); hint != "" {
			return hint
		}
		return c.catalog.UnknownData
	}

	name := entity.DisplayName()
	c.remember(ctx, key, name)
	return name
}

func (c *messageComposer) fieldLabel(kind models.EntityKind, field string) string {
	if schema, ok := models.SchemaFor(kind); ok && field != "" {
		return schema.Label(field)
	}
	return field
}

// displayValue quotes a value for inline display. Markup is stripped so the
// message can be embedded in rendered pages without escaping twice.
func (c *messageComposer) displayValue(value *string) string {
	if value == nil {
		return c.catalog.EmptyValue
	}

	clean := strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(*value)))
	if clean == "" {
		return c.catalog.EmptyValue
	}

	if utf8.RuneCountInString(clean) > maxDisplayedValue {
		runes := []rune(clean)
		clean = string(runes[:maxDisplayedValue]) + "..."
	}
	return `"` + clean + `"`
}

func (c *messageComposer) cached(ctx context.Context, key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	return c.cache.Get(ctx, key)
}

func (c *messageComposer) remember(ctx context.Context, key, value string) {
	if c.cache == nil {
		return
	}
	c.cache.Set(ctx, key, value)
}

func entityCacheKey(kind models.EntityKind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func actorCacheKey(id int64) string {
	return fmt.Sprintf("actor:%d", id)
}
