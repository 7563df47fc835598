package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/estate-crm-api/internal/models"
)

func strPtr(v string) *string {
	return &v
}

func TestMessageComposerUpdatedMessage(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)
	_, err := stack.store.Save(ctx, &models.Lead{ID: 50000, Name: "Budi"})
	require.NoError(t, err)

	message := stack.composer.Compose(ctx, ChangeIntent{
		ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000,
		Action: models.ActionUpdated, FieldName: "budget", OldValue: strPtr("100"), NewValue: strPtr("250"),
	})
	require.Equal(t, `Dewi Lestari updated the budget of lead Budi | id: 50000, from "100" to "250".`, message)
}

func TestMessageComposerResolvesDisplayNamesPerKind(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)

	_, err := stack.store.Save(ctx, &models.Company{ID: 40000, Name: "Griya Asri", Phone: "021-555"})
	require.NoError(t, err)
	_, err = stack.store.Save(ctx, &models.Property{ID: 60000, ExternalID: "JKT-0042", Title: "Townhouse"})
	require.NoError(t, err)

	company := stack.composer.Compose(ctx, ChangeIntent{ActorID: 20000, EntityKind: models.EntityCompany, EntityID: 40000, Action: models.ActionCreated})
	require.Equal(t, "Dewi Lestari created the company Griya Asri | tel: 021-555.", company)

	property := stack.composer.Compose(ctx, ChangeIntent{
		ActorID: 20000, EntityKind: models.EntityProperty, EntityID: 60000,
		Action: models.ActionUpdated, FieldName: "address.city", OldValue: strPtr("Bogor"), NewValue: nil,
	})
	require.Equal(t, `Dewi Lestari updated the address city of property JKT-0042, from "Bogor" to (empty).`, property)

	soft := stack.composer.Compose(ctx, ChangeIntent{ActorID: 20000, EntityKind: models.EntityProperty, EntityID: 60000, Action: models.ActionSoftDeleted})
	require.Equal(t, "Dewi Lestari deactivated the property JKT-0042.", soft)
}

func TestMessageComposerFallsBackToPlaceholders(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()

	message := stack.composer.Compose(ctx, ChangeIntent{ActorID: 29999, EntityKind: models.EntityLead, EntityID: 59999, Action: models.ActionDeleted})
	require.Equal(t, "An unknown user deleted the lead unknown data.", message)

	hinted := stack.composer.Compose(ctx, ChangeIntent{
		ActorID: 29999, EntityKind: models.EntityLead, EntityID: 59999,
		Action: models.ActionDeleted, DisplayHint: "Sari | id: 59999",
	})
	require.Equal(t, "An unknown user deleted the lead Sari | id: 59999.", hinted)
}

func TestMessageComposerSanitizesValues(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)

	message := stack.composer.Compose(ctx, ChangeIntent{
		ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000, Action: models.ActionUpdated,
		FieldName: "source", OldValue: strPtr("<script>alert(1)</script>Expo"), NewValue: strPtr("Tom & Jerry <b>Realty</b>"),
	})
	require.NotContains(t, message, "<")
	require.Contains(t, message, `from "Expo" to "Tom & Jerry Realty"`)
}

func TestMessageComposerLocalizedCatalog(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)
	_, err := stack.store.Save(ctx, &models.Lead{ID: 50000, Name: "Budi"})
	require.NoError(t, err)

	composer := NewMessageComposer(stack.store, nil, CatalogFor("id"), zerolog.Nop())
	message := composer.Compose(ctx, ChangeIntent{ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000, Action: models.ActionCreated})
	require.Equal(t, "Dewi Lestari membuat prospek Budi | id: 50000.", message)

	unknown := composer.Compose(ctx, ChangeIntent{ActorID: 1, EntityKind: models.EntityLead, EntityID: 2, Action: models.ActionCreated})
	require.Equal(t, "Pengguna tidak dikenal membuat prospek data tidak dikenal.", unknown)

	require.Equal(t, "en", CatalogFor("fr").Locale)
}

func TestMessageComposerCachesDisplayNames(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	actor := seedActor(t, stack.store)

	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	cache := NewRedisDisplayCache(client, time.Minute, zerolog.Nop())
	composer := NewMessageComposer(stack.store, cache, CatalogFor("en"), zerolog.Nop())

	intent := ChangeIntent{ActorID: 20000, EntityKind: models.EntityUser, EntityID: 20000, Action: models.ActionCreated}
	require.Equal(t, "Dewi Lestari created the user Dewi Lestari | id: 20000.", composer.Compose(ctx, intent))
	require.True(t, server.Exists("audit:display:actor:20000"))
	require.True(t, server.Exists("audit:display:user:20000"))

	actor.FirstName = "Dewi Ayu"
	_, err = stack.store.Save(ctx, actor)
	require.NoError(t, err)
	require.Equal(t, "Dewi Lestari created the user Dewi Lestari | id: 20000.", composer.Compose(ctx, intent))

	composer.Invalidate(ctx, models.EntityUser, 20000)
	require.False(t, server.Exists("audit:display:actor:20000"))
	require.Equal(t, "Dewi Ayu Lestari created the user Dewi Ayu Lestari | id: 20000.", composer.Compose(ctx, intent))

	require.Nil(t, NewRedisDisplayCache(nil, time.Minute, zerolog.Nop()))
}
