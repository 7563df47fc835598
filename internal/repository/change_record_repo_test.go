package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/estate-crm-api/internal/models"
)

func TestChangeRecordRepositoryAppendRejectsDuplicateSequence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChangeRecordRepository(db)
	ctx := context.Background()

	record := models.ChangeRecord{
		SequenceID: 30000,
		ActorID:    20000,
		EntityKind: models.EntityLead,
		EntityID:   50000,
		Action:     models.ActionCreated,
		Category:   models.CategoryLeads,
		Message:    "Adi created the lead Rina | id: 50000.",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Append(ctx, &record))

	duplicate := record
	duplicate.Message = "another"
	require.ErrorIs(t, repo.Append(ctx, &duplicate), ErrDuplicateSequence)

	stored, err := repo.GetBySequenceID(ctx, 30000)
	require.NoError(t, err)
	require.Equal(t, "Adi created the lead Rina | id: 50000.", stored.Message)
}

func TestChangeRecordRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChangeRecordRepository(db)
	ctx := context.Background()

	tenantA := int64(40000)
	tenantB := int64(40001)
	now := time.Now().UTC()
	entries := []models.ChangeRecord{
		{SequenceID: 30000, ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000, Action: models.ActionCreated, Category: models.CategoryLeads, Message: "a", TenantID: &tenantA, CreatedAt: now},
		{SequenceID: 30001, ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000, Action: models.ActionUpdated, Category: models.CategoryLeads, Message: "b", TenantID: &tenantA, CreatedAt: now},
		{SequenceID: 30002, ActorID: 20001, EntityKind: models.EntityProperty, EntityID: 60000, Action: models.ActionUpdated, Category: models.CategoryProperties, Message: "c", TenantID: &tenantA, CreatedAt: now},
		{SequenceID: 30003, ActorID: 20002, EntityKind: models.EntityLead, EntityID: 50001, Action: models.ActionCreated, Category: models.CategoryLeads, Message: "d", TenantID: &tenantB, CreatedAt: now},
	}
	for i := range entries {
		require.NoError(t, repo.Append(ctx, &entries[i]))
	}

	records, total, err := repo.List(ctx, ChangeRecordFilter{TenantID: &tenantA, EntityKind: models.EntityLead})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(30001), records[0].SequenceID, "newest record first")

	actor := int64(20000)
	records, total, err = repo.List(ctx, ChangeRecordFilter{ActorID: &actor, Action: models.ActionUpdated})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "b", records[0].Message)

	records, total, err = repo.List(ctx, ChangeRecordFilter{Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, records, 1)
	require.Equal(t, int64(30000), records[0].SequenceID)
}
