package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/repository"
	"github.com/noah-isme/estate-crm-api/pkg/diff"
)

type auditStack struct {
	db        *gorm.DB
	store     repository.EntityStore
	records   repository.ChangeRecordRepository
	sequences SequenceGenerator
	composer  MessageComposer
	writer    RecordWriter
}

func newAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Lead{},
		&models.Property{},
		&models.ChangeRecord{},
		&models.SequenceCounter{},
	))
	return db
}

func newAuditStack(t *testing.T) *auditStack {
	t.Helper()
	db := newAuditTestDB(t)
	logger := zerolog.Nop()

	store := repository.NewEntityStore(db)
	records := repository.NewChangeRecordRepository(db)
	sequences := NewCounterSequence(repository.NewSequenceRepository(db), logger)
	composer := NewMessageComposer(store, nil, CatalogFor("en"), logger)
	writer := NewRecordWriter(sequences, records, composer, nil, validator.New(validator.WithRequiredStructEnabled()), logger)

	return &auditStack{db: db, store: store, records: records, sequences: sequences, composer: composer, writer: writer}
}

func seedActor(t *testing.T, store repository.EntityStore) *models.User {
	t.Helper()
	actor := &models.User{ID: 20000, FirstName: "Dewi", LastName: "Lestari", Email: "dewi@example.com", Role: "manager"}
	_, err := store.Save(context.Background(), actor)
	require.NoError(t, err)
	return actor
}

type stubSequence struct {
	mu  sync.Mutex
	ids []int64
}

func (s *stubSequence) Next(_ context.Context, _ models.SequenceKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return 0, ErrStoreUnavailable
	}
	id := s.ids[0]
	if len(s.ids) > 1 {
		s.ids = s.ids[1:]
	}
	return id, nil
}

type flakyRecordRepo struct {
	repository.ChangeRecordRepository
	failOn   map[int]bool
	attempts int
}

func (r *flakyRecordRepo) Append(ctx context.Context, record *models.ChangeRecord) error {
	r.attempts++
	if r.failOn[r.attempts] {
		return errors.New("connection reset by peer")
	}
	return r.ChangeRecordRepository.Append(ctx, record)
}

type capturePublisher struct {
	records []models.ChangeRecord
}

func (p *capturePublisher) Publish(_ context.Context, record models.ChangeRecord) error {
	p.records = append(p.records, record)
	return nil
}

func leadDiff(t *testing.T) diff.Result {
	t.Helper()
	schema, ok := models.SchemaFor(models.EntityLead)
	require.True(t, ok)

	before := map[string]any{"name": "Budi", "budget": float64(100), "tags": []string{"vip"}, "status": "new"}
	after := map[string]any{"name": "Budi Santoso", "budget": float64(250), "tags": []string{"vip", "cash"}, "status": "new"}
	return diff.CompareFields(schema.DiffFields(), before, after)
}

func TestRecordChangesWritesOneRecordPerField(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)
	_, err := stack.store.Save(ctx, &models.Lead{ID: 50000, Name: "Budi Santoso"})
	require.NoError(t, err)

	result := leadDiff(t)
	require.Len(t, result.Different, 3)

	records, err := stack.writer.RecordChanges(ctx, result, ChangeIntent{ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000})
	require.NoError(t, err)
	require.Len(t, records, 3)

	expected := map[string][2]string{
		"name":   {"Budi", "Budi Santoso"},
		"budget": {"100", "250"},
		"tags":   {"vip", "vip, cash"},
	}

	seen := map[int64]bool{}
	for idx, record := range records {
		require.False(t, seen[record.SequenceID])
		seen[record.SequenceID] = true
		if idx > 0 {
			require.Greater(t, record.SequenceID, records[idx-1].SequenceID)
		}

		require.NotNil(t, record.FieldName)
		values, ok := expected[*record.FieldName]
		require.True(t, ok, *record.FieldName)
		require.Equal(t, models.ActionUpdated, record.Action)
		require.Equal(t, models.CategoryLeads, record.Category)
		require.Contains(t, record.Message, *record.FieldName)
		require.Contains(t, record.Message, values[0])
		require.Contains(t, record.Message, values[1])
		require.Contains(t, record.Message, "Dewi Lestari")
	}
	require.Equal(t, int64(30000), records[0].SequenceID)

	stored, total, err := stack.records.List(ctx, repository.ChangeRecordFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, stored, 3)
}

func TestRecordChangesIsBestEffortPerField(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)

	flaky := &flakyRecordRepo{ChangeRecordRepository: stack.records, failOn: map[int]bool{2: true}}
	writer := NewRecordWriter(stack.sequences, flaky, stack.composer, nil, validator.New(), zerolog.Nop())

	records, err := writer.RecordChanges(ctx, leadDiff(t), ChangeIntent{ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrStorePersistFailure)
	require.Equal(t, 3, flaky.attempts)
	require.Len(t, records, 2)

	paths := leadDiff(t).Paths()
	require.Equal(t, paths[0], *records[0].FieldName)
	require.Equal(t, paths[2], *records[1].FieldName)
	require.Contains(t, err.Error(), "field "+paths[1])
}

func TestRecordChangesIncludesMissingPaths(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)

	result := diff.Compare(
		map[string]any{"details": map[string]any{"bedrooms": 2}},
		map[string]any{"details": map[string]any{"bedrooms": 3, "garden": "yes"}},
	)

	records, err := stack.writer.RecordChanges(ctx, result, ChangeIntent{ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "details.bedrooms", *records[0].FieldName)
	require.Equal(t, "details.garden", *records[1].FieldName)
	require.Nil(t, records[1].OldValue)
	require.Equal(t, "yes", *records[1].NewValue)
	require.Contains(t, records[1].Message, "from (empty) to \"yes\"")
}

func TestRecordChangeRetriesDuplicateSequenceOnce(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)

	require.NoError(t, stack.records.Append(ctx, &models.ChangeRecord{
		SequenceID: 30000, ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000,
		Action: models.ActionCreated, Category: models.CategoryLeads, Message: "seed", CreatedAt: time.Now(),
	}))

	sequences := &stubSequence{ids: []int64{30000, 30001}}
	publisher := &capturePublisher{}
	writer := NewRecordWriter(sequences, stack.records, stack.composer, publisher, validator.New(), zerolog.Nop())

	record, err := writer.RecordChange(ctx, ChangeIntent{ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000, Action: models.ActionCreated})
	require.NoError(t, err)
	require.Equal(t, int64(30001), record.SequenceID)
	require.Len(t, publisher.records, 1)
	require.Equal(t, int64(30001), publisher.records[0].SequenceID)

	stuck := NewRecordWriter(&stubSequence{ids: []int64{30000}}, stack.records, stack.composer, nil, validator.New(), zerolog.Nop())
	_, err = stuck.RecordChange(ctx, ChangeIntent{ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000, Action: models.ActionCreated})
	require.ErrorIs(t, err, ErrSequenceRace)
}

func TestRecordChangeShapesLifecycleRecords(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()
	seedActor(t, stack.store)
	_, err := stack.store.Save(ctx, &models.User{ID: 20001, FirstName: "Eko", LastName: "Prasetyo"})
	require.NoError(t, err)

	old := "ignored"
	record, err := stack.writer.RecordChange(ctx, ChangeIntent{
		ActorID: 20000, EntityKind: models.EntityUser, EntityID: 20001,
		Action: models.ActionRemovedFromTeam, OldValue: &old, FieldName: "team_leader_id",
	})
	require.NoError(t, err)
	require.Equal(t, models.CategoryTeams, record.Category)
	require.Nil(t, record.FieldName)
	require.Nil(t, record.OldValue)
	require.Equal(t, "Dewi Lestari removed team member Eko Prasetyo | id: 20001 from their team.", record.Message)

	created, err := stack.writer.RecordChange(ctx, ChangeIntent{ActorID: 20000, EntityKind: models.EntityUser, EntityID: 20001, Action: models.ActionCreated})
	require.NoError(t, err)
	require.Equal(t, models.CategoryUsers, created.Category)
	require.Equal(t, "Dewi Lestari created the user Eko Prasetyo | id: 20001.", created.Message)
	require.Greater(t, created.SequenceID, record.SequenceID)
}

func TestRecordChangeRejectsInvalidIntent(t *testing.T) {
	stack := newAuditStack(t)
	ctx := context.Background()

	_, err := stack.writer.RecordChange(ctx, ChangeIntent{ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000, Action: models.ActionUpdated})
	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))

	_, err = stack.writer.RecordChange(ctx, ChangeIntent{ActorID: 20000, EntityKind: "owner", EntityID: 70000, Action: models.ActionCreated})
	require.True(t, errors.As(err, &validationErrs))

	_, total, err := stack.records.List(ctx, repository.ChangeRecordFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestRecordChangeSurfacesSequenceFailure(t *testing.T) {
	stack := newAuditStack(t)
	writer := NewRecordWriter(&stubSequence{}, stack.records, stack.composer, nil, validator.New(), zerolog.Nop())

	_, err := writer.RecordChange(context.Background(), ChangeIntent{ActorID: 20000, EntityKind: models.EntityLead, EntityID: 50000, Action: models.ActionDeleted})
	require.ErrorIs(t, err, ErrStoreUnavailable)
	require.False(t, strings.Contains(err.Error(), "persist"))
}
