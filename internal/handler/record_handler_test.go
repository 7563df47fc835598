package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/estate-crm-api/internal/dto"
	"github.com/noah-isme/estate-crm-api/internal/handler"
	"github.com/noah-isme/estate-crm-api/internal/middleware"
	"github.com/noah-isme/estate-crm-api/internal/service"
)

type mockRecordService struct {
	lastActor   service.Actor
	lastRequest dto.ChangeRecordListRequest
	lastSeq     int64
	list        dto.ChangeRecordListResponse
	record      dto.ChangeRecordResponse
	err         error
}

func (m *mockRecordService) List(_ context.Context, actor service.Actor, req dto.ChangeRecordListRequest) (dto.ChangeRecordListResponse, error) {
	m.lastActor, m.lastRequest = actor, req
	if m.err != nil {
		return dto.ChangeRecordListResponse{}, m.err
	}
	if err := validator.New().Struct(req); err != nil {
		return dto.ChangeRecordListResponse{}, err
	}
	return m.list, nil
}

func (m *mockRecordService) Get(_ context.Context, actor service.Actor, sequenceID int64) (dto.ChangeRecordResponse, error) {
	m.lastActor, m.lastSeq = actor, sequenceID
	return m.record, m.err
}

func sampleRecord() dto.ChangeRecordResponse {
	field := "budget"
	oldValue := "100"
	newValue := "250"
	tenant := int64(40000)
	return dto.ChangeRecordResponse{
		SequenceID: 30000,
		ActorID:    20000,
		EntityKind: "lead",
		EntityID:   50000,
		FieldName:  &field,
		Action:     "updated",
		Category:   "leads",
		OldValue:   &oldValue,
		NewValue:   &newValue,
		Message:    `Dewi Lestari updated the budget of lead Budi | id: 50000, from "100" to "250".`,
		TenantID:   &tenant,
		CreatedAt:  time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newRecordApp(svc service.RecordService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/records", withActor(20000, middleware.RoleAgent, 40000))
	handler.NewRecordHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestRecordHandlerListParsesFilters(t *testing.T) {
	svc := &mockRecordService{list: dto.ChangeRecordListResponse{
		Items:      []dto.ChangeRecordResponse{sampleRecord()},
		Pagination: dto.NewPaginationMeta(2, 5, 6),
	}}
	app := newRecordApp(svc)

	resp := sendJSON(t, app, http.MethodGet, "/api/v1/records?page=2&page_size=5&entity_kind=lead&entity_id=50000&action=updated", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)

	var page dto.ChangeRecordListResponse
	require.NoError(t, json.Unmarshal(payload.Data, &page))
	require.Len(t, page.Items, 1)
	require.Equal(t, int64(30000), page.Items[0].SequenceID)
	require.Equal(t, 2, page.Pagination.TotalPages)

	require.Equal(t, dto.ChangeRecordListRequest{Page: 2, PageSize: 5, EntityKind: "lead", EntityID: 50000, Action: "updated"}, svc.lastRequest)
	require.Equal(t, int64(40000), *svc.lastActor.TenantID)
}

func TestRecordHandlerListRejectsBadQuery(t *testing.T) {
	svc := &mockRecordService{}
	app := newRecordApp(svc)

	resp := sendJSON(t, app, http.MethodGet, "/api/v1/records?page=first", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = sendJSON(t, app, http.MethodGet, "/api/v1/records?action=archived", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	payload := decodeEnvelope(t, resp)
	require.Equal(t, "oneof", payload.Details["action"])
}

func TestRecordHandlerGet(t *testing.T) {
	svc := &mockRecordService{record: sampleRecord()}
	app := newRecordApp(svc)

	resp := sendJSON(t, app, http.MethodGet, "/api/v1/records/30000", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, int64(30000), svc.lastSeq)

	svc.err = service.ErrRecordNotFound
	resp = sendJSON(t, app, http.MethodGet, "/api/v1/records/39999", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = sendJSON(t, app, http.MethodGet, "/api/v1/records/nope", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
