package dto

import (
	"time"

	"github.com/noah-isme/estate-crm-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginationMeta computes page counts for a total.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: totalPages}
}

// ChangeRecordListRequest defines filters for browsing the audit log.
type ChangeRecordListRequest struct {
	Page       int    `validate:"gte=0"`
	PageSize   int    `validate:"gte=0,lte=100"`
	EntityKind string `validate:"omitempty,oneof=user property company lead"`
	EntityID   int64  `validate:"gte=0"`
	ActorID    int64  `validate:"gte=0"`
	Action     string `validate:"omitempty,oneof=created updated deleted soft-deleted removed-from-team"`
}

// ChangeRecordResponse serializes one audit log entry.
type ChangeRecordResponse struct {
	SequenceID int64     `json:"sequence_id"`
	ActorID    int64     `json:"actor_id"`
	EntityKind string    `json:"entity_kind"`
	EntityID   int64     `json:"entity_id"`
	FieldName  *string   `json:"field_name"`
	Action     string    `json:"action"`
	Category   string    `json:"category"`
	OldValue   *string   `json:"old_value"`
	NewValue   *string   `json:"new_value"`
	Message    string    `json:"message"`
	TenantID   *int64    `json:"tenant_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewChangeRecordResponse converts a stored record.
func NewChangeRecordResponse(record models.ChangeRecord) ChangeRecordResponse {
	return ChangeRecordResponse{
		SequenceID: record.SequenceID,
		ActorID:    record.ActorID,
		EntityKind: string(record.EntityKind),
		EntityID:   record.EntityID,
		FieldName:  record.FieldName,
		Action:     string(record.Action),
		Category:   string(record.Category),
		OldValue:   record.OldValue,
		NewValue:   record.NewValue,
		Message:    record.Message,
		TenantID:   record.TenantID,
		CreatedAt:  record.CreatedAt,
	}
}

// NewChangeRecordResponseSlice converts a page of stored records.
func NewChangeRecordResponseSlice(records []models.ChangeRecord) []ChangeRecordResponse {
	items := make([]ChangeRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, NewChangeRecordResponse(record))
	}
	return items
}

// ChangeRecordListResponse wraps a page of audit log entries.
type ChangeRecordListResponse struct {
	Items      []ChangeRecordResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
}
