package dto

import (
	"github.com/noah-isme/estate-crm-api/internal/models"
)

// EntityResponse serializes an entity together with the outcome of auditing
// the mutation that produced it.
type EntityResponse struct {
	Kind     string        `json:"kind"`
	ID       int64         `json:"id"`
	Display  string        `json:"display"`
	Data     models.Entity `json:"data"`
	Changed  []string      `json:"changed,omitempty"`
	Records  []int64       `json:"records,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

// NewEntityResponse converts an entity. Audit details are filled in by the caller.
func NewEntityResponse(entity models.Entity) EntityResponse {
	return EntityResponse{
		Kind:    string(entity.Kind()),
		ID:      entity.EntityID(),
		Display: entity.DisplayName(),
		Data:    entity,
	}
}
