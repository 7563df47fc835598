package models

import "time"

// ChangeRecord is one immutable audit log entry: a single field change or a
// single lifecycle event.
type ChangeRecord struct {
	SequenceID int64      `gorm:"primaryKey;autoIncrement:false" json:"sequence_id"`
	ActorID    int64      `gorm:"not null;index" json:"actor_id"`
	EntityKind EntityKind `gorm:"size:16;not null;index:idx_change_records_entity" json:"entity_kind"`
	EntityID   int64      `gorm:"index:idx_change_records_entity" json:"entity_id"`
	FieldName  *string    `gorm:"size:128" json:"field_name,omitempty"`
	Action     ActionKind `gorm:"size:32;not null" json:"action"`
	Category   Category   `gorm:"size:16;not null" json:"category"`
	OldValue   *string    `gorm:"type:text" json:"old_value,omitempty"`
	NewValue   *string    `gorm:"type:text" json:"new_value,omitempty"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	TenantID   *int64     `gorm:"index" json:"tenant_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}
