package models

import "time"

// SequenceKind names an identifier space.
type SequenceKind string

// Identifier spaces. Each starts at its own base so IDs of different kinds
// never overlap.
const (
	SequenceUsers      SequenceKind = "users"
	SequenceRecords    SequenceKind = "records"
	SequenceCompanies  SequenceKind = "companies"
	SequenceLeads      SequenceKind = "leads"
	SequenceProperties SequenceKind = "properties"
)

var sequenceBases = map[SequenceKind]int64{
	SequenceUsers:      20000,
	SequenceRecords:    30000,
	SequenceCompanies:  40000,
	SequenceLeads:      50000,
	SequenceProperties: 60000,
}

// Base returns the first identifier handed out for the kind.
func (k SequenceKind) Base() (int64, bool) {
	base, ok := sequenceBases[k]
	return base, ok
}

// SequenceCounter stores the last identifier issued for a sequence kind.
type SequenceCounter struct {
	Kind      SequenceKind `gorm:"primaryKey;size:32"`
	Value     int64        `gorm:"not null"`
	UpdatedAt time.Time
}
