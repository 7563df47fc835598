package models

// EntityKind classifies the entities that change records refer to.
type EntityKind string

// Entity kinds tracked by the audit trail.
const (
	EntityUser     EntityKind = "user"
	EntityProperty EntityKind = "property"
	EntityCompany  EntityKind = "company"
	EntityLead     EntityKind = "lead"
)

// EntityKinds lists every audited entity kind.
var EntityKinds = []EntityKind{EntityUser, EntityProperty, EntityCompany, EntityLead}

// Valid reports whether the kind is known.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityUser, EntityProperty, EntityCompany, EntityLead:
		return true
	default:
		return false
	}
}

// Category returns the display category for records about this kind.
func (k EntityKind) Category() Category {
	switch k {
	case EntityUser:
		return CategoryUsers
	case EntityProperty:
		return CategoryProperties
	case EntityCompany:
		return CategoryCompanies
	case EntityLead:
		return CategoryLeads
	default:
		return ""
	}
}

// Sequence returns the identifier space used for new entities of this kind.
func (k EntityKind) Sequence() SequenceKind {
	switch k {
	case EntityUser:
		return SequenceUsers
	case EntityProperty:
		return SequenceProperties
	case EntityCompany:
		return SequenceCompanies
	case EntityLead:
		return SequenceLeads
	default:
		return ""
	}
}

// ActionKind names the lifecycle event a change record describes.
type ActionKind string

// Supported audit actions.
const (
	ActionCreated         ActionKind = "created"
	ActionUpdated         ActionKind = "updated"
	ActionDeleted         ActionKind = "deleted"
	ActionSoftDeleted     ActionKind = "soft-deleted"
	ActionRemovedFromTeam ActionKind = "removed-from-team"
)

// Valid reports whether the action is known.
func (a ActionKind) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionSoftDeleted, ActionRemovedFromTeam:
		return true
	default:
		return false
	}
}

// Category groups change records for display.
type Category string

// Display categories.
const (
	CategoryProperties Category = "properties"
	CategoryUsers      Category = "users"
	CategoryCompanies  Category = "companies"
	CategoryLeads      Category = "leads"
	CategoryTeams      Category = "teams"
)

// Entity is implemented by every persisted model the audit trail tracks.
type Entity interface {
	Kind() EntityKind
	EntityID() int64
	SetEntityID(id int64)
	// Snapshot returns a detached copy of the auditable attributes keyed by field name.
	Snapshot() map[string]any
	// Assign sets a declared field from an already coerced value.
	Assign(field string, value any) error
	DisplayName() string
	TenantID() *int64
}

// NewEntity returns an empty model for the given kind.
func NewEntity(kind EntityKind) (Entity, bool) {
	switch kind {
	case EntityUser:
		return &User{}, true
	case EntityProperty:
		return &Property{}, true
	case EntityCompany:
		return &Company{}, true
	case EntityLead:
		return &Lead{}, true
	default:
		return nil, false
	}
}
