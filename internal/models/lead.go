package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lead statuses used by the sales pipeline.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusWon       = "won"
	LeadStatusLost      = "lost"
)

// Lead is a prospective buyer or renter tracked by an agent.
type Lead struct {
	ID        int64                       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string                      `gorm:"size:255;not null" json:"name"`
	Email     string                      `gorm:"size:255" json:"email"`
	Phone     string                      `gorm:"size:32" json:"phone"`
	Status    string                      `gorm:"size:32" json:"status"`
	Source    string                      `gorm:"size:64" json:"source"`
	Budget    float64                     `json:"budget"`
	CompanyID *int64                      `gorm:"index" json:"company_id"`
	AgentID   *int64                      `gorm:"index" json:"agent_id"`
	Tags      datatypes.JSONSlice[string] `gorm:"type:json" json:"tags"`
	Details   datatypes.JSONMap           `gorm:"type:json" json:"details"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	DeletedAt gorm.DeletedAt              `gorm:"index" json:"-"`
}

var leadSchema = Schema{
	Kind: EntityLead,
	Fields: []FieldSpec{
		{Name: "name", Label: "name", Type: ValueString, Required: true},
		{Name: "email", Label: "email", Type: ValueString},
		{Name: "phone", Label: "phone", Type: ValueString},
		{Name: "status", Label: "status", Type: ValueString},
		{Name: "source", Label: "source", Type: ValueString},
		{Name: "budget", Label: "budget", Type: ValueNumber},
		{Name: "company_id", Label: "company", Type: ValueID},
		{Name: "agent_id", Label: "agent", Type: ValueID},
		{Name: "tags", Label: "tags", Type: ValueStringList},
		{Name: "details", Label: "details", Type: ValueObject},
	},
}

func (l *Lead) Kind() EntityKind { return EntityLead }
func (l *Lead) EntityID() int64 { return l.ID }
func (l *Lead) SetEntityID(id int64) { l.ID = id }
func (l *Lead) TenantID() *int64 { return l.CompanyID }

// DisplayName renders the lead as "name | id: N".
func (l *Lead) DisplayName() string {
	return fmt.Sprintf("%s | id: %d", l.Name, l.ID)
}

func (l *Lead) Snapshot() map[string]any {
	return map[string]any{
		"name":       l.Name,
		"email":      l.Email,
		"phone":      l.Phone,
		"status":     l.Status,
		"source":     l.Source,
		"budget":     l.Budget,
		"company_id": idValue(l.CompanyID),
		"agent_id":   idValue(l.AgentID),
		"tags":       cloneStrings(l.Tags),
		"details":    cloneMap(l.Details),
	}
}

func (l *Lead) Assign(field string, value any) error {
	var err error
	switch field {
	case "name":
		l.Name, err = assignString(field, value)
	case "email":
		l.Email, err = assignString(field, value)
	case "phone":
		l.Phone, err = assignString(field, value)
	case "status":
		l.Status, err = assignString(field, value)
	case "source":
		l.Source, err = assignString(field, value)
	case "budget":
		l.Budget, err = assignFloat(field, value)
	case "company_id":
		l.CompanyID, err = assignID(field, value)
	case "agent_id":
		l.AgentID, err = assignID(field, value)
	case "tags":
		var items []string
		items, err = assignStrings(field, value)
		l.Tags = datatypes.JSONSlice[string](items)
	case "details":
		var obj map[string]any
		obj, err = assignMap(field, value)
		l.Details = datatypes.JSONMap(obj)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return err
}
