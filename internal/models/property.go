package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property is a real-estate listing.
type Property struct {
	ID           int64                       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	ExternalID   string                      `gorm:"size:64;uniqueIndex" json:"external_id"`
	Title        string                      `gorm:"size:255;not null" json:"title"`
	PropertyType string                      `gorm:"size:32" json:"property_type"`
	Status       string                      `gorm:"size:32" json:"status"`
	Price        float64                     `json:"price"`
	CompanyID    *int64                      `gorm:"index" json:"company_id"`
	AgentID      *int64                      `gorm:"index" json:"agent_id"`
	Features     datatypes.JSONSlice[string] `gorm:"type:json" json:"features"`
	Address      datatypes.JSONMap           `gorm:"type:json" json:"address"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	DeletedAt    gorm.DeletedAt              `gorm:"index" json:"-"`
}

var propertySchema = Schema{
	Kind: EntityProperty,
	Fields: []FieldSpec{
		{Name: "external_id", Label: "listing ID", Type: ValueString, Required: true},
		{Name: "title", Label: "title", Type: ValueString, Required: true},
		{Name: "property_type", Label: "property type", Type: ValueString},
		{Name: "status", Label: "status", Type: ValueString},
		{Name: "price", Label: "price", Type: ValueNumber},
		{Name: "company_id", Label: "company", Type: ValueID},
		{Name: "agent_id", Label: "agent", Type: ValueID},
		{Name: "features", Label: "features", Type: ValueStringList},
		{Name: "address", Label: "address", Type: ValueObject, Fields: addressFields},
	},
}

func (p *Property) Kind() EntityKind { return EntityProperty }
func (p *Property) EntityID() int64 { return p.ID }
func (p *Property) SetEntityID(id int64) { p.ID = id }
func (p *Property) TenantID() *int64 { return p.CompanyID }

// DisplayName renders the property by its external listing ID.
func (p *Property) DisplayName() string {
	return p.ExternalID
}

func (p *Property) Snapshot() map[string]any {
	return map[string]any{
		"external_id":   p.ExternalID,
		"title":         p.Title,
		"property_type": p.PropertyType,
		"status":        p.Status,
		"price":         p.Price,
		"company_id":    idValue(p.CompanyID),
		"agent_id":      idValue(p.AgentID),
		"features":      cloneStrings(p.Features),
		"address":       cloneMap(p.Address),
	}
}

func (p *Property) Assign(field string, value any) error {
	var err error
	switch field {
	case "external_id":
		p.ExternalID, err = assignString(field, value)
	case "title":
		p.Title, err = assignString(field, value)
	case "property_type":
		p.PropertyType, err = assignString(field, value)
	case "status":
		p.Status, err = assignString(field, value)
	case "price":
		p.Price, err = assignFloat(field, value)
	case "company_id":
		p.CompanyID, err = assignID(field, value)
	case "agent_id":
		p.AgentID, err = assignID(field, value)
	case "features":
		var items []string
		items, err = assignStrings(field, value)
		p.Features = datatypes.JSONSlice[string](items)
	case "address":
		var obj map[string]any
		obj, err = assignMap(field, value)
		p.Address = datatypes.JSONMap(obj)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return err
}
