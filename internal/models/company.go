package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Company is a tenant of the CRM.
type Company struct {
	ID        int64             `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name      string            `gorm:"size:255;not null" json:"name"`
	Phone     string            `gorm:"size:32" json:"phone"`
	Email     string            `gorm:"size:255" json:"email"`
	Website   string            `gorm:"size:255" json:"website"`
	Address   datatypes.JSONMap `gorm:"type:json" json:"address"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`
}

var addressFields = []FieldSpec{
	{Name: "street", Label: "street", Type: ValueString},
	{Name: "city", Label: "city", Type: ValueString},
	{Name: "postal_code", Label: "postal code", Type: ValueString},
	{Name: "country", Label: "country", Type: ValueString},
}

var companySchema = Schema{
	Kind: EntityCompany,
	Fields: []FieldSpec{
		{Name: "name", Label: "name", Type: ValueString, Required: true},
		{Name: "phone", Label: "phone", Type: ValueString},
		{Name: "email", Label: "email", Type: ValueString},
		{Name: "website", Label: "website", Type: ValueString},
		{Name: "address", Label: "address", Type: ValueObject, Fields: addressFields},
	},
}

func (c *Company) Kind() EntityKind { return EntityCompany }
func (c *Company) EntityID() int64 { return c.ID }
func (c *Company) SetEntityID(id int64) { c.ID = id }

// TenantID of a company is the company itself.
func (c *Company) TenantID() *int64 {
	id := c.ID
	return &id
}

// DisplayName renders the company as "name | tel: phone".
func (c *Company) DisplayName() string {
	return fmt.Sprintf("%s | tel: %s", c.Name, c.Phone)
}

func (c *Company) Snapshot() map[string]any {
	return map[string]any{
		"name":    c.Name,
		"phone":   c.Phone,
		"email":   c.Email,
		"website": c.Website,
		"address": cloneMap(c.Address),
	}
}

func (c *Company) Assign(field string, value any) error {
	var err error
	switch field {
	case "name":
		c.Name, err = assignString(field, value)
	case "phone":
		c.Phone, err = assignString(field, value)
	case "email":
		c.Email, err = assignString(field, value)
	case "website":
		c.Website, err = assignString(field, value)
	case "address":
		var obj map[string]any
		obj, err = assignMap(field, value)
		c.Address = datatypes.JSONMap(obj)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return err
}
