package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an agent or manager working for a company.
type User struct {
	ID           int64                       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	FirstName    string                      `gorm:"size:128;not null" json:"first_name"`
	LastName     string                      `gorm:"size:128" json:"last_name"`
	Email        string                      `gorm:"size:255;index" json:"email"`
	Phone        string                      `gorm:"size:32" json:"phone"`
	Role         string                      `gorm:"size:32" json:"role"`
	CompanyID    *int64                      `gorm:"index" json:"company_id"`
	TeamLeaderID *int64                      `gorm:"index" json:"team_leader_id"`
	Active       bool                        `json:"active"`
	Languages    datatypes.JSONSlice[string] `gorm:"type:json" json:"languages"`
	Preferences  datatypes.JSONMap           `gorm:"type:json" json:"preferences"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	DeletedAt    gorm.DeletedAt              `gorm:"index" json:"-"`
}

var userSchema = Schema{
	Kind: EntityUser,
	Fields: []FieldSpec{
		{Name: "first_name", Label: "first name", Type: ValueString, Required: true},
		{Name: "last_name", Label: "last name", Type: ValueString},
		{Name: "email", Label: "email", Type: ValueString, Required: true},
		{Name: "phone", Label: "phone", Type: ValueString},
		{Name: "role", Label: "role", Type: ValueString},
		{Name: "company_id", Label: "company", Type: ValueID},
		{Name: "team_leader_id", Label: "team leader", Type: ValueID},
		{Name: "active", Label: "active status", Type: ValueBool},
		{Name: "languages", Label: "languages", Type: ValueStringList},
		{Name: "preferences", Label: "preferences", Type: ValueObject},
	},
}

func (u *User) Kind() EntityKind { return EntityUser }
func (u *User) EntityID() int64 { return u.ID }
func (u *User) SetEntityID(id int64) { u.ID = id }
func (u *User) TenantID() *int64 { return u.CompanyID }

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName renders the user as "first last | id: N".
func (u *User) DisplayName() string {
	return fmt.Sprintf("%s | id: %d", u.FullName(), u.ID)
}

func (u *User) Snapshot() map[string]any {
	return map[string]any{
		"first_name":     u.FirstName,
		"last_name":      u.LastName,
		"email":          u.Email,
		"phone":          u.Phone,
		"role":           u.Role,
		"company_id":     idValue(u.CompanyID),
		"team_leader_id": idValue(u.TeamLeaderID),
		"active":         u.Active,
		"languages":      cloneStrings(u.Languages),
		"preferences":    cloneMap(u.Preferences),
	}
}

func (u *User) Assign(field string, value any) error {
	var err error
	switch field {
	case "first_name":
		u.FirstName, err = assignString(field, value)
	case "last_name":
		u.LastName, err = assignString(field, value)
	case "email":
		u.Email, err = assignString(field, value)
	case "phone":
		u.Phone, err = assignString(field, value)
	case "role":
		u.Role, err = assignString(field, value)
	case "company_id":
		u.CompanyID, err = assignID(field, value)
	case "team_leader_id":
		u.TeamLeaderID, err = assignID(field, value)
	case "active":
		u.Active, err = assignBool(field, value)
	case "languages":
		var items []string
		items, err = assignStrings(field, value)
		u.Languages = datatypes.JSONSlice[string](items)
	case "preferences":
		var obj map[string]any
		obj, err = assignMap(field, value)
		u.Preferences = datatypes.JSONMap(obj)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return err
}
