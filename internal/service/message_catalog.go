package service

import (
	"strings"

	"github.com/noah-isme/estate-crm-api/internal/models"
)

// MessageCatalog holds the localized wording of audit messages. Templates use
// {actor}, {entity}, {kind}, {field}, {old}, {new} and {verb} placeholders.
type MessageCatalog struct {
	Locale          string
	UnknownUser     string
	UnknownData     string
	EmptyValue      string
	Updated         string
	RemovedFromTeam string
	Lifecycle       string
	KindLabels      map[models.EntityKind]string
	ActionVerbs     map[models.ActionKind]string
}

var englishCatalog = MessageCatalog{
	Locale:          "en",
	UnknownUser:     "An unknown user",
	UnknownData:     "unknown data",
	EmptyValue:      "(empty)",
	Updated:         "{actor} updated the {field} of {kind} {entity}, from {old} to {new}.",
	RemovedFromTeam: "{actor} removed team member {entity} from their team.",
	Lifecycle:       "{actor} {verb} the {kind} {entity}.",
	KindLabels: map[models.EntityKind]string{
		models.EntityUser:     "user",
		models.EntityProperty: "property",
		models.EntityCompany:  "company",
		models.EntityLead:     "lead",
	},
	ActionVerbs: map[models.ActionKind]string{
		models.ActionCreated:     "created",
		models.ActionUpdated:     "updated",
		models.ActionDeleted:     "deleted",
		models.ActionSoftDeleted: "deactivated",
	},
}

var indonesianCatalog = MessageCatalog{
	Locale:          "id",
	UnknownUser:     "Pengguna tidak dikenal",
	UnknownData:     "data tidak dikenal",
	EmptyValue:      "(kosong)",
	Updated:         "{actor} mengubah {field} pada {kind} {entity}, dari {old} menjadi {new}.",
	RemovedFromTeam: "{actor} mengeluarkan anggota tim {entity} dari timnya.",
	Lifecycle:       "{actor} {verb} {kind} {entity}.",
	KindLabels: map[models.EntityKind]string{
		models.EntityUser:     "pengguna",
		models.EntityProperty: "properti",
		models.EntityCompany:  "perusahaan",
		models.EntityLead:     "prospek",
	},
	ActionVerbs: map[models.ActionKind]string{
		models.ActionCreated:     "membuat",
		models.ActionUpdated:     "mengubah",
		models.ActionDeleted:     "menghapus",
		models.ActionSoftDeleted: "menonaktifkan",
	},
}

// CatalogFor returns the catalog for a locale, falling back to English.
func CatalogFor(locale string) MessageCatalog {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "id", "id-id", "indonesian":
		return indonesianCatalog
	default:
		return englishCatalog
	}
}

func (c MessageCatalog) kindLabel(kind models.EntityKind) string {
	if label, ok := c.KindLabels[kind]; ok {
		return label
	}
	return string(kind)
}

func (c MessageCatalog) verb(action models.ActionKind) string {
	if verb, ok := c.ActionVerbs[action]; ok {
		return verb
	}
	return strings.ReplaceAll(string(action), "-", " ")
}
