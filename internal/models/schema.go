package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/noah-isme/estate-crm-api/pkg/diff"
)

var (
	// ErrUnknownField indicates a payload key that the entity does not declare.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue indicates a payload value that cannot be converted to the declared type.
	ErrInvalidValue = errors.New("invalid field value")
)

// ValueType is the declared storage type of a field.
type ValueType string

// Field value types.
const (
	ValueString     ValueType = "string"
	ValueNumber     ValueType = "number"
	ValueBool       ValueType = "bool"
	ValueID         ValueType = "id"
	ValueStringList ValueType = "string_list"
	ValueObject     ValueType = "object"
)

// FieldSpec describes one editable, auditable attribute of an entity.
type FieldSpec struct {
	Name     string
	Label    string
	Type     ValueType
	Required bool
	// Fields declares the keys of an object field. Objects without declared
	// keys accept any key.
	Fields []FieldSpec
}

// Schema is the declared field list of an entity kind.
type Schema struct {
	Kind   EntityKind
	Fields []FieldSpec
}

// SchemaFor returns the declared schema of an entity kind.
func SchemaFor(kind EntityKind) (Schema, bool) {
	switch kind {
	case EntityUser:
		return userSchema, true
	case EntityCompany:
		return companySchema, true
	case EntityLead:
		return leadSchema, true
	case EntityProperty:
		return propertySchema, true
	default:
		return Schema{}, false
	}
}

// Field looks up a top-level field by name.
func (s Schema) Field(name string) (FieldSpec, bool) {
	return findField(s.Fields, name)
}

// DiffFields converts the schema into comparison descriptors.
func (s Schema) DiffFields() []diff.Field {
	return toDiffFields(s.Fields)
}

func toDiffFields(specs []FieldSpec) []diff.Field {
	fields := make([]diff.Field, 0, len(specs))
	for _, spec := range specs {
		field := diff.Field{Name: spec.Name, Label: spec.Label, Kind: diff.Scalar}
		switch spec.Type {
		case ValueStringList:
			field.Kind = diff.List
		case ValueObject:
			field.Kind = diff.Object
			if len(spec.Fields) > 0 {
				field.Fields = toDiffFields(spec.Fields)
			}
		}
		fields = append(fields, field)
	}
	return fields
}

// Label returns the display name of a dot-separated field path.
func (s Schema) Label(path string) string {
	segments := strings.Split(path, ".")
	labels := make([]string, 0, len(segments))

	specs := s.Fields
	for idx, segment := range segments {
		spec, ok := findField(specs, segment)
		if !ok {
			labels = append(labels, humanize(strings.Join(segments[idx:], " ")))
			break
		}
		labels = append(labels, spec.Label)
		specs = spec.Fields
	}

	return strings.Join(labels, " ")
}

// Coerce validates payload keys against the schema and converts each value to
// its declared type.
func (s Schema) Coerce(payload map[string]any) (map[string]any, error) {
	return coerceFields(s.Fields, payload, "")
}

// MissingRequired lists required fields whose value is empty.
func (s Schema) MissingRequired(values map[string]any) []string {
	missing := make([]string, 0)
	for _, spec := range s.Fields {
		if spec.Required && diff.IsEmpty(values[spec.Name]) {
			missing = append(missing, spec.Name)
		}
	}
	return missing
}

func coerceFields(specs []FieldSpec, payload map[string]any, prefix string) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		spec, ok := findField(specs, key)
		if !ok {
			return nil, fmt.Errorf("%w: %s%s", ErrUnknownField, prefix, key)
		}

		coerced, err := spec.coerce(value, prefix+key+".")
		if err != nil {
			return nil, err
		}
		out[key] = coerced
	}
	return out, nil
}

func (f FieldSpec) coerce(value any, prefix string) (any, error) {
	switch f.Type {
	case ValueString:
		if value == nil {
			return "", nil
		}
		return f.wrap(cast.ToStringE(value))
	case ValueNumber:
		if isBlank(value) {
			return float64(0), nil
		}
		return f.wrap(cast.ToFloat64E(value))
	case ValueBool:
		if isBlank(value) {
			return false, nil
		}
		if s, ok := value.(string); ok && strings.EqualFold(strings.TrimSpace(s), "on") {
			return true, nil
		}
		return f.wrap(cast.ToBoolE(value))
	case ValueID:
		if isBlank(value) || value == "null" || value == "undefined" {
			return (*int64)(nil), nil
		}
		id, err := cast.ToInt64E(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.Name, err)
		}
		return &id, nil
	case ValueStringList:
		return f.coerceList(value)
	case ValueObject:
		if value == nil {
			return map[string]any{}, nil
		}
		obj, err := cast.ToStringMapE(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.Name, err)
		}
		if len(f.Fields) == 0 {
			return obj, nil
		}
		return coerceFields(f.Fields, obj, prefix)
	default:
		return value, nil
	}
}

func (f FieldSpec) coerceList(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case string:
		items := make([]string, 0)
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		return items, nil
	}

	items, err := cast.ToStringSliceE(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.Name, err)
	}
	return items, nil
}

func (f FieldSpec) wrap(value any, err error) (any, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, f.Name, err)
	}
	return value, nil
}

func findField(specs []FieldSpec, name string) (FieldSpec, bool) {
	for _, spec := range specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

func humanize(name string) string {
	replacer := strings.NewReplacer("_", " ", ".", " ")
	return strings.TrimSpace(replacer.Replace(name))
}
