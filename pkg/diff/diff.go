// Package diff detects field level differences between two attribute
// snapshots of the same entity.
package diff

import (
	"reflect"
	"sort"
)

// Kind describes how a field is compared.
type Kind int

const (
	// Scalar fields are compared by normalized value.
	Scalar Kind = iota
	// List fields are compared as unordered collections; any content change
	// replaces the whole field.
	List
	// Object fields are nested mappings whose keys are diffed recursively.
	Object
)

// Field declares one comparable attribute. Object fields without children are
// recursed into by key introspection.
type Field struct {
	Name   string
	Label  string
	Kind   Kind
	Fields []Field
}

// Change holds the original, non-normalized values of a differing field.
type Change struct {
	Old any
	New any
}

// Result is the outcome of comparing two snapshots.
type Result struct {
	// Different maps dot-joined field paths to their old and new values.
	Different map[string]Change
	// Missing lists paths present only in the new snapshot with a non-empty value.
	Missing []string

	paths []string
	added map[string]any
}

// Paths returns the differing paths in comparison order.
func (r Result) Paths() []string {
	return append([]string(nil), r.paths...)
}

// MissingValue returns the new value of a path listed in Missing.
func (r Result) MissingValue(path string) any {
	return r.added[path]
}

// Empty reports whether the comparison found nothing to audit.
func (r Result) Empty() bool {
	return len(r.Different) == 0 && len(r.Missing) == 0
}

// Compare diffs every key of the two snapshots.
func Compare(oldObj, newObj map[string]any) Result {
	return compare(nil, oldObj, newObj)
}

// CompareFields diffs only the declared fields, applying each field's
// comparison semantics.
func CompareFields(fields []Field, oldObj, newObj map[string]any) Result {
	if fields == nil {
		fields = []Field{}
	}
	return compare(fields, oldObj, newObj)
}

func compare(fields []Field, oldObj, newObj map[string]any) Result {
	result := Result{Different: map[string]Change{}, Missing: []string{}, added: map[string]any{}}
	diffInto(&result, fields, oldObj, newObj, "")
	missingInto(&result, fields, oldObj, newObj, "")
	return result
}

func diffInto(result *Result, fields []Field, oldObj, newObj map[string]any, prefix string) {
	for _, field := range plan(fields, oldObj) {
		oldValue, inOld := oldObj[field.Name]
		if !inOld {
			continue
		}
		path := prefix + field.Name

		newValue, inNew := newObj[field.Name]
		if !inNew {
			newValue = Absent
		}

		normalizedOld := normalizeField(field, oldValue)
		normalizedNew := normalizeField(field, newValue)

		if !inNew {
			if normalizedOld != nil {
				result.add(path, oldValue, Absent)
			}
			continue
		}

		if normalizedOld == nil && normalizedNew == nil {
			continue
		}

		if field.Kind == Object {
			oldChild, oldIsMap := asMapping(oldValue)
			newChild, newIsMap := asMapping(newValue)
			if oldIsMap && newIsMap {
				diffInto(result, childFields(field), oldChild, newChild, path+".")
				continue
			}
		}

		if !equalNormalized(normalizedOld, normalizedNew) {
			result.add(path, oldValue, newValue)
		}
	}
}

func missingInto(result *Result, fields []Field, oldObj, newObj map[string]any, prefix string) {
	for _, field := range plan(fields, newObj) {
		newValue := newObj[field.Name]
		path := prefix + field.Name

		oldValue, inOld := oldObj[field.Name]
		if !inOld {
			if normalizeField(field, newValue) != nil {
				result.Missing = append(result.Missing, path)
				result.added[path] = newValue
			}
			continue
		}

		if field.Kind != Object {
			continue
		}

		oldChild, oldIsMap := asMapping(oldValue)
		newChild, newIsMap := asMapping(newValue)
		if oldIsMap && newIsMap {
			missingInto(result, childFields(field), oldChild, newChild, path+".")
		}
	}
}

func (r *Result) add(path string, oldValue, newValue any) {
	if _, exists := r.Different[path]; !exists {
		r.paths = append(r.paths, path)
	}
	r.Different[path] = Change{Old: oldValue, New: newValue}
}

// plan returns the fields to visit for obj. Declared fields keep their order
// and are limited to keys present in obj; otherwise keys are visited sorted
// and treated as objects so nested mappings are recursed into.
func plan(fields []Field, obj map[string]any) []Field {
	if fields != nil {
		planned := make([]Field, 0, len(fields))
		for _, field := range fields {
			if _, ok := obj[field.Name]; ok {
				planned = append(planned, field)
			}
		}
		return planned
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	planned := make([]Field, 0, len(keys))
	for _, key := range keys {
		planned = append(planned, Field{Name: key, Kind: Object})
	}
	return planned
}

func childFields(field Field) []Field {
	if len(field.Fields) == 0 {
		return nil
	}
	return field.Fields
}

func normalizeField(field Field, value any) any {
	if field.Kind == List {
		if s, ok := value.(string); ok && s != "" {
			return Normalize([]string{s})
		}
	}
	return Normalize(value)
}

func asMapping(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return nil, false
		}
		return v, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
