package models

import (
	"fmt"

	"github.com/spf13/cast"
)

func idValue(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func cloneStrings(items []string) []string {
	return append([]string{}, items...)
}

func cloneMap(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		if nested, ok := value.(map[string]any); ok {
			out[key] = cloneMap(nested)
			continue
		}
		if list, ok := value.([]any); ok {
			out[key] = append([]any{}, list...)
			continue
		}
		out[key] = value
	}
	return out
}

func assignString(field string, value any) (string, error) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	return s, nil
}

func assignBool(field string, value any) (bool, error) {
	b, err := cast.ToBoolE(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	return b, nil
}

func assignFloat(field string, value any) (float64, error) {
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	return f, nil
}

func assignID(field string, value any) (*int64, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *int64:
		if v == nil {
			return nil, nil
		}
		id := *v
		return &id, nil
	}

	id, err := cast.ToInt64E(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	return &id, nil
}

func assignStrings(field string, value any) ([]string, error) {
	if value == nil {
		return []string{}, nil
	}
	items, err := cast.ToStringSliceE(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	return items, nil
}

func assignMap(field string, value any) (map[string]any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	obj, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	return cloneMap(obj), nil
}
