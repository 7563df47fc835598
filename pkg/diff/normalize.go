package diff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

type absent struct{}

func (absent) String() string { return "" }

// Absent marks a key that carries no value at all, as opposed to an explicit null.
var Absent = absent{}

// listToken is the comparable form of a slice. It is a distinct type so that a
// list never compares equal to a plain string holding the same text.
type listToken string

const listSeparator = "\x1f"

// Normalize canonicalizes a value before comparison. Form submissions deliver
// booleans and nulls as strings, so "true"/"false" become booleans and
// "null"/"undefined" collapse to the empty value together with "", nil and
// Absent. Slices become an order-insensitive token. Everything else is
// returned unchanged.
func Normalize(value any) any {
	switch v := value.(type) {
	case nil, absent:
		return nil
	case listToken:
		return v
	case string:
		switch v {
		case "", "null", "undefined":
			return nil
		case "true":
			return true
		case "false":
			return false
		}
		return v
	case bool:
		return v
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return string(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return normalizeList(rv)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
	}

	return value
}

func normalizeList(rv reflect.Value) any {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil
	}
	if rv.Len() == 0 {
		return nil
	}

	items := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items = append(items, Stringify(Normalize(rv.Index(i).Interface())))
	}
	sort.Strings(items)

	return listToken(strings.Join(items, listSeparator))
}

// IsEmpty reports whether value normalizes to the canonical empty value.
func IsEmpty(value any) bool {
	return Normalize(value) == nil
}

// Equal compares two values after normalization.
func Equal(a, b any) bool {
	return equalNormalized(Normalize(a), Normalize(b))
}

func equalNormalized(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if reflect.DeepEqual(a, b) {
		return true
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}

	if isComposite(a) && isComposite(b) {
		return Stringify(a) == Stringify(b)
	}

	return false
}

func toFloat(value any) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func isComposite(value any) bool {
	switch value.(type) {
	case time.Time, fmt.Stringer:
		return true
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Struct, reflect.Map:
		return true
	default:
		return false
	}
}

// Stringify renders a value the way it is shown in audit messages and stored
// in change records.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil, absent:
		return ""
	case listToken:
		return strings.Join(strings.Split(string(v), listSeparator), ", ")
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return Stringify(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, Stringify(rv.Index(i).Interface()))
		}
		return strings.Join(parts, ", ")
	case reflect.Map, reflect.Struct:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(encoded)
	}

	return fmt.Sprintf("%v", value)
}
