package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// The helpers below back the stores that persist documents as JSON objects
// (memory, sqlite). Field names come from the json tags on domain types,
// which mirror the firestore tags.

// Fields is a decoded JSON document.
type Fields map[string]any

// Encode converts a struct (or map) into its JSON field map.
func Encode(data any) (Fields, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("Encode: marshal: %w", err)
	}
	var out Fields
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("Encode: document is not an object: %w", err)
	}
	return out, nil
}

// Decode fills dst from a field map.
func (f Fields) Decode(dst any) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("Decode: marshal: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("Decode: unmarshal: %w", err)
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (f Fields) Clone() Fields {
	out, err := Encode(f)
	if err != nil {
		// A Fields value always round-trips; it was produced by Encode.
		panic(err)
	}
	return out
}

// Apply sets every update on f, creating intermediate objects for dotted paths.
func (f Fields) Apply(updates []Update) error {
	for _, u := range updates {
		v, err := normalize(u.Value)
		if err != nil {
			return fmt.Errorf("Apply %q: %w", u.Path, err)
		}
		parts := strings.Split(u.Path, ".")
		cur := map[string]any(f)
		for _, p := range parts[:len(parts)-1] {
			next, ok := cur[p].(map[string]any)
			if !ok {
				next = map[string]any{}
				cur[p] = next
			}
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
	return nil
}

// Lookup returns the value at a dotted path.
func (f Fields) Lookup(path string) (any, bool) {
	var cur any = map[string]any(f)
	for _, p := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Matches reports whether f satisfies every equality filter.
func (f Fields) Matches(filters []Filter) (bool, error) {
	for _, flt := range filters {
		if flt.Op != "==" {
			return false, fmt.Errorf("Matches: unsupported operator %q", flt.Op)
		}
		want, err := normalize(flt.Value)
		if err != nil {
			return false, fmt.Errorf("Matches %q: %w", flt.Path, err)
		}
		got, _ := f.Lookup(flt.Path)
		if !reflect.DeepEqual(got, want) {
			return false, nil
		}
	}
	return true, nil
}

// normalize passes v through JSON so typed values (time.Time, string enums)
// compare equal to what Encode stored.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FieldsSnapshot is a Snapshot over a field map.
type FieldsSnapshot struct {
	DocID  string
	Fields Fields
}

func (s FieldsSnapshot) ID() string { return s.DocID }

func (s FieldsSnapshot) DataTo(dst any) error { return s.Fields.Decode(dst) }
