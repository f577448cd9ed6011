// Package codec converts typed configuration values to and from their
// generic record form, and renders that form as TOML text.
//
// The generic record form is a map[string]any tree as produced by the
// TOML parser: nested tables become nested maps, arrays become []any, and
// integers surface as int64. Struct fields are matched through their
// `toml` tags in both directions, so the same tags drive the typed
// conversion and the text encoding.
package codec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
)

const tagName = "toml"

// ErrNotMap reports a value whose generic form is not a map at the root.
// Every persisted record is a table; anything else cannot be stored.
var ErrNotMap = errors.New("record root is not a map")

// Encode converts a typed value into its generic record form. The value
// must encode to a map at the root, i.e. be a struct or a map; any other
// root shape is reported as ErrNotMap. Failures inside a map-rooted
// value pass through unwrapped.
func Encode(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("%w: got %T", ErrNotMap, v)
	}

	record := make(map[string]any)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: tagName,
		Result:  &record,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, err
	}
	return record, nil
}

// Decode fills out from the generic record form. Keys in the record with
// no matching field (including the version field) are ignored; a value
// that cannot satisfy the target field's type is an error.
func Decode(record map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: tagName,
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(record)
}

// Marshal renders a generic record as TOML text.
func Marshal(record map[string]any) ([]byte, error) {
	return toml.Marshal(record)
}

// Unmarshal parses TOML text into a generic record. TOML documents are
// tables at the root, so the root-map invariant holds for any input that
// parses; empty input yields an empty record.
func Unmarshal(data []byte) (map[string]any, error) {
	var record map[string]any
	if err := toml.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if record == nil {
		record = make(map[string]any)
	}
	return record, nil
}
