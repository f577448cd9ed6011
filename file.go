package nextconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bottlesdevs/next-config/internal/atomicfile"
	"github.com/bottlesdevs/next-config/internal/codec"
)

// Standalone file helpers for working with a single configuration value
// outside a Store. They share the store's on-disk format and locking but
// keep no state and run no registered migration steps: records from older
// versions are upgraded by default-merging alone.

// LoadFile reads and decodes T's value from path. A missing or empty file
// yields the schema defaults; nothing is written back.
func LoadFile[T Config](path string) (T, error) {
	var zero T
	name := filepath.Base(path)

	data, err := atomicfile.New(path).Read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zero, fmt.Errorf("reading %s: %w", name, err)
	}

	record := make(map[string]any)
	if len(data) > 0 {
		record, err = codec.Unmarshal(data)
		if err != nil {
			return zero, &DecodeError{FileName: name, Reason: "invalid TOML", Err: err}
		}
	}
	return decodeRecord[T](name, record)
}

// SaveFile atomically writes value to path, stamping the schema version.
func SaveFile[T Config](path string, value T) error {
	name := filepath.Base(path)

	record, err := codec.Encode(value)
	if err != nil {
		return &EncodeError{FileName: name, Err: err}
	}
	record[VersionField] = value.ConfigVersion()

	data, err := codec.Marshal(record)
	if err != nil {
		return &EncodeError{FileName: name, Err: err}
	}
	if err := atomicfile.New(path).Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// ParseString decodes T's value from TOML text.
func ParseString[T Config](text string) (T, error) {
	var zero T
	name := zero.ConfigFileName()

	record, err := codec.Unmarshal([]byte(text))
	if err != nil {
		return zero, &DecodeError{FileName: name, Reason: "invalid TOML", Err: err}
	}
	return decodeRecord[T](name, record)
}

// MarshalString renders value as TOML text, stamping the schema version.
func MarshalString[T Config](value T) (string, error) {
	record, err := codec.Encode(value)
	if err != nil {
		return "", &EncodeError{FileName: value.ConfigFileName(), Err: err}
	}
	record[VersionField] = value.ConfigVersion()

	data, err := codec.Marshal(record)
	if err != nil {
		return "", &EncodeError{FileName: value.ConfigFileName(), Err: err}
	}
	return string(data), nil
}

// decodeRecord normalizes a generic record to T's current version with
// defaults only (no migration steps) and decodes it.
func decodeRecord[T Config](name string, record map[string]any) (T, error) {
	var zero T

	defaults, err := codec.Encode(defaultsFor[T]())
	if err != nil {
		return zero, &EncodeError{FileName: name, Err: err}
	}

	m := &migrator{fileName: name, target: zero.ConfigVersion(), defaults: defaults}
	if _, err := m.migrate(record); err != nil {
		return zero, err
	}
	mergeDefaults(record, defaults)

	out := defaultsFor[T]()
	if err := codec.Decode(record, out); err != nil {
		return zero, &DecodeError{FileName: name, Reason: "record does not match schema", Err: err}
	}
	return *out, nil
}
