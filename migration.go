package nextconfig

import (
	"fmt"
	"math"
)

// VersionField is the reserved key that stores a record's schema version
// inside its root map.
const VersionField = "_version"

// migrator walks a generic record from its declared version up to the
// target version, merging schema defaults and applying the registered
// step at each boundary. Migration is forward-only.
type migrator struct {
	fileName string
	target   uint32
	steps    map[uint32]MigrateFunc
	defaults map[string]any
}

// migrate normalizes record to the target version in place and reports
// whether a version change happened. Records already at the target
// version pass through untouched except for the version stamp.
//
// A failing step aborts immediately, leaving the record in its partially
// transformed state; the caller surfaces the error rather than retrying.
func (m *migrator) migrate(record map[string]any) (bool, error) {
	version, err := m.extractVersion(record)
	if err != nil {
		return false, err
	}
	if version > m.target {
		return false, &MigrationError{FileName: m.fileName, From: version, Err: ErrFutureVersion}
	}

	changed := version != m.target
	for version != m.target {
		mergeDefaults(record, m.defaults)

		if step, ok := m.steps[version]; ok {
			if err := step(record); err != nil {
				return false, &MigrationError{FileName: m.fileName, From: version, Err: err}
			}
		}
		version++
	}

	record[VersionField] = m.target
	return changed, nil
}

// extractVersion reads the record's version field. A missing field means
// version 1: records that predate explicit versioning are treated as
// first-generation. A present but non-numeric field is a decode error,
// never silently defaulted.
func (m *migrator) extractVersion(record map[string]any) (uint32, error) {
	raw, ok := record[VersionField]
	if !ok {
		return 1, nil
	}

	version, err := coerceVersion(raw)
	if err != nil {
		return 0, &DecodeError{
			FileName: m.fileName,
			Reason:   fmt.Sprintf("invalid %s field", VersionField),
			Err:      err,
		}
	}
	return version, nil
}

// coerceVersion accepts the integer shapes the TOML parser and in-memory
// records produce for the version field.
func coerceVersion(raw any) (uint32, error) {
	switch v := raw.(type) {
	case int64:
		if v < 0 || v > math.MaxUint32 {
			return 0, fmt.Errorf("version %d out of range", v)
		}
		return uint32(v), nil
	case int:
		if v < 0 || int64(v) > math.MaxUint32 {
			return 0, fmt.Errorf("version %d out of range", v)
		}
		return uint32(v), nil
	case uint32:
		return v, nil
	case uint64:
		if v > math.MaxUint32 {
			return 0, fmt.Errorf("version %d out of range", v)
		}
		return uint32(v), nil
	case float64:
		if v != math.Trunc(v) || v < 0 || v > math.MaxUint32 {
			return 0, fmt.Errorf("version %v is not an unsigned integer", v)
		}
		return uint32(v), nil
	default:
		return 0, fmt.Errorf("version has type %T, want an integer", raw)
	}
}

// mergeDefaults inserts every top-level default key absent from the
// record. Keys present in the record always win over defaults.
func mergeDefaults(record, defaults map[string]any) {
	for key, value := range defaults {
		if _, ok := record[key]; !ok {
			record[key] = value
		}
	}
}
