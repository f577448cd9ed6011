package nextconfig

import (
	"errors"
	"testing"
)

func TestMigrateMissingVersionMeansOne(t *testing.T) {
	m := &migrator{fileName: "app.toml", target: 1}
	record := map[string]any{"name": "app"}

	changed, err := m.migrate(record)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if changed {
		t.Error("record without a version field is already at version 1")
	}
	if record[VersionField] != uint32(1) {
		t.Errorf("%s = %v, want 1", VersionField, record[VersionField])
	}
}

func TestMigrateRunsStepsInOrder(t *testing.T) {
	var ran []uint32
	m := &migrator{
		fileName: "app.toml",
		target:   4,
		steps: map[uint32]MigrateFunc{
			1: func(map[string]any) error { ran = append(ran, 1); return nil },
			2: func(map[string]any) error { ran = append(ran, 2); return nil },
			3: func(map[string]any) error { ran = append(ran, 3); return nil },
		},
	}
	record := map[string]any{VersionField: int64(1)}

	changed, err := m.migrate(record)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !changed {
		t.Error("migrate reported no change across three versions")
	}
	if len(ran) != 3 || ran[0] != 1 || ran[1] != 2 || ran[2] != 3 {
		t.Errorf("steps ran = %v, want [1 2 3]", ran)
	}
	if record[VersionField] != uint32(4) {
		t.Errorf("%s = %v, want 4", VersionField, record[VersionField])
	}
}

func TestMigrateMissingStepStillAdvances(t *testing.T) {
	// Schema changes that only add defaulted fields register no step.
	m := &migrator{fileName: "app.toml", target: 3}
	record := map[string]any{VersionField: int64(1)}

	changed, err := m.migrate(record)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !changed {
		t.Error("expected version change")
	}
	if record[VersionField] != uint32(3) {
		t.Errorf("%s = %v, want 3", VersionField, record[VersionField])
	}
}

func TestMigrateMergesDefaultsBeforeEachStep(t *testing.T) {
	var sawRetries any
	m := &migrator{
		fileName: "app.toml",
		target:   2,
		defaults: map[string]any{"retries": 3, "host": "localhost"},
		steps: map[uint32]MigrateFunc{
			1: func(record map[string]any) error {
				sawRetries = record["retries"]
				return nil
			},
		},
	}
	record := map[string]any{VersionField: int64(1), "host": "example.com"}

	if _, err := m.migrate(record); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if sawRetries != 3 {
		t.Errorf("step saw retries = %v, want default 3", sawRetries)
	}
	if record["host"] != "example.com" {
		t.Errorf("host = %v, existing keys must win over defaults", record["host"])
	}
}

func TestMigrateStepOverridesDefault(t *testing.T) {
	m := &migrator{
		fileName: "app.toml",
		target:   2,
		defaults: map[string]any{"mode": "basic"},
		steps: map[uint32]MigrateFunc{
			1: func(record map[string]any) error {
				record["mode"] = "advanced"
				return nil
			},
		},
	}
	record := map[string]any{VersionField: int64(1)}

	if _, err := m.migrate(record); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if record["mode"] != "advanced" {
		t.Errorf("mode = %v, step output must win over defaults", record["mode"])
	}
}

func TestMigrateFutureVersion(t *testing.T) {
	m := &migrator{fileName: "app.toml", target: 2}
	record := map[string]any{VersionField: int64(5)}

	_, err := m.migrate(record)
	if !errors.Is(err, ErrFutureVersion) {
		t.Fatalf("error = %v, want ErrFutureVersion", err)
	}

	var merr *MigrationError
	if !errors.As(err, &merr) {
		t.Fatalf("error type = %T, want *MigrationError", err)
	}
	if merr.FileName != "app.toml" || merr.From != 5 {
		t.Errorf("error = %+v, want FileName app.toml From 5", merr)
	}
}

func TestMigrateStepFailure(t *testing.T) {
	boom := errors.New("cannot convert legacy layout")
	m := &migrator{
		fileName: "app.toml",
		target:   3,
		steps: map[uint32]MigrateFunc{
			2: func(map[string]any) error { return boom },
		},
	}
	record := map[string]any{VersionField: int64(1)}

	_, err := m.migrate(record)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped step error", err)
	}

	var merr *MigrationError
	if !errors.As(err, &merr) {
		t.Fatalf("error type = %T, want *MigrationError", err)
	}
	if merr.From != 2 {
		t.Errorf("From = %d, want 2", merr.From)
	}
}

func TestMigrateInvalidVersionField(t *testing.T) {
	cases := []struct {
		name string
		raw  any
	}{
		{"string", "two"},
		{"negative", int64(-1)},
		{"fractional", 1.5},
		{"bool", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &migrator{fileName: "app.toml", target: 2}
			record := map[string]any{VersionField: tc.raw}

			_, err := m.migrate(record)
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("error = %v (%T), want *DecodeError", err, err)
			}
		})
	}
}

func TestCoerceVersionShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want uint32
	}{
		{"int64", int64(7), 7},
		{"int", 7, 7},
		{"uint32", uint32(7), 7},
		{"uint64", uint64(7), 7},
		{"whole float", 7.0, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerceVersion(tc.raw)
			if err != nil {
				t.Fatalf("coerceVersion(%v) failed: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("coerceVersion(%v) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestMergeDefaultsShallow(t *testing.T) {
	record := map[string]any{
		"server": map[string]any{"host": "example.com"},
	}
	defaults := map[string]any{
		"server": map[string]any{"host": "localhost", "port": 8080},
		"theme":  "dark",
	}

	mergeDefaults(record, defaults)

	if record["theme"] != "dark" {
		t.Errorf("theme = %v, want 'dark'", record["theme"])
	}
	// Merging is shallow: a present table is kept as-is, nested defaults
	// are filled in by decoding into a defaulted value instead.
	server := record["server"].(map[string]any)
	if _, ok := server["port"]; ok {
		t.Error("merge recursed into nested table")
	}
	if server["host"] != "example.com" {
		t.Errorf("host = %v, want 'example.com'", server["host"])
	}
}
