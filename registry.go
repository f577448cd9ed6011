package nextconfig

import (
	"fmt"
	"reflect"
	"sync"
)

// Config is the interface every configuration schema implements. Both
// methods describe the schema, not an instance, and are called on the
// zero value; they must not depend on instance state.
type Config interface {
	// ConfigVersion returns the schema's current version. Versions start
	// at 1 and increment by one for every schema change that needs a
	// migration step.
	ConfigVersion() uint32

	// ConfigFileName returns the name of the schema's file inside the
	// store directory, e.g. "app.toml".
	ConfigFileName() string
}

// Defaulter is implemented, with a pointer receiver, by schemas whose
// default values differ from the Go zero value. SetDefaults is called on
// a fresh instance before it is used as the schema's default record.
type Defaulter interface {
	SetDefaults()
}

// MigrateFunc transforms a generic record from one schema version to the
// next, in place. The record is always a map at the root; the function
// may add, remove, or rename keys but must keep the root a map.
type MigrateFunc func(record map[string]any) error

// Registry holds schema registrations and their migration steps.
//
// Populate it during application initialization, before constructing a
// Store: the Store snapshots the registry at construction and never sees
// later additions. Registrations are never removed.
type Registry struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]*registration
	byFile  map[string]reflect.Type
	order   []reflect.Type
}

// registration pairs a schema identity with its descriptor, holder
// factory, and migration steps.
type registration struct {
	typ        reflect.Type
	fileName   string
	version    uint32
	newEntry   func(steps map[uint32]MigrateFunc) entry
	migrations map[uint32]MigrateFunc
}

// steps returns a copy of the registered migration steps, so a
// constructed store is isolated from later registrations.
func (reg *registration) steps() map[uint32]MigrateFunc {
	out := make(map[uint32]MigrateFunc, len(reg.migrations))
	for from, fn := range reg.migrations {
		out[from] = fn
	}
	return out
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[reflect.Type]*registration),
		byFile:  make(map[string]reflect.Type),
	}
}

// Register adds the schema T to the registry. Registering the same type
// twice, or two types sharing a file name, is an authoring mistake and is
// rejected with an error wrapping ErrAlreadyRegistered.
func Register[T Config](r *Registry) error {
	var zero T
	name := zero.ConfigFileName()
	version := zero.ConfigVersion()
	if name == "" {
		return fmt.Errorf("config %T has an empty file name", zero)
	}
	if version == 0 {
		return fmt.Errorf("config %s declares version 0, versions start at 1", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	typ := reflect.TypeOf(zero)
	if _, exists := r.schemas[typ]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	if other, exists := r.byFile[name]; exists {
		return fmt.Errorf("%w: file %s already used by %s", ErrAlreadyRegistered, name, other)
	}

	r.schemas[typ] = &registration{
		typ:      typ,
		fileName: name,
		version:  version,
		newEntry: func(steps map[uint32]MigrateFunc) entry {
			return &configEntry[T]{name: name, version: version, steps: steps}
		},
		migrations: make(map[uint32]MigrateFunc),
	}
	r.byFile[name] = typ
	r.order = append(r.order, typ)
	return nil
}

// MustRegister registers T and panics on error. Useful for registering
// schemas at initialization time.
func MustRegister[T Config](r *Registry) {
	if err := Register[T](r); err != nil {
		panic(err)
	}
}

// RegisterMigration adds a migration step for schema T that upgrades
// records from version `from` to `from+1`. Steps need not exist for every
// boundary: a missing step is a no-op and the version still advances, so
// schema changes that only add defaulted fields need no step at all.
//
// T must already be registered. A second step for the same source version
// is rejected with an error wrapping ErrAlreadyRegistered.
func RegisterMigration[T Config](r *Registry, from uint32, fn MigrateFunc) error {
	var zero T
	name := zero.ConfigFileName()
	if fn == nil {
		return fmt.Errorf("migration for %s from version %d is nil", name, from)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.schemas[reflect.TypeOf(zero)]
	if !ok {
		return &UnregisteredError{FileName: name}
	}
	if from == 0 || from >= reg.version {
		return fmt.Errorf("migration for %s from version %d is outside 1..%d", name, from, reg.version-1)
	}
	if _, exists := reg.migrations[from]; exists {
		return fmt.Errorf("%w: %s migration from version %d", ErrAlreadyRegistered, name, from)
	}

	reg.migrations[from] = fn
	return nil
}

// MustRegisterMigration registers a migration step and panics on error.
func MustRegisterMigration[T Config](r *Registry, from uint32, fn MigrateFunc) {
	if err := RegisterMigration[T](r, from, fn); err != nil {
		panic(err)
	}
}

// all returns the registrations in registration order.
func (r *Registry) all() []*registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*registration, 0, len(r.order))
	for _, typ := range r.order {
		out = append(out, r.schemas[typ])
	}
	return out
}
