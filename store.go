package nextconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/bottlesdevs/next-config/internal/atomicfile"
	"github.com/bottlesdevs/next-config/internal/codec"
	"github.com/bottlesdevs/next-config/notify"
)

// entry is the type-erased view of one schema's holder inside a store.
type entry interface {
	// loadFromDir reads, migrates, and decodes the entry's file under dir,
	// creating it from defaults when absent. It reports whether a version
	// migration ran.
	loadFromDir(dir string) (migrated bool, err error)

	fileName() string
}

// configEntry holds the loaded value for one schema. All access goes
// through its mutex; the zero value of `value` being nil marks the entry
// as not yet loaded.
type configEntry[T Config] struct {
	name    string
	version uint32
	steps   map[uint32]MigrateFunc

	mu    sync.RWMutex
	value *T
}

func (e *configEntry[T]) fileName() string { return e.name }

// defaultsFor returns a fresh instance of T with its schema defaults
// applied.
func defaultsFor[T Config]() *T {
	v := new(T)
	if d, ok := any(v).(Defaulter); ok {
		d.SetDefaults()
	}
	return v
}

func (e *configEntry[T]) loadFromDir(dir string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defaults, err := codec.Encode(defaultsFor[T]())
	if err != nil {
		return false, &EncodeError{FileName: e.name, Err: err}
	}

	file := atomicfile.New(filepath.Join(dir, e.name))
	data, err := file.Read()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", e.name, err)
	}

	// Taking the read lock creates the file when it is absent, so an
	// empty file and a missing one both mean "no record yet".
	created := len(data) == 0

	record := make(map[string]any)
	if created {
		// A fresh record starts at the current version; migration steps
		// never run over declared defaults.
		record[VersionField] = e.version
	} else {
		record, err = codec.Unmarshal(data)
		if err != nil {
			return false, &DecodeError{FileName: e.name, Reason: "invalid TOML", Err: err}
		}
	}

	m := &migrator{fileName: e.name, target: e.version, steps: e.steps, defaults: defaults}
	migrated, err := m.migrate(record)
	if err != nil {
		return false, err
	}
	mergeDefaults(record, defaults)

	value := defaultsFor[T]()
	if err := codec.Decode(record, value); err != nil {
		return false, &DecodeError{FileName: e.name, Reason: "record does not match schema", Err: err}
	}
	e.value = value

	// Persist immediately so the file on disk always reflects the current
	// schema version.
	if created || migrated {
		if err := e.writeLocked(file); err != nil {
			return false, err
		}
	}
	return migrated, nil
}

// writeLocked serializes the current value and writes it atomically.
// Callers hold e.mu.
func (e *configEntry[T]) writeLocked(file *atomicfile.File) error {
	record, err := codec.Encode(e.value)
	if err != nil {
		return &EncodeError{FileName: e.name, Err: err}
	}
	record[VersionField] = e.version

	data, err := codec.Marshal(record)
	if err != nil {
		return &EncodeError{FileName: e.name, Err: err}
	}
	if err := file.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", e.name, err)
	}
	return nil
}

func (e *configEntry[T]) get() T {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.value == nil {
		panic(fmt.Sprintf("nextconfig: %s accessed before Load", e.name))
	}
	return *e.value
}

// update applies fn to a snapshot of the current value, commits the
// snapshot, and persists it. The snapshot is a deep copy through the
// record form, so a failing mutator discards it without touching the
// held value even through map or slice fields. A failing write is
// surfaced but the committed value stays: the caller's change took
// effect in memory even though it did not reach disk.
func (e *configEntry[T]) update(dir string, fn func(*T) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.value == nil {
		panic(fmt.Sprintf("nextconfig: %s accessed before Load", e.name))
	}

	next, err := e.snapshot()
	if err != nil {
		return err
	}
	if err := fn(next); err != nil {
		return err
	}

	e.value = next
	return e.writeLocked(atomicfile.New(filepath.Join(dir, e.name)))
}

// snapshot deep-copies the held value by round-tripping it through the
// generic record form. Callers hold e.mu.
func (e *configEntry[T]) snapshot() (*T, error) {
	record, err := codec.Encode(e.value)
	if err != nil {
		return nil, &EncodeError{FileName: e.name, Err: err}
	}
	out := new(T)
	if err := codec.Decode(record, out); err != nil {
		return nil, &DecodeError{FileName: e.name, Reason: "record does not match schema", Err: err}
	}
	return out, nil
}

// Store manages the configuration files of one directory.
//
// A store snapshots its registry at construction: schemas or migrations
// registered afterwards are not visible to it. The directory must exist;
// the store never creates it. All methods are safe for concurrent use.
type Store struct {
	dir      string
	entries  map[reflect.Type]entry
	order    []reflect.Type
	notifier *notify.Notifier
}

// NewStore creates a store over dir for every schema registered in r.
func NewStore(dir string, r *Registry) *Store {
	s := &Store{
		dir:      dir,
		entries:  make(map[reflect.Type]entry),
		notifier: notify.New(),
	}
	for _, reg := range r.all() {
		s.entries[reg.typ] = reg.newEntry(reg.steps())
		s.order = append(s.order, reg.typ)
	}
	return s
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// LoadAll loads every registered schema in registration order, stopping
// at the first failure. Loading is idempotent: a second call re-reads the
// files and replaces the in-memory values.
func (s *Store) LoadAll() error {
	for _, typ := range s.order {
		if err := s.loadEntry(s.entries[typ]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadEntry(e entry) error {
	migrated, err := e.loadFromDir(s.dir)
	if err != nil {
		return err
	}

	kind := notify.EventLoad
	if migrated {
		kind = notify.EventMigrate
	}
	s.notifier.Notify(notify.Event{FileName: e.fileName(), Type: kind})
	return nil
}

// Subscribe registers an observer for events on every file in the store.
func (s *Store) Subscribe(observer notify.Observer) *notify.Subscription {
	return s.notifier.Subscribe(observer)
}

// SubscribeFile registers an observer for events on a single file.
func (s *Store) SubscribeFile(file string, observer notify.Observer) *notify.Subscription {
	return s.notifier.SubscribeFile(file, observer)
}

// Close shuts down event delivery. The store's data methods keep working;
// only notifications stop.
func (s *Store) Close() {
	s.notifier.Close()
}

// Load reads, migrates, and decodes T's file, creating it from defaults
// when absent. Files needing migration (and freshly created ones) are
// written back immediately.
func Load[T Config](s *Store) error {
	e, err := lookup[T](s)
	if err != nil {
		return err
	}
	return s.loadEntry(e)
}

// Get returns the loaded value of T. It panics if T was never registered
// or not yet loaded: both are programming errors, not runtime conditions.
//
// The returned value is a shallow copy; treat reference fields (slices,
// maps) as read-only and use Update to change them.
func Get[T Config](s *Store) T {
	e, err := lookup[T](s)
	if err != nil {
		panic(fmt.Sprintf("nextconfig: %v", err))
	}
	return e.get()
}

// Update applies fn to a deep copy of T's value and atomically persists
// the result. If fn returns an error the update is abandoned: neither
// the in-memory value (including its map and slice fields) nor the file
// changes.
func Update[T Config](s *Store, fn func(*T) error) error {
	e, err := lookup[T](s)
	if err != nil {
		return err
	}
	if err := e.update(s.dir, fn); err != nil {
		return err
	}
	s.notifier.Notify(notify.Event{FileName: e.name, Type: notify.EventUpdate})
	return nil
}

func lookup[T Config](s *Store) (*configEntry[T], error) {
	var zero T
	e, ok := s.entries[reflect.TypeOf(zero)]
	if !ok {
		return nil, &UnregisteredError{FileName: zero.ConfigFileName()}
	}
	return e.(*configEntry[T]), nil
}
