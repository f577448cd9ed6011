// Package notify provides change notification for configuration stores.
//
// The package implements an observer pattern that allows components to
// subscribe to configuration events and receive a callback whenever a
// store loads, migrates, or updates a record. Delivery is synchronous, in
// the goroutine performing the store operation; the package owns no
// background goroutines.
package notify

import (
	"sync"
)

// EventType represents the kind of configuration event.
type EventType int

const (
	// EventLoad indicates a record was loaded from disk (or created from
	// defaults) without needing a version migration.
	EventLoad EventType = iota

	// EventMigrate indicates a record was loaded and migrated to a newer
	// schema version.
	EventMigrate

	// EventUpdate indicates a record was mutated and persisted.
	EventUpdate
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventLoad:
		return "load"
	case EventMigrate:
		return "migrate"
	case EventUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Event describes one store operation on one configuration file.
type Event struct {
	// FileName is the schema's file name, e.g. "app.toml".
	FileName string

	// Type is the kind of event.
	Type EventType
}

// Observer is called when a configuration event occurs.
type Observer func(event Event)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	file     string
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages configuration event subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Observers that receive every event
	global map[uint64]Observer

	// Observers keyed by file name
	byFile map[string]map[uint64]Observer

	nextID uint64
	closed bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{
		global: make(map[uint64]Observer),
		byFile: make(map[string]map[uint64]Observer),
	}
}

// Subscribe registers an observer for all events.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.global[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeFile registers an observer for events on a single file.
func (n *Notifier) SubscribeFile(file string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	if n.byFile[file] == nil {
		n.byFile[file] = make(map[uint64]Observer)
	}
	n.byFile[file][id] = observer

	return &Subscription{id: id, file: file, notifier: n}
}

// Notify delivers an event to all matching observers. Observers are
// called outside the notifier's lock, so they may subscribe or
// unsubscribe freely.
func (n *Notifier) Notify(event Event) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}

	var observers []Observer
	for _, obs := range n.global {
		observers = append(observers, obs)
	}
	if fileObs, ok := n.byFile[event.FileName]; ok {
		for _, obs := range fileObs {
			observers = append(observers, obs)
		}
	}
	n.mu.RUnlock()

	for _, obs := range observers {
		obs(event)
	}
}

// Close shuts down the notifier; subsequent events are dropped. It is
// safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.global, id)
	for file, observers := range n.byFile {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.byFile, file)
		}
	}
}
