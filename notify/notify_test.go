package notify

import (
	"testing"
)

func TestSubscribeReceivesAllEvents(t *testing.T) {
	n := New()

	var got []Event
	n.Subscribe(func(e Event) {
		got = append(got, e)
	})

	n.Notify(Event{FileName: "app.toml", Type: EventLoad})
	n.Notify(Event{FileName: "server.toml", Type: EventUpdate})

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0].FileName != "app.toml" || got[0].Type != EventLoad {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].FileName != "server.toml" || got[1].Type != EventUpdate {
		t.Errorf("second event = %+v", got[1])
	}
}

func TestSubscribeFileFilters(t *testing.T) {
	n := New()

	var got []Event
	n.SubscribeFile("server.toml", func(e Event) {
		got = append(got, e)
	})

	n.Notify(Event{FileName: "app.toml", Type: EventLoad})
	n.Notify(Event{FileName: "server.toml", Type: EventMigrate})

	if len(got) != 1 {
		t.Fatalf("received %d events, want 1", len(got))
	}
	if got[0].FileName != "server.toml" || got[0].Type != EventMigrate {
		t.Errorf("event = %+v", got[0])
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()

	count := 0
	sub := n.Subscribe(func(Event) { count++ })

	n.Notify(Event{FileName: "app.toml", Type: EventLoad})
	sub.Unsubscribe()
	n.Notify(Event{FileName: "app.toml", Type: EventUpdate})

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestUnsubscribeFile(t *testing.T) {
	n := New()

	count := 0
	sub := n.SubscribeFile("app.toml", func(Event) { count++ })
	sub.Unsubscribe()

	n.Notify(Event{FileName: "app.toml", Type: EventLoad})
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestCloseDropsEvents(t *testing.T) {
	n := New()

	count := 0
	n.Subscribe(func(Event) { count++ })

	n.Close()
	n.Close() // idempotent
	n.Notify(Event{FileName: "app.toml", Type: EventLoad})

	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestObserverMaySubscribeDuringDelivery(t *testing.T) {
	n := New()

	n.Subscribe(func(Event) {
		// Delivery happens outside the notifier's lock, so this must
		// not deadlock.
		n.Subscribe(func(Event) {})
	})
	n.Notify(Event{FileName: "app.toml", Type: EventLoad})
}

func TestEventTypeString(t *testing.T) {
	cases := []struct {
		typ  EventType
		want string
	}{
		{EventLoad, "load"},
		{EventMigrate, "migrate"},
		{EventUpdate, "update"},
		{EventType(99), "unknown"},
	}
	for _, tc := range cases {
		if got := tc.typ.String(); got != tc.want {
			t.Errorf("EventType(%d).String() = %q, want %q", tc.typ, got, tc.want)
		}
	}
}
