package events

import (
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewBus()
	got := make(chan DataChanged, 1)
	bus.Subscribe(func(ev DataChanged) { got <- ev })

	bus.Publish(DataChanged{Entity: "ingresos", Action: ActionCreated, RecordID: "i1"})

	select {
	case ev := <-got:
		if ev.Entity != "ingresos" || ev.Action != ActionCreated || ev.RecordID != "i1" {
			t.Errorf("received %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("Timestamp not filled in")
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

func TestPublishFansOut(t *testing.T) {
	bus := NewBus()
	a := make(chan DataChanged, 1)
	b := make(chan DataChanged, 1)
	bus.Subscribe(func(ev DataChanged) { a <- ev })
	bus.Subscribe(func(ev DataChanged) { b <- ev })

	bus.Publish(DataChanged{Entity: "combustible", Action: ActionRemoved})

	for name, ch := range map[string]chan DataChanged{"a": a, "b": b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s never received the event", name)
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	got := make(chan DataChanged, 4)
	unsubscribe := bus.Subscribe(func(ev DataChanged) { got <- ev })

	bus.Publish(DataChanged{Entity: "objetivos", Action: ActionUpdated})
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("event never delivered before unsubscribe")
	}

	unsubscribe()
	bus.Publish(DataChanged{Entity: "objetivos", Action: ActionUpdated})

	select {
	case ev := <-got:
		t.Errorf("received %+v after unsubscribe", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	bus := NewBus()
	bus.Publish(DataChanged{Entity: "ingresos", Action: ActionCreated})

	got := make(chan DataChanged, 1)
	bus.Subscribe(func(ev DataChanged) { got <- ev })

	select {
	case ev := <-got:
		t.Errorf("late subscriber received replayed event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	release := make(chan struct{})
	bus.Subscribe(func(DataChanged) { <-release })

	done := make(chan struct{})
	go func() {
		bus.Publish(DataChanged{Entity: "ingresos", Action: ActionCreated})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	close(release)
}
