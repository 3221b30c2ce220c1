package dispatch

import (
	"testing"
	"time"

	"github.com/draftops/draftops/internal/events"
	"github.com/draftops/draftops/internal/protocol"
)

func publishPicks(bus *events.Bus, n int) {
	for i := 1; i <= n; i++ {
		pick := protocol.PickSelected{TeamID: 1, PlayerID: "P", OverallPick: i}
		bus.Publish(events.New(events.EventDraftApplied, uint64(i), pick))
	}
}

func TestEveryConsumerSeesEveryEventInOrder(t *testing.T) {
	bus := events.NewBus()
	d := NewDispatcher(bus, 16)
	defer d.Close()

	_, a := d.Register("recommender")
	_, b := d.Register("ui")

	publishPicks(bus, 10)

	for name, ch := range map[string]<-chan events.Event{"a": a, "b": b} {
		for i := 1; i <= 10; i++ {
			select {
			case e := <-ch:
				if e.Seq != uint64(i) {
					t.Fatalf("consumer %s: event %d has seq %d, want %d", name, i, e.Seq, i)
				}
			case <-time.After(time.Second):
				t.Fatalf("consumer %s: timed out waiting for event %d", name, i)
			}
		}
	}
}

func TestUnregisterClosesChannelAndStopsDelivery(t *testing.T) {
	bus := events.NewBus()
	d := NewDispatcher(bus, 16)
	defer d.Close()

	id, ch := d.Register("short-lived")
	publishPicks(bus, 2)
	d.Unregister(id)
	publishPicks(bus, 2)

	got := 0
	for range ch {
		got++
	}
	if got != 2 {
		t.Fatalf("drained %d events after unregister, want the 2 pending ones", got)
	}
	if d.Consumers() != 0 {
		t.Fatalf("Consumers = %d after unregister, want 0", d.Consumers())
	}
}

func TestFullConsumerBlocksPublisher(t *testing.T) {
	bus := events.NewBus()
	d := NewDispatcher(bus, 2)
	defer d.Close()

	_, ch := d.Register("slow")

	done := make(chan struct{})
	go func() {
		publishPicks(bus, 3) // third send must block until the reader drains
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("publish of 3 events returned with buffer 2 and no reader")
	case <-time.After(20 * time.Millisecond):
	}

	for i := 0; i < 3; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("timed out draining event %d", i+1)
		}
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after consumer drained")
	}
}

func TestCloseRefusesNewConsumers(t *testing.T) {
	bus := events.NewBus()
	d := NewDispatcher(bus, 4)

	_, before := d.Register("before")
	d.Close()

	if _, open := <-before; open {
		t.Fatal("channel still open after Close")
	}

	_, after := d.Register("after")
	if _, open := <-after; open {
		t.Fatal("Register after Close returned an open channel")
	}
}
