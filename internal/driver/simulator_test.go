package driver

import (
	"context"
	"testing"
	"time"

	"github.com/wagate/wagate/internal/errors"
)

func TestSimulator_ChallengeThenScan(t *testing.T) {
	var got []Event
	sim := NewSimulator("alice", func(ev Event) { got = append(got, ev) })

	if err := sim.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	sim.CompleteScan()

	want := []EventKind{KindChallengeIssued, KindAuthenticated, KindReady}
	if len(got) != len(want) {
		t.Fatalf("emitted %d events, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("event %d = %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestSimulator_StoredCredentialsSkipChallenge(t *testing.T) {
	var got []Event
	sim := NewSimulator("alice", func(ev Event) { got = append(got, ev) },
		WithStoredCredentials())

	if err := sim.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	want := []EventKind{KindAuthenticated, KindReady}
	if len(got) != len(want) {
		t.Fatalf("emitted %d events, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Errorf("event %d = %v, want %v", i, got[i].Kind, k)
		}
	}
}

func TestSimulator_RejectScan(t *testing.T) {
	var got []Event
	sim := NewSimulator("alice", func(ev Event) { got = append(got, ev) })

	if err := sim.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	sim.RejectScan("challenge expired")

	if len(got) != 2 || got[1].Kind != KindAuthFailed {
		t.Fatalf("events = %v, want challenge then auth failure", got)
	}
	if got[1].Reason != "challenge expired" {
		t.Errorf("failure reason = %q, want %q", got[1].Reason, "challenge expired")
	}
}

func TestSimulator_AutoComplete(t *testing.T) {
	events := make(chan Event, 8)
	sim := NewSimulator("alice", func(ev Event) { events <- ev },
		WithAutoComplete(5*time.Millisecond))

	if err := sim.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	var got []EventKind
	deadline := time.After(time.Second)
	for len(got) < 3 {
		select {
		case ev := <-events:
			got = append(got, ev.Kind)
		case <-deadline:
			t.Fatalf("timed out waiting for auto-complete, got %v", got)
		}
	}

	want := []EventKind{KindChallengeIssued, KindAuthenticated, KindReady}
	for i, k := range want {
		if got[i] != k {
			t.Errorf("event %d = %v, want %v", i, got[i], k)
		}
	}
}

func TestSimulator_SendErrorOption(t *testing.T) {
	sendErr := errors.New("socket closed")
	sim := NewSimulator("alice", func(Event) {}, WithSendError(sendErr))

	_, err := sim.SendText(context.Background(), "628123@c.us", "hi")
	if !errors.Is(err, sendErr) {
		t.Errorf("SendText error = %v, want configured send error", err)
	}
}

func TestSimulator_RegisteredCheck(t *testing.T) {
	sim := NewSimulator("alice", func(Event) {},
		WithRegisteredCheck(func(recipient string) bool {
			return recipient == "628123@c.us"
		}))

	ok, err := sim.IsRegistered(context.Background(), "628123@c.us")
	if err != nil || !ok {
		t.Errorf("IsRegistered(known) = %v, %v; want true, nil", ok, err)
	}

	ok, err = sim.IsRegistered(context.Background(), "628999@c.us")
	if err != nil || ok {
		t.Errorf("IsRegistered(unknown) = %v, %v; want false, nil", ok, err)
	}
}

func TestSimulator_SendAfterDestroyFails(t *testing.T) {
	sim := NewSimulator("alice", func(Event) {})

	if err := sim.Destroy(context.Background()); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if !sim.Destroyed() {
		t.Fatal("Destroyed() should report true after Destroy")
	}

	if _, err := sim.SendText(context.Background(), "628123@c.us", "hi"); err == nil {
		t.Error("SendText after Destroy should fail")
	}
	if err := sim.Connect(context.Background()); err == nil {
		t.Error("Connect after Destroy should fail")
	}
}

func TestSimulatorFactory_TracksGenerations(t *testing.T) {
	f := NewFactory()
	factory := f.Factory()

	d1 := factory("alice", func(Event) {})
	d2 := factory("alice", func(Event) {})
	factory("bob", func(Event) {})

	if f.Count("alice") != 2 {
		t.Errorf("Count(alice) = %d, want 2", f.Count("alice"))
	}
	if f.Count("bob") != 1 {
		t.Errorf("Count(bob) = %d, want 1", f.Count("bob"))
	}
	if f.Latest("alice") != d2 {
		t.Error("Latest should return the newest generation")
	}
	if f.Latest("alice") == d1 {
		t.Error("Latest should not return a superseded generation")
	}
	if f.Latest("carol") != nil {
		t.Error("Latest for unknown session should be nil")
	}
}
