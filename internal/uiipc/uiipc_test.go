package uiipc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/pulsewatch/agent/internal/pulse"
)

type fakeEngine struct {
	events   chan pulse.Event
	approved int
	dismissed int
}

func (f *fakeEngine) Events() <-chan pulse.Event { return f.events }
func (f *fakeEngine) Approve(ctx context.Context) { f.approved++ }
func (f *fakeEngine) Dismiss()                    { f.dismissed++ }

func TestToOutboundMapsEventKinds(t *testing.T) {
	s := pulse.NewSuggestion("click save", 0.9, nil)

	cases := []struct {
		ev   pulse.Event
		want string
	}{
		{pulse.Event{Kind: pulse.SuggestionReady, Suggestion: s}, TypeSuggestionReady},
		{pulse.Event{Kind: pulse.SuggestionDismissed}, TypeSuggestionDismissed},
		{pulse.Event{Kind: pulse.ExecutionError, Message: "boom"}, TypeExecutionError},
	}
	for _, c := range cases {
		got := toOutbound(c.ev)
		if got.Type != c.want {
			t.Fatalf("toOutbound(%v).Type = %q, want %q", c.ev.Kind, got.Type, c.want)
		}
	}
}

func TestSendWritesJSONToConnectedClient(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	s := &Server{conn: server}
	go s.send(OutboundEnvelope{Type: TypeSuggestionReady})

	dec := json.NewDecoder(client)
	var env OutboundEnvelope
	if err := dec.Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != TypeSuggestionReady {
		t.Fatalf("type = %q, want %q", env.Type, TypeSuggestionReady)
	}
}

func TestSendWithNoClientDoesNotBlock(t *testing.T) {
	s := &Server{}
	done := make(chan struct{})
	go func() {
		s.send(OutboundEnvelope{Type: TypeSuggestionReady})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send blocked with no connected client")
	}
}

func TestReadLoopDispatchesApproveAndDismiss(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	eng := &fakeEngine{events: make(chan pulse.Event, 1)}
	s := &Server{engine: eng}

	go s.readLoop(server)

	enc := json.NewEncoder(client)
	if err := enc.Encode(InboundEnvelope{Type: CommandApprove}); err != nil {
		t.Fatalf("encode approve: %v", err)
	}
	if err := enc.Encode(InboundEnvelope{Type: CommandDismiss}); err != nil {
		t.Fatalf("encode dismiss: %v", err)
	}
	client.Close()

	deadline := time.After(time.Second)
	for eng.approved == 0 || eng.dismissed == 0 {
		select {
		case <-deadline:
			t.Fatalf("expected approve+dismiss to be dispatched, got approved=%d dismissed=%d", eng.approved, eng.dismissed)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPumpStopsOnContextCancel(t *testing.T) {
	eng := &fakeEngine{events: make(chan pulse.Event)}
	s := &Server{engine: eng}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.pump(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit after context cancellation")
	}
}
