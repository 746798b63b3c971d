// Package uiipc is the local control-plane PulseEngine exposes to the
// overlay/tray/hotkey process: a newline-delimited JSON protocol over a
// Windows named pipe. Only the protocol and server side are implemented
// here — the overlay client itself lives outside this module.
package uiipc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/pulsewatch/agent/internal/logging"
	"github.com/pulsewatch/agent/internal/pulse"
)

var log = logging.L("uiipc")

// ErrNotSupported is returned by newPlatformListener on platforms with no
// named-pipe transport wired up.
var ErrNotSupported = errors.New("uiipc: not supported on this platform")

// Outbound message types, engine -> overlay.
const (
	TypeSuggestionReady     = "suggestion_ready"
	TypeSuggestionDismissed = "suggestion_dismissed"
	TypeExecutionError      = "execution_error"
)

// Inbound command types, overlay -> engine.
const (
	CommandApprove = "approve"
	CommandDismiss = "dismiss"
)

// OutboundEnvelope is one engine -> overlay message.
type OutboundEnvelope struct {
	Type       string            `json:"type"`
	Suggestion *pulse.Suggestion `json:"suggestion,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// InboundEnvelope is one overlay -> engine message.
type InboundEnvelope struct {
	Type string `json:"type"`
}

// EngineControl is the subset of pulse.Engine the server depends on.
type EngineControl interface {
	Events() <-chan pulse.Event
	Approve(ctx context.Context)
	Dismiss()
}

// Server relays engine events to a single connected overlay client and
// forwards its approve/dismiss commands back to the engine. A new
// connection replaces whatever client was previously attached.
type Server struct {
	pipeName string
	engine   EngineControl

	mu       sync.Mutex
	listener net.Listener
	conn     net.Conn
}

// New creates a Server bound to pipeName (e.g. `\\.\pipe\pulsewatch-ui`).
func New(pipeName string, engine EngineControl) *Server {
	return &Server{pipeName: pipeName, engine: engine}
}

// SendCommand dials pipeName and sends a single InboundEnvelope, for
// command-line tools that drive the engine without the overlay client.
func SendCommand(pipeName, command string) error {
	conn, err := newPlatformDialer(pipeName)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(InboundEnvelope{Type: command})
}

// Serve accepts connections and pumps engine events until ctx is
// cancelled or the listener errors.
func (s *Server) Serve(ctx context.Context) error {
	l, err := newPlatformListener(s.pipeName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	go s.pump(ctx)
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Warn("pipe accept error", "error", err)
				return err
			}
		}
		s.setConn(conn)
		go s.readLoop(conn)
	}
}

// Close stops accepting connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) setConn(conn net.Conn) {
	s.mu.Lock()
	old := s.conn
	s.conn = conn
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	log.Info("overlay connected")
}

func (s *Server) pump(ctx context.Context) {
	for {
		select {
		case ev, ok := <-s.engine.Events():
			if !ok {
				return
			}
			s.send(toOutbound(ev))
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) send(env OutboundEnvelope) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		log.Warn("dropping event, no overlay connected", "type", env.Type)
		return
	}
	if err := json.NewEncoder(conn).Encode(env); err != nil {
		log.Warn("failed to send event to overlay", "error", err)
	}
}

func (s *Server) readLoop(conn net.Conn) {
	dec := json.NewDecoder(conn)
	for {
		var env InboundEnvelope
		if err := dec.Decode(&env); err != nil {
			log.Info("overlay disconnected")
			return
		}
		switch env.Type {
		case CommandApprove:
			s.engine.Approve(context.Background())
		case CommandDismiss:
			s.engine.Dismiss()
		default:
			log.Warn("unknown inbound command", "type", env.Type)
		}
	}
}

func toOutbound(ev pulse.Event) OutboundEnvelope {
	switch ev.Kind {
	case pulse.SuggestionReady:
		s := ev.Suggestion
		return OutboundEnvelope{Type: TypeSuggestionReady, Suggestion: &s}
	case pulse.SuggestionDismissed:
		return OutboundEnvelope{Type: TypeSuggestionDismissed}
	case pulse.ExecutionError:
		return OutboundEnvelope{Type: TypeExecutionError, Message: ev.Message}
	default:
		return OutboundEnvelope{Type: "unknown"}
	}
}
