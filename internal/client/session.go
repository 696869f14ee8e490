// Package client implements the node-side session against the arbiter:
// the registration handshake, the continuous ping exchange, and the
// subscriber for network-state broadcasts.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/luxfi/zmq/v4"

	"github.com/twaters/radiant/internal/domain"
	"github.com/twaters/radiant/internal/wire"
)

const (
	defaultAcceptTimeout = 2000 * time.Millisecond
	defaultPingInterval  = 1000 * time.Millisecond
	defaultPongTimeout   = 1000 * time.Millisecond
)

// Session is one node's client-side state machine. Construct with New,
// declare capabilities with AddMessage, then Connect. The driver runs
// until the session is closed or its context cancelled.
type Session struct {
	identity string
	caps     domain.Capabilities
	log      *slog.Logger

	acceptTimeout time.Duration
	pingInterval  time.Duration
	pongTimeout   time.Duration

	dealer zmq4.Socket
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subMu sync.Mutex
	subs  []zmq4.Socket
}

// New constructs a session with empty capability lists. An empty identity
// gets a generated one.
func New(identity string) *Session {
	if identity == "" {
		identity = "node-" + uuid.NewString()
	}
	return &Session{
		identity:      identity,
		log:           slog.With("component", "client", "node", identity),
		acceptTimeout: defaultAcceptTimeout,
		pingInterval:  defaultPingInterval,
		pongTimeout:   defaultPongTimeout,
	}
}

// Identity returns the session's node name.
func (s *Session) Identity() string { return s.identity }

// AddMessage declares a capability. Call before Connect.
func (s *Session) AddMessage(kind domain.CapabilityKind, name string) {
	s.caps.Add(kind, name)
}

// Connect opens a dealer endpoint bound to the session's identity and
// spawns the driver.
func (s *Session) Connect(ctx context.Context, endpoint string) error {
	if s.dealer != nil {
		return fmt.Errorf("session %s: already connected", s.identity)
	}
	ctx, cancel := context.WithCancel(ctx)

	dealer := zmq4.NewDealer(ctx, zmq4.WithID(zmq4.SocketIdentity(s.identity)))
	if err := dealer.Dial(endpoint); err != nil {
		cancel()
		return fmt.Errorf("connect %s: %w", endpoint, err)
	}
	s.dealer = dealer
	s.cancel = cancel

	in := make(chan domain.Message)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer close(in)
		for {
			raw, err := dealer.Recv()
			if err != nil {
				return
			}
			select {
			case in <- wire.Decode(wire.RoleDealer, raw):
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		defer s.wg.Done()
		s.drive(ctx, in, func(m domain.Message) error {
			return dealer.Send(wire.Encode(wire.RoleDealer, m))
		})
	}()

	s.log.Info("session connected", "endpoint", endpoint)
	return nil
}

// Close cancels the driver and releases the dealer endpoint.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	var err error
	if s.dealer != nil {
		err = s.dealer.Close()
	}
	s.subMu.Lock()
	for _, sub := range s.subs {
		sub.Close()
	}
	s.subs = nil
	s.subMu.Unlock()
	s.wg.Wait()
	return err
}

// ─── Driver State Machine ───────────────────────────────────────────────────

//	[INIT] --send Register--> [AWAIT_ACCEPT]
//	[AWAIT_ACCEPT] --AcceptConnection within 2s--> [READY]
//	[AWAIT_ACCEPT] --timeout or other kind--> resend Register + StateRequest
//	[READY] --Ping each second; a missed Pong is logged, nothing more--

func (s *Session) drive(ctx context.Context, in <-chan domain.Message, send func(domain.Message) error) {
	if !s.register(ctx, in, send) {
		return
	}
	s.pingLoop(ctx, in, send)
}

// register performs the registration handshake, retrying indefinitely
// until an AcceptConnection arrives or ctx ends.
func (s *Session) register(ctx context.Context, in <-chan domain.Message, send func(domain.Message) error) bool {
	reg := domain.Message{
		Kind: domain.KindRegister,
		Data: wire.PackCapabilities(s.caps),
	}
	s.sendOrLog(send, reg)
	for !s.await(ctx, in, domain.KindAcceptConnection, s.acceptTimeout) {
		if ctx.Err() != nil {
			return false
		}
		s.log.Warn("registration not acknowledged, retrying")
		s.sendOrLog(send, reg)
		s.sendOrLog(send, domain.NewMessage("", domain.KindStateRequest))
	}
	s.log.Info("registered")
	return true
}

// pingLoop probes the arbiter once a second. A missed pong is logged and
// the loop continues; reconnection is deliberately not attempted.
func (s *Session) pingLoop(ctx context.Context, in <-chan domain.Message, send func(domain.Message) error) {
	for ctx.Err() == nil {
		s.sendOrLog(send, domain.NewMessage("", domain.KindPing))
		if s.await(ctx, in, domain.KindPong, s.pongTimeout) {
			s.log.Debug("pong")
			if !sleep(ctx, s.pingInterval) {
				return
			}
		} else {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("missed pong")
		}
	}
}

// await consumes at most one message within timeout. A message of any
// other kind is dropped and counts as a miss.
func (s *Session) await(ctx context.Context, in <-chan domain.Message, kind domain.MessageKind, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m, ok := <-in:
		if !ok {
			return false
		}
		if m.Kind == kind {
			return true
		}
		s.log.Debug("dropping message", "kind", m.Kind.String(), "want", kind.String())
		return false
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Session) sendOrLog(send func(domain.Message) error, m domain.Message) {
	if err := send(m); err != nil {
		s.log.Warn("send failed", "kind", m.Kind.String(), "err", err)
	}
}

// sleep waits d or until ctx ends; reports whether the full interval
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
