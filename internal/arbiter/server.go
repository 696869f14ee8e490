// Package arbiter implements the central registry and liveness
// coordinator. One Server process sits at the middle of a star of node
// clients: it admits nodes on Register, exchanges Ping/Pong with them,
// evicts the ones that go quiet, and broadcasts a versioned membership
// snapshot on every change.
//
// The main loop is the sole mutator of membership. Supervisors talk to it
// only through their dedicated pair endpoint; every owned socket feeds a
// single fan-in channel the loop selects on, so readiness over all
// endpoints is one wait.
package arbiter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/luxfi/zmq/v4"

	"github.com/twaters/radiant/internal/domain"
	"github.com/twaters/radiant/internal/wire"
)

// ─── Configuration ──────────────────────────────────────────────────────────

// Config holds the arbiter's bind points and timing.
type Config struct {
	NodeBind     string        // router endpoint for node requests
	StateBind    string        // publisher endpoint for state broadcasts
	Identity     string        // arbiter's transport identity
	PingDeadline time.Duration // supervisor inactivity timeout
}

// DefaultConfig returns the stock arbiter configuration.
func DefaultConfig() Config {
	return Config{
		NodeBind:     "tcp://*:5555",
		StateBind:    "tcp://*:5556",
		Identity:     "ARBITER",
		PingDeadline: 5 * time.Second,
	}
}

// ─── Server ─────────────────────────────────────────────────────────────────

// inbound is one decoded message tagged with the endpoint it arrived on:
// the arbiter's own identity for the router, the node's identity for a
// supervisor pair.
type inbound struct {
	from string
	msg  domain.Message
}

// pairEndpoint is the main loop's half of a supervisor channel.
type pairEndpoint interface {
	sender
	Close() error
}

// nodeRecord is one admitted node, owned by the main loop.
type nodeRecord struct {
	identity   string
	caps       domain.Capabilities
	pair       pairEndpoint
	admittedAt time.Time
	lastSeen   time.Time
}

// Server is the arbiter process core.
type Server struct {
	cfg Config
	log *slog.Logger

	router sender
	pub    *statePublisher

	members map[string]*nodeRecord
	order   []string // admission order

	inbox chan inbound
	wg    sync.WaitGroup

	// spawn and bindPair are swappable so membership transitions can be
	// exercised without a live transport.
	spawn    func(ctx context.Context, identity, binding string) error
	bindPair func(ctx context.Context, binding string) (pairEndpoint, error)

	mu   sync.RWMutex
	view []domain.NodeStatus
}

// New creates an arbiter server. Endpoints are acquired in Run.
func New(cfg Config, log *slog.Logger) *Server {
	if cfg.Identity == "" {
		cfg.Identity = "ARBITER"
	}
	if cfg.PingDeadline <= 0 {
		cfg.PingDeadline = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     log.With("component", "arbiter"),
		members: make(map[string]*nodeRecord),
		inbox:   make(chan inbound, 128),
		pub:     newStatePublisher(nopSender{}, log),
	}
	s.spawn = func(ctx context.Context, identity, binding string) error {
		return spawnSupervisor(ctx, identity, binding, s.cfg.PingDeadline, &s.wg, s.log)
	}
	s.bindPair = func(ctx context.Context, binding string) (pairEndpoint, error) {
		sock := zmq4.NewPair(ctx)
		if err := sock.Listen(binding); err != nil {
			sock.Close()
			return nil, err
		}
		s.wg.Add(1)
		go s.pump(ctx, strings.TrimPrefix(binding, "inproc://"), wire.RolePair, sock)
		return sock, nil
	}
	return s
}

// nopSender backs the publisher until Run attaches the real endpoint.
type nopSender struct{}

func (nopSender) Send(zmq4.Msg) error { return nil }

// Run binds the endpoints and drives the main loop until ctx is
// cancelled. All supervisors and pumps have exited by the time it returns.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	router := zmq4.NewRouter(ctx, zmq4.WithID(zmq4.SocketIdentity(s.cfg.Identity)))
	if err := router.Listen(listenAddr(s.cfg.NodeBind)); err != nil {
		return fmt.Errorf("bind node endpoint %s: %w", s.cfg.NodeBind, err)
	}
	defer router.Close()
	s.router = router

	pubSock := zmq4.NewPub(ctx)
	if err := pubSock.Listen(listenAddr(s.cfg.StateBind)); err != nil {
		return fmt.Errorf("bind state endpoint %s: %w", s.cfg.StateBind, err)
	}
	defer pubSock.Close()
	s.pub.snd = pubSock

	s.wg.Add(1)
	go s.pump(ctx, s.cfg.Identity, wire.RoleRouter, router)

	s.log.Info("arbiter up",
		"identity", s.cfg.Identity,
		"node_bind", s.cfg.NodeBind,
		"state_bind", s.cfg.StateBind)

	for {
		select {
		case <-ctx.Done():
			cancel()
			s.closePairs()
			router.Close()
			pubSock.Close()
			s.wg.Wait()
			s.log.Info("arbiter down")
			return nil
		case in := <-s.inbox:
			s.dispatch(ctx, in)
		}
	}
}

// pump reads one endpoint forever, decoding each message for its role and
// feeding the shared inbox. FIFO per endpoint; the loop never blocks on
// the socket itself.
func (s *Server) pump(ctx context.Context, from string, role wire.Role, sock zmq4.Socket) {
	defer s.wg.Done()
	for {
		raw, err := sock.Recv()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Debug("endpoint closed", "endpoint", from, "err", err)
			}
			return
		}
		select {
		case s.inbox <- inbound{from: from, msg: wire.Decode(role, raw)}:
		case <-ctx.Done():
			return
		}
	}
}

// ─── Transition Rules ───────────────────────────────────────────────────────

func (s *Server) dispatch(ctx context.Context, in inbound) {
	switch in.msg.Kind {
	case domain.KindRegister:
		s.handleRegister(ctx, in.msg)
	case domain.KindDeregister:
		s.handleDeregister(in)
	case domain.KindPing:
		s.handlePing(in.msg)
	case domain.KindStateRequest:
		s.publish()
	default:
		droppedMessages.Inc()
		s.log.Warn("dropping message", "kind", in.msg.Kind.String(), "from", in.from)
	}
}

func (s *Server) handleRegister(ctx context.Context, m domain.Message) {
	id := m.Identity
	if id == "" {
		droppedMessages.Inc()
		s.log.Warn("register with empty identity")
		return
	}
	if _, ok := s.members[id]; ok {
		// Duplicate: keep the prior record, emit nothing.
		s.log.Warn("duplicate register", "node", id)
		return
	}

	binding := "inproc://" + id
	pair, err := s.bindPair(ctx, binding)
	if err != nil {
		droppedMessages.Inc()
		s.log.Error("bind supervisor channel failed", "node", id, "err", err)
		return
	}
	if err := s.spawn(ctx, id, binding); err != nil {
		pair.Close()
		s.log.Error("spawn supervisor failed", "node", id, "err", err)
		return
	}

	now := time.Now()
	s.members[id] = &nodeRecord{
		identity:   id,
		caps:       wire.SplitCapabilities(m.Data),
		pair:       pair,
		admittedAt: now,
		lastSeen:   now,
	}
	s.order = append(s.order, id)

	s.send(domain.NewMessage(id, domain.KindAcceptConnection))

	registrations.Inc()
	fleetSize.Set(float64(len(s.members)))
	s.log.Info("node registered", "node", id,
		"commands", len(s.members[id].caps.Commands),
		"data", len(s.members[id].caps.Data))
	s.publish()
}

func (s *Server) handleDeregister(in inbound) {
	// Supervisors carry the identity in the first data frame; a
	// client-initiated deregister is identified by its router envelope.
	id := in.msg.Identity
	if in.from != s.cfg.Identity && len(in.msg.Data) > 0 {
		id = string(in.msg.Data[0])
	}

	rec, ok := s.members[id]
	if !ok {
		droppedMessages.Inc()
		s.log.Warn("deregister for unknown node", "node", id)
		return
	}

	delete(s.members, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	rec.pair.Close()

	reason := reasonTimeout
	if in.from == s.cfg.Identity {
		reason = reasonClient
	}
	deregistrations.WithLabelValues(reason).Inc()
	fleetSize.Set(float64(len(s.members)))
	s.log.Info("node removed", "node", id, "reason", reason)
	s.publish()
}

func (s *Server) handlePing(m domain.Message) {
	rec, ok := s.members[m.Identity]
	if !ok {
		droppedMessages.Inc()
		s.log.Warn("ping from unknown node", "node", m.Identity)
		return
	}
	rec.lastSeen = time.Now()
	pingsReceived.Inc()

	// Feed the watchdog; the supervisor never sees pongs.
	if err := rec.pair.Send(wire.Encode(wire.RolePair, domain.NewMessage("", domain.KindPing))); err != nil {
		s.log.Warn("ping forward failed", "node", m.Identity, "err", err)
	}

	s.send(domain.NewMessage(m.Identity, domain.KindPong))
	pongsSent.Inc()
	s.refreshView()
}

// send emits one message on the router. Failures stay local: they are
// logged, never surfaced across endpoints.
func (s *Server) send(m domain.Message) {
	if err := s.router.Send(wire.Encode(wire.RoleRouter, m)); err != nil {
		s.log.Warn("router send failed", "to", m.Identity, "kind", m.Kind.String(), "err", err)
	}
}

func (s *Server) publish() {
	s.pub.publish(s.order)
	s.refreshView()
}

func (s *Server) closePairs() {
	for _, rec := range s.members {
		rec.pair.Close()
	}
}

// ─── Read-only Fleet View ───────────────────────────────────────────────────
// The HTTP surface reads membership through a snapshot the main loop
// refreshes, keeping the loop the sole mutator.

func (s *Server) refreshView() {
	nodes := make([]domain.NodeStatus, 0, len(s.order))
	for _, id := range s.order {
		rec := s.members[id]
		nodes = append(nodes, domain.NodeStatus{
			Identity:     rec.identity,
			Capabilities: rec.caps,
			AdmittedAt:   rec.admittedAt,
			LastSeen:     rec.lastSeen,
		})
	}
	s.mu.Lock()
	s.view = nodes
	s.mu.Unlock()
}

// Nodes returns the admitted fleet in admission order.
func (s *Server) Nodes() []domain.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NodeStatus, len(s.view))
	copy(out, s.view)
	return out
}

// StateVersion returns the version of the last published snapshot.
func (s *Server) StateVersion() uint64 {
	return s.pub.Version()
}

// listenAddr rewrites the conventional wildcard bind form for the
// transport, which wants an explicit host.
func listenAddr(addr string) string {
	return strings.Replace(addr, "//*", "//0.0.0.0", 1)
}
