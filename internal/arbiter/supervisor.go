package arbiter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/luxfi/zmq/v4"

	"github.com/twaters/radiant/internal/domain"
	"github.com/twaters/radiant/internal/wire"
)

// supervisor is the per-node watchdog. One runs per admitted node, bound
// to the main loop by a pair socket on inproc://<identity>. It consumes
// the Pings the main loop forwards and emits exactly one Deregister —
// carrying the node's identity as its first data frame — before exiting,
// if no Ping arrives within the deadline. It never tracks pongs; ponging
// is the main loop's job.
type supervisor struct {
	identity string
	deadline time.Duration
	sock     zmq4.Socket
	log      *slog.Logger
}

// spawnSupervisor connects a pair socket to binding and starts the
// watchdog goroutine. The main loop must already be listening on binding.
func spawnSupervisor(ctx context.Context, identity, binding string, deadline time.Duration, wg *sync.WaitGroup, log *slog.Logger) error {
	sock := zmq4.NewPair(ctx)
	if err := sock.Dial(binding); err != nil {
		sock.Close()
		return fmt.Errorf("connect supervisor channel %s: %w", binding, err)
	}

	sup := &supervisor{
		identity: identity,
		deadline: deadline,
		sock:     sock,
		log:      log.With("component", "supervisor", "node", identity),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer sock.Close()
		sup.run(ctx)
	}()
	return nil
}

func (s *supervisor) run(ctx context.Context) {
	in := make(chan domain.Message)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(in)
		for {
			raw, err := s.sock.Recv()
			if err != nil {
				return // pair closed by the main loop, or shutdown
			}
			select {
			case in <- wire.Decode(wire.RolePair, raw):
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.watch(ctx, in, func(m domain.Message) error {
		return s.sock.Send(wire.Encode(wire.RolePair, m))
	})
}

// watch is the watchdog core. It returns after emitting the Deregister,
// when in closes, or when ctx is cancelled — whichever comes first.
func (s *supervisor) watch(ctx context.Context, in <-chan domain.Message, send func(domain.Message) error) {
	timer := time.NewTimer(s.deadline)
	defer timer.Stop()

	for {
		select {
		case m, ok := <-in:
			if !ok {
				return
			}
			if m.Kind != domain.KindPing {
				s.log.Debug("ignoring non-ping", "kind", m.Kind.String())
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.deadline)

		case <-timer.C:
			dereg := domain.Message{
				Kind: domain.KindDeregister,
				Data: [][]byte{[]byte(s.identity)},
			}
			if err := send(dereg); err != nil {
				s.log.Warn("deregister send failed", "err", err)
			}
			s.log.Info("node missed ping deadline", "deadline", s.deadline)
			return

		case <-ctx.Done():
			return
		}
	}
}
