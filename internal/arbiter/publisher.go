package arbiter

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/luxfi/zmq/v4"

	"github.com/twaters/radiant/internal/domain"
)

// sender is the send half of a socket. Small on purpose so tests can fake
// an endpoint.
type sender interface {
	Send(zmq4.Msg) error
}

// statePublisher owns the broadcast endpoint. Every publish increments the
// snapshot version and emits one message encoding current membership in
// admission order plus the new version.
type statePublisher struct {
	snd     sender
	log     *slog.Logger
	version atomic.Uint64
}

func newStatePublisher(snd sender, log *slog.Logger) *statePublisher {
	return &statePublisher{snd: snd, log: log}
}

// Version returns the version of the last published snapshot.
func (p *statePublisher) Version() uint64 {
	return p.version.Load()
}

// publish broadcasts a snapshot of nodes. The send is fire-and-forget: a
// transport failure is logged and the version still advances, keeping
// versions strictly increasing.
func (p *statePublisher) publish(nodes []string) domain.StateSnapshot {
	snap := domain.StateSnapshot{
		Version: p.version.Add(1),
		Nodes:   make([]string, len(nodes)),
	}
	copy(snap.Nodes, nodes)

	payload, err := json.Marshal(snap)
	if err != nil {
		p.log.Error("snapshot encode failed", "version", snap.Version, "err", err)
		return snap
	}
	if err := p.snd.Send(zmq4.NewMsg(payload)); err != nil {
		p.log.Warn("state publish failed", "version", snap.Version, "err", err)
	} else {
		p.log.Debug("published state", "version", snap.Version, "nodes", len(snap.Nodes))
	}
	snapshotsPublished.Inc()
	return snap
}
