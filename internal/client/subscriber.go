package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/luxfi/zmq/v4"

	"github.com/twaters/radiant/internal/domain"
)

// SubscribeState opens a subscriber endpoint for the arbiter's state
// broadcasts and returns a channel of decoded snapshots. Malformed
// broadcasts are dropped. The channel closes when ctx ends or the
// endpoint fails.
func (s *Session) SubscribeState(ctx context.Context, endpoint string) (<-chan domain.StateSnapshot, error) {
	sub := zmq4.NewSub(ctx)
	if err := sub.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if err := sub.Dial(endpoint); err != nil {
		sub.Close()
		return nil, fmt.Errorf("connect state endpoint %s: %w", endpoint, err)
	}

	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	ch := make(chan domain.StateSnapshot, 8)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(ch)
		defer sub.Close()
		for {
			raw, err := sub.Recv()
			if err != nil {
				return
			}
			var snap domain.StateSnapshot
			if err := json.Unmarshal(raw.Bytes(), &snap); err != nil {
				s.log.Debug("dropping malformed snapshot", "err", err)
				continue
			}
			select {
			case ch <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
