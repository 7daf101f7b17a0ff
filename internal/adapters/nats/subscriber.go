package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext

	mu   sync.Mutex
	subs map[*nats.Subscription]struct{}
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, js: js, subs: make(map[*nats.Subscription]struct{})}, nil
}

// SubscribeMatches delivers matches made for owner from now on. Each call
// creates an ephemeral consumer; the returned func removes it.
func (s *Subscriber) SubscribeMatches(ctx context.Context, owner string, handler func(ctx context.Context, match *domain.Match) error) (func(), error) {
	owner = domain.NormalizeOwner(owner)
	sub, err := s.js.Subscribe(MatchSubject(owner), func(msg *nats.Msg) {
		var m domain.Match
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			slog.Warn("dropping malformed match event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		m.Owner = owner
		if err := handler(ctx, &m); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe matches: %w", err)
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
			_ = sub.Unsubscribe()
		})
	}, nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	s.mu.Lock()
	for sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = make(map[*nats.Subscription]struct{})
	s.mu.Unlock()
	_ = s.conn.Drain()
}
