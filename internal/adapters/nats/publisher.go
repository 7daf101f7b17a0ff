package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/pawmatch/internal/core/domain"
)

const (
	// StreamName is the JetStream stream holding every domain event.
	StreamName = "PAWMATCH_EVENTS"

	favoritesPrefix = "pawmatch.favorites."
	matchPrefix     = "pawmatch.match."
)

// FavoritesSubject is the subject favorite toggles of owner go to.
func FavoritesSubject(owner string) string {
	return favoritesPrefix + domain.OwnerKey(owner)
}

// MatchSubject is the subject matches made for owner go to.
func MatchSubject(owner string) string {
	return matchPrefix + domain.OwnerKey(owner)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, js, err := connect(url)
	if err != nil {
		return nil, err
	}

	cfg := nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"pawmatch.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist; try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishFavoriteToggled(ctx context.Context, event *domain.FavoriteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(FavoritesSubject(event.Owner), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishMatch(ctx context.Context, match *domain.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(MatchSubject(match.Owner), data, nats.Context(ctx))
	return err
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping() error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// requestTimeout bounds JetStream API calls such as stream setup.
var requestTimeout = 5 * time.Second

// connect opens a connection with a JetStream context. The connection is
// closed if JetStream cannot be set up.
func connect(url string) (*nats.Conn, nats.JetStreamContext, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream(nats.MaxWait(requestTimeout))
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	return conn, js, nil
}

// RawConn creates a plain NATS connection with reconnects enabled.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("pawmatch"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
