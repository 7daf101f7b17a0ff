package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/pawmatch/internal/auth"
	"github.com/samirrijal/pawmatch/internal/core/domain"
	"github.com/samirrijal/pawmatch/internal/pkg/metrics"
)

// wsMessage is sent by the client.
type wsMessage struct {
	Action string `json:"action"` // "toggle" | "ping"
	ID     string `json:"id"`     // dog ID for "toggle"
}

// wsEvent is pushed to the client.
type wsEvent struct {
	Type  string        `json:"type"` // "favorites" | "match" | "pong" | "error"
	IDs   []string      `json:"ids,omitempty"`
	Match *domain.Match `json:"match,omitempty"`
	Error string        `json:"error,omitempty"`
}

// WebSocketHandler streams the caller's favorites and match announcements.
// The current favorites are sent on connect and again after every change,
// from any connection or the REST API. Clients may toggle favorites with
// {"action":"toggle","id":"..."}.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		p, _ := c.Locals(principalLocal).(*auth.Principal)
		if p == nil {
			return
		}
		owner := p.Owner()
		log := slog.Default().With("owner_key", domain.OwnerKey(owner), "remote", c.RemoteAddr().String())

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		set, err := deps.Favorites.For(owner)
		if err != nil {
			_ = writeJSON(wsEvent{Type: "error", Error: err.Error()})
			return
		}

		// Listeners run inside Toggle, so they only park the latest
		// snapshot and the writer goroutine sends it.
		var (
			pendingMu sync.Mutex
			pending   []string
			wake      = make(chan struct{}, 1)
		)
		unsubscribe := set.Subscribe(func(ids []string) {
			pendingMu.Lock()
			pending = ids
			pendingMu.Unlock()
			select {
			case wake <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		ids, err := set.Get(ctx)
		if err != nil {
			log.Warn("ws favorites load failed", "error", err)
			_ = writeJSON(wsEvent{Type: "error", Error: "favorites unavailable"})
			return
		}
		if err := writeJSON(wsEvent{Type: "favorites", IDs: ids}); err != nil {
			return
		}

		if deps.Events != nil {
			stop, err := deps.Events.SubscribeMatches(ctx, owner, func(_ context.Context, m *domain.Match) error {
				return writeJSON(wsEvent{Type: "match", Match: m})
			})
			if err != nil {
				log.Warn("ws match subscribe failed", "error", err)
			} else {
				defer stop()
			}
		}

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-wake:
					pendingMu.Lock()
					snapshot := pending
					pendingMu.Unlock()
					if err := writeJSON(wsEvent{Type: "favorites", IDs: snapshot}); err != nil {
						return
					}
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(wsEvent{Type: "error", Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "toggle":
				if _, err := set.Toggle(ctx, m.ID); err != nil {
					_ = writeJSON(wsEvent{Type: "error", Error: err.Error()})
				}
			case "ping":
				_ = writeJSON(wsEvent{Type: "pong"})
			default:
				_ = writeJSON(wsEvent{Type: "error", Error: "unknown action: " + m.Action})
			}
		}

		close(done)
		log.Info("ws client disconnected")
	}
}
