package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"spendwise/internal/auth"
	"spendwise/internal/docstore"
	"spendwise/internal/log"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

// Snapshot is one message of a live stream: the full current contents of
// an owner's collection.
type Snapshot struct {
	Collection string    `json:"collection"`
	Items      any       `json:"items"`
	At         time.Time `json:"at"`
}

type watchFunc func(ctx context.Context, owner string) (<-chan any, error)

func watchCollection[T any, P docstore.Record[T]](c *docstore.Collection[T, P]) watchFunc {
	return func(ctx context.Context, owner string) (<-chan any, error) {
		items, err := c.Watch(ctx, owner)
		if err != nil {
			return nil, err
		}
		out := make(chan any)
		go func() {
			defer close(out)
			for v := range items {
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
}

func (s *Server) watcher(collection string) (watchFunc, error) {
	if s.store == nil {
		return nil, fmt.Errorf("live queries: no store configured")
	}
	switch collection {
	case docstore.Transactions:
		return watchCollection(s.store.Transactions), nil
	case docstore.Planned:
		return watchCollection(s.store.Planned), nil
	case docstore.Budgets:
		return watchCollection(s.store.Budgets), nil
	case docstore.Subscriptions:
		return watchCollection(s.store.Subscriptions), nil
	case docstore.Assets:
		return watchCollection(s.store.Assets), nil
	case docstore.Settings:
		return watchCollection(s.store.Settings), nil
	}
	return nil, fmt.Errorf("%w: %s", docstore.ErrUnknownCollection, collection)
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts same-host origins and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.ContainsFunc(s.origins, func(o string) bool {
		return o == "*" || strings.EqualFold(strings.TrimRight(o, "/"), origin)
	}) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// handleLive streams snapshots of one collection over a websocket until
// the client goes away.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	collection := pathVar(r, "collection")
	watch, err := s.watcher(collection)
	if err != nil {
		writeError(w, r, err)
		return
	}
	owner := auth.OwnerFrom(r.Context())
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentLive).With(log.FieldCollection, collection)

	// The stream outlives the request context once the connection is
	// hijacked; its lifetime is bound to the socket instead.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	snapshots, err := watch(ctx, owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		logger.WarnContext(ctx, "Websocket upgrade failed", log.FieldError, err)
		return
	}
	defer conn.Close()

	s.metrics.liveConns.Add(1)
	defer s.metrics.liveConns.Add(-1)
	logger.InfoContext(ctx, "Live stream opened", log.FieldOperation, log.OpWatch)

	go readUntilClosed(conn, cancel)

	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(liveWriteWait))
			return
		case items, ok := <-snapshots:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			msg := Snapshot{Collection: collection, Items: items, At: time.Now().UTC()}
			if err := conn.WriteJSON(msg); err != nil {
				logger.DebugContext(ctx, "Live stream write failed", log.FieldError, err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and cancels the stream when the peer leaves or goes quiet.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
