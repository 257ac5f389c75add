package docstore

import (
	"context"
	"log/slog"
	"sync"
)

type topic struct {
	collection string
	owner      string
}

// Hub fans out snapshots to the watchers of a collection and owner.
// Each watcher has a buffer of one snapshot; a slow watcher only ever
// sees the latest one.
type Hub struct {
	mu   sync.Mutex
	subs map[topic]map[chan []Document]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[topic]map[chan []Document]struct{})}
}

// Subscribe registers a watcher. The returned cancel func unregisters it
// and closes the channel.
func (h *Hub) Subscribe(collection, owner string) (<-chan []Document, func()) {
	ch := make(chan []Document, 1)
	key := topic{collection, owner}

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan []Document]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[key], ch)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Watching reports whether anyone watches collection for owner.
func (h *Hub) Watching(collection, owner string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic{collection, owner}]) > 0
}

// Publish delivers snapshot to every watcher, replacing any snapshot
// they have not consumed yet.
func (h *Hub) Publish(collection, owner string, snapshot []Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[topic{collection, owner}] {
		offer(ch, snapshot)
	}
}

func offer(ch chan []Document, snapshot []Document) {
	for {
		select {
		case ch <- snapshot:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// live adds hub-based watching to a backend without native live queries.
type live struct {
	Backend
	hub *Hub
}

// Live returns b as a Store. Backends that already implement Watcher are
// returned as they are; others publish a fresh snapshot to the hub after
// every successful write.
func Live(b Backend) Store {
	if s, ok := b.(Store); ok {
		return s
	}
	return &live{Backend: b, hub: NewHub()}
}

func (l *live) Watch(ctx context.Context, collection, owner string) (<-chan []Document, error) {
	if owner == "" {
		return nil, ErrMissingOwner
	}
	updates, cancel := l.hub.Subscribe(collection, owner)
	first, err := l.Backend.Query(ctx, collection, owner)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []Document, 1)
	out <- first
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot := <-updates:
				select {
				case <-out:
				default:
				}
				out <- snapshot
			}
		}
	}()
	return out, nil
}

func (l *live) notify(ctx context.Context, collection, owner string) {
	if !l.hub.Watching(collection, owner) {
		return
	}
	snapshot, err := l.Backend.Query(context.WithoutCancel(ctx), collection, owner)
	if err != nil {
		slog.WarnContext(ctx, "live snapshot failed", "collection", collection, "error", err)
		return
	}
	l.hub.Publish(collection, owner, snapshot)
}

func (l *live) Add(ctx context.Context, collection, owner string, data []byte) (string, error) {
	id, err := l.Backend.Add(ctx, collection, owner, data)
	if err == nil {
		l.notify(ctx, collection, owner)
	}
	return id, err
}

func (l *live) Set(ctx context.Context, collection, owner, id string, data []byte) error {
	err := l.Backend.Set(ctx, collection, owner, id, data)
	if err == nil {
		l.notify(ctx, collection, owner)
	}
	return err
}

func (l *live) Update(ctx context.Context, collection, owner, id string, fields map[string]any) error {
	err := l.Backend.Update(ctx, collection, owner, id, fields)
	if err == nil {
		l.notify(ctx, collection, owner)
	}
	return err
}

func (l *live) Delete(ctx context.Context, collection, owner, id string) error {
	err := l.Backend.Delete(ctx, collection, owner, id)
	if err == nil {
		l.notify(ctx, collection, owner)
	}
	return err
}
