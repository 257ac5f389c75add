package docstore

import (
	"context"
	"encoding/json"
	"fmt"
)

// Record is implemented by pointers to stored types. The store assigns
// id and owner after decoding so the stored JSON is never trusted for
// either.
type Record[T any] interface {
	*T
	Identify(id, owner string)
}

// Collection is a typed view over one collection of a Backend.
type Collection[T any, P Record[T]] struct {
	backend Backend
	name    string
}

// NewCollection binds a record type to a collection name.
func NewCollection[T any, P Record[T]](b Backend, name string) *Collection[T, P] {
	return &Collection[T, P]{backend: b, name: name}
}

func (c *Collection[T, P]) Name() string { return c.name }

// List returns every record of owner.
func (c *Collection[T, P]) List(ctx context.Context, owner string) ([]T, error) {
	if owner == "" {
		return nil, ErrMissingOwner
	}
	docs, err := c.backend.Query(ctx, c.name, owner)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	return c.decodeAll(docs)
}

func (c *Collection[T, P]) Get(ctx context.Context, owner, id string) (T, error) {
	var zero T
	if err := CheckKey(owner, id); err != nil {
		return zero, err
	}
	doc, err := c.backend.Get(ctx, c.name, owner, id)
	if err != nil {
		return zero, fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	return c.decode(doc)
}

// Add stores v under a new id and returns it identified.
func (c *Collection[T, P]) Add(ctx context.Context, owner string, v T) (T, error) {
	if owner == "" {
		return v, ErrMissingOwner
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("encode %s: %w", c.name, err)
	}
	id, err := c.backend.Add(ctx, c.name, owner, data)
	if err != nil {
		return v, fmt.Errorf("add %s: %w", c.name, err)
	}
	P(&v).Identify(id, owner)
	return v, nil
}

// Set creates or replaces the record with the given id.
func (c *Collection[T, P]) Set(ctx context.Context, owner, id string, v T) (T, error) {
	if err := CheckKey(owner, id); err != nil {
		return v, err
	}
	P(&v).Identify(id, owner)
	data, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("encode %s: %w", c.name, err)
	}
	if err := c.backend.Set(ctx, c.name, owner, id, data); err != nil {
		return v, fmt.Errorf("set %s/%s: %w", c.name, id, err)
	}
	return v, nil
}

// Update merges fields, keyed by their JSON names, into the record.
func (c *Collection[T, P]) Update(ctx context.Context, owner, id string, fields map[string]any) error {
	if err := CheckKey(owner, id); err != nil {
		return err
	}
	if err := c.backend.Update(ctx, c.name, owner, id, fields); err != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	return nil
}

func (c *Collection[T, P]) Delete(ctx context.Context, owner, id string) error {
	if err := CheckKey(owner, id); err != nil {
		return err
	}
	if err := c.backend.Delete(ctx, c.name, owner, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	return nil
}

// Scan returns the records of every owner.
func (c *Collection[T, P]) Scan(ctx context.Context) ([]T, error) {
	docs, err := c.backend.Scan(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c.name, err)
	}
	return c.decodeAll(docs)
}

// Watch streams decoded snapshots of owner's records. It fails when the
// backend has no live queries.
func (c *Collection[T, P]) Watch(ctx context.Context, owner string) (<-chan []T, error) {
	w, ok := c.backend.(Watcher)
	if !ok {
		return nil, fmt.Errorf("watch %s: backend has no live queries", c.name)
	}
	if owner == "" {
		return nil, ErrMissingOwner
	}
	docs, err := w.Watch(ctx, c.name, owner)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", c.name, err)
	}
	out := make(chan []T)
	go func() {
		defer close(out)
		for snapshot := range docs {
			items, err := c.decodeAll(snapshot)
			if err != nil {
				continue
			}
			select {
			case out <- items:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Collection[T, P]) decode(doc Document) (T, error) {
	var v T
	if err := json.Unmarshal(doc.Data, &v); err != nil {
		return v, fmt.Errorf("decode %s/%s: %w", c.name, doc.ID, err)
	}
	P(&v).Identify(doc.ID, doc.Owner)
	return v, nil
}

func (c *Collection[T, P]) decodeAll(docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := c.decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
