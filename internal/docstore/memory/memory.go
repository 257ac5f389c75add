// Package memory is an in-process document backend for development and
// tests. Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"spendwise/internal/docstore"
)

type entry struct {
	doc docstore.Document
	seq uint64
}

type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	seq    uint64
	closed bool
	docs   map[string]map[string]*entry // collection -> id -> entry
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now, docs: make(map[string]map[string]*entry)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Query(_ context.Context, collection, owner string) ([]docstore.Document, error) {
	if owner == "" {
		return nil, docstore.ErrMissingOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, docstore.ErrClosed
	}
	return s.collect(collection, func(d docstore.Document) bool { return d.Owner == owner }), nil
}

func (s *Store) Scan(_ context.Context, collection string) ([]docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, docstore.ErrClosed
	}
	return s.collect(collection, func(docstore.Document) bool { return true }), nil
}

func (s *Store) Get(_ context.Context, collection, owner, id string) (docstore.Document, error) {
	if err := docstore.CheckKey(owner, id); err != nil {
		return docstore.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(collection, owner, id)
	if err != nil {
		return docstore.Document{}, err
	}
	return clone(e.doc), nil
}

func (s *Store) Add(_ context.Context, collection, owner string, data []byte) (string, error) {
	if owner == "" {
		return "", docstore.ErrMissingOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", docstore.ErrClosed
	}
	id := docstore.NewID()
	s.put(collection, docstore.Document{ID: id, Owner: owner, Data: data})
	return id, nil
}

func (s *Store) Set(_ context.Context, collection, owner, id string, data []byte) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return docstore.ErrClosed
	}
	if e, ok := s.docs[collection][id]; ok {
		if e.doc.Owner != owner {
			return docstore.ErrNotFound
		}
		e.doc.Data = slices.Clone(data)
		e.doc.UpdatedAt = s.now()
		return nil
	}
	s.put(collection, docstore.Document{ID: id, Owner: owner, Data: data})
	return nil
}

func (s *Store) Update(_ context.Context, collection, owner, id string, fields map[string]any) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookup(collection, owner, id)
	if err != nil {
		return err
	}
	merged, err := docstore.MergeFields(e.doc.Data, fields)
	if err != nil {
		return err
	}
	e.doc.Data = merged
	e.doc.UpdatedAt = s.now()
	return nil
}

func (s *Store) Delete(_ context.Context, collection, owner, id string) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(collection, owner, id); err != nil {
		return err
	}
	delete(s.docs[collection], id)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of documents in collection across owners.
func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[collection])
}

func (s *Store) lookup(collection, owner, id string) (*entry, error) {
	if s.closed {
		return nil, docstore.ErrClosed
	}
	e, ok := s.docs[collection][id]
	if !ok || e.doc.Owner != owner {
		return nil, docstore.ErrNotFound
	}
	return e, nil
}

func (s *Store) put(collection string, doc docstore.Document) {
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]*entry)
	}
	now := s.now()
	doc.Data = slices.Clone(doc.Data)
	doc.CreatedAt, doc.UpdatedAt = now, now
	s.seq++
	s.docs[collection][doc.ID] = &entry{doc: doc, seq: s.seq}
}

// collect returns matching documents in insertion order.
func (s *Store) collect(collection string, keep func(docstore.Document) bool) []docstore.Document {
	entries := make([]*entry, 0, len(s.docs[collection]))
	for _, e := range s.docs[collection] {
		if keep(e.doc) {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b *entry) int { return int(a.seq) - int(b.seq) })
	out := make([]docstore.Document, len(entries))
	for i, e := range entries {
		out[i] = clone(e.doc)
	}
	return out
}

func clone(d docstore.Document) docstore.Document {
	d.Data = slices.Clone(d.Data)
	return d
}
