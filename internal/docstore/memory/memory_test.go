package memory

import (
	"context"
	"errors"
	"testing"

	"spendwise/internal/docstore"
)

func TestStoreOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := New()

	idA, err := s.Add(ctx, docstore.Transactions, "alice", []byte(`{"title":"a"}`))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, err := s.Add(ctx, docstore.Transactions, "bob", []byte(`{"title":"b"}`)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	docs, err := s.Query(ctx, docstore.Transactions, "alice")
	if err != nil || len(docs) != 1 || docs[0].ID != idA {
		t.Fatalf("Query() = %v, %v; want only alice's document", docs, err)
	}

	if _, err := s.Get(ctx, docstore.Transactions, "bob", idA); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get() across owners error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, docstore.Transactions, "bob", idA); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Delete() across owners error = %v, want ErrNotFound", err)
	}

	all, err := s.Scan(ctx, docstore.Transactions)
	if err != nil || len(all) != 2 {
		t.Fatalf("Scan() = %d docs, %v; want 2", len(all), err)
	}
}

func TestStoreQueryKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	var ids []string
	for _, body := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		id, _ := s.Add(ctx, docstore.Budgets, "u", []byte(body))
		ids = append(ids, id)
	}
	docs, _ := s.Query(ctx, docstore.Budgets, "u")
	for i, d := range docs {
		if d.ID != ids[i] {
			t.Fatalf("Query()[%d] = %s, want %s", i, d.ID, ids[i])
		}
	}
}

func TestStoreSetAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Set(ctx, docstore.Budgets, "u", "u_Market", []byte(`{"category":"Market","limit":100}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, docstore.Budgets, "u", "u_Market", []byte(`{"category":"Market","limit":250}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if s.Len(docstore.Budgets) != 1 {
		t.Fatalf("Set() must upsert, got %d documents", s.Len(docstore.Budgets))
	}

	if err := s.Update(ctx, docstore.Budgets, "u", "u_Market", map[string]any{"limit": 300}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	doc, _ := s.Get(ctx, docstore.Budgets, "u", "u_Market")
	if string(doc.Data) != `{"category":"Market","limit":300}` {
		t.Errorf("Update() data = %s", doc.Data)
	}

	if err := s.Update(ctx, docstore.Budgets, "u", "missing", map[string]any{"limit": 1}); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Update() missing error = %v, want ErrNotFound", err)
	}
}

func TestStoreRequiresOwner(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Add(ctx, docstore.Transactions, "", nil); !errors.Is(err, docstore.ErrMissingOwner) {
		t.Errorf("Add() error = %v, want ErrMissingOwner", err)
	}
	if _, err := s.Query(ctx, docstore.Transactions, ""); !errors.Is(err, docstore.ErrMissingOwner) {
		t.Errorf("Query() error = %v, want ErrMissingOwner", err)
	}
}

func TestStoreClosed(t *testing.T) {
	s := New()
	_ = s.Close()
	if _, err := s.Query(context.Background(), docstore.Transactions, "u"); !errors.Is(err, docstore.ErrClosed) {
		t.Errorf("Query() after Close error = %v, want ErrClosed", err)
	}
}
