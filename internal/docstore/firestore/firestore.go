// Package firestore stores documents in Cloud Firestore. Each record is a
// Firestore document whose "uid" field holds the owner.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"spendwise/internal/docstore"
)

// OwnerField is the field that scopes documents to their owner.
const OwnerField = "uid"

type Store struct {
	client *firestore.Client
}

// New opens the Firestore client of app.
func New(ctx context.Context, app *firebase.App) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Query(ctx context.Context, collection, owner string) ([]docstore.Document, error) {
	if owner == "" {
		return nil, docstore.ErrMissingOwner
	}
	snaps, err := s.ownerQuery(collection, owner).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return toDocuments(snaps)
}

func (s *Store) Scan(ctx context.Context, collection string) ([]docstore.Document, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()
	var snaps []*firestore.DocumentSnapshot
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		snaps = append(snaps, snap)
	}
	return toDocuments(snaps)
}

func (s *Store) Get(ctx context.Context, collection, owner, id string) (docstore.Document, error) {
	if err := docstore.CheckKey(owner, id); err != nil {
		return docstore.Document{}, err
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	if ownerOf(snap) != owner {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return toDocument(snap)
}

func (s *Store) Add(ctx context.Context, collection, owner string, data []byte) (string, error) {
	if owner == "" {
		return "", docstore.ErrMissingOwner
	}
	fields, err := toFields(data, owner)
	if err != nil {
		return "", err
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("add %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *Store) Set(ctx context.Context, collection, owner, id string, data []byte) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	fields, err := toFields(data, owner)
	if err != nil {
		return err
	}
	ref := s.client.Collection(collection).Doc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return fmt.Errorf("get %s/%s: %w", collection, id, err)
		case ownerOf(snap) != owner:
			return docstore.ErrNotFound
		}
		return tx.Set(ref, fields)
	})
}

func (s *Store) Update(ctx context.Context, collection, owner, id string, fields map[string]any) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	values, err := normalize(fields)
	if err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(values))
	for k, v := range values {
		if k == OwnerField {
			continue
		}
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	ref := s.client.Collection(collection).Doc(id)
	return s.owned(ctx, ref, owner, func(tx *firestore.Transaction) error {
		return tx.Update(ref, updates)
	})
}

func (s *Store) Delete(ctx context.Context, collection, owner, id string) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	ref := s.client.Collection(collection).Doc(id)
	return s.owned(ctx, ref, owner, func(tx *firestore.Transaction) error {
		return tx.Delete(ref)
	})
}

// Watch follows the owner's query with Firestore snapshot listeners.
func (s *Store) Watch(ctx context.Context, collection, owner string) (<-chan []docstore.Document, error) {
	if owner == "" {
		return nil, docstore.ErrMissingOwner
	}
	iter := s.ownerQuery(collection, owner).Snapshots(ctx)
	out := make(chan []docstore.Document, 1)
	go func() {
		defer close(out)
		defer iter.Stop()
		for {
			qs, err := iter.Next()
			if err != nil {
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				return
			}
			docs, err := toDocuments(snaps)
			if err != nil {
				continue
			}
			select {
			case <-out:
			default:
			}
			select {
			case out <- docs:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *Store) ownerQuery(collection, owner string) firestore.Query {
	return s.client.Collection(collection).Where(OwnerField, "==", owner)
}

// owned runs fn in a transaction after checking that ref exists and
// belongs to owner.
func (s *Store) owned(ctx context.Context, ref *firestore.DocumentRef, owner string, fn func(*firestore.Transaction) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return docstore.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", ref.Path, err)
		}
		if ownerOf(snap) != owner {
			return docstore.ErrNotFound
		}
		return fn(tx)
	})
}

func ownerOf(snap *firestore.DocumentSnapshot) string {
	v, err := snap.DataAt(OwnerField)
	if err != nil {
		return ""
	}
	owner, _ := v.(string)
	return owner
}

// toFields decodes JSON into the map Firestore stores and stamps the owner.
func toFields(data []byte, owner string) (map[string]any, error) {
	fields := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	}
	fields[OwnerField] = owner
	return fields, nil
}

// normalize turns update values into plain JSON types so Firestore stores
// them the way a full document write would.
func normalize(fields map[string]any) (map[string]any, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

func toDocument(snap *firestore.DocumentSnapshot) (docstore.Document, error) {
	fields := snap.Data()
	owner, _ := fields[OwnerField].(string)
	delete(fields, OwnerField)
	data, err := json.Marshal(fields)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("encode %s: %w", snap.Ref.ID, err)
	}
	return docstore.Document{
		ID:        snap.Ref.ID,
		Owner:     owner,
		Data:      data,
		CreatedAt: snap.CreateTime,
		UpdatedAt: snap.UpdateTime,
	}, nil
}

func toDocuments(snaps []*firestore.DocumentSnapshot) ([]docstore.Document, error) {
	out := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := toDocument(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
