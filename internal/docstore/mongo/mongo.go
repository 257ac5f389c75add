// Package mongo stores documents in MongoDB, one Mongo collection per
// document collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"spendwise/internal/docstore"
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "spendwise"

// updateAttempts bounds the read-merge-write retries of Update.
const updateAttempts = 3

type record struct {
	ID        string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	Data      string    `bson:"data"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (r record) document() docstore.Document {
	return docstore.Document{
		ID:        r.ID,
		Owner:     r.Owner,
		Data:      []byte(r.Data),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Connect opens a client on uri and prepares the owner indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if database == "" {
		database = DefaultDatabase
	}
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	s := &Store{client: client, db: client.Database(database), now: time.Now}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	for _, name := range docstore.Collections {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("create owner index on %s: %w", name, err)
		}
	}
	return nil
}

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Query(ctx context.Context, collection, owner string) ([]docstore.Document, error) {
	if owner == "" {
		return nil, docstore.ErrMissingOwner
	}
	return s.find(ctx, collection, bson.M{"owner": owner})
}

func (s *Store) Scan(ctx context.Context, collection string) ([]docstore.Document, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *Store) find(ctx context.Context, collection string, filter bson.M) ([]docstore.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var recs []record
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	out := make([]docstore.Document, len(recs))
	for i, r := range recs {
		out[i] = r.document()
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, collection, owner, id string) (docstore.Document, error) {
	if err := docstore.CheckKey(owner, id); err != nil {
		return docstore.Document{}, err
	}
	rec, err := s.get(ctx, collection, owner, id)
	if err != nil {
		return docstore.Document{}, err
	}
	return rec.document(), nil
}

func (s *Store) get(ctx context.Context, collection, owner, id string) (record, error) {
	var rec record
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id, "owner": owner}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return rec, docstore.ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

func (s *Store) Add(ctx context.Context, collection, owner string, data []byte) (string, error) {
	if owner == "" {
		return "", docstore.ErrMissingOwner
	}
	now := s.now().UTC()
	rec := record{ID: docstore.NewID(), Owner: owner, Data: string(data), CreatedAt: now, UpdatedAt: now}
	if _, err := s.db.Collection(collection).InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return rec.ID, nil
}

// Set upserts on (_id, owner). An id held by another owner fails the
// insert with a duplicate key and is reported as not found.
func (s *Store) Set(ctx context.Context, collection, owner, id string, data []byte) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	now := s.now().UTC()
	update := bson.M{
		"$set":         bson.M{"data": string(data), "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx,
		bson.M{"_id": id, "owner": owner}, update, options.UpdateOne().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges fields into the stored JSON. The write is conditioned on
// the data read, and retried when another writer got there first.
func (s *Store) Update(ctx context.Context, collection, owner, id string, fields map[string]any) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	for range updateAttempts {
		rec, err := s.get(ctx, collection, owner, id)
		if err != nil {
			return err
		}
		merged, err := docstore.MergeFields([]byte(rec.Data), fields)
		if err != nil {
			return err
		}
		res, err := s.db.Collection(collection).UpdateOne(ctx,
			bson.M{"_id": id, "owner": owner, "data": rec.Data},
			bson.M{"$set": bson.M{"data": string(merged), "updatedAt": s.now().UTC()}})
		if err != nil {
			return fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
	}
	return fmt.Errorf("update %s/%s: concurrent writes", collection, id)
}

func (s *Store) Delete(ctx context.Context, collection, owner, id string) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}
