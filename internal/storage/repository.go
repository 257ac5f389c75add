// Package storage is the SQLite document backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendwise/internal/docstore"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Query(ctx context.Context, collection, owner string) ([]docstore.Document, error) {
	if owner == "" {
		return nil, docstore.ErrMissingOwner
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, data, created_at, updated_at FROM documents
		 WHERE collection = ? AND owner = ? ORDER BY created_at, rowid`,
		collection, owner)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return scanDocuments(rows)
}

func (r *SQLiteRepository) Scan(ctx context.Context, collection string) ([]docstore.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, data, created_at, updated_at FROM documents
		 WHERE collection = ? ORDER BY created_at, rowid`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return scanDocuments(rows)
}

func (r *SQLiteRepository) Get(ctx context.Context, collection, owner, id string) (docstore.Document, error) {
	if err := docstore.CheckKey(owner, id); err != nil {
		return docstore.Document{}, err
	}
	return r.get(ctx, r.db, collection, owner, id)
}

func (r *SQLiteRepository) Add(ctx context.Context, collection, owner string, data []byte) (string, error) {
	if owner == "" {
		return "", docstore.ErrMissingOwner
	}
	id := docstore.NewID()
	now := r.now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		collection, id, owner, string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	slog.DebugContext(ctx, "Document saved to SQLite", "collection", collection, "id", id)
	return id, nil
}

// Set upserts the document. An id held by another owner is reported as
// not found and left untouched.
func (r *SQLiteRepository) Set(ctx context.Context, collection, owner, id string, data []byte) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	now := r.now().UTC().Format(timeLayout)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, owner, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
		 WHERE documents.owner = excluded.owner`,
		collection, id, owner, string(data), now, now)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) Update(ctx context.Context, collection, owner, id string, fields map[string]any) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	doc, err := r.get(ctx, tx, collection, owner, id)
	if err != nil {
		return err
	}
	merged, err := docstore.MergeFields(doc.Data, fields)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ? AND owner = ?`,
		string(merged), r.now().UTC().Format(timeLayout), collection, id, owner); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, collection, owner, id string) error {
	if err := docstore.CheckKey(owner, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ? AND owner = ?`,
		collection, id, owner)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireAffected(res)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteRepository) get(ctx context.Context, q queryer, collection, owner, id string) (docstore.Document, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, owner, data, created_at, updated_at FROM documents
		 WHERE collection = ? AND id = ? AND owner = ?`,
		collection, id, owner)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (docstore.Document, error) {
	var (
		doc              docstore.Document
		data             string
		created, updated string
	)
	if err := s.Scan(&doc.ID, &doc.Owner, &data, &created, &updated); err != nil {
		return doc, err
	}
	doc.Data = []byte(data)
	doc.CreatedAt, _ = time.Parse(timeLayout, created)
	doc.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return doc, nil
}

func scanDocuments(rows *sql.Rows) ([]docstore.Document, error) {
	defer rows.Close()
	var out []docstore.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}
