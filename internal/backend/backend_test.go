package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"spendwise/internal/config"
	"spendwise/internal/docstore"
)

func quietFactory() *DefaultFactory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:       "mongo",
		MongoURI:          "mongodb://db:27017",
		MongoDatabase:     "ledger",
		FirebaseProjectID: "proj",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != Mongo || cfg.MongoURI != app.MongoURI || cfg.MongoDatabase != "ledger" {
		t.Errorf("FromAppConfig() = %+v", cfg)
	}
	if cfg.Firebase.ProjectID != "proj" {
		t.Errorf("Firebase.ProjectID = %q, want proj", cfg.Firebase.ProjectID)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("FromAppConfig(nil) error = nil, want error")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("FromAppConfig(sheets) error = nil, want error")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: Memory}, false},
		{"sqlite", Config{Type: SQLite, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLite}, true},
		{"mongo without uri", Config{Type: Mongo}, true},
		{"firestore without project", Config{Type: Firestore}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTypeStrings(t *testing.T) {
	got := TypeStrings()
	if len(got) != 4 {
		t.Fatalf("TypeStrings() = %v, want 4 types", got)
	}
	for _, s := range got {
		if !Type(s).IsValid() {
			t.Errorf("%q is listed but not valid", s)
		}
	}
}

// exercise stores and watches one document through a created backend.
func exercise(t *testing.T, res *Result) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := res.Store.Watch(ctx, docstore.Budgets, "u1")
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if first := <-updates; len(first) != 0 {
		t.Fatalf("first snapshot = %d docs, want 0", len(first))
	}

	if err := res.Store.Set(ctx, docstore.Budgets, "u1", "b1", []byte(`{"category":"Market"}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if next := <-updates; len(next) != 1 || next[0].ID != "b1" {
		t.Fatalf("snapshot after Set = %+v, want b1", next)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: Memory})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()
	exercise(t, res)
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "spendwise.db")
	res, err := quietFactory().CreateBackend(context.Background(), Config{Type: SQLite, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if err := res.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	exercise(t, res)
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	if _, err := quietFactory().CreateBackend(context.Background(), Config{Type: SQLite}); err == nil {
		t.Error("CreateBackend() error = nil, want error")
	}
}
