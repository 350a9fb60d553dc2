package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestCreateDatabaseMemory(t *testing.T) {
	store, err := CreateDatabase(context.Background(), &DatabaseConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("CreateDatabase failed: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateDatabaseUnknownType(t *testing.T) {
	if _, err := CreateDatabase(context.Background(), &DatabaseConfig{Type: "postgres"}); err == nil {
		t.Fatal("unknown database type accepted")
	}
}

func TestCreateDatabaseBadgerRequiresPath(t *testing.T) {
	cfg := &DatabaseConfig{Type: "badger", Badger: map[string]any{}}
	if _, err := CreateDatabase(context.Background(), cfg); err == nil {
		t.Fatal("badger without db_path accepted")
	}
}

func TestCreateEngine(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Root = filepath.Join(root, "store")
	cfg.Store.LogDir = filepath.Join(root, "log")
	cfg.Store.TmpDir = filepath.Join(root, "tmp")
	cfg.Database.Type = "memory"

	eng, err := CreateEngine(context.Background(), cfg)
	if err != nil {
		t.Fatalf("CreateEngine failed: %v", err)
	}
	defer func() { _ = eng.DB.Close() }()

	if eng.StoreRoot != cfg.Store.Root {
		t.Errorf("engine store root = %q", eng.StoreRoot)
	}
}
