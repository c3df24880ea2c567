package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vijayrajbudala/GIS-Application/config"
	"github.com/vijayrajbudala/GIS-Application/store"
)

// runStoreTests runs a common test suite against any Store implementation.
func runStoreTests(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("Get missing", func(t *testing.T) {
		_, ok, err := s.Get("missing")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("expected ok=false for missing key")
		}
	})

	t.Run("Put and Get", func(t *testing.T) {
		value := `[{"id":1,"status":"Open","geometry":{"x":1,"y":2}}]`
		if err := s.Put("localServiceRequestsJSON", value); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.Get("localServiceRequestsJSON")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected value, got none")
		}
		if got != value {
			t.Fatalf("expected %q, got %q", value, got)
		}
	})

	t.Run("Put overwrites", func(t *testing.T) {
		if err := s.Put("localServiceRequestsJSON", "[]"); err != nil {
			t.Fatal(err)
		}
		got, _, err := s.Get("localServiceRequestsJSON")
		if err != nil {
			t.Fatal(err)
		}
		if got != "[]" {
			t.Fatalf("expected [], got %q", got)
		}
	})

	t.Run("Empty value is stored", func(t *testing.T) {
		if err := s.Put("blank", ""); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.Get("blank")
		if err != nil {
			t.Fatal(err)
		}
		if !ok || got != "" {
			t.Fatalf("expected empty stored value, got ok=%v %q", ok, got)
		}
	})

	t.Run("Delete existing", func(t *testing.T) {
		existed, err := s.Delete("blank")
		if err != nil {
			t.Fatal(err)
		}
		if !existed {
			t.Fatal("expected existed=true")
		}
		_, ok, err := s.Get("blank")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("expected key gone after delete")
		}
	})

	t.Run("Delete missing", func(t *testing.T) {
		existed, err := s.Delete("nope")
		if err != nil {
			t.Fatal(err)
		}
		if existed {
			t.Fatal("expected existed=false")
		}
	})

	t.Run("Put invalid key", func(t *testing.T) {
		err := s.Put("../escape", "x")
		if !errors.Is(err, store.ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey, got %v", err)
		}
	})
}

// cleanup removes the keys runStoreTests writes, for backends shared between runs.
func cleanup(s store.Store) {
	for _, k := range []string{"blank", "localServiceRequestsJSON"} {
		s.Delete(k)
	}
}

func TestMemoryStore(t *testing.T) {
	s := store.NewMemoryStore()
	runStoreTests(t, s)
}

func TestJsonFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewJsonFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	runStoreTests(t, s)
}

func TestSqliteStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := store.NewSqliteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	s, err := store.NewRedisStore(store.RedisOptions{Addr: addr, Prefix: "gisapp-test:" + t.Name() + ":"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	defer cleanup(s)
	runStoreTests(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	s, err := store.ConnectPostgresWithRetry(dsn, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	cleanup(s)
	runStoreTests(t, s)
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
	}{
		{"json"},
		{"sqlite"},
		{"memory"},
		{""},
	}
	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			s, err := store.New(config.StorageConfig{Backend: tc.backend, DataDir: filepath.Join(dir, tc.backend)})
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := store.New(config.StorageConfig{Backend: "etcd", DataDir: dir})
		if err == nil {
			t.Fatal("expected error for unknown backend")
		}
	})
}

func TestJsonFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewJsonFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Put("localServiceRequestsJSON", "[]"); err != nil {
		t.Fatal(err)
	}

	// The value lands verbatim in <key>.json with no temp files left over.
	data, err := os.ReadFile(filepath.Join(dir, "localServiceRequestsJSON.json"))
	if err != nil {
		t.Fatalf("expected localServiceRequestsJSON.json to exist: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("unexpected file content %q", data)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file, got %d", len(entries))
	}
}

func TestSqliteStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	s, err := store.NewSqliteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put("k", "v1"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = store.NewSqliteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, ok, err := s.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != "v1" {
		t.Fatalf("expected v1 after reopen, got ok=%v %q", ok, got)
	}
}
