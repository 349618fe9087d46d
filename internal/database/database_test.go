package database

import (
	"path/filepath"
	"strings"
	"testing"

	"lasyfinance/internal/config"
	"lasyfinance/internal/models"
)

func TestMigrationURL(t *testing.T) {
	t.Run("from_parts", func(t *testing.T) {
		cfg := &config.Config{DBHost: "db", DBPort: "5432", DBUser: "lasy", DBPassword: "p@ss", DBName: "lasy", DBSSLMode: "disable"}
		got := MigrationURL(cfg)
		if !strings.HasPrefix(got, "postgres://lasy:p%40ss@db:5432/lasy") {
			t.Errorf("unexpected url %s", got)
		}
		if !strings.HasSuffix(got, "sslmode=disable") {
			t.Errorf("expected sslmode in %s", got)
		}
	})

	t.Run("database_url_wins", func(t *testing.T) {
		cfg := &config.Config{DatabaseURL: "postgres://x@y/z", DBHost: "ignored"}
		if got := MigrationURL(cfg); got != "postgres://x@y/z" {
			t.Errorf("unexpected url %s", got)
		}
		if got := postgresDSN(cfg); got != "postgres://x@y/z" {
			t.Errorf("unexpected dsn %s", got)
		}
	})
}

func TestManager_SQLiteAutoMigrate(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "lasy.db")}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = m.Close() }()

	if err := m.Migrate(DefaultMigrationsPath); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	for _, model := range models.All() {
		if !m.DB().Migrator().HasTable(model) {
			t.Errorf("expected table for %T", model)
		}
	}
}
