package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/medassoc/internal/config"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw      string
		wantKind Kind
		wantDSN  string
	}{
		{"sqlite://data/medassoc.db", SQLite, "data/medassoc.db"},
		{"sqlite:///var/lib/medassoc.db", SQLite, "/var/lib/medassoc.db"},
		{"data/medassoc.db", SQLite, "data/medassoc.db"},
		{":memory:", SQLite, ":memory:"},
		{"sqlite://:memory:", SQLite, ":memory:"},
		{"mongodb://localhost:27017", Mongo, "mongodb://localhost:27017"},
		{"mongodb+srv://user:pw@cluster.example.net", Mongo, "mongodb+srv://user:pw@cluster.example.net"},
		{"postgres://u:p@localhost:5432/medassoc", Postgres, "postgres://u:p@localhost:5432/medassoc"},
		{"PostgreSQL://localhost/medassoc", Postgres, "PostgreSQL://localhost/medassoc"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantDSN, got.DSN)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "mysql://localhost/db", "sqlite://"} {
		_, err := Parse(raw)
		assert.Error(t, err, "Parse(%q)", raw)
	}
}

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := config.StorageConfig{
		URL:            "sqlite://" + filepath.Join(dir, "medassoc.db"),
		ConnectTimeout: time.Second,
	}

	store, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
	assert.DirExists(t, dir)
}
