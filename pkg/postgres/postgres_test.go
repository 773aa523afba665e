package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/shenikar/incident_triage/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPing_NilPool(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}

func TestPing_LiveDatabase(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := NewPostgresDB(context.Background(), &config.Config{DatabaseURL: url, DBMaxConns: 2})
	require.NoError(t, err)
	defer pool.Close()

	assert.NoError(t, Ping(context.Background(), pool))
}
