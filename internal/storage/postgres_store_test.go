package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Runs against a real database only when COCONET_TEST_POSTGRES_URL is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("COCONET_TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("COCONET_TEST_POSTGRES_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, closeFn, err := Open(ctx, string(DriverPostgres), "", dsn)
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, s.Delete(ctx, KeyAccessToken))
	require.NoError(t, s.Delete(ctx, KeyMemberUUID))
	exerciseStore(t, s)
}

func TestNewDBRejectsBadDSN(t *testing.T) {
	_, err := NewDB(context.Background(), "postgres://%zz")
	require.ErrorContains(t, err, "parse postgres config")
}
