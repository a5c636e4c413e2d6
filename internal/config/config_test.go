package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COCONET_API_BASE", "")
	t.Setenv("COCONET_PAGINATION_REFETCH", "")
	t.Setenv("COCONET_PAGE_SIZE", "")
	cfg := Load()
	require.Equal(t, "http://localhost:8000/", cfg.APIBase)
	require.False(t, cfg.PaginationRefetch)
	require.Equal(t, 12, cfg.PageSize)
	require.Equal(t, "last-issued", cfg.Ordering)
	require.Equal(t, 15*time.Second, cfg.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COCONET_PAGINATION_REFETCH", "true")
	t.Setenv("COCONET_PAGE_SIZE", "30")
	t.Setenv("COCONET_REQUEST_TIMEOUT_SECONDS", "2")
	cfg := Load()
	require.True(t, cfg.PaginationRefetch)
	require.Equal(t, 30, cfg.PageSize)
	require.Equal(t, 2*time.Second, cfg.RequestTimeout())
}

func TestLoadMalformedFallsBack(t *testing.T) {
	t.Setenv("COCONET_PAGINATION_REFETCH", "sometimes")
	t.Setenv("COCONET_PAGE_SIZE", "many")
	cfg := Load()
	require.False(t, cfg.PaginationRefetch)
	require.Equal(t, 12, cfg.PageSize)
}
