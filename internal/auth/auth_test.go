package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"coconet/internal/storage"

	"github.com/stretchr/testify/require"
)

type failingStore struct {
	storage.ClientStore
	failKey string
}

func (f failingStore) Set(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.ClientStore.Set(ctx, key, value)
}

func TestSetTokenNotifiesOnlyOnChange(t *testing.T) {
	c := NewContext("")
	var seen []string
	unsub := c.Subscribe(func(tok string) { seen = append(seen, tok) })

	require.True(t, c.SetToken("a"))
	require.False(t, c.SetToken("a"))
	require.True(t, c.SetToken("b"))
	unsub()
	require.True(t, c.SetToken("c"))

	require.Equal(t, []string{"a", "b"}, seen)
	require.Equal(t, "c", c.Token())
}

func TestLoadContextFromStore(t *testing.T) {
	store := storage.NewMemoryStore()
	c, err := LoadContext(context.Background(), store)
	require.NoError(t, err)
	require.Empty(t, c.Token())

	require.NoError(t, store.Set(context.Background(), storage.KeyAccessToken, "persisted"))
	c, err = LoadContext(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, "persisted", c.Token())
}

func TestHydrateAccessToken(t *testing.T) {
	store := storage.NewMemoryStore()
	authCtx := NewContext("")
	h := NewHydrator(store, authCtx, nil, nil)

	res, err := h.Apply(context.Background(), url.Values{"accessToken": {"XYZ"}})
	require.NoError(t, err)
	require.True(t, res.TokenPublished)

	stored, err := store.Get(context.Background(), storage.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "XYZ", stored)
	require.Equal(t, "XYZ", authCtx.Token())
}

func TestHydrateIsIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	authCtx := NewContext("")
	notified := 0
	authCtx.Subscribe(func(string) { notified++ })
	h := NewHydrator(store, authCtx, nil, nil)
	q := url.Values{"accessToken": {"XYZ"}, "memberId": {"m-1"}}

	_, err := h.Apply(context.Background(), q)
	require.NoError(t, err)
	writes := store.Writes()
	res, err := h.Apply(context.Background(), q)
	require.NoError(t, err)

	require.False(t, res.TokenPublished)
	require.True(t, res.ScrollLocked)
	require.Equal(t, writes, store.Writes())
	require.Equal(t, 1, notified)
}

func TestHydrateMemberLocksAndReleasesScroll(t *testing.T) {
	store := storage.NewMemoryStore()
	scroll := &ScrollState{}
	h := NewHydrator(store, NewContext(""), scroll, nil)

	res, err := h.Apply(context.Background(), url.Values{"memberId": {"m-42"}})
	require.NoError(t, err)
	require.True(t, res.ScrollLocked)
	require.True(t, scroll.Locked())
	got, err := store.Get(context.Background(), storage.KeyMemberUUID)
	require.NoError(t, err)
	require.Equal(t, "m-42", got)

	res, err = h.Apply(context.Background(), url.Values{})
	require.NoError(t, err)
	require.False(t, res.ScrollLocked)
	require.False(t, scroll.Locked())
	// the stored identifier outlives the query value
	got, err = store.Get(context.Background(), storage.KeyMemberUUID)
	require.NoError(t, err)
	require.Equal(t, "m-42", got)
}

func TestHydrateBranchesAreIndependent(t *testing.T) {
	store := failingStore{ClientStore: storage.NewMemoryStore(), failKey: storage.KeyMemberUUID}
	authCtx := NewContext("")
	h := NewHydrator(store, authCtx, nil, nil)

	res, err := h.Apply(context.Background(), url.Values{"memberId": {"m-1"}, "accessToken": {"T"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "persist member id")
	require.True(t, res.TokenPublished)
	require.Equal(t, "T", authCtx.Token())
}

func TestHydrateTokenReappliedAfterAbsence(t *testing.T) {
	store := storage.NewMemoryStore()
	h := NewHydrator(store, NewContext(""), nil, nil)
	ctx := context.Background()

	_, err := h.Apply(ctx, url.Values{"accessToken": {"XYZ"}})
	require.NoError(t, err)
	_, err = h.Apply(ctx, url.Values{})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, storage.KeyAccessToken))

	res, err := h.Apply(ctx, url.Values{"accessToken": {"XYZ"}})
	require.NoError(t, err)
	require.True(t, res.TokenPublished)
	got, err := store.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "XYZ", got)
}
