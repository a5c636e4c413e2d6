// Package auth holds the process-wide access token and the one-shot hydration
// of URL-carried credentials into durable storage.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coconet/internal/storage"
)

// Context is the token slice: many readers, one mutation entry point
// (SetToken). It is passed explicitly to whoever needs it.
type Context struct {
	mu     sync.RWMutex
	token  string
	nextID int
	subs   map[int]func(token string)
}

func NewContext(token string) *Context {
	return &Context{token: token, subs: map[int]func(string){}}
}

// LoadContext seeds the token from durable storage; a missing key yields an
// empty token.
func LoadContext(ctx context.Context, store storage.ClientStore) (*Context, error) {
	tok, err := store.Get(ctx, storage.KeyAccessToken)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("load access token: %w", err)
	}
	return NewContext(tok), nil
}

func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken publishes token and notifies subscribers if it differs from the
// current value. It reports whether the token changed.
func (c *Context) SetToken(token string) bool {
	c.mu.Lock()
	if c.token == token {
		c.mu.Unlock()
		return false
	}
	c.token = token
	subs := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(token)
	}
	return true
}

// Subscribe registers fn for token changes. Callbacks run on the goroutine
// that called SetToken, after the lock is released.
func (c *Context) Subscribe(fn func(token string)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
