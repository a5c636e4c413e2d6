// Package listing is the filtered-listing session: filter state, the fetch
// state machine and the per-tab projections of the fetched articles.
package listing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"coconet/internal/auth"
	"coconet/internal/models"
	"coconet/internal/services"

	"go.uber.org/zap"
)

var ErrInvalidPage = errors.New("page must be >= 1")

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseFailed  Phase = "failed"
)

// Ordering decides which of two overlapping fetches wins.
type Ordering int

const (
	// OrderLastIssued applies only the most recently issued fetch and cancels
	// the one it supersedes.
	OrderLastIssued Ordering = iota
	// OrderLastResolved applies every completion as it arrives, so a slow
	// older fetch can overwrite a newer one.
	OrderLastResolved
)

func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "", "last-issued":
		return OrderLastIssued, nil
	case "last-resolved":
		return OrderLastResolved, nil
	default:
		return 0, fmt.Errorf("unknown fetch ordering %q", s)
	}
}

type ArticleLister interface {
	GetAllArticle(ctx context.Context, filter models.ArticleFilter, page models.PageRequest) (services.ArticlePage, error)
}

type SessionState struct {
	Phase       Phase               `json:"phase"`
	IsLoading   bool                `json:"is_loading"`
	Articles    []models.Article    `json:"articles"`
	Page        models.PageMetadata `json:"page"`
	CurrentPage int                 `json:"current_page"`
	Stacks      []string            `json:"stacks"`
	Position    string              `json:"position"`
	LastError   string              `json:"last_error,omitempty"`
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithOrdering(o Ordering) Option {
	return func(c *Controller) { c.ordering = o }
}

// WithPaginationRefetch makes page changes issue a fetch for the new page.
// Without it a page change only moves CurrentPage.
func WithPaginationRefetch(pageSize int) Option {
	return func(c *Controller) {
		c.paginationRefetch = true
		c.pageSize = pageSize
	}
}

// WithAuth refetches whenever the token changes.
func WithAuth(a *auth.Context) Option {
	return func(c *Controller) { c.auth = a }
}

// Controller owns the session state; it is the only writer. Every trigger
// marks the session loading and starts an asynchronous fetch, returning its
// Task handle without waiting for it.
type Controller struct {
	svc               ArticleLister
	auth              *auth.Context
	log               *zap.Logger
	ordering          Ordering
	paginationRefetch bool
	pageSize          int

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
	unsub      func()

	mu       sync.Mutex
	filter   FilterState
	state    SessionState
	seq      uint64
	inflight context.CancelFunc
	closed   bool
}

func NewController(svc ArticleLister, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		svc:        svc,
		log:        zap.NewNop(),
		baseCtx:    ctx,
		baseCancel: cancel,
		state: SessionState{
			Phase:       PhaseIdle,
			Articles:    []models.Article{},
			CurrentPage: 1,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.auth != nil {
		c.unsub = c.auth.Subscribe(func(string) { c.Refresh() })
	}
	return c
}

// Mount issues the initial fetch.
func (c *Controller) Mount() *Task {
	return c.Refresh()
}

// Refresh refetches with the refresh payload (see FilterState.RefreshRequest).
// It returns nil after Close.
func (c *Controller) Refresh() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.issueLocked(c.filter.RefreshRequest())
}

func (c *Controller) ToggleStack(v string) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if _, err := c.filter.Toggle(v); err != nil {
		return nil, err
	}
	c.resetPageLocked()
	return c.issueLocked(c.filter.Request()), nil
}

func (c *Controller) SelectPosition(p string) (*Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if err := c.filter.SelectPosition(p); err != nil {
		return nil, err
	}
	c.resetPageLocked()
	return c.issueLocked(c.filter.Request()), nil
}

// ChangePage moves the current page. Unless pagination refetch is enabled the
// returned task is nil: the page number changes but nothing is fetched.
func (c *Controller) ChangePage(n int) (*Task, error) {
	if n < 1 {
		return nil, ErrInvalidPage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	c.state.CurrentPage = n
	if !c.paginationRefetch {
		return nil, nil
	}
	return c.issueLocked(c.filter.RefreshRequest()), nil
}

// State returns a copy of the session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Articles = slices.Clone(c.state.Articles)
	s.Stacks = c.filter.Stacks()
	s.Position = c.filter.Position()
	return s
}

// View derives tab from the current articles.
func (c *Controller) View(tab TabKey) TabView {
	c.mu.Lock()
	articles := slices.Clone(c.state.Articles)
	c.mu.Unlock()
	return View(articles, tab)
}

// Close cancels in-flight fetches and waits for them to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	if c.unsub != nil {
		c.unsub()
	}
	c.baseCancel()
	c.wg.Wait()
}

func (c *Controller) resetPageLocked() {
	if c.paginationRefetch {
		c.state.CurrentPage = 1
	}
}

func (c *Controller) pageRequestLocked() models.PageRequest {
	if !c.paginationRefetch {
		return models.PageRequest{}
	}
	return models.PageRequest{Page: c.state.CurrentPage, Size: c.pageSize}
}

func (c *Controller) issueLocked(filter models.ArticleFilter) *Task {
	c.seq++
	t := newTask(c.seq, filter.Clone(), c.pageRequestLocked())

	ctx, cancel := context.WithCancel(c.baseCtx)
	if c.ordering == OrderLastIssued && c.inflight != nil {
		c.inflight()
	}
	c.inflight = cancel

	// articles stay as they are until the fetch resolves
	c.state.IsLoading = true
	c.state.Phase = PhaseLoading

	c.log.Debug("fetch issued",
		zap.Uint64("seq", t.Seq),
		zap.Strings("stacks", t.Filter.Stacks),
		zap.Strings("roles", t.Filter.Roles),
		zap.Int("page", t.Page.Page))

	c.wg.Add(1)
	go c.run(ctx, cancel, t)
	return t
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, t *Task) {
	defer c.wg.Done()
	defer cancel()
	page, err := c.svc.GetAllArticle(ctx, t.Filter, t.Page)
	c.complete(t, page, err)
}

func (c *Controller) complete(t *Task, page services.ArticlePage, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		t.finish(ErrClosed, false)
		return
	}
	if c.ordering == OrderLastIssued && t.Seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		c.log.Debug("stale fetch discarded", zap.Uint64("seq", t.Seq), zap.Uint64("latest", latest), zap.Error(err))
		t.finish(ErrSuperseded, false)
		return
	}
	if err != nil {
		c.state.Articles = []models.Article{}
		c.state.Phase = PhaseFailed
		c.state.LastError = err.Error()
		c.log.Warn("article fetch failed",
			zap.Uint64("seq", t.Seq),
			zap.Strings("stacks", t.Filter.Stacks),
			zap.Strings("roles", t.Filter.Roles),
			zap.Error(err))
	} else {
		articles := page.Data
		if articles == nil {
			articles = []models.Article{}
		}
		c.state.Articles = slices.Clone(articles)
		c.state.Page = page.Meta()
		c.state.Phase = PhaseLoaded
		c.state.LastError = ""
	}
	c.state.IsLoading = false
	if t.Seq == c.seq {
		c.inflight = nil
	}
	c.mu.Unlock()
	t.finish(err, true)
}
