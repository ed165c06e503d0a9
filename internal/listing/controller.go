// Package listing implements the paginated remote list used by every list
// view: trips, orders, offers, reviews, news, messages and admin panels.
package listing

import (
	"context"
	"errors"
	"sync"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/metrics"
)

var (
	// ErrSuperseded is returned by a fetch whose response arrived after a newer fetch was issued.
	ErrSuperseded = errors.New("listing: superseded by a newer fetch")
	// ErrClosed is returned by fetches that complete after the controller was closed.
	ErrClosed = errors.New("listing: controller closed")
)

const loadFailedMessage = "could not load the list"

// Fetcher loads one page of records from the remote API.
type Fetcher[T any] func(ctx context.Context, q domain.PageQuery) apiclient.Result[domain.Page[T]]

// Remote builds a Fetcher for a named API resource on behalf of a session token.
func Remote[T any](c *apiclient.Client, token, resource string) Fetcher[T] {
	return func(ctx context.Context, q domain.PageQuery) apiclient.Result[domain.Page[T]] {
		return apiclient.FetchPage[T](ctx, c, token, resource, q)
	}
}

// Config fixes the query shape of a controller.
type Config struct {
	PageSize int
	// DependentKey names the filter that carries DependentID (for example "driverId").
	DependentKey string
	DependentID  string
	Filters      map[string]string
}

// State is the list view state. It is owned by one Controller.
type State[T any] struct {
	Records     []T
	CurrentPage int
	TotalPages  int
	Loading     bool
	Failed      bool
	Err         string
}

// Controller fetches pages of T and tracks the current/total page.
//
// Every fetch carries a monotonic id; issuing a new fetch cancels the one in
// flight and only the most recently issued fetch may apply its result.
type Controller[T domain.Record] struct {
	fetch Fetcher[T]
	cfg   Config

	mu      sync.Mutex
	state   State[T]
	seq     uint64
	cancel  context.CancelFunc
	mounted bool
	closed  bool
}

func New[T domain.Record](fetch Fetcher[T], cfg Config) *Controller[T] {
	if cfg.PageSize < 1 {
		cfg.PageSize = domain.DefaultPageSize
	}
	return &Controller[T]{
		fetch: fetch,
		cfg:   cfg,
		state: State[T]{CurrentPage: 1, TotalPages: 1, Records: []T{}},
	}
}

// Mount performs the initial fetch of page 1.
func (c *Controller[T]) Mount(ctx context.Context) error {
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	return c.load(ctx, 1)
}

// MountAt performs the initial fetch at page instead of page 1, for views
// restored from a URL. A page past the end is clamped once the real total is
// known.
func (c *Controller[T]) MountAt(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	if err := c.load(ctx, page); err != nil {
		return err
	}

	c.mu.Lock()
	total, current := c.state.TotalPages, c.state.CurrentPage
	c.mu.Unlock()
	if current > total {
		return c.load(ctx, total)
	}
	return nil
}

// Open mounts the controller on page with a single fetch. Unlike MountAt a
// page past the end is not clamped; it reads as empty.
func (c *Controller[T]) Open(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	return c.load(ctx, page)
}

// SetCurrentPage moves to page, clamped to [1, totalPages], and refetches
// when the page actually changes.
func (c *Controller[T]) SetCurrentPage(ctx context.Context, page int) error {
	c.mu.Lock()
	total := c.state.TotalPages
	if total < 1 {
		total = 1
	}
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	unchanged := c.mounted && page == c.state.CurrentPage
	c.mu.Unlock()

	if unchanged {
		return nil
	}
	return c.load(ctx, page)
}

// SetDependentID changes the owning identifier and refetches the current page.
func (c *Controller[T]) SetDependentID(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.cfg.DependentID == id {
		c.mu.Unlock()
		return nil
	}
	c.cfg.DependentID = id
	page := c.state.CurrentPage
	c.mu.Unlock()
	return c.load(ctx, page)
}

// Refetch reloads the current page.
func (c *Controller[T]) Refetch(ctx context.Context) error {
	c.mu.Lock()
	page := c.state.CurrentPage
	c.mu.Unlock()
	return c.load(ctx, page)
}

// SetLoading flips the loading flag shared with action transitions.
func (c *Controller[T]) SetLoading(loading bool) {
	c.mu.Lock()
	c.state.Loading = loading
	c.mu.Unlock()
}

// Close unmounts the controller: the in-flight fetch is cancelled and any
// late response is discarded.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// State returns a snapshot of the list view state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Records = append([]T(nil), c.state.Records...)
	return s
}

// Find returns the record with id on the current page.
func (c *Controller[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.state.Records {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T]) query(page int) domain.PageQuery {
	filters := make(map[string]string, len(c.cfg.Filters)+1)
	for k, v := range c.cfg.Filters {
		filters[k] = v
	}
	if c.cfg.DependentKey != "" && c.cfg.DependentID != "" {
		filters[c.cfg.DependentKey] = c.cfg.DependentID
	}
	return domain.PageQuery{PageNumber: page, PageSize: c.cfg.PageSize, Filters: filters}
}

func (c *Controller[T]) load(ctx context.Context, page int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	id := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.state.CurrentPage = page
	c.state.Loading = true
	c.state.Failed = false
	c.state.Err = ""
	c.state.Records = []T{}
	q := c.query(page)
	c.mu.Unlock()

	res := c.fetch(fctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	cancel()
	if c.closed {
		return ErrClosed
	}
	if id != c.seq {
		metrics.StaleResponseDropped()
		return ErrSuperseded
	}
	c.cancel = nil

	if !res.OK() {
		c.state.Records = []T{}
		c.state.TotalPages = 1
		c.state.Loading = false
		c.state.Failed = true
		c.state.Err = domain.RemoteMessage(res.Err, loadFailedMessage)
		return res.Err
	}

	items := res.Value.Items
	if items == nil {
		items = []T{}
	}
	c.state.Records = items
	c.state.TotalPages = res.Value.EffectiveTotalPages()
	c.state.Loading = false
	return nil
}
