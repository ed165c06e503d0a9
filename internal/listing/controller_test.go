package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves deterministic pages of orders and records every query.
type fakeAPI struct {
	mu         sync.Mutex
	totalPages int
	perPage    int
	fail       bool
	queries    []domain.PageQuery
}

func (f *fakeAPI) fetch(ctx context.Context, q domain.PageQuery) apiclient.Result[domain.Page[models.Order]] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.fail {
		return apiclient.Fail[domain.Page[models.Order]](domain.RemoteError{Status: 500, Msg: "boom"})
	}
	items := make([]models.Order, 0, f.perPage)
	for i := 0; i < f.perPage; i++ {
		items = append(items, models.Order{ID: fmt.Sprintf("p%d-%d", q.PageNumber, i)})
	}
	return apiclient.Ok(domain.Page[models.Order]{Items: items, PageNumber: q.PageNumber, PageSize: q.PageSize, TotalPages: f.totalPages})
}

func (f *fakeAPI) last() domain.PageQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func TestMountLoadsFirstPageAndPageChangeRefetches(t *testing.T) {
	api := &fakeAPI{totalPages: 2, perPage: 3}
	c := New(api.fetch, Config{DependentKey: "driverId", DependentID: "u1"})

	require.NoError(t, c.Mount(context.Background()))
	s := c.State()
	assert.Len(t, s.Records, 3)
	assert.Equal(t, 2, s.TotalPages)
	assert.False(t, s.Loading)
	assert.Equal(t, 1, api.last().PageNumber)
	assert.Equal(t, 10, api.last().PageSize)
	assert.Equal(t, "u1", api.last().Filters["driverId"])

	require.NoError(t, c.SetCurrentPage(context.Background(), 2))
	assert.Equal(t, 2, api.last().PageNumber)
	assert.Equal(t, 2, c.State().CurrentPage)
}

func TestSetCurrentPageClamps(t *testing.T) {
	api := &fakeAPI{totalPages: 3, perPage: 1}
	c := New(api.fetch, Config{})
	require.NoError(t, c.Mount(context.Background()))

	require.NoError(t, c.SetCurrentPage(context.Background(), 99))
	assert.Equal(t, 3, c.State().CurrentPage)
	assert.Equal(t, 3, api.last().PageNumber)

	require.NoError(t, c.SetCurrentPage(context.Background(), -4))
	assert.Equal(t, 1, c.State().CurrentPage)
}

func TestSetCurrentPageSamePageDoesNotRefetch(t *testing.T) {
	api := &fakeAPI{totalPages: 2, perPage: 1}
	c := New(api.fetch, Config{})
	require.NoError(t, c.Mount(context.Background()))
	require.NoError(t, c.SetCurrentPage(context.Background(), 1))
	assert.Equal(t, 1, api.calls())
}

func TestZeroTotalPagesBehavesAsOne(t *testing.T) {
	api := &fakeAPI{totalPages: 0, perPage: 0}
	c := New(api.fetch, Config{})
	require.NoError(t, c.Mount(context.Background()))

	s := c.State()
	assert.Equal(t, 1, s.TotalPages)
	assert.Empty(t, s.Records)
	assert.Equal(t, StatusEmpty, c.View().Status)

	require.NoError(t, c.SetCurrentPage(context.Background(), 5))
	assert.Equal(t, 1, c.State().CurrentPage)
}

func TestFailedFetchDegradesToEmptyFailedState(t *testing.T) {
	api := &fakeAPI{fail: true}
	c := New(api.fetch, Config{})

	err := c.Mount(context.Background())
	require.Error(t, err)
	s := c.State()
	assert.Empty(t, s.Records)
	assert.Equal(t, 1, s.TotalPages)
	assert.False(t, s.Loading)
	assert.True(t, s.Failed)

	v := c.View()
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "boom", v.Error)
	assert.True(t, v.Retry)
}

func TestRefetchIsIdempotent(t *testing.T) {
	api := &fakeAPI{totalPages: 1, perPage: 4}
	c := New(api.fetch, Config{})
	require.NoError(t, c.Mount(context.Background()))

	require.NoError(t, c.Refetch(context.Background()))
	first := c.State().Records
	require.NoError(t, c.Refetch(context.Background()))
	assert.Equal(t, first, c.State().Records)
}

func TestLoadingHidesStaleRecords(t *testing.T) {
	api := &fakeAPI{totalPages: 2, perPage: 2}
	var c *Controller[models.Order]
	var during State[models.Order]
	c = New(func(ctx context.Context, q domain.PageQuery) apiclient.Result[domain.Page[models.Order]] {
		if q.PageNumber == 2 {
			during = c.State()
		}
		return api.fetch(ctx, q)
	}, Config{})

	require.NoError(t, c.Mount(context.Background()))
	require.NoError(t, c.SetCurrentPage(context.Background(), 2))
	assert.True(t, during.Loading)
	assert.Empty(t, during.Records)
}

func TestOutOfOrderResponseIsDropped(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{totalPages: 5, perPage: 1}

	c := New(func(ctx context.Context, q domain.PageQuery) apiclient.Result[domain.Page[models.Order]] {
		if q.PageNumber == 1 {
			close(started)
			<-release
		}
		return api.fetch(ctx, q)
	}, Config{})

	slow := make(chan error, 1)
	go func() { slow <- c.Mount(context.Background()) }()
	<-started

	// A newer fetch for page 3 resolves first.
	require.NoError(t, c.load(context.Background(), 3))
	close(release)

	assert.True(t, errors.Is(<-slow, ErrSuperseded))
	s := c.State()
	assert.Equal(t, 3, s.CurrentPage)
	require.Len(t, s.Records, 1)
	assert.Equal(t, "p3-0", s.Records[0].ID)
}

func TestNewFetchCancelsInFlightOne(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})
	api := &fakeAPI{totalPages: 2, perPage: 1}

	c := New(func(ctx context.Context, q domain.PageQuery) apiclient.Result[domain.Page[models.Order]] {
		if q.PageNumber == 1 {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return apiclient.Fail[domain.Page[models.Order]](ctx.Err())
		}
		return api.fetch(ctx, q)
	}, Config{})

	slow := make(chan error, 1)
	go func() { slow <- c.Mount(context.Background()) }()
	<-started
	require.NoError(t, c.load(context.Background(), 2))
	<-cancelled
	assert.ErrorIs(t, <-slow, ErrSuperseded)
	assert.False(t, c.State().Failed)
}

func TestCloseDropsLateResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{totalPages: 1, perPage: 2}

	c := New(func(ctx context.Context, q domain.PageQuery) apiclient.Result[domain.Page[models.Order]] {
		close(started)
		<-release
		return api.fetch(ctx, q)
	}, Config{})

	done := make(chan error, 1)
	go func() { done <- c.Mount(context.Background()) }()
	<-started
	c.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, c.State().Records)
	assert.ErrorIs(t, c.Refetch(context.Background()), ErrClosed)
}

func TestSetDependentIDRefetches(t *testing.T) {
	api := &fakeAPI{totalPages: 1, perPage: 1}
	c := New(api.fetch, Config{DependentKey: "userId", DependentID: "a"})
	require.NoError(t, c.Mount(context.Background()))
	require.NoError(t, c.SetDependentID(context.Background(), "b"))
	assert.Equal(t, "b", api.last().Filters["userId"])
	require.NoError(t, c.SetDependentID(context.Background(), "b"))
	assert.Equal(t, 2, api.calls())
}

func TestViewCarriesActionSurface(t *testing.T) {
	c := New(func(ctx context.Context, q domain.PageQuery) apiclient.Result[domain.Page[models.Order]] {
		return apiclient.Ok(domain.Page[models.Order]{
			Items: []models.Order{
				{ID: "1", IsAccepted: true},
				{ID: "2", IsAccepted: true, IsPickedUp: true},
				{ID: "3", IsAccepted: true, IsPickedUp: true, IsDelivered: true},
			},
			TotalPages: 1,
		})
	}, Config{})
	require.NoError(t, c.Mount(context.Background()))

	v := c.View()
	require.Equal(t, StatusReady, v.Status)
	require.Len(t, v.Records, 3)
	assert.Equal(t, []domain.Action{domain.ActionPickup}, v.Records[0].Actions)
	assert.Equal(t, []domain.Action{domain.ActionDeliver}, v.Records[1].Actions)
	assert.Empty(t, v.Records[2].Actions)

	rec, ok := c.Find("2")
	assert.True(t, ok)
	assert.True(t, rec.IsPickedUp)
}

func TestMountAtOpensRequestedPage(t *testing.T) {
	api := &fakeAPI{totalPages: 5, perPage: 2}
	c := New(api.fetch, Config{})

	require.NoError(t, c.MountAt(context.Background(), 3))
	assert.Equal(t, 1, api.calls())
	assert.Equal(t, 3, api.last().PageNumber)
	assert.Equal(t, 3, c.State().CurrentPage)
}

func TestOpenFetchesOnceEvenPastTheEnd(t *testing.T) {
	api := &fakeAPI{totalPages: 2, perPage: 2}
	c := New(api.fetch, Config{})

	require.NoError(t, c.Open(context.Background(), 9))
	assert.Equal(t, 1, api.calls())
	assert.Equal(t, 9, api.last().PageNumber)
	assert.Equal(t, StatusEmpty, c.View().Status)

	_, ok := c.Find("1")
	assert.False(t, ok)
}

func TestMountAtClampsPastTheEnd(t *testing.T) {
	api := &fakeAPI{totalPages: 2, perPage: 2}
	c := New(api.fetch, Config{})

	require.NoError(t, c.MountAt(context.Background(), 9))
	assert.Equal(t, 2, api.calls())
	assert.Equal(t, 2, api.last().PageNumber)
	assert.Equal(t, 2, c.State().CurrentPage)

	require.NoError(t, c.MountAt(context.Background(), -4))
	assert.Equal(t, 1, api.last().PageNumber)
}
