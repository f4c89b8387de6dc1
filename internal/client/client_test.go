package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic/internal/domain/visits"
	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/pagination"
)

func TestDecodeList_BothEnvelopes(t *testing.T) {
	meta := []byte(`{"data":[{"id":"o1"},{"id":"o2"}],"meta":{"currentPage":2,"totalPages":3,"totalCount":25,"itemsPerPage":10}}`)
	legacy := []byte(`{"data":[{"id":"o1"},{"id":"o2"}],"pagination":{"page":2,"limit":10,"totalPages":3,"totalCount":25}}`)

	a, err := DecodeList[Owner](meta)
	require.NoError(t, err)
	b, err := DecodeList[Owner](legacy)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("envelopes normalize differently (-meta +legacy):\n%s", diff)
	}
	assert.Equal(t, 2, a.Page)
	assert.Equal(t, 3, a.TotalPages)
	assert.Equal(t, 25, a.TotalCount)
}

func TestDecodeList_ZeroTotalPages(t *testing.T) {
	r, err := DecodeList[Owner]([]byte(`{"data":[],"meta":{"currentPage":1,"totalPages":0,"totalCount":0,"itemsPerPage":10}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalPages)
	assert.True(t, r.IsEmpty())

	// sin metadata: una página, vacío según items
	r, err = DecodeList[Owner]([]byte(`{"data":[{"id":"o1"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, r.TotalPages)
	assert.Equal(t, 1, r.TotalCount)
	assert.False(t, r.IsEmpty())
}

func TestList_SendsQueryAndHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/owners", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "ana", r.URL.Query().Get("search"))
		assert.False(t, r.URL.Query().Has("species"))
		assert.Equal(t, "u-1", r.Header.Get("X-Debug-User-ID"))
		_, _ = w.Write([]byte(`{"data":[{"id":"o1","fullName":"Ana Paz"}],"meta":{"currentPage":2,"totalPages":2,"totalCount":11,"itemsPerPage":10}}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, time.Second, WithDebugUser("u-1", "STAFF", "c-1"))
	require.NoError(t, err)

	q := pagination.New().WithSearch("ana").WithFilter("species", "ALL").WithPage(2)
	res, err := c.Owners(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Ana Paz", res.Items[0].FullName)
}

func TestCreateVisit_InvalidNeverHitsNetwork(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"v1"}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL, time.Second)
	require.NoError(t, err)

	_, err = c.CreateVisit(context.Background(), visits.CreateRequest{
		PetID: "p1", VisitDate: time.Now(), VisitType: "checkup", IsReminderEnabled: true,
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Zero(t, hits.Load())

	v, err := c.CreateVisit(context.Background(), visits.CreateRequest{
		PetID: "p1", VisitDate: time.Now(), VisitType: "checkup",
	})
	require.NoError(t, err)
	assert.Equal(t, "v1", v.ID)
	assert.Equal(t, int32(1), hits.Load())
}

func TestErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/clinics" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"forbidden"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c, err := New(ts.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Clinics(context.Background(), pagination.New())
	assert.Equal(t, "forbidden", ErrorMessage(err))

	_, err = c.Users(context.Background(), pagination.New())
	assert.Equal(t, GenericError, ErrorMessage(err))
}

type collector struct {
	mu     sync.Mutex
	states []State[string]
}

func (c *collector) add(s State[string]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, s)
}

func (c *collector) all() []State[string] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]State[string](nil), c.states...)
}

func TestListSession_LastRequestWins(t *testing.T) {
	release := make(chan struct{})
	fetch := func(ctx context.Context, q pagination.Query) (ListResult[string], error) {
		if q.Filter("species") == "dog" {
			<-release // el primero tarda más que el segundo
		}
		return ListResult[string]{Items: []string{q.Filter("species")}}, nil
	}

	col := &collector{}
	s := NewListSession(context.Background(), pagination.New(), fetch, col.add, 10*time.Millisecond)

	s.SetFilter("species", "dog")
	s.SetFilter("species", "cat")
	assert.Eventually(t, func() bool { return len(col.all()) == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	s.Close()

	got := col.all()
	require.Len(t, got, 1)
	assert.Equal(t, []string{"cat"}, got[0].Result.Items)
}

func TestListSession_SearchDebouncedAndResetsPage(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, q pagination.Query) (ListResult[string], error) {
		calls.Add(1)
		return ListResult[string]{Items: []string{q.Search}}, nil
	}

	col := &collector{}
	s := NewListSession(context.Background(), pagination.New().WithPage(3), fetch, col.add, 20*time.Millisecond)
	defer s.Close()

	for _, text := range []string{"m", "mi", "mil", "milo"} {
		s.SetSearch(text)
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	s.Wait()

	assert.Equal(t, int32(1), calls.Load())
	got := col.all()
	require.Len(t, got, 1)
	assert.Equal(t, "milo", got[0].Query.Search)
	assert.Equal(t, 1, got[0].Query.Page)
}

func TestListSession_RefetchIsManual(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, q pagination.Query) (ListResult[string], error) {
		if calls.Add(1) == 1 {
			return ListResult[string]{}, errors.New("network down")
		}
		return ListResult[string]{Items: []string{"ok"}}, nil
	}

	col := &collector{}
	s := NewListSession(context.Background(), pagination.New(), fetch, col.add, 10*time.Millisecond)
	defer s.Close()

	s.SetPage(2)
	s.Wait()
	require.Len(t, col.all(), 1)
	require.Error(t, col.all()[0].Err)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	s.Refetch()
	s.Wait()
	got := col.all()
	require.Len(t, got, 2)
	assert.NoError(t, got[1].Err)
	assert.Equal(t, 2, got[1].Query.Page)
}

func TestListSession_NothingRunsAfterClose(t *testing.T) {
	var calls atomic.Int32
	fetch := func(ctx context.Context, q pagination.Query) (ListResult[string], error) {
		calls.Add(1)
		return ListResult[string]{Items: []string{"ok"}}, nil
	}

	col := &collector{}
	s := NewListSession(context.Background(), pagination.New(), fetch, col.add, time.Millisecond)

	// Cambios concurrentes mientras se cierra la sesión.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 1; ; n++ {
				select {
				case <-stop:
					return
				default:
				}
				switch i % 3 {
				case 0:
					s.SetSearch("milo")
				case 1:
					s.SetPage(n%5 + 1)
				default:
					s.Refetch()
				}
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	s.Close()

	closedAt, delivered := calls.Load(), len(col.all())
	close(stop)
	wg.Wait()

	s.SetFilter("species", "dog")
	s.SetSearch("late")
	s.Refetch()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, closedAt, calls.Load())
	assert.Equal(t, delivered, len(col.all()))
}
