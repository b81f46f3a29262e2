package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miosa/osa-memos/client"
	"github.com/miosa/osa-memos/memo"
	"github.com/miosa/osa-memos/server"
)

func memos(n int) []memo.Memo {
	out := make([]memo.Memo, n)
	for i := range out {
		out[i] = memo.Memo{ID: fmt.Sprintf("m%02d", i), Content: "body"}
		if i%2 == 0 {
			out[i].Tags = []string{"even"}
		}
	}
	return out
}

// counting wraps the real server and counts page requests.
type counting struct {
	h     http.Handler
	pages atomic.Int64
}

func (c *counting) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/data/memos/info.json" && r.URL.Path != "/health" {
		c.pages.Add(1)
	}
	c.h.ServeHTTP(w, r)
}

func newServer(t *testing.T, n, pageSize int) (*httptest.Server, *counting) {
	t.Helper()
	h := &counting{h: server.New(memos(n), pageSize, "test", nil).Handler()}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, h
}

func ids(ms []memo.Memo) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestInfo(t *testing.T) {
	ts, _ := newServer(t, 25, 10)
	info, err := client.New(ts.URL).Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client.Info{Pages: 2, Size: 10, Count: 25}, info)
	assert.Equal(t, 3, info.PageCount())
}

func TestNewInfo(t *testing.T) {
	assert.Equal(t, client.Info{Pages: 0, Size: 10, Count: 0}, client.NewInfo(0, 10))
	assert.Equal(t, 0, client.NewInfo(0, 10).PageCount())
	assert.Equal(t, client.Info{Pages: 0, Size: 10, Count: 10}, client.NewInfo(10, 10))
	assert.Equal(t, client.Info{Pages: 1, Size: 10, Count: 11}, client.NewInfo(11, 10))
}

func TestFetchFrom_SpansPages(t *testing.T) {
	ts, _ := newServer(t, 25, 10)
	c := client.New(ts.URL)

	got, err := c.FetchFrom(context.Background(), 8, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"m08", "m09", "m10", "m11", "m12"}, ids(got))

	got, err = c.FetchFrom(context.Background(), 22, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"m22", "m23", "m24"}, ids(got), "short only at the true end")
}

func TestFetchFrom_OutOfRange(t *testing.T) {
	ts, h := newServer(t, 5, 10)
	c := client.New(ts.URL)

	for _, start := range []int{-3, 5, 50} {
		got, err := c.FetchFrom(context.Background(), start, 5)
		require.NoError(t, err)
		assert.Empty(t, got, "start %d", start)
	}
	assert.Zero(t, h.pages.Load(), "no page requests past the end")
}

func TestFetchFrom_Cached(t *testing.T) {
	ts, h := newServer(t, 30, 10)
	c := client.New(ts.URL)

	_, err := c.FetchFrom(context.Background(), 0, 10)
	require.NoError(t, err)
	_, err = c.FetchFrom(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, h.pages.Load())

	require.NoError(t, c.Close())
	_, err = c.FetchFrom(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, h.pages.Load(), "close drops the cache")
}

func TestFetchFrom_NoCache(t *testing.T) {
	ts, h := newServer(t, 30, 10)
	c := client.New(ts.URL, client.WithCacheTTL(0))
	for range 3 {
		_, err := c.FetchFrom(context.Background(), 0, 10)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, h.pages.Load())
}

func TestFetchFrom_ConcurrentCollapse(t *testing.T) {
	ts, h := newServer(t, 30, 10)
	c := client.New(ts.URL)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.FetchFrom(context.Background(), 10, 10)
			assert.NoError(t, err)
			assert.Len(t, got, 10)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, h.pages.Load(), int64(8))
	assert.GreaterOrEqual(t, h.pages.Load(), int64(1))
}

func TestFetchFrom_Tag(t *testing.T) {
	ts, _ := newServer(t, 10, 3)
	c := client.New(ts.URL, client.WithTag("even"))

	got, err := c.FetchFrom(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"m00", "m02", "m04", "m06", "m08"}, ids(got))
}

func TestPage_StatusError(t *testing.T) {
	ts, _ := newServer(t, 5, 10)
	_, err := client.New(ts.URL).Page(context.Background(), 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrStatus)
	assert.Contains(t, err.Error(), "page not found")
}

func TestHealth(t *testing.T) {
	ts, _ := newServer(t, 4, 10)
	h, err := client.New(ts.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 4, h.Count)
}

func TestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(slow.Close)

	_, err := client.New(slow.URL, client.WithTimeout(50*time.Millisecond)).Info(context.Background())
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	assert.Equal(t, "remote:http://x", client.New("http://x/").Name())
}
