package wikiapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/wikipath/core"
	"github.com/poiesic/wikipath/storage"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrEndpointRequired)

	_, err = NewClient(DefaultEndpoint, WithHTTPClient(nil))
	assert.Error(t, err)

	c, err := NewClient(DefaultEndpoint, WithUserAgent("test/1.0"), WithTimeout(time.Second), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, "test/1.0", c.userAgent)
	assert.Equal(t, time.Second, c.http.Timeout)
}

func TestClient_Resolve(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		assert.Equal(t, "1", q.Get("redirects"))
		assert.Equal(t, "2", q.Get("formatversion"))
		assert.Equal(t, "wikipath-test", r.Header.Get("User-Agent"))

		switch q.Get("titles") {
		case "USA":
			w.Write([]byte(`{"query":{"redirects":[{"from":"USA","to":"United States"}],"pages":[{"pageid":3434750,"ns":0,"title":"United States"}]}}`))
		case "Category:Physics":
			w.Write([]byte(`{"query":{"pages":[{"pageid":1,"ns":14,"title":"Category:Physics"}]}}`))
		default:
			w.Write([]byte(`{"query":{"pages":[{"ns":0,"title":"Nonexistent","missing":true}]}}`))
		}
	}, WithUserAgent("wikipath-test"))
	ctx := context.Background()

	title, err := c.Resolve(ctx, "USA")
	require.NoError(t, err)
	assert.Equal(t, "United States", title)

	_, err = c.Resolve(ctx, "Nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = c.Resolve(ctx, "Category:Physics")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClient_LinksFollowsContinue(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "links", q.Get("prop"))
		assert.Equal(t, "max", q.Get("pllimit"))
		assert.Equal(t, "0", q.Get("plnamespace"))
		assert.Equal(t, "Physics", q.Get("titles"))

		if q.Get("plcontinue") == "" {
			w.Write([]byte(`{"continue":{"plcontinue":"22939|0|Force","continue":"||"},"query":{"pages":[{"pageid":22939,"ns":0,"title":"Physics","links":[{"ns":0,"title":"Energy"},{"ns":0,"title":"Matter"}]}]}}`))
			return
		}
		assert.Equal(t, "22939|0|Force", q.Get("plcontinue"))
		w.Write([]byte(`{"query":{"pages":[{"pageid":22939,"ns":0,"title":"Physics","links":[{"ns":0,"title":"Force"},{"ns":10,"title":"Template:Physics"}]}]}}`))
	})

	links, err := c.Links(context.Background(), "Physics")
	require.NoError(t, err)
	assert.Equal(t, []core.Link{
		{Target: "Energy", DisplayText: "Energy"},
		{Target: "Matter", DisplayText: "Matter"},
		{Target: "Force", DisplayText: "Force"},
	}, links)
	assert.Equal(t, int32(2), requests.Load())
}

func TestClient_LinksOfMissingPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":[{"ns":0,"title":"Nope","missing":true}]}}`))
	})
	_, err := c.Links(context.Background(), "Nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClient_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		})
		_, err := c.Links(context.Background(), "Physics")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("malformed body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		})
		_, err := c.Resolve(context.Background(), "Physics")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("api error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"code":"maxlag","info":"Waiting for a database server"}}`))
		})
		_, err := c.Resolve(context.Background(), "Physics")
		assert.ErrorIs(t, err, ErrAPI)
		assert.ErrorContains(t, err, "maxlag")
	})
}

func TestClient_BreakerOpens(t *testing.T) {
	var requests atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithBreaker(1, time.Minute, time.Minute, 0.5))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Links(ctx, "Physics")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	_, err := c.Links(ctx, "Physics")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(3), requests.Load())
}

func TestClient_MissingPagesKeepBreakerClosed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":[{"ns":0,"title":"Nope","missing":true}]}}`))
	})
	for i := 0; i < 5; i++ {
		_, err := c.Resolve(context.Background(), "Nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}
