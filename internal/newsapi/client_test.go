package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfeld/newsvault/internal/news"
)

func testQuery() news.Query {
	return news.Query{
		Title:    `"Deep Learning"`,
		From:     "2025-01-01",
		To:       "2025-01-30",
		Language: "en",
		SortBy:   "publishedAt",
		PageSize: 100,
	}
}

func TestClientSearchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, `"Deep Learning"`, q.Get("qInTitle"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "100", q.Get("pageSize"))
		assert.Equal(t, "secret", q.Get("apiKey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":1,"articles":[{"title":"t","url":"https://t"}]}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	out := client.Search(context.Background(), testQuery(), 2)

	require.Equal(t, news.OutcomeSuccess, out.Kind)
	require.NotNil(t, out.Page)
	assert.Equal(t, 1, out.Page.TotalResults)
	assert.Greater(t, out.Elapsed, time.Duration(0))
}

func TestClientSearchRateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"too many requests"}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	out := client.Search(context.Background(), testQuery(), 1)

	assert.Equal(t, news.OutcomeRateLimited, out.Kind)
	assert.Nil(t, out.Page)
}

func TestClientSearchResultLimitWithPartialPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUpgradeRequired)
		_, _ = w.Write([]byte(`{"status":"error","code":"maximumResultsReached",` +
			`"message":"limited to a max of 100 results",` +
			`"articles":[{"title":"partial","url":"https://partial"}]}`))
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	out := client.Search(context.Background(), testQuery(), 3)

	require.Equal(t, news.OutcomeResultLimit, out.Kind)
	require.NotNil(t, out.Page)
	assert.Equal(t, "partial", out.Page.Articles[0].Title)
}

func TestClientSearchTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	srv.Close() // refuse connections

	client := New(Config{BaseURL: srv.URL, APIKey: "secret", Timeout: time.Second}, nil)
	out := client.Search(context.Background(), testQuery(), 1)

	assert.Equal(t, news.OutcomeFailure, out.Kind)
	assert.Nil(t, out.Page)
}

func TestClientSearchTimeoutIsFailure(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	client := New(Config{BaseURL: srv.URL, APIKey: "secret", Timeout: 50 * time.Millisecond}, nil)
	out := client.Search(context.Background(), testQuery(), 1)

	assert.Equal(t, news.OutcomeFailure, out.Kind)
}
