package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	providerCallsTotal = nil
	providerCallDurationSeconds = nil
	articlesTotal = nil
	runsTotal = nil
	cachedArticles = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if providerCallsTotal == nil || providerCallDurationSeconds == nil ||
		articlesTotal == nil || runsTotal == nil || cachedArticles == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	// A simple check to see if a metric can be used.
	providerCallsTotal.WithLabelValues("deep-learning", "success").Inc()
	if val := testutil.ToFloat64(providerCallsTotal); val != 1 {
		t.Errorf("Expected providerCallsTotal to be 1, got %f", val)
	}
}

func TestObserveArticlesIgnoresNonPositive(t *testing.T) {
	Init()

	before := testutil.ToFloat64(articlesTotal.WithLabelValues("deep-learning", "fetched"))
	ObserveArticles("deep-learning", "fetched", 0)
	ObserveArticles("deep-learning", "fetched", -3)
	after := testutil.ToFloat64(articlesTotal.WithLabelValues("deep-learning", "fetched"))

	if before != after {
		t.Errorf("counter moved from %f to %f on non-positive input", before, after)
	}
}

func TestSetCachedArticles(t *testing.T) {
	Init()

	SetCachedArticles("deep-learning", 42)
	if val := testutil.ToFloat64(cachedArticles.WithLabelValues("deep-learning")); val != 42 {
		t.Errorf("Expected cachedArticles to be 42, got %f", val)
	}

	SetCachedArticles("deep-learning", 7)
	if val := testutil.ToFloat64(cachedArticles.WithLabelValues("deep-learning")); val != 7 {
		t.Errorf("Expected cachedArticles to be 7, got %f", val)
	}
}
