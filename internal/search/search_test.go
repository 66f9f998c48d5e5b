package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestCleanQuery(t *testing.T) {
	got := cleanQuery(`"red planet".`)
	if got != "red planet" {
		t.Fatalf("cleanQuery = %q, want %q", got, "red planet")
	}
}

func TestSearchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"hits":[{"title":"T","url":"u","description":"d","snippets":["s"]}]}`))
	}))
	defer srv.Close()

	c := New("key")
	c.RetryDelay = time.Millisecond
	refs, err := c.searchAgainst(context.Background(), srv.URL, "query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestSearchEmptyHitsDegradesWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hits":[]}`))
	}))
	defer srv.Close()

	c := New("key")
	c.RetryDelay = time.Millisecond
	refs, err := c.searchAgainst(context.Background(), srv.URL, "query")
	if err != nil {
		t.Fatalf("expected no error on empty hits, got %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected no references, got %d", len(refs))
	}
}
