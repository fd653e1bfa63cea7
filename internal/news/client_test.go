package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/norihq/nori/config"
	"github.com/norihq/nori/internal/intent"
)

func testClient(endpoint string) *Client {
	return NewClient(config.NewsConfig{
		APIKey:     "test-key",
		Endpoint:   endpoint,
		PageSize:   5,
		Language:   "en",
		Timeout:    5 * time.Second,
		RatePerSec: 100,
	}, nil)
}

func TestSearch_NormalizesArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "ai regulation" {
			t.Errorf("expected q=ai regulation, got %q", got)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"First","url":"https://a.example/1","source":{"name":"Example"},"description":"desc one"},
			{"title":"Second","url":"https://a.example/2","source":{}}
		]}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Search(context.Background(), intent.Query{ResolvedQuery: "ai regulation"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].Source != "Example" || got[0].Description != "desc one" {
		t.Fatalf("unexpected first article: %+v", got[0])
	}
	if got[1].Source != "" || got[1].Description != "" {
		t.Fatalf("missing fields should normalize to empty strings: %+v", got[1])
	}
}

func TestSearch_CapsAtPageSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"articles":[
			{"title":"1","url":"u1"},{"title":"2","url":"u2"},{"title":"3","url":"u3"},
			{"title":"4","url":"u4"},{"title":"5","url":"u5"}
		]}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Search(context.Background(), intent.Query{ResolvedQuery: "x y"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(got))
	}
	if got[2].Title != "3" {
		t.Fatalf("expected cap to preserve order, got %+v", got[2])
	}
}

func TestSearch_SkipsUnparseableItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"articles":[
			{"title":"good","url":"u1"},
			{"title":12345,"url":true},
			{"title":"also good","url":"u2"}
		]}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Search(context.Background(), intent.Query{ResolvedQuery: "x y"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected malformed item skipped, got %d articles", len(got))
	}
}

func TestSearch_EmptyQueryStillSendsValidQ(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`{"articles":[]}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Search(context.Background(), intent.Query{}, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQ == "" {
		t.Fatal("q parameter must never be empty")
	}
}

func TestSearch_TopicUsedWhenQueryUnset(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`{"articles":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), intent.Query{Topic: "science"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQ != "science" {
		t.Fatalf("expected topic as q, got %q", gotQ)
	}
}

func TestSearch_RegionAndRecencyParams(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Write([]byte(`{"articles":[]}`))
	}))
	defer srv.Close()

	q := intent.Query{ResolvedQuery: "markets", Region: "gb", RecencyDays: 3}
	if _, err := testClient(srv.URL).Search(context.Background(), q, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := query["country"]; len(got) != 1 || got[0] != "gb" {
		t.Fatalf("expected country=gb, got %v", got)
	}
	if got := query["from"]; len(got) != 1 || got[0] == "" {
		t.Fatalf("expected from date param, got %v", got)
	}
}

func TestSearch_Non2xxIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"error"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), intent.Query{ResolvedQuery: "x y"}, 5)
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Malformed {
		t.Fatal("status error must not be flagged malformed")
	}
}

func TestSearch_MalformedPayloadIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"articles": "not an array"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), intent.Query{ResolvedQuery: "x y"}, 5)
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !perr.Malformed {
		t.Fatal("expected malformed flag")
	}
}

func TestSearch_UnreachableProvider(t *testing.T) {
	_, err := testClient("http://127.0.0.1:1").Search(context.Background(), intent.Query{ResolvedQuery: "x y"}, 5)
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestSearch_NilCacheIsSafe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"articles":[{"title":"t","url":"u"}]}`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Search(context.Background(), intent.Query{ResolvedQuery: "x y"}, 5)
	if err != nil {
		t.Fatalf("unexpected error with nil cache: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
}
