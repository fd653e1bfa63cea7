package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "try again", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	c := New(time.Second, 2, time.Millisecond)
	var out struct {
		Value string `json:"value"`
	}
	if err := c.DoJSON(context.Background(), "GET", srv.URL, nil, nil, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if out.Value != "ok" {
		t.Fatalf("unexpected body: %+v", out)
	}
}

func TestDoJSON_NoRetryOnClientError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(time.Second, 3, time.Millisecond)
	err := c.DoJSON(context.Background(), "GET", srv.URL, nil, nil, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", se.Code)
	}
	if calls != 1 {
		t.Fatalf("4xx must not retry, got %d attempts", calls)
	}
}

func TestDoJSON_ResendsBodyOnRetry(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		bodies = append(bodies, string(buf[:n]))
		if len(bodies) == 1 {
			http.Error(w, "hiccup", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(time.Second, 1, time.Millisecond)
	err := c.DoJSON(context.Background(), "POST", srv.URL, nil, map[string]string{"inputs": "text"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bodies) != 2 || bodies[0] != bodies[1] {
		t.Fatalf("body must be identical across retries: %q", bodies)
	}
}

func TestDoJSONRaw_ReturnsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"bare string"`))
	}))
	defer srv.Close()

	raw, err := New(time.Second, 0, 0).DoJSONRaw(context.Background(), "GET", srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `"bare string"` {
		t.Fatalf("unexpected raw payload: %s", raw)
	}
}
