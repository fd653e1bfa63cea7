package telex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/norihq/nori/config"
)

func testClient(baseURL string) *Client {
	return NewClient(config.TelexConfig{
		APIKey:  "secret",
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	})
}

func TestSendDM_PayloadAndAuth(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := testClient(srv.URL).SendDM(context.Background(), "user-1", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotPayload["type"] != "direct_message" || gotPayload["recipient_id"] != "user-1" || gotPayload["content"] != "hello" {
		t.Fatalf("unexpected payload: %+v", gotPayload)
	}
}

func TestNotify_SendsApologyOnFailure(t *testing.T) {
	var contents []string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		contents = append(contents, payload["content"])
		if calls == 1 {
			http.Error(w, "downstream unavailable", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := testClient(srv.URL).Notify(context.Background(), "user-1", "your digest")
	if err == nil {
		t.Fatal("Notify must surface the original failure")
	}
	if calls != 2 {
		t.Fatalf("expected exactly one apology attempt, got %d calls", calls)
	}
	if contents[1] != apologyMessage {
		t.Fatalf("second message should be the apology, got %q", contents[1])
	}
}

func TestNotify_NoRetryBeyondApology(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	_ = testClient(srv.URL).Notify(context.Background(), "user-1", "your digest")
	if calls != 2 {
		t.Fatalf("expected 2 calls (original + apology), got %d", calls)
	}
}

func TestNotify_SuccessSendsOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := testClient(srv.URL).Notify(context.Background(), "user-1", "your digest"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single send, got %d", calls)
	}
}
