package apihttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClientDoSetsRequiredHeaders(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "key-1" {
			t.Errorf("unexpected X-API-Key: %q", got)
		}
		if got := r.Header.Get("X-Actor-Tg-Id"); got != "777001" {
			t.Errorf("unexpected X-Actor-Tg-Id: %q", got)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "idem-1" {
			t.Errorf("unexpected Idempotency-Key: %q", got)
		}
		if _, err := uuid.Parse(r.Header.Get("X-Request-Id")); err != nil {
			t.Errorf("X-Request-Id is not a uuid: %q", r.Header.Get("X-Request-Id"))
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected Content-Type: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "key-1", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := WithIdempotencyKey(WithActorTGID(context.Background(), 777001), "idem-1")
	status, response, err := client.do(ctx, http.MethodPost, "posts", []byte(`{"x":1}`))
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	if strings.TrimSpace(string(response)) != `{"ok":true}` {
		t.Fatalf("unexpected response body: %s", string(response))
	}
}

func TestClientDoClassifiesHTTPStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		status    int
		body      string
		transient bool
		message   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`, transient: true, message: "boom"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"Invalid credentials"}`, message: "Invalid credentials"},
		{name: "forbidden", status: http.StatusForbidden, body: `{"error":"Account is suspended"}`, message: "Account is suspended"},
		{name: "plain text", status: http.StatusBadRequest, body: "bad input", message: "bad input"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client, err := NewClient(server.URL, "", time.Second)
			if err != nil {
				t.Fatalf("new client: %v", err)
			}

			err = client.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil)
			if err == nil {
				t.Fatalf("expected error for status %d", tc.status)
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected RequestError, got %T", err)
			}
			if reqErr.Transient != tc.transient {
				t.Fatalf("transient mismatch: got=%v want=%v", reqErr.Transient, tc.transient)
			}
			if ErrorMessage(err) != tc.message {
				t.Fatalf("unexpected message: %q", ErrorMessage(err))
			}
			if StatusCode(err) != tc.status {
				t.Fatalf("unexpected status: %d", StatusCode(err))
			}
		})
	}
}

func TestClientDoClassifiesTimeoutAsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(120 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "", 30*time.Millisecond)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTransient(err) {
		t.Fatalf("expected timeout to be transient, got err=%v", err)
	}
	if StatusCode(err) != 0 {
		t.Fatalf("timeout must not carry a status code")
	}
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "localhost:5000", "://bad"} {
		if _, err := NewClient(raw, "", time.Second); err == nil {
			t.Fatalf("expected error for base url %q", raw)
		}
	}
}

func TestIsSuspended(t *testing.T) {
	t.Parallel()

	suspended := &RequestError{Op: "x", StatusCode: http.StatusForbidden, Message: "Your account is suspended"}
	if !IsSuspended(suspended) {
		t.Fatalf("expected suspended 403 to be detected")
	}
	forbidden := &RequestError{Op: "x", StatusCode: http.StatusForbidden, Message: "You are not authorized to delete this post"}
	if IsSuspended(forbidden) {
		t.Fatalf("ownership 403 must not count as suspension")
	}
	if IsSuspended(errors.New("Your account is suspended")) {
		t.Fatalf("plain errors must not count as suspension")
	}
}

func TestAPITimeAcceptsNaiveTimestamps(t *testing.T) {
	t.Parallel()

	var value apiTime
	if err := value.UnmarshalJSON([]byte(`"2024-03-05T10:11:12.123456"`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if value.Year() != 2024 || value.Month() != time.March || value.Hour() != 10 {
		t.Fatalf("unexpected parsed time: %s", value.Time)
	}
	if err := value.UnmarshalJSON([]byte(`null`)); err != nil || !value.IsZero() {
		t.Fatalf("null must decode to zero time")
	}
}
