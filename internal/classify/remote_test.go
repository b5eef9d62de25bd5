package classify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRemote_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"tag":"voice","emotion":"happy","score":0.83}`))
	}))
	defer srv.Close()

	c, err := NewRemote(srv.URL, WithAPIKey("sekrit"))
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}

	got := c.Classify(context.Background(), "UklGRg==", nil)
	want := Result{Tag: "voice", Emotion: "happy", Score: 0.83}
	if got != want {
		t.Errorf("Classify = %+v, want %+v", got, want)
	}
}

func TestRemote_MissingFieldsDefault(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"tag":"music"}`))
	}))
	defer srv.Close()

	c, err := NewRemote(srv.URL)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}

	got := c.Classify(context.Background(), "x", nil)
	want := Result{Tag: "music", Emotion: "neutral", Score: 0}
	if got != want {
		t.Errorf("Classify = %+v, want %+v", got, want)
	}
}

func TestRemote_ScoreClamped(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"score":1.7}`))
	}))
	defer srv.Close()

	c, err := NewRemote(srv.URL)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if got := c.Classify(context.Background(), "x", nil); got.Score != 1 {
		t.Errorf("score = %v, want clamped to 1", got.Score)
	}
}

func TestRemote_FailuresFallBack(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"tag":`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c, err := NewRemote(srv.URL)
			if err != nil {
				t.Fatalf("NewRemote: %v", err)
			}
			if got := c.Classify(context.Background(), "x", nil); got != Fallback() {
				t.Errorf("Classify = %+v, want fallback", got)
			}
		})
	}
}

func TestRemote_Unreachable(t *testing.T) {
	t.Parallel()
	c, err := NewRemote("http://127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if got := c.Classify(context.Background(), "x", nil); got != Fallback() {
		t.Errorf("Classify = %+v, want fallback", got)
	}
}

func TestRemote_TimeoutFallsBack_SingleAttempt(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewRemote(srv.URL, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}

	start := time.Now()
	got := c.Classify(context.Background(), "x", nil)
	if got != Fallback() {
		t.Errorf("Classify = %+v, want fallback", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Classify took %v, timeout not applied", elapsed)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("endpoint called %d times, want exactly 1", n)
	}
}

func TestNewRemote_RequiresEndpoint(t *testing.T) {
	t.Parallel()
	if _, err := NewRemote(""); err == nil {
		t.Error("NewRemote with empty endpoint should fail")
	}
}
