package updates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muezzin/muezzin/pkg/logger"
)

func TestLatest(t *testing.T) {
	var path, ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, ua = r.URL.Path, r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"tag_name":"v1.4.0","name":"Muezzin 1.4.0"}`))
	}))
	defer srv.Close()

	c := NewChecker(srv.Client(), "muezzin/muezzin", WithBaseURL(srv.URL))
	tag, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if tag != "v1.4.0" {
		t.Fatalf("tag = %q", tag)
	}
	if path != "/repos/muezzin/muezzin/releases/latest" || ua != "Muezzin" {
		t.Fatalf("request path=%q ua=%q", path, ua)
	}
}

func TestLatest_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"tag_name":"v2.0.0"}`))
	}))
	defer srv.Close()

	ml := logger.NewMockLogger()
	c := NewChecker(srv.Client(), "o/r", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond), WithLogger(ml))
	tag, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if tag != "v2.0.0" || calls.Load() != 3 {
		t.Fatalf("tag=%q calls=%d", tag, calls.Load())
	}
	if len(ml.Warnings()) != 2 {
		t.Fatalf("expected 2 retry warnings, got %v", ml.Warnings())
	}
}

func TestLatest_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewChecker(srv.Client(), "o/r", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
	if _, err := c.Latest(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestLatest_Unrecoverable(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "no release", status: http.StatusNotFound, wantErr: ErrNoRelease},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "bad json", status: http.StatusOK, body: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewChecker(srv.Client(), "o/r", WithBaseURL(srv.URL), WithRetry(3, time.Millisecond))
			_, err := c.Latest(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if calls.Load() != 1 {
				t.Fatalf("calls = %d, want 1", calls.Load())
			}
		})
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"1.0.0", "v1.0.1", true},
		{"v1.2.0", "v1.10.0", true},
		{"1.2.0", "1.2", false},
		{"1.2", "1.2.1", true},
		{"2.0.0", "v1.9.9", false},
		{"1.0.0", "", false},
		{"dev", "v0.1.0", true},
		{"1.0.0-rc1", "1.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.latest, func(t *testing.T) {
			if got := IsNewer(tt.current, tt.latest); got != tt.want {
				t.Fatalf("IsNewer(%q, %q) = %v", tt.current, tt.latest, got)
			}
		})
	}
}
