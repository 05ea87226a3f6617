package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func restGet(t *testing.T, h http.Handler, path string, auth bool) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth {
		req.Header.Set("Authorization", "Bearer "+testSecret)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var body map[string]any
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal %s: %v (body: %s)", path, err, rr.Body.String())
		}
	}
	return rr.Code, body
}

func TestHealthz(t *testing.T) {
	ts := newTestHTTPServer(t)
	code, body := restGet(t, ts.srv.Handler(), "/healthz", false)
	if code != http.StatusOK || body["status"] != "ok" || body["initialized"] != false {
		t.Fatalf("healthz = %d %v", code, body)
	}

	ts.configure(t)
	_, body = restGet(t, ts.srv.Handler(), "/healthz", false)
	if body["initialized"] != true {
		t.Fatalf("healthz after configure = %v", body)
	}
}

func TestREST_Status(t *testing.T) {
	ts := newTestHTTPServer(t)
	h := ts.srv.Handler()

	if code, _ := restGet(t, h, "/api/next", false); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	code, body := restGet(t, h, "/api/next", true)
	if code != http.StatusServiceUnavailable || body["code"] != float64(codeNotInitialized) {
		t.Fatalf("expected 503 before configure, got %d %v", code, body)
	}

	ts.configure(t)
	tests := []struct {
		path string
		want int
	}{
		{"/api/schedule", http.StatusOK},
		{"/api/schedule?date=2024-03-15", http.StatusOK},
		{"/api/schedule?date=tomorrow", http.StatusBadRequest},
		{"/api/month?month=2024-02", http.StatusOK},
		{"/api/month?month=02-2024", http.StatusBadRequest},
		{"/api/next", http.StatusOK},
		{"/api/qibla", http.StatusOK},
		{"/api/audio", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if code, body := restGet(t, h, tt.path, true); code != tt.want {
				t.Fatalf("expected %d, got %d %v", tt.want, code, body)
			}
		})
	}
}

func TestREST_Schedule(t *testing.T) {
	ts := newTestHTTPServer(t)
	ts.configure(t)
	_, body := restGet(t, ts.srv.Handler(), "/api/schedule?date=2024-03-15", true)
	times := body["times"].(map[string]any)
	if times["fajr"] != "2024-03-15T05:00:00Z" {
		t.Fatalf("fajr = %v", times["fajr"])
	}
}

func TestCORS(t *testing.T) {
	ts := newTestHTTPServer(t, "https://dash.example.org")
	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:1420", true},
		{"http://127.0.0.1:5173", true},
		{"http://[::1]:8080", true},
		{"tauri://localhost", true},
		{"https://dash.example.org", true},
		{"https://evil.example.com", false},
		{"file://localhost", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/jsonrpc", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rr := httptest.NewRecorder()
			ts.srv.Handler().ServeHTTP(rr, req)

			got := rr.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Fatalf("expected origin %s to be allowed, got %q (status %d)", tt.origin, got, rr.Code)
			}
			if !tt.allowed && got != "" {
				t.Fatalf("expected origin %s to be refused, got %q", tt.origin, got)
			}
		})
	}
}

func TestHTTPServer_ServeShutdown(t *testing.T) {
	ts := newTestHTTPServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- ts.srv.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		if resp, err = http.Get(url); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ts.srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Serve returned %v", err)
	}
}

func TestHTTPServer_ShutdownBeforeStart(t *testing.T) {
	ts := newTestHTTPServer(t)
	if err := ts.srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
