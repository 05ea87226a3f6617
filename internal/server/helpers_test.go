package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/api"
	"github.com/muezzin/muezzin/internal/audio"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
)

const testSecret = "test-rpc-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedBackend struct{}

func (fixedBackend) Calculate(_ schedule.Coordinates, _ schedule.CalculationConfig, y int, m time.Month, d int) (schedule.PrayerTimes, error) {
	mk := func(h, min int) time.Time { return time.Date(y, m, d, h, min, 0, 0, time.UTC) }
	return schedule.PrayerTimes{
		Fajr:    mk(5, 0),
		Sunrise: mk(6, 30),
		Dhuhr:   mk(12, 30),
		Asr:     mk(15, 45),
		Maghrib: mk(18, 20),
		Isha:    mk(19, 50),
	}, nil
}

type fakePlayer struct {
	status audio.Status
}

func (p *fakePlayer) Play(path string) error {
	p.status = audio.Status{Playing: true, Path: path, Volume: p.status.Volume}
	return nil
}
func (p *fakePlayer) Stop()                { p.status.Playing = false }
func (p *fakePlayer) Pause() error         { p.status.Paused = true; return nil }
func (p *fakePlayer) Resume() error        { p.status.Paused = false; return nil }
func (p *fakePlayer) SetVolume(v float64)  { p.status.Volume = v }
func (p *fakePlayer) Volume() float64      { return p.status.Volume }
func (p *fakePlayer) IsPlaying() bool      { return p.status.Playing }
func (p *fakePlayer) Status() audio.Status { return p.status }

type testServer struct {
	srv    *HTTPServer
	api    *api.Api
	player *fakePlayer
}

// newTestHTTPServer returns a server whose resolver is not configured yet.
func newTestHTTPServer(t *testing.T, origins ...string) *testServer {
	t.Helper()
	player := &fakePlayer{}
	a, err := api.NewApi(api.Options{
		Store:    settings.NewStore(settings.NewMemoryKV()),
		Resolver: schedule.NewResolver(fixedBackend{}),
		Player:   player,
		Version:  common.VersionResponse{Version: "1.0.0", Commit: "abc123"},
	})
	if err != nil {
		t.Fatal(err)
	}
	srv := NewHTTPServer(HTTPConfig{Secret: testSecret, CORSOrigins: origins}, a, nil, nil)
	t.Cleanup(srv.rpc.Close)
	return &testServer{srv: srv, api: a, player: player}
}

func (ts *testServer) configure(t *testing.T) {
	t.Helper()
	if err := ts.api.UpdateLocation(common.LocationParams{Latitude: 51.5, Longitude: -0.12, Timezone: "UTC"}); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
}

// rpcCall sends a JSON-RPC request to handler and returns the parsed response.
func rpcCall(t *testing.T, handler http.Handler, method string, params any, authToken string) (int, map[string]any) {
	t.Helper()
	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		reqBody["params"] = params
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return rpcCallRaw(t, handler, data, authToken)
}

// rpcCallRaw posts a raw body to /jsonrpc and returns the parsed response.
func rpcCallRaw(t *testing.T, handler http.Handler, body []byte, authToken string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/jsonrpc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	resp := rr.Result()
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	var result map[string]any
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &result); err != nil {
			t.Fatalf("unmarshal response: %v (body: %s)", err, string(respBody))
		}
	}
	return rr.Code, result
}

// rpcErrorCode returns the error code of a JSON-RPC response, or 0.
func rpcErrorCode(t *testing.T, resp map[string]any) int {
	t.Helper()
	errObj, ok := resp["error"].(map[string]any)
	if !ok {
		return 0
	}
	return int(errObj["code"].(float64))
}

func rpcResult(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	if e, ok := resp["error"]; ok {
		t.Fatalf("unexpected error: %v", e)
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected object result, got %v", resp["result"])
	}
	return result
}
