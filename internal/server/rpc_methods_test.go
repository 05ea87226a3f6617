package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/creachadair/jrpc2"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/api"
	"github.com/muezzin/muezzin/internal/audio"
	"github.com/muezzin/muezzin/internal/geo"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
	"github.com/muezzin/muezzin/internal/updates"
)

func TestRPC_Unauthorized(t *testing.T) {
	ts := newTestHTTPServer(t)
	code, resp := rpcCall(t, ts.srv.Handler(), common.MethodSystemGetVersion, nil, "")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if got := rpcErrorCode(t, resp); got != -32600 {
		t.Fatalf("expected -32600, got %d", got)
	}
}

func TestRPC_SystemGetVersion(t *testing.T) {
	ts := newTestHTTPServer(t)
	code, resp := rpcCall(t, ts.srv.Handler(), common.MethodSystemGetVersion, nil, testSecret)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	result := rpcResult(t, resp)
	if result["version"] != "1.0.0" || result["commit"] != "abc123" {
		t.Fatalf("unexpected version result %v", result)
	}
}

func TestRPC_MethodNotFound(t *testing.T) {
	ts := newTestHTTPServer(t)
	_, resp := rpcCall(t, ts.srv.Handler(), "download.add", nil, testSecret)
	if got := rpcErrorCode(t, resp); got != int(jrpc2.MethodNotFound) {
		t.Fatalf("expected method not found, got %d", got)
	}
}

func TestRPC_NotInitialized(t *testing.T) {
	ts := newTestHTTPServer(t)
	for _, method := range []string{
		common.MethodScheduleGet,
		common.MethodScheduleMonth,
		common.MethodPrayerNext,
		common.MethodQiblaGet,
	} {
		t.Run(method, func(t *testing.T) {
			_, resp := rpcCall(t, ts.srv.Handler(), method, nil, testSecret)
			if got := rpcErrorCode(t, resp); got != int(codeNotInitialized) {
				t.Fatalf("expected %d, got %d (%v)", codeNotInitialized, got, resp)
			}
		})
	}
}

func TestRPC_LocationUpdate(t *testing.T) {
	tests := []struct {
		name   string
		params common.LocationParams
		code   int
	}{
		{"bad latitude", common.LocationParams{Latitude: 95, Timezone: "UTC"}, int(codeInvalidParams)},
		{"missing timezone", common.LocationParams{Latitude: 10}, int(codeInvalidParams)},
		{"unknown timezone", common.LocationParams{Latitude: 10, Timezone: "Nowhere/City"}, int(codeTimezone)},
		{"valid", common.LocationParams{Latitude: 21.42, Longitude: 39.83, Timezone: "Asia/Riyadh"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestHTTPServer(t)
			_, resp := rpcCall(t, ts.srv.Handler(), common.MethodLocationUpdate, tt.params, testSecret)
			if got := rpcErrorCode(t, resp); got != tt.code {
				t.Fatalf("expected code %d, got %d (%v)", tt.code, got, resp)
			}
			if initialized := ts.api.Resolver().Initialized(); initialized != (tt.code == 0) {
				t.Fatalf("initialized = %v", initialized)
			}
		})
	}
}

func TestRPC_ScheduleGet(t *testing.T) {
	ts := newTestHTTPServer(t)
	ts.configure(t)

	_, resp := rpcCall(t, ts.srv.Handler(), common.MethodScheduleGet, map[string]any{"date": "2024-03-15"}, testSecret)
	result := rpcResult(t, resp)
	if result["date"] != "2024-03-15" || result["timezone"] != "UTC" {
		t.Fatalf("unexpected schedule %v", result)
	}
	times, ok := result["times"].(map[string]any)
	if !ok {
		t.Fatalf("missing times in %v", result)
	}
	if times["dhuhr"] != "2024-03-15T12:30:00Z" {
		t.Fatalf("dhuhr = %v", times["dhuhr"])
	}

	_, resp = rpcCall(t, ts.srv.Handler(), common.MethodScheduleGet, map[string]any{"date": "15.03.2024"}, testSecret)
	if got := rpcErrorCode(t, resp); got != int(codeInvalidParams) {
		t.Fatalf("expected invalid params, got %d", got)
	}
}

func TestRPC_ScheduleMonth(t *testing.T) {
	ts := newTestHTTPServer(t)
	ts.configure(t)

	_, resp := rpcCall(t, ts.srv.Handler(), common.MethodScheduleMonth, map[string]any{"month": "2024-02"}, testSecret)
	result := rpcResult(t, resp)
	rows, ok := result["rows"].([]any)
	if !ok || len(rows) != 29 {
		t.Fatalf("expected 29 rows, got %v", result["rows"])
	}
}

func TestRPC_Settings(t *testing.T) {
	ts := newTestHTTPServer(t)
	h := ts.srv.Handler()

	_, resp := rpcCall(t, h, common.MethodSettingsGet, nil, testSecret)
	result := rpcResult(t, resp)
	if result["adhan_check"] != true {
		t.Fatalf("expected default settings, got %v", result)
	}

	st := settings.Default()
	st.AdhanCheck = false
	_, resp = rpcCall(t, h, common.MethodSettingsUpdate, st, testSecret)
	rpcResult(t, resp)

	_, resp = rpcCall(t, h, common.MethodSettingsGet, nil, testSecret)
	if rpcResult(t, resp)["adhan_check"] != false {
		t.Fatal("settings update was not persisted")
	}

	st.Calculation.Method = "nope"
	_, resp = rpcCall(t, h, common.MethodSettingsUpdate, st, testSecret)
	if got := rpcErrorCode(t, resp); got != int(codeInvalidParams) {
		t.Fatalf("expected invalid params, got %d", got)
	}
}

func TestRPC_CustomTimesAndJumuah(t *testing.T) {
	ts := newTestHTTPServer(t)
	ts.configure(t)
	h := ts.srv.Handler()

	_, resp := rpcCall(t, h, common.MethodCustomTimesUpdate, map[string]any{"enabled": true, "fajr": "4:61"}, testSecret)
	if got := rpcErrorCode(t, resp); got != int(codeInvalidParams) {
		t.Fatalf("expected invalid params, got %d", got)
	}
	_, resp = rpcCall(t, h, common.MethodJumuahUpdate, map[string]any{"enabled": true, "time": "13:15"}, testSecret)
	rpcResult(t, resp)

	_, resp = rpcCall(t, h, common.MethodScheduleGet, map[string]any{"date": "2024-03-15"}, testSecret)
	times := rpcResult(t, resp)["times"].(map[string]any)
	if times["dhuhr"] != "2024-03-15T13:15:00Z" {
		t.Fatalf("friday dhuhr = %v", times["dhuhr"])
	}
}

func TestRPC_Audio(t *testing.T) {
	ts := newTestHTTPServer(t)
	h := ts.srv.Handler()

	_, resp := rpcCall(t, h, common.MethodAudioPlay, map[string]any{"path": "/tmp/adhan.mp3"}, testSecret)
	rpcResult(t, resp)
	if !ts.player.status.Playing || ts.player.status.Path != "/tmp/adhan.mp3" {
		t.Fatalf("player status %+v", ts.player.status)
	}

	_, resp = rpcCall(t, h, common.MethodAudioPause, nil, testSecret)
	rpcResult(t, resp)
	_, resp = rpcCall(t, h, common.MethodAudioSetVolume, map[string]any{"volume": 0.4}, testSecret)
	rpcResult(t, resp)

	_, resp = rpcCall(t, h, common.MethodAudioStatus, nil, testSecret)
	status := rpcResult(t, resp)
	if status["paused"] != true || status["volume"] != 0.4 {
		t.Fatalf("status = %v", status)
	}

	_, resp = rpcCall(t, h, common.MethodAudioSetVolume, map[string]any{"volume": 1.5}, testSecret)
	if got := rpcErrorCode(t, resp); got != int(codeInvalidParams) {
		t.Fatalf("expected invalid params, got %d", got)
	}

	_, resp = rpcCall(t, h, common.MethodAudioStop, nil, testSecret)
	rpcResult(t, resp)
	if ts.player.status.Playing {
		t.Fatal("player still playing after stop")
	}
}

func TestRPC_CheckUpdatesDisabled(t *testing.T) {
	ts := newTestHTTPServer(t)
	_, resp := rpcCall(t, ts.srv.Handler(), common.MethodSystemCheckUpdates, nil, testSecret)
	if got := rpcErrorCode(t, resp); got != int(codeNetwork) {
		t.Fatalf("expected network code, got %d", got)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want jrpc2.Code
	}{
		{"invalid params", fmt.Errorf("%w: bad date", api.ErrInvalidParams), codeInvalidParams},
		{"invalid coordinates", schedule.ErrInvalidCoordinates, codeInvalidParams},
		{"not initialized", fmt.Errorf("wrapped: %w", schedule.ErrNotInitialized), codeNotInitialized},
		{"timezone", &schedule.TimezoneError{Name: "X", Err: errors.New("unknown")}, codeTimezone},
		{"calculation", &schedule.CalculationError{Date: "2024-01-01", Err: errors.New("nan")}, codeCalculation},
		{"audio", &audio.Error{Op: "play", Err: errors.New("exit 1")}, codeAudio},
		{"no player", audio.ErrNoPlayer, codeAudio},
		{"storage", &settings.StorageError{Op: "get", Key: "settings", Err: errors.New("io")}, codeStorage},
		{"store closed", settings.ErrClosed, codeStorage},
		{"network", &geo.NetworkError{URL: "http://x", Status: 500}, codeNetwork},
		{"no release", updates.ErrNoRelease, codeNetwork},
		{"no locator", api.ErrNoLocator, codeNetwork},
		{"other", errors.New("boom"), codeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Fatalf("errorCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRPCError_Nil(t *testing.T) {
	if err := rpcError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
