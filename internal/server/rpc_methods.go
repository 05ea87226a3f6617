package server

import (
	"context"
	"errors"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/api"
	"github.com/muezzin/muezzin/internal/audio"
	"github.com/muezzin/muezzin/internal/geo"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
	"github.com/muezzin/muezzin/internal/updates"
)

// Custom JSON-RPC error codes.
const (
	codeNotInitialized = jrpc2.Code(-32010)
	codeCalculation    = jrpc2.Code(-32011)
	codeTimezone       = jrpc2.Code(-32012)
	codeAudio          = jrpc2.Code(-32013)
	codeStorage        = jrpc2.Code(-32014)
	codeNetwork        = jrpc2.Code(-32015)
	codeInvalidParams  = jrpc2.Code(-32602)
	codeInternal       = jrpc2.Code(-32603)
)

// RPCServer holds the JSON-RPC method table and the HTTP bridge serving it.
// WebSocket connections reuse the same table.
type RPCServer struct {
	api     *api.Api
	methods handler.Map
	bridge  jhttp.Bridge
	closing sync.Once
}

// EmptyResult is returned by methods that have nothing to report.
type EmptyResult struct{}

func NewRPCServer(a *api.Api) *RPCServer {
	rs := &RPCServer{api: a}
	rs.methods = handler.Map{
		common.MethodScheduleGet:        handler.New(rs.scheduleGet),
		common.MethodScheduleMonth:      handler.New(rs.scheduleMonth),
		common.MethodPrayerNext:         handler.New(rs.prayerNext),
		common.MethodQiblaGet:           handler.New(rs.qiblaGet),
		common.MethodLocationUpdate:     handler.New(rs.locationUpdate),
		common.MethodLocationDetect:     handler.New(rs.locationDetect),
		common.MethodSettingsGet:        handler.New(rs.settingsGet),
		common.MethodSettingsUpdate:     handler.New(rs.settingsUpdate),
		common.MethodCustomTimesUpdate:  handler.New(rs.customTimesUpdate),
		common.MethodJumuahUpdate:       handler.New(rs.jumuahUpdate),
		common.MethodAudioPlay:          handler.New(rs.audioPlay),
		common.MethodAudioStop:          handler.New(rs.audioStop),
		common.MethodAudioPause:         handler.New(rs.audioPause),
		common.MethodAudioResume:        handler.New(rs.audioResume),
		common.MethodAudioSetVolume:     handler.New(rs.audioSetVolume),
		common.MethodAudioStatus:        handler.New(rs.audioStatus),
		common.MethodSystemGetVersion:   handler.New(rs.systemGetVersion),
		common.MethodSystemCheckUpdates: handler.New(rs.systemCheckUpdates),
		common.MethodSystemInitialize:   handler.New(rs.systemInitialize),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

func (rs *RPCServer) scheduleGet(_ context.Context, p common.ScheduleParams) (*common.ScheduleResponse, error) {
	resp, err := rs.api.Schedule(p.Date)
	return resp, rpcError(err)
}

func (rs *RPCServer) scheduleMonth(_ context.Context, p common.MonthParams) (*common.MonthResponse, error) {
	resp, err := rs.api.Month(p.Month)
	return resp, rpcError(err)
}

func (rs *RPCServer) prayerNext(_ context.Context) (*common.NextPrayerResponse, error) {
	resp, err := rs.api.NextPrayer()
	return resp, rpcError(err)
}

func (rs *RPCServer) qiblaGet(_ context.Context) (*common.QiblaResponse, error) {
	resp, err := rs.api.Qibla()
	return resp, rpcError(err)
}

func (rs *RPCServer) locationUpdate(_ context.Context, p common.LocationParams) (*EmptyResult, error) {
	if err := rs.api.UpdateLocation(p); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) locationDetect(ctx context.Context) (*settings.Location, error) {
	loc, err := rs.api.DetectLocation(ctx)
	return loc, rpcError(err)
}

func (rs *RPCServer) settingsGet(_ context.Context) (*settings.AppSettings, error) {
	st, err := rs.api.Settings()
	if err != nil {
		return nil, rpcError(err)
	}
	return &st, nil
}

func (rs *RPCServer) settingsUpdate(_ context.Context, p settings.AppSettings) (*EmptyResult, error) {
	if err := rs.api.UpdateSettings(p); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) customTimesUpdate(_ context.Context, p schedule.CustomTimes) (*EmptyResult, error) {
	if err := rs.api.UpdateCustomTimes(p); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) jumuahUpdate(_ context.Context, p schedule.JumuahTime) (*EmptyResult, error) {
	if err := rs.api.UpdateJumuahTime(p); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) audioPlay(_ context.Context, p common.PlayParams) (*EmptyResult, error) {
	if err := rs.api.PlayAdhan(p.Path); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) audioStop(_ context.Context) (*EmptyResult, error) {
	rs.api.StopAdhan()
	return &EmptyResult{}, nil
}

func (rs *RPCServer) audioPause(_ context.Context) (*EmptyResult, error) {
	if err := rs.api.PauseAdhan(); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) audioResume(_ context.Context) (*EmptyResult, error) {
	if err := rs.api.ResumeAdhan(); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) audioSetVolume(_ context.Context, p common.VolumeParams) (*EmptyResult, error) {
	if p.Volume < 0 || p.Volume > 1 {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "volume must be between 0 and 1"}
	}
	rs.api.SetVolume(p.Volume)
	return &EmptyResult{}, nil
}

func (rs *RPCServer) audioStatus(_ context.Context) (*common.AudioStatusResponse, error) {
	return rs.api.AudioStatus(), nil
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResponse, error) {
	return rs.api.Version(), nil
}

func (rs *RPCServer) systemCheckUpdates(ctx context.Context) (*common.UpdateResponse, error) {
	resp, err := rs.api.CheckForUpdates(ctx)
	return resp, rpcError(err)
}

func (rs *RPCServer) systemInitialize(ctx context.Context) (*common.InitializeResponse, error) {
	resp, err := rs.api.InitializeFirstTime(ctx)
	return resp, rpcError(err)
}

// errorCode classifies err into one of the custom codes.
func errorCode(err error) jrpc2.Code {
	var (
		tzErr    *schedule.TimezoneError
		calcErr  *schedule.CalculationError
		audioErr *audio.Error
		storeErr *settings.StorageError
		netErr   *geo.NetworkError
	)
	switch {
	case errors.Is(err, api.ErrInvalidParams), errors.Is(err, schedule.ErrInvalidCoordinates):
		return codeInvalidParams
	case errors.Is(err, schedule.ErrNotInitialized):
		return codeNotInitialized
	case errors.As(err, &tzErr):
		return codeTimezone
	case errors.As(err, &calcErr):
		return codeCalculation
	case errors.As(err, &audioErr), errors.Is(err, audio.ErrNoPlayer), errors.Is(err, audio.ErrUnsupported):
		return codeAudio
	case errors.As(err, &storeErr), errors.Is(err, settings.ErrClosed):
		return codeStorage
	case errors.As(err, &netErr), errors.Is(err, geo.ErrNoAPIKey), errors.Is(err, api.ErrNoLocator),
		errors.Is(err, updates.ErrNoRelease), errors.Is(err, api.ErrNoUpdateChecker):
		return codeNetwork
	}
	return codeInternal
}

// rpcError converts an api error into a *jrpc2.Error. nil stays nil.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	return &jrpc2.Error{Code: errorCode(err), Message: err.Error()}
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
// It is safe to call more than once.
func (rs *RPCServer) Close() {
	rs.closing.Do(func() { rs.bridge.Close() })
}
