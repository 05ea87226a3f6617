// Package api implements the daemon's operations on top of the resolver,
// the settings store and the audio player. Transports in internal/server
// expose these methods; the package itself knows nothing about JSON-RPC.
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/audio"
	"github.com/muezzin/muezzin/internal/geo"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/internal/settings"
	"github.com/muezzin/muezzin/pkg/logger"
)

// ErrInvalidParams marks caller input that failed validation.
var ErrInvalidParams = errors.New("invalid params")

// Locator resolves the host's approximate location.
type Locator interface {
	Lookup(ctx context.Context) (geo.LocationInfo, error)
}

// ReleaseChecker reports the latest published release tag.
type ReleaseChecker interface {
	Latest(ctx context.Context) (string, error)
}

// Options are the collaborators of an Api. Locator and Updates may be nil.
type Options struct {
	Logger   logger.Logger
	Store    settings.Store
	Resolver *schedule.Resolver
	Player   audio.Player
	Locator  Locator
	Updates  ReleaseChecker
	Version  common.VersionResponse

	// OnReconfigure is called after the resolver picked up new state.
	OnReconfigure func()
}

type Api struct {
	log      logger.Logger
	store    settings.Store
	resolver *schedule.Resolver
	player   audio.Player
	locator  Locator
	updates  ReleaseChecker
	version  common.VersionResponse
	now      func() time.Time

	onReconfigure func()

	// cfgMu serializes store writes with the reload that follows them.
	cfgMu sync.Mutex
}

func NewApi(opts Options) (*Api, error) {
	if opts.Store == nil || opts.Resolver == nil || opts.Player == nil {
		return nil, errors.New("api: store, resolver and player are required")
	}
	l := opts.Logger
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Api{
		log:           l,
		store:         opts.Store,
		resolver:      opts.Resolver,
		player:        opts.Player,
		locator:       opts.Locator,
		updates:       opts.Updates,
		version:       opts.Version,
		now:           time.Now,
		onReconfigure: opts.OnReconfigure,
	}, nil
}

// Resolver returns the resolver the Api reconfigures.
func (s *Api) Resolver() *schedule.Resolver {
	return s.resolver
}

// Close stops playback and closes the store.
func (s *Api) Close() error {
	s.player.Stop()
	return s.store.Close()
}
