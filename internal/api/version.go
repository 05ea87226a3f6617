package api

import (
	"context"
	"errors"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/updates"
)

// ErrNoUpdateChecker is returned when update checks are disabled.
var ErrNoUpdateChecker = errors.New("update checks are disabled")

// Version returns the daemon's build information.
func (s *Api) Version() *common.VersionResponse {
	v := s.version
	return &v
}

// CheckForUpdates compares the running version with the latest release.
func (s *Api) CheckForUpdates(ctx context.Context) (*common.UpdateResponse, error) {
	if s.updates == nil {
		return nil, ErrNoUpdateChecker
	}
	latest, err := s.updates.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return &common.UpdateResponse{
		Current:   s.version.Version,
		Latest:    latest,
		Available: updates.IsNewer(s.version.Version, latest),
	}, nil
}
