package api

import (
	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/settings"
)

// PlayAdhan plays path, or the configured adhan when path is empty.
func (s *Api) PlayAdhan(path string) error {
	if path == "" {
		st, err := s.store.Settings()
		if err != nil {
			return err
		}
		path = st.AdhanPath
		if path == "" {
			path = settings.DefaultAdhanPath
		}
	}
	return s.player.Play(path)
}

func (s *Api) StopAdhan() {
	s.player.Stop()
}

func (s *Api) PauseAdhan() error {
	return s.player.Pause()
}

func (s *Api) ResumeAdhan() error {
	return s.player.Resume()
}

// SetVolume sets the playback volume, clamped to [0, 1].
func (s *Api) SetVolume(v float64) {
	s.player.SetVolume(v)
}

func (s *Api) AudioStatus() *common.AudioStatusResponse {
	st := s.player.Status()
	return &common.AudioStatusResponse{
		Playing: st.Playing,
		Paused:  st.Paused,
		Volume:  st.Volume,
		Path:    st.Path,
	}
}
