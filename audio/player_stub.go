//go:build !cgo

package audio

import "log/slog"

// PortAudioPlayer is a stub implementation for environments where CGO
// is disabled. The sensing loop runs as usual, only the sound is
// missing.
type PortAudioPlayer struct{}

// NewPortAudioPlayer returns a stub player that logs a warning.
func NewPortAudioPlayer(device string) (*PortAudioPlayer, error) {
	slog.Warn("Audio support is disabled in this build (requires CGO).")
	return &PortAudioPlayer{}, nil
}

func (p *PortAudioPlayer) Play(path string) error {
	slog.Info("Would play track here (audio disabled)", "track", path)
	return nil
}

func (p *PortAudioPlayer) Stop() {}

func (p *PortAudioPlayer) IsPlaying() bool {
	return false
}

func (p *PortAudioPlayer) Close() {}
