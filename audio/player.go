package audio

import "errors"

var (
	// ErrNoTracks is returned when the track directory holds no
	// playable file.
	ErrNoTracks = errors.New("no playable tracks available")

	// ErrDeviceUnavailable is returned when no usable audio output
	// device can be opened.
	ErrDeviceUnavailable = errors.New("audio output device unavailable")
)

// Player abstracts the audio output. The concrete implementation
// depends on the build: with CGO enabled a portaudio-backed WAV player
// is used, otherwise a stub that only logs.
type Player interface {
	// Play starts playback of the given file. A playback already in
	// progress is stopped first.
	Play(path string) error

	// Stop ends the current playback. It is a no-op when nothing is
	// playing.
	Stop()

	// IsPlaying reports whether a track is currently sounding.
	IsPlaying() bool

	// Close stops playback and releases the audio device.
	Close()
}
