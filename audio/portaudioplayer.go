//go:build cgo

package audio

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

var (
	paMutex       sync.Mutex
	paInitialized bool
)

// PortAudioPlayer plays 16-bit PCM WAV files through portaudio. One
// track plays at a time; starting a new one stops the old one.
type PortAudioPlayer struct {
	device string

	mu       sync.Mutex
	playing  bool
	stopChan chan struct{}
	doneWg   sync.WaitGroup
}

// NewPortAudioPlayer initializes portaudio and verifies that an output
// device is available. device is matched as a case-insensitive
// substring of the device name; an empty string selects the default
// output device.
func NewPortAudioPlayer(device string) (*PortAudioPlayer, error) {
	paMutex.Lock()
	defer paMutex.Unlock()
	if !paInitialized {
		if err := portaudio.Initialize(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		paInitialized = true
		slog.Info("PortAudio initialized.")
	}

	p := &PortAudioPlayer{device: strings.ToLower(device)}

	// A missing output device is a startup failure, not something to
	// discover on the first presence event.
	if _, err := p.findDevice(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PortAudioPlayer) findDevice() (*portaudio.DeviceInfo, error) {
	if p.device == "" {
		dev, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: could not list audio devices: %v", ErrDeviceUnavailable, err)
	}
	for _, device := range devices {
		if device.MaxOutputChannels > 0 && strings.Contains(strings.ToLower(device.Name), p.device) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("%w: no output device matching %q", ErrDeviceUnavailable, p.device)
}

// Play decodes the WAV file and streams it on a fresh goroutine. A
// playback already in progress is stopped first.
func (p *PortAudioPlayer) Play(path string) error {
	wav, err := decodeWavFile(path)
	if err != nil {
		return err
	}

	p.Stop()

	dev, err := p.findDevice()
	if err != nil {
		return err
	}

	buffer := make([]int16, framesPerBuffer*wav.channels)
	streamParams := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: wav.channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      float64(wav.sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(streamParams, buffer)
	if err != nil {
		return fmt.Errorf("%w: failed to open stream: %v", ErrDeviceUnavailable, err)
	}

	stopChan := make(chan struct{})
	p.mu.Lock()
	p.playing = true
	p.stopChan = stopChan
	p.mu.Unlock()

	p.doneWg.Add(1)
	go p.stream(stream, wav, buffer, stopChan)
	return nil
}

// stream pushes the samples to the device until the track ends or the
// stop channel closes.
func (p *PortAudioPlayer) stream(stream *portaudio.Stream, wav *wavData, buffer []int16, stopChan chan struct{}) {
	defer p.doneWg.Done()
	defer func() {
		stream.Stop()
		stream.Close()
		p.mu.Lock()
		if p.stopChan == stopChan {
			p.playing = false
			p.stopChan = nil
		}
		p.mu.Unlock()
	}()

	if err := stream.Start(); err != nil {
		slog.Error("Failed to start audio stream", "error", err)
		return
	}

	samples := wav.samples
	for pos := 0; pos < len(samples); pos += len(buffer) {
		select {
		case <-stopChan:
			slog.Debug("Playback stopped mid-track")
			return
		default:
		}
		n := copy(buffer, samples[pos:])
		for i := n; i < len(buffer); i++ {
			buffer[i] = 0
		}
		if err := stream.Write(); err != nil {
			// Output underflow can happen, e.g. under scheduler
			// pressure. Keep streaming.
			slog.Debug("Audio write reported", "error", err)
		}
	}
	slog.Info("Track finished")
}

// Stop ends the current playback and waits until the stream goroutine
// has released the device.
func (p *PortAudioPlayer) Stop() {
	p.mu.Lock()
	if p.playing && p.stopChan != nil {
		close(p.stopChan)
		p.stopChan = nil
		p.playing = false
	}
	p.mu.Unlock()
	p.doneWg.Wait()
}

// IsPlaying reports whether a track is currently sounding.
func (p *PortAudioPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Close stops playback and terminates portaudio.
func (p *PortAudioPlayer) Close() {
	p.Stop()
	paMutex.Lock()
	defer paMutex.Unlock()
	if paInitialized {
		if err := portaudio.Terminate(); err != nil {
			slog.Error("Failed to terminate portaudio", "error", err)
		} else {
			slog.Info("PortAudio terminated.")
			paInitialized = false
		}
	}
}
