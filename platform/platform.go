package platform

import (
	"errors"

	u "github.com/bledem/raspi-play-sound-by-ultrsasound/util"
)

// Platform defines the interface for abstracting away the real hardware
// from the TUI simulation.
type Platform interface {
	// Start initializes the platform (e.g., opens GPIO, or starts the TUI)
	// and begins the measurement loop.
	Start() error

	// Stop cleans up all platform resources.
	Stop()

	// Readings returns the channel the application reads distance
	// measurements from. One reading is delivered per measurement cycle,
	// failed cycles included.
	Readings() <-chan *u.Reading

	// Ready returns a channel that is closed once the platform is fully
	// operational (e.g., the TUI has finished its first draw).
	Ready() <-chan bool
}

// Sentinel errors carried by failed readings.
var (
	// ErrEchoTimeout is reported when the sensor's echo pin did not
	// produce a usable pulse within the configured timeout.
	ErrEchoTimeout = errors.New("echo timeout")

	// ErrOutOfRange is reported when a pulse was measured but the
	// resulting distance lies outside the sensor's usable range.
	ErrOutOfRange = errors.New("distance out of range")
)
