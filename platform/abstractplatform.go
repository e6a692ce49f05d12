package platform

import (
	"sync"

	c "github.com/bledem/raspi-play-sound-by-ultrsasound/config"
	u "github.com/bledem/raspi-play-sound-by-ultrsasound/util"
)

// abstractPlatform holds the parts shared between the real hardware and
// the TUI simulation: the reading channel, the measurement loop
// lifecycle and the optional sensor viewer.
type abstractPlatform struct {
	config         *c.Config
	readings       chan *u.Reading
	sensorWg       sync.WaitGroup
	sensorStopChan chan bool
	shutdownMutex  sync.RWMutex
	isShuttingDown bool
	sensorViewer   *SensorViewer
}

func newAbstractPlatform(conf *c.Config) *abstractPlatform {
	return &abstractPlatform{
		config:         conf,
		readings:       make(chan *u.Reading),
		sensorStopChan: make(chan bool),
	}
}

func (s *abstractPlatform) Readings() <-chan *u.Reading {
	return s.readings
}

// SetSensorViewer attaches an optional TUI viewer for the raw distance
// stream. Must be called before Start.
func (s *abstractPlatform) SetSensorViewer(v *SensorViewer) {
	s.sensorViewer = v
}

func (s *abstractPlatform) setInShutdown() {
	s.shutdownMutex.Lock()
	s.isShuttingDown = true
	s.shutdownMutex.Unlock()
}

// publish delivers a reading to the application. The select makes sure
// the measurement loop never blocks on a consumer that is already
// shutting down.
func (s *abstractPlatform) publish(r *u.Reading) {
	s.shutdownMutex.RLock()
	shuttingDown := s.isShuttingDown
	s.shutdownMutex.RUnlock()
	if shuttingDown {
		return
	}

	select {
	case s.readings <- r:
	case <-s.sensorStopChan:
	}

	if s.sensorViewer != nil {
		s.sensorViewer.Update(r)
	}
}
