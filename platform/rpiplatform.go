package platform

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/bledem/raspi-play-sound-by-ultrsasound/config"
	"github.com/bledem/raspi-play-sound-by-ultrsasound/util"
)

// Speed of sound in air at roughly 20 degrees Celsius. The echo pulse
// covers the distance twice.
const speedOfSoundCmPerSec = 34300.0

// RaspberryPiPlatform drives a real HC-SR04 sensor over the Pi's GPIO
// pins.
type RaspberryPiPlatform struct {
	*abstractPlatform
	trigPin   rpio.Pin
	echoPin   rpio.Pin
	readyChan chan bool
}

func NewRaspberryPiPlatform(conf *config.Config) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{
		readyChan: make(chan bool),
	}
	inst.abstractPlatform = newAbstractPlatform(conf)
	return inst
}

func (s *RaspberryPiPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *RaspberryPiPlatform) Start() error {
	slog.Info("Initialise GPIO...")
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}

	s.trigPin = rpio.Pin(s.config.Sensor.TriggerPin)
	s.trigPin.Output()
	s.trigPin.Low()

	s.echoPin = rpio.Pin(s.config.Sensor.EchoPin)
	s.echoPin.Input()

	// Let the sensor settle after the trigger pin was pulled low.
	time.Sleep(s.config.Sensor.SettleTime.Duration())

	if s.sensorViewer != nil {
		s.sensorWg.Add(1)
		go s.sensorViewer.Start(s.sensorStopChan, &s.sensorWg)
	}

	s.sensorWg.Add(1)
	go s.sensorDriver()

	close(s.readyChan) // For RPi, we are ready immediately.
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	s.setInShutdown()

	close(s.sensorStopChan)
	s.sensorWg.Wait()

	// Now, safely release the hardware
	s.trigPin.Low()
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing rpio", "error", err)
	}
}

// sensorDriver runs one measurement per LoopDelay tick and publishes
// every result, failed cycles included.
func (s *RaspberryPiPlatform) sensorDriver() {
	defer s.sensorWg.Done()
	ticker := time.NewTicker(s.config.Sensor.LoopDelay.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-s.sensorStopChan:
			slog.Info("Ending SensorDriver go-routine (RPi)")
			return
		case <-ticker.C:
			distance, err := s.measure()
			if err != nil {
				s.publish(util.NewFailedReading(err, time.Now()))
				continue
			}
			s.publish(util.NewReading(distance, time.Now()))
		}
	}
}

// measure runs a single HC-SR04 cycle: a 10us pulse on the trigger pin,
// then timing how long the echo pin stays high. The echo timeout bounds
// both waits so a disconnected sensor cannot stall the loop.
func (s *RaspberryPiPlatform) measure() (float64, error) {
	s.trigPin.High()
	time.Sleep(10 * time.Microsecond)
	s.trigPin.Low()

	deadline := time.Now().Add(s.config.Sensor.EchoTimeout.Duration())

	for s.echoPin.Read() == rpio.Low {
		if time.Now().After(deadline) {
			return 0, ErrEchoTimeout
		}
	}
	start := time.Now()
	for s.echoPin.Read() == rpio.High {
		if time.Now().After(deadline) {
			return 0, ErrEchoTimeout
		}
	}
	elapsed := time.Since(start)

	distance := pulseToDistanceCm(elapsed)
	if distance < s.config.Sensor.MinRangeCm || distance > s.config.Sensor.MaxRangeCm {
		return 0, fmt.Errorf("%w: %.1f cm", ErrOutOfRange, distance)
	}
	return distance, nil
}

// pulseToDistanceCm converts an echo pulse width to a one-way distance.
func pulseToDistanceCm(pulse time.Duration) float64 {
	return pulse.Seconds() * speedOfSoundCmPerSec / 2
}
