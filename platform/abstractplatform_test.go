package platform

import (
	"testing"
	"time"

	c "github.com/bledem/raspi-play-sound-by-ultrsasound/config"
	u "github.com/bledem/raspi-play-sound-by-ultrsasound/util"
)

func TestPublishDeliversReading(t *testing.T) {
	ap := newAbstractPlatform(&c.Config{})

	go ap.publish(u.NewReading(42, time.Now()))

	select {
	case r := <-ap.Readings():
		if r.DistanceCm != 42 {
			t.Errorf("Expected distance 42, got %.1f", r.DistanceCm)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a reading on the channel")
	}
}

func TestPublishDoesNotBlockAfterStop(t *testing.T) {
	ap := newAbstractPlatform(&c.Config{})
	ap.setInShutdown()
	close(ap.sensorStopChan)

	done := make(chan struct{})
	go func() {
		// Nobody reads from the channel anymore.
		ap.publish(u.NewReading(42, time.Now()))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish must not block once the platform is shutting down")
	}
}

func TestPublishUnblocksOnStopSignal(t *testing.T) {
	ap := newAbstractPlatform(&c.Config{})

	done := make(chan struct{})
	go func() {
		ap.publish(u.NewReading(42, time.Now()))
		close(done)
	}()

	// Give the goroutine time to block on the send, then stop.
	time.Sleep(10 * time.Millisecond)
	close(ap.sensorStopChan)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish must return when the stop channel closes")
	}
}
