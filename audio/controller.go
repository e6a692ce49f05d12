package audio

import (
	"log/slog"
	"time"

	"github.com/nathan-osman/go-sunrise"

	c "github.com/bledem/raspi-play-sound-by-ultrsasound/config"
)

// Controller reacts to presence events: it starts a random track when
// an object enters the zone and stops playback when it leaves. It
// knows nothing about distances, only about events.
//
// Policy: one track per presence episode. When a track finishes on its
// own while the object is still present, nothing is replayed; the next
// track only starts on the next ENTERED event.
type Controller struct {
	player       Player
	selector     *Selector
	daylightOnly bool
	latitude     float64
	longitude    float64
	// now is replaceable in tests to pin the daylight gate.
	now func() time.Time

	sessionActive bool
}

// NewController wires a Controller to its player and track selector.
func NewController(player Player, selector *Selector, cfg c.AudioConfig) *Controller {
	return &Controller{
		player:       player,
		selector:     selector,
		daylightOnly: cfg.DaylightOnly,
		latitude:     cfg.Latitude,
		longitude:    cfg.Longitude,
		now:          time.Now,
	}
}

// HandleEntered starts a random track. Failures (no tracks, device
// gone) are returned for logging but leave the controller consistent;
// the presence state machine is unaffected by playback errors.
func (ct *Controller) HandleEntered() error {
	if ct.daylightOnly && !ct.isDaylight(ct.now()) {
		slog.Info("Object entered outside daylight hours, staying silent")
		return nil
	}

	track, err := ct.selector.Pick()
	if err != nil {
		return err
	}
	if err := ct.player.Play(track); err != nil {
		return err
	}
	ct.sessionActive = true
	slog.Info("Playing track", "track", track)
	return nil
}

// HandleLeft stops the current playback. Calling it without an active
// session is a no-op, so LEFT events are idempotent here.
func (ct *Controller) HandleLeft() {
	if !ct.sessionActive {
		return
	}
	ct.player.Stop()
	ct.sessionActive = false
	slog.Info("Object left, playback stopped")
}

// SessionActive reports whether a presence episode with playback is in
// progress. The flag stays set until the LEFT event even if the track
// has already finished on its own.
func (ct *Controller) SessionActive() bool {
	return ct.sessionActive
}

// Shutdown unconditionally stops playback. It is called on every exit
// path so the installation never keeps sounding after the process is
// gone.
func (ct *Controller) Shutdown() {
	ct.player.Stop()
	ct.sessionActive = false
}

// isDaylight reports whether now lies between sunrise and sunset at
// the configured coordinates.
func (ct *Controller) isDaylight(now time.Time) bool {
	rise, set := sunrise.SunriseSunset(ct.latitude, ct.longitude, now.Year(), now.Month(), now.Day())
	return now.After(rise) && now.Before(set)
}
