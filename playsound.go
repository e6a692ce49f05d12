// Proximity triggered audio player. An HC-SR04 ultrasonic sensor
// watches a zone in front of the installation; when someone steps
// inside the configured threshold distance a randomly chosen track is
// played, and playback stops once they leave. Without real hardware the
// sensor is simulated in a terminal UI.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bledem/raspi-play-sound-by-ultrsasound/audio"
	c "github.com/bledem/raspi-play-sound-by-ultrsasound/config"
	"github.com/bledem/raspi-play-sound-by-ultrsasound/detect"
	"github.com/bledem/raspi-play-sound-by-ultrsasound/logging"
	pl "github.com/bledem/raspi-play-sound-by-ultrsasound/platform"
	u "github.com/bledem/raspi-play-sound-by-ultrsasound/util"
)

// App holds all the state for the application.
type App struct {
	ossignal    chan os.Signal
	stopsignal  chan struct{}
	shutdownWg  sync.WaitGroup
	cfg         *c.Config
	platform    pl.Platform
	filter      *detect.LowPassFilter
	detector    *detect.PresenceDetector
	controller  *audio.Controller
	player      audio.Player
	runtimeConf *u.AtomicEvent[*c.RuntimeConfig]
	httpServer  *http.Server
}

// NewApp creates a new App instance.
func NewApp(ossignal chan os.Signal) *App {
	return &App{
		ossignal:    ossignal,
		runtimeConf: u.NewAtomicEvent[*c.RuntimeConfig](),
	}
}

func main() {
	cfile := flag.String("config", "config.yml", "Path to the config file")
	realhw := flag.Bool("real", false, "Set to true if program runs on the real hardware")
	sensorshow := flag.Bool("show-sensor", false, "Show sensor statistics viewer (real hardware only)")
	flag.Parse()

	ossignal := make(chan os.Signal, 1)
	app := NewApp(ossignal)

	signal.Notify(ossignal, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)

	app.initialise(*cfile, *realhw, *sensorshow)

	for {
		sig := <-ossignal
		switch sig {
		case syscall.SIGHUP:
			slog.Info("Reloading configuration and restarting...")
			app.shutdown()
			logging.BufferOutput()
			app.initialise(*cfile, *realhw, *sensorshow)
		default:
			slog.Info("Shutting down...", "signal", sig)
			app.shutdown()
			if err := logging.Close(); err != nil {
				os.Exit(1)
			}
			os.Exit(0)
		}
	}
}

// initialise wires up the whole pipeline: config, logging, platform,
// detection and playback, plus the config watcher and the optional HTTP
// endpoint for runtime tuning.
func (a *App) initialise(cfile string, realhw bool, sensorshow bool) {
	cfg, err := c.ReadConfig(cfile, realhw, sensorshow)
	if err != nil {
		slog.Error("Error reading config file", "error", err)
		os.Exit(1)
	}
	a.cfg = cfg
	a.stopsignal = make(chan struct{})

	logcfg := cfg.LogSetup()
	if err := logging.Init(!realhw, logcfg.Level, logcfg.Format, logcfg.File); err != nil {
		slog.Error("Error initialising logging", "error", err)
		os.Exit(1)
	}

	a.filter = detect.NewLowPassFilter(cfg.Filter.Alpha)
	a.detector = detect.NewPresenceDetector(cfg.Detection.ThresholdCm, cfg.Detection.HysteresisCm)

	player, err := audio.NewPortAudioPlayer(cfg.Audio.Device)
	if err != nil {
		slog.Error("Error initialising audio output", "error", err)
		os.Exit(1)
	}
	a.player = player
	a.controller = audio.NewController(player, audio.NewSelector(cfg.Audio.TrackDir, cfg.Audio.Extensions, nil), cfg.Audio)

	if realhw {
		rpiPlatform := pl.NewRaspberryPiPlatform(cfg)
		if sensorshow {
			rpiPlatform.SetSensorViewer(pl.NewSensorViewer(cfg.Detection, a.ossignal, false))
		}
		a.platform = rpiPlatform
	} else {
		a.platform = pl.NewTUIPlatform(cfg, a.ossignal)
	}

	if err := a.platform.Start(); err != nil {
		slog.Error("Error starting platform", "error", err)
		os.Exit(1)
	}
	<-a.platform.Ready()

	if err := c.WatchConfig(cfile, a.runtimeConf, a.stopsignal, &a.shutdownWg); err != nil {
		slog.Error("Error starting config watcher", "error", err)
		os.Exit(1)
	}

	if cfg.Server.Enabled {
		a.startConfigServer(cfile)
	}

	a.shutdownWg.Add(1)
	go a.stateManager()

	slog.Info("Proximity player running",
		"threshold_cm", cfg.Detection.ThresholdCm,
		"hysteresis_cm", cfg.Detection.HysteresisCm,
		"tracks", cfg.Audio.TrackDir)
}

// startConfigServer exposes the runtime tuning values over HTTP so the
// threshold can be adjusted without touching the Pi.
func (a *App) startConfigServer(cfile string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/config", c.ConfigHandler(cfile))

	a.httpServer = &http.Server{Addr: a.cfg.Server.Addr, Handler: mux}
	server := a.httpServer

	a.shutdownWg.Add(1)
	go func() {
		defer a.shutdownWg.Done()
		slog.Info("Config API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Config API server failed", "error", err)
		}
	}()
}

// stateManager is the single consumer of the sensor reading stream. It
// runs every reading through the smoothing filter and the presence
// state machine and hands the resulting events to the audio controller.
// Runtime tuning updates are applied between readings, so a tick is
// never processed with half-updated parameters.
func (a *App) stateManager() {
	defer a.shutdownWg.Done()

	readings := a.platform.Readings()
	for {
		select {
		case <-a.stopsignal:
			slog.Info("Ending stateManager go-routine...")
			return
		case <-a.runtimeConf.Channel():
			a.applyRuntimeConfig(a.runtimeConf.Value())
		case r := <-readings:
			a.handleReading(r)
		}
	}
}

// handleReading advances the pipeline by one measurement cycle. Failed
// cycles are skipped entirely: the filter and the detector keep their
// state, so a flaky sensor cannot toggle playback.
func (a *App) handleReading(r *u.Reading) {
	if r.Err != nil {
		slog.Debug("Skipping failed measurement", "error", r.Err)
		return
	}

	smoothed := a.filter.Update(r.DistanceCm)
	event := a.detector.Observe(smoothed)

	slog.Debug("Distance",
		"raw_cm", r.DistanceCm,
		"smoothed_cm", smoothed,
		"state", a.detector.State())

	switch event {
	case detect.EventEntered:
		slog.Info("Object entered the zone", "smoothed_cm", smoothed)
		if err := a.controller.HandleEntered(); err != nil {
			slog.Warn("Could not start playback", "error", err)
		}
	case detect.EventLeft:
		slog.Info("Object left the zone", "smoothed_cm", smoothed)
		a.controller.HandleLeft()
	}
}

// applyRuntimeConfig retunes the filter and the detector from a changed
// config file or an HTTP update. The presence state survives a retune.
func (a *App) applyRuntimeConfig(rc *c.RuntimeConfig) {
	if rc == nil {
		return
	}
	a.filter.SetAlpha(rc.Filter.Alpha)
	a.detector.Retune(rc.Detection.ThresholdCm, rc.Detection.HysteresisCm)
	slog.Info("Runtime config applied",
		"alpha", rc.Filter.Alpha,
		"threshold_cm", rc.Detection.ThresholdCm,
		"hysteresis_cm", rc.Detection.HysteresisCm)
}

// shutdown stops everything in dependency order: first the consumers,
// then playback, then the platform that owns the hardware.
func (a *App) shutdown() {
	if a.httpServer != nil {
		if err := a.httpServer.Close(); err != nil {
			slog.Error("Error closing config API server", "error", err)
		}
		a.httpServer = nil
	}

	close(a.stopsignal)
	a.shutdownWg.Wait()

	if a.controller != nil {
		a.controller.Shutdown()
	}
	if a.player != nil {
		a.player.Close()
	}
	if a.platform != nil {
		a.platform.Stop()
	}
}
