package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bledem/raspi-play-sound-by-ultrsasound/util"
)

// debounceDelay coalesces the burst of fsnotify events editors and the
// web API produce for a single logical file update.
const debounceDelay = 200 * time.Millisecond

// WatchConfig watches the config file and publishes the runtime-safe
// subset through updates whenever the file changes and still validates.
// A broken intermediate save is logged and ignored; the previous tuning
// stays active. The goroutine ends when stop is closed.
func WatchConfig(cfile string, updates *util.AtomicEvent[*RuntimeConfig], stop chan struct{}, wg *sync.WaitGroup) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory, not the file: most editors replace the file
	// on save, which would silently break a direct file watch.
	dir := filepath.Dir(cfile)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	base := filepath.Base(cfile)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer watcher.Close()

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-stop:
				slog.Info("Ending config watcher go-routine")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounceDelay)
					timerC = timer.C
				} else {
					timer.Reset(debounceDelay)
				}
			case <-timerC:
				conf, err := ReadConfig(cfile, false, false)
				if err != nil {
					slog.Error("Ignoring config file change", "error", err)
					continue
				}
				slog.Info("Config file changed, publishing new runtime tuning",
					"alpha", conf.Filter.Alpha,
					"threshold", conf.Detection.ThresholdCm,
					"hysteresis", conf.Detection.HysteresisCm)
				updates.Send(&RuntimeConfig{
					Filter:    conf.Filter,
					Detection: conf.Detection,
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Config watcher error", "error", err)
			}
		}
	}()

	return nil
}
