package platform

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gammazero/deque"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	c "github.com/bledem/raspi-play-sound-by-ultrsasound/config"
	u "github.com/bledem/raspi-play-sound-by-ultrsasound/util"
)

const (
	maxSensorHistory = 500
	viewerTitle      = " Distance Sensor Viewer "
)

// SensorViewer is a TUI component for displaying real-time distance
// readings and their statistics over a sliding window. It is used to
// calibrate the detection threshold against the real installation.
type SensorViewer struct {
	tuiApp      *tview.Application
	view        *tview.TextView
	history     *deque.Deque[float64]
	failedCount int
	detection   c.DetectionConfig
	mu          sync.Mutex
	ossignal    chan os.Signal
	devMode     bool
}

type distanceStats struct {
	min    float64
	max    float64
	mean   float64
	median float64
	stdDev float64
}

// NewSensorViewer creates and initializes a new SensorViewer.
func NewSensorViewer(detection c.DetectionConfig, ossignal chan os.Signal, devMode bool) *SensorViewer {
	sv := &SensorViewer{
		tuiApp:    tview.NewApplication(),
		history:   new(deque.Deque[float64]),
		detection: detection,
		ossignal:  ossignal,
		devMode:   devMode,
	}
	sv.history.Grow(maxSensorHistory)
	return sv
}

// Start initializes and runs the TUI. It should be called as a goroutine.
func (sv *SensorViewer) Start(stopSignal chan bool, wg *sync.WaitGroup) {
	defer wg.Done()

	sv.setupUI()

	// Goroutine to handle shutdown
	go func() {
		<-stopSignal
		slog.Info("Stopping SensorViewer TUI...")
		sv.tuiApp.Stop()
	}()

	if err := sv.tuiApp.Run(); err != nil {
		slog.Error("Error running SensorViewer TUI", "error", err)
		os.Exit(1)
	}
	slog.Info("SensorViewer TUI has stopped.")
}

// Update receives the latest reading, prepares the display strings, and
// schedules a TUI redraw. This method is safe for concurrent use.
func (sv *SensorViewer) Update(r *u.Reading) {
	sv.mu.Lock()

	if r.Valid() {
		if sv.history.Len() == maxSensorHistory {
			sv.history.PopFront()
		}
		sv.history.PushBack(r.DistanceCm)
	} else {
		sv.failedCount++
	}

	// Prepare display strings while still under the lock
	line1, line2, line3 := sv.prepareDisplayStrings(r)

	sv.mu.Unlock()

	// Redraw the view in the main TUI thread, passing the prepared data via a closure.
	sv.tuiApp.QueueUpdateDraw(func() {
		sv.draw(line1, line2, line3)
	})
}

// RunSensorDataGenForDev is used only during development of this
// component to feed random data to the SensorViewer without the need
// for real hardware.
func (sv *SensorViewer) RunSensorDataGenForDev(loopDelay time.Duration, stopSignal chan bool, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(loopDelay)
	defer ticker.Stop()

	for {
		select {
		case <-stopSignal:
			slog.Info("Ending sensor data generator...")
			return
		case <-ticker.C:
			sv.Update(u.NewReading(rand.Float64()*400, time.Now()))
		}
	}
}

func (sv *SensorViewer) setupUI() {
	sv.view = tview.NewTextView()
	sv.view.SetDynamicColors(true)
	sv.view.SetTextAlign(tview.AlignLeft)
	sv.view.SetBackgroundColor(tcell.ColorDarkSlateGray)
	sv.view.SetBorder(true).SetTitle(viewerTitle).SetTitleColor(tcell.ColorLightBlue)

	// Generate the intro text within the component
	var introText strings.Builder
	if !sv.devMode {
		introText.WriteString("Displaying real distance readings.\n")
	} else {
		introText.WriteString("[#ff0000]Caution:[-] Displaying random distance values for development.\n")
	}
	introText.WriteString("Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload config file and restart")

	intro := tview.NewTextView()
	intro.SetBorder(true).SetTitle(" Proximity Player ").SetTitleColor(tcell.ColorLightBlue)
	intro.SetText(introText.String())
	intro.SetTextAlign(tview.AlignCenter)
	intro.SetDynamicColors(true)
	intro.SetBackgroundColor(tcell.ColorDarkSlateGray)

	layout := tview.NewFlex().SetDirection(tview.FlexRow)
	layout.AddItem(intro, 4, 1, false)
	// The sensor view itself is 3 lines of text + 2 for the border.
	layout.AddItem(sv.view, 5, 1, true)
	layout.SetRect(1, 1, 72, 10)

	sv.tuiApp.SetRoot(layout, true).SetFocus(sv.view)
	sv.tuiApp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		key := string(event.Rune())
		switch key {
		case "q", "Q":
			sv.tuiApp.Stop()
			sv.ossignal <- os.Interrupt
		case "r", "R":
			sv.tuiApp.Stop()
			sv.ossignal <- syscall.SIGHUP
		}
		return event
	})
}

// prepareDisplayStrings generates the output strings from the current
// history. This method MUST be called with the mutex already held.
func (sv *SensorViewer) prepareDisplayStrings(latest *u.Reading) (string, string, string) {
	data := make([]float64, sv.history.Len())
	for i := range sv.history.Len() {
		data[i] = sv.history.At(i)
	}
	stats := calculateStats(data)

	var current string
	if latest.Valid() {
		current = fmt.Sprintf("[#ffff00]%6.1f cm[white]", latest.DistanceCm)
	} else {
		current = fmt.Sprintf("[#ff0000]%v[white]", latest.Err)
	}

	line1 := fmt.Sprintf("[yellow] Current:[white] %s   [yellow]Threshold:[white] %.0f cm (+%.0f rearm)",
		current, sv.detection.ThresholdCm, sv.detection.HysteresisCm)
	line2 := fmt.Sprintf("[yellow] Window:[white]  [%6.1f|%6.1f|%6.1f] [min|mean|max] over %d readings",
		stats.min, stats.mean, stats.max, len(data))
	line3 := fmt.Sprintf("[yellow] Spread:[white]  median %6.1f, stddev %5.1f, failed cycles %d",
		stats.median, stats.stdDev, sv.failedCount)
	return line1, line2, line3
}

// draw updates the TextView with the provided strings.
// This must be called from within the TUI's main thread via QueueUpdateDraw.
func (sv *SensorViewer) draw(line1, line2, line3 string) {
	sv.view.SetText(fmt.Sprintf("%s\n%s\n%s", line1, line2, line3))
}

func calculateStats(data []float64) distanceStats {
	if len(data) == 0 {
		return distanceStats{}
	}

	// Min, Max, Sum
	var sum float64
	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}

	// Mean
	mean := sum / float64(len(data))

	// Median
	sort.Float64s(data)
	var median float64
	mid := len(data) / 2
	if len(data)%2 == 0 {
		median = (data[mid-1] + data[mid]) / 2.0
	} else {
		median = data[mid]
	}

	// Standard Deviation
	var sumOfSquares float64
	for _, v := range data {
		sumOfSquares += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(sumOfSquares / float64(len(data)))

	return distanceStats{
		min:    min,
		max:    max,
		mean:   mean,
		median: median,
		stdDev: stdDev,
	}
}
