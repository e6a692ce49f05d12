package platform

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/bledem/raspi-play-sound-by-ultrsasound/config"
	"github.com/bledem/raspi-play-sound-by-ultrsasound/logging"
	"github.com/bledem/raspi-play-sound-by-ultrsasound/util"
)

// distanceStepCm is how far one +/- keypress moves the simulated object.
const distanceStepCm = 5.0

// jitterCm is the amplitude of the noise added to the simulated
// distance so the smoothing filter has something to do.
const jitterCm = 1.5

// TUIPlatform simulates the distance sensor in a terminal UI. The
// simulated object is moved with the keyboard and the resulting
// readings flow through the exact same channel the real sensor uses.
type TUIPlatform struct {
	*abstractPlatform
	tviewapp     *tview.Application
	intro        *tview.TextView
	distView     *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal

	simMutex    sync.Mutex
	simDistance float64
	simTimeout  bool

	logFlushOnce sync.Once
	readyChan    chan bool
}

func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal) *TUIPlatform {
	inst := &TUIPlatform{
		ossignalChan: ossignalchan,
		simDistance:  conf.Sensor.MaxRangeCm / 2,
		readyChan:    make(chan bool),
	}
	inst.abstractPlatform = newAbstractPlatform(conf)
	return inst
}

func (s *TUIPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *TUIPlatform) Start() error {
	s.initSimulationTUI(s.ossignalChan)

	s.sensorWg.Add(1)
	go s.sensorDriver()

	return nil
}

func (s *TUIPlatform) Stop() {
	s.setInShutdown()

	close(s.sensorStopChan)
	s.sensorWg.Wait()

	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

// sensorDriver produces one simulated reading per LoopDelay tick, with
// a little noise on top of the keyboard-controlled base distance.
func (s *TUIPlatform) sensorDriver() {
	defer s.sensorWg.Done()
	ticker := time.NewTicker(s.config.Sensor.LoopDelay.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-s.sensorStopChan:
			slog.Info("Ending SensorDriver go-routine (TUI)")
			return
		case <-ticker.C:
			s.simMutex.Lock()
			distance := s.simDistance + (rand.Float64()*2-1)*jitterCm
			timeout := s.simTimeout
			s.simMutex.Unlock()

			var reading *util.Reading
			if timeout {
				reading = util.NewFailedReading(ErrEchoTimeout, time.Now())
			} else {
				distance = clampDistance(distance, s.config.Sensor.MinRangeCm, s.config.Sensor.MaxRangeCm)
				reading = util.NewReading(distance, time.Now())
			}

			s.publish(reading)
			s.tviewapp.QueueUpdateDraw(func() {
				s.drawDistance(reading)
			})
		}
	}
}

func clampDistance(d, minCm, maxCm float64) float64 {
	if d < minCm {
		return minCm
	}
	if d > maxCm {
		return maxCm
	}
	return d
}

// getIntroText generates the dynamic text for the top info pane.
func (s *TUIPlatform) getIntroText() string {
	s.simMutex.Lock()
	distance := s.simDistance
	timeout := s.simTimeout
	s.simMutex.Unlock()

	sensorState := "[green]ok[-]"
	if timeout {
		sensorState = "[#ff0000]echo timeout[-]"
	}

	line1 := fmt.Sprintf("Object distance: [#ffff00]%5.1f cm[white] | Sensor: %s", distance, sensorState)
	line2 := fmt.Sprintf("Hit [#ff0000]+[white]/[#ff0000]-[white] to move the object, [#ff0000]t[white] to toggle echo timeout (threshold %.0f cm)", s.config.Detection.ThresholdCm)
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"

	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) initSimulationTUI(ossignal chan os.Signal) {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText()) // Set initial text
	s.intro.SetBorder(true).SetTitle(" Proximity Player Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- Distance Pane ---
	s.distView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.distView.SetBorder(true).SetTitle(" Distance ").SetTitleColor(tcell.ColorLightBlue)
	s.distView.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(s.distView, 4, 0, false).
		AddItem(s.logView, 0, 1, true) // Flexible height, gets focus

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logWriter := tview.ANSIWriter(s.logView)
			logging.SetOutput(logWriter)
			close(s.readyChan) // Signal that the TUI is ready
		})
	})

	// --- Input Handling ---
	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.tviewapp.Stop()
			ossignal <- os.Interrupt
			return nil
		case tcell.KeyRune:
			switch string(event.Rune()) {
			case "q", "Q":
				ossignal <- os.Interrupt
				return nil
			case "r", "R":
				ossignal <- syscall.SIGHUP
				return nil
			case "t", "T":
				s.simMutex.Lock()
				s.simTimeout = !s.simTimeout
				s.simMutex.Unlock()
				s.intro.SetText(s.getIntroText())
				return nil
			case "+":
				s.adjustDistance(distanceStepCm)
				return nil
			case "-":
				s.adjustDistance(-distanceStepCm)
				return nil
			}
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	// --- Start TUI ---
	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
}

func (s *TUIPlatform) adjustDistance(delta float64) {
	s.simMutex.Lock()
	s.simDistance = clampDistance(s.simDistance+delta, s.config.Sensor.MinRangeCm, s.config.Sensor.MaxRangeCm)
	s.simMutex.Unlock()
	s.intro.SetText(s.getIntroText())
}

// drawDistance redraws the distance pane as a horizontal bar with a
// marker at the detection threshold. Must be called on the main TUI
// thread via app.QueueUpdateDraw().
func (s *TUIPlatform) drawDistance(r *util.Reading) {
	const barWidth = 60

	if r.Err != nil {
		s.distView.SetText(fmt.Sprintf(" [#ff0000]-- no reading: %v --[-]", r.Err))
		return
	}

	maxCm := s.config.Sensor.MaxRangeCm
	filled := int(r.DistanceCm / maxCm * barWidth)
	filled = min(max(filled, 0), barWidth)
	threshold := int(s.config.Detection.ThresholdCm / maxCm * barWidth)
	threshold = min(max(threshold, 0), barWidth-1)

	bar := []rune(strings.Repeat("█", filled) + strings.Repeat("·", barWidth-filled))
	color := "[green]"
	if r.DistanceCm <= s.config.Detection.ThresholdCm {
		color = "[#ff0000]"
		bar[threshold] = '┃'
	} else {
		bar[threshold] = '│'
	}

	s.distView.SetText(fmt.Sprintf(" %s%s[-] %5.1f cm", color, string(bar), r.DistanceCm))
}
