// ABOUTME: Entry point for the host build of the PWM player
// ABOUTME: Boots the simulated board, attaches the speaker and front panel, waits for quit
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Sendspin/sendspin-pico/internal/audio"
	"github.com/Sendspin/sendspin-pico/internal/board"
	"github.com/Sendspin/sendspin-pico/internal/clock"
	"github.com/Sendspin/sendspin-pico/internal/player"
	"github.com/Sendspin/sendspin-pico/internal/speaker"
	"github.com/Sendspin/sendspin-pico/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var (
	volumeDir  = flag.String("volume", ".", "Directory mounted as the SD card")
	asset      = flag.String("asset", "Daisies.wav", "Asset to play from the volume root")
	window     = flag.Int("window", audio.DefaultWindowSize, "Playback window size in samples")
	pll        = flag.Int("pll", 131, "System clock preset in MHz (131 or 176)")
	loop       = flag.Bool("loop", false, "Restart the asset when it ends")
	useSpeaker = flag.Bool("speaker", true, "Play the PWM output through the host audio device")
	gain       = flag.Int("gain", 100, "Speaker volume (0-100)")
	trace      = flag.Bool("trace", false, "Log per-window frame timing")
	logFile    = flag.String("log-file", "sendspin-pico.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

const shutdownTimeout = 2 * time.Second

func main() {
	flag.Parse()

	// The panel needs a terminal to read keys from
	useTUI := !*noTUI && term.IsTerminal(int(os.Stdin.Fd()))

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	sysPLL := clock.DefaultSysPLL
	switch *pll {
	case 131:
	case 176:
		sysPLL = clock.PLLSys176MHz
	default:
		log.Fatalf("Unsupported -pll %d, want 131 or 176", *pll)
	}

	dev, err := board.Boot(board.Config{
		VolumeDir:  *volumeDir,
		Asset:      *asset,
		WindowSize: *window,
		SysPLL:     sysPLL,
		Loop:       *loop,
		Trace:      *trace,
		OnStateChange: func(from, to player.State) {
			if to == player.Idle && from != player.Idle {
				log.Printf("Playback finished")
			}
		},
	})
	if err != nil {
		log.Fatalf("Boot failed: %v", err)
	}
	defer func() { _ = dev.Close() }()

	var spk *speaker.Speaker
	if *useSpeaker {
		spk = speaker.New(speaker.DefaultCapacity)
		spk.SetVolume(*gain)
		if err := spk.Open(audio.SampleRate); err != nil {
			log.Printf("Speaker unavailable, continuing silent: %v", err)
			spk = nil
		} else {
			dev.Slice.SetTap(spk.Tap)
			defer func() { _ = spk.Close() }()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- dev.Run(ctx) }()

	// TUI setup
	var tuiProg *tea.Program
	var panelCtrl *ui.Control

	if useTUI {
		panelCtrl = ui.NewControl()
		tuiProg, err = ui.Run(dev, panelCtrl, *gain)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()

		go handleVolumeControl(ctx, spk, panelCtrl)
		go statsUpdateLoop(ctx, dev, tuiProg)
	} else {
		go logStatsLoop(ctx, dev)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quit <-chan ui.QuitMsg
	if panelCtrl != nil {
		quit = panelCtrl.Quit
	}

	boardDone := false
	select {
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case <-sigChan:
		log.Printf("Shutdown signal received")
	case err := <-runErr:
		boardDone = true
		if err != nil {
			log.Printf("Board stopped: %v", err)
		}
	}

	cancel()
	if tuiProg != nil {
		tuiProg.Quit()
	}

	// Let the cores wind down before the reader and speaker are closed.
	if !boardDone {
		stopped, err := awaitBoard(runErr, shutdownTimeout)
		switch {
		case !stopped:
			log.Printf("Board did not stop within %v", shutdownTimeout)
		case err != nil:
			log.Printf("Board stopped: %v", err)
		}
	}

	log.Printf("Player stopped")
}

// awaitBoard waits up to timeout for Run to return its result on runErr
func awaitBoard(runErr <-chan error, timeout time.Duration) (stopped bool, err error) {
	select {
	case err := <-runErr:
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}

// handleVolumeControl applies panel volume changes to the speaker
func handleVolumeControl(ctx context.Context, spk *speaker.Speaker, ctrl *ui.Control) {
	for {
		select {
		case vol := <-ctrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			if spk != nil {
				spk.SetVolume(vol.Volume)
				spk.SetMuted(vol.Muted)
			}
		case <-ctx.Done():
			return
		}
	}
}

// statsUpdateLoop periodically updates TUI with board counters
func statsUpdateLoop(ctx context.Context, dev *board.Board, prog *tea.Program) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	// Use a slower ticker for expensive runtime stats to avoid GC pauses
	runtimeStatsTicker := time.NewTicker(2 * time.Second)
	defer runtimeStatsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-runtimeStatsTicker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			prog.Send(ui.StatusMsg{
				Goroutines: runtime.NumGoroutine(),
				MemAlloc:   m.Alloc,
				MemSys:     m.Sys,
			})

		case <-ticker.C:
			prog.Send(ui.StatusFrom(dev.Status()))
		}
	}
}

// logStatsLoop logs progress when there is no panel
func logStatsLoop(ctx context.Context, dev *board.Board) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := dev.Status()
			log.Printf("State=%s emitted=%d refills=%d wraps=%d overruns=%d",
				s.Playback.State, s.Playback.Emitted, s.Playback.Refills, s.Carrier.Wraps, s.Carrier.Overruns)
		}
	}
}
