// ABOUTME: Boot sequencing for the two-core PWM player
// ABOUTME: Brings up clocks and peripherals in order, then runs both cores under one errgroup
package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Sendspin/sendspin-pico/internal/audio"
	"github.com/Sendspin/sendspin-pico/internal/clock"
	"github.com/Sendspin/sendspin-pico/internal/fifo"
	"github.com/Sendspin/sendspin-pico/internal/input"
	"github.com/Sendspin/sendspin-pico/internal/irq"
	"github.com/Sendspin/sendspin-pico/internal/player"
	"github.com/Sendspin/sendspin-pico/internal/pwm"
	"github.com/Sendspin/sendspin-pico/internal/storage"
	"github.com/Sendspin/sendspin-pico/internal/version"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GPIO assignments
const (
	PauseGPIO   = 6
	RestartGPIO = 7
	StopGPIO    = 8
	AudioGPIO   = 0
)

// Config holds boot parameters
type Config struct {
	// VolumeDir is mounted as the storage volume unless Volume is set
	VolumeDir string
	Volume    *storage.Volume

	Asset      string
	WindowSize int

	// SysPLL defaults to clock.DefaultSysPLL
	SysPLL clock.PLLConfig

	// Loop restarts the asset from its first sample when it ends
	Loop bool

	// Trace enables per-window frame timing logs
	Trace bool

	// OnStateChange is forwarded to the playback controller
	OnStateChange func(from, to player.State)
}

// Board is a booted device
type Board struct {
	ID     uuid.UUID
	Clocks *clock.Tree
	Core0  *irq.Controller
	Core1  *irq.Controller

	Slice      *pwm.SimSlice
	Output     *pwm.Output
	Reader     *storage.Reader
	Controller *player.Controller
	Buttons    *input.Latch

	volume *storage.Volume
	core1  fifo.Port
	pins   map[ButtonID]*input.SimPin
}

// Boot brings the device up. Any error is fatal for the device.
func Boot(cfg Config) (*Board, error) {
	if cfg.Asset == "" {
		cfg.Asset = "Daisies.wav"
	}
	if cfg.WindowSize < 1 {
		cfg.WindowSize = audio.DefaultWindowSize
	}
	if cfg.SysPLL == (clock.PLLConfig{}) {
		cfg.SysPLL = clock.DefaultSysPLL
	}

	b := &Board{
		ID:    uuid.New(),
		Core0: irq.NewController("core0"),
		Core1: irq.NewController("core1"),
		pins:  make(map[ButtonID]*input.SimPin),
	}
	log.Printf("%s %s by %s, boot %s", version.Product, version.Version, version.Manufacturer, b.ID)

	clocks, err := clock.Configure(clock.XtalFreqHz, cfg.SysPLL, clock.PLLUSB48MHz)
	if err != nil {
		return nil, fmt.Errorf("clock bring-up: %w", err)
	}
	b.Clocks = clocks

	for _, id := range []ButtonID{Pause, Restart, Stop} {
		b.pins[id] = input.NewSimPin(id.GPIO())
	}

	// Audio output is owned by core 0
	carrier, err := pwm.CarrierFor(clocks.SysHz, pwm.DefaultTop, audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("audio carrier: %w", err)
	}
	b.Slice = pwm.NewSimSlice(b.Core0)
	b.Output = pwm.NewOutput()
	if err := b.Output.Configure(b.Slice, carrier); err != nil {
		return nil, err
	}
	if err := b.Output.Start(b.Core0); err != nil {
		return nil, err
	}
	log.Printf("Audio on GPIO%d, carrier %.1fHz", AudioGPIO, carrier.WrapHz(clocks.SysHz))

	core0, core1 := fifo.NewLink(fifo.Depth)
	b.core1 = core1

	// Storage and its buttons belong to core 1
	vol := cfg.Volume
	if vol == nil {
		vol, err = storage.Mount(cfg.VolumeDir)
		if err != nil {
			return nil, err
		}
	}
	b.volume = vol

	if names, err := vol.List(); err != nil {
		log.Printf("Warning: cannot list volume %s: %v", vol.Label(), err)
	} else {
		log.Printf("Volume %s: %d files [%s]", vol.Label(), len(names), strings.Join(names, ", "))
	}

	reader, err := storage.Open(vol, cfg.Asset, cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	b.Reader = reader
	if cfg.Loop {
		reader.Loop = func() bool { return true }
	}

	restart, stop := b.pins[Restart], b.pins[Stop]
	restart.Attach(b.Core1)
	stop.Attach(b.Core1)
	b.Buttons = input.NewLatch("INPUT_PINS", restart, stop)
	if err := b.Buttons.Install(b.Core1); err != nil {
		reader.Close()
		return nil, err
	}
	reader.Buttons = b.Buttons

	b.Controller = player.NewController(b.Output, b.Core0, core0, input.NewButton(b.pins[Pause]), cfg.WindowSize)
	b.Controller.Trace = cfg.Trace
	b.Controller.OnStateChange = cfg.OnStateChange

	log.Printf("Boot complete: volume %s, asset %s", vol.Label(), cfg.Asset)
	return b, nil
}

// Run starts the storage core, the playback core and the carrier clock, and
// blocks until ctx is done or one of them fails.
func (b *Board) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.Reader.Run(gctx, b.core1); err != nil {
			return fmt.Errorf("core1: %w", err)
		}
		// Core 1 parks once the stream has ended
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		if err := b.Controller.Run(gctx); err != nil {
			return fmt.Errorf("core0: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return b.Slice.Run(gctx, b.Clocks.SysHz)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Press pulls a button's pin low
func (b *Board) Press(id ButtonID) {
	if p, ok := b.pins[id]; ok {
		p.Press()
	}
}

// Release lets a button's pin float high
func (b *Board) Release(id ButtonID) {
	if p, ok := b.pins[id]; ok {
		p.Release()
	}
}

// Close releases the asset
func (b *Board) Close() error {
	return b.Reader.Close()
}

// Status is a snapshot for front panels
type Status struct {
	ID       string
	SysHz    uint32
	Asset    string
	Volume   string
	Playback player.ControllerStats
	Producer storage.ReaderStats
	Carrier  pwm.SimStats
	Top      uint16
}

// Status collects the current counters
func (b *Board) Status() Status {
	return Status{
		ID:       b.ID.String(),
		SysHz:    b.Clocks.SysHz,
		Asset:    b.Reader.Name(),
		Volume:   b.volume.Label(),
		Playback: b.Controller.Stats(),
		Producer: b.Reader.Stats(),
		Carrier:  b.Slice.Stats(),
		Top:      b.Output.Carrier().Top,
	}
}
