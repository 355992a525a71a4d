// Command frecon is the pre-login console agent: it owns the display
// and evdev input while no graphical session is active, multiplexes a
// handful of text VTs, plays an optional splash sequence, and serves a
// small D-Bus control surface so the session manager and compositor can
// hand the screen back and forth with it.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/linuxconsole/frecon/ctlbus"
	"github.com/linuxconsole/frecon/display"
	"github.com/linuxconsole/frecon/framebuffer"
	"github.com/linuxconsole/frecon/glyph"
	"github.com/linuxconsole/frecon/input"
	"github.com/linuxconsole/frecon/internal/bootlock"
	"github.com/linuxconsole/frecon/internal/kmsg"
	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
	"github.com/linuxconsole/frecon/mainloop"
	"github.com/linuxconsole/frecon/splash"
	"github.com/linuxconsole/frecon/term"
	"go.uber.org/multierr"
	xterm "golang.org/x/term"
)

// numVTs is the number of standard terminal slots the table exposes,
// matching the original's fixed Ctrl+Alt+F2..F(1+N) range.
const numVTs = 4

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	dev, err := display.Scan()
	if err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Error("display scan failed")
	}

	width := 0
	if dev != nil {
		width = dev.Width()
	}

	cfg, err := parseFlags(argv, width)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if cfg.PrintResolution {
		fmt.Printf("%d %d\n", width, heightOf(dev))
		return 0
	}

	if cfg.Daemon {
		if w, err := kmsg.New("frecon"); err == nil {
			logx.AddWriter(w)
		} else {
			logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to open /dev/kmsg, logging to console only")
		}
	}

	lock, err := bootlock.Acquire("frecon")
	if err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Error("failed to acquire boot lock")
		return 1
	}

	var shutdownErr error
	defer func() {
		if shutdownErr != nil {
			logx.WithFields(share.Fields{"error": shutdownErr.Error()}).Warn("errors during shutdown")
		}
	}()
	defer func() { shutdownErr = multierr.Append(shutdownErr, lock.Release()) }()

	if cfg.GammaPath != "" && dev != nil {
		red, green, blue, err := loadGammaRamp(cfg.GammaPath)
		if err != nil {
			logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to load gamma ramp")
		} else if err := dev.SetGamma(red, green, blue); err != nil {
			logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to program gamma LUT")
		}
	}

	renderer := glyph.New(glyph.NewBasicFontSource())

	newTerm := func(interactive bool) *term.Terminal {
		var fb *framebuffer.Framebuffer
		if dev != nil {
			fb = framebuffer.New(dev)
		}
		return term.New(term.Config{
			Interactive: interactive,
			Framebuffer: fb,
			Renderer:    renderer,
			Scrollback:  1000,
			EnableGfx:   cfg.EnableGfx,
		})
	}

	standalone := !cfg.Daemon && isatty(os.Stdout)
	if standalone {
		logx.Info("running attached to a controlling terminal, standalone supervision model")
	}

	table := term.NewTable(numVTs, newTerm)
	loop := mainloop.New(table, cfg.EnableVTs, cfg.Daemon)
	loop.AttachDisplay(dev)

	if hotplugFD, err := display.WatchHotplug(); err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to watch /dev/dri for hotplug, display rescans disabled")
	} else {
		loop.AttachHotplugWatch(hotplugFD)
	}

	inputMgr, err := input.NewManager()
	if err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Error("failed to initialize input devices")
		return 1
	}
	defer func() { shutdownErr = multierr.Append(shutdownErr, inputMgr.Close()) }()
	loop.AttachInput(inputMgr)

	bus, err := ctlbus.Connect(loop)
	if err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Error("failed to connect to the control bus")
		return 1
	}
	defer func() { shutdownErr = multierr.Append(shutdownErr, bus.Close()) }()
	loop.AttachBus(bus)
	bus.OnLoginPromptVisible(loop.OnLoginPromptVisible)

	if len(cfg.Frames) > 0 {
		splashTerm := newTerm(false)
		if err := splashTerm.Init(); err != nil {
			logx.WithFields(share.Fields{"error": err.Error()}).Error("failed to initialize splash terminal")
			return 1
		}
		table.Set(table.SplashIndex(), splashTerm)

		splashCfg := splash.Config{
			Frames:        cfg.Frames,
			ClearColor:    cfg.Clear,
			FrameInterval: cfg.FrameInterval,
			LoopStart:     cfg.LoopStart,
			LoopCount:     cfg.LoopCount,
			LoopDuration:  cfg.LoopInterval,
		}
		pump := func() error {
			_, err := loop.RunIteration(0)
			return err
		}
		player := splash.New(splashCfg, splashTerm, pump, time.Now)
		loop.AttachSplash(player)

		if _, err := table.ActivateSplash(); err != nil {
			logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to activate splash terminal")
		} else if err := player.Run(); err != nil {
			logx.WithFields(share.Fields{"error": err.Error()}).Warn("splash playback ended with an error")
		}

		if cfg.SplashOnly {
			return 0
		}
	}

	if _, err := table.ActivateVT(1); err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Error("failed to activate the first terminal")
		return 1
	}

	for !loop.ShouldExit() {
		if _, err := loop.RunIteration(-1); err != nil {
			logx.WithFields(share.Fields{"error": err.Error()}).Warn("main loop iteration failed")
		}
	}

	return loop.ExitCode()
}

func heightOf(d *display.Display) int {
	if d == nil {
		return 0
	}
	return d.Height()
}

func isatty(f *os.File) bool {
	return xterm.IsTerminal(int(f.Fd()))
}
