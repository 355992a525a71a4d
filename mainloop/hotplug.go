package mainloop

import (
	"golang.org/x/sync/errgroup"

	"github.com/linuxconsole/frecon/display"
	"github.com/linuxconsole/frecon/framebuffer"
	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
	"github.com/linuxconsole/frecon/term"
)

// checkHotplug rescans the display and, if the connector, CRTC, or
// driver changed, rebuilds every terminal's framebuffer against the new
// device (§7's hotplug taxonomy, I5/I6). The caller only invokes this
// when the /dev/dri watch actually fired, not on every poll iteration,
// so DRM master is dropped and the 32-minor scan runs solely in
// response to a real hotplug, keeping §5/I3's "exactly one of {frecon,
// compositor} holds DRM master" true the rest of the time. Per-terminal
// dumb-buffer creation is independent across slots, so the rebuilds run
// concurrently via errgroup, but checkHotplug itself is only ever
// called from the main loop goroutine and blocks on errgroup.Wait
// before returning, so the single-writer invariant in §5 still holds:
// no terminal state is touched from more than one goroutine at a time.
func (l *Loop) checkHotplug() {
	l.mu.Lock()
	prev := l.dev
	l.mu.Unlock()
	if prev == nil {
		return
	}

	if err := prev.DropMaster(); err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to drop master before hotplug rescan")
	}

	changed, next, err := display.Rescan(prev)
	if err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Warn("display rescan failed")
		return
	}
	if !changed {
		return
	}

	logx.Info("display topology changed, rebuilding terminal framebuffers")

	l.mu.Lock()
	defer l.mu.Unlock()

	var g errgroup.Group
	l.table.Each(func(i int, t *term.Terminal) {
		t := t
		g.Go(func() error {
			return t.RebindFramebuffer(framebuffer.New(next))
		})
	})
	if err := g.Wait(); err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to rebuild a terminal framebuffer after hotplug")
	}

	l.dev = next

	l.table.Each(func(i int, t *term.Terminal) {
		t.ResetAge()
		if t.Active() {
			if err := t.Activate(); err != nil {
				logx.WithFields(share.Fields{"vt": i, "error": err.Error()}).Warn("failed to re-activate terminal after hotplug")
			}
		}
	})
}
