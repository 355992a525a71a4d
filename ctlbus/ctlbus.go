// Package ctlbus implements the console agent's control bus endpoint
// (component G): a D-Bus object serving MakeVT/SwitchVT/Terminate/Image,
// a subscription to the session manager's login-prompt-visible signal,
// and the synchronous display-ownership handoff protocol with the
// compositor.
package ctlbus

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
)

const (
	busName      = "org.chromium.Frecon"
	objectPath   = dbus.ObjectPath("/org/chromium/Frecon")
	iface        = "org.chromium.Frecon"
	sessionName  = "org.chromium.SessionManager"
	sessionIface = "org.chromium.SessionManagerInterface"
	loginPromptVisibleSignal = "LoginPromptVisible"

	displayServiceName = "org.chromium.DisplayService"
	displayObjectPath  = dbus.ObjectPath("/org/chromium/DisplayService")
	displayIface       = "org.chromium.DisplayServiceInterface"

	powerManagerName = "org.chromium.PowerManager"
	powerObjectPath  = dbus.ObjectPath("/org/chromium/PowerManager")
	powerIface       = "org.chromium.PowerManager"

	initRetryInterval = 50 * time.Millisecond
	initRetryTimeout  = 60 * time.Second
	handoffTimeout    = 3 * time.Second
)

// Backend is the subset of the agent's runtime the bus endpoint drives.
// The main loop implements it on top of the terminal table.
type Backend interface {
	MakeVT(vt int) (ptyName string, err error)
	SwitchVT(vt int) error
	Terminate()
	ShowImage(opts map[string]string) error
}

// Endpoint owns the system bus connection and dispatches both the
// exported methods (served to other processes) and the signal
// subscription.
type Endpoint struct {
	conn    *dbus.Conn
	backend Backend

	onLoginPromptVisible func()
	loginPromptFired     bool
}

// Connect performs the bus acquisition retry loop of §4.G: every 50ms
// for up to 60s before giving up.
func Connect(backend Backend) (*Endpoint, error) {
	deadline := time.Now().Add(initRetryTimeout)
	var lastErr error
	for {
		conn, err := dbus.ConnectSystemBus()
		if err == nil {
			ep := &Endpoint{conn: conn, backend: backend}
			if err := ep.register(); err != nil {
				conn.Close()
				return nil, err
			}
			return ep, nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("ctlbus: bus unavailable after %s: %w", initRetryTimeout, lastErr)
		}
		time.Sleep(initRetryInterval)
	}
}

func (e *Endpoint) register() error {
	reply, err := e.conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("ctlbus: request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("ctlbus: name %s already owned", busName)
	}

	if err := e.conn.Export(&methods{e}, objectPath, iface); err != nil {
		return fmt.Errorf("ctlbus: export: %w", err)
	}

	matchRule := fmt.Sprintf("type='signal',interface='%s',member='%s'", sessionIface, loginPromptVisibleSignal)
	if err := e.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		return fmt.Errorf("ctlbus: add match: %w", err)
	}

	ch := make(chan *dbus.Signal, 8)
	e.conn.Signal(ch)
	go e.handleSignals(ch)

	return nil
}

// OnLoginPromptVisible registers the callback run the first time the
// session manager announces the login prompt is visible (§4.G, §6).
func (e *Endpoint) OnLoginPromptVisible(cb func()) {
	e.onLoginPromptVisible = cb
}

func (e *Endpoint) handleSignals(ch <-chan *dbus.Signal) {
	for sig := range ch {
		if sig.Name != sessionIface+"."+loginPromptVisibleSignal {
			continue
		}
		if e.loginPromptFired {
			continue
		}
		e.loginPromptFired = true
		if e.onLoginPromptVisible != nil {
			e.onLoginPromptVisible()
		}
	}
}

// Close releases the bus connection.
func (e *Endpoint) Close() error {
	if e.conn == nil {
		return nil
	}
	return e.conn.Close()
}

// methods is the exported D-Bus method receiver, kept distinct from
// Endpoint so the bus-facing method set doesn't leak onto the type used
// internally by the main loop.
type methods struct {
	ep *Endpoint
}

// MakeVT implements the "MakeVT(u32) -> string" method of §4.G.
func (m *methods) MakeVT(vt uint32) (string, *dbus.Error) {
	name, err := m.ep.backend.MakeVT(int(vt))
	if err != nil {
		logx.WithFields(share.Fields{"vt": vt, "error": err.Error()}).Warn("MakeVT failed")
		return "", dbus.NewError("org.chromium.Frecon.Error.NotHandled", []interface{}{"not handled"})
	}
	return name, nil
}

// SwitchVT implements "SwitchVT(u32)".
func (m *methods) SwitchVT(vt uint32) *dbus.Error {
	if err := m.ep.backend.SwitchVT(int(vt)); err != nil {
		logx.WithFields(share.Fields{"vt": vt, "error": err.Error()}).Warn("SwitchVT failed")
		return dbus.NewError("org.chromium.Frecon.Error.NotHandled", []interface{}{"not handled"})
	}
	return nil
}

// Terminate implements "Terminate()": reply, then the caller (the main
// loop, via the backend) exits with success after this method returns.
func (m *methods) Terminate() *dbus.Error {
	m.ep.backend.Terminate()
	return nil
}

// Image implements "Image(string, string)": each argument is a
// "name:value" option drawn from {image, location, offset}.
func (m *methods) Image(a, b string) *dbus.Error {
	opts := make(map[string]string, 2)
	for _, s := range []string{a, b} {
		if k, v, ok := splitOption(s); ok {
			opts[k] = v
		}
	}
	if err := m.ep.backend.ShowImage(opts); err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Warn("Image failed")
		return dbus.NewError("org.chromium.Frecon.Error.NotHandled", []interface{}{"not handled"})
	}
	return nil
}

func splitOption(s string) (key, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
