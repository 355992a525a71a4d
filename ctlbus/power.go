package ctlbus

import (
	"github.com/godbus/dbus/v5"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
)

// userActivityOther mirrors the original's USER_ACTIVITY_OTHER enum
// value sent with HandleUserActivity.
const userActivityOther int32 = 0

// NotifyUserActivity sends the power manager a "user is active" ping,
// guarded by a name-has-owner check per original_source/input.c so
// frecon doesn't spam errors before the power daemon has started.
func (e *Endpoint) NotifyUserActivity() {
	if !e.hasOwner(powerManagerName) {
		return
	}
	obj := e.conn.Object(powerManagerName, powerObjectPath)
	call := obj.Call(powerIface+".HandleUserActivity", dbus.FlagNoReplyExpected, userActivityOther)
	if call.Err != nil {
		logx.WithFields(share.Fields{"error": call.Err.Error()}).Warn("failed to notify power manager of user activity")
	}
}

// RequestBrightness asks the power manager to step screen brightness up
// or down. Brightness-down uses allow_off=false so the last step dims
// the screen instead of turning it fully off, per §6.
func (e *Endpoint) RequestBrightness(up bool) {
	if !e.hasOwner(powerManagerName) {
		return
	}
	obj := e.conn.Object(powerManagerName, powerObjectPath)
	var call *dbus.Call
	if up {
		call = obj.Call(powerIface+".IncreaseScreenBrightness", 0)
	} else {
		call = obj.Call(powerIface+".DecreaseScreenBrightness", 0, false)
	}
	if call.Err != nil {
		logx.WithFields(share.Fields{"up": up, "error": call.Err.Error()}).Warn("brightness request failed")
	}
}

func (e *Endpoint) hasOwner(name string) bool {
	var owned bool
	if err := e.conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&owned); err != nil {
		return false
	}
	return owned
}
