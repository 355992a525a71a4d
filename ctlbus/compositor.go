package ctlbus

import (
	"context"
	"os"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
)

// drmMasterRelaxPath is the kernel debugfs flag that lets userspace
// preempt DRM master when the compositor declines to release it.
const drmMasterRelaxPath = "/sys/kernel/debug/dri/drm_master_relax"

// ReleaseDisplayOwnership asks the compositor to relinquish DRM master
// so frecon can take over (Ctrl+Alt+Fx activation, §4.F/§4.G). On
// failure it falls back to setting drm_master_relax so frecon can
// preempt ownership directly instead of failing the VT switch.
func (e *Endpoint) ReleaseDisplayOwnership() {
	ctx, cancel := context.WithTimeout(context.Background(), handoffTimeout)
	defer cancel()
	obj := e.conn.Object(displayServiceName, displayObjectPath)
	call := obj.CallWithContext(ctx, displayIface+".ReleaseDisplayOwnership", 0)
	if call.Err != nil {
		logx.WithFields(share.Fields{"error": call.Err.Error()}).Warn("compositor declined to release display, setting drm_master_relax")
		setDRMMasterRelax()
	}
}

// TakeDisplayOwnership asks the compositor to become DRM master again
// (deactivation on Ctrl+Alt+F1, or a clean SwitchVT(0)).
func (e *Endpoint) TakeDisplayOwnership() {
	ctx, cancel := context.WithTimeout(context.Background(), handoffTimeout)
	defer cancel()
	obj := e.conn.Object(displayServiceName, displayObjectPath)
	call := obj.CallWithContext(ctx, displayIface+".TakeDisplayOwnership", 0)
	if call.Err != nil {
		logx.WithFields(share.Fields{"error": call.Err.Error()}).Warn("compositor did not take display ownership")
	}
}

func setDRMMasterRelax() {
	if err := os.WriteFile(drmMasterRelaxPath, []byte("Y"), 0644); err != nil {
		logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to set drm_master_relax")
	}
}
