//go:build linux

// Package display owns the kernel DRM/KMS device: scanning minors,
// picking the best connector/CRTC/mode, creating and destroying dumb
// scanout buffers, and transferring master ownership to and from the
// compositor. It implements component A of the console agent.
package display

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
)

// DRM_MAX_MINOR bounds the /dev/dri/cardN scan, matching the original's
// direct enumeration of card device nodes.
const drmMaxMinor = 32

const (
	objConnector uint32 = 0xc0c0c0c0
	objCRTC      uint32 = 0xcccccccc
	objPlane     uint32 = 0xeeeeeeee
)

const (
	connectionConnected = 1
)

const planeTypePrimary = 1

// Display is the process-wide handle to the kernel display device. It is
// shared-ownership: every Framebuffer holds a reference via AddRef, and
// the process-wide "current" pointer holds another.
type Display struct {
	fd         int
	minor      int
	driverName string

	connectorID   uint32
	connectorType uint32
	encoderID     uint32
	crtcID        uint32
	mmWidth       uint32
	mmHeight      uint32

	modes   []modeInfo
	modeIdx int

	edid        []byte
	edidChecked bool

	pendingRemoveFB uint32

	refcount int32
}

// Scan iterates display minors looking for the best usable device, per
// §4.A's selection algorithm. It returns (nil, nil) if no candidate
// survives so callers can run headless.
func Scan() (*Display, error) {
	var best *Display
	bestScore := -1 << 31

	for minor := 0; minor < drmMaxMinor; minor++ {
		path := fmt.Sprintf("/dev/dri/card%d", minor)
		fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
		if err != nil {
			continue
		}

		if !acquireMasterWithRetry(fd) {
			logx.WithFields(share.Fields{"minor": minor}).Warn("failed to acquire DRM master")
			unix.Close(fd)
			continue
		}

		cand, err := buildCandidate(fd, minor)
		if err != nil {
			logx.WithFields(share.Fields{"minor": minor, "error": err.Error()}).Warn("skipping display candidate")
			unix.Syscall(unix.SYS_IOCTL, uintptr(fd), ioNoArg(nrDropMaster), 0)
			unix.Close(fd)
			continue
		}

		score := connectorScore(cand.connectorType, cand.driverName)
		if best == nil || score > bestScore {
			if best != nil {
				best.Close()
			}
			best = cand
			bestScore = score
		} else {
			cand.Close()
		}
	}

	return best, nil
}

func acquireMasterWithRetry(fd int) bool {
	if err := ioctl(fd, ioNoArg(nrSetMaster), nil); err == nil {
		return true
	}
	time.Sleep(100 * time.Millisecond)
	return ioctl(fd, ioNoArg(nrSetMaster), nil) == nil
}

func buildCandidate(fd int, minor int) (*Display, error) {
	res, err := getCardResources(fd)
	if err != nil {
		return nil, err
	}
	if res.CountCrtcs == 0 || res.CountConnectors == 0 {
		return nil, fmt.Errorf("no crtcs or connectors")
	}

	connIDs := make([]uint32, res.CountConnectors)
	res.ConnectorIDPtr = uint64(uintptr(unsafe.Pointer(&connIDs[0])))
	crtcIDs := make([]uint32, res.CountCrtcs)
	res.CrtcIDPtr = uint64(uintptr(unsafe.Pointer(&crtcIDs[0])))
	encIDs := make([]uint32, res.CountEncoders)
	if res.CountEncoders > 0 {
		res.EncoderIDPtr = uint64(uintptr(unsafe.Pointer(&encIDs[0])))
	}
	if err := ioctl(fd, iowr(nrModeGetResources, unsafe.Sizeof(res)), unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("GETRESOURCES: %w", err)
	}

	connID, connType, encoderID, connected, mmW, mmH, modes, err := findMainConnector(fd, connIDs)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, fmt.Errorf("no connected connector")
	}

	crtcID, err := findCrtcForConnector(fd, encoderID, crtcIDs)
	if err != nil {
		return nil, err
	}

	driverName, _ := driverNameOf(minor)

	return &Display{
		fd:            fd,
		minor:         minor,
		driverName:    driverName,
		connectorID:   connID,
		connectorType: connType,
		encoderID:     encoderID,
		crtcID:        crtcID,
		mmWidth:       mmW,
		mmHeight:      mmH,
		modes:         modes,
		refcount:      0,
	}, nil
}

func driverNameOf(minor int) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/sys/class/drm/card%d/device/driver/module/drivers", minor))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func getCardResources(fd int) (cardRes, error) {
	var res cardRes
	if err := ioctl(fd, iowr(nrModeGetResources, unsafe.Sizeof(res)), unsafe.Pointer(&res)); err != nil {
		return res, fmt.Errorf("GETRESOURCES: %w", err)
	}
	return res, nil
}

// findMainConnector prefers an internal (panel) connector when it exists
// and picks the preferred-type mode if present, else mode index 0.
func findMainConnector(fd int, connIDs []uint32) (id, connType, encoderID uint32, connected bool, mmW, mmH uint32, modes []modeInfo, err error) {
	var fallbackID, fallbackEnc uint32
	var fallbackType uint32
	var fallbackModes []modeInfo
	var fallbackMM [2]uint32
	haveFallback := false

	for _, cid := range connIDs {
		gc, connModes, encID, ok, err := getConnectorAndModes(fd, cid)
		if err != nil || !ok {
			continue
		}
		if internalConnectorTypes[gc.ConnectorType] {
			return cid, gc.ConnectorType, encID, true, gc.MmWidth, gc.MmHeight, connModes, nil
		}
		if !haveFallback {
			fallbackID, fallbackType, fallbackEnc = cid, gc.ConnectorType, encID
			fallbackModes = connModes
			fallbackMM = [2]uint32{gc.MmWidth, gc.MmHeight}
			haveFallback = true
		}
	}
	if haveFallback {
		return fallbackID, fallbackType, fallbackEnc, true, fallbackMM[0], fallbackMM[1], fallbackModes, nil
	}
	return 0, 0, 0, false, 0, 0, nil, nil
}

func getConnectorAndModes(fd int, connID uint32) (getConnectorIoctl, []modeInfo, uint32, bool, error) {
	var gc getConnectorIoctl
	gc.ConnectorID = connID
	if err := ioctl(fd, iowr(nrModeGetConnector, unsafe.Sizeof(gc)), unsafe.Pointer(&gc)); err != nil {
		return gc, nil, 0, false, err
	}
	if gc.Connection != connectionConnected || gc.CountModes == 0 {
		return gc, nil, 0, false, nil
	}

	modes := make([]modeInfo, gc.CountModes)
	encoders := make([]uint32, gc.CountEncoders)
	gc.ModesPtr = uint64(uintptr(unsafe.Pointer(&modes[0])))
	if gc.CountEncoders > 0 {
		gc.EncodersPtr = uint64(uintptr(unsafe.Pointer(&encoders[0])))
	}
	gc.PropsPtr, gc.PropValuesPtr = 0, 0
	gc.CountProps = 0
	if err := ioctl(fd, iowr(nrModeGetConnector, unsafe.Sizeof(gc)), unsafe.Pointer(&gc)); err != nil {
		return gc, nil, 0, false, err
	}

	encoderID := uint32(0)
	if gc.EncoderID != 0 {
		encoderID = gc.EncoderID
	} else if len(encoders) > 0 {
		encoderID = encoders[0]
	}

	chosen := modes[0]
	for _, m := range modes {
		if m.Type&(1<<3) != 0 { // DRM_MODE_TYPE_PREFERRED
			chosen = m
			break
		}
	}
	return gc, []modeInfo{chosen}, encoderID, true, nil
}

// findCrtcForConnector prefers the encoder's already-assigned CRTC; if
// none, picks the compatible CRTC backed by the most planes.
func findCrtcForConnector(fd int, encoderID uint32, crtcIDs []uint32) (uint32, error) {
	var enc getEncoder
	enc.EncoderID = encoderID
	if err := ioctl(fd, iowr(nrModeGetEncoder, unsafe.Sizeof(enc)), unsafe.Pointer(&enc)); err != nil {
		return 0, fmt.Errorf("GETENCODER: %w", err)
	}
	if enc.CrtcID != 0 {
		return enc.CrtcID, nil
	}

	planeCounts, err := planeCountsPerCrtc(fd, crtcIDs)
	if err != nil {
		return 0, err
	}

	var best uint32
	bestPlanes := -1
	for i, crtcID := range crtcIDs {
		if enc.PossibleCrtcs&(1<<uint(i)) == 0 {
			continue
		}
		if planeCounts[crtcID] > bestPlanes {
			bestPlanes = planeCounts[crtcID]
			best = crtcID
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("no compatible crtc")
	}
	return best, nil
}

func planeCountsPerCrtc(fd int, crtcIDs []uint32) (map[uint32]int, error) {
	var res getPlaneResources
	if err := ioctl(fd, iowr(nrModeGetPlaneResources, unsafe.Sizeof(res)), unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("GETPLANERESOURCES: %w", err)
	}
	if res.CountPlanes == 0 {
		return map[uint32]int{}, nil
	}
	planeIDs := make([]uint32, res.CountPlanes)
	res.PlaneIDPtr = uint64(uintptr(unsafe.Pointer(&planeIDs[0])))
	if err := ioctl(fd, iowr(nrModeGetPlaneResources, unsafe.Sizeof(res)), unsafe.Pointer(&res)); err != nil {
		return nil, fmt.Errorf("GETPLANERESOURCES: %w", err)
	}

	counts := make(map[uint32]int)
	for i, crtcID := range crtcIDs {
		for _, pid := range planeIDs {
			var gp getPlane
			gp.PlaneID = pid
			if err := ioctl(fd, iowr(nrModeGetPlane, unsafe.Sizeof(gp)), unsafe.Pointer(&gp)); err != nil {
				continue
			}
			if gp.PossibleCrtcs&(1<<uint(i)) != 0 {
				counts[crtcID]++
			}
		}
	}
	return counts, nil
}

// Close releases the device handle without touching the refcount;
// callers that never installed this Display as "current" (losers of the
// scan's score comparison) use this directly.
func (d *Display) Close() {
	if d.fd >= 0 {
		unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), ioNoArg(nrDropMaster), 0)
		unix.Close(d.fd)
		d.fd = -1
	}
}

// AddRef increments the shared-ownership refcount.
func (d *Display) AddRef() { d.refcount++ }

// DelRef decrements the refcount, restoring any pending framebuffer
// removal and closing the device once it reaches zero.
func (d *Display) DelRef() {
	d.refcount--
	if d.refcount <= 0 {
		if d.pendingRemoveFB != 0 {
			d.doRemoveFB(d.pendingRemoveFB)
			d.pendingRemoveFB = 0
		}
		d.Close()
	}
}

// DropMaster releases scanout ownership so the compositor can take it.
func (d *Display) DropMaster() error {
	return ioctl(d.fd, ioNoArg(nrDropMaster), nil)
}

// SetMaster reacquires scanout ownership from the compositor.
func (d *Display) SetMaster() error {
	return ioctl(d.fd, ioNoArg(nrSetMaster), nil)
}

// Width and Height report the chosen mode's scanout dimensions.
func (d *Display) Width() int  { return int(d.modes[d.modeIdx].Hdisplay) }
func (d *Display) Height() int { return int(d.modes[d.modeIdx].Vdisplay) }

// DriverName reports the kernel driver backing this device.
func (d *Display) DriverName() string { return d.driverName }

// ModeClockKHz reports the chosen mode's pixel clock, used to match the
// mode against an EDID detailed-timing descriptor.
func (d *Display) ModeClockKHz() uint32 { return d.modes[d.modeIdx].Clock }

// MMSize reports the connector's physical size in millimeters, the
// fallback scaling-factor input when no EDID descriptor matches.
func (d *Display) MMSize() (width, height uint32) { return d.mmWidth, d.mmHeight }

// FD exposes the raw device descriptor for buffer ioctls issued by the
// Framebuffer component, which owns the dumb-buffer lifecycle but has no
// device of its own.
func (d *Display) FD() int { return d.fd }

// SetMode programs the CRTC with the chosen mode and fbID, disables every
// non-primary plane on the chosen CRTC, and clears any pending delayed fb
// removal. It does not touch the hardware cursor and does not disable
// other CRTCs.
func (d *Display) SetMode(fbID uint32) error {
	var crtc modeCrtc
	crtc.CrtcID = d.crtcID
	crtc.FbID = fbID
	crtc.Mode = d.modes[d.modeIdx]
	crtc.ModeValid = 1
	connectors := []uint32{d.connectorID}
	crtc.SetConnectorsPtr = uint64(uintptr(unsafe.Pointer(&connectors[0])))
	crtc.CountConnectors = 1
	if err := ioctl(d.fd, iowr(nrModeSetCrtc, unsafe.Sizeof(crtc)), unsafe.Pointer(&crtc)); err != nil {
		return fmt.Errorf("SETCRTC: %w", err)
	}

	d.disableNonPrimaryPlanes()

	if d.pendingRemoveFB != 0 {
		d.doRemoveFB(d.pendingRemoveFB)
		d.pendingRemoveFB = 0
	}
	return nil
}

// SetGamma programs the CRTC's gamma LUT (§6 "--gamma"). The three
// ramps must be the same length; a length of 256 matches the original
// 8-bit-source ramp widened to 16 bits by the caller.
func (d *Display) SetGamma(red, green, blue []uint16) error {
	if len(red) != len(green) || len(red) != len(blue) {
		return fmt.Errorf("SETGAMMA: ramp length mismatch: %d/%d/%d", len(red), len(green), len(blue))
	}
	lut := modeCrtcLUT{
		CrtcID:   d.crtcID,
		Size:     uint32(len(red)),
		RedPtr:   uint64(uintptr(unsafe.Pointer(&red[0]))),
		GreenPtr: uint64(uintptr(unsafe.Pointer(&green[0]))),
		BluePtr:  uint64(uintptr(unsafe.Pointer(&blue[0]))),
	}
	if err := ioctl(d.fd, iowr(nrModeCrtcSetGamma, unsafe.Sizeof(lut)), unsafe.Pointer(&lut)); err != nil {
		return fmt.Errorf("SETGAMMA: %w", err)
	}
	return nil
}

func (d *Display) disableNonPrimaryPlanes() {
	var res getPlaneResources
	if err := ioctl(d.fd, iowr(nrModeGetPlaneResources, unsafe.Sizeof(res)), unsafe.Pointer(&res)); err != nil || res.CountPlanes == 0 {
		return
	}
	planeIDs := make([]uint32, res.CountPlanes)
	res.PlaneIDPtr = uint64(uintptr(unsafe.Pointer(&planeIDs[0])))
	if err := ioctl(d.fd, iowr(nrModeGetPlaneResources, unsafe.Sizeof(res)), unsafe.Pointer(&res)); err != nil {
		return
	}
	for _, pid := range planeIDs {
		var gp getPlane
		gp.PlaneID = pid
		if err := ioctl(d.fd, iowr(nrModeGetPlane, unsafe.Sizeof(gp)), unsafe.Pointer(&gp)); err != nil {
			continue
		}
		if gp.CrtcID != d.crtcID {
			continue
		}
		if d.isPrimaryPlane(pid) {
			continue
		}
		gp.CrtcID, gp.FbID = 0, 0
		ioctl(d.fd, iowr(nrModeSetPlane, unsafe.Sizeof(gp)), unsafe.Pointer(&gp))
	}
}

// isPrimaryPlane walks the plane's object properties for one literally
// named "type" whose value equals DRM_PLANE_TYPE_PRIMARY.
func (d *Display) isPrimaryPlane(planeID uint32) bool {
	ids, values, err := d.objProperties(planeID, objPlane)
	if err != nil {
		return false
	}
	for i, id := range ids {
		name, err := d.propertyName(id)
		if err != nil {
			continue
		}
		if name == "type" {
			return values[i] == planeTypePrimary
		}
	}
	return false
}

func (d *Display) objProperties(objID, objType uint32) ([]uint32, []uint64, error) {
	var gp objGetProperties
	gp.ObjID, gp.ObjType = objID, objType
	if err := ioctl(d.fd, iowr(nrModeObjGetProps, unsafe.Sizeof(gp)), unsafe.Pointer(&gp)); err != nil {
		return nil, nil, err
	}
	if gp.CountProps == 0 {
		return nil, nil, nil
	}
	ids := make([]uint32, gp.CountProps)
	values := make([]uint64, gp.CountProps)
	gp.PropsPtr = uint64(uintptr(unsafe.Pointer(&ids[0])))
	gp.PropValuesPtr = uint64(uintptr(unsafe.Pointer(&values[0])))
	if err := ioctl(d.fd, iowr(nrModeObjGetProps, unsafe.Sizeof(gp)), unsafe.Pointer(&gp)); err != nil {
		return nil, nil, err
	}
	return ids, values, nil
}

func (d *Display) propertyName(propID uint32) (string, error) {
	var p getProperty
	p.PropID = propID
	if err := ioctl(d.fd, iowr(nrModeGetProperty, unsafe.Sizeof(p)), unsafe.Pointer(&p)); err != nil {
		return "", err
	}
	n := 0
	for n < len(p.Name) && p.Name[n] != 0 {
		n++
	}
	return string(p.Name[:n]), nil
}

// ReadEDID caches the first 128 bytes of the connector's "EDID" property
// blob. A checked-but-absent result is cached explicitly (rather than
// retried on every call) to avoid a retry storm against connectors with
// no EDID, which the original C implementation did not guard against.
func (d *Display) ReadEDID() []byte {
	if d.edidChecked {
		return d.edid
	}
	d.edidChecked = true

	ids, values, err := d.objProperties(d.connectorID, objConnector)
	if err != nil {
		return nil
	}
	for i, id := range ids {
		name, err := d.propertyName(id)
		if err != nil || name != "EDID" {
			continue
		}
		blob, err := d.propertyBlob(uint32(values[i]))
		if err != nil || len(blob) < 128 {
			return nil
		}
		d.edid = blob[:128]
		return d.edid
	}
	return nil
}

func (d *Display) propertyBlob(blobID uint32) ([]byte, error) {
	var b getPropBlob
	b.BlobID = blobID
	if err := ioctl(d.fd, iowr(nrModeGetPropBlob, unsafe.Sizeof(b)), unsafe.Pointer(&b)); err != nil {
		return nil, err
	}
	if b.Length == 0 {
		return nil, nil
	}
	data := make([]byte, b.Length)
	b.Data = uint64(uintptr(unsafe.Pointer(&data[0])))
	if err := ioctl(d.fd, iowr(nrModeGetPropBlob, unsafe.Sizeof(b)), unsafe.Pointer(&b)); err != nil {
		return nil, err
	}
	return data, nil
}

// RmFB records fbID for removal after the next successful mode set,
// keeping the previous image on screen until the new one is scanned out.
func (d *Display) RmFB(fbID uint32) {
	d.pendingRemoveFB = fbID
}

func (d *Display) doRemoveFB(fbID uint32) {
	var id = fbID
	ioctl(d.fd, iow(nrModeRmFB, unsafe.Sizeof(id)), unsafe.Pointer(&id))
}

// CreateDumbBuffer allocates a kernel dumb scanout buffer and registers
// it as an fb, on behalf of the Framebuffer component which owns the
// buffer's lifecycle but has no device handle of its own.
func (d *Display) CreateDumbBuffer(width, height uint32) (handle uint32, pitch uint32, size uint64, fbID uint32, err error) {
	cd := createDumb{Width: width, Height: height, Bpp: 32}
	if err = ioctl(d.fd, iowr(nrModeCreateDumb, unsafe.Sizeof(cd)), unsafe.Pointer(&cd)); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("CREATE_DUMB: %w", err)
	}

	fb := modeFbCmd{Width: width, Height: height, Pitch: cd.Pitch, Bpp: 32, Depth: 24, Handle: cd.Handle}
	if err = ioctl(d.fd, iowr(nrModeAddFB, unsafe.Sizeof(fb)), unsafe.Pointer(&fb)); err != nil {
		var dd destroyDumb
		dd.Handle = cd.Handle
		ioctl(d.fd, iowr(nrModeDestroyDumb, unsafe.Sizeof(dd)), unsafe.Pointer(&dd))
		return 0, 0, 0, 0, fmt.Errorf("ADDFB: %w", err)
	}

	return cd.Handle, cd.Pitch, cd.Size, fb.FbID, nil
}

// MapOffset resolves the mmap offset for a dumb buffer handle.
func (d *Display) MapOffset(handle uint32) (uint64, error) {
	md := mapDumb{Handle: handle}
	if err := ioctl(d.fd, iowr(nrModeMapDumb, unsafe.Sizeof(md)), unsafe.Pointer(&md)); err != nil {
		return 0, fmt.Errorf("MAP_DUMB: %w", err)
	}
	return md.Offset, nil
}

// DestroyDumbBuffer frees a dumb buffer's kernel object. The caller must
// have already removed its fb id.
func (d *Display) DestroyDumbBuffer(handle uint32) error {
	dd := destroyDumb{Handle: handle}
	return ioctl(d.fd, iowr(nrModeDestroyDumb, unsafe.Sizeof(dd)), unsafe.Pointer(&dd))
}

// RemoveFBNow removes an fb id immediately, used by Framebuffer.Destroy
// (as opposed to RmFB's delayed removal used during mode transitions).
func (d *Display) RemoveFBNow(fbID uint32) {
	d.doRemoveFB(fbID)
}

// Rescan re-enumerates the device and reports whether the chosen
// connector, CRTC, or driver changed, per §7's hotplug taxonomy. The
// caller is expected to drop master first.
func Rescan(prev *Display) (changed bool, next *Display, err error) {
	next, err = Scan()
	if err != nil || next == nil {
		return false, nil, err
	}
	if prev == nil {
		return true, next, nil
	}
	same := prev.connectorID == next.connectorID &&
		prev.crtcID == next.crtcID &&
		prev.driverName == next.driverName &&
		prev.minor == next.minor
	if same {
		next.Close()
		prev.SetMaster()
		return false, prev, nil
	}
	return true, next, nil
}
