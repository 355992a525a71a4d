//go:build linux

package display

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Raw DRM/KMS ioctl bindings. There is no high-level helper for DRM
// mode-setting in golang.org/x/sys/unix, so these use raw unix.Syscall
// against hand-declared struct layouts matching the kernel uAPI, with
// the standard Linux _IOC encoding instead of hardcoded magic numbers
// so every ioctl's size field is derived from the Go struct actually
// passed, not copied from someone else's build.
const drmIoctlBase = 0x64 // 'd'

const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | drmIoctlBase<<8 | nr
}

func iowr(nr uintptr, size uintptr) uintptr { return ioc(iocRead|iocWrite, nr, size) }
func iow(nr uintptr, size uintptr) uintptr  { return ioc(iocWrite, nr, size) }
func ioNoArg(nr uintptr) uintptr            { return ioc(iocNone, nr, 0) }

const (
	nrSetMaster          = 0x1e
	nrDropMaster         = 0x1f
	nrModeGetResources   = 0xA0
	nrModeGetCrtc        = 0xA1
	nrModeSetCrtc        = 0xA2
	nrModeGetEncoder     = 0xA6
	nrModeGetConnector   = 0xA7
	nrModeObjGetProps    = 0xB9
	nrModeGetProperty    = 0xAA
	nrModeGetPropBlob    = 0xAC
	nrModeAddFB          = 0xAE
	nrModeRmFB           = 0xAF
	nrModeCreateDumb     = 0xB2
	nrModeMapDumb        = 0xB3
	nrModeDestroyDumb    = 0xB4
	nrModeGetPlaneResources = 0xB5
	nrModeGetPlane       = 0xB6
	nrModeSetPlane       = 0xB7
	nrModeCrtcSetGamma   = 0xA5
)

type modeInfo struct {
	Clock      uint32
	Hdisplay   uint16
	HsyncStart uint16
	HsyncEnd   uint16
	Htotal     uint16
	Hskew      uint16
	Vdisplay   uint16
	VsyncStart uint16
	VsyncEnd   uint16
	Vtotal     uint16
	Vscan      uint16
	Vrefresh   uint32
	Flags      uint32
	Type       uint32
	Name       [32]byte
}

type cardRes struct {
	FbIDPtr         uint64
	CrtcIDPtr       uint64
	ConnectorIDPtr  uint64
	EncoderIDPtr    uint64
	CountFbs        uint32
	CountCrtcs      uint32
	CountConnectors uint32
	CountEncoders   uint32
	MinWidth        uint32
	MaxWidth        uint32
	MinHeight       uint32
	MaxHeight       uint32
}

type getConnectorIoctl struct {
	EncodersPtr   uint64
	ModesPtr      uint64
	PropsPtr      uint64
	PropValuesPtr uint64

	CountModes    uint32
	CountProps    uint32
	CountEncoders uint32

	EncoderID   uint32
	ConnectorID uint32
	ConnectorType uint32
	ConnectorTypeID uint32

	Connection      uint32
	MmWidth         uint32
	MmHeight        uint32
	Subpixel        uint32
	Pad             uint32
}

type getEncoder struct {
	EncoderID   uint32
	EncoderType uint32
	CrtcID      uint32
	PossibleCrtcs  uint32
	PossibleClones uint32
}

type modeCrtc struct {
	SetConnectorsPtr uint64
	CountConnectors  uint32
	CrtcID           uint32
	FbID             uint32
	X                uint32
	Y                uint32
	GammaSize        uint32
	ModeValid        uint32
	Mode             modeInfo
}

// modeCrtcLUT mirrors struct drm_mode_crtc_lut, the gamma ramp ioctl
// payload: three separately-pointed uint16 arrays of the same size.
type modeCrtcLUT struct {
	CrtcID  uint32
	Size    uint32
	RedPtr  uint64
	GreenPtr uint64
	BluePtr uint64
}

type objGetProperties struct {
	PropsPtr      uint64
	PropValuesPtr uint64
	CountProps    uint32
	ObjID         uint32
	ObjType       uint32
	_             uint32
}

type getProperty struct {
	ValuesPtr uint64
	EnumBlobPtr uint64
	PropID    uint32
	Flags     uint32
	Name      [32]byte
	CountValues uint32
	CountEnumBlobs uint32
}

type getPropBlob struct {
	BlobID uint32
	Length uint32
	Data   uint64
}

type modeFbCmd struct {
	FbID   uint32
	Width  uint32
	Height uint32
	Pitch  uint32
	Bpp    uint32
	Depth  uint32
	Handle uint32
}

type createDumb struct {
	Height uint32
	Width  uint32
	Bpp    uint32
	Flags  uint32
	Handle uint32
	Pitch  uint32
	Size   uint64
}

type mapDumb struct {
	Handle uint32
	Pad    uint32
	Offset uint64
}

type destroyDumb struct {
	Handle uint32
}

type getPlaneResources struct {
	PlaneIDPtr  uint64
	CountPlanes uint32
	_           uint32
}

type getPlane struct {
	PlaneID   uint32
	CrtcID    uint32
	FbID      uint32
	PossibleCrtcs uint32
	GammaSize uint32
	CountFormatTypes uint32
	FormatTypePtr uint64
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
