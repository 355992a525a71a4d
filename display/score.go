package display

import "strings"

// DRM connector-type constants (drm_mode.h), the subset frecon cares
// about when deciding whether a connector is the built-in panel.
const (
	connectorUnknown  = 0
	connectorLVDS     = 7
	connectorDSI      = 16
	connectorEDP      = 14
	connectorDPI      = 17
)

var internalConnectorTypes = map[uint32]bool{
	connectorLVDS: true,
	connectorDSI:  true,
	connectorEDP:  true,
	connectorDPI:  true,
}

// virtualDriverDenylist mirrors drm.c's list of display drivers that back
// a remote/virtual output rather than real scanout hardware.
var virtualDriverDenylist = map[string]bool{
	"udl":     true,
	"evdi":    true,
	"vkms":    true,
	"virtio":  true,
	"virtio_gpu": true,
}

// pureVirtualDrivers never have a usable display attached; they are
// scored so low they can never win even as a last resort.
var pureVirtualDrivers = map[string]bool{
	"vgem": true,
}

// connectorScore implements the §3 scoring rule: +1 internal, -1
// denylisted virtual/USB driver, -1,000,000 pure-virtual with no
// display. The candidate with the highest score wins; ties prefer the
// lower minor number, which is enforced by the caller iterating minors
// in increasing order and using a strict greater-than comparison.
func connectorScore(connectorType uint32, driverName string) int {
	driver := strings.ToLower(driverName)
	if pureVirtualDrivers[driver] {
		return -1000000
	}
	score := 0
	if internalConnectorTypes[connectorType] {
		score++
	}
	if virtualDriverDenylist[driver] {
		score--
	}
	return score
}
