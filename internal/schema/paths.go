package schema

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RingPath returns the ring buffer filename for a device id and resolution
// tier, inside dir. The appliance names ring files <uuid>-<interval>.rra.
func RingPath(dir, uuid, interval string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.rra", uuid, interval))
}

// InterchangePath returns the interchange filename for one subset of a
// device, inside dir. The device's display name must be resolved first.
//
// Thermostat series carry no variable component in their filenames; all
// other series are named <name>_<variable>_<interval>.csv.
func InterchangePath(dir string, dev *Device, sub *Subset) string {
	var name string
	if strings.HasPrefix(dev.Name, "thermstat") {
		name = fmt.Sprintf("%s_%s.csv", dev.Name, sub.Interval)
	} else {
		name = fmt.Sprintf("%s_%s_%s.csv", dev.Name, dev.Variable, sub.Interval)
	}
	return filepath.Join(dir, name)
}
