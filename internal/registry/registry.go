// Package registry resolves device display names from the appliance's
// logger registry document, an XML file listing one rrdLogger entry per
// device with its uuid and name.
package registry

import (
	"encoding/xml"
	"os"

	"github.com/marcelr/ringmigrate/internal/errors"
)

type loggerEntry struct {
	UUID string `xml:"uuid"`
	Name string `xml:"name"`
}

type document struct {
	XMLName xml.Name
	Loggers []loggerEntry `xml:"rrdLogger"`
}

// Registry maps device ids to display names.
type Registry struct {
	names map[string]string
}

// Load parses the registry document at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read registry %s", path)
	}
	return Parse(data)
}

// Parse parses registry document contents.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse registry")
	}

	r := &Registry{names: make(map[string]string, len(doc.Loggers))}
	for _, e := range doc.Loggers {
		if e.UUID == "" {
			continue
		}
		r.names[e.UUID] = e.Name
	}
	return r, nil
}

// Resolve returns the display name for a device id, or ErrDeviceNotFound.
func (r *Registry) Resolve(uuid string) (string, error) {
	name, ok := r.names[uuid]
	if !ok {
		return "", errors.Wrapf(errors.ErrDeviceNotFound, "uuid %s", uuid)
	}
	return name, nil
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.names)
}
