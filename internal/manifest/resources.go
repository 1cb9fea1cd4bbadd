package manifest

import (
	"os"

	"github.com/palmrunner/palmrunner/internal/platform"
	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// LoadResources reads every file m.Resources names, in order, into a fresh
// Resource table keyed by its guest-visible path.
func (m *Manifest) LoadResources() (*platform.Resource, error) {
	table := platform.NewResource()
	for _, entry := range m.Resources {
		data, err := os.ReadFile(m.ResolvePath(entry.File))
		if err != nil {
			return nil, wieerr.Wrap(wieerr.KindIO, err, "load resource %s", entry.Path)
		}
		table.Add(entry.Path, data)
	}
	return table, nil
}

// LoadNativeImage reads the native library's bytes, if one is declared.
// It returns (nil, nil) when the manifest has no Native section.
func (m *Manifest) LoadNativeImage() ([]byte, error) {
	if m.Native == nil {
		return nil, nil
	}
	data, err := os.ReadFile(m.ResolvePath(m.Native.File))
	if err != nil {
		return nil, wieerr.Wrap(wieerr.KindIO, err, "load native library %s", m.Native.File)
	}
	return data, nil
}
