// Package manifest loads the YAML description of a packaged application:
// its screen dimensions, entry class, bundled resources, and an optional
// native ARM library. cmd/palmrunner's run and info subcommands both take
// one of these files as their argument.
package manifest

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/palmrunner/palmrunner/internal/wieerr"
)

// DefaultScreenWidth/DefaultScreenHeight resolve spec.md's screen-size
// Open Question: 240x320, the common KTF/WIPI feature-phone display, used
// whenever a manifest doesn't override them.
const (
	DefaultScreenWidth  = 240
	DefaultScreenHeight = 320
)

// ResourceEntry names one file on disk to load into the Resource Table
// under a guest-visible path.
type ResourceEntry struct {
	Path string `yaml:"path"`
	File string `yaml:"file"`
}

// NativeLibrary describes an optional ARM image to map into the Core's
// guest address space. Since palmrunner has no ELF/image loader (out of
// scope, per DESIGN.md), Symbols is how a manifest author supplies the
// import-slot table a real loader would otherwise have discovered by
// parsing the binary's relocation records: each entry names an import
// symbol and the guest address of the pointer slot the Stub Registry
// should patch once it resolves that symbol to a trampoline.
type NativeLibrary struct {
	File    string            `yaml:"file"`
	Base    uint32            `yaml:"base"`
	Symbols map[string]uint32 `yaml:"symbols"`
}

// Manifest is the loaded, validated application package description.
type Manifest struct {
	ScreenWidth  int             `yaml:"screen_width"`
	ScreenHeight int             `yaml:"screen_height"`
	EntryClass   string          `yaml:"entry_class"`
	Resources    []ResourceEntry `yaml:"resources"`
	Native       *NativeLibrary  `yaml:"native"`

	// dir is the manifest file's own directory, against which every
	// relative Resources/Native path resolves.
	dir string
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wieerr.Wrap(wieerr.KindIO, err, "read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, wieerr.Wrap(wieerr.KindProtocolViolation, err, "parse manifest %s", path)
	}
	m.dir = filepath.Dir(path)

	if m.EntryClass == "" {
		return nil, wieerr.New(wieerr.KindProtocolViolation, "manifest %s: entry_class is required", path)
	}
	if m.ScreenWidth == 0 {
		m.ScreenWidth = DefaultScreenWidth
	}
	if m.ScreenHeight == 0 {
		m.ScreenHeight = DefaultScreenHeight
	}
	return &m, nil
}

// ResolvePath resolves a manifest-relative file reference (a Resources
// entry or Native.File) against the manifest's own directory, so a
// manifest can be run from anywhere.
func (m *Manifest) ResolvePath(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(m.dir, file)
}
