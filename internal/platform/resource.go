package platform

import "github.com/palmrunner/palmrunner/internal/wieerr"

// Resource is the flat, load-order-indexed asset table packaged Manifests
// reference by path: images, fonts, and any other bundled file a guest
// class opens by name. The native ARM image is not in this table; it is
// loaded separately through the manifest's native library entry.
type Resource struct {
	paths []string
	data  [][]byte
}

func NewResource() *Resource {
	return &Resource{}
}

// Add appends a new resource and returns its id.
func (r *Resource) Add(path string, data []byte) uint32 {
	r.paths = append(r.paths, path)
	r.data = append(r.data, data)
	return uint32(len(r.paths) - 1)
}

// ID looks up a resource's id by path, the first match winning if a path
// was added more than once.
func (r *Resource) ID(path string) (uint32, bool) {
	for i, p := range r.paths {
		if p == path {
			return uint32(i), true
		}
	}
	return 0, false
}

func (r *Resource) Size(id uint32) (uint32, error) {
	if int(id) >= len(r.data) {
		return 0, wieerr.New(wieerr.KindIO, "no such resource id %d", id)
	}
	return uint32(len(r.data[id])), nil
}

func (r *Resource) Data(id uint32) ([]byte, error) {
	if int(id) >= len(r.data) {
		return nil, wieerr.New(wieerr.KindIO, "no such resource id %d", id)
	}
	return r.data[id], nil
}
