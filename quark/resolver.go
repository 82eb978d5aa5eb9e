package quark

import (
	"strings"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// MaxPath mirrors fat32.MaxPath: the longest path lookup accepts, including
// the leading slash (spec §4.5).
const MaxPath = 260

// Lookup resolves a slash-separated absolute path to its terminal dentry
// (spec §4.5). path must not be "/" itself — callers special-case the root
// directory at the facade layer (spec §4.10), since root has no dentry of
// its own to slot-walk against (see Iterator's doc comment).
func Lookup(
	dev *device.Device,
	geom *Geometry,
	path string,
) (Dentry, rofs.DriverError) {
	if len(path) == 0 || path[0] != '/' {
		return Dentry{}, rofs.ErrInvalidArgument.WithMessage("path must be absolute")
	}
	if len(path) > MaxPath {
		return Dentry{}, rofs.ErrInvalidArgument.WithMessage("path exceeds MaxPath")
	}

	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return Dentry{}, rofs.ErrInvalidArgument.WithMessage("path must name an entry")
	}
	components := strings.Split(trimmed, "/")

	var parent *Dentry // nil: root
	var found Dentry

	for i, component := range components {
		if component == "" {
			return Dentry{}, rofs.ErrInvalidArgument.WithMessage("empty path component")
		}
		if len(component) > MaxName {
			return Dentry{}, rofs.ErrInvalidArgument.WithMessage("path component exceeds MaxName")
		}

		it, err := NewIterator(dev, geom, parent, geom.RootCluster, 0)
		if err != nil {
			return Dentry{}, err
		}

		matched := false
		for {
			entry, ok, nextErr := it.Next()
			if nextErr != nil {
				it.Destroy()
				return Dentry{}, nextErr
			}
			if !ok {
				break
			}
			if entry.IsRaw {
				continue
			}
			if entry.Name == component {
				found = entry.Dentry
				matched = true
				break
			}
		}
		it.Destroy()

		if !matched {
			return Dentry{}, rofs.ErrNotFound.WithMessage(component)
		}

		if i < len(components)-1 {
			if !found.IsDirectory() {
				return Dentry{}, rofs.ErrNotADirectory.WithMessage(component)
			}
		}

		foundCopy := found
		parent = &foundCopy
	}

	return found, nil
}
