package fat32

import (
	"strings"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// RootCluster is the cluster a lookup always starts from. The original
// source hardcodes this to 2 rather than trusting BPB_RootClus; this
// implementation follows suit (geom.RootCluster, decoded from the BPB, is
// kept only for informational exposure).
const RootCluster = 2

// MaxPath is the longest path lookup accepts, including the leading slash
// (spec §4.5).
const MaxPath = 260

// Lookup resolves a slash-separated absolute path to its terminal short-name
// entry (spec §4.5). path must not be "/" itself — callers special-case the
// root directory at the facade layer (spec §4.10).
func Lookup(
	dev *device.Device,
	geom *Geometry,
	table *Table,
	path string,
) (ShortEntry, rofs.DriverError) {
	if len(path) == 0 || path[0] != '/' {
		return ShortEntry{}, rofs.ErrInvalidArgument.WithMessage("path must be absolute")
	}
	if len(path) > MaxPath {
		return ShortEntry{}, rofs.ErrInvalidArgument.WithMessage("path exceeds MaxPath")
	}

	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return ShortEntry{}, rofs.ErrInvalidArgument.WithMessage("path must name an entry")
	}
	components := strings.Split(trimmed, "/")

	it, err := NewIterator(dev, geom, table, RootCluster, 0)
	if err != nil {
		return ShortEntry{}, err
	}
	defer it.Destroy()

	var found ShortEntry
	for i, component := range components {
		if component == "" {
			return ShortEntry{}, rofs.ErrInvalidArgument.WithMessage("empty path component")
		}
		if len(component) > MaxLFN {
			return ShortEntry{}, rofs.ErrInvalidArgument.WithMessage("path component exceeds MaxLFN")
		}

		matched := false
		for {
			entry, ok, nextErr := it.Next()
			if nextErr != nil {
				return ShortEntry{}, nextErr
			}
			if !ok {
				break
			}
			if entry.IsRaw {
				continue
			}
			if entry.Name == component {
				found = entry.Short
				matched = true
				break
			}
		}

		if !matched {
			return ShortEntry{}, rofs.ErrNotFound.WithMessage(component)
		}

		if i < len(components)-1 {
			if !found.IsDirectory() {
				return ShortEntry{}, rofs.ErrNotADirectory.WithMessage(component)
			}
			if err := it.Reset(found.FirstCluster); err != nil {
				return ShortEntry{}, err
			}
		}
	}

	return found, nil
}
