package quark

import (
	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// Entry is one logical result yielded by an Iterator: either a decoded
// terminal dentry, or — when the iterator was created with
// rofs.MountFlagsRaw — a raw 96-byte record the caller must interpret
// itself.
type Entry struct {
	Name   string
	Dentry Dentry
	Raw    RawDentry
	IsRaw  bool
}

// Iterator is a resumable cursor over a Quark directory's cluster sequence
// (spec §3.8, §4.9). Crossing a cluster boundary consults the Slot Walker
// against the directory's own dentry (parent) rather than a FAT-style
// table lookup. The root directory has no owning dentry to slot-walk
// against; original_source's own quark_format only ever allocates root a
// single cluster, so parent == nil is treated as a fixed one-cluster
// directory (documented simplification, see DESIGN.md).
type Iterator struct {
	dev          *device.Device
	geom         *Geometry
	parent       *Dentry
	flags        rofs.MountFlags
	logicalIndex uint32
	cluster      uint32
	offset       uint32
	buffer       []byte
}

// NewIterator creates an Iterator over parent's directory contents. parent
// is nil only for the root directory, in which case startCluster is used
// directly; otherwise startCluster is ignored and the directory's first
// cluster comes from the Slot Walker (logical index 0).
func NewIterator(
	dev *device.Device,
	geom *Geometry,
	parent *Dentry,
	startCluster uint32,
	flags rofs.MountFlags,
) (*Iterator, rofs.DriverError) {
	it := &Iterator{
		dev:    dev,
		geom:   geom,
		parent: parent,
		flags:  flags,
		buffer: make([]byte, geom.ClusterSize),
	}

	cluster := startCluster
	if parent != nil {
		first, ok, err := MapLogicalCluster(dev, geom, parent, 0)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, rofs.ErrInvalidCluster.WithMessage("directory has no first cluster")
		}
		cluster = first
	}

	if !ClusterIsValid(geom, cluster) {
		return nil, rofs.ErrInvalidCluster.WithMessage("directory start cluster is out of range")
	}
	if err := ReadCluster(dev, geom, cluster, it.buffer); err != nil {
		return nil, err
	}
	it.cluster = cluster
	return it, nil
}

// Destroy releases the iterator's buffer.
func (it *Iterator) Destroy() {
	it.buffer = nil
}

// Next advances the cursor and returns the next logical entry. ok is false
// with a nil error when the directory's terminator (a record whose first
// name byte is zero) or an exhausted slot schedule is reached; ok is false with a
// non-nil error on any other failure.
func (it *Iterator) Next() (Entry, bool, rofs.DriverError) {
	for {
		if it.offset >= it.geom.ClusterSize {
			if it.parent == nil {
				return Entry{}, false, nil
			}
			it.logicalIndex++
			next, ok, err := MapLogicalCluster(it.dev, it.geom, it.parent, it.logicalIndex)
			if err != nil {
				return Entry{}, false, err
			}
			if !ok {
				return Entry{}, false, nil
			}
			if rerr := ReadCluster(it.dev, it.geom, next, it.buffer); rerr != nil {
				return Entry{}, false, rerr
			}
			it.cluster = next
			it.offset = 0
		}

		var raw RawDentry
		copy(raw[:], it.buffer[it.offset:it.offset+DentrySize])
		it.offset += DentrySize

		if raw.IsFree() {
			return Entry{}, false, nil
		}

		dentry := decodeDentry(&raw)

		if dentry.IsDeleted() {
			if it.flags&rofs.MountFlagsRaw != 0 {
				return Entry{Raw: raw, IsRaw: true}, true, nil
			}
			continue
		}

		if !dentry.IsRegular() && !dentry.IsDirectory() {
			if it.flags&rofs.MountFlagsRaw != 0 {
				return Entry{Raw: raw, IsRaw: true}, true, nil
			}
			continue
		}

		return Entry{Name: dentry.Name, Dentry: dentry, Raw: raw}, true, nil
	}
}
