package fat32

import (
	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// Entry is one logical result yielded by an Iterator: either a fully
// reassembled terminal entry (Name + ShortEntry), or — when the iterator was
// created with rofs.MountFlagsRaw — a raw 32-byte record the caller must
// interpret itself.
type Entry struct {
	Name  string
	Short ShortEntry
	Raw   RawEntry
	IsRaw bool
}

// Iterator is a resumable cursor over a FAT32 directory's cluster chain
// (spec §3.8, §4.4). It owns a single cluster-sized buffer and a scratch LFN
// accumulator; both are reused across calls to Next, so an Iterator is not
// safe to share across goroutines.
type Iterator struct {
	dev    *device.Device
	geom   *Geometry
	table  *Table
	flags  rofs.MountFlags
	cluster uint32
	offset  uint32
	buffer  []byte
	lfn     lfnAccumulator
	scratch [MaxSFN + 2]byte
}

// NewIterator creates an Iterator positioned at the start of startCluster
// (spec §4.4 "Initialization").
func NewIterator(
	dev *device.Device,
	geom *Geometry,
	table *Table,
	startCluster uint32,
	flags rofs.MountFlags,
) (*Iterator, rofs.DriverError) {
	it := &Iterator{
		dev:    dev,
		geom:   geom,
		table:  table,
		flags:  flags,
		buffer: make([]byte, geom.BytesPerCluster),
	}
	if err := it.Reset(startCluster); err != nil {
		return nil, err
	}
	return it, nil
}

// Reset rewinds the iterator to the start of a new cluster chain, reusing
// its existing buffer (spec §4.4.3).
func (it *Iterator) Reset(startCluster uint32) rofs.DriverError {
	if !ClusterIsValid(it.geom, startCluster) {
		return rofs.ErrInvalidCluster.WithMessage("directory start cluster is out of range")
	}
	if err := ReadCluster(it.dev, it.geom, startCluster, it.buffer); err != nil {
		return err
	}
	it.cluster = startCluster
	it.offset = 0
	it.lfn.reset()
	return nil
}

// Destroy releases the iterator's buffer (spec §4.4.3).
func (it *Iterator) Destroy() {
	it.buffer = nil
}

// Next advances the cursor and returns the next logical entry. ok is false
// with a nil error when the directory's terminator (a 0x00 name byte) or an
// invalid continuation cluster is reached — both spell EndOfDirectory (spec
// §4.4's pseudocode); ok is false with a non-nil error on any other failure.
func (it *Iterator) Next() (Entry, bool, rofs.DriverError) {
	for {
		if it.offset >= it.geom.BytesPerCluster {
			next, err := it.table.NextCluster(it.cluster)
			if err != nil {
				return Entry{}, false, err
			}
			if !ClusterIsValid(it.geom, next) {
				return Entry{}, false, nil
			}
			it.cluster = next
			if err := ReadCluster(it.dev, it.geom, it.cluster, it.buffer); err != nil {
				return Entry{}, false, err
			}
			it.offset = 0
		}

		var raw RawEntry
		copy(raw[:], it.buffer[it.offset:it.offset+DirentSize])
		it.offset += DirentSize

		if raw.IsFree() {
			return Entry{}, false, nil
		}

		if raw.IsVolumeLabel() || raw.IsDeleted() {
			if it.flags&rofs.MountFlagsRaw != 0 {
				return Entry{Raw: raw, IsRaw: true}, true, nil
			}
			continue
		}

		if raw.IsLongName() {
			if it.flags&rofs.MountFlagsRaw != 0 {
				return Entry{Raw: raw, IsRaw: true}, true, nil
			}
			it.lfn.append(decodeLFNFragment(&raw))
			continue
		}

		// Reserved combination, neither a plain volume label nor an LFN
		// fragment (spec §4.4 "record has (VOLUME_ID | SYSTEM) mask").
		if raw.Attributes()&(AttrVolumeID|AttrSystem) == (AttrVolumeID | AttrSystem) {
			continue
		}

		short := decodeShortEntry(&raw)

		var name string
		if !it.lfn.empty() {
			name = it.lfn.string()
		} else {
			name = formatShortName(&raw, it.scratch[:])
		}
		it.lfn.reset()

		return Entry{Name: name, Short: short, Raw: raw}, true, nil
	}
}
