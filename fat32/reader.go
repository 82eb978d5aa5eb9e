package fat32

import (
	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// ReadFile copies up to len(out) bytes from entry's cluster chain starting at
// offset into out (spec §4.6). It clamps the requested range to the entry's
// recorded size and returns the number of bytes actually copied — not the
// clamped request size — since a cluster chain that ends early must be
// reported as a short read rather than silently overrun (spec §9 design note
// 2, resolved in SPEC_FULL.md).
func ReadFile(
	dev *device.Device,
	geom *Geometry,
	table *Table,
	entry ShortEntry,
	out []byte,
	offset int64,
) (int, rofs.DriverError) {
	if offset < 0 {
		return 0, rofs.ErrInvalidArgument.WithMessage("offset must not be negative")
	}

	fileSize := int64(entry.Size)
	if offset >= fileSize {
		return 0, nil
	}

	pending := int64(len(out))
	if remaining := fileSize - offset; pending > remaining {
		pending = remaining
	}
	if pending <= 0 {
		return 0, nil
	}

	clusterSize := int64(geom.BytesPerCluster)
	jumps := offset / clusterSize
	intraOffset := offset - jumps*clusterSize

	cluster := entry.FirstCluster
	for i := int64(0); i < jumps; i++ {
		next, err := table.NextCluster(cluster)
		if err != nil {
			return 0, err
		}
		if !ClusterIsValid(geom, next) {
			return 0, rofs.ErrUnexpectedEOF.WithMessage("cluster chain ended before requested offset")
		}
		cluster = next
	}

	page := make([]byte, clusterSize)
	var written int64

	for written < pending {
		if err := ReadCluster(dev, geom, cluster, page); err != nil {
			return int(written), err
		}

		avail := clusterSize - intraOffset
		toCopy := pending - written
		if toCopy > avail {
			toCopy = avail
		}
		copy(out[written:written+toCopy], page[intraOffset:intraOffset+toCopy])
		written += toCopy
		intraOffset = 0

		if written < pending {
			next, err := table.NextCluster(cluster)
			if err != nil {
				return int(written), err
			}
			if !ClusterIsValid(geom, next) {
				return int(written), rofs.ErrUnexpectedEOF.WithMessage("cluster chain ended before requested size")
			}
			cluster = next
		}
	}

	return int(written), nil
}
