package quark

import (
	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// ReadFile copies up to len(out) bytes from entry's data starting at offset
// into out (spec §4.6), using the Slot Walker to translate each logical
// cluster index to a physical cluster rather than following a FAT-style
// chain. As in fat32.ReadFile, the return is the number of bytes actually
// copied, which may be less than len(out) if the entry's slot schedule runs
// out before its recorded size is satisfied.
func ReadFile(
	dev *device.Device,
	geom *Geometry,
	entry Dentry,
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

	clusterSize := int64(geom.ClusterSize)
	logicalIndex := uint32(offset / clusterSize)
	intraOffset := offset - int64(logicalIndex)*clusterSize

	page := make([]byte, clusterSize)
	var written int64

	for written < pending {
		cluster, ok, err := MapLogicalCluster(dev, geom, &entry, logicalIndex)
		if err != nil {
			return int(written), err
		}
		if !ok {
			return int(written), rofs.ErrUnexpectedEOF.WithMessage("slot schedule ended before requested range")
		}
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
		logicalIndex++
	}

	return int(written), nil
}
