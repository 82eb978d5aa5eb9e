// Package quark implements the experimental Quark filesystem components of
// the core: superblock decoding, the slot/indirect-block walker, the
// directory iterator, path resolution, and byte-range file reads (spec
// §3.5-§3.8, §4.7-§4.9). Grounded on github.com/dargueta/disko's drivers/fat
// package for overall shape, and on original_source/src/quark.c and
// include/quark.h for on-disk semantics the distilled spec leaves open.
package quark

import (
	"bytes"
	"encoding/binary"

	"github.com/boljen/go-bitmap"
	multierror "github.com/hashicorp/go-multierror"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// Signature is the required value of the superblock's first field (spec
// §3.5, MFS_SB_SIGNATURE in the original source).
const Signature = 0xDEADBEEF

// rawSuperblock is the on-disk layout of sector 0 (spec §3.5, resolved
// against original_source/src/include/quark.h's struct quark_superblock).
// As with fat32.rawBPB, field order (not Go struct alignment) fixes the
// on-disk offsets.
type rawSuperblock struct {
	Signature     uint32
	Hash          uint32
	Serial        [8]byte
	Version       uint16
	SectorSize    uint16
	ClusterCount  uint32
	ClusterSize   uint16
	IndirectSize  uint16
	BitmapOffset  uint16
	BitmapSectors uint16
	RootOffset    uint32
	Label         [24]byte
	DataOffset    uint32
	Reserved      [64]byte
}

// Geometry is the decoded, validated Quark volume descriptor.
type Geometry struct {
	ClusterSize       uint32
	SectorsPerCluster uint32
	ClusterCount      uint32
	RootCluster       uint32
	DataOffset        uint32 // sector
	BitmapOffset      uint32 // sector
	BitmapSectors     uint32
	Label             string
}

// decodeSuperblock parses and validates sector 0 (spec §4.7).
func decodeSuperblock(sector0 []byte) (*Geometry, error) {
	var raw rawSuperblock
	if err := binary.Read(bytes.NewReader(sector0), binary.LittleEndian, &raw); err != nil {
		return nil, rofs.ErrIOFailed.WrapError(err)
	}

	var result *multierror.Error

	if raw.Signature != Signature {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("superblock signature is not 0xDEADBEEF"))
	}
	if raw.SectorSize != device.SectorSize {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("sector_size must be 512"))
	}
	if raw.ClusterSize == 0 || raw.ClusterSize%device.SectorSize != 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("cluster_size must be a nonzero multiple of the sector size"))
	}
	if raw.ClusterCount == 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("cluster_count must be nonzero"))
	}
	if raw.RootOffset == 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("root_offset must not be cluster 0 (Quark clusters are 1-indexed)"))
	}

	if result != nil {
		return nil, rofs.ErrBadFilesystemType.WrapError(result.ErrorOrNil())
	}

	label := string(bytes.TrimRight(raw.Label[:], "\x00"))

	return &Geometry{
		ClusterSize:       uint32(raw.ClusterSize),
		SectorsPerCluster: uint32(raw.ClusterSize) / device.SectorSize,
		ClusterCount:      raw.ClusterCount,
		RootCluster:       raw.RootOffset,
		DataOffset:        raw.DataOffset,
		BitmapOffset:      uint32(raw.BitmapOffset),
		BitmapSectors:     uint32(raw.BitmapSectors),
		Label:             label,
	}, nil
}

// Bitmap wraps the decoded free-space bitmap (spec §4.7). It is exposed only
// for diagnostic purposes (FreeClusters on Volume); no read operation in
// this module consults it, mirroring the original quark_mount, which loads
// the bitmap unconditionally but never queries it on a read path.
type Bitmap struct {
	bits         bitmap.Bitmap
	clusterCount int
}

// loadBitmap reads the bitmap region into memory (spec §4.7). bitmap.Bitmap
// is a []byte under the hood, so the freshly read buffer converts directly
// with no copy, the same pattern the teacher's blockcache uses over a
// pre-sized slice.
func loadBitmap(dev *device.Device, geom *Geometry) (*Bitmap, rofs.DriverError) {
	buf := make([]byte, geom.BitmapSectors*device.SectorSize)
	if err := dev.ReadSectors(device.Sector(geom.BitmapOffset), uint(geom.BitmapSectors), buf); err != nil {
		return nil, err
	}
	return &Bitmap{bits: bitmap.Bitmap(buf), clusterCount: int(geom.ClusterCount)}, nil
}

// FreeClusters reports the number of clusters marked free (bit clear) in the
// loaded bitmap, up to the volume's cluster count.
func (b *Bitmap) FreeClusters() int {
	free := 0
	for i := 0; i < b.clusterCount; i++ {
		if !b.bits.Get(i) {
			free++
		}
	}
	return free
}

// ClusterIsValid reports whether c can address a data cluster: Quark
// clusters are 1-indexed (spec §3.5), so c must be >= 1, below the
// reserved-marker range, and c-1 within the volume's cluster count.
func ClusterIsValid(geom *Geometry, c uint32) bool {
	if c < 1 {
		return false
	}
	if c >= ClusterBad {
		return false
	}
	return c-1 < geom.ClusterCount
}

// FirstSectorOfCluster returns the first sector address of cluster c
// (original_source FIRST_SECTOR macro: (cluster-1)*sectorsPerCluster+dataOffset).
func FirstSectorOfCluster(geom *Geometry, c uint32) device.Sector {
	return device.Sector((uint64(c-1) * uint64(geom.SectorsPerCluster)) + uint64(geom.DataOffset))
}

// ReadCluster fills buf (exactly geom.ClusterSize bytes) with the contents
// of cluster c.
func ReadCluster(dev *device.Device, geom *Geometry, c uint32, buf []byte) rofs.DriverError {
	if uint32(len(buf)) != geom.ClusterSize {
		return rofs.ErrInvalidArgument.WithMessage("buffer must be exactly one cluster")
	}
	if !ClusterIsValid(geom, c) {
		return rofs.ErrInvalidCluster.WithMessage("cluster address out of range")
	}
	return dev.ReadSectors(FirstSectorOfCluster(geom, c), uint(geom.SectorsPerCluster), buf)
}
