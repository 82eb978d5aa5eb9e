package fat32

import (
	"encoding/binary"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

const (
	// ClusterMask isolates the 28 significant bits of a FAT32 cluster entry;
	// the top 4 bits are reserved (spec §3.4).
	ClusterMask = 0x0FFFFFFF

	// ClusterBad is the reserved value marking a bad cluster.
	ClusterBad = 0x0FFFFFF7

	// ClusterEOCMin is the lowest value marking end-of-chain; anything at or
	// above this (and below ClusterMask+1) ends a chain.
	ClusterEOCMin = 0x0FFFFFF8
)

// Table is the in-memory File Allocation Table (spec §3.4): a dense array of
// 32-bit cluster pointers, indexed directly by cluster number (not
// cluster-2). It is read-only after Mount and safe to share across
// read-only traversals.
type Table struct {
	entries []uint32
}

// loadTable reads the first FAT copy into memory with a single multi-sector
// read (spec §4.2 step 4).
func loadTable(dev *device.Device, geom *Geometry) (*Table, rofs.DriverError) {
	totalBytes := geom.SectorsPerFAT * geom.BytesPerSector
	buf := make([]byte, totalBytes)

	if err := dev.ReadSectors(
		device.Sector(geom.ReservedSectors), uint(geom.SectorsPerFAT), buf); err != nil {
		return nil, err
	}

	entries := make([]uint32, totalBytes/4)
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint32(buf[i*4:i*4+4]) & ClusterMask
	}

	return &Table{entries: entries}, nil
}

// NextCluster returns the cluster following c in its chain, using the
// direct-index form fat[c] (spec §4.3 / §9 design note 1 — the off-by-two
// indexing form some source revisions use is a bug and is not implemented).
func (t *Table) NextCluster(c uint32) (uint32, rofs.DriverError) {
	if int(c) >= len(t.entries) {
		return 0, rofs.ErrInvalidCluster.WithMessage("cluster index out of range of FAT")
	}
	return t.entries[c], nil
}

// ClusterIsValid reports whether c can be used to address a data cluster:
// 2 <= c, the masked value is below the bad-cluster marker, and c-2 is
// within the volume's cluster count (spec §4.3).
func ClusterIsValid(geom *Geometry, c uint32) bool {
	if c < 2 {
		return false
	}
	if (c & ClusterMask) >= ClusterBad {
		return false
	}
	return c-2 < geom.ClusterCount
}

// ClusterIsEndOfChain reports whether c (already masked) marks the end of a
// cluster chain.
func ClusterIsEndOfChain(c uint32) bool {
	return (c & ClusterMask) >= ClusterEOCMin
}

// FirstSectorOfCluster returns the first sector address of cluster c (spec
// §4.3). Caller must ensure c is valid.
func FirstSectorOfCluster(geom *Geometry, c uint32) device.Sector {
	return device.Sector((uint64(c-2) * uint64(geom.SectorsPerCluster)) + uint64(geom.FirstDataSector))
}

// ReadCluster fills buf (exactly geom.BytesPerCluster bytes) with the
// contents of cluster c (spec §4.3, testable property 2).
func ReadCluster(dev *device.Device, geom *Geometry, c uint32, buf []byte) rofs.DriverError {
	if uint32(len(buf)) != geom.BytesPerCluster {
		return rofs.ErrInvalidArgument.WithMessage("buffer must be exactly one cluster")
	}
	if !ClusterIsValid(geom, c) {
		return rofs.ErrInvalidCluster.WithMessage("cluster address out of range")
	}
	return dev.ReadSectors(FirstSectorOfCluster(geom, c), uint(geom.SectorsPerCluster), buf)
}
