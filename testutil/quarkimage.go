package testutil

import "encoding/binary"

// quarkSectorSize mirrors bytesPerSector; Quark, like FAT32, is built on
// 512-byte sectors in this module (spec §3.1).
const quarkSectorSize = 512

// QuarkSlot is a (coverage, pointer) pair, encoded the same way as
// quark.Slot, duplicated here so this package stays self-contained (see
// fat32image.go's equivalent rationale: tests build raw bytes directly
// rather than reaching into the package under test).
type QuarkSlot struct {
	Coverage uint32
	Pointer  uint32
}

// QuarkImage incrementally builds a minimal, spec-valid Quark image: one
// superblock sector, a free-space bitmap region, and a data region of
// freely allocatable, 1-indexed clusters. Cluster 1 is always reserved as
// the (single-cluster) root directory, matching the documented root
// simplification in quark.Iterator.
type QuarkImage struct {
	sectorsPerCluster uint32
	totalClusters     uint32
	bitmapSectors     uint32
	dataOffsetSector  uint32

	clusterData map[uint32][]byte
	cursor      map[uint32]int
	nextFree    uint32
}

// NewQuarkImage allocates a builder with room for totalClusters data
// clusters of sectorsPerCluster sectors each.
func NewQuarkImage(sectorsPerCluster, totalClusters uint32) *QuarkImage {
	bitmapBits := totalClusters
	bitmapBytes := (bitmapBits + 7) / 8
	bitmapSectors := (bitmapBytes + quarkSectorSize - 1) / quarkSectorSize
	if bitmapSectors == 0 {
		bitmapSectors = 1
	}

	img := &QuarkImage{
		sectorsPerCluster: sectorsPerCluster,
		totalClusters:     totalClusters,
		bitmapSectors:     bitmapSectors,
		dataOffsetSector:  1 + bitmapSectors,
		clusterData:       make(map[uint32][]byte),
		cursor:            make(map[uint32]int),
		nextFree:          1,
	}

	// Cluster 1 is always the root directory.
	root := img.AllocCluster()
	img.nextFree = root + 1

	return img
}

func (img *QuarkImage) bytesPerCluster() uint32 {
	return quarkSectorSize * img.sectorsPerCluster
}

// AllocCluster reserves the next free cluster and zero-fills its backing
// storage.
func (img *QuarkImage) AllocCluster() uint32 {
	c := img.nextFree
	img.nextFree++
	img.clusterData[c] = make([]byte, img.bytesPerCluster())
	return c
}

// AllocRun reserves n contiguous clusters (trivial since allocation is
// always sequential) and returns the first.
func (img *QuarkImage) AllocRun(n uint32) uint32 {
	first := img.nextFree
	for i := uint32(0); i < n; i++ {
		img.AllocCluster()
	}
	return first
}

// SetClusterContent overwrites the full contents of an already-allocated
// cluster, truncating or zero-padding data to exactly one cluster's size.
func (img *QuarkImage) SetClusterContent(cluster uint32, data []byte) {
	buf := img.clusterData[cluster]
	n := copy(buf, data)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// AppendEntries writes one or more raw 96-byte dentry records into cluster,
// starting immediately after whatever was previously appended.
func (img *QuarkImage) AppendEntries(cluster uint32, raws ...[96]byte) {
	buf := img.clusterData[cluster]
	off := img.cursor[cluster]
	for _, r := range raws {
		copy(buf[off:off+96], r[:])
		off += 96
	}
	img.cursor[cluster] = off
}

// AddDirEntry appends a fully custom dentry record into parentCluster,
// letting callers exercise indirect-slot and multi-level chaining scenarios
// the higher-level AddDir/AddFile helpers don't.
func (img *QuarkImage) AddDirEntry(
	parentCluster uint32, name string, bits uint16, size, writeTime uint32, slots [6]QuarkSlot,
) {
	img.AppendEntries(parentCluster, encodeDentry(name, bits, size, writeTime, slots))
}

// AddDir allocates a single cluster for a new subdirectory, writes its
// dentry into parentCluster, and returns the new cluster number. Every
// directory AddDir creates occupies exactly one cluster, mapped by a single
// direct slot; the root directory is likewise a single cluster.
func (img *QuarkImage) AddDir(parentCluster uint32, name string) uint32 {
	const atDirectory = 0x0400
	const mode0755 = 0755
	child := img.AllocCluster()
	var slots [6]QuarkSlot
	slots[0] = QuarkSlot{Coverage: 1, Pointer: child}
	img.AddDirEntry(parentCluster, name, atDirectory|mode0755, 0, 0, slots)
	return child
}

// AddFile allocates a contiguous run of clusters for content, writes it, and
// appends a dentry (one direct slot covering the whole run) into
// parentCluster.
func (img *QuarkImage) AddFile(parentCluster uint32, name string, content []byte) uint32 {
	const atRegular = 0x0800
	const mode0644 = 0644
	perCluster := int(img.bytesPerCluster())
	n := uint32((len(content) + perCluster - 1) / perCluster)
	if n == 0 {
		n = 1
	}
	first := img.AllocRun(n)

	for i := uint32(0); i < n; i++ {
		c := first + i
		start := int(i) * perCluster
		end := start + perCluster
		if end > len(content) {
			end = len(content)
		}
		img.SetClusterContent(c, content[start:end])
	}

	var slots [6]QuarkSlot
	slots[0] = QuarkSlot{Coverage: n, Pointer: first}
	img.AddDirEntry(parentCluster, name, atRegular|mode0644, uint32(len(content)), 0, slots)
	return first
}

// AddIndirectBlock allocates and fills a new indirect-block cluster (spec
// §3.7): signature, sub-slot array, and the next-chaining pointer this
// implementation adds beyond the original's flat layout. Returns the
// cluster number, suitable as a QuarkSlot.Pointer for slot index 4 or 5.
func (img *QuarkImage) AddIndirectBlock(subSlots []QuarkSlot, next uint32) uint32 {
	const indirectSignature = 0x5523FF32
	cluster := img.AllocCluster()

	var coverage uint32
	for _, s := range subSlots {
		coverage += s.Coverage
	}

	buf := make([]byte, img.bytesPerCluster())
	binary.LittleEndian.PutUint32(buf[0:4], indirectSignature)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(subSlots)))
	binary.LittleEndian.PutUint32(buf[8:12], coverage)
	for i, s := range subSlots {
		off := 12 + i*8
		binary.LittleEndian.PutUint32(buf[off:off+4], s.Coverage)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], s.Pointer)
	}
	binary.LittleEndian.PutUint32(buf[len(buf)-4:], next)

	img.SetClusterContent(cluster, buf)
	return cluster
}

// RootCluster is always 1 for images built by this package.
func (img *QuarkImage) RootCluster() uint32 { return 1 }

// Build assembles the final image bytes: superblock sector, bitmap region
// (left zeroed; no read path in this module consults it), and data region.
func (img *QuarkImage) Build() []byte {
	dataSectors := img.totalClusters * img.sectorsPerCluster
	totalSectors := img.dataOffsetSector + dataSectors
	out := make([]byte, uint64(totalSectors)*quarkSectorSize)

	packSuperblock(out, img.sectorsPerCluster, img.totalClusters, img.bitmapSectors, img.dataOffsetSector)

	firstDataSector := img.dataOffsetSector
	for cluster, data := range img.clusterData {
		sector := firstDataSector + (cluster-1)*img.sectorsPerCluster
		offset := uint64(sector) * quarkSectorSize
		copy(out[offset:offset+uint64(len(data))], data)
	}

	return out
}

func packSuperblock(out []byte, sectorsPerCluster, totalClusters, bitmapSectors, dataOffsetSector uint32) {
	const signature = 0xDEADBEEF
	clusterSize := sectorsPerCluster * quarkSectorSize

	binary.LittleEndian.PutUint32(out[0:4], signature)
	binary.LittleEndian.PutUint32(out[4:8], 0) // hash, unchecked
	copy(out[8:16], "TESTDISK")
	binary.LittleEndian.PutUint16(out[16:18], 1) // version
	binary.LittleEndian.PutUint16(out[18:20], quarkSectorSize)
	binary.LittleEndian.PutUint32(out[20:24], totalClusters)
	binary.LittleEndian.PutUint16(out[24:26], uint16(clusterSize))
	binary.LittleEndian.PutUint16(out[26:28], 0) // indirect_size, unchecked
	binary.LittleEndian.PutUint16(out[28:30], 1) // bitmap_offset (sector)
	binary.LittleEndian.PutUint16(out[30:32], uint16(bitmapSectors))
	binary.LittleEndian.PutUint32(out[32:36], 1) // root_offset: cluster 1
	copy(out[36:60], "TEST")
	binary.LittleEndian.PutUint32(out[60:64], dataOffsetSector)
}

// encodeDentry builds a 96-byte Quark directory record (spec §3.6),
// matching quark.decodeDentry's field offsets.
func encodeDentry(name string, bits uint16, size, writeTime uint32, slots [6]QuarkSlot) [96]byte {
	var raw [96]byte
	binary.LittleEndian.PutUint32(raw[0:4], size)
	binary.LittleEndian.PutUint32(raw[4:8], writeTime)
	binary.LittleEndian.PutUint16(raw[8:10], bits)
	binary.LittleEndian.PutUint16(raw[10:12], 0) // owner, unchecked

	for i, s := range slots {
		off := 12 + i*8
		binary.LittleEndian.PutUint32(raw[off:off+4], s.Coverage)
		binary.LittleEndian.PutUint32(raw[off+4:off+8], s.Pointer)
	}

	binary.LittleEndian.PutUint16(raw[64:66], 0) // name_hash, unchecked

	truncated := name
	const maxName = 29
	if len(truncated) > maxName {
		truncated = truncated[:maxName]
	}
	raw[66] = byte(len(truncated))
	copy(raw[67:67+len(truncated)], truncated)

	return raw
}
