// Package testutil builds small, fully in-memory FAT32 disk images for unit
// tests, the way the teacher's testing package builds in-memory block-cache
// fixtures (github.com/dargueta/disko/testing). Images are returned as plain
// []byte, meant to be wrapped with github.com/xaionaro-go/bytesextra and a
// device.Device by the caller.
package testutil

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

const bytesPerSector = 512

// MinFAT32Clusters is the smallest cluster count that satisfies the FAT32
// BPB invariant decodeBPB enforces (spec §3.2: clusterCount >= 65525, the
// threshold that distinguishes FAT32 from FAT16). Test fixtures that need a
// minimal-but-valid image should pass this as totalClusters; only clusters
// actually allocated via AllocCluster/AddFile/AddDir consume real memory,
// since cluster storage is a sparse map keyed by cluster number.
const MinFAT32Clusters = 65525

// FAT32Image incrementally builds a minimal, spec-valid FAT32 image: one
// boot sector, a single FAT, and a data region of freely allocatable
// clusters.
type FAT32Image struct {
	sectorsPerCluster uint32
	reservedSectors   uint32
	fatSectors        uint32
	totalClusters     uint32

	fat         []uint32
	clusterData map[uint32][]byte
	cursor      map[uint32]int
	nextFree    uint32
}

// NewFAT32Image allocates a builder for an image with room for exactly
// totalClusters data clusters of sectorsPerCluster sectors each.
func NewFAT32Image(sectorsPerCluster, totalClusters uint32) *FAT32Image {
	const reservedSectors = 32
	entries := totalClusters + 2
	fatBytes := entries * 4
	fatSectors := (fatBytes + bytesPerSector - 1) / bytesPerSector

	img := &FAT32Image{
		sectorsPerCluster: sectorsPerCluster,
		reservedSectors:   reservedSectors,
		fatSectors:        fatSectors,
		totalClusters:     totalClusters,
		fat:               make([]uint32, fatSectors*bytesPerSector/4),
		clusterData:       make(map[uint32][]byte),
		cursor:            make(map[uint32]int),
		nextFree:          2,
	}
	img.fat[0] = 0x0FFFFFF8
	img.fat[1] = 0x0FFFFFFF

	// Cluster 2 is always the root directory; reserve it up front so a
	// caller's first AllocCluster doesn't collide with it.
	img.fat[2] = 0x0FFFFFFF
	img.clusterData[2] = make([]byte, img.bytesPerCluster())
	img.nextFree = 3

	return img
}

func (img *FAT32Image) bytesPerCluster() uint32 {
	return bytesPerSector * img.sectorsPerCluster
}

// AllocCluster reserves the next free cluster, marks it end-of-chain, and
// zero-fills its backing storage.
func (img *FAT32Image) AllocCluster() uint32 {
	c := img.nextFree
	img.nextFree++
	img.fat[c] = 0x0FFFFFFF
	img.clusterData[c] = make([]byte, img.bytesPerCluster())
	return c
}

// LinkChain links clusters (already allocated) into a single chain in order,
// terminating with end-of-chain.
func (img *FAT32Image) LinkChain(clusters []uint32) {
	for i := 0; i < len(clusters)-1; i++ {
		img.fat[clusters[i]] = clusters[i+1]
	}
	if len(clusters) > 0 {
		img.fat[clusters[len(clusters)-1]] = 0x0FFFFFFF
	}
}

// SetClusterContent overwrites the full contents of an already-allocated
// cluster, truncating or zero-padding data to exactly one cluster's size.
func (img *FAT32Image) SetClusterContent(cluster uint32, data []byte) {
	buf := img.clusterData[cluster]
	n := copy(buf, data)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// AppendEntries writes one or more raw 32-byte directory records into
// cluster, starting immediately after whatever was previously appended.
func (img *FAT32Image) AppendEntries(cluster uint32, raws ...[32]byte) {
	buf := img.clusterData[cluster]
	off := img.cursor[cluster]
	for _, r := range raws {
		copy(buf[off:off+32], r[:])
		off += 32
	}
	img.cursor[cluster] = off
}

// AddDir allocates a new cluster, writes a directory entry for it into
// parent, and returns the new cluster number.
func (img *FAT32Image) AddDir(parent uint32, name string) uint32 {
	const attrDirectory = 0x10
	child := img.AllocCluster()
	img.AppendEntries(parent, shortEntriesFor(name, attrDirectory, child, 0)...)
	return child
}

// AddFile writes content into one or more newly allocated clusters, chains
// them, and adds a directory entry for name (with a synthesized LFN sequence
// if name isn't a plain 8.3-safe upper-case name) into parent. Returns the
// file's first cluster.
func (img *FAT32Image) AddFile(parent uint32, name string, attr byte, content []byte) uint32 {
	var clusters []uint32
	perCluster := int(img.bytesPerCluster())
	if len(content) == 0 {
		clusters = []uint32{img.AllocCluster()}
	}
	for off := 0; off < len(content); off += perCluster {
		c := img.AllocCluster()
		end := off + perCluster
		if end > len(content) {
			end = len(content)
		}
		img.SetClusterContent(c, content[off:end])
		clusters = append(clusters, c)
	}
	img.LinkChain(clusters)

	first := clusters[0]
	img.AppendEntries(parent, shortEntriesFor(name, attr, first, uint32(len(content)))...)
	return first
}

// AddRaw inserts an already-built raw record verbatim (for deleted entries,
// volume labels, or hand-crafted LFN fragments in tests).
func (img *FAT32Image) AddRaw(cluster uint32, raw [32]byte) {
	img.AppendEntries(cluster, raw)
}

// RootCluster is always 2 for images built by this package.
func (img *FAT32Image) RootCluster() uint32 { return 2 }

// Build assembles the final image bytes: boot sector, one FAT copy, and the
// data region.
func (img *FAT32Image) Build() []byte {
	dataSectors := img.totalClusters * img.sectorsPerCluster
	totalSectors := img.reservedSectors + img.fatSectors + dataSectors
	out := make([]byte, uint64(totalSectors)*bytesPerSector)

	packBPB(out, img.reservedSectors, img.sectorsPerCluster, img.fatSectors, totalSectors)

	fatOffset := img.reservedSectors * bytesPerSector
	for i, v := range img.fat {
		binary.LittleEndian.PutUint32(out[fatOffset+uint32(i)*4:], v)
	}

	firstDataSector := img.reservedSectors + img.fatSectors
	for cluster, data := range img.clusterData {
		sector := firstDataSector + (cluster-2)*img.sectorsPerCluster
		offset := uint64(sector) * bytesPerSector
		copy(out[offset:offset+uint64(len(data))], data)
	}

	return out
}

func packBPB(out []byte, reservedSectors, sectorsPerCluster, fatSectors, totalSectors uint32) {
	out[0], out[1], out[2] = 0xEB, 0x00, 0x90
	copy(out[3:11], "MSWIN4.1")
	binary.LittleEndian.PutUint16(out[11:13], bytesPerSector)
	out[13] = byte(sectorsPerCluster)
	binary.LittleEndian.PutUint16(out[14:16], uint16(reservedSectors))
	out[16] = 1 // NumFATs
	binary.LittleEndian.PutUint16(out[17:19], 0)
	binary.LittleEndian.PutUint16(out[19:21], 0)
	out[21] = 0xF8
	binary.LittleEndian.PutUint16(out[22:24], 0)
	binary.LittleEndian.PutUint16(out[24:26], 63)
	binary.LittleEndian.PutUint16(out[26:28], 255)
	binary.LittleEndian.PutUint32(out[28:32], 0)
	binary.LittleEndian.PutUint32(out[32:36], totalSectors)
	binary.LittleEndian.PutUint32(out[36:40], fatSectors)
	binary.LittleEndian.PutUint16(out[40:42], 0)
	binary.LittleEndian.PutUint16(out[42:44], 0)
	binary.LittleEndian.PutUint32(out[44:48], 2)
	binary.LittleEndian.PutUint16(out[48:50], 1)
	binary.LittleEndian.PutUint16(out[50:52], 6)
	out[64] = 0x80
	out[65] = 0
	out[66] = 0x29
	binary.LittleEndian.PutUint32(out[67:71], 0x12345678)
	copy(out[71:82], "NO NAME    ")
	copy(out[82:90], "FAT32   ")
}

// shortEntriesFor builds the directory records for name: just a short entry
// if name is already 8.3-safe, otherwise a synthesized LFN run followed by
// its generated short entry.
func shortEntriesFor(name string, attr byte, firstCluster, size uint32) [][32]byte {
	short, needsLFN := shortNameFor(name)
	shortRaw := encodeShort(short, attr, firstCluster, size)
	if !needsLFN {
		return [][32]byte{shortRaw}
	}
	return append(encodeLFNEntries(name, 0), shortRaw)
}

// shortNameFor derives an 8.3 name. Plain upper-case 8.3 names pass through
// unchanged; anything else gets a "TILDEn~1"-free placeholder short name
// since these tests only ever look entries up by their long name.
func shortNameFor(name string) (out [11]byte, needsLFN bool) {
	for i := range out {
		out[i] = ' '
	}

	isShortSafe := len(name) <= 12 && !strings.ContainsAny(name, " ")
	base, ext, hasExt := strings.Cut(name, ".")
	if isShortSafe && len(base) <= 8 && len(ext) <= 3 && isUpperASCII(name) {
		copy(out[0:8], base)
		if hasExt {
			copy(out[8:11], ext)
		}
		return out, false
	}

	copy(out[0:6], "LONGNM")
	out[6], out[7] = '~', '1'
	return out, true
}

func isUpperASCII(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	return true
}

func encodeShort(name [11]byte, attr byte, firstCluster, size uint32) [32]byte {
	var raw [32]byte
	copy(raw[0:11], name[:])
	raw[11] = attr
	binary.LittleEndian.PutUint16(raw[20:22], uint16(firstCluster>>16))
	binary.LittleEndian.PutUint16(raw[26:28], uint16(firstCluster&0xFFFF))
	binary.LittleEndian.PutUint32(raw[28:32], size)
	return raw
}

// encodeLFNEntries builds the on-disk (descending-sequence) LFN run for name.
func encodeLFNEntries(name string, checksum byte) [][32]byte {
	units := utf16.Encode([]rune(name))
	const groupSize = 13
	numGroups := (len(units) + groupSize - 1) / groupSize
	if numGroups == 0 {
		numGroups = 1
	}

	entries := make([][32]byte, numGroups)
	for g := numGroups; g >= 1; g-- {
		start := (g - 1) * groupSize
		chunk := make([]uint16, groupSize)
		for i := 0; i < groupSize; i++ {
			pos := start + i
			switch {
			case pos < len(units):
				chunk[i] = units[pos]
			case pos == len(units):
				chunk[i] = 0x0000
			default:
				chunk[i] = 0xFFFF
			}
		}

		seq := byte(g)
		if g == numGroups {
			seq |= 0x40
		}
		entries[numGroups-g] = encodeLFNRaw(seq, checksum, chunk)
	}
	return entries
}

func encodeLFNRaw(seq, checksum byte, chunk []uint16) [32]byte {
	var raw [32]byte
	raw[0] = seq
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint16(raw[1+2*i:], chunk[i])
	}
	raw[11] = 0x0F // ReadOnly|Hidden|System|VolumeID
	raw[13] = checksum
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint16(raw[14+2*i:], chunk[5+i])
	}
	for i := 0; i < 2; i++ {
		binary.LittleEndian.PutUint16(raw[28+2*i:], chunk[11+i])
	}
	return raw
}
