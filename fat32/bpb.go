// Package fat32 implements the FAT32 components of the core: BPB decoding,
// the FAT table cache, the directory iterator, path resolution, and
// byte-range file reads (spec §4.2-§4.6). Grounded on
// github.com/dargueta/disko's drivers/fat package, generalized to the
// read-only FAT32-only contract this spec describes.
package fat32

import (
	"bytes"
	"encoding/binary"

	multierror "github.com/hashicorp/go-multierror"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// rawBPB is the on-disk layout of the first 90 bytes of sector 0: the common
// BPB followed by the FAT32 extension. Field order, not Go struct alignment,
// determines the on-disk offsets that encoding/binary.Read uses, so fields
// must not be reordered.
type rawBPB struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	FATSize16         uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32

	// FAT32-only extension.
	FATSize32        uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfoSector     uint16
	BackupBootSector uint16
	Reserved         [12]byte
	DriveNumber      uint8
	Reserved1        uint8
	BootSignature    uint8
	VolumeID         uint32
	VolumeLabel      [11]byte
	FileSystemType   [8]byte
}

// validMedia checks BPB_Media against spec §3.2: 0xF0, or 0xF8..0xFF.
func validMedia(media uint8) bool {
	return media == 0xF0 || media >= 0xF8
}

// validJumpSignature checks for one of the two standard x86 jump-instruction
// encodings at the start of the boot sector (spec §3.2).
func validJumpSignature(jmp [3]byte) bool {
	if jmp[0] == 0xEB && jmp[2] == 0x90 {
		return true
	}
	return jmp[0] == 0xE9
}

// Geometry is the decoded, validated FAT32 volume descriptor (spec §3.2):
// everything downstream traversal needs to address clusters and sectors.
type Geometry struct {
	BytesPerSector    uint32
	SectorsPerCluster uint32
	ReservedSectors   uint32
	NumFATs           uint32
	SectorsPerFAT     uint32
	TotalSectors      uint32
	RootCluster       uint32
	FirstDataSector   uint32
	ClusterCount      uint32
	BytesPerCluster   uint32
	Media             uint8
}

// decodeBPB parses the first 90 bytes of sector0 and validates every
// invariant from spec §3.2. Unlike a short-circuiting validator, every
// violated invariant is collected with multierror so a caller handed a
// garbage sector 0 learns every reason it was rejected at once.
func decodeBPB(sector0 []byte) (*Geometry, error) {
	var raw rawBPB
	if err := binary.Read(bytes.NewReader(sector0), binary.LittleEndian, &raw); err != nil {
		return nil, rofs.ErrIOFailed.WrapError(err)
	}

	var result *multierror.Error

	if raw.BytesPerSector != device.SectorSize {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_BytsPerSec must be 512"))
	}
	if raw.ReservedSectors == 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_RsvdSecCnt must be nonzero"))
	}
	if !validMedia(raw.Media) {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_Media is not 0xF0 or in 0xF8..0xFF"))
	}
	if !validJumpSignature(raw.JmpBoot) {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BS_jmpBoot is not a recognized jump instruction"))
	}
	if raw.FATSize16 != 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_FATSz16 must be 0 on FAT32"))
	}
	if raw.TotalSectors16 != 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_TotSec16 must be 0 on FAT32"))
	}
	if raw.FATSize32 == 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_FATSz32 must be nonzero on FAT32"))
	}
	if raw.TotalSectors32 == 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_TotSec32 must be nonzero on FAT32"))
	}
	if raw.SectorsPerCluster == 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_SecPerClus must be nonzero"))
	}
	if raw.NumFATs == 0 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("BPB_NumFATs must be nonzero"))
	}

	if result != nil {
		// Computing geometry below would divide by fields we already know are
		// invalid; report what we have and stop.
		return nil, rofs.ErrBadFilesystemType.WrapError(result.ErrorOrNil())
	}

	numFATs := uint32(raw.NumFATs)
	fatSize := raw.FATSize32
	reservedSectors := uint32(raw.ReservedSectors)
	sectorsPerCluster := uint32(raw.SectorsPerCluster)
	totalSectors := raw.TotalSectors32

	dataSectors := totalSectors - reservedSectors - (numFATs * fatSize)
	clusterCount := dataSectors / sectorsPerCluster
	firstDataSector := reservedSectors + numFATs*fatSize
	bytesPerCluster := uint32(raw.BytesPerSector) * sectorsPerCluster

	if clusterCount < 65525 {
		result = multierror.Append(result, rofs.ErrBadFilesystemType.
			WithMessage("cluster count is too small to be FAT32"))
		return nil, rofs.ErrBadFilesystemType.WrapError(result.ErrorOrNil())
	}

	return &Geometry{
		BytesPerSector:    uint32(raw.BytesPerSector),
		SectorsPerCluster: sectorsPerCluster,
		ReservedSectors:   reservedSectors,
		NumFATs:           numFATs,
		SectorsPerFAT:     fatSize,
		TotalSectors:      totalSectors,
		RootCluster:       raw.RootCluster,
		FirstDataSector:   firstDataSector,
		ClusterCount:      clusterCount,
		BytesPerCluster:   bytesPerCluster,
		Media:             raw.Media,
	}, nil
}
