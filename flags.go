package rofs

// MountFlags controls how a volume is opened. This is a read-only module, so
// only the subset of the teacher corpus's mount flags that make sense here
// are kept.
type MountFlags int

const (
	// MountFlagsAllowRead indicates the image should be mounted with read
	// permissions. Every Mount call implies this; it exists so callers can
	// pass 0 and still get readable semantics, matching the bit layout
	// conventions used across the retrieval pack.
	MountFlagsAllowRead = MountFlags(1 << iota)

	// MountFlagsRaw tells directory iterators to yield every raw entry,
	// including deleted entries, volume-label entries, and (for FAT32) LFN
	// fragments, instead of only terminal, live entries. Corresponds to the
	// source's FAT32_ITF_ANY flag.
	MountFlagsRaw
)

// S_IFDIR and S_IFREG mirror the POSIX file-type bits from the teacher's
// flags.go; only these two are reproduced. FileStat.Mode does not use them: it
// is an os.FileMode and carries os.ModeDir for directories.
const (
	S_IFREG = 0x8000
	S_IFDIR = 0x4000
)

const (
	S_IRUSR = 0400
	S_IWUSR = 0200
	S_IXUSR = 0100
	S_IRGRP = 0040
	S_IXGRP = 0010
	S_IROTH = 0004
	S_IXOTH = 0001
)

// DefaultDirMode (0755) is the mode reported for the root directory on both
// backends and for every FAT32 directory, since FAT32 has no Unix permission
// bits at all. Quark directories other than the root report the permission
// bits stored in their own dentry instead.
const DefaultDirMode = S_IRUSR | S_IWUSR | S_IXUSR | S_IRGRP | S_IXGRP | S_IROTH | S_IXOTH
