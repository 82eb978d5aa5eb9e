package rofs

import (
	"os"
	"time"
)

// FileStat is a platform-independent, read-only subset of [syscall.Stat_t],
// filled in by both backends for [Filesystem.GetAttr] and the entries
// returned by [Filesystem.ReadDir].
type FileStat struct {
	Mode    os.FileMode
	Size    int64
	Nlink   uint32
	Atime   time.Time
	Mtime   time.Time
	Ctime   time.Time
}

func (stat *FileStat) IsDir() bool  { return stat.Mode.IsDir() }
func (stat *FileStat) IsFile() bool { return stat.Mode.IsRegular() }

// DirEntry is one entry yielded by [Filesystem.ReadDir]: a name paired with
// the attributes a second GetAttr call on that name would return.
type DirEntry struct {
	Name string
	Stat FileStat
}

// Filesystem is the uniform, backend-agnostic surface spec.md calls the
// Filesystem Facade (component 10). Both the fat32 and quark packages
// implement it; callers that don't care which backend they're talking to
// can hold just this interface.
type Filesystem interface {
	// GetAttr returns attributes for path, which must be an absolute,
	// slash-separated path. "/" is always a valid directory.
	GetAttr(path string) (FileStat, DriverError)

	// ReadDir lists the entries of the directory at path, in on-disk order.
	// Deleted entries, volume-label entries, and (for FAT32) raw LFN
	// fragments are never included.
	ReadDir(path string) ([]DirEntry, DriverError)

	// Read returns up to size bytes from path starting at offset. It never
	// reads past the end of the file; the returned slice may be shorter than
	// size if the file doesn't have that many bytes left.
	Read(path string, offset int64, size int) ([]byte, DriverError)

	// Destroy releases every resource the filesystem holds (in-memory FAT or
	// bitmap, iterator buffers, the underlying device). The Filesystem must
	// not be used afterward.
	Destroy() DriverError
}
