package fat32

import (
	"os"
	"time"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// Volume implements rofs.Filesystem over a FAT32 image (spec §4.2, §4.10 —
// the Filesystem Facade). It owns the device, the decoded geometry, and the
// in-memory FAT; Destroy releases all three.
type Volume struct {
	dev   *device.Device
	geom  *Geometry
	table *Table
	flags rofs.MountFlags
}

var _ rofs.Filesystem = (*Volume)(nil)

// Mount reads sector 0, validates it as a FAT32 BPB, and loads the FAT into
// memory (spec §4.2).
func Mount(dev *device.Device, flags rofs.MountFlags) (*Volume, rofs.DriverError) {
	sector0 := make([]byte, device.SectorSize)
	if err := dev.Read(0, sector0); err != nil {
		return nil, err
	}

	geom, err := decodeBPB(sector0)
	if err != nil {
		if de, ok := err.(rofs.DriverError); ok {
			return nil, de
		}
		return nil, rofs.ErrBadFilesystemType.WrapError(err)
	}

	table, terr := loadTable(dev, geom)
	if terr != nil {
		return nil, terr
	}

	return &Volume{dev: dev, geom: geom, table: table, flags: flags}, nil
}

// GetAttr implements rofs.Filesystem. "/" is special-cased (spec §4.10):
// FAT32 has no on-disk entry for the root directory itself, so it's given a
// fixed, synthetic stat.
func (v *Volume) GetAttr(path string) (rofs.FileStat, rofs.DriverError) {
	if path == "/" {
		return rofs.FileStat{
			Mode:  os.ModeDir | os.FileMode(rofs.DefaultDirMode),
			Size:  0,
			Nlink: 2,
		}, nil
	}

	entry, err := Lookup(v.dev, v.geom, v.table, path)
	if err != nil {
		return rofs.FileStat{}, err
	}
	return statFromShort(entry), nil
}

// ReadDir implements rofs.Filesystem. It always iterates with raw yielding
// off, regardless of the volume's own mount flags, since the facade contract
// (api.go) guarantees deleted/volume-label/LFN-fragment records never appear
// in a ReadDir result; MountFlagsRaw is a lower-level iterator knob, not a
// facade-visible one.
func (v *Volume) ReadDir(path string) ([]rofs.DirEntry, rofs.DriverError) {
	cluster := uint32(RootCluster)

	if path != "/" {
		entry, err := Lookup(v.dev, v.geom, v.table, path)
		if err != nil {
			return nil, err
		}
		if !entry.IsDirectory() {
			return nil, rofs.ErrNotADirectory.WithMessage(path)
		}
		cluster = entry.FirstCluster
	}

	it, err := NewIterator(v.dev, v.geom, v.table, cluster, 0)
	if err != nil {
		return nil, err
	}
	defer it.Destroy()

	var out []rofs.DirEntry
	for {
		entry, ok, nextErr := it.Next()
		if nextErr != nil {
			return nil, nextErr
		}
		if !ok {
			break
		}
		out = append(out, rofs.DirEntry{Name: entry.Name, Stat: statFromShort(entry.Short)})
	}
	return out, nil
}

// Read implements rofs.Filesystem.
func (v *Volume) Read(path string, offset int64, size int) ([]byte, rofs.DriverError) {
	entry, err := Lookup(v.dev, v.geom, v.table, path)
	if err != nil {
		return nil, err
	}
	if entry.IsDirectory() {
		return nil, rofs.ErrNotADirectory.WithMessage(path)
	}

	buf := make([]byte, size)
	n, rerr := ReadFile(v.dev, v.geom, v.table, entry, buf, offset)
	if rerr != nil {
		return nil, rerr
	}
	return buf[:n], nil
}

// Destroy implements rofs.Filesystem.
func (v *Volume) Destroy() rofs.DriverError {
	v.table = nil
	return v.dev.Close()
}

// statFromShort converts a decoded short-name entry into the facade's
// FileStat (spec §4.10). FAT32 carries no Unix permission bits, so directories
// are reported with DefaultDirMode, read-only files 0444 and all other files
// 0644, mirroring the teacher's
// fixed-mode convention for filesystems without native permission bits.
func statFromShort(entry ShortEntry) rofs.FileStat {
	var mode os.FileMode
	switch {
	case entry.IsDirectory():
		mode = os.ModeDir | os.FileMode(rofs.DefaultDirMode)
	case entry.Attributes&AttrReadOnly != 0:
		mode = 0444
	default:
		mode = 0644
	}

	return rofs.FileStat{
		Mode:  mode,
		Size:  int64(entry.Size),
		Nlink: 1,
		Atime: decodeDate(entry.AccessDate),
		Mtime: decodeDateTime(entry.WriteDate, entry.WriteTime),
		Ctime: decodeDateTime(entry.CreateDate, entry.CreateTime),
	}
}

// decodeDateTime unpacks a FAT date/time pair into a time.Time (spec §4.10):
//
//	year   = ((date & 0xFE00) >> 9) + 1980
//	month  = (date & 0x01E0) >> 5
//	day    = date & 0x001F
//	hour   = time >> 11
//	minute = (time >> 5) & 0x3F
//	second = (time & 0x1F) * 2
func decodeDateTime(date, clock uint16) time.Time {
	year := int((date&0xFE00)>>9) + 1980
	month := time.Month((date & 0x01E0) >> 5)
	day := int(date & 0x001F)
	hour := int(clock >> 11)
	minute := int((clock >> 5) & 0x3F)
	second := int(clock&0x1F) * 2

	if month < 1 || day < 1 {
		return time.Time{}
	}
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

// decodeDate unpacks a date-only FAT field (no time component) for the access
// date, which FAT32 stores without a time of day.
func decodeDate(date uint16) time.Time {
	return decodeDateTime(date, 0)
}
