package quark

import (
	"os"
	"time"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
)

// Volume implements rofs.Filesystem over a Quark image (spec §4.7, §4.10 —
// the Filesystem Facade). It owns the device, the decoded geometry, and the
// loaded free-space bitmap; Destroy releases all three.
type Volume struct {
	dev    *device.Device
	geom   *Geometry
	bitmap *Bitmap
	flags  rofs.MountFlags
}

var _ rofs.Filesystem = (*Volume)(nil)

// Mount reads sector 0, validates it as a Quark superblock, and loads the
// free-space bitmap (spec §4.7).
func Mount(dev *device.Device, flags rofs.MountFlags) (*Volume, rofs.DriverError) {
	sector0 := make([]byte, device.SectorSize)
	if err := dev.Read(0, sector0); err != nil {
		return nil, err
	}

	geom, err := decodeSuperblock(sector0)
	if err != nil {
		if de, ok := err.(rofs.DriverError); ok {
			return nil, de
		}
		return nil, rofs.ErrBadFilesystemType.WrapError(err)
	}

	bm, berr := loadBitmap(dev, geom)
	if berr != nil {
		return nil, berr
	}

	return &Volume{dev: dev, geom: geom, bitmap: bm, flags: flags}, nil
}

// FreeClusters reports the number of free clusters as of mount time
// (diagnostic only; no read operation here consults the bitmap).
func (v *Volume) FreeClusters() int { return v.bitmap.FreeClusters() }

// GetAttr implements rofs.Filesystem. "/" is special-cased (spec §4.10):
// Quark's root directory has no owning dentry of its own (see Iterator's
// doc comment), so it's given a fixed, synthetic stat.
func (v *Volume) GetAttr(path string) (rofs.FileStat, rofs.DriverError) {
	if path == "/" {
		return rofs.FileStat{
			Mode:  os.ModeDir | os.FileMode(rofs.DefaultDirMode),
			Size:  0,
			Nlink: 2,
		}, nil
	}

	entry, err := Lookup(v.dev, v.geom, path)
	if err != nil {
		return rofs.FileStat{}, err
	}
	return statFromDentry(entry), nil
}

// ReadDir implements rofs.Filesystem. As with fat32.Volume.ReadDir, it
// always iterates with raw yielding off regardless of the volume's own
// mount flags; the facade contract (api.go) guarantees deleted records
// never appear in a ReadDir result.
func (v *Volume) ReadDir(path string) ([]rofs.DirEntry, rofs.DriverError) {
	var parent *Dentry

	if path != "/" {
		entry, err := Lookup(v.dev, v.geom, path)
		if err != nil {
			return nil, err
		}
		if !entry.IsDirectory() {
			return nil, rofs.ErrNotADirectory.WithMessage(path)
		}
		parent = &entry
	}

	it, err := NewIterator(v.dev, v.geom, parent, v.geom.RootCluster, 0)
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
		out = append(out, rofs.DirEntry{Name: entry.Name, Stat: statFromDentry(entry.Dentry)})
	}
	return out, nil
}

// Read implements rofs.Filesystem.
func (v *Volume) Read(path string, offset int64, size int) ([]byte, rofs.DriverError) {
	entry, err := Lookup(v.dev, v.geom, path)
	if err != nil {
		return nil, err
	}
	if entry.IsDirectory() {
		return nil, rofs.ErrNotADirectory.WithMessage(path)
	}

	buf := make([]byte, size)
	n, rerr := ReadFile(v.dev, v.geom, entry, buf, offset)
	if rerr != nil {
		return nil, rerr
	}
	return buf[:n], nil
}

// Destroy implements rofs.Filesystem.
func (v *Volume) Destroy() rofs.DriverError {
	v.bitmap = nil
	return v.dev.Close()
}

// statFromDentry converts a decoded dentry into the facade's FileStat (spec
// §4.10). Unlike FAT32, Quark dentries carry a single write_time field
// (seconds since the Unix epoch, per original_source) rather than separate
// create/access/write date-time pairs, so Atime/Ctime/Mtime all report the
// same value.
//
// Bits packs 9 permission bits in its low bits alongside the At* flag bits
// above them (spec §3.6); those low 9 bits are numerically identical to
// os.FileMode's own permission encoding (original_source/src/quark.c's
// quark_format sets them from the same S_IRUSR/S_IWUSR/... constants), so
// they decode directly with no translation table.
func statFromDentry(entry Dentry) rofs.FileStat {
	mode := os.FileMode(entry.Bits & 0777)
	if entry.IsDirectory() {
		mode |= os.ModeDir
	}

	when := time.Unix(int64(entry.WriteTime), 0).UTC()

	return rofs.FileStat{
		Mode:  mode,
		Size:  int64(entry.Size),
		Nlink: 1,
		Atime: when,
		Mtime: when,
		Ctime: when,
	}
}
