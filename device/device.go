// Package device implements the Block Device component (spec §4.1): a
// sector-addressed byte I/O abstraction over a backing file or in-memory
// buffer. Grounded on github.com/dargueta/disko's
// drivers/common/blockdevice.go.
package device

import (
	"io"
	"os"

	rofs "github.com/dskfs/rofs"
)

// SectorSize is the fixed sector size this module supports (spec §3.1).
const SectorSize = 512

// Sector is the address of one 512-byte sector on a Device.
type Sector uint64

// Device is a sector-addressed view over any io.ReadWriteSeeker. currentSector
// is an informational hint only (spec §3.1); it is never consulted to decide
// correctness, only updated so callers built on top of Device (e.g. a block
// cache) can make caching decisions.
//
// A Device is not safe for concurrent use: every Read/Write explicitly seeks
// before touching the stream, so interleaved calls from multiple goroutines
// would race on the shared seek position.
type Device struct {
	stream        io.ReadWriteSeeker
	closer        io.Closer
	totalSectors  uint64
	currentSector Sector
}

// Open opens path for read-write binary access and wraps it as a Device.
// totalSectors is derived from the file's size.
func Open(path string) (*Device, rofs.DriverError) {
	if path == "" {
		return nil, rofs.ErrInvalidArgument.WithMessage("device path is empty")
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, rofs.ErrIOFailed.WrapError(err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, rofs.ErrIOFailed.WrapError(err)
	}

	return &Device{
		stream:       f,
		closer:       f,
		totalSectors: uint64(info.Size()) / SectorSize,
	}, nil
}

// New wraps an already-open io.ReadWriteSeeker (for example an in-memory
// buffer from github.com/xaionaro-go/bytesextra) as a Device of totalSectors
// sectors. If stream also implements io.Closer, Close will call it.
func New(stream io.ReadWriteSeeker, totalSectors uint64) *Device {
	dev := &Device{stream: stream, totalSectors: totalSectors}
	if c, ok := stream.(io.Closer); ok {
		dev.closer = c
	}
	return dev
}

// TotalSectors returns the number of addressable sectors on the device.
func (d *Device) TotalSectors() uint64 { return d.totalSectors }

// CurrentSector returns the informational current-sector hint (spec §3.1).
func (d *Device) CurrentSector() Sector { return d.currentSector }

func (d *Device) checkBounds(sector Sector) rofs.DriverError {
	if uint64(sector) >= d.totalSectors {
		return rofs.ErrInvalidArgument.WithMessage("sector out of range")
	}
	return nil
}

func (d *Device) seekTo(sector Sector) rofs.DriverError {
	if err := d.checkBounds(sector); err != nil {
		return err
	}
	_, err := d.stream.Seek(int64(sector)*SectorSize, io.SeekStart)
	if err != nil {
		return rofs.ErrIOFailed.WrapError(err)
	}
	return nil
}

// Read reads exactly one sector-sized chunk at sector*SectorSize into buffer,
// which must be exactly SectorSize bytes. A short read is an IoError.
func (d *Device) Read(sector Sector, buffer []byte) rofs.DriverError {
	if len(buffer) != SectorSize {
		return rofs.ErrInvalidArgument.WithMessage("buffer must be exactly one sector")
	}
	if err := d.seekTo(sector); err != nil {
		return err
	}

	n, err := io.ReadFull(d.stream, buffer)
	if err != nil {
		return rofs.ErrIOFailed.WrapError(err)
	}
	if n != SectorSize {
		return rofs.ErrIOFailed.WithMessage("short read")
	}

	d.currentSector = sector
	return nil
}

// ReadSectors reads count consecutive sectors starting at sector into buffer,
// which must be exactly count*SectorSize bytes.
func (d *Device) ReadSectors(sector Sector, count uint, buffer []byte) rofs.DriverError {
	if uint(len(buffer)) != count*SectorSize {
		return rofs.ErrInvalidArgument.WithMessage("buffer size does not match sector count")
	}
	if err := d.checkBounds(Sector(uint64(sector) + uint64(count) - 1)); count > 0 && err != nil {
		return err
	}
	if err := d.seekTo(sector); err != nil {
		return err
	}

	n, err := io.ReadFull(d.stream, buffer)
	if err != nil {
		return rofs.ErrIOFailed.WrapError(err)
	}
	if uint(n) != count*SectorSize {
		return rofs.ErrIOFailed.WithMessage("short read")
	}

	d.currentSector = Sector(uint64(sector) + uint64(count))
	return nil
}

// Write writes buffer (an exact multiple of SectorSize) starting at sector.
func (d *Device) Write(sector Sector, buffer []byte) rofs.DriverError {
	if len(buffer) == 0 || len(buffer)%SectorSize != 0 {
		return rofs.ErrInvalidArgument.WithMessage("buffer must be a nonzero multiple of the sector size")
	}
	count := uint(len(buffer)) / SectorSize
	if err := d.checkBounds(Sector(uint64(sector) + uint64(count) - 1)); err != nil {
		return err
	}
	if err := d.seekTo(sector); err != nil {
		return err
	}

	n, err := d.stream.Write(buffer)
	if err != nil {
		return rofs.ErrIOFailed.WrapError(err)
	}
	if n != len(buffer) {
		return rofs.ErrIOFailed.WithMessage("short write")
	}

	d.currentSector = Sector(uint64(sector) + uint64(count))
	return nil
}

// Close releases the underlying handle, if the backing stream supports it.
func (d *Device) Close() rofs.DriverError {
	if d.closer == nil {
		return nil
	}
	if err := d.closer.Close(); err != nil {
		return rofs.ErrIOFailed.WrapError(err)
	}
	return nil
}
