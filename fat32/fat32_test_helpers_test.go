package fat32

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dskfs/rofs/device"
)

// mountImage wraps raw image bytes as a Device and mounts it, failing the
// test immediately on any error. Shared by iterator_test.go, resolver_test.go
// and reader_test.go.
func mountImage(t *testing.T, image []byte) (*device.Device, *Geometry, *Table) {
	t.Helper()
	stream := bytesextra.NewReadWriteSeeker(image)
	dev := device.New(stream, uint64(len(image))/device.SectorSize)

	sector0 := make([]byte, device.SectorSize)
	require.Nil(t, dev.Read(0, sector0))

	geom, err := decodeBPB(sector0)
	require.NoError(t, err)

	table, terr := loadTable(dev, geom)
	require.Nil(t, terr)

	return dev, geom, table
}
