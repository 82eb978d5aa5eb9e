package quark

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/dskfs/rofs/device"
)

// mountImage wraps raw image bytes as a Device and decodes its superblock,
// failing the test immediately on any error. Shared by slots_test.go,
// iterator_test.go, resolver_test.go, reader_test.go and volume_test.go.
func mountImage(t *testing.T, image []byte) (*device.Device, *Geometry) {
	t.Helper()
	stream := bytesextra.NewReadWriteSeeker(image)
	dev := device.New(stream, uint64(len(image))/device.SectorSize)

	sector0 := make([]byte, device.SectorSize)
	require.Nil(t, dev.Read(0, sector0))

	geom, err := decodeSuperblock(sector0)
	require.NoError(t, err)

	return dev, geom
}
