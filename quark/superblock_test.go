package quark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskfs/rofs/testutil"
)

func validSector0(t *testing.T) []byte {
	t.Helper()
	img := testutil.NewQuarkImage(1, 64)
	data := img.Build()
	return data[:512]
}

func TestDecodeSuperblockAccepts(t *testing.T) {
	geom, err := decodeSuperblock(validSector0(t))
	require.NoError(t, err)
	assert.EqualValues(t, 512, geom.ClusterSize)
	assert.EqualValues(t, 1, geom.RootCluster)
	assert.EqualValues(t, 64, geom.ClusterCount)
	assert.Equal(t, "TEST", geom.Label)
}

func TestDecodeSuperblockRejectsBadSignature(t *testing.T) {
	sector0 := validSector0(t)
	sector0[0] = 0x00
	_, err := decodeSuperblock(sector0)
	require.Error(t, err)
}

func TestDecodeSuperblockRejectsBadSectorSize(t *testing.T) {
	sector0 := validSector0(t)
	sector0[18], sector0[19] = 0x00, 0x04 // 1024
	_, err := decodeSuperblock(sector0)
	require.Error(t, err)
}

func TestDecodeSuperblockRejectsZeroRootOffset(t *testing.T) {
	sector0 := validSector0(t)
	sector0[32], sector0[33], sector0[34], sector0[35] = 0, 0, 0, 0
	_, err := decodeSuperblock(sector0)
	require.Error(t, err)
}

func TestDecodeSuperblockCollectsMultipleViolations(t *testing.T) {
	sector0 := validSector0(t)
	sector0[0] = 0x00                                       // bad signature
	sector0[32], sector0[33], sector0[34], sector0[35] = 0, 0, 0, 0 // bad root offset
	_, err := decodeSuperblock(sector0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature")
	assert.Contains(t, err.Error(), "root_offset")
}

func TestClusterIsValid(t *testing.T) {
	geom := &Geometry{ClusterCount: 10}
	assert.True(t, ClusterIsValid(geom, 1))
	assert.True(t, ClusterIsValid(geom, 10))
	assert.False(t, ClusterIsValid(geom, 0))
	assert.False(t, ClusterIsValid(geom, 11))
	assert.False(t, ClusterIsValid(geom, ClusterBad))
}

func TestFreeClustersAndMount(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	img.AddFile(img.RootCluster(), "hello.txt", []byte("hi"))
	image := img.Build()

	dev, geom := mountImage(t, image)
	bm, err := loadBitmap(dev, geom)
	require.Nil(t, err)
	assert.Equal(t, 64, bm.FreeClusters())
}
