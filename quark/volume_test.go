package quark

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/device"
	"github.com/dskfs/rofs/testutil"
)

func mountVolume(t *testing.T, image []byte) *Volume {
	t.Helper()
	stream := bytesextra.NewReadWriteSeeker(image)
	dev := device.New(stream, uint64(len(image))/device.SectorSize)
	vol, err := Mount(dev, 0)
	require.Nil(t, err)
	return vol
}

func TestVolumeGetAttrRoot(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	image := img.Build()
	vol := mountVolume(t, image)

	stat, err := vol.GetAttr("/")
	require.Nil(t, err)
	assert.True(t, stat.IsDir())
}

func TestVolumeReadDirListsFiles(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	img.AddFile(img.RootCluster(), "a.txt", []byte("a"))
	img.AddFile(img.RootCluster(), "b.txt", []byte("bb"))
	image := img.Build()
	vol := mountVolume(t, image)

	entries, err := vol.ReadDir("/")
	require.Nil(t, err)
	assert.Len(t, entries, 2)
}

func TestVolumeReadReturnsFileBytes(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	img.AddFile(img.RootCluster(), "a.txt", []byte("hello world"))
	image := img.Build()
	vol := mountVolume(t, image)

	data, err := vol.Read("/a.txt", 0, 5)
	require.Nil(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestVolumeReadOnDirectoryFails(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	img.AddDir(img.RootCluster(), "subdir")
	image := img.Build()
	vol := mountVolume(t, image)

	_, err := vol.Read("/subdir", 0, 10)
	require.NotNil(t, err)
	assert.True(t, rofs.IsNotADirectory(err))
}

func TestVolumeGetAttrDecodesPermissionBits(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	img.AddFile(img.RootCluster(), "a.txt", []byte("hello"))
	img.AddDir(img.RootCluster(), "subdir")
	image := img.Build()
	vol := mountVolume(t, image)

	fileStat, err := vol.GetAttr("/a.txt")
	require.Nil(t, err)
	assert.Equal(t, os.FileMode(0644), fileStat.Mode.Perm())
	assert.False(t, fileStat.IsDir())

	dirStat, err := vol.GetAttr("/subdir")
	require.Nil(t, err)
	assert.Equal(t, os.FileMode(0755), dirStat.Mode.Perm())
	assert.True(t, dirStat.IsDir())
}

func TestVolumeFreeClustersDiagnostic(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	image := img.Build()
	vol := mountVolume(t, image)

	assert.Equal(t, 64, vol.FreeClusters())
}

func TestVolumeDestroyClosesDevice(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	image := img.Build()
	vol := mountVolume(t, image)
	assert.Nil(t, vol.Destroy())
}
