package fat32

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskfs/rofs/testutil"
)

func TestReadFileWholeContentsSingleCluster(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	content := []byte("the quick brown fox")
	img.AddFile(img.RootCluster(), "FOX.TXT", AttrArchive, content)
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	entry, err := Lookup(dev, geom, table, "/fox.txt")
	require.Nil(t, err)

	out := make([]byte, len(content))
	n, rerr := ReadFile(dev, geom, table, entry, out, 0)
	require.Nil(t, rerr)
	assert.Equal(t, len(content), n)
	assert.True(t, bytes.Equal(content, out))
}

func TestReadFileSpansMultipleClusters(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters) // 1 sector/cluster = 512B/cluster
	content := make([]byte, 512*3+17)
	for i := range content {
		content[i] = byte(i)
	}
	img.AddFile(img.RootCluster(), "BIG.BIN", AttrArchive, content)
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	entry, err := Lookup(dev, geom, table, "/big.bin")
	require.Nil(t, err)

	out := make([]byte, len(content))
	n, rerr := ReadFile(dev, geom, table, entry, out, 0)
	require.Nil(t, rerr)
	assert.Equal(t, len(content), n)
	assert.True(t, bytes.Equal(content, out))
}

func TestReadFileMidOffsetWithinBounds(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	content := make([]byte, 6000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	img.AddFile(img.RootCluster(), "DATA.BIN", AttrArchive, content)
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	entry, err := Lookup(dev, geom, table, "/data.bin")
	require.Nil(t, err)

	out := make([]byte, 100)
	n, rerr := ReadFile(dev, geom, table, entry, out, 4000)
	require.Nil(t, rerr)
	assert.Equal(t, 100, n)
	assert.True(t, bytes.Equal(content[4000:4100], out))
}

func TestReadFileClampsAtEndOfFile(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	content := []byte("0123456789")
	img.AddFile(img.RootCluster(), "SHORT.TXT", AttrArchive, content)
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	entry, err := Lookup(dev, geom, table, "/short.txt")
	require.Nil(t, err)

	out := make([]byte, 100)
	n, rerr := ReadFile(dev, geom, table, entry, out, 5)
	require.Nil(t, rerr)
	assert.Equal(t, 5, n)
	assert.True(t, bytes.Equal(content[5:], out[:n]))
}

func TestReadFileOffsetAtOrPastEndReturnsZero(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	content := []byte("short")
	img.AddFile(img.RootCluster(), "TINY.TXT", AttrArchive, content)
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	entry, err := Lookup(dev, geom, table, "/tiny.txt")
	require.Nil(t, err)

	out := make([]byte, 10)
	n, rerr := ReadFile(dev, geom, table, entry, out, int64(len(content)))
	require.Nil(t, rerr)
	assert.Equal(t, 0, n)
}
