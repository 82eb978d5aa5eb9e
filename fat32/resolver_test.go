package fat32

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/testutil"
)

func TestLookupTopLevelFile(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	img.AddFile(img.RootCluster(), "HELLO.TXT", AttrArchive, []byte("hi there"))
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	entry, err := Lookup(dev, geom, table, "/hello.txt")
	require.Nil(t, err)
	assert.EqualValues(t, 8, entry.Size)
}

func TestLookupNestedPath(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	dir := img.AddDir(img.RootCluster(), "DOCS")
	img.AddFile(dir, "NOTES.TXT", AttrArchive, []byte("notes"))
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	entry, err := Lookup(dev, geom, table, "/docs/notes.txt")
	require.Nil(t, err)
	assert.EqualValues(t, 5, entry.Size)
}

func TestLookupNotFound(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	img.AddFile(img.RootCluster(), "HELLO.TXT", AttrArchive, []byte("hi"))
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	_, err := Lookup(dev, geom, table, "/missing.txt")
	require.NotNil(t, err)
	assert.True(t, rofs.IsNotFound(err))
}

func TestLookupThroughFileIsNotADirectory(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	img.AddFile(img.RootCluster(), "HELLO.TXT", AttrArchive, []byte("hi"))
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	_, err := Lookup(dev, geom, table, "/hello.txt/nope")
	require.NotNil(t, err)
	assert.True(t, rofs.IsNotADirectory(err))
}

func TestLookupRejectsBareRoot(t *testing.T) {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	image := img.Build()

	dev, geom, table := mountImage(t, image)
	_, err := Lookup(dev, geom, table, "/")
	require.NotNil(t, err)
}
