package quark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rofs "github.com/dskfs/rofs"
	"github.com/dskfs/rofs/testutil"
)

func TestLookupTopLevelFile(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	img.AddFile(img.RootCluster(), "hello.txt", []byte("hi there"))
	image := img.Build()

	dev, geom := mountImage(t, image)
	entry, err := Lookup(dev, geom, "/hello.txt")
	require.Nil(t, err)
	assert.EqualValues(t, 8, entry.Size)
}

func TestLookupNestedPath(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	dir := img.AddDir(img.RootCluster(), "docs")
	img.AddFile(dir, "notes.txt", []byte("notes"))
	image := img.Build()

	dev, geom := mountImage(t, image)
	entry, err := Lookup(dev, geom, "/docs/notes.txt")
	require.Nil(t, err)
	assert.EqualValues(t, 5, entry.Size)
}

func TestLookupNotFound(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	img.AddFile(img.RootCluster(), "hello.txt", []byte("hi"))
	image := img.Build()

	dev, geom := mountImage(t, image)
	_, err := Lookup(dev, geom, "/missing.txt")
	require.NotNil(t, err)
	assert.True(t, rofs.IsNotFound(err))
}

func TestLookupThroughFileIsNotADirectory(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	img.AddFile(img.RootCluster(), "hello.txt", []byte("hi"))
	image := img.Build()

	dev, geom := mountImage(t, image)
	_, err := Lookup(dev, geom, "/hello.txt/nope")
	require.NotNil(t, err)
	assert.True(t, rofs.IsNotADirectory(err))
}

func TestLookupRejectsBareRoot(t *testing.T) {
	img := testutil.NewQuarkImage(1, 64)
	image := img.Build()

	dev, geom := mountImage(t, image)
	_, err := Lookup(dev, geom, "/")
	require.NotNil(t, err)
}
