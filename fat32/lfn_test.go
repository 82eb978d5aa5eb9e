package fat32

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dskfs/rofs/testutil"
)

// buildFragments re-derives lfnFragment values from the same raw bytes the
// directory iterator decodes, so this test exercises the real on-disk byte
// layout rather than constructing lfnFragment values directly.
func buildFragments(name string) []lfnFragment {
	img := testutil.NewFAT32Image(1, testutil.MinFAT32Clusters)
	img.AddFile(img.RootCluster(), name, AttrArchive, nil)
	data := img.Build()

	var frags []lfnFragment
	// Walk 32-byte records until we hit the short entry (non-LFN).
	rootOffset := rootClusterOffset(data)
	for off := rootOffset; ; off += DirentSize {
		var raw RawEntry
		copy(raw[:], data[off:off+DirentSize])
		if !raw.IsLongName() {
			break
		}
		frags = append(frags, decodeLFNFragment(&raw))
	}
	return frags
}

// rootClusterOffset locates cluster 2's first byte within a built image by
// re-deriving the same geometry decodeBPB would.
func rootClusterOffset(image []byte) int {
	geom, err := decodeBPB(image[:512])
	if err != nil {
		panic(err)
	}
	return int(geom.FirstDataSector) * 512
}

func TestLFNReassemblyShortName(t *testing.T) {
	frags := buildFragments("readme.txt")
	var acc lfnAccumulator
	for _, f := range frags {
		acc.append(f)
	}
	assert.Equal(t, "readme.txt", acc.string())
}

func TestLFNReassemblyExactly13Units(t *testing.T) {
	name := "exactlythirt~" // 13 runes
	frags := buildFragments(name)
	var acc lfnAccumulator
	for _, f := range frags {
		acc.append(f)
	}
	assert.Equal(t, name, acc.string())
}

func TestLFNReassemblySpansMultipleFragments(t *testing.T) {
	name := "a-very-long-file-name-that-needs-two-lfn-entries.dat"
	frags := buildFragments(name)
	assert.Greater(t, len(frags), 1)

	var acc lfnAccumulator
	for _, f := range frags {
		acc.append(f)
	}
	assert.Equal(t, name, acc.string())
}

func TestLFNAccumulatorResetEmptiesBuffer(t *testing.T) {
	var acc lfnAccumulator
	acc.appendUnit('x')
	assert.False(t, acc.empty())
	acc.reset()
	assert.True(t, acc.empty())
}
