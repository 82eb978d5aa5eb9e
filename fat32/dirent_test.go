package fat32

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatShortNameInsertsDot(t *testing.T) {
	var raw RawEntry
	copy(raw[0:11], "FOO     TXT")
	var scratch [MaxSFN + 2]byte
	assert.Equal(t, "foo.txt", formatShortName(&raw, scratch[:]))
}

func TestFormatShortNameNoExtension(t *testing.T) {
	var raw RawEntry
	copy(raw[0:11], "README     ")
	var scratch [MaxSFN + 2]byte
	assert.Equal(t, "readme", formatShortName(&raw, scratch[:]))
}

func TestFormatShortNameTrimsTrailingDot(t *testing.T) {
	var raw RawEntry
	copy(raw[0:11], "NOEXT      ")
	var scratch [MaxSFN + 2]byte
	name := formatShortName(&raw, scratch[:])
	assert.NotEqual(t, byte('.'), name[len(name)-1])
}

func TestIsLongNameDetectsLFNAttribute(t *testing.T) {
	var raw RawEntry
	raw[11] = AttrLongName
	assert.True(t, raw.IsLongName())
}

func TestIsLongNameRejectsPlainDirectory(t *testing.T) {
	var raw RawEntry
	raw[11] = AttrDirectory
	assert.False(t, raw.IsLongName())
}

func TestIsFreeAndIsDeleted(t *testing.T) {
	var free RawEntry
	free[0] = 0x00
	assert.True(t, free.IsFree())
	assert.False(t, free.IsDeleted())

	var deleted RawEntry
	deleted[0] = 0xE5
	assert.True(t, deleted.IsDeleted())
	assert.False(t, deleted.IsFree())
}

func TestDecodeShortEntryClusterSplit(t *testing.T) {
	var raw RawEntry
	copy(raw[0:11], "FILE    TXT")
	raw[11] = AttrArchive
	cluster := uint32(0x00012345)
	binary.LittleEndian.PutUint16(raw[20:22], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(raw[26:28], uint16(cluster&0xFFFF))
	binary.LittleEndian.PutUint32(raw[28:32], 99)

	entry := decodeShortEntry(&raw)
	assert.EqualValues(t, cluster, entry.FirstCluster)
	assert.EqualValues(t, 99, entry.Size)
	assert.False(t, entry.IsDirectory())
}
