package fat32

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

// Attribute flags for the byte at offset 11 of a raw 32-byte directory
// record (spec §3.3).
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20

	// AttrLongName is the attribute byte value (all four "impossible for a
	// real short entry" bits set) that marks a record as an LFN fragment.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID

	// AttrLongNameMask is the mask applied before comparing against
	// AttrLongName (spec §3.3).
	AttrLongNameMask = AttrLongName | AttrDirectory | AttrArchive
)

// DirentSize is the size of one raw 32-byte directory record.
const DirentSize = 32

// MaxSFN is the longest possible formatted 8.3 name, "########.###".
const MaxSFN = 8 + 1 + 3

// MaxLFN is the longest possible reassembled long filename (spec §3.8).
const MaxLFN = 256

// RawEntry is the 32-byte on-disk record, kept as raw bytes so both the SFN
// and LFN interpretations can be decoded from the same buffer without ever
// losing the byte-exact on-disk form (spec §9 design note "variant
// dentries").
type RawEntry [DirentSize]byte

// IsFree reports whether this and all subsequent entries in the directory
// are unused (spec §3.3, terminator byte 0x00).
func (e *RawEntry) IsFree() bool { return e[0] == 0x00 }

// IsDeleted reports whether the entry was deleted (spec §3.3, sentinel 0xE5).
func (e *RawEntry) IsDeleted() bool { return e[0] == 0xE5 }

// Attributes returns the raw attribute byte at offset 11.
func (e *RawEntry) Attributes() byte { return e[11] }

// IsLongName reports whether this record is an LFN fragment.
func (e *RawEntry) IsLongName() bool {
	return e.Attributes()&AttrLongNameMask == AttrLongName
}

// IsVolumeLabel reports whether this is a plain (non-LFN) volume-label entry.
func (e *RawEntry) IsVolumeLabel() bool {
	return !e.IsLongName() && e.Attributes()&AttrVolumeID != 0
}

// ShortEntry is the decoded short-name (8.3) directory entry (spec §3.3).
type ShortEntry struct {
	Raw            RawEntry
	Attributes     byte
	FirstCluster   uint32
	Size           uint32
	CreateDate     uint16
	CreateTime     uint16
	CreateTenths   byte
	AccessDate     uint16
	WriteDate      uint16
	WriteTime      uint16
}

// IsDirectory reports whether the entry is a directory.
func (e *ShortEntry) IsDirectory() bool { return e.Attributes&AttrDirectory != 0 }

// decodeShortEntry interprets raw (already known not to be an LFN fragment,
// free, or deleted) as a short-name entry.
func decodeShortEntry(raw *RawEntry) ShortEntry {
	clusterHi := binary.LittleEndian.Uint16(raw[20:22])
	clusterLo := binary.LittleEndian.Uint16(raw[26:28])

	return ShortEntry{
		Raw:          *raw,
		Attributes:   raw[11],
		FirstCluster: (uint32(clusterHi) << 16) | uint32(clusterLo),
		Size:         binary.LittleEndian.Uint32(raw[28:32]),
		CreateTenths: raw[13],
		CreateTime:   binary.LittleEndian.Uint16(raw[14:16]),
		CreateDate:   binary.LittleEndian.Uint16(raw[16:18]),
		AccessDate:   binary.LittleEndian.Uint16(raw[18:20]),
		WriteTime:    binary.LittleEndian.Uint16(raw[22:24]),
		WriteDate:    binary.LittleEndian.Uint16(raw[24:26]),
	}
}

// lfnFragment is the decoded view of an LFN record's three UTF-16 fragments
// and its sequence number (spec §3.3).
type lfnFragment struct {
	Sequence byte
	Name1    [5]uint16
	Name2    [6]uint16
	Name3    [2]uint16
}

func decodeLFNFragment(raw *RawEntry) lfnFragment {
	f := lfnFragment{Sequence: raw[0]}
	for i := 0; i < 5; i++ {
		f.Name1[i] = binary.LittleEndian.Uint16(raw[1+2*i : 3+2*i])
	}
	for i := 0; i < 6; i++ {
		f.Name2[i] = binary.LittleEndian.Uint16(raw[14+2*i : 16+2*i])
	}
	for i := 0; i < 2; i++ {
		f.Name3[i] = binary.LittleEndian.Uint16(raw[28+2*i : 30+2*i])
	}
	return f
}

// formatShortName reproduces the 8.3 name into out (spec §4.4.2): insert a
// '.' between positions 8 and 9, skip 0x20 padding, lowercase ASCII letters,
// and trim a trailing '.'. out must be at least MaxSFN+2 bytes.
func formatShortName(raw *RawEntry, out []byte) string {
	w := bytewriter.New(out)
	n := 0

	for i := 0; i < 11; i++ {
		if i == 8 {
			w.Write([]byte{'.'})
			n++
		}
		c := raw[i]
		if c == 0x20 {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 32
		}
		w.Write([]byte{c})
		n++
	}

	if n > 0 && out[n-1] == '.' {
		n--
	}
	return string(out[:n])
}
