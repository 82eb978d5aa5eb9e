package quark

import (
	"bytes"
	"encoding/binary"
)

// Permission/flag bits packed into a dentry's Bits field (spec §3.6,
// original_source/src/include/quark.h).
const (
	AtHidden    = 0x0200
	AtDirectory = 0x0400
	AtRegular   = 0x0800
	AtSymlink   = 0x1000
	AtDelete    = 0x2000
)

// DirSlots, IndSlots and MaxSlots are the fixed slot schedule (spec §3.6):
// 4 direct slots, then 2 indirect slots (the first one level deep, the
// second two levels deep, per original_source's "first with one level;
// second with two levels" comment on QD_IND_SLOTS).
const (
	DirSlots = 4
	IndSlots = 2
	MaxSlots = DirSlots + IndSlots

	// MaxName is the longest inline UTF-8 name a dentry can hold (spec §3.6,
	// QD_MAX_NAME in the original source).
	MaxName = 29
)

// DentrySize is the size of one raw on-disk directory record. Resolved
// against original_source's struct quark_dentry (size+write_time+bits+
// owner+6 slots+reserved+name_hash+name_length+name), since spec.md's "(32
// bytes)" header is inconsistent with its own field list (a 6-slot array of
// (coverage,pointer) pairs alone is 48 bytes) — see DESIGN.md.
const DentrySize = 96

// RawDentry is the 96-byte on-disk record.
type RawDentry [DentrySize]byte

// IsFree reports whether this and all subsequent records in the directory
// are unused (original_source quark_iterate: entries[i].name[0] == 0).
func (r *RawDentry) IsFree() bool { return r[67] == 0 }

// Slot is a (coverage, pointer) pair: coverage counts how many logical file
// clusters the slot maps; pointer is either a data-cluster index (direct
// slots) or the first cluster of an indirect block (indirect slots).
type Slot struct {
	Coverage uint32
	Pointer  uint32
}

// Dentry is the decoded directory entry (spec §3.6).
type Dentry struct {
	Raw       RawDentry
	Size      uint32
	WriteTime uint32
	Bits      uint16
	Owner     uint16
	Slots     [MaxSlots]Slot
	NameHash  uint16
	Name      string
}

func (d *Dentry) IsDirectory() bool { return d.Bits&AtDirectory != 0 }
func (d *Dentry) IsRegular() bool   { return d.Bits&AtRegular != 0 }
func (d *Dentry) IsDeleted() bool   { return d.Bits&AtDelete != 0 }

// decodeDentry interprets raw (already known not free) as a directory entry.
func decodeDentry(raw *RawDentry) Dentry {
	d := Dentry{
		Raw:       *raw,
		Size:      binary.LittleEndian.Uint32(raw[0:4]),
		WriteTime: binary.LittleEndian.Uint32(raw[4:8]),
		Bits:      binary.LittleEndian.Uint16(raw[8:10]),
		Owner:     binary.LittleEndian.Uint16(raw[10:12]),
		NameHash:  binary.LittleEndian.Uint16(raw[64:66]),
	}

	for i := 0; i < MaxSlots; i++ {
		off := 12 + i*8
		d.Slots[i] = Slot{
			Coverage: binary.LittleEndian.Uint32(raw[off : off+4]),
			Pointer:  binary.LittleEndian.Uint32(raw[off+4 : off+8]),
		}
	}

	nameLen := int(raw[66])
	if nameLen > MaxName {
		nameLen = MaxName
	}
	name := raw[67 : 67+nameLen]
	if idx := bytes.IndexByte(name, 0); idx >= 0 {
		name = name[:idx]
	}
	d.Name = string(name)

	return d
}
