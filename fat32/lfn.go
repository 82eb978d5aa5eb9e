package fat32

// lfnAccumulator reconstructs a long filename from a run of LFN directory
// entries (spec §4.4.1, §9 design note "LFN accumulator"). FAT32 stores LFN
// entries on disk in descending sequence order — the fragment closest to the
// end of the name comes first — so fragments are appended in encounter order
// and the whole buffer is reversed once the lowest-numbered fragment (the
// one nearest the start of the name) is seen.
type lfnAccumulator struct {
	buf    [MaxLFN]byte
	length int
}

func (a *lfnAccumulator) reset() { a.length = 0 }

func (a *lfnAccumulator) empty() bool { return a.length == 0 }

func (a *lfnAccumulator) string() string { return string(a.buf[:a.length]) }

func (a *lfnAccumulator) appendUnit(u uint16) {
	if u == 0x0000 || u == 0xFFFF {
		return
	}
	if a.length >= len(a.buf) {
		return
	}
	a.buf[a.length] = byte(u)
	a.length++
}

// append folds one decoded LFN fragment into the accumulator, per the
// reverse-order reassembly algorithm in spec §4.4.1: within an entry, the
// 2-unit tail is appended first (in reverse), then the 6-unit middle, then
// the 5-unit head, each also in reverse code-unit order. A sequence number
// with bit 0x40 set starts a fresh name; a sequence number whose low nibble
// is 1 marks the final (lowest-numbered) fragment, at which point the
// buffer is reversed in place to yield forward order.
func (a *lfnAccumulator) append(f lfnFragment) {
	if f.Sequence&0x40 != 0 {
		a.reset()
	}

	for i := len(f.Name3) - 1; i >= 0; i-- {
		a.appendUnit(f.Name3[i])
	}
	for i := len(f.Name2) - 1; i >= 0; i-- {
		a.appendUnit(f.Name2[i])
	}
	for i := len(f.Name1) - 1; i >= 0; i-- {
		a.appendUnit(f.Name1[i])
	}

	if f.Sequence&0x0F == 1 {
		a.reverseInPlace()
	}
}

func (a *lfnAccumulator) reverseInPlace() {
	for i, j := 0, a.length-1; i < j; i, j = i+1, j-1 {
		a.buf[i], a.buf[j] = a.buf[j], a.buf[i]
	}
}
