package qrc

import "fmt"

// Mode selects the direction of a key schedule.
type Mode int

const (
	// Encrypt orders round keys first to last.
	Encrypt Mode = iota
	// Decrypt orders round keys last to first.
	Decrypt
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Encrypt:
		return "encrypt"
	case Decrypt:
		return "decrypt"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// RoundKey is a 48-bit subkey packed into six bytes.
type RoundKey [6]byte

// Schedule holds the sixteen round keys of a single DES pass.
type Schedule [16]RoundKey

// Engine is a DES-family block transform. The lyric service runs a modified
// DES; Engine keeps the table-level differences as data so that the same code
// can also run textbook DES for verification.
//
// Both engines address input bytes in 32-bit little-endian words: bit b of a
// block or key lives in byte (b/32)*4 + 3 - (b%32)/8.
type Engine struct {
	sbox    *[8][64]uint32
	dOffset int
}

var (
	// QRC is the engine used by the lyric service.
	QRC = &Engine{sbox: &qrcSBoxes, dOffset: 27}

	// Standard is FIPS 46-3 DES under the same word-swapped byte addressing.
	Standard = &Engine{sbox: &standardSBoxes, dOffset: 28}
)

func bitNum(a []byte, b, c int) uint32 {
	return uint32(a[b/32*4+3-b%32/8]>>(7-b%8)&0x01) << c
}

func bitNumIntr(a uint32, b, c int) uint32 {
	return (a >> (31 - b) & 0x01) << c
}

func bitNumIntl(a uint32, b, c int) uint32 {
	return (a << b & 0x80000000) >> c
}

// sboxBit turns a 6-bit group b1..b6 into the row-major index (b1b6, b2..b5).
func sboxBit(a byte) byte {
	return a&0x20 | (a&0x1f)>>1 | (a&0x01)<<4
}

// KeySchedule derives sixteen round keys from the first eight bytes of subkey.
// It panics if subkey is shorter than eight bytes.
func (e *Engine) KeySchedule(subkey []byte, mode Mode) Schedule {
	_ = subkey[7]

	var c, d uint32
	for i, b := range keyPermC {
		c |= bitNum(subkey, b, 31-i)
	}
	for i, b := range keyPermD {
		d |= bitNum(subkey, b, 31-i)
	}

	var ks Schedule
	for i := 0; i < 16; i++ {
		shift := keyRoundShift[i]
		c = (c<<shift | c>>(28-shift)) & 0xfffffff0
		d = (d<<shift | d>>(28-shift)) & 0xfffffff0

		idx := i
		if mode == Decrypt {
			idx = 15 - i
		}
		rk := &ks[idx]
		for j := 0; j < 24; j++ {
			rk[j/8] |= byte(bitNumIntr(c, keyCompression[j], 7-j%8))
		}
		for j := 24; j < 48; j++ {
			rk[j/8] |= byte(bitNumIntr(d, keyCompression[j]-e.dOffset, 7-j%8))
		}
	}
	return ks
}

// CryptBlock runs sixteen rounds over one 8-byte block. The direction is
// carried by the schedule. dst and src may overlap entirely.
func (e *Engine) CryptBlock(dst, src []byte, ks *Schedule) {
	_ = src[7]
	_ = dst[7]

	var l, r uint32
	for i, b := range initialPermL {
		l |= bitNum(src, b, 31-i)
	}
	for i, b := range initialPermR {
		r |= bitNum(src, b, 31-i)
	}

	for i := 0; i < 15; i++ {
		l, r = r, e.feistel(r, &ks[i])^l
	}
	l ^= e.feistel(r, &ks[15])

	for row := 0; row < 8; row++ {
		var v uint32
		for k := 0; k < 4; k++ {
			v |= bitNumIntr(r, 7-row+8*k, 7-2*k) | bitNumIntr(l, 7-row+8*k, 6-2*k)
		}
		dst[row/4*4+3-row%4] = byte(v)
	}
}

func (e *Engine) feistel(state uint32, key *RoundKey) uint32 {
	var x uint64
	for i, b := range expansion {
		x |= uint64(state>>(31-b)&0x01) << (47 - i)
	}
	for i, kb := range key {
		x ^= uint64(kb) << (40 - 8*i)
	}

	var out uint32
	for j := 0; j < 8; j++ {
		group := byte(x >> (42 - 6*j) & 0x3f)
		out |= e.sbox[j][sboxBit(group)] << (28 - 4*j)
	}

	var perm uint32
	for i, b := range pbox {
		perm |= bitNumIntl(out, b, i)
	}
	return perm
}
