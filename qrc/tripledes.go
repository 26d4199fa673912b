package qrc

import (
	"crypto/cipher"
	"strconv"
)

const (
	// BlockSize is the cipher block size in bytes.
	BlockSize = 8
	// KeySize is the length of a three-key triple DES key in bytes.
	KeySize = 24
)

// DefaultKey is the fixed key the lyric service encrypts payloads with.
const DefaultKey = "!@#)(*$%123ZXC!@!@#)(NHL"

// KeySizeError is returned when a triple DES key is not KeySize bytes long.
type KeySizeError int

func (k KeySizeError) Error() string {
	return "qrc: invalid key size " + strconv.Itoa(int(k))
}

// TripleSchedule holds three single-DES schedules, applied in slot order.
type TripleSchedule [3]Schedule

// TripleKeySchedule splits a 24-byte key into K1, K2, K3 and builds an
// encrypt-decrypt-encrypt composition. For Decrypt the key order and the
// per-slot directions are both reversed, so slots always run 0, 1, 2.
// It panics if key is shorter than KeySize.
func (e *Engine) TripleKeySchedule(key []byte, mode Mode) TripleSchedule {
	_ = key[KeySize-1]
	k1, k2, k3 := key[0:8], key[8:16], key[16:24]

	var ts TripleSchedule
	if mode == Encrypt {
		ts[0] = e.KeySchedule(k1, Encrypt)
		ts[1] = e.KeySchedule(k2, Decrypt)
		ts[2] = e.KeySchedule(k3, Encrypt)
	} else {
		ts[0] = e.KeySchedule(k3, Decrypt)
		ts[1] = e.KeySchedule(k2, Encrypt)
		ts[2] = e.KeySchedule(k1, Decrypt)
	}
	return ts
}

// TripleCryptBlock runs the three schedules over one block. dst and src may
// overlap entirely.
func (e *Engine) TripleCryptBlock(dst, src []byte, ts *TripleSchedule) {
	var tmp [BlockSize]byte
	e.CryptBlock(tmp[:], src, &ts[0])
	e.CryptBlock(tmp[:], tmp[:], &ts[1])
	e.CryptBlock(dst, tmp[:], &ts[2])
}

type tripleDESCipher struct {
	engine   *Engine
	enc, dec TripleSchedule
}

// NewTripleDESCipher returns a cipher.Block running the QRC engine with the
// given 24-byte key. The schedules are derived once at construction.
func NewTripleDESCipher(key []byte) (cipher.Block, error) {
	return QRC.NewTripleDESCipher(key)
}

// NewTripleDESCipher returns a cipher.Block backed by this engine.
func (e *Engine) NewTripleDESCipher(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, KeySizeError(len(key))
	}
	return &tripleDESCipher{
		engine: e,
		enc:    e.TripleKeySchedule(key, Encrypt),
		dec:    e.TripleKeySchedule(key, Decrypt),
	}, nil
}

func (c *tripleDESCipher) BlockSize() int { return BlockSize }

func (c *tripleDESCipher) Encrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("qrc: input not full block")
	}
	if len(dst) < BlockSize {
		panic("qrc: output not full block")
	}
	c.engine.TripleCryptBlock(dst, src, &c.enc)
}

func (c *tripleDESCipher) Decrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("qrc: input not full block")
	}
	if len(dst) < BlockSize {
		panic("qrc: output not full block")
	}
	c.engine.TripleCryptBlock(dst, src, &c.dec)
}
