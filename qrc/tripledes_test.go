package qrc

import (
	"bytes"
	"crypto/des"
	"errors"
	"math/rand"
	"testing"
)

func TestTripleSlotsFollowEDE(t *testing.T) {
	key := []byte(DefaultKey)
	k1, k2, k3 := key[:8], key[8:16], key[16:24]

	enc := QRC.TripleKeySchedule(key, Encrypt)
	if enc[0] != QRC.KeySchedule(k1, Encrypt) ||
		enc[1] != QRC.KeySchedule(k2, Decrypt) ||
		enc[2] != QRC.KeySchedule(k3, Encrypt) {
		t.Error("encrypt slots do not match K1/enc, K2/dec, K3/enc")
	}

	dec := QRC.TripleKeySchedule(key, Decrypt)
	if dec[0] != QRC.KeySchedule(k3, Decrypt) ||
		dec[1] != QRC.KeySchedule(k2, Encrypt) ||
		dec[2] != QRC.KeySchedule(k1, Decrypt) {
		t.Error("decrypt slots do not match K3/dec, K2/enc, K1/dec")
	}
}

func TestTripleRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 16; i++ {
		key := make([]byte, KeySize)
		block := make([]byte, BlockSize)
		rng.Read(key)
		rng.Read(block)

		enc := QRC.TripleKeySchedule(key, Encrypt)
		dec := QRC.TripleKeySchedule(key, Decrypt)
		buf := make([]byte, BlockSize)
		QRC.TripleCryptBlock(buf, block, &enc)
		QRC.TripleCryptBlock(buf, buf, &dec)
		if !bytes.Equal(buf, block) {
			t.Errorf("Expected %X, got %X", block, buf)
		}
	}
}

func TestStandardTripleMatchesCryptoDES(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	key := make([]byte, KeySize)
	block := make([]byte, BlockSize)
	rng.Read(key)
	rng.Read(block)

	ref, err := des.NewTripleDESCipher(key)
	if err != nil {
		t.Fatalf("des.NewTripleDESCipher: %v", err)
	}
	want := make([]byte, BlockSize)
	ref.Encrypt(want, block)

	ts := Standard.TripleKeySchedule(swapWords(key), Encrypt)
	got := make([]byte, BlockSize)
	Standard.TripleCryptBlock(got, swapWords(block), &ts)
	if !bytes.Equal(swapWords(got), want) {
		t.Errorf("Expected %X, got %X", want, swapWords(got))
	}
}

func TestNewTripleDESCipher(t *testing.T) {
	if _, err := NewTripleDESCipher([]byte("short")); err == nil {
		t.Fatal("Expected error for short key")
	} else {
		var kse KeySizeError
		if !errors.As(err, &kse) || int(kse) != 5 {
			t.Errorf("Expected KeySizeError(5), got %v", err)
		}
	}

	block, err := NewTripleDESCipher([]byte(DefaultKey))
	if err != nil {
		t.Fatalf("NewTripleDESCipher: %v", err)
	}
	if block.BlockSize() != BlockSize {
		t.Errorf("Expected block size %d, got %d", BlockSize, block.BlockSize())
	}

	plain := []byte("lyrics!!")
	buf := make([]byte, BlockSize)
	block.Encrypt(buf, plain)

	ts := QRC.TripleKeySchedule([]byte(DefaultKey), Encrypt)
	want := make([]byte, BlockSize)
	QRC.TripleCryptBlock(want, plain, &ts)
	if !bytes.Equal(buf, want) {
		t.Errorf("Expected %X, got %X", want, buf)
	}

	block.Decrypt(buf, buf)
	if !bytes.Equal(buf, plain) {
		t.Errorf("Expected %q, got %q", plain, buf)
	}
}

func TestTripleCipherPanicsOnShortBlock(t *testing.T) {
	block, err := NewTripleDESCipher([]byte(DefaultKey))
	if err != nil {
		t.Fatalf("NewTripleDESCipher: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for short input")
		}
	}()
	block.Encrypt(make([]byte, BlockSize), []byte("abc"))
}
