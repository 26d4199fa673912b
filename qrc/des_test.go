package qrc

import (
	"bytes"
	"crypto/des"
	"encoding/hex"
	"math/rand"
	"testing"
)

// swapWords reverses every 4-byte group, mapping between the engines' byte
// addressing and the big-endian layout of crypto/des.
func swapWords(b []byte) []byte {
	out := make([]byte, len(b))
	for i := 0; i+4 <= len(b); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = b[i+3], b[i+2], b[i+1], b[i]
	}
	return out
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestStandardKnownAnswer(t *testing.T) {
	key := mustHex(t, "133457799BBCDFF1")
	plain := mustHex(t, "0123456789ABCDEF")
	want := mustHex(t, "85E813540F0AB405")

	ks := Standard.KeySchedule(swapWords(key), Encrypt)
	out := make([]byte, 8)
	Standard.CryptBlock(out, swapWords(plain), &ks)
	if got := swapWords(out); !bytes.Equal(got, want) {
		t.Errorf("Expected %X, got %X", want, got)
	}

	dks := Standard.KeySchedule(swapWords(key), Decrypt)
	Standard.CryptBlock(out, out, &dks)
	if got := swapWords(out); !bytes.Equal(got, plain) {
		t.Errorf("Expected %X after decrypt, got %X", plain, got)
	}
}

func TestStandardMatchesCryptoDES(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 64; i++ {
		key := make([]byte, 8)
		block := make([]byte, 8)
		rng.Read(key)
		rng.Read(block)

		ref, err := des.NewCipher(key)
		if err != nil {
			t.Fatalf("des.NewCipher: %v", err)
		}
		want := make([]byte, 8)
		ref.Encrypt(want, block)

		ks := Standard.KeySchedule(swapWords(key), Encrypt)
		got := make([]byte, 8)
		Standard.CryptBlock(got, swapWords(block), &ks)
		if !bytes.Equal(swapWords(got), want) {
			t.Fatalf("key %X block %X: expected %X, got %X", key, block, want, swapWords(got))
		}
	}
}

func TestCryptBlockRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, e := range []struct {
		name   string
		engine *Engine
	}{
		{"qrc", QRC},
		{"standard", Standard},
	} {
		t.Run(e.name, func(t *testing.T) {
			for i := 0; i < 32; i++ {
				key := make([]byte, 8)
				block := make([]byte, 8)
				rng.Read(key)
				rng.Read(block)

				enc := e.engine.KeySchedule(key, Encrypt)
				dec := e.engine.KeySchedule(key, Decrypt)
				buf := make([]byte, 8)
				e.engine.CryptBlock(buf, block, &enc)
				if bytes.Equal(buf, block) {
					t.Errorf("block %X unchanged by encryption", block)
				}
				e.engine.CryptBlock(buf, buf, &dec)
				if !bytes.Equal(buf, block) {
					t.Errorf("Expected %X, got %X", block, buf)
				}
			}
		})
	}
}

func TestKeyScheduleDeterministic(t *testing.T) {
	key := []byte("QRCkey!!")
	a := QRC.KeySchedule(key, Encrypt)
	b := QRC.KeySchedule(key, Encrypt)
	if a != b {
		t.Error("Expected identical schedules for identical input")
	}
}

func TestKeyScheduleDecryptIsReversed(t *testing.T) {
	key := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF}
	enc := QRC.KeySchedule(key, Encrypt)
	dec := QRC.KeySchedule(key, Decrypt)
	for i := range enc {
		if enc[i] != dec[15-i] {
			t.Errorf("round %d: expected %X, got %X", i, enc[i], dec[15-i])
		}
	}
}

func TestKeyScheduleIgnoresExtraBytes(t *testing.T) {
	key := []byte("12345678")
	long := append([]byte("12345678"), "trailing"...)
	if QRC.KeySchedule(key, Encrypt) != QRC.KeySchedule(long, Encrypt) {
		t.Error("Expected only the first eight bytes to matter")
	}
}

func TestEnginesDiffer(t *testing.T) {
	diffs := 0
	for i := range qrcSBoxes {
		for j := range qrcSBoxes[i] {
			if qrcSBoxes[i][j] != standardSBoxes[i][j] {
				diffs++
			}
		}
	}
	if diffs != 2 {
		t.Errorf("Expected 2 differing S-box entries, got %d", diffs)
	}

	key := []byte(DefaultKey[:8])
	qks := QRC.KeySchedule(key, Encrypt)
	sks := Standard.KeySchedule(key, Encrypt)
	if qks == sks {
		t.Error("Expected the D-half offset to change the schedule")
	}
}

func TestModeString(t *testing.T) {
	tests := map[Mode]string{Encrypt: "encrypt", Decrypt: "decrypt", Mode(7): "Mode(7)"}
	for m, want := range tests {
		if got := m.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}
