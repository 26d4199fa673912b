package qrc

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// localPrefix precedes the ciphertext in lyric files cached by desktop clients.
const localPrefix = "[offset:0]\n"

// DecryptBlocks decrypts data with the QRC engine in 8-byte blocks. A trailing
// partial block is dropped, so the result length is len(data) rounded down to
// a multiple of BlockSize. A fresh schedule is derived on every call.
func DecryptBlocks(data, key []byte) []byte {
	return QRC.cryptBlocks(data, key, Decrypt)
}

// EncryptBlocks is the inverse of DecryptBlocks. A trailing partial block is
// dropped; callers pad their input first.
func EncryptBlocks(data, key []byte) []byte {
	return QRC.cryptBlocks(data, key, Encrypt)
}

func (e *Engine) cryptBlocks(data, key []byte, mode Mode) []byte {
	ts := e.TripleKeySchedule(key, mode)
	n := len(data) - len(data)%BlockSize
	out := make([]byte, n)
	for i := 0; i < n; i += BlockSize {
		e.TripleCryptBlock(out[i:i+BlockSize], data[i:i+BlockSize], &ts)
	}
	return out
}

// DecodePayload turns a hex-encoded encrypted lyric payload into text using
// DefaultKey.
func DecodePayload(payload string) (string, error) {
	return DecodePayloadWithKey(payload, []byte(DefaultKey))
}

// DecodePayloadWithKey is DecodePayload with an explicit 24-byte key.
//
// The payload is hex-decoded, block-decrypted, zlib-inflated, stripped of a
// leading UTF-8 byte order mark and validated as UTF-8. Bytes after the end
// of the zlib stream are ignored.
func DecodePayloadWithKey(payload string, key []byte) (string, error) {
	if len(key) != KeySize {
		return "", NewError(ErrCodeKeySize, "key must be 24 bytes", len(key))
	}
	data, err := hex.DecodeString(payload)
	if err != nil {
		return "", wrapError(ErrCodeInvalidHex, "payload is not valid hex", err)
	}
	return decodeCiphertext(data, key)
}

// DecodeLocal decodes a raw lyric file as stored by desktop clients: an
// optional "[offset:0]" line followed by binary ciphertext.
func DecodeLocal(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte(localPrefix))
	return decodeCiphertext(data, []byte(DefaultKey))
}

func decodeCiphertext(data, key []byte) (string, error) {
	plain := DecryptBlocks(data, key)

	text, err := inflate(plain)
	if err != nil {
		return "", wrapError(ErrCodeDecompression, "zlib stream is corrupt", err)
	}
	text = bytes.TrimPrefix(text, utf8BOM)
	if !utf8.Valid(text) {
		return "", NewError(ErrCodeUTF8, "decoded lyric is not valid utf-8")
	}
	return string(text), nil
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// EncodePayload produces a payload DecodePayload accepts: the text is
// zlib-compressed, zero-padded to the block size, encrypted with DefaultKey
// and hex-encoded in upper case.
func EncodePayload(text string) (string, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := io.WriteString(zw, text); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	if pad := buf.Len() % BlockSize; pad != 0 {
		buf.Write(make([]byte, BlockSize-pad))
	}
	enc := EncryptBlocks(buf.Bytes(), []byte(DefaultKey))
	return strings.ToUpper(hex.EncodeToString(enc)), nil
}
