/*
Package qrc decrypts QQ Music QRC lyric payloads.

The service delivers word-timed lyrics as hex text. Underneath is a zlib
stream encrypted with three-key triple DES (EDE3) over a fixed key. The DES
rounds are a modified variant: two substitution box entries differ from FIPS
46-3, the D half of the key uses a shifted compression offset, and bytes are
addressed in little-endian 32-bit words. Real payloads only decrypt with those
deviations in place, so they live in the QRC engine tables.

The Standard engine runs textbook DES under the same byte addressing and is
used to check the round function against published known-answer vectors.

# Usage

	text, err := qrc.DecodePayload(hexPayload)
	if err != nil {
		switch {
		case qrc.IsInvalidHex(err):
			// not a payload
		case qrc.IsDecompression(err):
			// wrong key or damaged payload
		}
		return err
	}
	lyric, _ := qrc.LyricContent(text)

All errors wrap the sentinels in package errs, so errors.Is(err,
errs.ErrInvalidHex) works as well.

The package keeps no mutable state; schedules are derived per call and every
function is safe for concurrent use.
*/
package qrc
