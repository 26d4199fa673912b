package errs

import (
	"errors"
)

var (
	// ErrInvalidHex indicates that an encrypted payload is not a well-formed hex string.
	ErrInvalidHex = errors.New("invalid hex payload")
	// ErrDecompression indicates that the decrypted payload is not a valid zlib stream.
	ErrDecompression = errors.New("decompression failed")
	// ErrUTF8Decode indicates that the decompressed payload is not valid UTF-8 text.
	ErrUTF8Decode = errors.New("invalid utf-8 text")
	// ErrMalformedTimestamp indicates that a timing header or word tag could not be parsed.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrSongNotFound indicates that the lyric service returned no matching song.
	ErrSongNotFound = errors.New("song not found")
	// ErrLyricNotFound indicates that no lyric channel could be recovered for a song.
	ErrLyricNotFound = errors.New("lyric not found")
	// ErrAPI indicates an unexpected response shape or error code from the lyric service.
	ErrAPI = errors.New("lyric service error")
	// ErrInvalidInput indicates that user-supplied input was rejected.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited indicates throttling or rate limiting by the remote service.
	ErrRateLimited = errors.New("rate limited")
)
