// Package sanitize builds file names from song metadata.
package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ytget/qrcdl/types"
)

const (
	// MaxFilenameLength is the maximum allowed length in bytes for the filename base.
	MaxFilenameLength = 200
	// DefaultExt is the default extension used when none is provided.
	DefaultExt = "qrc"
	// DefaultName is the replacement name when the title is empty.
	DefaultName = "lyrics"

	// UnknownArtist and UnknownSong replace empty metadata in SongBaseName.
	UnknownArtist = "未知艺人"
	UnknownSong   = "未知歌曲"
)

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// ToSafeFilename builds a cross-platform safe filename from title and extension (without dot in ext).
// Names longer than MaxFilenameLength are cut on a rune boundary.
func ToSafeFilename(title, ext string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = DefaultName
	}
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	if len(name) > MaxFilenameLength {
		cut := MaxFilenameLength
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Clean(name + "." + ext)
}

// Component keeps letters, digits, spaces and '-', replaces every other rune
// with '_' and joins the whitespace-separated words with '_'.
func Component(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			return r
		}
		return '_'
	}, s)
	return strings.Join(strings.Fields(mapped), "_")
}

// SongBaseName returns "<artists> - <title>" with both parts passed through
// Component. Artists are joined with '_'.
func SongBaseName(song types.Song) string {
	artist := Component(song.Artists("_"))
	if artist == "" {
		artist = UnknownArtist
	}
	title := Component(song.Name)
	if title == "" {
		title = UnknownSong
	}
	return artist + " - " + title
}
