package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ytget/qrcdl/types"
)

func TestToSafeFilename_Basics(t *testing.T) {
	got := ToSafeFilename("Hello:/\\*?\"<>| World", "qrc")
	if got != "Hello_ World.qrc" {
		t.Fatalf("got %q", got)
	}
}

func TestToSafeFilename_Defaults(t *testing.T) {
	got := ToSafeFilename("", "")
	if got != "lyrics.qrc" {
		t.Fatalf("got %q", got)
	}
	if got := ToSafeFilename("a", ".LRC"); got != "a.lrc" {
		t.Fatalf("got %q", got)
	}
}

func TestToSafeFilename_Long(t *testing.T) {
	title := strings.Repeat("晴", 100)
	got := ToSafeFilename(title, "ass")
	if len(got) > MaxFilenameLength+4 {
		t.Fatalf("too long: %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("cut inside a rune: %q", got)
	}
}

func TestComponent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"晴天", "晴天"},
		{"Hello World", "Hello_World"},
		{"  a   b  ", "a_b"},
		{"AC/DC", "AC_DC"},
		{"Back-in Black!", "Back-in_Black_"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Component(tt.in); got != tt.want {
			t.Errorf("Component(%q): Expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSongBaseName(t *testing.T) {
	tests := []struct {
		name string
		song types.Song
		want string
	}{
		{
			name: "single artist",
			song: types.Song{Name: "晴天", Singers: []types.Singer{{Name: "周杰伦"}}},
			want: "周杰伦 - 晴天",
		},
		{
			name: "several artists",
			song: types.Song{Name: "Under Pressure", Singers: []types.Singer{{Name: "Queen"}, {Name: "David Bowie"}}},
			want: "Queen_David_Bowie - Under_Pressure",
		},
		{
			name: "unknown",
			song: types.Song{},
			want: UnknownArtist + " - " + UnknownSong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SongBaseName(tt.song); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
