package namescript

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/qrcdl/types"
)

var testSong = types.Song{
	ID:      97773,
	Mid:     "0039MnYb0qxYhV",
	Name:    "晴天",
	Singers: []types.Singer{{Name: "周杰伦"}},
	Album:   types.Album{Name: "叶惠美"},
}

func TestScriptName(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "fields",
			src:  `function fileName(song) { return song.album.name + " - " + song.name; }`,
			want: "叶惠美 - 晴天",
		},
		{
			name: "singers and id",
			src:  `function fileName(s) { return s.singer.map(function (x) { return x.name; }).join(",") + "_" + s.id; }`,
			want: "周杰伦_97773",
		},
		{
			name: "console log",
			src:  `function fileName(s) { console.log("naming", s.mid); return s.name; }`,
			want: "晴天",
		},
		{
			name: "separators replaced",
			src:  `function fileName(s) { return "a/b:c"; }`,
			want: "a_b_c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile("test.js", tt.src)
			require.NoError(t, err)
			got, err := s.Name(context.Background(), testSong)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing function", `var x = 1;`},
		{"throws", `function fileName() { throw new Error("boom"); }`},
		{"undefined", `function fileName() {}`},
		{"blank", `function fileName() { return "  "; }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Compile("test.js", tt.src)
			require.NoError(t, err)
			_, err = s.Name(context.Background(), testSong)
			assert.Error(t, err)
		})
	}

	_, err := Compile("bad.js", `function (`)
	assert.Error(t, err)
}

func TestScriptTimeout(t *testing.T) {
	s, err := Compile("loop.js", `function fileName() { for (;;) {} }`)
	require.NoError(t, err)
	s.WithTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err = s.Name(context.Background(), testSong)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "name.js")
	require.NoError(t, os.WriteFile(path, []byte(`function fileName(s) { return s.mid; }`), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	got, err := s.Name(context.Background(), testSong)
	require.NoError(t, err)
	assert.Equal(t, "0039MnYb0qxYhV", got)

	_, err = Load(filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}

func TestNamerFallback(t *testing.T) {
	assert.Equal(t, "周杰伦 - 晴天", Namer{}.BaseName(context.Background(), testSong))

	s, err := Compile("bad.js", `function fileName() { throw "no"; }`)
	require.NoError(t, err)
	assert.Equal(t, "周杰伦 - 晴天", Namer{Script: s}.BaseName(context.Background(), testSong))

	s, err = Compile("ok.js", `function fileName(s) { return "custom"; }`)
	require.NoError(t, err)
	assert.Equal(t, "custom", Namer{Script: s}.BaseName(context.Background(), testSong))
}
