package types

import (
	"encoding/json"
	"testing"
)

func TestSongDecode(t *testing.T) {
	data := `{"id":97773,"mid":"0039MnYb0qxYhV","name":"晴天","singer":[{"id":4558,"mid":"0025NhlN2yWrP4","name":"周杰伦"}],"album":{"mid":"000MkMni19ClKG","name":"叶惠美"},"interval":269}`

	var song Song
	if err := json.Unmarshal([]byte(data), &song); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if song.ID != 97773 {
		t.Errorf("Expected ID 97773, got %d", song.ID)
	}
	if song.Mid != "0039MnYb0qxYhV" {
		t.Errorf("Expected Mid '0039MnYb0qxYhV', got '%s'", song.Mid)
	}
	if len(song.Singers) != 1 || song.Singers[0].Name != "周杰伦" {
		t.Errorf("Unexpected singers %+v", song.Singers)
	}
	if song.Album.Name != "叶惠美" {
		t.Errorf("Expected album '叶惠美', got '%s'", song.Album.Name)
	}
	if song.Interval != 269 {
		t.Errorf("Expected interval 269, got %d", song.Interval)
	}
}

func TestSongArtists(t *testing.T) {
	tests := []struct {
		name    string
		singers []Singer
		want    string
	}{
		{"none", nil, ""},
		{"one", []Singer{{Name: "A"}}, "A"},
		{"many", []Singer{{Name: "A"}, {Name: ""}, {Name: "B"}}, "A/B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Song{Singers: tt.singers}).Artists("/"); got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestLyricsEmpty(t *testing.T) {
	if !(LRCLyrics{}).Empty() {
		t.Error("Expected zero LRCLyrics to be empty")
	}
	if (LRCLyrics{Trans: "x"}).Empty() {
		t.Error("Expected translation-only LRCLyrics to be non-empty")
	}
	if !(QRCLyrics{}).Empty() {
		t.Error("Expected zero QRCLyrics to be empty")
	}
	if (QRCLyrics{Roma: "x"}).Empty() {
		t.Error("Expected romanization-only QRCLyrics to be non-empty")
	}
}
