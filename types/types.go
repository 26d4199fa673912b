package types

import "strings"

// Singer describes a credited artist.
type Singer struct {
	ID   int64  `json:"id,omitempty"`
	Mid  string `json:"mid,omitempty"`
	Name string `json:"name"`
}

// Album describes the album a song belongs to.
type Album struct {
	ID   int64  `json:"id,omitempty"`
	Mid  string `json:"mid,omitempty"`
	Name string `json:"name,omitempty"`
}

// Song describes a track as returned by search and song detail queries.
// ID selects QRC lyrics, Mid selects LRC lyrics.
type Song struct {
	ID       int64    `json:"id"`
	Mid      string   `json:"mid"`
	Name     string   `json:"name"`
	Singers  []Singer `json:"singer"`
	Album    Album    `json:"album"`
	Interval int      `json:"interval,omitempty"` // seconds
}

// Artists joins singer names with sep, skipping empty names.
func (s Song) Artists(sep string) string {
	names := make([]string, 0, len(s.Singers))
	for _, singer := range s.Singers {
		if singer.Name != "" {
			names = append(names, singer.Name)
		}
	}
	return strings.Join(names, sep)
}

// LRCLyrics holds line-timed lyrics and their optional translation.
type LRCLyrics struct {
	Lyric string
	Trans string
}

// Empty reports whether no channel carries text.
func (l LRCLyrics) Empty() bool { return l.Lyric == "" && l.Trans == "" }

// QRCLyrics holds the decoded channels of a word-timed lyric. Each channel is
// decoded independently; a channel that failed to decode is empty.
type QRCLyrics struct {
	Lyrics string
	Trans  string
	Roma   string
}

// Empty reports whether no channel carries text.
func (q QRCLyrics) Empty() bool { return q.Lyrics == "" && q.Trans == "" && q.Roma == "" }
