// Package lyriccache stores downloaded lyric channels so repeated requests
// for the same song skip the network.
package lyriccache

import (
	"strconv"
	"time"
)

// Entry holds the decoded channels of one lyric download. QRC entries use all
// three channels; LRC entries leave Roma empty.
type Entry struct {
	Lyrics    string
	Trans     string
	Roma      string
	ExpiresAt time.Time
}

// Expired reports whether e has an expiry that lies before now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Cache is implemented by lyric stores. Expired entries are reported as missing.
type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, value Entry)
}

// QRCKey is the cache key of the word-timed lyrics of a song id.
func QRCKey(id int64) string { return "qrc:" + strconv.FormatInt(id, 10) }

// LRCKey is the cache key of the line-timed lyrics of a song mid.
func LRCKey(mid string) string { return "lrc:" + mid }
