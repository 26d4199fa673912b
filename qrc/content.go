package qrc

import (
	"html"
	"regexp"
)

var lyricContentRe = regexp.MustCompile(`LyricContent="([^"]*)"`)

// LyricContent extracts the timed lyric text from a decoded QRC document.
// Decoded payloads are small XML documents carrying the lyric in the
// LyricContent attribute of a Lyric_1 element. ok is false when the attribute
// is absent, in which case doc is returned unchanged.
func LyricContent(doc string) (text string, ok bool) {
	m := lyricContentRe.FindStringSubmatch(doc)
	if m == nil {
		return doc, false
	}
	return html.UnescapeString(m[1]), true
}
