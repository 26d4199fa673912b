package ass

import (
	"strconv"
	"strings"
)

// trailingGapMs is the minimum uncovered time at the end of a line that gets
// its own karaoke tag.
const trailingGapMs = 200

// Segment is a piece of dialogue text with an optional karaoke duration in
// centiseconds. Units == 0 renders Text without a tag; a segment with empty
// Text is a pause.
type Segment struct {
	Units int64
	Text  string
}

// Event is one karaoke dialogue line.
type Event struct {
	StartMs  int64
	EndMs    int64
	Segments []Segment
}

// Text renders the segments with {\kN} tags.
func (e Event) Text() string {
	var b strings.Builder
	for _, s := range e.Segments {
		if s.Units > 0 {
			b.WriteString(`{\k`)
			b.WriteString(strconv.FormatInt(s.Units, 10))
			b.WriteByte('}')
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// units converts milliseconds to centiseconds, rounding half up.
func units(ms int64) int64 { return (ms + 5) / 10 }

// Retime turns word timings into karaoke segments. Gaps between words become
// pauses, word durations become tags, and uncovered time at the end of the
// line becomes a final pause when it exceeds 200ms. Durations that round to
// zero are never tagged. ok is false when nothing would be displayed.
func Retime(l Line) (ev Event, ok bool) {
	ev = Event{StartMs: l.StartMs, EndMs: l.EndMs()}
	cursor := l.StartMs

	for _, w := range l.Words {
		if w.StartMs > cursor {
			if g := units(w.StartMs - cursor); g > 0 {
				ev.Segments = append(ev.Segments, Segment{Units: g})
			}
		}
		if w.Text != "" {
			ev.Segments = append(ev.Segments, Segment{Units: units(w.DurationMs), Text: w.Text})
		}
		cursor = w.StartMs + w.DurationMs
	}

	if end := l.EndMs(); end-cursor > trailingGapMs {
		ev.Segments = append(ev.Segments, Segment{Units: units(end - cursor)})
	}
	return ev, len(ev.Segments) > 0
}
