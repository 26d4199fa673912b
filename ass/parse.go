package ass

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/qrcdl/errs"
)

var (
	headerRe = regexp.MustCompile(`\[(\d+),(\d+)\]`)
	wordRe   = regexp.MustCompile(`\((\d+),(\d+)\)`)
)

var errRangeOverflow = errors.New("start plus duration overflows int64")

// WordSpan is one timed word. Text is the literal text immediately before
// the word's timing tag.
type WordSpan struct {
	StartMs    int64
	DurationMs int64
	Text       string
}

// Line is one timed lyric line in QRC form:
//
//	[start,duration]word(start,duration)word(start,duration)...
type Line struct {
	StartMs    int64
	DurationMs int64
	Words      []WordSpan
}

// EndMs returns the end of the line's header range.
func (l Line) EndMs() int64 { return l.StartMs + l.DurationMs }

// ParseError reports a timestamp that matched the QRC syntax but does not fit
// in an int64, or whose start plus duration does not. Line is 1-based; zero
// means the position is unknown.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s %v: %v", e.Line, e.Field, errs.ErrMalformedTimestamp, e.Err)
	}
	return fmt.Sprintf("%s %v: %v", e.Field, errs.ErrMalformedTimestamp, e.Err)
}

// Unwrap returns errs.ErrMalformedTimestamp and the underlying cause.
func (e *ParseError) Unwrap() []error { return []error{errs.ErrMalformedTimestamp, e.Err} }

// ParseLine parses one QRC line. ok is false for lines that do not start
// with '[' or carry no [start,duration] header, such as metadata tags or
// plain text. The header may follow other bracketed tags on the same line;
// words start after it. Words are returned in source order; text after the
// last timing tag is dropped.
func ParseLine(s string) (line Line, ok bool, err error) {
	s = strings.TrimRight(s, "\r")
	if !strings.HasPrefix(s, "[") {
		return Line{}, false, nil
	}
	m := headerRe.FindStringSubmatchIndex(s)
	if m == nil {
		return Line{}, false, nil
	}
	if line.StartMs, err = parseMs(s[m[2]:m[3]], "line start"); err != nil {
		return Line{}, true, err
	}
	if line.DurationMs, err = parseMs(s[m[4]:m[5]], "line duration"); err != nil {
		return Line{}, true, err
	}
	if err := checkRange(line.StartMs, line.DurationMs, "line range"); err != nil {
		return Line{}, true, err
	}

	content := s[m[1]:]
	prev := 0
	for _, tag := range wordRe.FindAllStringSubmatchIndex(content, -1) {
		var w WordSpan
		if w.StartMs, err = parseMs(content[tag[2]:tag[3]], "word start"); err != nil {
			return Line{}, true, err
		}
		if w.DurationMs, err = parseMs(content[tag[4]:tag[5]], "word duration"); err != nil {
			return Line{}, true, err
		}
		if err := checkRange(w.StartMs, w.DurationMs, "word range"); err != nil {
			return Line{}, true, err
		}
		w.Text = content[prev:tag[0]]
		prev = tag[1]
		line.Words = append(line.Words, w)
	}
	return line, true, nil
}

func parseMs(s, field string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Err: err}
	}
	return v, nil
}

// checkRange rejects a non-negative start and duration whose sum overflows.
func checkRange(start, dur int64, field string) error {
	if start > math.MaxInt64-dur {
		return &ParseError{Field: field, Err: errRangeOverflow}
	}
	return nil
}
