package ass

import (
	"bufio"
	"fmt"
	"io"
)

// Default script metadata.
const (
	DefaultFontName = "微软雅黑"
	DefaultFontSize = 100
	DefaultPlayResX = 1920
	DefaultPlayResY = 1440
)

// Style controls the script header. The zero value uses the defaults.
type Style struct {
	FontName string
	FontSize int
	PlayResX int
	PlayResY int
}

func (s Style) withDefaults() Style {
	if s.FontName == "" {
		s.FontName = DefaultFontName
	}
	if s.FontSize <= 0 {
		s.FontSize = DefaultFontSize
	}
	if s.PlayResX <= 0 {
		s.PlayResX = DefaultPlayResX
	}
	if s.PlayResY <= 0 {
		s.PlayResY = DefaultPlayResY
	}
	return s
}

const (
	styleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"
	eventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"
)

// Writer writes an Advanced SubStation Alpha script. The header is written
// before the first event, or by Flush when there are no events.
type Writer struct {
	bw          *bufio.Writer
	style       Style
	wroteHeader bool
	events      int
}

// NewWriter returns a Writer buffering output to w.
func NewWriter(w io.Writer, style Style) *Writer {
	return &Writer{bw: bufio.NewWriter(w), style: style.withDefaults()}
}

// WriteHeader writes the [Script Info], [V4+ Styles] and [Events] sections.
// Calling it more than once has no effect.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	s := w.style
	_, err := fmt.Fprintf(w.bw,
		"[Script Info]\nPlayResX: %d\nPlayResY: %d\n\n"+
			"[V4+ Styles]\n%s\n"+
			"Style: Default,%s,%d,&H00FFFFFF,&H004E503F,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,0,2,10,10,10,1\n\n"+
			"[Events]\n%s\n",
		s.PlayResX, s.PlayResY, styleFormat, s.FontName, s.FontSize, eventFormat)
	return err
}

// WriteEvent writes one Dialogue line.
func (w *Writer) WriteEvent(ev Event) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	w.events++
	_, err := fmt.Fprintf(w.bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
		FormatTime(ev.StartMs), FormatTime(ev.EndMs), ev.Text())
	return err
}

// Events returns the number of dialogue lines written so far.
func (w *Writer) Events() int { return w.events }

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	return w.bw.Flush()
}
