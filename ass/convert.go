package ass

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/ytget/qrcdl/internal/logger"
)

const maxLineSize = 1 << 20

// Options configures file conversion.
type Options struct {
	// Charset names the source encoding using any WHATWG label, e.g. "gbk"
	// or "gb18030". Empty means UTF-8.
	Charset string
	Style   Style

	// Decode, when set, turns the raw source bytes into QRC text and
	// replaces the Charset step.
	Decode func(data []byte) (string, error)
}

// Convert reads QRC text from r and writes an ASS script to w. Lines without
// a timing header are skipped; a malformed timestamp aborts the conversion
// with a *ParseError.
func Convert(r io.Reader, w io.Writer, style Style) error {
	_, err := convert(r, w, style)
	return err
}

// convert is Convert returning the number of dialogue lines written.
func convert(r io.Reader, w io.Writer, style Style) (int, error) {
	aw := NewWriter(w, style)
	if err := aw.WriteHeader(); err != nil {
		return 0, err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for sc.Scan() {
		n++
		line, ok, err := ParseLine(sc.Text())
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = n
			}
			return aw.Events(), err
		}
		if !ok {
			continue
		}
		ev, ok := Retime(line)
		if !ok {
			continue
		}
		if err := aw.WriteEvent(ev); err != nil {
			return aw.Events(), err
		}
	}
	if err := sc.Err(); err != nil {
		return aw.Events(), fmt.Errorf("read lyric: %w", err)
	}
	return aw.Events(), aw.Flush()
}

// ConvertString converts QRC text held in memory.
func ConvertString(text string, style Style) (string, error) {
	var b strings.Builder
	if err := Convert(strings.NewReader(text), &b, style); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ConvertFile converts the QRC text file src into the ASS file dst using
// WriteFile.
func ConvertFile(src, dst string, opts Options) error {
	log := logger.WithComponent(logger.ComponentASS)

	r, closeSrc, err := openSource(src, opts)
	if err != nil {
		return err
	}
	defer closeSrc()

	events, err := writeFile(dst, r, opts.Style)
	if err != nil {
		return err
	}

	log.Debug("Converted lyric", map[string]interface{}{"src": src, "dst": dst, "events": events})
	return nil
}

func openSource(src string, opts Options) (io.Reader, func(), error) {
	if opts.Decode != nil {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, nil, fmt.Errorf("read source: %w", err)
		}
		text, err := opts.Decode(data)
		if err != nil {
			return nil, nil, err
		}
		return strings.NewReader(text), func() {}, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, nil, fmt.Errorf("open source: %w", err)
	}
	r, err := CharsetReader(in, opts.Charset)
	if err != nil {
		in.Close()
		return nil, nil, err
	}
	return r, func() { in.Close() }, nil
}

// CharsetReader decodes r from the named WHATWG encoding into UTF-8. An
// empty charset or "utf-8" returns r unchanged.
func CharsetReader(r io.Reader, charset string) (io.Reader, error) {
	cs := strings.TrimSpace(charset)
	if cs == "" || strings.EqualFold(cs, "utf-8") || strings.EqualFold(cs, "utf8") {
		return r, nil
	}
	enc, err := htmlindex.Get(cs)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", cs, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// WriteFile converts QRC text read from r into the ASS file dst. The output
// is written to a temporary file in the same directory and renamed into
// place, so dst is never left half-written.
func WriteFile(dst string, r io.Reader, style Style) error {
	_, err := writeFile(dst, r, style)
	return err
}

func writeFile(dst string, r io.Reader, style Style) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".qrcdl-*.ass")
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	events, err := convert(r, tmp, style)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return 0, fmt.Errorf("rename output: %w", err)
	}
	return events, nil
}
