package qrcdl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ytget/qrcdl/ass"
	"github.com/ytget/qrcdl/client"
	"github.com/ytget/qrcdl/errs"
	"github.com/ytget/qrcdl/internal/logger"
	"github.com/ytget/qrcdl/internal/lyriccache"
	"github.com/ytget/qrcdl/internal/namescript"
	"github.com/ytget/qrcdl/qqmusic"
	"github.com/ytget/qrcdl/qrc"
	"github.com/ytget/qrcdl/types"
)

// Format selects what Save writes.
type Format int

const (
	// FormatQRC saves the decrypted word-timed lyric document.
	FormatQRC Format = iota
	// FormatLRC saves line-timed lyrics.
	FormatLRC
	// FormatASS converts word-timed lyrics into a karaoke subtitle script.
	FormatASS
)

// String returns the file extension of the format.
func (f Format) String() string {
	switch f {
	case FormatQRC:
		return "qrc"
	case FormatLRC:
		return "lrc"
	case FormatASS:
		return "ass"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses "qrc", "lrc" or "ass", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qrc":
		return FormatQRC, nil
	case "lrc":
		return FormatLRC, nil
	case "ass":
		return FormatASS, nil
	}
	return 0, fmt.Errorf("%w: unknown format %q", errs.ErrInvalidInput, s)
}

// Options holds Downloader settings. Use the chainable setters to populate it.
type Options struct {
	OutputDir string
	Style     ass.Style
	Charset   string
	CacheTTL  time.Duration
}

// Downloader fetches lyrics from the lyric service and writes them to disk.
// It is safe for concurrent use once configured.
type Downloader struct {
	options   Options
	http      *client.Client
	endpoints qqmusic.Endpoints
	api       *qqmusic.Client
	cache     lyriccache.Cache
	namer     namescript.Namer
	now       func() time.Time
}

// New creates a Downloader with default options.
func New() *Downloader {
	d := &Downloader{
		options:   Options{OutputDir: "."},
		http:      client.New(),
		endpoints: qqmusic.DefaultEndpoints,
		now:       time.Now,
	}
	d.rebuild()
	return d
}

func (d *Downloader) rebuild() {
	d.api = qqmusic.New(d.http).WithEndpoints(d.endpoints)
}

// WithHTTPClient sets the HTTP client used for all service calls.
func (d *Downloader) WithHTTPClient(c *client.Client) *Downloader {
	if c != nil {
		d.http = c
		d.rebuild()
	}
	return d
}

// WithEndpoints overrides the lyric service URLs.
func (d *Downloader) WithEndpoints(e qqmusic.Endpoints) *Downloader {
	d.endpoints = e
	d.rebuild()
	return d
}

// WithOutputDir sets the directory Save writes into. It is created on demand.
func (d *Downloader) WithOutputDir(dir string) *Downloader {
	if dir == "" {
		dir = "."
	}
	d.options.OutputDir = dir
	return d
}

// WithStyle sets the subtitle header used for FormatASS and ConvertFile.
func (d *Downloader) WithStyle(style ass.Style) *Downloader {
	d.options.Style = style
	return d
}

// WithCharset sets the source encoding assumed by ConvertFile for plain text input.
func (d *Downloader) WithCharset(charset string) *Downloader {
	d.options.Charset = charset
	return d
}

// WithCache stores fetched lyrics in cache. Entries expire after ttl; zero
// keeps them forever.
func (d *Downloader) WithCache(cache lyriccache.Cache, ttl time.Duration) *Downloader {
	d.cache = cache
	d.options.CacheTTL = ttl
	return d
}

// WithNameScript names saved files with a user script instead of the
// default "<artist> - <title>".
func (d *Downloader) WithNameScript(s *namescript.Script) *Downloader {
	d.namer = namescript.Namer{Script: s}
	return d
}

// Search looks up songs by keyword.
func (d *Downloader) Search(ctx context.Context, keyword string) ([]types.Song, error) {
	return d.api.Search(ctx, strings.TrimSpace(keyword))
}

// Song fetches song details by numeric id or mid.
func (d *Downloader) Song(ctx context.Context, idOrMid string) (*types.Song, error) {
	return d.api.Song(ctx, strings.TrimSpace(idOrMid))
}

func (d *Downloader) expiry() time.Time {
	if d.options.CacheTTL <= 0 {
		return time.Time{}
	}
	return d.now().Add(d.options.CacheTTL)
}

// resolveID fills in song.ID from the service when only the mid is known.
func (d *Downloader) resolveID(ctx context.Context, song types.Song) (types.Song, error) {
	if song.ID > 0 {
		return song, nil
	}
	if song.Mid == "" {
		return song, fmt.Errorf("%w: song has neither id nor mid", errs.ErrInvalidInput)
	}
	full, err := d.api.Song(ctx, song.Mid)
	if err != nil {
		return song, err
	}
	return *full, nil
}

// FetchQRC returns the decrypted word-timed lyrics of song, consulting the
// cache first.
func (d *Downloader) FetchQRC(ctx context.Context, song types.Song) (*types.QRCLyrics, error) {
	song, err := d.resolveID(ctx, song)
	if err != nil {
		return nil, err
	}
	key := lyriccache.QRCKey(song.ID)
	if d.cache != nil {
		if e, ok := d.cache.Get(key); ok {
			logger.WithComponent(logger.ComponentCache).Debug("Cache hit", map[string]interface{}{"key": key})
			return &types.QRCLyrics{Lyrics: e.Lyrics, Trans: e.Trans, Roma: e.Roma}, nil
		}
	}

	lyrics, err := d.api.QRC(ctx, song.ID)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		d.cache.Set(key, lyriccache.Entry{Lyrics: lyrics.Lyrics, Trans: lyrics.Trans, Roma: lyrics.Roma, ExpiresAt: d.expiry()})
	}
	return lyrics, nil
}

// FetchLRC returns the line-timed lyrics of song, consulting the cache first.
func (d *Downloader) FetchLRC(ctx context.Context, song types.Song) (*types.LRCLyrics, error) {
	if song.Mid == "" {
		return nil, fmt.Errorf("%w: song has no mid", errs.ErrInvalidInput)
	}
	key := lyriccache.LRCKey(song.Mid)
	if d.cache != nil {
		if e, ok := d.cache.Get(key); ok {
			logger.WithComponent(logger.ComponentCache).Debug("Cache hit", map[string]interface{}{"key": key})
			return &types.LRCLyrics{Lyric: e.Lyrics, Trans: e.Trans}, nil
		}
	}

	lyrics, err := d.api.LRC(ctx, song.Mid)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		d.cache.Set(key, lyriccache.Entry{Lyrics: lyrics.Lyric, Trans: lyrics.Trans, ExpiresAt: d.expiry()})
	}
	return lyrics, nil
}

// Save downloads the lyrics of song in format f and writes them under the
// output directory as "<base>.<ext>". A translation is written to
// "<base>_trans.lrc" and, for word-timed formats, a romanization to
// "<base>_roma.qrc". It returns the written paths.
func (d *Downloader) Save(ctx context.Context, song types.Song, f Format) ([]string, error) {
	log := logger.WithComponent(logger.ComponentApp)

	dir := d.options.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	base := filepath.Join(dir, d.namer.BaseName(ctx, song))

	var (
		written []string
		files   []outputFile
	)
	switch f {
	case FormatLRC:
		lrc, err := d.FetchLRC(ctx, song)
		if err != nil {
			return nil, err
		}
		files = []outputFile{
			{base + ".lrc", lrc.Lyric},
			{base + "_trans.lrc", lrc.Trans},
		}

	case FormatQRC, FormatASS:
		q, err := d.FetchQRC(ctx, song)
		if err != nil {
			return nil, err
		}
		if f == FormatQRC {
			files = append(files, outputFile{base + ".qrc", q.Lyrics})
		} else if q.Lyrics != "" {
			content, _ := qrc.LyricContent(q.Lyrics)
			path := base + ".ass"
			if err := ass.WriteFile(path, strings.NewReader(content), d.options.Style); err != nil {
				return written, fmt.Errorf("write %s: %w", path, err)
			}
			written = append(written, path)
		}
		files = append(files,
			outputFile{base + "_trans.lrc", q.Trans},
			outputFile{base + "_roma.qrc", q.Roma},
		)

	default:
		return nil, fmt.Errorf("%w: unknown format %v", errs.ErrInvalidInput, f)
	}

	for _, of := range files {
		if of.content == "" {
			continue
		}
		if err := os.WriteFile(of.path, []byte(of.content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", of.path, err)
		}
		written = append(written, of.path)
	}
	if len(written) == 0 {
		return nil, fmt.Errorf("%s: %w", song.Name, errs.ErrLyricNotFound)
	}

	log.Info("Saved lyrics", map[string]interface{}{
		"song":   song.Name,
		"format": f.String(),
		"files":  len(written),
	})
	return written, nil
}

type outputFile struct {
	path    string
	content string
}

// SaveResult reports the outcome of one song in SaveAll.
type SaveResult struct {
	Input string
	Song  *types.Song
	Files []string
	Err   error
}

// SaveAll looks up every id or mid in inputs and saves its lyrics using at
// most concurrency workers. Results are returned in input order; onResult,
// when set, is called as each song finishes.
func (d *Downloader) SaveAll(ctx context.Context, inputs []string, f Format, concurrency int, onResult func(SaveResult)) []SaveResult {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]SaveResult, len(inputs))

	jobs := make(chan int, len(inputs))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				res := SaveResult{Input: inputs[idx]}
				if err := ctx.Err(); err != nil {
					res.Err = err
				} else if song, err := d.Song(ctx, inputs[idx]); err != nil {
					res.Err = err
				} else {
					res.Song = song
					res.Files, res.Err = d.Save(ctx, *song, f)
				}
				results[idx] = res
				if onResult != nil {
					mu.Lock()
					onResult(res)
					mu.Unlock()
				}
			}
		}()
	}
	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// DecodeFile reads a lyric file and returns its plain text. Accepted inputs
// are a hex payload as served by the lyric service, an encrypted file as
// stored by desktop clients ("[offset:0]" followed by binary ciphertext), or
// plain text in the configured charset.
func (d *Downloader) DecodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeLyric(data, d.options.Charset)
}

// DecodeLyric is DecodeFile for data held in memory.
func DecodeLyric(data []byte, charset string) (string, error) {
	trimmed := bytes.TrimSpace(data)
	switch {
	case isHexPayload(trimmed):
		return qrc.DecodePayload(string(trimmed))
	case bytes.HasPrefix(data, []byte("[offset:0]")) && !utf8.Valid(data):
		return qrc.DecodeLocal(data)
	}

	r, err := ass.CharsetReader(bytes.NewReader(data), charset)
	if err != nil {
		return "", err
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s text: %w", charset, err)
	}
	return string(text), nil
}

func isHexPayload(b []byte) bool {
	if len(b) < 2*qrc.BlockSize || len(b)%2 != 0 {
		return false
	}
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ConvertFile converts a lyric file into an ASS script at dst. src may be in
// any form DecodeFile accepts; a decoded QRC document is reduced to its
// lyric content first. An empty dst replaces the extension of src with ".ass".
func (d *Downloader) ConvertFile(src, dst string) (string, error) {
	if dst == "" {
		dst = strings.TrimSuffix(src, filepath.Ext(src)) + ".ass"
	}
	opts := ass.Options{
		Style: d.options.Style,
		Decode: func(data []byte) (string, error) {
			text, err := DecodeLyric(data, d.options.Charset)
			if err != nil {
				return "", err
			}
			content, _ := qrc.LyricContent(text)
			return content, nil
		},
	}
	if err := ass.ConvertFile(src, dst, opts); err != nil {
		return "", fmt.Errorf("%s: %w", src, err)
	}
	return dst, nil
}
