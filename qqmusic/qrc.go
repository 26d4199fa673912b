package qqmusic

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/ytget/qrcdl/errs"
	"github.com/ytget/qrcdl/internal/logger"
	"github.com/ytget/qrcdl/qrc"
	"github.com/ytget/qrcdl/types"
)

// Element names of the three encrypted channels in a lyric download.
const (
	channelLyrics = "content"
	channelTrans  = "contentts"
	channelRoma   = "contentroma"
)

// QRC downloads and decrypts the word-timed lyrics of a numeric song id.
// Channels that fail to decrypt are logged and left empty. ErrLyricNotFound
// is returned when no channel yields text.
func (c *Client) QRC(ctx context.Context, id int64) (*types.QRCLyrics, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: song id %d", errs.ErrInvalidInput, id)
	}

	params := url.Values{
		"version":     {"15"},
		"miniversion": {"82"},
		"lrctype":     {"4"},
		"musicid":     {strconv.FormatInt(id, 10)},
	}
	u, err := url.Parse(c.endpoints.QRC)
	if err != nil {
		return nil, err
	}
	u.RawQuery = params.Encode()

	resp, err := c.http.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("qrc request: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, fmt.Errorf("qrc: %w", err)
	}

	channels, err := ExtractChannels(body)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent(logger.ComponentQQMusic).With(map[string]interface{}{"song_id": id})
	var lyrics types.QRCLyrics
	for name, dst := range map[string]*string{
		channelLyrics: &lyrics.Lyrics,
		channelTrans:  &lyrics.Trans,
		channelRoma:   &lyrics.Roma,
	} {
		payload := channels[name]
		if payload == "" {
			continue
		}
		text, err := qrc.DecodePayload(payload)
		if err != nil {
			log.Warn("Skipping undecodable channel", map[string]interface{}{
				"channel": name,
				"error":   err,
			})
			continue
		}
		*dst = text
	}

	if lyrics.Empty() {
		return nil, fmt.Errorf("song %d: %w", id, errs.ErrLyricNotFound)
	}
	return &lyrics, nil
}

// ExtractChannels pulls the hex payloads out of a lyric download document.
// The document arrives wrapped in an XML comment, which is removed before
// parsing. Keys are element names; payloads are whitespace-trimmed.
func ExtractChannels(body []byte) (map[string]string, error) {
	body = bytes.ReplaceAll(body, []byte("<!--"), nil)
	body = bytes.ReplaceAll(body, []byte("-->"), nil)

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.CharsetReader = charsetReader

	channels := make(map[string]string, 3)
	var (
		current string
		text    strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse lyric document: %v", errs.ErrAPI, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case channelLyrics, channelTrans, channelRoma:
				current = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if current != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if current != "" && t.Name.Local == current {
				channels[current] = strings.TrimSpace(text.String())
				current = ""
			}
		}
	}
	return channels, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
