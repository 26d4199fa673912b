// Package qqmusic talks to the QQ Music lyric endpoints: song search, song
// detail lookup, line-timed LRC lyrics and encrypted word-timed QRC lyrics.
package qqmusic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ytget/qrcdl/client"
	"github.com/ytget/qrcdl/errs"
	"github.com/ytget/qrcdl/internal/jsonp"
	"github.com/ytget/qrcdl/internal/logger"
	"github.com/ytget/qrcdl/types"
)

// Endpoints holds the service URLs. Tests point them at local servers.
type Endpoints struct {
	Search     string
	LRC        string
	QRC        string
	SongDetail string
}

// DefaultEndpoints are the public service URLs.
var DefaultEndpoints = Endpoints{
	Search:     "https://u.y.qq.com/cgi-bin/musicu.fcg",
	LRC:        "https://c.y.qq.com/lyric/fcgi-bin/fcg_query_lyric_new.fcg",
	QRC:        "https://c.y.qq.com/qqmusic/fcgi-bin/lyric_download.fcg",
	SongDetail: "https://c.y.qq.com/v8/fcg-bin/fcg_play_single_song.fcg",
}

const (
	defaultPageSize = 20

	lrcCallback  = "MusicJsonCallback_lrc"
	songCallback = "getOneSongInfoCallback"

	searchMethod = "DoSearchForQQMusicDesktop"
	searchModule = "music.search.SearchCgiService"
)

// Client for the lyric service.
type Client struct {
	http      *client.Client
	endpoints Endpoints
	pageSize  int
	now       func() time.Time
}

// New creates a service client. A nil httpClient uses client.New().
func New(httpClient *client.Client) *Client {
	if httpClient == nil {
		httpClient = client.New()
	}
	return &Client{
		http:      httpClient,
		endpoints: DefaultEndpoints,
		pageSize:  defaultPageSize,
		now:       time.Now,
	}
}

// WithEndpoints overrides the service URLs.
func (c *Client) WithEndpoints(e Endpoints) *Client {
	c.endpoints = e
	return c
}

// WithPageSize sets the number of search results requested.
func (c *Client) WithPageSize(n int) *Client {
	if n > 0 {
		c.pageSize = n
	}
	return c
}

// commonParams returns the query parameters every c.y.qq.com call carries.
func commonParams(callback string) url.Values {
	return url.Values{
		"g_tk":          {"5381"},
		"jsonpCallback": {callback},
		"loginUin":      {"0"},
		"hostUin":       {"0"},
		"format":        {"jsonp"},
		"inCharset":     {"utf8"},
		"outCharset":    {"utf8"},
		"notice":        {"0"},
		"platform":      {"yqq"},
		"needNewCode":   {"0"},
	}
}

type searchRequest struct {
	Req1 struct {
		Method string      `json:"method"`
		Module string      `json:"module"`
		Param  searchParam `json:"param"`
	} `json:"req_1"`
}

type searchParam struct {
	NumPerPage int    `json:"num_per_page"`
	PageNum    int    `json:"page_num"`
	Query      string `json:"query"`
	SearchType int    `json:"search_type"`
}

type searchResponse struct {
	Code int `json:"code"`
	Req1 struct {
		Code int `json:"code"`
		Data struct {
			Body struct {
				Song struct {
					List []types.Song `json:"list"`
				} `json:"song"`
			} `json:"body"`
		} `json:"data"`
	} `json:"req_1"`
}

// Search looks up songs by keyword. No match yields an empty slice.
func (c *Client) Search(ctx context.Context, keyword string) ([]types.Song, error) {
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty keyword", errs.ErrInvalidInput)
	}

	var req searchRequest
	req.Req1.Method = searchMethod
	req.Req1.Module = searchModule
	req.Req1.Param = searchParam{NumPerPage: c.pageSize, PageNum: 1, Query: keyword}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	resp, err := c.http.Post(ctx, c.endpoints.Search, "application/json", payload)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", errs.ErrAPI, err)
	}
	if out.Code != 0 || out.Req1.Code != 0 {
		return nil, fmt.Errorf("%w: search returned code %d/%d", errs.ErrAPI, out.Code, out.Req1.Code)
	}

	songs := out.Req1.Data.Body.Song.List
	logger.WithComponent(logger.ComponentQQMusic).Debug("Search finished", map[string]interface{}{
		"keyword": keyword,
		"results": len(songs),
	})
	return songs, nil
}

// IsSongID reports whether s is a numeric song id rather than a mid.
func IsSongID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Song fetches song details by numeric id or by mid.
func (c *Client) Song(ctx context.Context, idOrMid string) (*types.Song, error) {
	if idOrMid == "" {
		return nil, fmt.Errorf("%w: empty song id", errs.ErrInvalidInput)
	}

	params := commonParams(songCallback)
	if IsSongID(idOrMid) {
		params.Set("songid", idOrMid)
	} else {
		params.Set("songmid", idOrMid)
	}
	params.Set("tpl", "yqq_song_detail")
	params.Set("callback", songCallback)

	body, err := c.getJSONP(ctx, c.endpoints.SongDetail, params, songCallback)
	if err != nil {
		return nil, fmt.Errorf("song detail: %w", err)
	}

	var out struct {
		Data []types.Song `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode song detail: %v", errs.ErrAPI, err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("%s: %w", idOrMid, errs.ErrSongNotFound)
	}
	return &out.Data[0], nil
}

type lrcResponse struct {
	Retcode int    `json:"retcode"`
	Lyric   string `json:"lyric"`
	Trans   string `json:"trans"`
}

// LRC fetches line-timed lyrics and their translation by song mid.
func (c *Client) LRC(ctx context.Context, mid string) (*types.LRCLyrics, error) {
	if mid == "" {
		return nil, fmt.Errorf("%w: empty song mid", errs.ErrInvalidInput)
	}

	params := commonParams(lrcCallback)
	params.Set("callback", lrcCallback)
	params.Set("pcachetime", strconv.FormatInt(c.now().UnixMilli(), 10))
	params.Set("songmid", mid)

	body, err := c.getJSONP(ctx, c.endpoints.LRC, params, lrcCallback)
	if err != nil {
		return nil, fmt.Errorf("lrc: %w", err)
	}

	var out lrcResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode lrc response: %v", errs.ErrAPI, err)
	}
	if out.Retcode != 0 {
		return nil, fmt.Errorf("%s: retcode %d: %w", mid, out.Retcode, errs.ErrLyricNotFound)
	}

	var lyrics types.LRCLyrics
	if lyrics.Lyric, err = decodeBase64(out.Lyric); err != nil {
		return nil, fmt.Errorf("lyric channel: %w", err)
	}
	if lyrics.Trans, err = decodeBase64(out.Trans); err != nil {
		return nil, fmt.Errorf("translation channel: %w", err)
	}
	if lyrics.Empty() {
		return nil, fmt.Errorf("%s: %w", mid, errs.ErrLyricNotFound)
	}
	return &lyrics, nil
}

func decodeBase64(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: base64: %v", errs.ErrAPI, err)
	}
	return string(b), nil
}

func (c *Client) getJSONP(ctx context.Context, endpoint string, params url.Values, callback string) ([]byte, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	u.RawQuery = params.Encode()

	resp, err := c.http.Get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	body, err := readOK(resp)
	if err != nil {
		return nil, err
	}
	logger.WithComponent(logger.ComponentQQMusic).Trace("JSONP response", map[string]interface{}{
		"endpoint": endpoint,
		"bytes":    len(body),
	})
	return jsonp.Unwrap(body, callback)
}

// readOK reads the body of a 2xx response and closes it.
func readOK(resp *http.Response) ([]byte, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: http status %d", errs.ErrAPI, resp.StatusCode)
	}
	return client.ReadBody(resp)
}
