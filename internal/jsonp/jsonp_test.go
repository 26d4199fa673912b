package jsonp

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/qrcdl/errs"
)

func TestUnwrap(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		callback string
		want     string
	}{
		{"strict", `MusicJsonCallback_lrc({"retcode":0,"lyric":"W3RpOl0="})`, "MusicJsonCallback_lrc", `{"retcode":0,"lyric":"W3RpOl0="}`},
		{"whitespace and semicolon", "  getOneSongInfoCallback( {\"data\":[]} );\n", "getOneSongInfoCallback", `{"data":[]}`},
		{"plain json", `{"code":0}`, "MusicJsonCallback", `{"code":0}`},
		{"nested parens", `cb({"name":"a (live)"})`, "cb", `{"name":"a (live)"}`},
		{"no callback check", `whatever({"a":1})`, "", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unwrap([]byte(tt.body), tt.callback)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestUnwrapJavaScriptLiteral(t *testing.T) {
	got, err := Unwrap([]byte(`cb({retcode: 0, lyric: 'abc', list: [1, 2]})`), "cb")
	require.NoError(t, err)

	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(got, &v))
	assert.Equal(t, float64(0), v["retcode"])
	assert.Equal(t, "abc", v["lyric"])
	assert.Len(t, v["list"], 2)
}

func TestUnwrapErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		callback string
	}{
		{"empty", "", "cb"},
		{"wrong callback", `other({"a":1})`, "cb"},
		{"no closing paren", `cb({"a":1}`, "cb"},
		{"trailing garbage", `cb({"a":1}) extra`, "cb"},
		{"bad json object", `{"a":`, "cb"},
		{"bad script", `cb({a: })`, "cb"},
		{"function payload", `cb(function(){})`, "cb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unwrap([]byte(tt.body), tt.callback)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
			assert.True(t, errors.Is(err, errs.ErrAPI))
		})
	}
}

func TestUnwrapRunawayScript(t *testing.T) {
	_, err := evaluate("(function(){ while (true) {} })()")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}
