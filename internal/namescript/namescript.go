// Package namescript runs a user-provided JavaScript file that chooses the
// base name of saved lyric files.
//
// The script must define a global function `fileName(song)` returning a
// string. song carries the fields of types.Song under their JSON names
// (id, mid, name, singer, album, interval).
package namescript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/ytget/qrcdl/internal/logger"
	"github.com/ytget/qrcdl/internal/sanitize"
	"github.com/ytget/qrcdl/types"
)

// DefaultTimeout bounds a single fileName call.
const DefaultTimeout = time.Second

const entryPoint = "fileName"

var errNoResult = errors.New("fileName returned no name")

// Script is a compiled naming script. It is safe for concurrent use; every
// call runs in a fresh VM.
type Script struct {
	path    string
	program *goja.Program
	timeout time.Duration
}

// Load reads and compiles the script at path.
func Load(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Compile(path, string(src))
}

// Compile compiles src. name is used in error positions.
func Compile(name, src string) (*Script, error) {
	program, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	return &Script{path: name, program: program, timeout: DefaultTimeout}, nil
}

// WithTimeout sets the per-call execution limit.
func (s *Script) WithTimeout(d time.Duration) *Script {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Name calls fileName(song) and returns its result with path separators and
// other unsafe characters replaced.
func (s *Script) Name(ctx context.Context, song types.Song) (string, error) {
	vm := goja.New()
	err := vm.Set("console", map[string]any{
		"log": func(args ...any) {
			logger.WithComponent(logger.ComponentApp).Debug("Naming script output", map[string]interface{}{
				"script": s.path,
				"args":   fmt.Sprint(args...),
			})
		},
	})
	if err != nil {
		return "", fmt.Errorf("set console: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	if _, err := vm.RunProgram(s.program); err != nil {
		return "", fmt.Errorf("run script: %w", err)
	}
	fn, ok := goja.AssertFunction(vm.Get(entryPoint))
	if !ok {
		return "", fmt.Errorf("%s function not found in %s", entryPoint, s.path)
	}

	songJSON, err := json.Marshal(song)
	if err != nil {
		return "", err
	}
	var songObj map[string]any
	if err := json.Unmarshal(songJSON, &songObj); err != nil {
		return "", err
	}

	res, err := fn(goja.Undefined(), vm.ToValue(songObj))
	if err != nil {
		return "", fmt.Errorf("%s error: %w", entryPoint, err)
	}
	if goja.IsUndefined(res) || goja.IsNull(res) {
		return "", errNoResult
	}
	name := strings.TrimSpace(res.String())
	if name == "" {
		return "", errNoResult
	}
	return strings.TrimSuffix(sanitize.ToSafeFilename(name, "x"), ".x"), nil
}

// Namer picks base names, preferring a script when one is configured.
type Namer struct {
	Script *Script
}

// BaseName returns the script's name for song, or sanitize.SongBaseName when
// there is no script or the script fails.
func (n Namer) BaseName(ctx context.Context, song types.Song) string {
	if n.Script == nil {
		return sanitize.SongBaseName(song)
	}
	name, err := n.Script.Name(ctx, song)
	if err != nil {
		logger.WithComponent(logger.ComponentApp).Warn("Naming script failed, using default name", map[string]interface{}{
			"script": n.Script.path,
			"error":  err,
		})
		return sanitize.SongBaseName(song)
	}
	return name
}
