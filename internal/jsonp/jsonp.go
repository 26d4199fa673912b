// Package jsonp strips JSONP callback wrappers from lyric service responses.
package jsonp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robertkrimen/otto"

	"github.com/ytget/qrcdl/errs"
)

// evalTimeout bounds the JavaScript fallback.
const evalTimeout = 2 * time.Second

// ErrMalformed is returned when a body is neither JSONP for the expected
// callback nor plain JSON.
var ErrMalformed = fmt.Errorf("%w: malformed jsonp", errs.ErrAPI)

var errHalt = errors.New("jsonp: evaluation timed out")

// Unwrap returns the JSON document inside callback(...). Bodies that already
// are JSON objects are returned unchanged. When the wrapped text is a
// JavaScript literal rather than strict JSON (single quotes, unquoted keys)
// it is evaluated in a sandboxed VM and re-serialized.
func Unwrap(body []byte, callback string) ([]byte, error) {
	body = bytes.TrimSpace(body)
	body = bytes.TrimSpace(bytes.TrimSuffix(body, []byte(";")))
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if body[0] == '{' || body[0] == '[' {
		if json.Valid(body) {
			return body, nil
		}
		return nil, fmt.Errorf("%w: invalid json", ErrMalformed)
	}

	if callback != "" && !bytes.HasPrefix(body, []byte(callback)) {
		return nil, fmt.Errorf("%w: expected callback %s", ErrMalformed, callback)
	}
	open := bytes.IndexByte(body, '(')
	end := bytes.LastIndexByte(body, ')')
	if open < 0 || end != len(body)-1 || end < open {
		return nil, fmt.Errorf("%w: missing parentheses", ErrMalformed)
	}

	inner := bytes.TrimSpace(body[open+1 : end])
	if json.Valid(inner) {
		return inner, nil
	}
	return evaluate(string(inner))
}

// evaluate runs a JavaScript expression and returns it as JSON.
func evaluate(expr string) (out []byte, err error) {
	vm := otto.New()
	vm.Interrupt = make(chan func(), 1)
	timer := time.AfterFunc(evalTimeout, func() {
		vm.Interrupt <- func() { panic(errHalt) }
	})
	defer timer.Stop()
	defer func() {
		if r := recover(); r != nil {
			if r == errHalt {
				err = fmt.Errorf("%w: %v", ErrMalformed, errHalt)
				return
			}
			panic(r)
		}
	}()

	if _, err := vm.Run("var __payload = (" + expr + ");"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	value, err := vm.Run("JSON.stringify(__payload)")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !value.IsString() {
		return nil, fmt.Errorf("%w: payload is not serializable", ErrMalformed)
	}
	s, err := value.ToString()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return []byte(s), nil
}
