// Package disass renders ARM64 and x86_64 machine code as annotated text
// listings for the strongarm shell.
package disass

import (
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/strongarm/internal/session"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultCacheSize is the number of listings kept when Config.CacheSize is unset.
	DefaultCacheSize = 256
	// DefaultMaxInstructions bounds a listing whose function extent is unknown.
	DefaultMaxInstructions = 100

	maxCString = 200
)

// Config is the disassembler configuration.
type Config struct {
	CacheSize       int
	MaxInstructions int
}

type cacheKey struct {
	path string
	arch string
	addr uint64
}

// body is a rendered listing without its header line.
type body struct {
	start uint64
	text  string
}

// Engine implements session.Disassembler. Rendered instruction bodies are
// cached by binary and requested address; the header label is applied per
// call.
type Engine struct {
	conf  Config
	cache *lru.Cache[cacheKey, body]
}

var _ session.Disassembler = (*Engine)(nil)

// NewEngine creates a disassembler.
func NewEngine(conf *Config) (*Engine, error) {
	e := &Engine{}
	if conf != nil {
		e.conf = *conf
	}
	if e.conf.CacheSize <= 0 {
		e.conf.CacheSize = DefaultCacheSize
	}
	if e.conf.MaxInstructions <= 0 {
		e.conf.MaxInstructions = DefaultMaxInstructions
	}
	cache, err := lru.New[cacheKey, body](e.conf.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing cache: %v", err)
	}
	e.cache = cache
	return e, nil
}

// DecodeMethod disassembles the implementation of an ObjC method.
func (e *Engine) DecodeMethod(b session.Binary, m session.Method) (string, error) {
	if m.Selector.Impl == 0 {
		return "", fmt.Errorf("%s has no implementation", m)
	}
	return e.listing(b, m.Selector.Impl, m.String())
}

// DecodeFunction disassembles the function containing addr. Without known
// function bounds the listing starts at addr and runs to the first return
// or MaxInstructions.
func (e *Engine) DecodeFunction(b session.Binary, addr uint64) (string, error) {
	return e.listing(b, addr, "")
}

// extent is the byte range being rendered. cur is the requested address,
// marked in the listing when it is not the start.
type extent struct {
	start   uint64
	end     uint64
	cur     uint64
	bounded bool
	limit   int
}

func (e *Engine) listing(b session.Binary, addr uint64, label string) (string, error) {
	bd, err := e.body(b, addr)
	if err != nil {
		return "", err
	}
	if len(label) == 0 || bd.start != addr {
		label = fmt.Sprintf("sub_%x", bd.start)
		if name, ok := b.SymbolName(bd.start); ok {
			label = name
		}
	}
	return fmt.Sprintf("%s:\n%s", colorLabel(label), bd.text), nil
}

func (e *Engine) body(b session.Binary, addr uint64) (body, error) {
	key := cacheKey{path: b.Path(), arch: b.Arch(), addr: addr}
	if bd, ok := e.cache.Get(key); ok {
		log.WithField("addr", fmt.Sprintf("%#x", addr)).Debug("Listing cache hit")
		return bd, nil
	}

	arch, err := archOf(b)
	if err != nil {
		return body{}, err
	}

	ext := extent{start: addr, cur: addr, limit: e.conf.MaxInstructions}
	if fn, ok := b.FunctionAt(addr); ok && fn.End > fn.Start {
		ext.start, ext.end, ext.bounded = fn.Start, fn.End, true
	} else {
		ext.end = addr + uint64(e.conf.MaxInstructions*arch.maxInstrLen)
	}

	data, err := read(b, &ext)
	if err != nil {
		return body{}, err
	}

	var sb strings.Builder
	if err := arch.render(&sb, b, data, ext); err != nil {
		return body{}, err
	}
	bd := body{start: ext.start, text: strings.TrimSuffix(sb.String(), "\n")}
	e.cache.Add(key, bd)
	return bd, nil
}

// read fetches the extent. An unbounded extent is shrunk until it fits inside
// the mapped segment.
func read(b session.Binary, ext *extent) ([]byte, error) {
	size := ext.end - ext.start
	for {
		data, err := b.GetContentFromVirtualAddress(ext.start, size)
		if err == nil {
			ext.end = ext.start + uint64(len(data))
			return data, nil
		}
		if ext.bounded || size <= 4 {
			return nil, fmt.Errorf("failed to read %d bytes at %#x: %w", size, ext.start, err)
		}
		size /= 2
	}
}

type renderer struct {
	maxInstrLen int
	render      func(w io.Writer, b session.Binary, data []byte, ext extent) error
}

func archOf(b session.Binary) (renderer, error) {
	arch := strings.ToLower(b.Arch())
	switch {
	case strings.HasPrefix(arch, "arm64"):
		return renderer{maxInstrLen: 4, render: disassembleARM64}, nil
	case strings.HasPrefix(arch, "x86_64") || arch == "x86" || arch == "amd64":
		return renderer{maxInstrLen: 15, render: disassembleX86}, nil
	default:
		return renderer{}, fmt.Errorf("can only disassemble arm64 or x86_64 binaries (got %s)", b.Arch())
	}
}

// cstringAt reads a NUL terminated string at addr, reading in small chunks so
// strings near the end of a segment are still found.
func cstringAt(b session.Binary, addr uint64) (string, bool) {
	var sb strings.Builder
	for sb.Len() <= maxCString {
		chunk, err := b.GetContentFromVirtualAddress(addr+uint64(sb.Len()), 16)
		if err != nil {
			return "", false
		}
		for _, c := range chunk {
			if c == 0 {
				return sb.String(), sb.Len() > 0
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()[:maxCString] + "...", true
}
