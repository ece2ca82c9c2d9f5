package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/blacktop/strongarm/internal/session"
	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type fakeBinary struct {
	mu    sync.Mutex
	base  uint64
	mem   []byte
	calls []string
}

func newFakeBinary() *fakeBinary {
	mem := make([]byte, 0x100)
	for i := range mem {
		mem[i] = byte(i)
	}
	return &fakeBinary{base: 0x1000, mem: mem}
}

func (b *fakeBinary) record(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, name)
}

func (b *fakeBinary) Path() string { return "/tmp/Fake" }
func (b *fakeBinary) Arch() string { return "arm64" }

func (b *fakeBinary) Metadata() session.Metadata {
	b.record("metadata")
	return session.Metadata{Path: b.Path(), Magic: "64-bit MachO", CPU: "ARM64", FileType: "EXECUTE"}
}

func (b *fakeBinary) Segments() []session.Segment {
	b.record("segments")
	return []session.Segment{{Name: "__TEXT", Addr: b.base, Memsz: uint64(len(b.mem)), Prot: "r-x", Maxprot: "r-x", Nsect: 2}}
}

func (b *fakeBinary) Sections() []session.Section {
	b.record("sections")
	return []session.Section{{Segment: "__TEXT", Name: "__text", Addr: b.base, Size: 0x80}}
}

func (b *fakeBinary) LoadCommands() []session.LoadCommand {
	b.record("loads")
	return []session.LoadCommand{{Index: 0, Command: "LC_SEGMENT_64", Size: 72, Detail: "__TEXT"}}
}

func (b *fakeBinary) Strings() ([]session.CString, error) {
	b.record("strings")
	return []session.CString{{Section: "__TEXT.__cstring", Addr: 0x1080, Value: "hello"}}, nil
}

func (b *fakeBinary) GetContentFromVirtualAddress(addr, size uint64) ([]byte, error) {
	if addr < b.base || addr+size > b.base+uint64(len(b.mem)) {
		return nil, fmt.Errorf("address %#x not mapped", addr)
	}
	off := addr - b.base
	return b.mem[off : off+size], nil
}

func (b *fakeBinary) FunctionAt(addr uint64) (session.Function, bool) {
	return session.Function{}, false
}

func (b *fakeBinary) SymbolName(addr uint64) (string, bool) {
	return "", false
}

type fakeAnalyzer struct {
	mu      sync.Mutex
	classes []session.Class
	calls   []string
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		classes: []session.Class{
			{
				Name:       "AppDelegate",
				SuperClass: "NSObject",
				Addr:       0x8000,
				Selectors: []session.Selector{
					{Name: "application:didFinishLaunchingWithOptions:", Impl: 0x1010},
					{Name: "sharedDelegate", Impl: 0x1020, ClassMethod: true},
				},
			},
			{
				Name:      "ViewController",
				Addr:      0x8100,
				Selectors: []session.Selector{{Name: "viewDidLoad", Impl: 0x1030}},
			},
			{
				Name:      "OtherController",
				Addr:      0x8200,
				Selectors: []session.Selector{{Name: "viewDidLoad", Impl: 0x1040}},
			},
		},
	}
}

func (a *fakeAnalyzer) record(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, name)
}

func (a *fakeAnalyzer) ObjCClasses() []session.Class {
	a.record("classes")
	return a.classes
}

func (a *fakeAnalyzer) ObjCProtocols() []session.Protocol {
	a.record("protocols")
	return nil
}

func (a *fakeAnalyzer) ObjCMethods() []session.Method {
	a.record("methods")
	var out []session.Method
	for _, c := range a.classes {
		for _, sel := range c.Selectors {
			out = append(out, session.Method{Class: c.Name, Selector: sel})
		}
	}
	return out
}

func (a *fakeAnalyzer) ImportedSymbols() []session.Symbol {
	a.record("imports")
	return []session.Symbol{{Name: "_objc_msgSend", Library: "/usr/lib/libobjc.A.dylib", Kind: "func"}}
}

func (a *fakeAnalyzer) ExportedSymbols() []session.Symbol {
	a.record("exports")
	return []session.Symbol{{Name: "_main", Addr: 0x1000, Kind: "regular"}}
}

type fakeDisassembler struct {
	methods []session.Method
	funcs   []uint64
	err     error
}

func (d *fakeDisassembler) DecodeMethod(b session.Binary, m session.Method) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.methods = append(d.methods, m)
	return fmt.Sprintf("%#x: ret ; %s", m.Selector.Impl, m), nil
}

func (d *fakeDisassembler) DecodeFunction(b session.Binary, addr uint64) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	d.funcs = append(d.funcs, addr)
	return fmt.Sprintf("%#x: ret", addr), nil
}

// lines feeds a fixed script and then reports end of input.
type lines struct {
	input  []string
	closed bool
}

func (l *lines) ReadLine(string) (string, error) {
	if len(l.input) == 0 {
		return "", io.EOF
	}
	line := l.input[0]
	l.input = l.input[1:]
	return line, nil
}

func (l *lines) Close() error {
	l.closed = true
	return nil
}

var errBoom = errors.New("boom")

type fixture struct {
	sh  *Shell
	out *strings.Builder
	bin *fakeBinary
	an  *fakeAnalyzer
	dis *fakeDisassembler
	in  *lines
}

func newFixture(t *testing.T, script ...string) *fixture {
	t.Helper()
	f := &fixture{
		out: &strings.Builder{},
		bin: newFakeBinary(),
		an:  newFakeAnalyzer(),
		dis: &fakeDisassembler{},
		in:  &lines{input: script},
	}
	f.sh = New(session.Session{Binary: f.bin, Analyzer: f.an, Disassembler: f.dis}, Config{
		Output: f.out,
		Input:  f.in,
	})
	f.out.Reset()
	return f
}
