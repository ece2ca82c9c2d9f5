// Package session defines the read-only facts a loaded binary exposes and the
// collaborator contracts the interactive shell consumes.
package session

import "fmt"

// Metadata is the header level summary of a binary slice.
type Metadata struct {
	Path          string
	Magic         string
	CPU           string
	SubCPU        string
	FileType      string
	Flags         string
	NCommands     uint32
	SizeCommands  uint32
	UUID          string
	BuildVersion  string
	SourceVersion string
	DylibID       string
	Encrypted     bool
	HasObjC       bool
	HasSwift      bool
}

// Segment is a mapped segment of the binary.
type Segment struct {
	Name    string
	Addr    uint64
	Memsz   uint64
	Offset  uint64
	Filesz  uint64
	Maxprot string
	Prot    string
	Nsect   uint32
}

// Section is a section inside a segment.
type Section struct {
	Segment string
	Name    string
	Addr    uint64
	Size    uint64
	Offset  uint32
	Flags   string
}

// LoadCommand is one entry of the load command table.
type LoadCommand struct {
	Index   int
	Command string
	Size    uint32
	Detail  string
}

// CString is a NUL terminated string found in a cstring style section.
type CString struct {
	Section string
	Addr    uint64
	Value   string
}

// Selector is an ObjC method implemented by a class.
type Selector struct {
	Name        string
	Types       string
	Impl        uint64
	ClassMethod bool
}

// Class is an ObjC class and the selectors it implements.
type Class struct {
	Name       string
	SuperClass string
	Addr       uint64
	Selectors  []Selector
}

// Protocol is an ObjC protocol.
type Protocol struct {
	Name      string
	Addr      uint64
	Selectors []Selector
}

// Method is a selector together with the class that implements it.
type Method struct {
	Class    string
	Selector Selector
}

func (m Method) String() string {
	prefix := "-"
	if m.Selector.ClassMethod {
		prefix = "+"
	}
	return fmt.Sprintf("%s[%s %s]", prefix, m.Class, m.Selector.Name)
}

// Symbol is an imported or exported symbol.
type Symbol struct {
	Name    string
	Addr    uint64
	Library string
	Kind    string
}

// Function is the extent of a function body.
type Function struct {
	Start uint64
	End   uint64
}

// Size returns the length of the function body in bytes.
func (f Function) Size() uint64 {
	return f.End - f.Start
}

// Binary is the parsed executable being analyzed.
type Binary interface {
	Path() string
	Arch() string
	Metadata() Metadata
	Segments() []Segment
	Sections() []Section
	LoadCommands() []LoadCommand
	Strings() ([]CString, error)
	// GetContentFromVirtualAddress fails if the range is not mapped.
	GetContentFromVirtualAddress(addr, size uint64) ([]byte, error)
	FunctionAt(addr uint64) (Function, bool)
	SymbolName(addr uint64) (string, bool)
}

// Analyzer provides the facts derived from a Binary.
type Analyzer interface {
	ObjCClasses() []Class
	ObjCProtocols() []Protocol
	ObjCMethods() []Method
	ImportedSymbols() []Symbol
	ExportedSymbols() []Symbol
}

// Disassembler decodes instructions into printable text.
type Disassembler interface {
	DecodeMethod(b Binary, m Method) (string, error)
	DecodeFunction(b Binary, addr uint64) (string, error)
}

// Session is the binary/analyzer pair a shell is constructed with.
type Session struct {
	Binary       Binary
	Analyzer     Analyzer
	Disassembler Disassembler
}
