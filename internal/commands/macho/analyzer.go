package macho

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/go-macho"
	"github.com/blacktop/go-macho/pkg/swift"
	"github.com/blacktop/go-macho/types/objc"
	"github.com/blacktop/strongarm/internal/session"
	"github.com/ianlancetaylor/demangle"
)

// AnalyzerConfig for the MachO analyzer
type AnalyzerConfig struct {
	// Demangle C++ and Swift symbol names.
	Demangle bool
}

// Analyzer indexes the ObjC metadata and symbols of a Binary once, up front.
type Analyzer struct {
	conf *AnalyzerConfig

	classes   []session.Class
	protocols []session.Protocol
	methods   []session.Method
	imports   []session.Symbol
	exports   []session.Symbol
}

var _ session.Analyzer = (*Analyzer)(nil)

// NewAnalyzer walks the ObjC runtime metadata, the symbol table and the
// export trie of b.
func NewAnalyzer(b *Binary, conf *AnalyzerConfig) (*Analyzer, error) {
	if conf == nil {
		conf = &AnalyzerConfig{}
	}
	a := &Analyzer{conf: conf}
	m := b.File()

	if m.HasObjC() {
		if err := a.parseObjC(m); err != nil {
			return nil, err
		}
	} else {
		log.Debug("binary does not contain objc metadata")
	}
	a.parseImports(m)
	if err := a.parseExports(m); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"classes":   len(a.classes),
		"protocols": len(a.protocols),
		"methods":   len(a.methods),
		"imports":   len(a.imports),
		"exports":   len(a.exports),
	}).Debug("Analysis complete")

	return a, nil
}

func (a *Analyzer) parseObjC(m *macho.File) error {
	classes, err := m.GetObjCClasses()
	if err != nil && !errors.Is(err, macho.ErrObjcSectionNotFound) {
		return fmt.Errorf("failed to parse objc classes: %v", err)
	}
	for _, c := range classes {
		class := session.Class{
			Name:       a.demangle(c.Name),
			SuperClass: a.demangle(c.SuperClass),
			Addr:       c.ClassPtr,
			Selectors:  append(selectors(c.InstanceMethods, false), selectors(c.ClassMethods, true)...),
		}
		for _, sel := range class.Selectors {
			a.methods = append(a.methods, session.Method{Class: class.Name, Selector: sel})
		}
		a.classes = append(a.classes, class)
	}

	protos, err := m.GetObjCProtocols()
	if err != nil && !errors.Is(err, macho.ErrObjcSectionNotFound) {
		return fmt.Errorf("failed to parse objc protocols: %v", err)
	}
	for _, p := range protos {
		a.protocols = append(a.protocols, session.Protocol{
			Name:      p.Name,
			Addr:      p.Ptr,
			Selectors: append(selectors(p.InstanceMethods, false), selectors(p.ClassMethods, true)...),
		})
	}
	return nil
}

func selectors(methods []objc.Method, classMethods bool) []session.Selector {
	var sels []session.Selector
	for _, meth := range methods {
		sels = append(sels, session.Selector{
			Name:        meth.Name,
			Types:       meth.Types,
			Impl:        meth.ImpVMAddr,
			ClassMethod: classMethods,
		})
	}
	return sels
}

func (a *Analyzer) parseImports(m *macho.File) {
	if m.Symtab == nil {
		return
	}
	for _, sym := range m.Symtab.Syms {
		if !sym.Type.IsUndefinedSym() {
			continue
		}
		a.imports = append(a.imports, session.Symbol{
			Name:    a.demangle(sym.Name),
			Addr:    sym.Value,
			Library: sym.GetLib(m),
			Kind:    sym.GetType(m),
		})
	}
}

func (a *Analyzer) parseExports(m *macho.File) error {
	if m.DyldExportsTrie() != nil && m.DyldExportsTrie().Size > 0 {
		exports, err := m.DyldExports()
		if err != nil {
			return fmt.Errorf("failed to parse dyld exports trie: %v", err)
		}
		for _, export := range exports {
			a.exports = append(a.exports, session.Symbol{
				Name: a.demangle(export.Name),
				Addr: export.Address,
				Kind: export.Flags.String(),
			})
		}
		return nil
	}
	// older binaries keep the trie in LC_DYLD_INFO
	if exports, err := m.GetExports(); err == nil {
		for _, export := range exports {
			a.exports = append(a.exports, session.Symbol{
				Name: a.demangle(export.Name),
				Addr: export.Address,
				Kind: export.Flags.String(),
			})
		}
	}
	return nil
}

func (a *Analyzer) demangle(name string) string {
	if !a.conf.Demangle {
		return name
	}
	return DemangleName(name)
}

// DemangleName demangles Swift and Itanium C++ symbol names and returns any
// other name unchanged.
func DemangleName(name string) string {
	switch {
	case strings.HasPrefix(name, "_$s") || strings.HasPrefix(name, "$s"):
		if out, err := swift.Demangle(name); err == nil {
			return out
		}
	case strings.HasPrefix(name, "__Z"):
		return demangle.Filter(name[1:])
	case strings.HasPrefix(name, "_Z"):
		return demangle.Filter(name)
	}
	return name
}

func (a *Analyzer) ObjCClasses() []session.Class       { return a.classes }
func (a *Analyzer) ObjCProtocols() []session.Protocol { return a.protocols }
func (a *Analyzer) ObjCMethods() []session.Method     { return a.methods }
func (a *Analyzer) ImportedSymbols() []session.Symbol { return a.imports }
func (a *Analyzer) ExportedSymbols() []session.Symbol { return a.exports }
