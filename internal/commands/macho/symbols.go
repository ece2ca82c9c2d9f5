package macho

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/arm64-cgo/disassemble"
	"github.com/blacktop/go-macho"
)

// symbolMap indexes every address the disassembler can name: symtab and
// export entries, ObjC metadata, chained fixup binds and arm64 stubs.
func (b *Binary) symbolMap() map[uint64]string {
	b.symOnce.Do(func() {
		b.a2s = make(map[uint64]string)
		for _, parse := range []func() error{
			b.parseSymbols,
			b.parseObjC,
			b.parseImports,
			b.parseStubs,
		} {
			if err := parse(); err != nil {
				log.WithError(err).Debug("failed to index symbols")
			}
		}
	})
	return b.a2s
}

func (b *Binary) parseSymbols() error {
	if b.m.Symtab != nil {
		for _, sym := range b.m.Symtab.Syms {
			if sym.Value > 0 && len(sym.Name) > 0 {
				b.a2s[sym.Value] = sym.Name
			}
		}
	}
	exports, err := b.m.GetExports()
	if err != nil {
		if err != macho.ErrMachODyldInfoNotFound {
			return fmt.Errorf("failed to get exports: %v", err)
		}
	}
	for _, sym := range exports {
		if sym.Address > 0 {
			b.a2s[sym.Address] = sym.Name
		}
	}
	return nil
}

func (b *Binary) parseObjC() error {
	if !b.m.HasObjC() {
		return nil
	}
	if cfstrs, err := b.m.GetCFStrings(); err == nil {
		for _, cfstr := range cfstrs {
			b.a2s[cfstr.Address] = fmt.Sprintf("%#v", cfstr.Name)
		}
	}
	if selRefs, err := b.m.GetObjCSelectorReferences(); err == nil {
		for off, sel := range selRefs {
			b.a2s[off] = fmt.Sprintf("sel_%s", sel.Name)
		}
	}
	if classes, err := b.m.GetObjCClasses(); err == nil {
		for _, class := range classes {
			b.a2s[class.ClassPtr] = fmt.Sprintf("class_%s", class.Name)
			for _, meth := range class.ClassMethods {
				if len(meth.Name) > 0 {
					b.a2s[meth.ImpVMAddr] = fmt.Sprintf("+[%s %s]", class.Name, meth.Name)
				}
			}
			for _, imeth := range class.InstanceMethods {
				if len(imeth.Name) > 0 {
					b.a2s[imeth.ImpVMAddr] = fmt.Sprintf("-[%s %s]", class.Name, imeth.Name)
				}
			}
		}
	}
	if classRefs, err := b.m.GetObjCClassReferences(); err == nil {
		for off, class := range classRefs {
			b.a2s[off] = fmt.Sprintf("class_%s", class.Name)
		}
	}
	if protoRefs, err := b.m.GetObjCProtoReferences(); err == nil {
		for off, proto := range protoRefs {
			b.a2s[off] = fmt.Sprintf("proto_%s", proto.Name)
		}
	}
	return nil
}

// parseImports names the pointer slots dyld binds at load time.
func (b *Binary) parseImports() error {
	if b.m.HasFixups() {
		dcf, err := b.m.DyldChainedFixups()
		if err != nil {
			return err
		}
		if dcf.Imports == nil {
			return nil
		}
		for _, start := range dcf.Starts {
			if start.PageStarts == nil {
				continue
			}
			for _, bind := range start.Binds() {
				b.a2s[b.m.GetBaseAddress()+bind.Offset()] = bind.Name()
			}
		}
		return nil
	}
	binds, err := b.m.GetBindInfo()
	if err != nil {
		return err
	}
	for _, bind := range binds {
		b.a2s[bind.Start+bind.SegOffset] = bind.Name
	}
	return nil
}

// parseStubs resolves arm64 __stubs entries (adrp x16; ldr x16, [x16, #off];
// br x16) to the name of the pointer slot they jump through.
func (b *Binary) parseStubs() error {
	if !isARM64(b.arch) {
		return nil
	}
	stubs := b.m.Section("__TEXT", "__stubs")
	if stubs == nil {
		return nil
	}
	data, err := stubs.Data()
	if err != nil {
		return fmt.Errorf("failed to read __TEXT.__stubs: %v", err)
	}
	for addr, slot := range parseStubsASM(data, stubs.Addr) {
		if name, ok := b.a2s[slot]; ok {
			b.a2s[addr] = "j_" + name
		}
	}
	return nil
}

func isARM64(arch string) bool {
	return strings.HasPrefix(arch, "arm64")
}

// parseStubsASM maps each stub address to the pointer slot its
// adrp/ldr/br sequence loads.
func parseStubsASM(data []byte, begin uint64) map[uint64]uint64 {
	var results [1024]byte
	stubs := make(map[uint64]uint64)

	var adrp *disassemble.Instruction
	var stubStart uint64
	var slot uint64
	for off := 0; off+4 <= len(data); off += 4 {
		addr := begin + uint64(off)
		instr, err := disassemble.Decompose(addr, binary.LittleEndian.Uint32(data[off:]), &results)
		if err != nil {
			adrp = nil
			continue
		}
		switch {
		case instr.Operation == disassemble.ARM64_ADRP:
			// Decompose reuses results, keep a copy
			cpy := *instr
			adrp, stubStart, slot = &cpy, addr, 0
		case adrp != nil && (instr.Operation == disassemble.ARM64_LDR || instr.Operation == disassemble.ARM64_ADD) &&
			len(instr.Operands) > 1 && len(instr.Operands[1].Registers) > 0 &&
			instr.Operands[1].Registers[0] == adrp.Operands[0].Registers[0]:
			if instr.Operation == disassemble.ARM64_LDR {
				slot = adrp.Operands[1].Immediate + instr.Operands[1].Immediate
			} else {
				adrp = nil
			}
		case adrp != nil && slot != 0 && instr.Operation == disassemble.ARM64_BR:
			stubs[stubStart] = slot
			adrp, slot = nil, 0
		default:
			adrp, slot = nil, 0
		}
	}
	return stubs
}
