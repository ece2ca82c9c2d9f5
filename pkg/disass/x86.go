package disass

import (
	"fmt"
	"io"

	"github.com/blacktop/strongarm/internal/session"
	"golang.org/x/arch/x86/x86asm"
)

func disassembleX86(w io.Writer, b session.Binary, data []byte, ext extent) error {
	symname := func(addr uint64) (string, uint64) {
		if name, ok := b.SymbolName(addr); ok {
			return name, addr
		}
		return "", 0
	}

	count := 0
	for off := 0; off < len(data); {
		if !ext.bounded && count >= ext.limit {
			break
		}
		count++

		pc := ext.start + uint64(off)
		marker := fmt.Sprintf("%#08x", pc)
		if pc == ext.cur && pc != ext.start {
			marker = fmt.Sprintf("👉%08x", pc)
		}

		inst, err := x86asm.Decode(data[off:], 64)
		if err != nil {
			fmt.Fprintf(w, "%s:  %s\t.byte\t%#02x ; (%s)\n", colorAddr(marker), colorOpCodes(fmt.Sprintf("%02x", data[off])), data[off], err.Error())
			break
		}

		text := x86asm.IntelSyntax(inst, pc, symname)
		if inst.Op == x86asm.LEA || inst.Op == x86asm.MOV {
			for _, arg := range inst.Args {
				if mem, ok := arg.(x86asm.Mem); ok && mem.Base == x86asm.RIP {
					target := pc + uint64(inst.Len) + uint64(mem.Disp)
					text += annotate(b, target)
				}
			}
		}

		fmt.Fprintf(w, "%s:  %s\t%s\n", colorAddr(marker), colorOpCodes(fmt.Sprintf("% x", data[off:off+inst.Len])), colorInstruction(text))

		off += inst.Len
		if !ext.bounded && inst.Op == x86asm.RET {
			break
		}
	}
	return nil
}
