package disass

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/arm64-cgo/disassemble"
	"github.com/blacktop/strongarm/internal/session"
	"github.com/blacktop/strongarm/internal/utils"
)

type opName uint32

// Apple AMX coprocessor operations, encoded in the reserved 0x00201000 block.
const (
	AMXLDX opName = iota
	AMXLDY
	AMXSTX
	AMXSTY
	AMXLDZ
	AMXSTZ
	AMXLDZI
	AMXSTZI
	AMXEXTRX // amxextrx?
	AMXEXTRY // amxextry?
	AMXFMA64
	AMXFMS64
	AMXFMA32
	AMXFMS32
	AMXMAC16
	AMXFMA16
	AMXFMS16
	AMX17 // amxset / amxclr
	AMXVECINT
	AMXVECFP
	AMXMATINT
	AMXMATFP
	AMXGENLUT
)

var amxNames = [...]string{
	"amx_ldx", "amx_ldy", "amx_stx", "amx_sty", "amx_ldz", "amx_stz",
	"amx_ldzi", "amx_stzi", "amx_extrx", "amx_extry", "amx_fma64",
	"amx_fms64", "amx_fma32", "amx_fms32", "amx_mac16", "amx_fma16",
	"amx_fms16", "amx_op17", "amx_vecint", "amx_vecfp", "amx_matint",
	"amx_matfp", "amx_genlut",
}

func (o opName) String() string {
	if int(o) < len(amxNames) {
		return amxNames[o]
	}
	return "unk"
}

// branchTarget returns the immediate destination of a direct branch.
func branchTarget(instr *disassemble.Instruction) (uint64, bool) {
	op := instr.Operation.String()
	idx := -1
	switch {
	case op == "b" || op == "bl" || strings.HasPrefix(op, "b."):
		idx = 0
	case op == "cbz" || op == "cbnz":
		idx = 1
	case op == "tbz" || op == "tbnz":
		idx = 2
	}
	if idx < 0 || idx >= len(instr.Operands) {
		return 0, false
	}
	return instr.Operands[idx].Immediate, true
}

func isReturn(instr *disassemble.Instruction) bool {
	return strings.HasPrefix(instr.Operation.String(), "ret")
}

// triageARM64 is a first pass over the extent collecting the branch targets
// that land inside it.
func triageARM64(data []byte, ext extent) map[uint64]bool {
	var results [1024]byte
	locs := make(map[uint64]bool)
	for off := 0; off+4 <= len(data); off += 4 {
		addr := ext.start + uint64(off)
		instr, err := disassemble.Decompose(addr, binary.LittleEndian.Uint32(data[off:]), &results)
		if err != nil {
			continue
		}
		if target, ok := branchTarget(instr); ok && target >= ext.start && target < ext.end {
			locs[target] = true
		}
	}
	return locs
}

func annotate(b session.Binary, addr uint64) string {
	if name, ok := b.SymbolName(addr); ok {
		return fmt.Sprintf(" ; %s", name)
	}
	if cstr, ok := cstringAt(b, addr); ok && utils.IsASCII(cstr) && len(cstr) > 1 {
		return fmt.Sprintf(" ; %#v", cstr)
	}
	return ""
}

func disassembleARM64(w io.Writer, b session.Binary, data []byte, ext extent) error {
	var instrStr string
	var results [1024]byte
	var prevInstr *disassemble.Instruction

	locs := triageARM64(data, ext)
	line := func(addr uint64, value uint32, text string) {
		marker := fmt.Sprintf("%#08x", addr)
		if addr == ext.cur && addr != ext.start {
			marker = fmt.Sprintf("👉%08x", addr)
		}
		fmt.Fprintf(w, "%s:  %s\t%s\n", colorAddr(marker), colorOpCodes(disassemble.GetOpCodeByteString(value)), text)
	}

	count := 0
	for off := 0; off+4 <= len(data); off += 4 {
		startAddr := ext.start + uint64(off)
		instrValue := binary.LittleEndian.Uint32(data[off:])

		if !ext.bounded && count >= ext.limit {
			break
		}
		count++

		instruction, err := disassemble.Decompose(startAddr, instrValue, &results)
		if err != nil {
			if instrValue == 0xfeedfacf {
				line(startAddr, instrValue, fmt.Sprintf(".long\t%#x ; (possible embedded MachO)", instrValue))
				break
			} else if instrValue == 0x201420 {
				line(startAddr, instrValue, "genter")
				continue
			} else if instrValue == 0x00201400 {
				line(startAddr, instrValue, "gexit")
				continue
			} else if instrValue == 0xe7ffdefe || instrValue == 0xe7ffdeff {
				line(startAddr, instrValue, "trap")
				continue
			} else if instrValue > 0xffff0000 {
				line(startAddr, instrValue, fmt.Sprintf(".long\t%#x ; (probably a jump-table)", instrValue))
				break
			} else if prevInstr != nil && strings.Contains(prevInstr.Operation.String(), "braa") {
				break
			} else if (instrValue & 0xfffffC00) == 0x00201000 {
				Xr := disassemble.Register((instrValue & 0x1F) + 34)
				m := (instrValue >> 5) & 0x1F
				if m == 17 {
					if instrValue&0x1F == 0 {
						line(startAddr, instrValue, "amxset")
					} else {
						line(startAddr, instrValue, "amxclr")
					}
				} else {
					line(startAddr, instrValue, fmt.Sprintf("%s\t%s", opName(m), Xr.String()))
				}
				continue
			} else if instrValue>>21 == 1 {
				line(startAddr, instrValue, fmt.Sprintf(".long\t%#x ; (possible unknown Apple instruction)", instrValue))
				continue
			} else if cstr, ok := cstringAt(b, startAddr); ok && utils.IsASCII(cstr) && len(cstr) > 1 {
				line(startAddr, instrValue, fmt.Sprintf("DCB\t%#v", cstr))
				break
			}
			line(startAddr, instrValue, fmt.Sprintf(".long\t%#x ; (%s)", instrValue, err.Error()))
			break
		}

		instrStr = instruction.String()

		if locs[instruction.Address] {
			fmt.Fprintf(w, "%s:  ; %s\n", colorAddr("%#08x", instruction.Address), colorLocation("loc_%x", instruction.Address))
		}

		if instruction.Operation == disassemble.ARM64_MRS || instruction.Operation == disassemble.ARM64_MSR {
			var ops []string
			replaced := false
			for _, op := range instruction.Operands {
				if op.Class == disassemble.REG {
					ops = append(ops, op.Registers[0].String())
				} else if op.Class == disassemble.IMPLEMENTATION_SPECIFIC {
					sysRegFix := op.ImplSpec.GetSysReg().String()
					if len(sysRegFix) > 0 {
						ops = append(ops, sysRegFix)
						replaced = true
					}
				}
				if replaced {
					instrStr = fmt.Sprintf("%s\t%s", instruction.Operation, strings.Join(ops, ", "))
				}
			}
		} else if target, ok := branchTarget(instruction); ok {
			if name, ok := b.SymbolName(target); ok {
				instrStr = fmt.Sprintf("%s\t%s", instruction.Operation, name)
			} else if locs[target] {
				instrStr = strings.Replace(instrStr, fmt.Sprintf("%#x", target), fmt.Sprintf("loc_%x", target), 1)
			}
		} else if instruction.Operation == disassemble.ARM64_ADR {
			instrStr += annotate(b, instruction.Operands[1].Immediate)
		} else if (prevInstr != nil && prevInstr.Operation == disassemble.ARM64_ADRP) &&
			(instruction.Operation == disassemble.ARM64_ADD ||
				instruction.Operation == disassemble.ARM64_LDR ||
				instruction.Operation == disassemble.ARM64_LDRB) &&
			len(instruction.Operands) > 1 {
			adrpRegister := prevInstr.Operands[0].Registers[0]
			adrpImm := prevInstr.Operands[1].Immediate
			if instruction.Operation == disassemble.ARM64_LDR && adrpRegister == instruction.Operands[1].Registers[0] {
				adrpImm += instruction.Operands[1].Immediate
			} else if instruction.Operation == disassemble.ARM64_LDRB && adrpRegister == instruction.Operands[1].Registers[0] {
				adrpImm += instruction.Operands[1].Immediate
			} else if instruction.Operation == disassemble.ARM64_ADD && adrpRegister == instruction.Operands[1].Registers[0] && len(instruction.Operands) > 2 {
				adrpImm += instruction.Operands[2].Immediate
			}
			instrStr += annotate(b, adrpImm)
		}

		line(startAddr, instrValue, colorInstruction(instrStr))

		if !ext.bounded && isReturn(instruction) {
			break
		}

		prevInstr = instruction
	}

	return nil
}
