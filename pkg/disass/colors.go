package disass

import (
	"regexp"
	"strings"

	"github.com/blacktop/strongarm/internal/colors"
)

// disassembly colors
var colorOp = colors.Bold().SprintFunc()
var colorRegs = colors.BoldHiBlue().SprintFunc()
var colorImm = colors.BoldMagenta().SprintFunc()
var colorAddr = colors.Faint().SprintfFunc()
var colorOpCodes = colors.FaintHiWhite().SprintFunc()
var colorLocation = colors.HiYellow().SprintfFunc()
var colorLabel = colors.BoldHiCyan().SprintFunc()

var (
	immMatch = regexp.MustCompile(`#?-?0x[0-9a-z]+`)
	locMatch = regexp.MustCompile(`\sloc_[0-9a-z]+`)
	regMatch = regexp.MustCompile(`\W([wxvbhsdqzp][0-9]{1,2}|(c|s)psr(_c)?|pc|sl|sb|fp|ip|sp|lr|fpsid|fpscr|fpexc|[re]?[abcd]x|[re]?[sd]il?|[re]?[sb]p|r[0-9]{1,2}[dwb]?|[xy]mm[0-9]{1,2}|rip)\b`)
)

// ColorOperands highlights immediates, local labels and registers.
func ColorOperands(operands string) string {
	if len(operands) > 0 && colors.Enabled() {
		operands = immMatch.ReplaceAllStringFunc(operands, func(s string) string {
			return colorImm(s)
		})
		operands = locMatch.ReplaceAllStringFunc(operands, func(s string) string {
			return string(s[0]) + colorLocation("%s", s[1:])
		})
		operands = regMatch.ReplaceAllStringFunc(operands, func(s string) string {
			return string(s[0]) + colorRegs(s[1:])
		})
	}
	return operands
}

func colorInstruction(instr string) string {
	if !colors.Enabled() {
		return instr
	}
	op, operands, found := strings.Cut(instr, "\t")
	if !found {
		op, operands, found = strings.Cut(instr, " ")
	}
	if !found {
		return colorOp(instr)
	}
	// keep a leading separator so register matches at the start of the operands
	return colorOp(op) + "\t" + strings.TrimPrefix(ColorOperands(" "+operands), " ")
}
