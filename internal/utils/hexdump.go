package utils

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/blacktop/strongarm/internal/colors"
)

// DefaultRowWidth is the number of bytes rendered per hex dump row.
const DefaultRowWidth = 16

var colorFaint = colors.FaintHiBlue().SprintFunc()

var dubzerosMatch = regexp.MustCompile(`\s(00\s)+|\.`)

func colorZeros(dump string) string {
	if len(dump) > 0 && colors.Enabled() {
		dump = dubzerosMatch.ReplaceAllStringFunc(dump, func(s string) string {
			return colorFaint(s)
		})
	}
	return dump
}

// HexDumpRows renders data as rows of width bytes.
//
// Each row looks like:
//
//	0x1000		48 65 6c 6c 6f 00 00 00 	00 00 00 00 00 00 00 00 	|Hello...........|
//	^ address     ^ tab after every 8th byte of the row          ^ ASCII of the row
//
// A short final row only renders the bytes present. A width <= 0 selects
// DefaultRowWidth.
func HexDumpRows(base uint64, data []byte, width int) []string {
	if width <= 0 {
		width = DefaultRowWidth
	}
	rows := make([]string, 0, (len(data)+width-1)/width)
	for off := 0; off < len(data); off += width {
		end := min(off+width, len(data))
		rows = append(rows, formatRow(base+uint64(off), data[off:end]))
	}
	return rows
}

func formatRow(addr uint64, row []byte) string {
	var sb strings.Builder
	sb.Grow(20 + len(row)*4 + len(row)/8)
	fmt.Fprintf(&sb, "%#x\t\t", addr)
	for idx, b := range row {
		fmt.Fprintf(&sb, "%02x ", b)
		if (idx+1)%8 == 0 {
			sb.WriteByte('\t')
		}
	}
	sb.WriteByte('|')
	for _, b := range row {
		sb.WriteByte(toChar(b))
	}
	sb.WriteByte('|')
	return sb.String()
}

// toChar maps bytes in [0x20, 0x7e) to themselves and everything else to '.'
func toChar(b byte) byte {
	if b < 0x20 || b >= 0x7e {
		return '.'
	}
	return b
}

// Dumper returns a WriteCloser that writes a hex dump of all written data to
// w, one row per line, in the same format as HexDumpRows. Zero runs and non
// printable placeholders are dimmed when colors are enabled. Close flushes a
// short final row.
func Dumper(w io.Writer, vaddr uint64) io.WriteCloser {
	return &dumper{w: w, addr: vaddr, width: DefaultRowWidth}
}

type dumper struct {
	w      io.Writer
	row    []byte
	addr   uint64 // address of the current row
	width  int
	closed bool
}

func (h *dumper) Write(data []byte) (n int, err error) {
	if h.closed {
		return 0, errors.New("hexdump: dumper closed")
	}
	for len(data) > 0 {
		take := min(h.width-len(h.row), len(data))
		h.row = append(h.row, data[:take]...)
		data = data[take:]
		n += take
		if len(h.row) == h.width {
			if err = h.flush(); err != nil {
				return
			}
		}
	}
	return
}

func (h *dumper) flush() error {
	if _, err := io.WriteString(h.w, colorZeros(formatRow(h.addr, h.row))+"\n"); err != nil {
		return err
	}
	h.addr += uint64(len(h.row))
	h.row = h.row[:0]
	return nil
}

func (h *dumper) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if len(h.row) == 0 {
		return nil
	}
	return h.flush()
}
