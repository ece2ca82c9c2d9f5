// Package macho adapts github.com/blacktop/go-macho to the binary and
// analyzer contracts the strongarm shell consumes.
package macho

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/go-macho"
	"github.com/blacktop/strongarm/internal/session"
	"github.com/blacktop/strongarm/internal/utils"
)

// GetStrings returns the NUL terminated strings of every cstring literal
// section (plus __os_log and __TEXT.__const) in section then address order.
// Non printable strings are skipped.
func GetStrings(m *macho.File) ([]session.CString, error) {
	var strs []session.CString

	for _, sec := range m.Sections {
		if sec.Flags.IsCstringLiterals() || sec.Name == "__os_log" || (sec.Seg == "__TEXT" && sec.Name == "__const") {
			off, err := m.GetOffset(sec.Addr)
			if err != nil {
				return nil, fmt.Errorf("failed to get offset for %s.%s: %v", sec.Seg, sec.Name, err)
			}
			dat := make([]byte, sec.Size)
			if _, err = m.ReadAt(dat, int64(off)); err != nil {
				return nil, fmt.Errorf("failed to read cstring data in %s.%s: %v", sec.Seg, sec.Name, err)
			}
			found, err := splitCStrings(sec.Seg+"."+sec.Name, sec.Addr, dat)
			if err != nil {
				return nil, err
			}
			strs = append(strs, found...)
		}
	}

	return strs, nil
}

func splitCStrings(section string, addr uint64, dat []byte) ([]session.CString, error) {
	var strs []session.CString

	csr := bytes.NewBuffer(dat)

	for {
		pos := addr + uint64(len(dat)-csr.Len())

		s, err := csr.ReadString('\x00')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read string: %v", err)
		}

		if t := strings.Trim(s, "\x00"); len(t) > 0 && utils.IsASCII(t) {
			strs = append(strs, session.CString{Section: section, Addr: pos, Value: t})
		}

		if err == io.EOF {
			break
		}
	}

	return strs, nil
}
