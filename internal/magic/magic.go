// Package magic sniffs file types from their leading bytes.
package magic

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Magic is the first four bytes of a file read as a little-endian uint32.
type Magic uint32

const (
	// Magic32 is a little-endian 32-bit Mach-O (on disk ce fa ed fe).
	Magic32 Magic = 0xfeedface
	// Magic64 is a little-endian 64-bit Mach-O (on disk cf fa ed fe).
	Magic64 Magic = 0xfeedfacf
	// Cigam32 is a big-endian 32-bit Mach-O.
	Cigam32 Magic = 0xcefaedfe
	// Cigam64 is a big-endian 64-bit Mach-O.
	Cigam64 Magic = 0xcffaedfe
	// MagicFatBE is a universal header stored byte swapped (on disk be ba fe ca).
	MagicFatBE Magic = 0xcafebabe
	// MagicFatLE is the usual universal header (on disk ca fe ba be). Java
	// class files share these bytes.
	MagicFatLE Magic = 0xbebafeca

	magicELF Magic = 0x464c457f // "\x7fELF"
)

// maxFatArches bounds nfat_arch in a universal header. A Java class file has
// its major version (45 or more) where nfat_arch would be.
const maxFatArches = 0x20

// IsMachO returns true if filePath starts with a thin or universal Mach-O
// magic.
func IsMachO(filePath string) (bool, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer f.Close()

	var magic [4]byte
	if _, err = io.ReadFull(f, magic[:]); err != nil {
		return false, fmt.Errorf("failed to read magic: %w", err)
	}

	switch m := Magic(binary.LittleEndian.Uint32(magic[:])); m {
	case Magic32, Magic64, Cigam32, Cigam64:
		return true, nil
	case MagicFatBE, MagicFatLE:
		var nfat [4]byte
		if _, err = io.ReadFull(f, nfat[:]); err != nil {
			return false, fmt.Errorf("failed to read universal header: %w", err)
		}
		var order binary.ByteOrder = binary.BigEndian
		if m == MagicFatBE {
			order = binary.LittleEndian
		}
		if n := order.Uint32(nfat[:]); n == 0 || n > maxFatArches {
			return false, fmt.Errorf("Java class file detected (not a macho file)")
		}
		return true, nil
	case magicELF:
		return false, fmt.Errorf("ELF file detected (not a macho file)")
	default:
		if magic[0] == 'M' && magic[1] == 'Z' {
			return false, fmt.Errorf("PE file detected (not a macho file)")
		}
		return false, fmt.Errorf("not a macho file")
	}
}
