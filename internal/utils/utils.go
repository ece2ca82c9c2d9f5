package utils

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAddress parses a base-16 virtual address. The 0x prefix is optional.
func ParseAddress(s string) (uint64, error) {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, 64)
}

// ParseSize parses a base-10 byte count.
func ParseSize(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// IsASCII checks if given string is printable ascii
func IsASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || (!unicode.IsPrint(r) && !unicode.IsSpace(r)) {
			return false
		}
	}
	return true
}
