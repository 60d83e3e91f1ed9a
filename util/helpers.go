package util

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
)

var validHexRegex = regexp.MustCompile("^([0-9a-fA-F])+$")

// IsHex checks if the given string contains only valid hex symbols
func IsHex(str string) bool { return validHexRegex.MatchString(str) }

// IsHexEncodedStringWithLength checks if the given string contains only valid hex symbols and have the desired length
func IsHexEncodedStringWithLength(str string, length int) bool {
	str = TrimHex(str)
	return hex.DecodedLen(len(str)) == length && IsHex(str)
}

// HasHexPrefix reports whether s starts with 0x or 0X
func HasHexPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func TrimHex(s string) string {
	if HasHexPrefix(s) {
		return s[2:]
	}
	return s
}

// StripSpaces removes every whitespace rune from s
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
