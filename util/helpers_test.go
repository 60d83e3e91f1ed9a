package util

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestHexHelpers(t *testing.T) {
	c := qt.New(t)
	c.Assert(TrimHex("0xabcd"), qt.Equals, "abcd")
	c.Assert(TrimHex("0Xabcd"), qt.Equals, "abcd")
	c.Assert(TrimHex("abcd"), qt.Equals, "abcd")
	c.Assert(IsHexEncodedStringWithLength("0x"+strings.Repeat("ab", 20), 20), qt.IsTrue)
	c.Assert(IsHexEncodedStringWithLength("0xabcd", 20), qt.IsFalse)
	c.Assert(IsHex("zz"), qt.IsFalse)
}

func TestStripSpaces(t *testing.T) {
	qt.Assert(t, StripSpaces(" 0xab cd\t\nef "), qt.Equals, "0xabcdef")
}
