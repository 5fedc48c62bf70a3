package textpos

import (
	"strings"
	"testing"
	"unicode/utf16"

	"pgregory.net/rapid"
)

func TestOffsetToLineCol(t *testing.T) {
	// "𝘗" is U+1D617, a surrogate pair on the wire (2 UTF-16 units) and
	// 4 bytes in UTF-8.
	astral := "linear A: 𝘗 (U+10617)"

	tests := []struct {
		name   string
		text   string
		offset uint
		line   uint
		col    uint
	}{
		{"start of text", "asdf hjkl", 0, 1, 1},
		{"middle of a line", "asdf hjkl", 4, 1, 5},
		{"second line", "asdf\nhjkl\nzxcv", 7, 2, 3},
		{"first column after newline", "asdf\nhjkl", 5, 2, 1},
		{"offset on the newline itself", "a\nb", 1, 1, 2},
		{"empty text", "", 0, 1, 1},
		{"empty text clamps", "", 10, 1, 1},
		{"end of text", "ab", 2, 1, 3},
		{"past the end clamps", "ab", 99, 1, 3},
		{"start of surrogate pair", astral, 10, 1, 11},
		{"inside surrogate pair", astral, 11, 1, 11},
		{"after surrogate pair", astral, 12, 1, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OffsetToLineCol(tt.offset, tt.text)
			if got.Line != tt.line || got.Col != tt.col {
				t.Errorf("OffsetToLineCol(%d, %q) = (%d,%d), want (%d,%d)",
					tt.offset, tt.text, got.Line, got.Col, tt.line, tt.col)
			}
		})
	}
}

func TestOffsetToLineColInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		offset := rapid.UintRange(0, 128).Draw(t, "offset")

		pos := OffsetToLineCol(offset, text)

		if pos.Line < 1 || pos.Col < 1 {
			t.Fatalf("position out of range: %+v", pos)
		}
		if max := uint(strings.Count(text, "\n") + 1); pos.Line > max {
			t.Fatalf("line %d exceeds line count %d", pos.Line, max)
		}

		// Everything at or past the total UTF-16 length clamps to the
		// same end position.
		var total uint
		for _, r := range text {
			total += uint(utf16.RuneLen(r))
		}
		if offset >= total {
			if end := OffsetToLineCol(total, text); pos != end {
				t.Fatalf("offset %d (len %d): got %+v, want clamped %+v", offset, total, pos, end)
			}
		}
	})
}
