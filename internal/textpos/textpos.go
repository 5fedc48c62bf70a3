// Package textpos maps browser-side UTF-16 text offsets onto editor
// line/column positions.
package textpos

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a 1-based line and column. The column counts UTF-8 bytes
// from the start of the line, which is how most terminal editors
// interpret their +line:col arguments.
type Position struct {
	Line uint
	Col  uint
}

// OffsetToLineCol converts a zero-based UTF-16 code-unit offset, as the
// sending browser computes it, into a Position within text.
//
// The accumulated UTF-16 length is advanced one scalar value at a time
// and the scan stops as soon as it exceeds offset, so an offset landing
// inside a surrogate pair resolves to the start of that character.
// Offsets past the end of text clamp to the position after the last
// character.
func OffsetToLineCol(offset uint, text string) Position {
	pos := Position{Line: 1, Col: 1}
	var units uint
	for _, r := range text {
		units += uint(utf16.RuneLen(r))
		if units > offset {
			break
		}
		if r == '\n' {
			pos.Line++
			pos.Col = 1
		} else {
			pos.Col += uint(utf8.RuneLen(r))
		}
	}
	return pos
}
