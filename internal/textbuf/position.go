// Package textbuf owns the byte<->(row,column) mapping and the ranged text
// edits that drive the incremental parser.
package textbuf

import (
	"fmt"
	"unicode/utf8"
)

// Position is a zero-based (row, column) pair, the column counted in UTF-8
// code points within the row — the LSP wire "character" is UTF-16 in general,
// but this server works entirely in UTF-8 offsets internally (see spec
// GLOSSARY: Position).
type Position struct {
	Row    uint32
	Column uint32
}

// Index is a bidirectional byte<->(row,column) mapping over a text buffer,
// built once per buffer and consulted for every edit in a change batch.
//
// positions[r] holds the absolute byte offset of the start of every code
// point on row r, the row's terminating newline included; that newline's
// offset is the row's last entry, and the last row ends with the buffer's
// total byte length as its EOF sentinel. Index never has zero rows: a buffer ending without a trailing newline gets
// its EOF sentinel folded into the last content row rather than a separate
// row (see DESIGN.md for why this departs from the spec's stated "always
// push a final sentinel row" wording).
type Index struct {
	positions [][]uint32
}

// NewIndex scans text once, O(n), building the row/column offset table.
func NewIndex(text []byte) *Index {
	positions := make([][]uint32, 0, 1)
	row := make([]uint32, 0, 16)
	var offset uint32

	for i := 0; i < len(text); {
		row = append(row, offset)
		_, size := utf8.DecodeRune(text[i:])
		offset += uint32(size)
		i += size

		if text[i-size] == '\n' {
			positions = append(positions, row)
			row = make([]uint32, 0, 16)
		}
	}

	row = append(row, offset)
	positions = append(positions, row)

	return &Index{positions: positions}
}

// RowCount returns the number of rows, including the row holding the EOF
// sentinel (a separate empty row only when the text ends with a newline).
func (idx *Index) RowCount() int {
	return len(idx.positions)
}

// OffsetOf resolves a (row, column) position to a byte offset, clamping
// out-of-range rows to the last row and out-of-range columns to that row's
// sentinel offset, per spec §4.1.
func (idx *Index) OffsetOf(pos Position) uint32 {
	row := pos.Row
	column := pos.Column

	if int(row) >= len(idx.positions) {
		row = uint32(len(idx.positions) - 1)
		column = ^uint32(0)
	}

	rowOffsets := idx.positions[row]
	if int(column) >= len(rowOffsets) {
		column = uint32(len(rowOffsets) - 1)
	}

	return rowOffsets[column]
}

// PositionOf resolves a byte offset to the row whose first stored offset is
// the greatest <= offset, with the column being the index within that row
// whose stored offset equals offset. An offset beyond every stored offset
// resolves to the last row's sentinel position (spec §4.1).
func (idx *Index) PositionOf(offset uint32) Position {
	row := 0
	for r := 0; r < len(idx.positions); r++ {
		if idx.positions[r][0] <= offset {
			row = r
			continue
		}
		break
	}

	rowOffsets := idx.positions[row]
	for col, o := range rowOffsets {
		if o == offset {
			return Position{Row: uint32(row), Column: uint32(col)}
		}
	}

	return Position{Row: uint32(len(idx.positions) - 1), Column: uint32(len(idx.positions[len(idx.positions)-1]) - 1)}
}

// ErrOutOfRange describes a position with no stored entry (spec §7
// PositionOutOfRange). OffsetOf and PositionOf clamp instead of failing, so
// neither returns it.
type ErrOutOfRange struct {
	Row, Column uint32
}

func (e ErrOutOfRange) Error() string {
	return fmt.Sprintf("position (%d,%d) out of range", e.Row, e.Column)
}
