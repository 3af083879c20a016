package textbuf

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidRange is returned when startByte/endByte violate the ordering or
// bounds precondition, or either endpoint falls inside a UTF-8 code point.
var ErrInvalidRange = errors.New("invalid range")

// ErrInvalidUTF8 is returned when the assembled buffer is not valid UTF-8.
// This should not happen if callers honor codepoint-boundary endpoints; it is
// kept as a defensive check, not a path any test is expected to exercise.
var ErrInvalidUTF8 = errors.New("invalid utf8")

// Apply produces buffer[0,startByte) + replacement + buffer[endByte,len), per
// spec §4.2. It never mutates buffer or replacement.
func Apply(buffer, replacement []byte, startByte, endByte uint32) ([]byte, error) {
	if startByte > endByte || int(endByte) > len(buffer) {
		return nil, fmt.Errorf("%w: [%d,%d) outside buffer of length %d", ErrInvalidRange, startByte, endByte, len(buffer))
	}
	if !onRuneBoundary(buffer, startByte) || !onRuneBoundary(buffer, endByte) {
		return nil, fmt.Errorf("%w: [%d,%d) splits a code point", ErrInvalidRange, startByte, endByte)
	}

	out := make([]byte, 0, int(startByte)+len(replacement)+len(buffer)-int(endByte))
	out = append(out, buffer[:startByte]...)
	out = append(out, replacement...)
	out = append(out, buffer[endByte:]...)

	if !utf8.Valid(out) {
		return nil, fmt.Errorf("%w: result of [%d,%d) replacement is not valid UTF-8", ErrInvalidUTF8, startByte, endByte)
	}

	return out, nil
}

func onRuneBoundary(buffer []byte, offset uint32) bool {
	if int(offset) == len(buffer) {
		return true
	}
	if offset == 0 {
		return true
	}
	return utf8.RuneStart(buffer[offset])
}
