package xwrap

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Text is a string that can be stored as a UTF8_STRING text property.
type Text struct {
	s string
}

// UnconvertedError reports input bytes that were not valid UTF-8. Text
// holds the input with each such byte replaced by '?'.
type UnconvertedError struct {
	Count int
	Text  Text
}

func (e *UnconvertedError) Error() string {
	return fmt.Sprintf("xwrap: %d characters could not be converted to UTF-8", e.Count)
}

// NewText checks s for use as a text property. An embedded NUL fails with
// ErrTextNul. Invalid UTF-8 yields the repaired Text together with an
// *UnconvertedError.
func NewText(s string) (Text, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return Text{}, ErrTextNul
	}
	if utf8.ValidString(s) {
		return Text{s}, nil
	}
	var (
		b     strings.Builder
		count int
	)
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			b.WriteByte('?')
			count++
		} else {
			b.WriteString(s[:size])
		}
		s = s[size:]
	}
	t := Text{b.String()}
	return t, &UnconvertedError{Count: count, Text: t}
}

func (t Text) String() string { return t.s }

// Bytes is the property data, format 8.
func (t Text) Bytes() []byte { return []byte(t.s) }
