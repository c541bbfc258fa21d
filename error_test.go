package xwrap

import (
	"bytes"
	"io"
	"log"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"
)

func TestProtocolError(t *testing.T) {
	testCases := []struct {
		code ProtocolError
		name string
		text string
	}{
		{BadRequest, "BadRequest", "BadRequest (invalid request code or no such operation)"},
		{BadWindow, "BadWindow", "BadWindow (invalid Window parameter)"},
		{BadColormap, "BadColor", "BadColor (invalid Colormap parameter)"},
		{BadImplementation, "BadImplementation", "BadImplementation (server does not implement operation)"},
		{0, "UnknownError(0)", "0"},
		{140, "UnknownError(140)", "140"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.name, tc.code.String())
		assert.Equal(t, tc.text, tc.code.Text())
		assert.Equal(t, tc.code >= BadRequest && tc.code <= BadImplementation, tc.code.Known())
	}
}

func TestNewErrorEvent(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		want        *ErrorEvent
	}{
		{
			"window",
			xproto.WindowError{Sequence: 4, BadValue: 0x400001, MajorOpcode: 8},
			&ErrorEvent{Code: BadWindow, Sequence: 4, ResourceID: 0x400001, MajorOpcode: 8},
		},
		{
			"match",
			xproto.MatchError{Sequence: 9, MajorOpcode: 12},
			&ErrorEvent{Code: BadMatch, Sequence: 9, MajorOpcode: 12},
		},
		{
			"value",
			xproto.ValueError{Sequence: 1, BadValue: 77, MinorOpcode: 2, MajorOpcode: 130},
			&ErrorEvent{Code: BadValue, Sequence: 1, ResourceID: 77, MajorOpcode: 130, MinorOpcode: 2},
		},
		{
			"length",
			xproto.LengthError{Sequence: 2, MajorOpcode: 18},
			&ErrorEvent{Code: BadLength, Sequence: 2, MajorOpcode: 18},
		},
	}
	for _, tc := range testCases {
		got, ok := newErrorEvent(tc.err)
		assert.True(t, ok, tc.description)
		assert.Equal(t, tc.want, got, tc.description)
	}

	_, ok := newErrorEvent(io.EOF)
	assert.False(t, ok)
}

func TestErrorEventIs(t *testing.T) {
	ev := &ErrorEvent{Code: BadWindow, Sequence: 3, ResourceID: 5}
	err := wrapError("map window", xproto.WindowError{Sequence: 3, BadValue: 5})

	assert.True(t, xerrors.Is(err, &ErrorEvent{Code: BadWindow}))
	assert.False(t, xerrors.Is(err, &ErrorEvent{Code: BadMatch}))
	assert.False(t, ev.Is(&ErrorEvent{Code: BadWindow, Sequence: 3}))
	assert.Contains(t, err.Error(), "map window")
	assert.Contains(t, err.Error(), "BadWindow (invalid Window parameter)")

	var target *ErrorEvent
	assert.True(t, xerrors.As(err, &target))
	assert.Equal(t, ev, target)

	assert.Nil(t, wrapError("noop", nil))
	assert.True(t, xerrors.Is(wrapError("io", io.EOF), io.EOF))
}

func TestErrorSlot(t *testing.T) {
	buf := &bytes.Buffer{}
	s := &errorSlot{log: logger{log.New(buf, "", 0)}}
	assert.Nil(t, s.take())

	first := &ErrorEvent{Code: BadAccess, Sequence: 1}
	s.put(first)
	s.put(&ErrorEvent{Code: BadAlloc, Sequence: 2})
	assert.Contains(t, buf.String(), "dropping protocol error")
	assert.Contains(t, buf.String(), "Sequence:2")
	assert.NotContains(t, buf.String(), "sequence 2", "fields, not the message")

	assert.Same(t, first, s.take())
	assert.Nil(t, s.take())

	PrintLog = false
	defer func() { PrintLog = true }()
	buf.Reset()
	s.put(first)
	s.put(first)
	assert.Empty(t, buf.String())
}
