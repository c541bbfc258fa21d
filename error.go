package xwrap

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/davecgh/go-spew/spew"
	"golang.org/x/xerrors"
)

var (
	ErrDisplayClosed     = xerrors.New("xwrap: display is closed")
	ErrScreenOutOfRange  = xerrors.New("xwrap: screen number out of range")
	ErrVisualNotFound    = xerrors.New("xwrap: no visual with that id")
	ErrNotOwned          = xerrors.New("xwrap: resource is borrowed, not owned")
	ErrResourceReleased  = xerrors.New("xwrap: resource was already released")
	ErrNotTopLevel       = xerrors.New("xwrap: window is not a top-level window")
	ErrOverrideRedirect  = xerrors.New("xwrap: window has override-redirect set")
	ErrZeroSize          = xerrors.New("xwrap: window width and height must be non-zero")
	ErrNoParent          = xerrors.New("xwrap: parent window id is zero")
	ErrUnknownEnumValue  = xerrors.New("xwrap: unknown enum value")
	ErrAtomNotFound      = xerrors.New("xwrap: atom does not exist")
	ErrAtomNameCharacter = xerrors.New("xwrap: atom name may only contain a-z, A-Z, 0-9 and _")
	ErrAtomNameNul       = xerrors.New("xwrap: atom name contains a NUL byte")
	ErrAtomListFull      = xerrors.New("xwrap: atom list is full")
	ErrTextNul           = xerrors.New("xwrap: text contains a NUL byte")
	ErrPropertyNotExist  = xerrors.New("xwrap: property does not exist")
	ErrSendEvent         = xerrors.New("xwrap: event could not be converted for sending")
)

// ProtocolError is the error code of an X protocol error. Codes outside
// BadRequest..BadImplementation come from extensions.
type ProtocolError uint8

const (
	BadRequest ProtocolError = iota + 1
	BadValue
	BadWindow
	BadPixmap
	BadAtom
	BadCursor
	BadFont
	BadMatch
	BadDrawable
	BadAccess
	BadAlloc
	BadColormap
	BadGC
	BadIDChoice
	BadName
	BadLength
	BadImplementation
)

var protocolErrorNames = [...]string{
	BadRequest:        "BadRequest",
	BadValue:          "BadValue",
	BadWindow:         "BadWindow",
	BadPixmap:         "BadPixmap",
	BadAtom:           "BadAtom",
	BadCursor:         "BadCursor",
	BadFont:           "BadFont",
	BadMatch:          "BadMatch",
	BadDrawable:       "BadDrawable",
	BadAccess:         "BadAccess",
	BadAlloc:          "BadAlloc",
	BadColormap:       "BadColor",
	BadGC:             "BadGC",
	BadIDChoice:       "BadIDChoice",
	BadName:           "BadName",
	BadLength:         "BadLength",
	BadImplementation: "BadImplementation",
}

// Texts used by Xlib when no error database entry exists.
var protocolErrorTexts = [...]string{
	BadRequest:        "BadRequest (invalid request code or no such operation)",
	BadValue:          "BadValue (integer parameter out of range for operation)",
	BadWindow:         "BadWindow (invalid Window parameter)",
	BadPixmap:         "BadPixmap (invalid Pixmap parameter)",
	BadAtom:           "BadAtom (invalid Atom parameter)",
	BadCursor:         "BadCursor (invalid Cursor parameter)",
	BadFont:           "BadFont (invalid Font parameter)",
	BadMatch:          "BadMatch (invalid parameter attributes)",
	BadDrawable:       "BadDrawable (invalid Pixmap or Window parameter)",
	BadAccess:         "BadAccess (attempt to access private resource denied)",
	BadAlloc:          "BadAlloc (insufficient resources for operation)",
	BadColormap:       "BadColor (invalid Colormap parameter)",
	BadGC:             "BadGC (invalid GC parameter)",
	BadIDChoice:       "BadIDChoice (invalid resource ID chosen for this connection)",
	BadName:           "BadName (named color or font does not exist)",
	BadLength:         "BadLength (poly request too large or internal Xlib length error)",
	BadImplementation: "BadImplementation (server does not implement operation)",
}

// Known reports whether p is one of the core protocol error codes.
func (p ProtocolError) Known() bool {
	return p >= BadRequest && p <= BadImplementation
}

func (p ProtocolError) String() string {
	if p.Known() {
		return protocolErrorNames[p]
	}
	return fmt.Sprintf("UnknownError(%d)", uint8(p))
}

// Text is the message Xlib prints for this code.
func (p ProtocolError) Text() string {
	if p.Known() {
		return protocolErrorTexts[p]
	}
	return fmt.Sprintf("%d", uint8(p))
}

// ErrorEvent is an X protocol error reported by the server.
type ErrorEvent struct {
	Code        ProtocolError
	Sequence    uint16
	ResourceID  uint32
	MajorOpcode uint8
	MinorOpcode uint16
}

func (e *ErrorEvent) Error() string {
	return fmt.Sprintf("X protocol error %s: request %d.%d, resource 0x%x, sequence %d",
		e.Code.Text(), e.MajorOpcode, e.MinorOpcode, e.ResourceID, e.Sequence)
}

// Text is the Xlib text for the error code.
func (e *ErrorEvent) Text() string { return e.Code.Text() }

// Is matches another *ErrorEvent carrying only a code, so callers can test
// with xerrors.Is(err, &ErrorEvent{Code: BadWindow}).
func (e *ErrorEvent) Is(target error) bool {
	t, ok := target.(*ErrorEvent)
	return ok && t.Code == e.Code && t.Sequence == 0 && t.ResourceID == 0
}

// newErrorEvent converts an error returned by xgb. ok is false when err
// is not an X protocol error.
func newErrorEvent(err error) (*ErrorEvent, bool) {
	xerr, ok := err.(xgb.Error)
	if !ok {
		return nil, false
	}
	ev := &ErrorEvent{
		Sequence:   xerr.SequenceId(),
		ResourceID: xerr.BadId(),
	}

	var (
		request *xproto.RequestError
		value   *xproto.ValueError
	)
	switch e := err.(type) {
	case xproto.RequestError:
		ev.Code, request = BadRequest, &e
	case xproto.ValueError:
		ev.Code, value = BadValue, &e
	case xproto.WindowError:
		v := xproto.ValueError(e)
		ev.Code, value = BadWindow, &v
	case xproto.PixmapError:
		v := xproto.ValueError(e)
		ev.Code, value = BadPixmap, &v
	case xproto.AtomError:
		v := xproto.ValueError(e)
		ev.Code, value = BadAtom, &v
	case xproto.CursorError:
		v := xproto.ValueError(e)
		ev.Code, value = BadCursor, &v
	case xproto.FontError:
		v := xproto.ValueError(e)
		ev.Code, value = BadFont, &v
	case xproto.MatchError:
		r := xproto.RequestError(e)
		ev.Code, request = BadMatch, &r
	case xproto.DrawableError:
		v := xproto.ValueError(e)
		ev.Code, value = BadDrawable, &v
	case xproto.AccessError:
		r := xproto.RequestError(e)
		ev.Code, request = BadAccess, &r
	case xproto.AllocError:
		r := xproto.RequestError(e)
		ev.Code, request = BadAlloc, &r
	case xproto.ColormapError:
		v := xproto.ValueError(e)
		ev.Code, value = BadColormap, &v
	case xproto.GContextError:
		v := xproto.ValueError(e)
		ev.Code, value = BadGC, &v
	case xproto.IDChoiceError:
		v := xproto.ValueError(e)
		ev.Code, value = BadIDChoice, &v
	case xproto.NameError:
		r := xproto.RequestError(e)
		ev.Code, request = BadName, &r
	case xproto.LengthError:
		r := xproto.RequestError(e)
		ev.Code, request = BadLength, &r
	case xproto.ImplementationError:
		r := xproto.RequestError(e)
		ev.Code, request = BadImplementation, &r
	}
	switch {
	case request != nil:
		ev.MajorOpcode, ev.MinorOpcode = request.MajorOpcode, request.MinorOpcode
	case value != nil:
		ev.MajorOpcode, ev.MinorOpcode = value.MajorOpcode, value.MinorOpcode
	}
	return ev, true
}

// wrapError turns an xgb error into an *ErrorEvent where possible and
// annotates it with the failed operation.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if ev, ok := newErrorEvent(err); ok {
		return xerrors.Errorf("%s: %w", op, ev)
	}
	return xerrors.Errorf("%s: %w", op, err)
}

// dumpConfig prints the fields of an ErrorEvent instead of its message.
var dumpConfig = spew.ConfigState{DisableMethods: true}

// errorSlot keeps the first protocol error that nobody waited for.
// Later errors are logged and dropped until the slot is taken.
type errorSlot struct {
	mu  sync.Mutex
	err *ErrorEvent
	log logger
}

func (s *errorSlot) put(ev *ErrorEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = ev
		return
	}
	s.log.Printf("dropping protocol error, another one is pending: %s",
		dumpConfig.Sprintf("%+v", *ev))
}

func (s *errorSlot) take() *ErrorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.err
	s.err = nil
	return ev
}
