package xwrap

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/xerrors"
)

// EventKind is the core protocol event code.
type EventKind uint8

const (
	EventUnknown          EventKind = 0
	EventKeyPress         EventKind = xproto.KeyPress
	EventKeyRelease       EventKind = xproto.KeyRelease
	EventButtonPress      EventKind = xproto.ButtonPress
	EventButtonRelease    EventKind = xproto.ButtonRelease
	EventMotionNotify     EventKind = xproto.MotionNotify
	EventEnterNotify      EventKind = xproto.EnterNotify
	EventLeaveNotify      EventKind = xproto.LeaveNotify
	EventFocusIn          EventKind = xproto.FocusIn
	EventFocusOut         EventKind = xproto.FocusOut
	EventKeymapNotify     EventKind = xproto.KeymapNotify
	EventExpose           EventKind = xproto.Expose
	EventGraphicsExposure EventKind = xproto.GraphicsExposure
	EventNoExposure       EventKind = xproto.NoExposure
	EventVisibilityNotify EventKind = xproto.VisibilityNotify
	EventCreateNotify     EventKind = xproto.CreateNotify
	EventDestroyNotify    EventKind = xproto.DestroyNotify
	EventUnmapNotify      EventKind = xproto.UnmapNotify
	EventMapNotify        EventKind = xproto.MapNotify
	EventMapRequest       EventKind = xproto.MapRequest
	EventReparentNotify   EventKind = xproto.ReparentNotify
	EventConfigureNotify  EventKind = xproto.ConfigureNotify
	EventConfigureRequest EventKind = xproto.ConfigureRequest
	EventGravityNotify    EventKind = xproto.GravityNotify
	EventResizeRequest    EventKind = xproto.ResizeRequest
	EventCirculateNotify  EventKind = xproto.CirculateNotify
	EventCirculateRequest EventKind = xproto.CirculateRequest
	EventPropertyNotify   EventKind = xproto.PropertyNotify
	EventSelectionClear   EventKind = xproto.SelectionClear
	EventSelectionRequest EventKind = xproto.SelectionRequest
	EventSelectionNotify  EventKind = xproto.SelectionNotify
	EventColormapNotify   EventKind = xproto.ColormapNotify
	EventClientMessage    EventKind = xproto.ClientMessage
	EventMappingNotify    EventKind = xproto.MappingNotify
)

var eventKindNames = map[EventKind]string{
	EventKeyPress:         "KeyPress",
	EventKeyRelease:       "KeyRelease",
	EventButtonPress:      "ButtonPress",
	EventButtonRelease:    "ButtonRelease",
	EventMotionNotify:     "MotionNotify",
	EventEnterNotify:      "EnterNotify",
	EventLeaveNotify:      "LeaveNotify",
	EventFocusIn:          "FocusIn",
	EventFocusOut:         "FocusOut",
	EventKeymapNotify:     "KeymapNotify",
	EventExpose:           "Expose",
	EventGraphicsExposure: "GraphicsExposure",
	EventNoExposure:       "NoExposure",
	EventVisibilityNotify: "VisibilityNotify",
	EventCreateNotify:     "CreateNotify",
	EventDestroyNotify:    "DestroyNotify",
	EventUnmapNotify:      "UnmapNotify",
	EventMapNotify:        "MapNotify",
	EventMapRequest:       "MapRequest",
	EventReparentNotify:   "ReparentNotify",
	EventConfigureNotify:  "ConfigureNotify",
	EventConfigureRequest: "ConfigureRequest",
	EventGravityNotify:    "GravityNotify",
	EventResizeRequest:    "ResizeRequest",
	EventCirculateNotify:  "CirculateNotify",
	EventCirculateRequest: "CirculateRequest",
	EventPropertyNotify:   "PropertyNotify",
	EventSelectionClear:   "SelectionClear",
	EventSelectionRequest: "SelectionRequest",
	EventSelectionNotify:  "SelectionNotify",
	EventColormapNotify:   "ColormapNotify",
	EventClientMessage:    "ClientMessage",
	EventMappingNotify:    "MappingNotify",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UnknownEvent(%d)", uint8(k))
}

// Event is one event read from the server. X holds the decoded xproto
// value, for example xproto.ConfigureNotifyEvent.
type Event struct {
	Kind EventKind
	X    xgb.Event
}

func newEvent(ev xgb.Event) Event {
	return Event{Kind: kindOf(ev), X: ev}
}

func kindOf(ev xgb.Event) EventKind {
	switch ev.(type) {
	case xproto.KeyPressEvent:
		return EventKeyPress
	case xproto.KeyReleaseEvent:
		return EventKeyRelease
	case xproto.ButtonPressEvent:
		return EventButtonPress
	case xproto.ButtonReleaseEvent:
		return EventButtonRelease
	case xproto.MotionNotifyEvent:
		return EventMotionNotify
	case xproto.EnterNotifyEvent:
		return EventEnterNotify
	case xproto.LeaveNotifyEvent:
		return EventLeaveNotify
	case xproto.FocusInEvent:
		return EventFocusIn
	case xproto.FocusOutEvent:
		return EventFocusOut
	case xproto.KeymapNotifyEvent:
		return EventKeymapNotify
	case xproto.ExposeEvent:
		return EventExpose
	case xproto.GraphicsExposureEvent:
		return EventGraphicsExposure
	case xproto.NoExposureEvent:
		return EventNoExposure
	case xproto.VisibilityNotifyEvent:
		return EventVisibilityNotify
	case xproto.CreateNotifyEvent:
		return EventCreateNotify
	case xproto.DestroyNotifyEvent:
		return EventDestroyNotify
	case xproto.UnmapNotifyEvent:
		return EventUnmapNotify
	case xproto.MapNotifyEvent:
		return EventMapNotify
	case xproto.MapRequestEvent:
		return EventMapRequest
	case xproto.ReparentNotifyEvent:
		return EventReparentNotify
	case xproto.ConfigureNotifyEvent:
		return EventConfigureNotify
	case xproto.ConfigureRequestEvent:
		return EventConfigureRequest
	case xproto.GravityNotifyEvent:
		return EventGravityNotify
	case xproto.ResizeRequestEvent:
		return EventResizeRequest
	case xproto.CirculateNotifyEvent:
		return EventCirculateNotify
	case xproto.CirculateRequestEvent:
		return EventCirculateRequest
	case xproto.PropertyNotifyEvent:
		return EventPropertyNotify
	case xproto.SelectionClearEvent:
		return EventSelectionClear
	case xproto.SelectionRequestEvent:
		return EventSelectionRequest
	case xproto.SelectionNotifyEvent:
		return EventSelectionNotify
	case xproto.ColormapNotifyEvent:
		return EventColormapNotify
	case xproto.ClientMessageEvent:
		return EventClientMessage
	case xproto.MappingNotifyEvent:
		return EventMappingNotify
	}
	return EventUnknown
}

// sequence returns the sequence number carried by the event. KeymapNotify
// and extension events carry none.
func (e Event) sequence() (uint16, bool) {
	switch ev := e.X.(type) {
	case xproto.KeyPressEvent:
		return ev.Sequence, true
	case xproto.KeyReleaseEvent:
		return ev.Sequence, true
	case xproto.ButtonPressEvent:
		return ev.Sequence, true
	case xproto.ButtonReleaseEvent:
		return ev.Sequence, true
	case xproto.MotionNotifyEvent:
		return ev.Sequence, true
	case xproto.EnterNotifyEvent:
		return ev.Sequence, true
	case xproto.LeaveNotifyEvent:
		return ev.Sequence, true
	case xproto.FocusInEvent:
		return ev.Sequence, true
	case xproto.FocusOutEvent:
		return ev.Sequence, true
	case xproto.ExposeEvent:
		return ev.Sequence, true
	case xproto.GraphicsExposureEvent:
		return ev.Sequence, true
	case xproto.NoExposureEvent:
		return ev.Sequence, true
	case xproto.VisibilityNotifyEvent:
		return ev.Sequence, true
	case xproto.CreateNotifyEvent:
		return ev.Sequence, true
	case xproto.DestroyNotifyEvent:
		return ev.Sequence, true
	case xproto.UnmapNotifyEvent:
		return ev.Sequence, true
	case xproto.MapNotifyEvent:
		return ev.Sequence, true
	case xproto.MapRequestEvent:
		return ev.Sequence, true
	case xproto.ReparentNotifyEvent:
		return ev.Sequence, true
	case xproto.ConfigureNotifyEvent:
		return ev.Sequence, true
	case xproto.ConfigureRequestEvent:
		return ev.Sequence, true
	case xproto.GravityNotifyEvent:
		return ev.Sequence, true
	case xproto.ResizeRequestEvent:
		return ev.Sequence, true
	case xproto.CirculateNotifyEvent:
		return ev.Sequence, true
	case xproto.CirculateRequestEvent:
		return ev.Sequence, true
	case xproto.PropertyNotifyEvent:
		return ev.Sequence, true
	case xproto.SelectionClearEvent:
		return ev.Sequence, true
	case xproto.SelectionRequestEvent:
		return ev.Sequence, true
	case xproto.SelectionNotifyEvent:
		return ev.Sequence, true
	case xproto.ColormapNotifyEvent:
		return ev.Sequence, true
	case xproto.ClientMessageEvent:
		return ev.Sequence, true
	case xproto.MappingNotifyEvent:
		return ev.Sequence, true
	}
	return 0, false
}

func (e Event) String() string {
	if e.X == nil {
		return e.Kind.String()
	}
	return e.X.String()
}

// SimpleEvent is a reduced form of the common events. Kind is EventUnknown
// for events without a reduced form; Event always holds the original.
type SimpleEvent struct {
	Kind    EventKind
	X, Y    int16
	Width   uint16
	Height  uint16
	Button  xproto.Button
	Keycode xproto.Keycode
	Window  xproto.Window
	Message *xproto.ClientMessageEvent
	Event   Event
}

// Simple reduces e to a SimpleEvent.
func (e Event) Simple() SimpleEvent {
	s := SimpleEvent{Kind: e.Kind, Event: e}
	switch ev := e.X.(type) {
	case xproto.MotionNotifyEvent:
		s.X, s.Y = ev.EventX, ev.EventY
	case xproto.ButtonPressEvent:
		s.X, s.Y, s.Button = ev.EventX, ev.EventY, ev.Detail
	case xproto.ButtonReleaseEvent:
		s.X, s.Y, s.Button = ev.EventX, ev.EventY, ev.Detail
	case xproto.KeyPressEvent:
		s.Keycode = ev.Detail
	case xproto.KeyReleaseEvent:
		s.Keycode = ev.Detail
	case xproto.EnterNotifyEvent, xproto.LeaveNotifyEvent,
		xproto.FocusInEvent, xproto.FocusOutEvent:
	case xproto.DestroyNotifyEvent:
		s.Window = ev.Window
	case xproto.MapNotifyEvent:
		s.Window = ev.Window
	case xproto.UnmapNotifyEvent:
		s.Window = ev.Window
	case xproto.ConfigureNotifyEvent:
		s.Window = ev.Window
		s.X, s.Y, s.Width, s.Height = ev.X, ev.Y, ev.Width, ev.Height
	case xproto.ClientMessageEvent:
		s.Window = ev.Window
		s.Message = &ev
	default:
		s.Kind = EventUnknown
	}
	return s
}

// EventMask selects events with SelectInput and SendEvent.
type EventMask uint32

const (
	NoEventMask              EventMask = xproto.EventMaskNoEvent
	KeyPressMask             EventMask = xproto.EventMaskKeyPress
	KeyReleaseMask           EventMask = xproto.EventMaskKeyRelease
	ButtonPressMask          EventMask = xproto.EventMaskButtonPress
	ButtonReleaseMask        EventMask = xproto.EventMaskButtonRelease
	EnterWindowMask          EventMask = xproto.EventMaskEnterWindow
	LeaveWindowMask          EventMask = xproto.EventMaskLeaveWindow
	PointerMotionMask        EventMask = xproto.EventMaskPointerMotion
	PointerMotionHintMask    EventMask = xproto.EventMaskPointerMotionHint
	Button1MotionMask        EventMask = xproto.EventMaskButton1Motion
	Button2MotionMask        EventMask = xproto.EventMaskButton2Motion
	Button3MotionMask        EventMask = xproto.EventMaskButton3Motion
	Button4MotionMask        EventMask = xproto.EventMaskButton4Motion
	Button5MotionMask        EventMask = xproto.EventMaskButton5Motion
	ButtonMotionMask         EventMask = xproto.EventMaskButtonMotion
	KeymapStateMask          EventMask = xproto.EventMaskKeymapState
	ExposureMask             EventMask = xproto.EventMaskExposure
	VisibilityChangeMask     EventMask = xproto.EventMaskVisibilityChange
	StructureNotifyMask      EventMask = xproto.EventMaskStructureNotify
	ResizeRedirectMask       EventMask = xproto.EventMaskResizeRedirect
	SubstructureNotifyMask   EventMask = xproto.EventMaskSubstructureNotify
	SubstructureRedirectMask EventMask = xproto.EventMaskSubstructureRedirect
	FocusChangeMask          EventMask = xproto.EventMaskFocusChange
	PropertyChangeMask       EventMask = xproto.EventMaskPropertyChange
	ColormapChangeMask       EventMask = xproto.EventMaskColorMapChange
	OwnerGrabButtonMask      EventMask = xproto.EventMaskOwnerGrabButton

	allEventMasks EventMask = 1<<25 - 1
)

// DoNotPropagateMask is the subset of event masks accepted by the
// do-not-propagate window attribute.
type DoNotPropagateMask uint32

const (
	NoPropagateKeyPress      = DoNotPropagateMask(KeyPressMask)
	NoPropagateKeyRelease    = DoNotPropagateMask(KeyReleaseMask)
	NoPropagateButtonPress   = DoNotPropagateMask(ButtonPressMask)
	NoPropagateButtonRelease = DoNotPropagateMask(ButtonReleaseMask)
	NoPropagatePointerMotion = DoNotPropagateMask(PointerMotionMask)
	NoPropagateButton1Motion = DoNotPropagateMask(Button1MotionMask)
	NoPropagateButton2Motion = DoNotPropagateMask(Button2MotionMask)
	NoPropagateButton3Motion = DoNotPropagateMask(Button3MotionMask)
	NoPropagateButton4Motion = DoNotPropagateMask(Button4MotionMask)
	NoPropagateButton5Motion = DoNotPropagateMask(Button5MotionMask)
	NoPropagateButtonMotion  = DoNotPropagateMask(ButtonMotionMask)

	allDoNotPropagate = NoPropagateKeyPress | NoPropagateKeyRelease |
		NoPropagateButtonPress | NoPropagateButtonRelease |
		NoPropagatePointerMotion | NoPropagateButton1Motion |
		NoPropagateButton2Motion | NoPropagateButton3Motion |
		NoPropagateButton4Motion | NoPropagateButton5Motion |
		NoPropagateButtonMotion
)

// EventCreator produces the 32 byte wire form of an event to send.
type EventCreator interface {
	EventBytes() ([]byte, error)
}

// ClientMessage builds a ClientMessage event. The zero value has format 32
// and all data zeroed.
type ClientMessage struct {
	Window xproto.Window
	Type   xproto.Atom
	Format byte
	Data8  [20]byte
	Data16 [10]uint16
	Data32 [5]uint32
}

// NewClientMessage returns a format 32 client message for window.
func NewClientMessage(window xproto.Window, typ xproto.Atom, data ...uint32) *ClientMessage {
	m := &ClientMessage{Window: window, Type: typ, Format: 32}
	copy(m.Data32[:], data)
	return m
}

func (m *ClientMessage) event() (xproto.ClientMessageEvent, error) {
	ev := xproto.ClientMessageEvent{
		Format: m.Format,
		Window: m.Window,
		Type:   m.Type,
	}
	switch m.Format {
	case 0, 32:
		ev.Format = 32
		ev.Data = xproto.ClientMessageDataUnionData32New(m.Data32[:])
	case 16:
		ev.Data = xproto.ClientMessageDataUnionData16New(m.Data16[:])
	case 8:
		ev.Data = xproto.ClientMessageDataUnionData8New(m.Data8[:])
	default:
		return ev, xerrors.Errorf("client message format %d: %w", m.Format, ErrUnknownEnumValue)
	}
	return ev, nil
}

// Event returns the message as an xproto event.
func (m *ClientMessage) Event() (xproto.ClientMessageEvent, error) { return m.event() }

func (m *ClientMessage) EventBytes() ([]byte, error) {
	ev, err := m.event()
	if err != nil {
		return nil, err
	}
	return ev.Bytes(), nil
}

// RawEvent sends an already encoded xproto event such as
// xproto.UnmapNotifyEvent.
type RawEvent struct {
	xgb.Event
}

func (r RawEvent) EventBytes() ([]byte, error) {
	if r.Event == nil {
		return nil, ErrSendEvent
	}
	b := r.Event.Bytes()
	if len(b) != 32 {
		return nil, xerrors.Errorf("event is %d bytes: %w", len(b), ErrSendEvent)
	}
	return b, nil
}
