package xwrap

import (
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// Size of a window when the builder is not told otherwise.
const (
	DefaultWindowWidth  = 640
	DefaultWindowHeight = 480
)

// IconicState is the WM_STATE value of an iconified window.
const IconicState = 3

// StackMode positions a window relative to its siblings.
type StackMode byte

const (
	Above    StackMode = xproto.StackModeAbove
	Below    StackMode = xproto.StackModeBelow
	TopIf    StackMode = xproto.StackModeTopIf
	BottomIf StackMode = xproto.StackModeBottomIf
	Opposite StackMode = xproto.StackModeOpposite
)

// WindowBuilder collects the parameters of a new InputOutput window.
type WindowBuilder struct {
	screen   *Screen
	parent   xproto.Window
	topLevel bool

	x, y          int16
	width, height uint16
	border        uint16
	visual        *Visual
	colormap      *CreatedColormap
	attrs         *Attributes
	done          bool
}

func newWindowBuilder(s *Screen, parent xproto.Window, topLevel bool) *WindowBuilder {
	return &WindowBuilder{
		screen:   s,
		parent:   parent,
		topLevel: topLevel,
		width:    DefaultWindowWidth,
		height:   DefaultWindowHeight,
		attrs:    NewAttributes(),
	}
}

// SetPosition sets the position relative to the parent's origin.
func (b *WindowBuilder) SetPosition(x, y int16) *WindowBuilder {
	b.x, b.y = x, y
	return b
}

// SetSize sets the inside size. Build fails with ErrZeroSize if either is
// zero.
func (b *WindowBuilder) SetSize(width, height uint16) *WindowBuilder {
	b.width, b.height = width, height
	return b
}

func (b *WindowBuilder) SetBorderWidth(width uint16) *WindowBuilder {
	b.border = width
	return b
}

// Attributes returns the attributes the window is created with, for
// modification in place.
func (b *WindowBuilder) Attributes() *Attributes { return b.attrs }

// Visual is the visual of the window, or nil for the parent's visual.
func (b *WindowBuilder) Visual() *Visual { return b.visual }

// Cancel releases what the builder owns without creating a window.
func (b *WindowBuilder) Cancel() error {
	if b.done {
		return ErrResourceReleased
	}
	b.done = true
	if b.colormap != nil {
		return b.colormap.Free()
	}
	return nil
}

// Build creates the window. The request is checked, so a protocol error
// is returned here. The builder cannot be used again afterwards.
func (b *WindowBuilder) Build() (*Window, error) {
	if b.done {
		return nil, ErrResourceReleased
	}
	if b.parent == 0 {
		return nil, ErrNoParent
	}
	if b.width == 0 || b.height == 0 {
		return nil, ErrZeroSize
	}
	b.done = true

	var (
		depth  byte
		visual xproto.Visualid
	)
	if b.visual != nil {
		depth, visual = b.visual.Depth(), b.visual.ID()
		// A border copied from a parent of another depth is a BadMatch.
		if depth != b.screen.DefaultDepth() &&
			!b.attrs.Selected(xproto.CwBorderPixmap|xproto.CwBorderPixel) {
			b.attrs.SetBorderPixel(0)
		}
	}
	if b.colormap != nil {
		b.attrs.SetColormap(b.colormap.id)
	}
	mask, values := b.attrs.valueList()

	d := b.screen.display
	var id xproto.Window
	err := d.call(func(c *xgb.Conn) error {
		var err error
		if id, err = xproto.NewWindowId(c); err != nil {
			return err
		}
		cookie := xproto.CreateWindowChecked(c, depth, id, b.parent,
			b.x, b.y, b.width, b.height, b.border,
			xproto.WindowClassInputOutput, visual, mask, values)
		d.issued(cookie.Sequence)
		err = cookie.Check()
		d.processed(cookie.Sequence)
		return err
	})
	if err != nil {
		if b.colormap != nil {
			if ferr := b.colormap.Free(); ferr != nil {
				d.log.Printf("freeing colormap of failed window: %v", ferr)
			}
		}
		return nil, wrapError("create window", err)
	}
	return &Window{
		display:  d,
		screen:   b.screen,
		id:       id,
		owned:    true,
		topLevel: b.topLevel,
		colormap: b.colormap,
	}, nil
}

// Window is an X window. Windows made by a WindowBuilder are owned and
// destroyed with Destroy; the root window is borrowed.
type Window struct {
	display  *Display
	screen   *Screen
	id       xproto.Window
	owned    bool
	topLevel bool
	colormap *CreatedColormap

	mu        sync.Mutex
	destroyed bool
}

// ID returns the protocol value.
func (w *Window) ID() xproto.Window { return w.id }

func (w *Window) Display() *Display { return w.display }
func (w *Window) Screen() *Screen   { return w.screen }

// TopLevel reports whether the window is a child of the root window made
// by Screen.NewWindowBuilder or Screen.NewDefaultWindowBuilder.
func (w *Window) TopLevel() bool { return w.topLevel }

// Alive returns ErrResourceReleased once the window has been destroyed.
func (w *Window) Alive() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrResourceReleased
	}
	return nil
}

func (w *Window) request(f func(c *xgb.Conn) *xgb.Cookie) error {
	if err := w.Alive(); err != nil {
		return err
	}
	return w.display.request(f)
}

// Destroy destroys an owned window and frees its colormap. Subwindows are
// destroyed by the server too.
func (w *Window) Destroy() error {
	if !w.owned {
		return ErrNotOwned
	}
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return ErrResourceReleased
	}
	w.destroyed = true
	w.mu.Unlock()

	err := w.display.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.DestroyWindow(c, w.id).Cookie
	})
	if err != nil {
		return err
	}
	if w.colormap != nil {
		return w.colormap.Free()
	}
	return nil
}

func (w *Window) Map() error {
	return w.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.MapWindow(c, w.id).Cookie
	})
}

func (w *Window) Unmap() error {
	return w.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.UnmapWindow(c, w.id).Cookie
	})
}

// MapRaised raises the window to the top of the stack and maps it.
func (w *Window) MapRaised() error {
	if err := w.Raise(); err != nil {
		return err
	}
	return w.Map()
}

// SelectInput replaces the event mask of this client on the window.
func (w *Window) SelectInput(mask EventMask) error {
	return w.ChangeAttributes(NewAttributes().SetEventMask(mask))
}

// ChangeAttributes sends the selected attributes of a.
func (w *Window) ChangeAttributes(a *Attributes) error {
	mask, values := a.valueList()
	if mask == 0 {
		return w.Alive()
	}
	return w.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.ChangeWindowAttributes(c, w.id, mask, values).Cookie
	})
}

// Attributes queries the current attributes of the window.
func (w *Window) Attributes() (WindowAttributes, error) {
	if err := w.Alive(); err != nil {
		return WindowAttributes{}, err
	}
	d := w.display
	var reply *xproto.GetWindowAttributesReply
	err := d.call(func(c *xgb.Conn) error {
		cookie := xproto.GetWindowAttributes(c, w.id)
		d.issued(cookie.Sequence)
		var err error
		reply, err = cookie.Reply()
		d.processed(cookie.Sequence)
		return err
	})
	if err != nil {
		return WindowAttributes{}, wrapError("get window attributes", err)
	}
	return decodeWindowAttributes(reply, d.log), nil
}

// Geometry is the position and size of a window.
type Geometry struct {
	Root          xproto.Window
	X, Y          int16
	Width, Height uint16
	BorderWidth   uint16
	Depth         byte
}

// Geometry queries the window's position and size.
func (w *Window) Geometry() (Geometry, error) {
	if err := w.Alive(); err != nil {
		return Geometry{}, err
	}
	d := w.display
	var g Geometry
	err := d.call(func(c *xgb.Conn) error {
		cookie := xproto.GetGeometry(c, xproto.Drawable(w.id))
		d.issued(cookie.Sequence)
		reply, err := cookie.Reply()
		d.processed(cookie.Sequence)
		if err != nil {
			return err
		}
		g = Geometry{
			Root:        reply.Root,
			X:           reply.X,
			Y:           reply.Y,
			Width:       reply.Width,
			Height:      reply.Height,
			BorderWidth: reply.BorderWidth,
			Depth:       reply.Depth,
		}
		return nil
	})
	if err != nil {
		return Geometry{}, wrapError("get geometry", err)
	}
	return g, nil
}

// WindowChanges is a set of geometry and stacking changes for Reconfigure
// and ReconfigureWM.
type WindowChanges struct {
	mask          uint16
	x, y          int16
	width, height uint16
	borderWidth   uint16
	sibling       xproto.Window
	stackMode     StackMode
}

func NewWindowChanges() *WindowChanges { return &WindowChanges{} }

func (wc *WindowChanges) SetPosition(x, y int16) *WindowChanges {
	wc.x, wc.y = x, y
	wc.mask |= xproto.ConfigWindowX | xproto.ConfigWindowY
	return wc
}

// SetSize changes the inside size. Zero sizes are rejected when the
// changes are applied.
func (wc *WindowChanges) SetSize(width, height uint16) *WindowChanges {
	wc.width, wc.height = width, height
	wc.mask |= xproto.ConfigWindowWidth | xproto.ConfigWindowHeight
	return wc
}

func (wc *WindowChanges) SetBorderWidth(width uint16) *WindowChanges {
	wc.borderWidth = width
	wc.mask |= xproto.ConfigWindowBorderWidth
	return wc
}

func (wc *WindowChanges) SetStackMode(mode StackMode) *WindowChanges {
	wc.stackMode = mode
	wc.mask |= xproto.ConfigWindowStackMode
	return wc
}

// SetSibling stacks relative to sibling. A stack mode must be set too.
func (wc *WindowChanges) SetSibling(sibling xproto.Window) *WindowChanges {
	wc.sibling = sibling
	wc.mask |= xproto.ConfigWindowSibling
	return wc
}

func (wc *WindowChanges) valueList() (uint16, []uint32, error) {
	if wc.mask&xproto.ConfigWindowWidth != 0 && (wc.width == 0 || wc.height == 0) {
		return 0, nil, ErrZeroSize
	}
	var values []uint32
	if wc.mask&xproto.ConfigWindowX != 0 {
		values = append(values, uint32(int32(wc.x)), uint32(int32(wc.y)))
	}
	if wc.mask&xproto.ConfigWindowWidth != 0 {
		values = append(values, uint32(wc.width), uint32(wc.height))
	}
	if wc.mask&xproto.ConfigWindowBorderWidth != 0 {
		values = append(values, uint32(wc.borderWidth))
	}
	if wc.mask&xproto.ConfigWindowSibling != 0 {
		values = append(values, uint32(wc.sibling))
	}
	if wc.mask&xproto.ConfigWindowStackMode != 0 {
		values = append(values, uint32(wc.stackMode))
	}
	return wc.mask, values, nil
}

// Reconfigure applies wc to the window.
func (w *Window) Reconfigure(wc *WindowChanges) error {
	mask, values, err := wc.valueList()
	if err != nil {
		return err
	}
	if mask == 0 {
		return w.Alive()
	}
	return w.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.ConfigureWindow(c, w.id, mask, values).Cookie
	})
}

func (w *Window) SetStackMode(mode StackMode) error {
	return w.Reconfigure(NewWindowChanges().SetStackMode(mode))
}

// SetSiblingAndStackMode stacks the window relative to sibling, which
// must share the window's parent.
func (w *Window) SetSiblingAndStackMode(sibling xproto.Window, mode StackMode) error {
	return w.Reconfigure(NewWindowChanges().SetSibling(sibling).SetStackMode(mode))
}

// Raise puts the window on top of its siblings.
func (w *Window) Raise() error { return w.SetStackMode(Above) }

// Lower puts the window below its siblings.
func (w *Window) Lower() error { return w.SetStackMode(Below) }

// CirculateSubwindowsUp raises the lowest occluded child.
func (w *Window) CirculateSubwindowsUp() error {
	return w.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.CirculateWindow(c, xproto.CirculateRaiseLowest, w.id).Cookie
	})
}

// CirculateSubwindowsDown lowers the highest occluding child.
func (w *Window) CirculateSubwindowsDown() error {
	return w.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.CirculateWindow(c, xproto.CirculateLowerHighest, w.id).Cookie
	})
}

// NewChildBuilder prepares a window inside w with w's visual.
func (w *Window) NewChildBuilder() (*WindowBuilder, error) {
	if err := w.Alive(); err != nil {
		return nil, err
	}
	return newWindowBuilder(w.screen, w.id, false), nil
}

func (w *Window) checkTopLevel() error {
	if err := w.Alive(); err != nil {
		return err
	}
	if !w.topLevel {
		return ErrNotTopLevel
	}
	return nil
}

func (w *Window) root() (xproto.Window, error) {
	root, ok := w.screen.RootWindowID()
	if !ok {
		return 0, ErrNoParent
	}
	return root, nil
}

// Iconify asks the window manager to iconify the window with a
// WM_CHANGE_STATE message.
func (w *Window) Iconify() error {
	if err := w.checkTopLevel(); err != nil {
		return err
	}
	changeState, err := w.display.Atom("WM_CHANGE_STATE")
	if err != nil {
		return err
	}
	return w.screen.SendEWMHClientMessage(NewClientMessage(w.id, changeState.ID(), IconicState))
}

// Withdraw unmaps the window and tells the window manager with a
// synthetic UnmapNotify on the root window.
func (w *Window) Withdraw() error {
	if err := w.checkTopLevel(); err != nil {
		return err
	}
	root, err := w.root()
	if err != nil {
		return err
	}
	if err := w.Unmap(); err != nil {
		return err
	}
	ev := xproto.UnmapNotifyEvent{Event: root, Window: w.id}
	return w.display.SendEvent(root, false, SubstructureNotifyMask|SubstructureRedirectMask, RawEvent{ev})
}

// ReconfigureWM applies wc to a top-level window. If the server refuses a
// restack with BadMatch, because the sibling is not a real sibling once
// the window manager reparented the window, the request is forwarded to
// the window manager as a synthetic ConfigureRequest.
func (w *Window) ReconfigureWM(wc *WindowChanges) error {
	if err := w.checkTopLevel(); err != nil {
		return err
	}
	if wc.mask&xproto.ConfigWindowStackMode == 0 {
		return w.Reconfigure(wc)
	}
	mask, values, err := wc.valueList()
	if err != nil {
		return err
	}
	attrs, err := w.Attributes()
	if err != nil {
		return err
	}
	if attrs.OverrideRedirect {
		return ErrOverrideRedirect
	}
	root, err := w.root()
	if err != nil {
		return err
	}

	d := w.display
	err = d.call(func(c *xgb.Conn) error {
		cookie := xproto.ConfigureWindowChecked(c, w.id, mask, values)
		d.issued(cookie.Sequence)
		err := cookie.Check()
		d.processed(cookie.Sequence)
		return err
	})
	if err == nil {
		return nil
	}
	if ev, ok := newErrorEvent(err); !ok || ev.Code != BadMatch {
		return wrapError("configure window", err)
	}

	ev := xproto.ConfigureRequestEvent{
		StackMode:   byte(wc.stackMode),
		Parent:      root,
		Window:      w.id,
		Sibling:     wc.sibling,
		X:           wc.x,
		Y:           wc.y,
		Width:       wc.width,
		Height:      wc.height,
		BorderWidth: wc.borderWidth,
		ValueMask:   mask,
	}
	return d.SendEvent(root, false, SubstructureNotifyMask|SubstructureRedirectMask, RawEvent{ev})
}

// SetName sets WM_NAME.
func (w *Window) SetName(name Text) error {
	return w.setText("WM_NAME", name)
}

// SetIconName sets WM_ICON_NAME.
func (w *Window) SetIconName(name Text) error {
	return w.setText("WM_ICON_NAME", name)
}

func (w *Window) setText(prop string, t Text) error {
	atom, err := w.display.Atom(prop)
	if err != nil {
		return err
	}
	return w.SetTextProperty(atom, t)
}
