package xwrap

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// BackgroundPixmap is a pixmap id or one of BackgroundNone and
// BackgroundParentRelative.
type BackgroundPixmap xproto.Pixmap

const (
	BackgroundNone           BackgroundPixmap = xproto.BackPixmapNone
	BackgroundParentRelative BackgroundPixmap = xproto.BackPixmapParentRelative
)

// BorderPixmap is a pixmap id or BorderCopyFromParent.
type BorderPixmap xproto.Pixmap

const BorderCopyFromParent BorderPixmap = 0

// Gravity is used for both the bit gravity and the window gravity
// attribute. Value 0 means ForgetGravity for the former and UnmapGravity
// for the latter.
type Gravity byte

const (
	ForgetGravity    Gravity = xproto.GravityBitForget
	UnmapGravity     Gravity = xproto.GravityWinUnmap
	NorthWestGravity Gravity = xproto.GravityNorthWest
	NorthGravity     Gravity = xproto.GravityNorth
	NorthEastGravity Gravity = xproto.GravityNorthEast
	WestGravity      Gravity = xproto.GravityWest
	CenterGravity    Gravity = xproto.GravityCenter
	EastGravity      Gravity = xproto.GravityEast
	SouthWestGravity Gravity = xproto.GravitySouthWest
	SouthGravity     Gravity = xproto.GravitySouth
	SouthEastGravity Gravity = xproto.GravitySouthEast
	StaticGravity    Gravity = xproto.GravityStatic
)

func (g Gravity) valid() bool { return g <= StaticGravity }

// CopyFromParentColormap makes a new window share its parent's colormap.
const CopyFromParentColormap xproto.Colormap = 0

// CursorNone leaves the cursor to the parent window.
const CursorNone xproto.Cursor = xproto.CursorNone

// MapState is the map state reported by Window.Attributes.
type MapState byte

const (
	Unmapped   MapState = xproto.MapStateUnmapped
	Unviewable MapState = xproto.MapStateUnviewable
	Viewable   MapState = xproto.MapStateViewable
)

func (m MapState) String() string {
	switch m {
	case Unmapped:
		return "Unmapped"
	case Unviewable:
		return "Unviewable"
	case Viewable:
		return "Viewable"
	}
	return fmt.Sprintf("MapState(%d)", byte(m))
}

// attribute indexes follow the value-mask bit order.
const (
	attrBackPixmap = iota
	attrBackPixel
	attrBorderPixmap
	attrBorderPixel
	attrBitGravity
	attrWinGravity
	attrBackingStore
	attrBackingPlanes
	attrBackingPixel
	attrOverrideRedirect
	attrSaveUnder
	attrEventMask
	attrDontPropagate
	attrColormap
	attrCursor
	attrCount
)

// Attributes holds window attributes for creation or ChangeAttributes.
// Getters return the Xlib default until a setter selects the attribute,
// and only selected attributes are sent.
type Attributes struct {
	mask   uint32
	values [attrCount]uint32
}

// NewAttributes returns attributes with the Xlib defaults and nothing
// selected.
func NewAttributes() *Attributes {
	a := &Attributes{}
	a.values[attrBackPixmap] = uint32(BackgroundNone)
	a.values[attrBorderPixmap] = uint32(BorderCopyFromParent)
	a.values[attrBitGravity] = uint32(ForgetGravity)
	a.values[attrWinGravity] = uint32(NorthWestGravity)
	a.values[attrBackingStore] = uint32(NotUseful)
	a.values[attrBackingPlanes] = 0xffffffff
	a.values[attrColormap] = uint32(CopyFromParentColormap)
	a.values[attrCursor] = uint32(CursorNone)
	return a
}

func (a *Attributes) set(i int, v uint32) *Attributes {
	a.values[i] = v
	a.mask |= 1 << uint(i)
	return a
}

// Selected reports whether the attribute with value-mask bit cw, such as
// xproto.CwEventMask, will be sent.
func (a *Attributes) Selected(cw uint32) bool { return a.mask&cw != 0 }

// valueList returns the value mask and values in protocol order.
func (a *Attributes) valueList() (uint32, []uint32) {
	if a == nil {
		return 0, nil
	}
	var vals []uint32
	for i := 0; i < attrCount; i++ {
		if a.mask&(1<<uint(i)) != 0 {
			vals = append(vals, a.values[i])
		}
	}
	return a.mask, vals
}

func (a *Attributes) SetBackgroundPixmap(p BackgroundPixmap) *Attributes {
	return a.set(attrBackPixmap, uint32(p))
}

func (a *Attributes) SetBackgroundPixel(pixel uint32) *Attributes {
	return a.set(attrBackPixel, pixel)
}

func (a *Attributes) SetBorderPixmap(p BorderPixmap) *Attributes {
	return a.set(attrBorderPixmap, uint32(p))
}

func (a *Attributes) SetBorderPixel(pixel uint32) *Attributes {
	return a.set(attrBorderPixel, pixel)
}

func (a *Attributes) SetBitGravity(g Gravity) *Attributes {
	return a.set(attrBitGravity, uint32(g))
}

func (a *Attributes) SetWindowGravity(g Gravity) *Attributes {
	return a.set(attrWinGravity, uint32(g))
}

func (a *Attributes) SetBackingStore(b BackingStore) *Attributes {
	return a.set(attrBackingStore, uint32(b))
}

func (a *Attributes) SetBackingPlanes(planes uint32) *Attributes {
	return a.set(attrBackingPlanes, planes)
}

func (a *Attributes) SetBackingPixel(pixel uint32) *Attributes {
	return a.set(attrBackingPixel, pixel)
}

func (a *Attributes) SetOverrideRedirect(on bool) *Attributes {
	return a.set(attrOverrideRedirect, boolValue(on))
}

func (a *Attributes) SetSaveUnder(on bool) *Attributes {
	return a.set(attrSaveUnder, boolValue(on))
}

func (a *Attributes) SetEventMask(m EventMask) *Attributes {
	return a.set(attrEventMask, uint32(m))
}

func (a *Attributes) SetDoNotPropagate(m DoNotPropagateMask) *Attributes {
	return a.set(attrDontPropagate, uint32(m))
}

// SetColormap selects a colormap, or CopyFromParentColormap.
func (a *Attributes) SetColormap(c xproto.Colormap) *Attributes {
	return a.set(attrColormap, uint32(c))
}

func (a *Attributes) SetCursor(c xproto.Cursor) *Attributes {
	return a.set(attrCursor, uint32(c))
}

func (a *Attributes) BackgroundPixmap() BackgroundPixmap {
	return BackgroundPixmap(a.values[attrBackPixmap])
}
func (a *Attributes) BackgroundPixel() uint32    { return a.values[attrBackPixel] }
func (a *Attributes) BorderPixmap() BorderPixmap { return BorderPixmap(a.values[attrBorderPixmap]) }
func (a *Attributes) BorderPixel() uint32        { return a.values[attrBorderPixel] }
func (a *Attributes) BitGravity() Gravity        { return Gravity(a.values[attrBitGravity]) }
func (a *Attributes) WindowGravity() Gravity     { return Gravity(a.values[attrWinGravity]) }
func (a *Attributes) BackingStore() BackingStore { return BackingStore(a.values[attrBackingStore]) }
func (a *Attributes) BackingPlanes() uint32      { return a.values[attrBackingPlanes] }
func (a *Attributes) BackingPixel() uint32       { return a.values[attrBackingPixel] }
func (a *Attributes) OverrideRedirect() bool     { return a.values[attrOverrideRedirect] != 0 }
func (a *Attributes) SaveUnder() bool            { return a.values[attrSaveUnder] != 0 }
func (a *Attributes) EventMask() EventMask       { return EventMask(a.values[attrEventMask]) }
func (a *Attributes) Colormap() xproto.Colormap  { return xproto.Colormap(a.values[attrColormap]) }
func (a *Attributes) Cursor() xproto.Cursor      { return xproto.Cursor(a.values[attrCursor]) }
func (a *Attributes) DoNotPropagate() DoNotPropagateMask {
	return DoNotPropagateMask(a.values[attrDontPropagate])
}

func boolValue(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// WindowAttributes is the decoded reply of GetWindowAttributes.
type WindowAttributes struct {
	Visual           xproto.Visualid
	Class            uint16
	BitGravity       Gravity
	WindowGravity    Gravity
	BackingStore     BackingStore
	BackingPlanes    uint32
	BackingPixel     uint32
	SaveUnder        bool
	MapInstalled     bool
	MapState         MapState
	OverrideRedirect bool
	Colormap         xproto.Colormap
	AllEventMasks    EventMask
	YourEventMask    EventMask
	DoNotPropagate   DoNotPropagateMask
}

// decodeWindowAttributes converts a reply. Unknown enum values are logged
// and replaced by the default; unknown mask bits are logged and dropped.
func decodeWindowAttributes(r *xproto.GetWindowAttributesReply, lg logger) WindowAttributes {
	a := WindowAttributes{
		Visual:           r.Visual,
		Class:            r.Class,
		BitGravity:       Gravity(r.BitGravity),
		WindowGravity:    Gravity(r.WinGravity),
		BackingStore:     BackingStore(r.BackingStore),
		BackingPlanes:    r.BackingPlanes,
		BackingPixel:     r.BackingPixel,
		SaveUnder:        r.SaveUnder,
		MapInstalled:     r.MapIsInstalled,
		MapState:         MapState(r.MapState),
		OverrideRedirect: r.OverrideRedirect,
		Colormap:         r.Colormap,
		AllEventMasks:    EventMask(r.AllEventMasks),
		YourEventMask:    EventMask(r.YourEventMask),
		DoNotPropagate:   DoNotPropagateMask(r.DoNotPropagateMask),
	}
	if !a.BitGravity.valid() {
		lg.Printf("warning: unknown bit gravity %d, using ForgetGravity", a.BitGravity)
		a.BitGravity = ForgetGravity
	}
	if !a.WindowGravity.valid() {
		lg.Printf("warning: unknown window gravity %d, using NorthWestGravity", a.WindowGravity)
		a.WindowGravity = NorthWestGravity
	}
	if !a.BackingStore.valid() {
		lg.Printf("warning: unknown backing store %d, using NotUseful", a.BackingStore)
		a.BackingStore = NotUseful
	}
	if a.MapState > Viewable {
		lg.Printf("warning: unknown map state %d, using Unmapped", a.MapState)
		a.MapState = Unmapped
	}
	for _, m := range []*EventMask{&a.AllEventMasks, &a.YourEventMask} {
		if *m&^allEventMasks != 0 {
			lg.Printf("warning: unknown bits in event mask %#b", uint32(*m))
			*m &= allEventMasks
		}
	}
	if a.DoNotPropagate&^allDoNotPropagate != 0 {
		lg.Printf("warning: unknown bits in do-not-propagate mask %#b", uint32(a.DoNotPropagate))
		a.DoNotPropagate &= allDoNotPropagate
	}
	return a
}
