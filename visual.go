package xwrap

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// VisualClass is the colour model of a visual.
type VisualClass byte

const (
	StaticGray  VisualClass = xproto.VisualClassStaticGray
	GrayScale   VisualClass = xproto.VisualClassGrayScale
	StaticColor VisualClass = xproto.VisualClassStaticColor
	PseudoColor VisualClass = xproto.VisualClassPseudoColor
	TrueColor   VisualClass = xproto.VisualClassTrueColor
	DirectColor VisualClass = xproto.VisualClassDirectColor
)

func (c VisualClass) String() string {
	switch c {
	case StaticGray:
		return "StaticGray"
	case GrayScale:
		return "GrayScale"
	case StaticColor:
		return "StaticColor"
	case PseudoColor:
		return "PseudoColor"
	case TrueColor:
		return "TrueColor"
	case DirectColor:
		return "DirectColor"
	}
	return fmt.Sprintf("VisualClass(%d)", byte(c))
}

// Writable reports whether colormaps of this class can have cells
// allocated with AllocAll.
func (c VisualClass) Writable() bool {
	return c == GrayScale || c == PseudoColor || c == DirectColor
}

// Visual describes one visual supported by the server.
type Visual struct {
	info  xproto.VisualInfo
	depth byte
}

func newVisual(info xproto.VisualInfo, depth byte) *Visual {
	return &Visual{info: info, depth: depth}
}

func (v *Visual) ID() xproto.Visualid     { return v.info.VisualId }
func (v *Visual) Class() VisualClass      { return VisualClass(v.info.Class) }
func (v *Visual) Depth() byte             { return v.depth }
func (v *Visual) BitsPerRGB() byte        { return v.info.BitsPerRgbValue }
func (v *Visual) ColormapEntries() uint16 { return v.info.ColormapEntries }
func (v *Visual) RedMask() uint32         { return v.info.RedMask }
func (v *Visual) GreenMask() uint32       { return v.info.GreenMask }
func (v *Visual) BlueMask() uint32        { return v.info.BlueMask }

func (v *Visual) String() string {
	return fmt.Sprintf("visual 0x%x (%s, depth %d)", v.info.VisualId, v.Class(), v.depth)
}
