package fakex

import (
	"github.com/BurntSushi/xgb"
)

// Resources that exist before any client connects.
const (
	RootWindow        = 0x100
	DefaultColormap   = 0x20
	RootVisual        = 0x21
	DirectColorVisual = 0x22
	ARGBVisual        = 0x23

	Vendor        = "fakex"
	VendorRelease = 12013000
	MaxRequestLen = 65535
	BigRequestLen = 4194303

	ResourceIDBase = 0x04000000
	ResourceIDMask = 0x001fffff
)

type visual struct {
	id      uint32
	class   byte
	depth   byte
	entries uint16
}

var visuals = []visual{
	{RootVisual, 4, 24, 256},
	{DirectColorVisual, 5, 24, 256},
	{ARGBVisual, 4, 32, 256},
}

func lookupVisual(id uint32) (visual, bool) {
	for _, v := range visuals {
		if v.id == id {
			return v, true
		}
	}
	return visual{}, false
}

// setupReply builds a successful connection setup with one screen.
func setupReply() []byte {
	body := make([]byte, 0, 256)
	w := func(n int) []byte {
		body = append(body, make([]byte, n)...)
		return body[len(body)-n:]
	}

	b := w(32)
	xgb.Put32(b[0:], VendorRelease)
	xgb.Put32(b[4:], ResourceIDBase)
	xgb.Put32(b[8:], ResourceIDMask)
	xgb.Put32(b[12:], 256)
	xgb.Put16(b[16:], uint16(len(Vendor)))
	xgb.Put16(b[18:], MaxRequestLen)
	b[20] = 1 // screens
	b[21] = 1 // pixmap formats
	b[22] = 0 // LSBFirst image byte order
	b[23] = 0 // LeastSignificant bitmap bit order
	b[24] = 32
	b[25] = 32
	b[26] = 8
	b[27] = 255

	copy(w(xgb.Pad(len(Vendor))), Vendor)

	b = w(8)
	b[0], b[1], b[2] = 24, 32, 32

	b = w(40)
	xgb.Put32(b[0:], RootWindow)
	xgb.Put32(b[4:], DefaultColormap)
	xgb.Put32(b[8:], 0xffffff)
	xgb.Put32(b[12:], 0)
	xgb.Put32(b[16:], 0)
	xgb.Put16(b[20:], 1920)
	xgb.Put16(b[22:], 1080)
	xgb.Put16(b[24:], 508)
	xgb.Put16(b[26:], 286)
	xgb.Put16(b[28:], 1)
	xgb.Put16(b[30:], 1)
	xgb.Put32(b[32:], RootVisual)
	b[36] = 1 // WhenMapped
	b[37] = 0
	b[38] = 24
	b[39] = 2

	for _, depth := range []byte{24, 32} {
		var vs []visual
		for _, v := range visuals {
			if v.depth == depth {
				vs = append(vs, v)
			}
		}
		b = w(8)
		b[0] = depth
		xgb.Put16(b[2:], uint16(len(vs)))
		for _, v := range vs {
			b = w(24)
			xgb.Put32(b[0:], v.id)
			b[4] = v.class
			b[5] = 8
			xgb.Put16(b[6:], v.entries)
			xgb.Put32(b[8:], 0xff0000)
			xgb.Put32(b[12:], 0xff00)
			xgb.Put32(b[16:], 0xff)
		}
	}

	head := make([]byte, 8)
	head[0] = 1
	xgb.Put16(head[2:], 11)
	xgb.Put16(head[4:], 0)
	xgb.Put16(head[6:], uint16(len(body)/4))
	return append(head, body...)
}
