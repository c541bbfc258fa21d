// Package fakex is an in-memory X server for tests. It speaks enough of
// the core protocol for window, property, atom, colormap and event
// round trips over a single client connection.
package fakex

import (
	"sort"
	"sync"

	"github.com/BurntSushi/xgb"
)

// Core request opcodes understood by the server.
const (
	opCreateWindow           = 1
	opChangeWindowAttributes = 2
	opGetWindowAttributes    = 3
	opDestroyWindow          = 4
	opMapWindow              = 8
	opUnmapWindow            = 10
	opConfigureWindow        = 12
	opCirculateWindow        = 13
	opGetGeometry            = 14
	opInternAtom             = 16
	opGetAtomName            = 17
	opChangeProperty         = 18
	opDeleteProperty         = 19
	opGetProperty            = 20
	opListProperties         = 21
	opSendEvent              = 25
	opGetInputFocus          = 43
	opCreateGC               = 55
	opCreateColormap         = 78
	opFreeColormap           = 79
	opQueryExtension         = 98
	opNoOperation            = 127

	bigRequestsOpcode = 133
)

// Protocol error codes.
const (
	BadRequest        = 1
	BadValue          = 2
	BadWindow         = 3
	BadPixmap         = 4
	BadAtom           = 5
	BadCursor         = 6
	BadFont           = 7
	BadMatch          = 8
	BadDrawable       = 9
	BadAccess         = 10
	BadAlloc          = 11
	BadColormap       = 12
	BadGContext       = 13
	BadIDChoice       = 14
	BadName           = 15
	BadLength         = 16
	BadImplementation = 17
)

// Event masks the server acts on.
const (
	structureNotifyMask    = 1 << 17
	substructureNotifyMask = 1 << 19
	propertyChangeMask     = 1 << 22
)

// Window attribute value-mask bits.
const (
	cwBackPixmap       = 1 << 0
	cwBackPixel        = 1 << 1
	cwBorderPixmap     = 1 << 2
	cwBorderPixel      = 1 << 3
	cwBitGravity       = 1 << 4
	cwWinGravity       = 1 << 5
	cwBackingStore     = 1 << 6
	cwBackingPlanes    = 1 << 7
	cwBackingPixel     = 1 << 8
	cwOverrideRedirect = 1 << 9
	cwSaveUnder        = 1 << 10
	cwEventMask        = 1 << 11
	cwDontPropagate    = 1 << 12
	cwColormap         = 1 << 13
	cwCursor           = 1 << 14
)

// Window is a snapshot of a server-side window.
type Window struct {
	ID, Parent       uint32
	X, Y             int16
	Width, Height    uint16
	BorderWidth      uint16
	Depth            byte
	Class            uint16
	Visual           uint32
	Mapped           bool
	OverrideRedirect bool
	EventMask        uint32
	Attributes       map[uint32]uint32
	Children         []uint32 // bottom to top
	properties       map[uint32]Property
}

// Property is a snapshot of a window property.
type Property struct {
	Type   uint32
	Format byte
	Data   []byte
}

// Colormap is a snapshot of a server-side colormap.
type Colormap struct {
	ID     uint32
	Window uint32
	Visual uint32
	Alloc  byte
}

// SentEvent records one SendEvent request.
type SentEvent struct {
	Propagate   bool
	Destination uint32
	Mask        uint32
	Event       []byte
	Delivered   bool
}

// Option configures a Server.
type Option func(*Server)

// WithBigRequests advertises the BIG-REQUESTS extension.
func WithBigRequests() Option {
	return func(s *Server) { s.extensions["BIG-REQUESTS"] = bigRequestsOpcode }
}

// Server is a fake X server and the client end of its connection.
type Server struct {
	*pipe

	mu         sync.Mutex
	pending    []byte
	setupDone  bool
	seq        uint16
	atoms      *atomTable
	windows    map[uint32]*Window
	colormaps  map[uint32]*Colormap
	sent       []SentEvent
	requests   []byte
	failures   map[byte]byte
	extensions map[string]byte
}

// New starts a server with a single screen. Close releases it.
func New(opts ...Option) *Server {
	s := &Server{
		atoms:      newAtomTable(),
		windows:    make(map[uint32]*Window),
		colormaps:  make(map[uint32]*Colormap),
		failures:   make(map[byte]byte),
		extensions: make(map[string]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.windows[RootWindow] = &Window{
		ID:         RootWindow,
		Width:      1920,
		Height:     1080,
		Depth:      24,
		Class:      1,
		Visual:     RootVisual,
		Mapped:     true,
		Attributes: map[uint32]uint32{cwColormap: DefaultColormap},
		properties: make(map[uint32]Property),
	}
	s.colormaps[DefaultColormap] = &Colormap{
		ID:     DefaultColormap,
		Window: RootWindow,
		Visual: RootVisual,
	}
	s.pipe = newPipe(":fake", s.respond)
	return s
}

// FailNext makes the next request with the given opcode fail with code.
func (s *Server) FailNext(opcode, code byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[opcode] = code
}

// Window returns a copy of the window with the given id.
func (s *Server) Window(id uint32) (Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok {
		return Window{}, false
	}
	c := *w
	c.Children = append([]uint32(nil), w.Children...)
	c.Attributes = make(map[uint32]uint32, len(w.Attributes))
	for k, v := range w.Attributes {
		c.Attributes[k] = v
	}
	c.properties = nil
	return c, true
}

// Property returns a copy of a window property looked up by atom name.
func (s *Server) Property(window uint32, name string) (Property, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[window]
	if !ok {
		return Property{}, false
	}
	id, ok := s.atoms.ids[name]
	if !ok {
		return Property{}, false
	}
	p, ok := w.properties[id]
	if !ok {
		return Property{}, false
	}
	p.Data = append([]byte(nil), p.Data...)
	return p, true
}

// Atom returns the atom for name, or 0 if it was never interned.
func (s *Server) Atom(name string) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atoms.ids[name]
}

// AtomName returns the name of an interned atom.
func (s *Server) AtomName(id uint32) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.atoms.name(id)
}

// Colormap returns a copy of the colormap with the given id.
func (s *Server) Colormap(id uint32) (Colormap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colormaps[id]
	if !ok {
		return Colormap{}, false
	}
	return *c, true
}

// SentEvents returns every SendEvent request seen so far.
func (s *Server) SentEvents() []SentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentEvent(nil), s.sent...)
}

// Requests returns the opcodes of every request seen so far.
func (s *Server) Requests() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.requests...)
}

// respond runs on the pipe goroutine for every client write.
func (s *Server) respond(b []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, b...)
	var out []byte
	if !s.setupDone {
		if len(s.pending) < 12 {
			return nil
		}
		n := 12 + xgb.Pad(int(xgb.Get16(s.pending[6:]))) +
			xgb.Pad(int(xgb.Get16(s.pending[8:])))
		if len(s.pending) < n {
			return nil
		}
		s.pending = s.pending[n:]
		s.setupDone = true
		out = append(out, setupReply()...)
	}
	for len(s.pending) >= 4 {
		size := int(xgb.Get16(s.pending[2:])) * 4
		hdr := 0
		if size == 0 {
			if len(s.pending) < 8 {
				break
			}
			size, hdr = int(xgb.Get32(s.pending[4:]))*4, 4
		}
		if size < 4 || len(s.pending) < size {
			break
		}
		req := make([]byte, size-hdr)
		copy(req, s.pending[:4])
		copy(req[4:], s.pending[4+hdr:size])
		s.pending = s.pending[size:]

		s.seq++
		s.requests = append(s.requests, req[0])
		out = append(out, s.handle(req)...)
	}
	return out
}

func (s *Server) handle(req []byte) []byte {
	if code, ok := s.failures[req[0]]; ok {
		delete(s.failures, req[0])
		return s.errorReply(code, 0, req)
	}

	switch req[0] {
	case opCreateWindow:
		return s.createWindow(req)
	case opChangeWindowAttributes:
		return s.changeWindowAttributes(req)
	case opGetWindowAttributes:
		return s.getWindowAttributes(req)
	case opDestroyWindow:
		return s.destroyWindow(req)
	case opMapWindow:
		return s.mapWindow(req)
	case opUnmapWindow:
		return s.unmapWindow(req)
	case opConfigureWindow:
		return s.configureWindow(req)
	case opCirculateWindow:
		return s.circulateWindow(req)
	case opGetGeometry:
		return s.getGeometry(req)
	case opInternAtom:
		return s.internAtom(req)
	case opGetAtomName:
		return s.getAtomName(req)
	case opChangeProperty:
		return s.changeProperty(req)
	case opDeleteProperty:
		return s.deleteProperty(req)
	case opGetProperty:
		return s.getProperty(req)
	case opListProperties:
		return s.listProperties(req)
	case opSendEvent:
		return s.sendEvent(req)
	case opGetInputFocus:
		r := s.reply(1, 0)
		xgb.Put32(r[8:], RootWindow)
		return r
	case opCreateGC, opNoOperation:
		return nil
	case opCreateColormap:
		return s.createColormap(req)
	case opFreeColormap:
		return s.freeColormap(req)
	case opQueryExtension:
		return s.queryExtension(req)
	case bigRequestsOpcode:
		if _, ok := s.extensions["BIG-REQUESTS"]; ok {
			r := s.reply(0, 0)
			xgb.Put32(r[8:], BigRequestLen)
			return r
		}
	}
	return s.errorReply(BadRequest, 0, req)
}

// reply allocates a reply carrying extra bytes of data after the
// 32 byte header.
func (s *Server) reply(data byte, extra int) []byte {
	r := make([]byte, 32+xgb.Pad(extra))
	r[0] = 1
	r[1] = data
	xgb.Put16(r[2:], s.seq)
	xgb.Put32(r[4:], uint32(xgb.Pad(extra)/4))
	return r
}

func (s *Server) errorReply(code byte, bad uint32, req []byte) []byte {
	e := make([]byte, 32)
	e[1] = code
	xgb.Put16(e[2:], s.seq)
	xgb.Put32(e[4:], bad)
	if req[0] >= 128 {
		xgb.Put16(e[8:], uint16(req[1]))
	}
	e[10] = req[0]
	return e
}

func (s *Server) event(code byte) []byte {
	e := make([]byte, 32)
	e[0] = code
	xgb.Put16(e[2:], s.seq)
	return e
}

// notify delivers a structure event to the window itself and to its parent.
// The event window lives at offset 4 for every structure event.
func (s *Server) notify(w *Window, ev []byte) []byte {
	var out []byte
	if w.EventMask&structureNotifyMask != 0 {
		e := append([]byte(nil), ev...)
		xgb.Put32(e[4:], w.ID)
		out = append(out, e...)
	}
	if p, ok := s.windows[w.Parent]; ok && p.EventMask&substructureNotifyMask != 0 {
		e := append([]byte(nil), ev...)
		xgb.Put32(e[4:], p.ID)
		out = append(out, e...)
	}
	return out
}

func (s *Server) values(mask uint32, list []byte) map[uint32]uint32 {
	vals := make(map[uint32]uint32)
	for bit := uint32(1); bit != 0 && bit <= mask; bit <<= 1 {
		if mask&bit == 0 || len(list) < 4 {
			continue
		}
		vals[bit] = xgb.Get32(list)
		list = list[4:]
	}
	return vals
}

func (s *Server) createWindow(req []byte) []byte {
	wid, parentID := xgb.Get32(req[4:]), xgb.Get32(req[8:])
	if _, ok := s.windows[wid]; ok || wid&^ResourceIDMask != ResourceIDBase {
		return s.errorReply(BadIDChoice, wid, req)
	}
	parent, ok := s.windows[parentID]
	if !ok {
		return s.errorReply(BadWindow, parentID, req)
	}
	w := &Window{
		ID:          wid,
		Parent:      parentID,
		X:           int16(xgb.Get16(req[12:])),
		Y:           int16(xgb.Get16(req[14:])),
		Width:       xgb.Get16(req[16:]),
		Height:      xgb.Get16(req[18:]),
		BorderWidth: xgb.Get16(req[20:]),
		Depth:       req[1],
		Class:       xgb.Get16(req[22:]),
		Visual:      xgb.Get32(req[24:]),
		Attributes:  s.values(xgb.Get32(req[28:]), req[32:]),
		properties:  make(map[uint32]Property),
	}
	if w.Width == 0 || w.Height == 0 {
		return s.errorReply(BadValue, 0, req)
	}
	if w.Class == 0 {
		w.Class = parent.Class
	}
	if w.Depth == 0 {
		w.Depth = parent.Depth
	}
	if w.Visual == 0 {
		w.Visual = parent.Visual
	}
	v, ok := lookupVisual(w.Visual)
	if !ok || v.depth != w.Depth {
		return s.errorReply(BadMatch, 0, req)
	}
	cmap := w.Attributes[cwColormap]
	if cmap == 0 {
		if w.Visual != parent.Visual {
			return s.errorReply(BadMatch, 0, req)
		}
		w.Attributes[cwColormap] = parent.Attributes[cwColormap]
	} else if c, ok := s.colormaps[cmap]; !ok {
		return s.errorReply(BadColormap, cmap, req)
	} else if c.Visual != w.Visual {
		return s.errorReply(BadMatch, 0, req)
	}
	w.EventMask = w.Attributes[cwEventMask]
	w.OverrideRedirect = w.Attributes[cwOverrideRedirect] != 0

	s.windows[wid] = w
	parent.Children = append(parent.Children, wid)
	return nil
}

func (s *Server) changeWindowAttributes(req []byte) []byte {
	w, ok := s.windows[xgb.Get32(req[4:])]
	if !ok {
		return s.errorReply(BadWindow, xgb.Get32(req[4:]), req)
	}
	for bit, val := range s.values(xgb.Get32(req[8:]), req[12:]) {
		w.Attributes[bit] = val
	}
	w.EventMask = w.Attributes[cwEventMask]
	w.OverrideRedirect = w.Attributes[cwOverrideRedirect] != 0
	return nil
}

func (s *Server) getWindowAttributes(req []byte) []byte {
	w, ok := s.windows[xgb.Get32(req[4:])]
	if !ok {
		return s.errorReply(BadWindow, xgb.Get32(req[4:]), req)
	}
	attr := func(bit, def uint32) uint32 {
		if v, ok := w.Attributes[bit]; ok {
			return v
		}
		return def
	}
	r := s.reply(byte(attr(cwBackingStore, 0)), 12)
	xgb.Put32(r[8:], w.Visual)
	xgb.Put16(r[12:], w.Class)
	r[14] = byte(attr(cwBitGravity, 0))
	r[15] = byte(attr(cwWinGravity, 1))
	xgb.Put32(r[16:], attr(cwBackingPlanes, 0xffffffff))
	xgb.Put32(r[20:], attr(cwBackingPixel, 0))
	r[24] = byte(attr(cwSaveUnder, 0))
	if _, ok := s.colormaps[w.Attributes[cwColormap]]; ok {
		r[25] = 1
	}
	switch {
	case !w.Mapped:
		r[26] = 0
	case s.viewable(w):
		r[26] = 2
	default:
		r[26] = 1
	}
	if w.OverrideRedirect {
		r[27] = 1
	}
	xgb.Put32(r[28:], w.Attributes[cwColormap])
	xgb.Put32(r[32:], w.EventMask)
	xgb.Put32(r[36:], w.EventMask)
	xgb.Put16(r[40:], uint16(attr(cwDontPropagate, 0)))
	return r
}

func (s *Server) viewable(w *Window) bool {
	for w != nil {
		if !w.Mapped {
			return false
		}
		w = s.windows[w.Parent]
	}
	return true
}

func (s *Server) destroyWindow(req []byte) []byte {
	id := xgb.Get32(req[4:])
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	if id == RootWindow {
		return nil
	}
	out := s.destroyTree(w)
	if p, ok := s.windows[w.Parent]; ok {
		p.Children = remove(p.Children, id)
	}
	return out
}

func (s *Server) destroyTree(w *Window) []byte {
	var out []byte
	for _, c := range w.Children {
		if child, ok := s.windows[c]; ok {
			out = append(out, s.destroyTree(child)...)
		}
	}
	ev := s.event(17)
	xgb.Put32(ev[8:], w.ID)
	out = append(out, s.notify(w, ev)...)
	delete(s.windows, w.ID)
	return out
}

func (s *Server) mapWindow(req []byte) []byte {
	id := xgb.Get32(req[4:])
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	if w.Mapped {
		return nil
	}
	w.Mapped = true
	ev := s.event(19)
	xgb.Put32(ev[8:], w.ID)
	if w.OverrideRedirect {
		ev[12] = 1
	}
	return s.notify(w, ev)
}

func (s *Server) unmapWindow(req []byte) []byte {
	id := xgb.Get32(req[4:])
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	if !w.Mapped || id == RootWindow {
		return nil
	}
	w.Mapped = false
	ev := s.event(18)
	xgb.Put32(ev[8:], w.ID)
	return s.notify(w, ev)
}

func (s *Server) configureWindow(req []byte) []byte {
	id := xgb.Get32(req[4:])
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	vals := s.values(uint32(xgb.Get16(req[8:])), req[12:])
	const (
		cfgX, cfgY, cfgWidth, cfgHeight, cfgBorder, cfgSibling, cfgStack = 1, 2, 4, 8, 16, 32, 64
	)
	if v, ok := vals[cfgWidth]; ok && v == 0 {
		return s.errorReply(BadValue, v, req)
	}
	if v, ok := vals[cfgHeight]; ok && v == 0 {
		return s.errorReply(BadValue, v, req)
	}
	parent := s.windows[w.Parent]
	sibling, hasSibling := vals[cfgSibling]
	mode, hasMode := vals[cfgStack]
	if hasSibling {
		if !hasMode || parent == nil || sibling == id || indexOf(parent.Children, sibling) < 0 {
			return s.errorReply(BadMatch, 0, req)
		}
	}

	if v, ok := vals[cfgX]; ok {
		w.X = int16(v)
	}
	if v, ok := vals[cfgY]; ok {
		w.Y = int16(v)
	}
	if v, ok := vals[cfgWidth]; ok {
		w.Width = uint16(v)
	}
	if v, ok := vals[cfgHeight]; ok {
		w.Height = uint16(v)
	}
	if v, ok := vals[cfgBorder]; ok {
		w.BorderWidth = uint16(v)
	}
	if hasMode && parent != nil {
		s.restack(parent, w, mode, sibling, hasSibling)
	}

	ev := s.event(22)
	xgb.Put32(ev[8:], w.ID)
	if parent != nil {
		if i := indexOf(parent.Children, id); i > 0 {
			xgb.Put32(ev[12:], parent.Children[i-1])
		}
	}
	xgb.Put16(ev[16:], uint16(w.X))
	xgb.Put16(ev[18:], uint16(w.Y))
	xgb.Put16(ev[20:], w.Width)
	xgb.Put16(ev[22:], w.Height)
	xgb.Put16(ev[24:], w.BorderWidth)
	if w.OverrideRedirect {
		ev[26] = 1
	}
	return s.notify(w, ev)
}

// restack applies a stack mode. TopIf and BottomIf act unconditionally
// because the server does not track occlusion.
func (s *Server) restack(parent, w *Window, mode, sibling uint32, hasSibling bool) {
	const above, below, topIf, bottomIf, opposite = 0, 1, 2, 3, 4
	kids := remove(parent.Children, w.ID)
	top := len(kids)
	switch {
	case hasSibling && mode == above:
		top = indexOf(kids, sibling) + 1
	case hasSibling && mode == below:
		top = indexOf(kids, sibling)
	case mode == below || mode == bottomIf:
		top = 0
	case mode == opposite:
		if indexOf(parent.Children, w.ID) == len(parent.Children)-1 {
			top = 0
		}
	}
	kids = append(kids, 0)
	copy(kids[top+1:], kids[top:])
	kids[top] = w.ID
	parent.Children = kids
}

func (s *Server) circulateWindow(req []byte) []byte {
	id := xgb.Get32(req[4:])
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	n := len(w.Children)
	if n < 2 {
		return nil
	}
	if req[1] == 0 {
		// RaiseLowest
		w.Children = append(w.Children[1:], w.Children[0])
	} else {
		last := w.Children[n-1]
		w.Children = append([]uint32{last}, w.Children[:n-1]...)
	}
	return nil
}

func (s *Server) getGeometry(req []byte) []byte {
	id := xgb.Get32(req[4:])
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadDrawable, id, req)
	}
	r := s.reply(w.Depth, 0)
	xgb.Put32(r[8:], RootWindow)
	xgb.Put16(r[12:], uint16(w.X))
	xgb.Put16(r[14:], uint16(w.Y))
	xgb.Put16(r[16:], w.Width)
	xgb.Put16(r[18:], w.Height)
	xgb.Put16(r[20:], w.BorderWidth)
	return r
}

func (s *Server) internAtom(req []byte) []byte {
	n := int(xgb.Get16(req[4:]))
	if 8+n > len(req) {
		return s.errorReply(BadLength, 0, req)
	}
	name := string(req[8 : 8+n])
	if name == "" {
		return s.errorReply(BadValue, 0, req)
	}
	r := s.reply(0, 0)
	xgb.Put32(r[8:], s.atoms.intern(name, req[1] != 0))
	return r
}

func (s *Server) getAtomName(req []byte) []byte {
	id := xgb.Get32(req[4:])
	name, ok := s.atoms.name(id)
	if !ok {
		return s.errorReply(BadAtom, id, req)
	}
	r := s.reply(0, len(name))
	xgb.Put16(r[8:], uint16(len(name)))
	copy(r[32:], name)
	return r
}

func (s *Server) changeProperty(req []byte) []byte {
	mode, id := req[1], xgb.Get32(req[4:])
	prop, typ := xgb.Get32(req[8:]), xgb.Get32(req[12:])
	format := req[16]
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	if _, ok := s.atoms.name(prop); !ok {
		return s.errorReply(BadAtom, prop, req)
	}
	if _, ok := s.atoms.name(typ); !ok {
		return s.errorReply(BadAtom, typ, req)
	}
	if format != 8 && format != 16 && format != 32 {
		return s.errorReply(BadValue, uint32(format), req)
	}
	if mode > 2 {
		return s.errorReply(BadValue, uint32(mode), req)
	}
	size := int(xgb.Get32(req[20:])) * int(format/8)
	if 24+size > len(req) {
		return s.errorReply(BadLength, 0, req)
	}
	data := append([]byte(nil), req[24:24+size]...)

	old, exists := w.properties[prop]
	if exists && mode != 0 && (old.Type != typ || old.Format != format) {
		return s.errorReply(BadMatch, 0, req)
	}
	switch {
	case !exists || mode == 0:
	case mode == 1:
		data = append(data, old.Data...)
	case mode == 2:
		data = append(old.Data, data...)
	}
	w.properties[prop] = Property{Type: typ, Format: format, Data: data}
	return s.propertyNotify(w, prop, 0)
}

func (s *Server) propertyNotify(w *Window, prop uint32, state byte) []byte {
	if w.EventMask&propertyChangeMask == 0 {
		return nil
	}
	ev := s.event(28)
	xgb.Put32(ev[4:], w.ID)
	xgb.Put32(ev[8:], prop)
	ev[16] = state
	return ev
}

func (s *Server) deleteProperty(req []byte) []byte {
	id, prop := xgb.Get32(req[4:]), xgb.Get32(req[8:])
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	if _, ok := s.atoms.name(prop); !ok {
		return s.errorReply(BadAtom, prop, req)
	}
	if _, ok := w.properties[prop]; !ok {
		return nil
	}
	delete(w.properties, prop)
	return s.propertyNotify(w, prop, 1)
}

func (s *Server) getProperty(req []byte) []byte {
	del, id := req[1] != 0, xgb.Get32(req[4:])
	prop, typ := xgb.Get32(req[8:]), xgb.Get32(req[12:])
	offset, length := uint64(xgb.Get32(req[16:])), uint64(xgb.Get32(req[20:]))
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	if _, ok := s.atoms.name(prop); !ok {
		return s.errorReply(BadAtom, prop, req)
	}
	p, ok := w.properties[prop]
	if !ok {
		return s.reply(0, 0)
	}
	total := uint64(len(p.Data))
	if typ != 0 && typ != p.Type {
		r := s.reply(p.Format, 0)
		xgb.Put32(r[8:], p.Type)
		xgb.Put32(r[12:], uint32(total))
		return r
	}
	start := 4 * offset
	if start > total {
		return s.errorReply(BadValue, uint32(offset), req)
	}
	n := total - start
	if 4*length < n {
		n = 4 * length
	}
	after := total - (start + n)

	r := s.reply(p.Format, int(n))
	xgb.Put32(r[8:], p.Type)
	xgb.Put32(r[12:], uint32(after))
	xgb.Put32(r[16:], uint32(n)/uint32(p.Format/8))
	copy(r[32:], p.Data[start:start+n])
	if del && after == 0 {
		delete(w.properties, prop)
		r = append(r, s.propertyNotify(w, prop, 1)...)
	}
	return r
}

func (s *Server) listProperties(req []byte) []byte {
	id := xgb.Get32(req[4:])
	w, ok := s.windows[id]
	if !ok {
		return s.errorReply(BadWindow, id, req)
	}
	atoms := make([]uint32, 0, len(w.properties))
	for a := range w.properties {
		atoms = append(atoms, a)
	}
	sort.Slice(atoms, func(i, j int) bool { return atoms[i] < atoms[j] })
	r := s.reply(0, 4*len(atoms))
	xgb.Put16(r[8:], uint16(len(atoms)))
	for i, a := range atoms {
		xgb.Put32(r[32+4*i:], a)
	}
	return r
}

func (s *Server) sendEvent(req []byte) []byte {
	dest, mask := xgb.Get32(req[4:]), xgb.Get32(req[8:])
	w, ok := s.windows[dest]
	if !ok {
		return s.errorReply(BadWindow, dest, req)
	}
	ev := append([]byte(nil), req[12:44]...)
	ev[0] |= 0x80
	if ev[0]&0x7f != 11 {
		xgb.Put16(ev[2:], s.seq)
	}
	sent := SentEvent{
		Propagate:   req[1] != 0,
		Destination: dest,
		Mask:        mask,
		Event:       ev,
		Delivered:   mask == 0 || w.EventMask&mask != 0,
	}
	s.sent = append(s.sent, sent)
	if sent.Delivered {
		return ev
	}
	return nil
}

func (s *Server) createColormap(req []byte) []byte {
	mid, wid, vid := xgb.Get32(req[4:]), xgb.Get32(req[8:]), xgb.Get32(req[12:])
	if _, ok := s.colormaps[mid]; ok || mid&^ResourceIDMask != ResourceIDBase {
		return s.errorReply(BadIDChoice, mid, req)
	}
	if _, ok := s.windows[wid]; !ok {
		return s.errorReply(BadWindow, wid, req)
	}
	v, ok := lookupVisual(vid)
	if !ok {
		return s.errorReply(BadMatch, vid, req)
	}
	if req[1] > 1 {
		return s.errorReply(BadValue, uint32(req[1]), req)
	}
	// AllocAll needs a writable visual class.
	if req[1] == 1 && v.class%2 == 0 {
		return s.errorReply(BadMatch, 0, req)
	}
	s.colormaps[mid] = &Colormap{ID: mid, Window: wid, Visual: vid, Alloc: req[1]}
	return nil
}

func (s *Server) freeColormap(req []byte) []byte {
	id := xgb.Get32(req[4:])
	if _, ok := s.colormaps[id]; !ok {
		return s.errorReply(BadColormap, id, req)
	}
	if id != DefaultColormap {
		delete(s.colormaps, id)
	}
	return nil
}

func (s *Server) queryExtension(req []byte) []byte {
	n := int(xgb.Get16(req[4:]))
	if 8+n > len(req) {
		return s.errorReply(BadLength, 0, req)
	}
	r := s.reply(0, 0)
	if op, ok := s.extensions[string(req[8:8+n])]; ok {
		r[8] = 1
		r[9] = op
	}
	return r
}

func indexOf(ids []uint32, id uint32) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func remove(ids []uint32, id uint32) []uint32 {
	res := make([]uint32, 0, len(ids))
	for _, v := range ids {
		if v != id {
			res = append(res, v)
		}
	}
	return res
}
