package xwrap

import (
	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/xerrors"
)

// BackingStore is a screen's backing store support or a window's backing
// store hint.
type BackingStore byte

const (
	NotUseful  BackingStore = xproto.BackingStoreNotUseful
	WhenMapped BackingStore = xproto.BackingStoreWhenMapped
	Always     BackingStore = xproto.BackingStoreAlways
)

func (b BackingStore) valid() bool { return b <= Always }

// Screen is a borrowed view of one screen of a Display.
type Screen struct {
	display *Display
	info    *xproto.ScreenInfo
	number  int
}

func (s *Screen) Display() *Display { return s.display }

func (s *Screen) BlackPixel() uint32 { return s.info.BlackPixel }
func (s *Screen) WhitePixel() uint32 { return s.info.WhitePixel }

// ColormapCells is the number of entries in the default visual's colormap.
func (s *Screen) ColormapCells() int {
	if v := s.DefaultVisual(); v != nil {
		return int(v.ColormapEntries())
	}
	return 0
}

// DefaultColormap returns the borrowed default colormap. ok is false if
// the screen reports none.
func (s *Screen) DefaultColormap() (DefaultColormap, bool) {
	if s.info.DefaultColormap == 0 {
		return DefaultColormap{}, false
	}
	return DefaultColormap{s.info.DefaultColormap}, true
}

func (s *Screen) DefaultDepth() byte { return s.info.RootDepth }

// DefaultVisual returns the root window's visual, or nil if it is not
// listed among the screen's depths.
func (s *Screen) DefaultVisual() *Visual {
	for _, depth := range s.info.AllowedDepths {
		for _, v := range depth.Visuals {
			if v.VisualId == s.info.RootVisual {
				return newVisual(v, depth.Depth)
			}
		}
	}
	return nil
}

// Visuals lists every visual of the screen.
func (s *Screen) Visuals() []*Visual {
	var vs []*Visual
	for _, depth := range s.info.AllowedDepths {
		for _, v := range depth.Visuals {
			vs = append(vs, newVisual(v, depth.Depth))
		}
	}
	return vs
}

// DoesBackingStore reports the backing store support of the screen.
func (s *Screen) DoesBackingStore() (BackingStore, error) {
	b := BackingStore(s.info.BackingStores)
	if !b.valid() {
		return 0, xerrors.Errorf("backing store %d: %w", b, ErrUnknownEnumValue)
	}
	return b, nil
}

func (s *Screen) DoesSaveUnders() bool { return s.info.SaveUnders }

// EventMask is the event mask of the root window at connection time.
func (s *Screen) EventMask() EventMask { return EventMask(s.info.CurrentInputMasks) }

func (s *Screen) Number() int { return s.number }

func (s *Screen) WidthInPixels() uint16       { return s.info.WidthInPixels }
func (s *Screen) HeightInPixels() uint16      { return s.info.HeightInPixels }
func (s *Screen) WidthInMillimeters() uint16  { return s.info.WidthInMillimeters }
func (s *Screen) HeightInMillimeters() uint16 { return s.info.HeightInMillimeters }
func (s *Screen) MaxColormapCount() uint16    { return s.info.MaxInstalledMaps }
func (s *Screen) MinColormapCount() uint16    { return s.info.MinInstalledMaps }
func (s *Screen) Planes() byte                { return s.info.RootDepth }

// RootWindowID returns the root window. ok is false if it is zero.
func (s *Screen) RootWindowID() (xproto.Window, bool) {
	return s.info.Root, s.info.Root != 0
}

// RootWindow returns the borrowed root window.
func (s *Screen) RootWindow() (*Window, error) {
	root, ok := s.RootWindowID()
	if !ok {
		return nil, xerrors.Errorf("screen %d: %w", s.number, ErrNoParent)
	}
	return &Window{display: s.display, screen: s, id: root}, nil
}

// NewWindowBuilder prepares a top-level window using visual. A colormap
// for the visual is created now and owned by the builder, then by the
// window it builds.
func (s *Screen) NewWindowBuilder(visual *Visual) (*WindowBuilder, error) {
	root, ok := s.RootWindowID()
	if !ok {
		return nil, xerrors.Errorf("screen %d: %w", s.number, ErrNoParent)
	}
	cmap, err := s.CreateColormap(visual, AllocNone)
	if err != nil {
		return nil, err
	}
	b := newWindowBuilder(s, root, true)
	b.visual = visual
	b.colormap = cmap
	return b, nil
}

// NewDefaultWindowBuilder prepares a top-level window with the default
// visual and colormap. Nothing is allocated until Build.
func (s *Screen) NewDefaultWindowBuilder() (*WindowBuilder, error) {
	root, ok := s.RootWindowID()
	if !ok {
		return nil, xerrors.Errorf("screen %d: %w", s.number, ErrNoParent)
	}
	return newWindowBuilder(s, root, true), nil
}

// SendEWMHClientMessage sends m to the root window with the event mask
// EWMH prescribes for client messages to the window manager.
func (s *Screen) SendEWMHClientMessage(m *ClientMessage) error {
	root, ok := s.RootWindowID()
	if !ok {
		return xerrors.Errorf("screen %d: %w", s.number, ErrNoParent)
	}
	return s.display.SendEvent(root, false, SubstructureNotifyMask|SubstructureRedirectMask, m)
}
