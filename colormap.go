package xwrap

import (
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/xerrors"
)

// ColormapID is implemented by both borrowed and owned colormaps.
type ColormapID interface {
	ColormapID() xproto.Colormap
}

// DefaultColormap is a screen's default colormap. It belongs to the
// server and is never freed.
type DefaultColormap struct {
	id xproto.Colormap
}

func (c DefaultColormap) ColormapID() xproto.Colormap { return c.id }

// ColormapAlloc selects the initial allocation of a new colormap.
type ColormapAlloc byte

const (
	AllocNone ColormapAlloc = xproto.ColormapAllocNone
	// AllocAll allocates every entry writable; the visual class must be
	// GrayScale, PseudoColor or DirectColor.
	AllocAll ColormapAlloc = xproto.ColormapAllocAll
)

// CreatedColormap is a colormap created by this client. Free releases it.
type CreatedColormap struct {
	display *Display
	id      xproto.Colormap
	visual  *Visual

	mu    sync.Mutex
	freed bool
}

// CreateColormap creates a colormap for visual on the screen's root window.
func (s *Screen) CreateColormap(visual *Visual, alloc ColormapAlloc) (*CreatedColormap, error) {
	root, ok := s.RootWindowID()
	if !ok {
		return nil, xerrors.Errorf("create colormap: screen %d: %w", s.number, ErrNoParent)
	}
	if alloc != AllocNone && alloc != AllocAll {
		return nil, xerrors.Errorf("colormap alloc %d: %w", alloc, ErrUnknownEnumValue)
	}
	d := s.display
	var id xproto.Colormap
	err := d.call(func(c *xgb.Conn) error {
		var err error
		if id, err = xproto.NewColormapId(c); err != nil {
			return err
		}
		cookie := xproto.CreateColormapChecked(c, byte(alloc), id, root, visual.ID())
		d.issued(cookie.Sequence)
		err = cookie.Check()
		d.processed(cookie.Sequence)
		return err
	})
	if err != nil {
		return nil, wrapError("create colormap", err)
	}
	return &CreatedColormap{display: d, id: id, visual: visual}, nil
}

func (c *CreatedColormap) ColormapID() xproto.Colormap { return c.id }

// Visual is the visual the colormap was created for.
func (c *CreatedColormap) Visual() *Visual { return c.visual }

// Free releases the colormap. Only the first call sends a request; later
// calls return ErrResourceReleased.
func (c *CreatedColormap) Free() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.freed {
		return ErrResourceReleased
	}
	c.freed = true
	return c.display.request(func(conn *xgb.Conn) *xgb.Cookie {
		return xproto.FreeColormap(conn, c.id).Cookie
	})
}
