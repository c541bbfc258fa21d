package icccm

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	xicccm "github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xwrap"
	"golang.org/x/xerrors"
)

// HintsConfigurator collects WM_HINTS fields. Only fields that were set
// are flagged; Apply writes the property.
type HintsConfigurator struct {
	w     *xwrap.Window
	hints xicccm.Hints
}

// NewHintsConfigurator starts an empty WM_HINTS value for a top-level
// window.
func NewHintsConfigurator(w *xwrap.Window) (*HintsConfigurator, error) {
	if err := topLevel(w); err != nil {
		return nil, err
	}
	return &HintsConfigurator{w: w}, nil
}

// SetInput tells the window manager whether the client wants keyboard
// focus.
func (h *HintsConfigurator) SetInput(input bool) *HintsConfigurator {
	h.hints.Flags |= xicccm.HintInput
	h.hints.Input = 0
	if input {
		h.hints.Input = 1
	}
	return h
}

// SetInitialState sets the state the window should be mapped in. Only
// Normal and Iconic make sense here.
func (h *HintsConfigurator) SetInitialState(s WindowState) *HintsConfigurator {
	h.hints.Flags |= xicccm.HintState
	h.hints.InitialState = uint(s)
	return h
}

func (h *HintsConfigurator) SetIconPixmap(p xproto.Pixmap) *HintsConfigurator {
	h.hints.Flags |= xicccm.HintIconPixmap
	h.hints.IconPixmap = p
	return h
}

func (h *HintsConfigurator) SetIconWindow(win xproto.Window) *HintsConfigurator {
	h.hints.Flags |= xicccm.HintIconWindow
	h.hints.IconWindow = win
	return h
}

func (h *HintsConfigurator) SetIconPosition(x, y int) *HintsConfigurator {
	h.hints.Flags |= xicccm.HintIconPosition
	h.hints.IconX, h.hints.IconY = x, y
	return h
}

func (h *HintsConfigurator) SetIconMask(p xproto.Pixmap) *HintsConfigurator {
	h.hints.Flags |= xicccm.HintIconMask
	h.hints.IconMask = p
	return h
}

func (h *HintsConfigurator) SetWindowGroup(leader xproto.Window) *HintsConfigurator {
	h.hints.Flags |= xicccm.HintWindowGroup
	h.hints.WindowGroup = leader
	return h
}

// SetUrgency sets or clears the urgency flag.
func (h *HintsConfigurator) SetUrgency(urgent bool) *HintsConfigurator {
	if urgent {
		h.hints.Flags |= xicccm.HintUrgency
	} else {
		h.hints.Flags &^= xicccm.HintUrgency
	}
	return h
}

// Hints returns a copy of the value Apply will write.
func (h *HintsConfigurator) Hints() xicccm.Hints { return h.hints }

// Apply writes WM_HINTS.
func (h *HintsConfigurator) Apply() error {
	if h.hints.Flags&xicccm.HintState != 0 && !WindowState(h.hints.InitialState).valid() {
		return xerrors.Errorf("initial state %d: %w", h.hints.InitialState, xwrap.ErrUnknownEnumValue)
	}
	return withXU(h.w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xicccm.WmHintsSet(xu, win, &h.hints)
	})
}

// Hints reads WM_HINTS.
func Hints(w *xwrap.Window) (*xicccm.Hints, error) {
	var hints *xicccm.Hints
	err := withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		var err error
		hints, err = xicccm.WmHintsGet(xu, win)
		return err
	})
	return hints, err
}

// NormalHintsConfigurator collects WM_NORMAL_HINTS fields.
type NormalHintsConfigurator struct {
	w     *xwrap.Window
	hints xicccm.NormalHints
}

// NewNormalHintsConfigurator starts an empty WM_NORMAL_HINTS value for a
// top-level window.
func NewNormalHintsConfigurator(w *xwrap.Window) (*NormalHintsConfigurator, error) {
	if err := topLevel(w); err != nil {
		return nil, err
	}
	return &NormalHintsConfigurator{w: w}, nil
}

func (n *NormalHintsConfigurator) SetMinSize(width, height uint) *NormalHintsConfigurator {
	n.hints.Flags |= xicccm.SizeHintPMinSize
	n.hints.MinWidth, n.hints.MinHeight = width, height
	return n
}

func (n *NormalHintsConfigurator) SetMaxSize(width, height uint) *NormalHintsConfigurator {
	n.hints.Flags |= xicccm.SizeHintPMaxSize
	n.hints.MaxWidth, n.hints.MaxHeight = width, height
	return n
}

func (n *NormalHintsConfigurator) SetResizeIncrements(width, height uint) *NormalHintsConfigurator {
	n.hints.Flags |= xicccm.SizeHintPResizeInc
	n.hints.WidthInc, n.hints.HeightInc = width, height
	return n
}

// SetAspectRatios bounds width/height between minNum/minDen and
// maxNum/maxDen.
func (n *NormalHintsConfigurator) SetAspectRatios(minNum, minDen, maxNum, maxDen uint) *NormalHintsConfigurator {
	n.hints.Flags |= xicccm.SizeHintPAspect
	n.hints.MinAspectNum, n.hints.MinAspectDen = minNum, minDen
	n.hints.MaxAspectNum, n.hints.MaxAspectDen = maxNum, maxDen
	return n
}

func (n *NormalHintsConfigurator) SetBaseSize(width, height uint) *NormalHintsConfigurator {
	n.hints.Flags |= xicccm.SizeHintPBaseSize
	n.hints.BaseWidth, n.hints.BaseHeight = width, height
	return n
}

func (n *NormalHintsConfigurator) SetWindowGravity(g xwrap.Gravity) *NormalHintsConfigurator {
	n.hints.Flags |= xicccm.SizeHintPWinGravity
	n.hints.WinGravity = uint(g)
	return n
}

// NormalHints returns a copy of the value Apply will write.
func (n *NormalHintsConfigurator) NormalHints() xicccm.NormalHints { return n.hints }

// Apply writes WM_NORMAL_HINTS.
func (n *NormalHintsConfigurator) Apply() error {
	return withXU(n.w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xicccm.WmNormalHintsSet(xu, win, &n.hints)
	})
}

// NormalHints reads WM_NORMAL_HINTS.
func NormalHints(w *xwrap.Window) (*xicccm.NormalHints, error) {
	var hints *xicccm.NormalHints
	err := withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		var err error
		hints, err = xicccm.WmNormalHintsGet(xu, win)
		return err
	})
	return hints, err
}
