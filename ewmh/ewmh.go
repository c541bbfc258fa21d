// Package ewmh implements the parts of Extended Window Manager Hints 1.3
// a client needs: _NET_WM_STATE requests and a few window properties.
package ewmh

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	xewmh "github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xwrap"
	"golang.org/x/xerrors"
)

// Names of _NET_WM_STATE values.
const (
	StateModal            = "_NET_WM_STATE_MODAL"
	StateSticky           = "_NET_WM_STATE_STICKY"
	StateMaximizedVert    = "_NET_WM_STATE_MAXIMIZED_VERT"
	StateMaximizedHorz    = "_NET_WM_STATE_MAXIMIZED_HORZ"
	StateShaded           = "_NET_WM_STATE_SHADED"
	StateSkipTaskbar      = "_NET_WM_STATE_SKIP_TASKBAR"
	StateSkipPager        = "_NET_WM_STATE_SKIP_PAGER"
	StateHidden           = "_NET_WM_STATE_HIDDEN"
	StateFullscreen       = "_NET_WM_STATE_FULLSCREEN"
	StateAbove            = "_NET_WM_STATE_ABOVE"
	StateBelow            = "_NET_WM_STATE_BELOW"
	StateDemandsAttention = "_NET_WM_STATE_DEMANDS_ATTENTION"
)

// Action is the first datum of a _NET_WM_STATE request.
type Action int

const (
	Remove Action = xewmh.StateRemove
	Add    Action = xewmh.StateAdd
	Toggle Action = xewmh.StateToggle
)

// sourceUser marks requests as coming from a direct user action.
const sourceUser = 2

// NetWMStateHandler prepares _NET_WM_STATE client messages.
type NetWMStateHandler struct {
	netWMState xwrap.Atom
	fullscreen xwrap.Atom
}

// NewNetWMStateHandler interns the atoms the handler needs.
func NewNetWMStateHandler(d *xwrap.Display) (*NetWMStateHandler, error) {
	state, err := d.InternAtom(xwrap.MustAtomName("_NET_WM_STATE"), false)
	if err != nil {
		return nil, err
	}
	fullscreen, err := d.InternAtom(xwrap.MustAtomName(StateFullscreen), false)
	if err != nil {
		return nil, err
	}
	return &NetWMStateHandler{netWMState: state, fullscreen: fullscreen}, nil
}

func (h *NetWMStateHandler) FullscreenAtom() xwrap.Atom { return h.fullscreen }

// ToggleFullscreen returns the message that asks the window manager to
// toggle fullscreen on w. Send it with Screen.SendEWMHClientMessage.
func (h *NetWMStateHandler) ToggleFullscreen(w *xwrap.Window) (*xwrap.ClientMessage, error) {
	if !w.TopLevel() {
		return nil, xwrap.ErrNotTopLevel
	}
	if err := w.Alive(); err != nil {
		return nil, err
	}
	return xwrap.NewClientMessage(w.ID(), h.netWMState.ID(),
		uint32(Toggle), uint32(h.fullscreen), 0, sourceUser, 0), nil
}

func withXU(w *xwrap.Window, f func(xu *xgbutil.XUtil, win xproto.Window) error) error {
	if !w.TopLevel() {
		return xwrap.ErrNotTopLevel
	}
	if err := w.Alive(); err != nil {
		return err
	}
	return w.Display().CallXUtil(func(xu *xgbutil.XUtil) error {
		return f(xu, w.ID())
	})
}

// RequestState asks the window manager to change state, one of the State
// names, on w.
func RequestState(w *xwrap.Window, action Action, state string) error {
	if action < Remove || action > Toggle {
		return xerrors.Errorf("state action %d: %w", int(action), xwrap.ErrUnknownEnumValue)
	}
	return withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xewmh.WmStateReqExtra(xu, win, int(action), state, "", sourceUser)
	})
}

// State reads _NET_WM_STATE.
func State(w *xwrap.Window) ([]string, error) {
	var states []string
	err := withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		var err error
		states, err = xewmh.WmStateGet(xu, win)
		return err
	})
	return states, err
}

// SetName sets _NET_WM_NAME.
func SetName(w *xwrap.Window, name xwrap.Text) error {
	return withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xewmh.WmNameSet(xu, win, name.String())
	})
}

// Name reads _NET_WM_NAME.
func Name(w *xwrap.Window) (string, error) {
	var name string
	err := withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		var err error
		name, err = xewmh.WmNameGet(xu, win)
		return err
	})
	return name, err
}

// SetPid sets _NET_WM_PID.
func SetPid(w *xwrap.Window, pid uint) error {
	return withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xewmh.WmPidSet(xu, win, pid)
	})
}

// SetWindowType sets _NET_WM_WINDOW_TYPE, for example
// "_NET_WM_WINDOW_TYPE_DIALOG".
func SetWindowType(w *xwrap.Window, types ...string) error {
	return withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xewmh.WmWindowTypeSet(xu, win, types)
	})
}

// ActiveWindow reads _NET_ACTIVE_WINDOW from the root window.
func ActiveWindow(d *xwrap.Display) (xproto.Window, error) {
	var win xproto.Window
	err := d.CallXUtil(func(xu *xgbutil.XUtil) error {
		var err error
		win, err = xewmh.ActiveWindowGet(xu)
		return err
	})
	return win, err
}
