// Package icccm sets and reads the ICCCM 2.0 properties of top-level
// windows. It uses xgbutil on the window's display.
package icccm

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	xicccm "github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xwrap"
	"golang.org/x/xerrors"
)

// WindowState is the state stored in WM_STATE and requested by the
// initial state hint.
type WindowState uint

const (
	Withdrawn WindowState = xicccm.StateWithdrawn
	Normal    WindowState = xicccm.StateNormal
	Iconic    WindowState = xicccm.StateIconic
)

func (s WindowState) valid() bool {
	return s == Withdrawn || s == Normal || s == Iconic
}

// TextProperty names one of the ICCCM text properties.
type TextProperty int

const (
	Name TextProperty = iota
	IconName
	Command
	ClientMachine
)

func (p TextProperty) atomName() (string, error) {
	switch p {
	case Name:
		return "WM_NAME", nil
	case IconName:
		return "WM_ICON_NAME", nil
	case Command:
		return "WM_COMMAND", nil
	case ClientMachine:
		return "WM_CLIENT_MACHINE", nil
	}
	return "", xerrors.Errorf("text property %d: %w", int(p), xwrap.ErrUnknownEnumValue)
}

func topLevel(w *xwrap.Window) error {
	if !w.TopLevel() {
		return xwrap.ErrNotTopLevel
	}
	return nil
}

// withXU runs f for a live top-level window.
func withXU(w *xwrap.Window, f func(xu *xgbutil.XUtil, win xproto.Window) error) error {
	if err := topLevel(w); err != nil {
		return err
	}
	if err := w.Alive(); err != nil {
		return err
	}
	return w.Display().CallXUtil(func(xu *xgbutil.XUtil) error {
		return f(xu, w.ID())
	})
}

// SetProtocols sets WM_PROTOCOLS from atom names.
func SetProtocols(w *xwrap.Window, names []string) error {
	return withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xicccm.WmProtocolsSet(xu, win, names)
	})
}

// SetProtocolAtoms sets WM_PROTOCOLS from interned atoms.
func SetProtocolAtoms(w *xwrap.Window, atoms *xwrap.AtomList) error {
	if err := topLevel(w); err != nil {
		return err
	}
	if err := w.Alive(); err != nil {
		return err
	}
	prop, err := w.Display().Atom("WM_PROTOCOLS")
	if err != nil {
		return err
	}
	return w.SetAtomListProperty(prop, atoms)
}

// Protocols reads WM_PROTOCOLS as atom names.
func Protocols(w *xwrap.Window) ([]string, error) {
	var names []string
	err := withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		var err error
		names, err = xicccm.WmProtocolsGet(xu, win)
		return err
	})
	return names, err
}

// SetTransientFor marks w as a transient window of owner.
func SetTransientFor(w *xwrap.Window, owner xproto.Window) error {
	return withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xicccm.WmTransientForSet(xu, win, owner)
	})
}

// SetClass sets WM_CLASS.
func SetClass(w *xwrap.Window, instance, class string) error {
	return withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xicccm.WmClassSet(xu, win, &xicccm.WmClass{Instance: instance, Class: class})
	})
}

// SetText stores t in one of the text properties as UTF8_STRING.
func SetText(w *xwrap.Window, p TextProperty, t xwrap.Text) error {
	name, err := p.atomName()
	if err != nil {
		return err
	}
	return withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		return xprop.ChangeProp(xu, win, 8, name, "UTF8_STRING", t.Bytes())
	})
}

// Text reads one of the text properties.
func Text(w *xwrap.Window, p TextProperty) (string, error) {
	name, err := p.atomName()
	if err != nil {
		return "", err
	}
	var s string
	err = withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		s, err = xprop.PropValStr(xprop.GetProperty(xu, win, name))
		return err
	})
	return s, err
}

// State reads WM_STATE, which the window manager maintains.
func State(w *xwrap.Window) (WindowState, xproto.Window, error) {
	var st *xicccm.WmState
	err := withXU(w, func(xu *xgbutil.XUtil, win xproto.Window) error {
		var err error
		st, err = xicccm.WmStateGet(xu, win)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	s := WindowState(st.State)
	if !s.valid() {
		return 0, 0, xerrors.Errorf("WM_STATE %d: %w", st.State, xwrap.ErrUnknownEnumValue)
	}
	return s, st.Icon, nil
}
