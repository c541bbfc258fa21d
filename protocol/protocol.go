// Package protocol builds the WM_PROTOCOLS value of a window and
// recognizes the client messages of the enabled protocols.
package protocol

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xwrap"
)

const DeleteWindow = "WM_DELETE_WINDOW"

// Protocols collects the protocols a window takes part in. The zero value
// has none enabled.
type Protocols struct {
	deleteWindow *xwrap.Atom
}

// EnableDeleteWindow interns WM_DELETE_WINDOW and returns the handler for
// its messages.
func (p *Protocols) EnableDeleteWindow(d *xwrap.Display) (*DeleteWindowHandler, error) {
	atom, err := d.InternAtom(xwrap.MustAtomName(DeleteWindow), false)
	if err != nil {
		return nil, err
	}
	p.deleteWindow = &atom
	return &DeleteWindowHandler{atom: atom}, nil
}

// AtomList is the value for WM_PROTOCOLS.
func (p *Protocols) AtomList() *xwrap.AtomList {
	l := &xwrap.AtomList{}
	if p.deleteWindow != nil {
		// cannot fail, the list is far below MaxAtomListLen
		_ = l.Add(*p.deleteWindow)
	}
	return l
}

// Names lists the enabled protocols by atom name.
func (p *Protocols) Names() []string {
	var names []string
	if p.deleteWindow != nil {
		names = append(names, DeleteWindow)
	}
	return names
}

// DeleteWindowHandler recognizes WM_DELETE_WINDOW messages.
type DeleteWindowHandler struct {
	atom xwrap.Atom
}

func (h *DeleteWindowHandler) Atom() xwrap.Atom { return h.atom }

// CheckEvent reports whether ev is a format 32 client message whose first
// datum is WM_DELETE_WINDOW.
func (h *DeleteWindowHandler) CheckEvent(ev xwrap.Event) bool {
	cm, ok := ev.X.(xproto.ClientMessageEvent)
	if !ok || cm.Format != 32 {
		return false
	}
	data := cm.Data.Data32
	return len(data) > 0 && data[0] == uint32(h.atom)
}
