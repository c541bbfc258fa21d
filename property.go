package xwrap

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/xerrors"
)

// AnyPropertyType matches a property of any type in Window.Property.
const AnyPropertyType Atom = xproto.GetPropertyTypeAny

// PropMode selects how ChangeProperty combines new and existing data.
type PropMode byte

const (
	PropModeReplace PropMode = xproto.PropModeReplace
	PropModePrepend PropMode = xproto.PropModePrepend
	PropModeAppend  PropMode = xproto.PropModeAppend
)

// WrongTypeError is returned when a property exists with a type other
// than the one asked for. Size is the property length in bytes.
type WrongTypeError struct {
	Type   Atom
	Format byte
	Size   uint32
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("xwrap: property has type %d, format %d, %d bytes", e.Type, e.Format, e.Size)
}

// UnknownFormatError is returned for a property format other than 8, 16
// or 32.
type UnknownFormatError struct {
	Format byte
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("xwrap: unknown property format %d", e.Format)
}

// Property is the value of a window property.
type Property struct {
	Type   Atom
	Format byte
	data   []byte
}

// Bytes returns the raw data.
func (p *Property) Bytes() []byte { return p.data }

// Len is the number of items of the property's format.
func (p *Property) Len() int {
	if p.Format == 0 {
		return 0
	}
	return len(p.data) / int(p.Format/8)
}

// Uint16s decodes format 16 data. It returns nil for other formats.
func (p *Property) Uint16s() []uint16 {
	if p.Format != 16 {
		return nil
	}
	vals := make([]uint16, len(p.data)/2)
	for i := range vals {
		vals[i] = xgb.Get16(p.data[2*i:])
	}
	return vals
}

// Uint32s decodes format 32 data. It returns nil for other formats.
func (p *Property) Uint32s() []uint32 {
	if p.Format != 32 {
		return nil
	}
	vals := make([]uint32, len(p.data)/4)
	for i := range vals {
		vals[i] = xgb.Get32(p.data[4*i:])
	}
	return vals
}

// Atoms decodes format 32 data as a list of atoms.
func (p *Property) Atoms() []Atom {
	u := p.Uint32s()
	if u == nil {
		return nil
	}
	atoms := make([]Atom, len(u))
	for i, v := range u {
		atoms[i] = Atom(v)
	}
	return atoms
}

// Text returns format 8 data as Text.
func (p *Property) Text() (Text, error) {
	if p.Format != 8 {
		return Text{}, &UnknownFormatError{p.Format}
	}
	return NewText(string(p.data))
}

// Property reads the whole property name. typ may be AnyPropertyType.
// With del the server deletes the property once it has been read.
func (w *Window) Property(name, typ Atom, del bool) (*Property, error) {
	if err := w.Alive(); err != nil {
		return nil, err
	}
	d := w.display
	var reply *xproto.GetPropertyReply
	err := d.call(func(c *xgb.Conn) error {
		cookie := xproto.GetProperty(c, del, w.id, xproto.Atom(name), xproto.Atom(typ), 0, 1<<32-1)
		d.issued(cookie.Sequence)
		var err error
		reply, err = cookie.Reply()
		d.processed(cookie.Sequence)
		return err
	})
	if err != nil {
		return nil, wrapError("get property", err)
	}
	if reply.Type == xproto.AtomNone {
		return nil, ErrPropertyNotExist
	}
	if typ != AnyPropertyType && Atom(reply.Type) != typ {
		return nil, &WrongTypeError{Type: Atom(reply.Type), Format: reply.Format, Size: reply.BytesAfter}
	}
	switch reply.Format {
	case 8, 16, 32:
	default:
		return nil, &UnknownFormatError{reply.Format}
	}
	return &Property{Type: Atom(reply.Type), Format: reply.Format, data: reply.Value}, nil
}

// Properties lists the names of the window's properties.
func (w *Window) Properties() ([]Atom, error) {
	if err := w.Alive(); err != nil {
		return nil, err
	}
	d := w.display
	var atoms []Atom
	err := d.call(func(c *xgb.Conn) error {
		cookie := xproto.ListProperties(c, w.id)
		d.issued(cookie.Sequence)
		reply, err := cookie.Reply()
		d.processed(cookie.Sequence)
		if err != nil {
			return err
		}
		for _, a := range reply.Atoms {
			atoms = append(atoms, Atom(a))
		}
		return nil
	})
	if err != nil {
		return nil, wrapError("list properties", err)
	}
	return atoms, nil
}

// DeleteProperty removes name. Deleting a missing property is not an
// error.
func (w *Window) DeleteProperty(name Atom) error {
	return w.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.DeleteProperty(c, w.id, xproto.Atom(name)).Cookie
	})
}

// ChangeProperty stores data as property name. format is 8, 16 or 32 and
// the length of data must be a multiple of format/8.
func (w *Window) ChangeProperty(mode PropMode, name, typ Atom, format byte, data []byte) error {
	switch format {
	case 8, 16, 32:
	default:
		return &UnknownFormatError{format}
	}
	unit := int(format / 8)
	if len(data)%unit != 0 {
		return xerrors.Errorf("xwrap: %d bytes is not a whole number of format %d items", len(data), format)
	}
	if mode > PropModeAppend {
		return xerrors.Errorf("property mode %d: %w", mode, ErrUnknownEnumValue)
	}
	return w.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.ChangeProperty(c, byte(mode), w.id, xproto.Atom(name), xproto.Atom(typ),
			format, uint32(len(data)/unit), data).Cookie
	})
}

// SetTextProperty stores t as a UTF8_STRING property.
func (w *Window) SetTextProperty(name Atom, t Text) error {
	utf8String, err := w.display.Atom("UTF8_STRING")
	if err != nil {
		return err
	}
	return w.ChangeProperty(PropModeReplace, name, utf8String, 8, t.Bytes())
}

// SetAtomListProperty stores l as a property of type ATOM.
func (w *Window) SetAtomListProperty(name Atom, l *AtomList) error {
	return w.ChangeProperty(PropModeReplace, name, Atom(xproto.AtomAtom), 32, l.Bytes())
}
