package xwrap

import (
	"strings"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/xerrors"
)

// MaxAtomListLen is the largest number of atoms an AtomList holds.
const MaxAtomListLen = 32767

// AtomName is a validated atom name: only ASCII letters, digits and
// underscores are allowed.
type AtomName struct {
	name string
}

// NewAtomName validates name.
func NewAtomName(name string) (AtomName, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return AtomName{}, xerrors.Errorf("atom name %q: %w", name, ErrAtomNameNul)
	}
	if name == "" {
		return AtomName{}, xerrors.Errorf("empty atom name: %w", ErrAtomNameCharacter)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return AtomName{}, xerrors.Errorf("atom name %q: %w", name, ErrAtomNameCharacter)
		}
	}
	return AtomName{name}, nil
}

// MustAtomName is like NewAtomName but panics on an invalid name.
// It is meant for names known at compile time.
func MustAtomName(name string) AtomName {
	n, err := NewAtomName(name)
	if err != nil {
		panic(err)
	}
	return n
}

func (n AtomName) String() string { return n.name }

// Atom is an interned atom.
type Atom xproto.Atom

// ID returns the protocol value.
func (a Atom) ID() xproto.Atom { return xproto.Atom(a) }

// InternAtom returns the atom for name. With onlyIfExists the atom is not
// created and ErrAtomNotFound is returned when the server does not know it.
func (d *Display) InternAtom(name AtomName, onlyIfExists bool) (Atom, error) {
	if name.name == "" {
		return 0, xerrors.Errorf("zero AtomName: %w", ErrAtomNameCharacter)
	}
	var atom xproto.Atom
	err := d.call(func(c *xgb.Conn) error {
		cookie := xproto.InternAtom(c, onlyIfExists, uint16(len(name.name)), name.name)
		d.issued(cookie.Sequence)
		reply, err := cookie.Reply()
		d.processed(cookie.Sequence)
		if err != nil {
			return err
		}
		atom = reply.Atom
		return nil
	})
	if err != nil {
		return 0, wrapError("intern atom "+name.name, err)
	}
	if atom == xproto.AtomNone {
		return 0, xerrors.Errorf("atom %s: %w", name.name, ErrAtomNotFound)
	}
	return Atom(atom), nil
}

// Atom validates name and interns it, creating it if needed.
func (d *Display) Atom(name string) (Atom, error) {
	n, err := NewAtomName(name)
	if err != nil {
		return 0, err
	}
	return d.InternAtom(n, false)
}

// Name asks the server for the name of a.
func (a Atom) Name(d *Display) (string, error) {
	var name string
	err := d.call(func(c *xgb.Conn) error {
		cookie := xproto.GetAtomName(c, xproto.Atom(a))
		d.issued(cookie.Sequence)
		reply, err := cookie.Reply()
		d.processed(cookie.Sequence)
		if err != nil {
			return err
		}
		name = reply.Name
		return nil
	})
	if err != nil {
		return "", wrapError("get atom name", err)
	}
	return name, nil
}

// AtomList is a bounded list of atoms, as stored in properties like
// WM_PROTOCOLS.
type AtomList struct {
	atoms []xproto.Atom
}

// Add appends a. It fails with ErrAtomListFull once MaxAtomListLen atoms
// are stored.
func (l *AtomList) Add(a Atom) error {
	if len(l.atoms) >= MaxAtomListLen {
		return ErrAtomListFull
	}
	l.atoms = append(l.atoms, xproto.Atom(a))
	return nil
}

// Contains reports whether a is in the list.
func (l *AtomList) Contains(a Atom) bool {
	for _, v := range l.atoms {
		if v == xproto.Atom(a) {
			return true
		}
	}
	return false
}

func (l *AtomList) Len() int { return len(l.atoms) }

// Atoms returns a copy of the list.
func (l *AtomList) Atoms() []xproto.Atom {
	return append([]xproto.Atom(nil), l.atoms...)
}

// Bytes encodes the list as format 32 property data.
func (l *AtomList) Bytes() []byte {
	b := make([]byte, 4*len(l.atoms))
	for i, a := range l.atoms {
		xgb.Put32(b[4*i:], uint32(a))
	}
	return b
}
