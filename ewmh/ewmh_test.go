package ewmh

import (
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xwrap"
	"github.com/BurntSushi/xwrap/internal/fakex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func testWindow(t *testing.T) (*xwrap.Window, *fakex.Server) {
	t.Helper()
	srv := fakex.New()
	d, err := xwrap.OpenNet(srv)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	b, err := d.DefaultScreen().NewDefaultWindowBuilder()
	require.NoError(t, err)
	w, err := b.Build()
	require.NoError(t, err)
	return w, srv
}

func TestToggleFullscreen(t *testing.T) {
	w, srv := testWindow(t)
	h, err := NewNetWMStateHandler(w.Display())
	require.NoError(t, err)
	assert.EqualValues(t, srv.Atom(StateFullscreen), h.FullscreenAtom())

	m, err := h.ToggleFullscreen(w)
	require.NoError(t, err)
	assert.Equal(t, w.ID(), m.Window)
	assert.EqualValues(t, srv.Atom("_NET_WM_STATE"), m.Type)
	assert.EqualValues(t, 32, m.Format)
	assert.Equal(t, [5]uint32{uint32(Toggle), uint32(h.FullscreenAtom()), 0, 2, 0}, m.Data32)

	require.NoError(t, w.Screen().SendEWMHClientMessage(m))
	require.NoError(t, w.Display().Sync())
	sent := srv.SentEvents()
	require.Len(t, sent, 1)
	assert.EqualValues(t, fakex.RootWindow, sent[0].Destination)
	assert.EqualValues(t, xproto.EventMaskSubstructureNotify|xproto.EventMaskSubstructureRedirect, sent[0].Mask)

	cb, err := w.NewChildBuilder()
	require.NoError(t, err)
	child, err := cb.Build()
	require.NoError(t, err)
	_, err = h.ToggleFullscreen(child)
	assert.Equal(t, xwrap.ErrNotTopLevel, err)
}

func TestDestroyedWindow(t *testing.T) {
	w, srv := testWindow(t)
	h, err := NewNetWMStateHandler(w.Display())
	require.NoError(t, err)
	require.NoError(t, w.Destroy())
	require.NoError(t, w.Display().Sync())
	n := len(srv.Requests())

	_, err = h.ToggleFullscreen(w)
	assert.Equal(t, xwrap.ErrResourceReleased, err)
	assert.Equal(t, xwrap.ErrResourceReleased, RequestState(w, Add, StateAbove))
	assert.Equal(t, xwrap.ErrResourceReleased, SetPid(w, 1))
	_, err = Name(w)
	assert.Equal(t, xwrap.ErrResourceReleased, err)
	assert.Len(t, srv.Requests(), n)
}

func TestRequestState(t *testing.T) {
	w, srv := testWindow(t)
	require.NoError(t, RequestState(w, Add, StateAbove))

	sent := srv.SentEvents()
	require.Len(t, sent, 1)
	ev := sent[0].Event
	assert.EqualValues(t, xproto.ClientMessage|0x80, ev[0])
	assert.EqualValues(t, w.ID(), xgb.Get32(ev[4:]))
	assert.EqualValues(t, srv.Atom("_NET_WM_STATE"), xgb.Get32(ev[8:]))
	assert.EqualValues(t, Add, xgb.Get32(ev[12:]))
	assert.EqualValues(t, srv.Atom(StateAbove), xgb.Get32(ev[16:]))
	assert.Zero(t, xgb.Get32(ev[20:]))
	assert.EqualValues(t, 2, xgb.Get32(ev[24:]))

	err := RequestState(w, Action(3), StateAbove)
	assert.True(t, xerrors.Is(err, xwrap.ErrUnknownEnumValue))
	assert.Len(t, srv.SentEvents(), 1)
}

func TestState(t *testing.T) {
	w, _ := testWindow(t)
	d := w.Display()
	prop, err := d.Atom("_NET_WM_STATE")
	require.NoError(t, err)

	var l xwrap.AtomList
	for _, name := range []string{StateSticky, StateSkipPager} {
		a, err := d.Atom(name)
		require.NoError(t, err)
		require.NoError(t, l.Add(a))
	}
	require.NoError(t, w.SetAtomListProperty(prop, &l))

	states, err := State(w)
	require.NoError(t, err)
	assert.Equal(t, []string{StateSticky, StateSkipPager}, states)
}

func TestWindowProperties(t *testing.T) {
	w, srv := testWindow(t)
	name, err := xwrap.NewText("Grüße")
	require.NoError(t, err)
	require.NoError(t, SetName(w, name))
	got, err := Name(w)
	require.NoError(t, err)
	assert.Equal(t, "Grüße", got)

	require.NoError(t, SetPid(w, 4242))
	p, ok := srv.Property(uint32(w.ID()), "_NET_WM_PID")
	require.True(t, ok)
	assert.EqualValues(t, xproto.AtomCardinal, p.Type)
	assert.EqualValues(t, 4242, xgb.Get32(p.Data))

	require.NoError(t, SetWindowType(w, "_NET_WM_WINDOW_TYPE_DIALOG", "_NET_WM_WINDOW_TYPE_NORMAL"))
	p, ok = srv.Property(uint32(w.ID()), "_NET_WM_WINDOW_TYPE")
	require.True(t, ok)
	assert.EqualValues(t, xproto.AtomAtom, p.Type)
	require.Len(t, p.Data, 8)
	assert.EqualValues(t, srv.Atom("_NET_WM_WINDOW_TYPE_DIALOG"), xgb.Get32(p.Data))
	assert.EqualValues(t, srv.Atom("_NET_WM_WINDOW_TYPE_NORMAL"), xgb.Get32(p.Data[4:]))
}

func TestActiveWindow(t *testing.T) {
	w, _ := testWindow(t)
	d := w.Display()
	root, err := d.DefaultScreen().RootWindow()
	require.NoError(t, err)

	_, err = ActiveWindow(d)
	assert.Error(t, err, "no window manager")

	prop, err := d.Atom("_NET_ACTIVE_WINDOW")
	require.NoError(t, err)
	b := make([]byte, 4)
	xgb.Put32(b, uint32(w.ID()))
	require.NoError(t, root.ChangeProperty(xwrap.PropModeReplace, prop, xwrap.Atom(xproto.AtomWindow), 32, b))

	active, err := ActiveWindow(d)
	require.NoError(t, err)
	assert.Equal(t, w.ID(), active)
}
