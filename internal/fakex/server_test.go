package fakex

import (
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, opts ...Option) (*Server, *xgb.Conn) {
	t.Helper()
	s := New(opts...)
	c, err := xgb.NewConnNet(s)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return s, c
}

func TestSetup(t *testing.T) {
	_, c := connect(t)
	setup := xproto.Setup(c)

	assert.Equal(t, Vendor, setup.Vendor)
	assert.EqualValues(t, VendorRelease, setup.ReleaseNumber)
	assert.EqualValues(t, 11, setup.ProtocolMajorVersion)
	assert.EqualValues(t, MaxRequestLen, setup.MaximumRequestLength)
	require.Len(t, setup.Roots, 1)

	screen := setup.Roots[0]
	assert.EqualValues(t, RootWindow, screen.Root)
	assert.EqualValues(t, DefaultColormap, screen.DefaultColormap)
	assert.EqualValues(t, RootVisual, screen.RootVisual)
	assert.EqualValues(t, 24, screen.RootDepth)
	require.Len(t, screen.AllowedDepths, 2)
	assert.Len(t, screen.AllowedDepths[0].Visuals, 2)
	assert.Len(t, screen.AllowedDepths[1].Visuals, 1)
}

func TestCreateWindow(t *testing.T) {
	testCases := []struct {
		description string
		depth       byte
		parent      xproto.Window
		width       uint16
		visual      xproto.Visualid
		mask        uint32
		values      []uint32
		wantErr     interface{}
	}{
		{"copy from parent", 0, RootWindow, 10, 0, 0, nil, nil},
		{"explicit root visual", 24, RootWindow, 10, RootVisual, 0, nil, nil},
		{"bad parent", 0, 0x42, 10, 0, 0, nil, xproto.WindowError{}},
		{"zero width", 0, RootWindow, 0, 0, 0, nil, xproto.ValueError{}},
		{"depth mismatch", 32, RootWindow, 10, RootVisual, 0, nil, xproto.MatchError{}},
		{"other visual without colormap", 32, RootWindow, 10, ARGBVisual, 0, nil, xproto.MatchError{}},
		{"colormap of other visual", 32, RootWindow, 10, ARGBVisual,
			xproto.CwColormap, []uint32{DefaultColormap}, xproto.MatchError{}},
		{"unknown colormap", 0, RootWindow, 10, 0,
			xproto.CwColormap, []uint32{0x99}, xproto.ColormapError{}},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			s, c := connect(t)
			wid, err := xproto.NewWindowId(c)
			require.NoError(t, err)

			err = xproto.CreateWindowChecked(c, tc.depth, wid, tc.parent, 0, 0, tc.width, 10, 0,
				xproto.WindowClassCopyFromParent, tc.visual, tc.mask, tc.values).Check()
			if tc.wantErr != nil {
				assert.IsType(t, tc.wantErr, err)
				_, ok := s.Window(uint32(wid))
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			w, ok := s.Window(uint32(wid))
			require.True(t, ok)
			assert.EqualValues(t, RootWindow, w.Parent)
			assert.EqualValues(t, 24, w.Depth)
			assert.EqualValues(t, RootVisual, w.Visual)
			root, _ := s.Window(RootWindow)
			assert.Contains(t, root.Children, uint32(wid))
		})
	}
}

func TestPropertyRoundTrip(t *testing.T) {
	s, c := connect(t)
	reply, err := xproto.InternAtom(c, false, 6, "_TEST_").Reply()
	require.NoError(t, err)
	prop := reply.Atom
	assert.EqualValues(t, prop, s.Atom("_TEST_"))

	err = xproto.ChangePropertyChecked(c, xproto.PropModeReplace, RootWindow, prop,
		xproto.AtomString, 8, 5, []byte("hello")).Check()
	require.NoError(t, err)
	err = xproto.ChangePropertyChecked(c, xproto.PropModeAppend, RootWindow, prop,
		xproto.AtomString, 8, 6, []byte(" world")).Check()
	require.NoError(t, err)

	p, ok := s.Property(RootWindow, "_TEST_")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(p.Data))

	// 2 units of 4 bytes from offset 1
	got, err := xproto.GetProperty(c, false, RootWindow, prop, xproto.AtomString, 1, 2).Reply()
	require.NoError(t, err)
	assert.Equal(t, "o world", string(got.Value[:got.ValueLen]))
	assert.Zero(t, got.BytesAfter)

	// wrong type reports the real one without data
	got, err = xproto.GetProperty(c, false, RootWindow, prop, xproto.AtomAtom, 0, 100).Reply()
	require.NoError(t, err)
	assert.EqualValues(t, xproto.AtomString, got.Type)
	assert.EqualValues(t, 11, got.BytesAfter)
	assert.Zero(t, got.ValueLen)

	// mismatched append
	err = xproto.ChangePropertyChecked(c, xproto.PropModeAppend, RootWindow, prop,
		xproto.AtomAtom, 32, 1, []byte{1, 0, 0, 0}).Check()
	assert.IsType(t, xproto.MatchError{}, err)

	got, err = xproto.GetProperty(c, true, RootWindow, prop, xproto.GetPropertyTypeAny, 0, 100).Reply()
	require.NoError(t, err)
	assert.Zero(t, got.BytesAfter)
	_, ok = s.Property(RootWindow, "_TEST_")
	assert.False(t, ok)
}

func TestFailNext(t *testing.T) {
	s, c := connect(t)
	s.FailNext(opInternAtom, BadAlloc)

	_, err := xproto.InternAtom(c, false, 4, "ATOM").Reply()
	assert.IsType(t, xproto.AllocError{}, err)

	reply, err := xproto.InternAtom(c, false, 4, "ATOM").Reply()
	require.NoError(t, err)
	assert.EqualValues(t, xproto.AtomAtom, reply.Atom)
	assert.Equal(t, []byte{opInternAtom, opInternAtom}, s.Requests())
}

func TestSendEvent(t *testing.T) {
	s, c := connect(t)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: RootWindow,
		Type:   xproto.AtomString,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{1, 2, 3, 4, 5}),
	}
	err := xproto.SendEventChecked(c, false, RootWindow, xproto.EventMaskSubstructureRedirect,
		string(ev.Bytes())).Check()
	require.NoError(t, err)

	sent := s.SentEvents()
	require.Len(t, sent, 1)
	assert.EqualValues(t, RootWindow, sent[0].Destination)
	assert.EqualValues(t, xproto.ClientMessage|0x80, sent[0].Event[0])
	assert.False(t, sent[0].Delivered)
}

func TestColormaps(t *testing.T) {
	s, c := connect(t)
	id, err := xproto.NewColormapId(c)
	require.NoError(t, err)

	err = xproto.CreateColormapChecked(c, xproto.ColormapAllocAll, id, RootWindow, RootVisual).Check()
	assert.IsType(t, xproto.MatchError{}, err)

	err = xproto.CreateColormapChecked(c, xproto.ColormapAllocAll, id, RootWindow, DirectColorVisual).Check()
	require.NoError(t, err)
	cm, ok := s.Colormap(uint32(id))
	require.True(t, ok)
	assert.EqualValues(t, DirectColorVisual, cm.Visual)

	require.NoError(t, xproto.FreeColormapChecked(c, id).Check())
	_, ok = s.Colormap(uint32(id))
	assert.False(t, ok)

	err = xproto.FreeColormapChecked(c, id).Check()
	assert.IsType(t, xproto.ColormapError{}, err)

	require.NoError(t, xproto.FreeColormapChecked(c, DefaultColormap).Check())
	_, ok = s.Colormap(DefaultColormap)
	assert.True(t, ok)
}
