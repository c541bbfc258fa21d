package xwrap

import (
	"bytes"
	"log"
	"sync"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xwrap/internal/fakex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

// testDisplay opens a Display on a fresh fake server. The display is
// closed when the test ends.
func testDisplay(t *testing.T, opts ...Option) (*Display, *fakex.Server) {
	t.Helper()
	srv := fakex.New()
	d, err := OpenNet(srv, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d, srv
}

func bufferLogger() (*bytes.Buffer, Option) {
	buf := &bytes.Buffer{}
	return buf, WithLogger(log.New(buf, "", 0))
}

func TestOpenNet(t *testing.T) {
	d, _ := testDisplay(t)

	assert.Equal(t, ":fake", d.DisplayString())
	assert.EqualValues(t, 11, d.ProtocolVersion())
	assert.EqualValues(t, 0, d.ProtocolRevision())
	assert.Equal(t, fakex.Vendor, d.ServerVendor())
	assert.EqualValues(t, fakex.VendorRelease, d.VendorRelease())
	assert.EqualValues(t, fakex.MaxRequestLen, d.MaxRequestSize())
	assert.EqualValues(t, xproto.ImageOrderLSBFirst, d.ImageByteOrder())
	assert.EqualValues(t, xproto.ImageOrderLSBFirst, d.BitmapBitOrder())
	assert.Equal(t, 1, d.ScreenCount())
	require.Len(t, d.PixmapFormats(), 1)
	assert.EqualValues(t, 24, d.PixmapFormats()[0].Depth)
	assert.NotNil(t, d.Conn())
}

func TestExtendedMaxRequestSize(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		buf, logOpt := bufferLogger()
		d, _ := testDisplay(t, logOpt)
		size, ok := d.ExtendedMaxRequestSize()
		assert.False(t, ok)
		assert.Zero(t, size)
		assert.Contains(t, buf.String(), "BIG-REQUESTS unavailable")
	})
	t.Run("present", func(t *testing.T) {
		srv := fakex.New(fakex.WithBigRequests())
		d, err := OpenNet(srv)
		require.NoError(t, err)
		defer d.Close()

		size, ok := d.ExtendedMaxRequestSize()
		assert.True(t, ok)
		assert.EqualValues(t, fakex.BigRequestLen, size)

		// cached
		n := len(srv.Requests())
		size, ok = d.ExtendedMaxRequestSize()
		assert.True(t, ok)
		assert.EqualValues(t, fakex.BigRequestLen, size)
		assert.Len(t, srv.Requests(), n)
	})
	t.Run("closed", func(t *testing.T) {
		buf, logOpt := bufferLogger()
		d, _ := testDisplay(t, logOpt)
		require.NoError(t, d.Close())
		size, ok := d.ExtendedMaxRequestSize()
		assert.False(t, ok)
		assert.Zero(t, size)
		assert.Contains(t, buf.String(), ErrDisplayClosed.Error())
	})
}

func TestOpenNetWriteError(t *testing.T) {
	srv := fakex.New()
	defer srv.Close()
	require.NoError(t, srv.WriteError())

	d, err := OpenNet(srv)
	assert.Error(t, err)
	assert.Nil(t, d)
}

func TestClose(t *testing.T) {
	srv := fakex.New()
	d, err := OpenNet(srv)
	require.NoError(t, err)

	require.NoError(t, d.Close())
	assert.True(t, d.Closed())
	assert.Equal(t, ErrDisplayClosed, d.Close())

	calls := map[string]func() error{
		"NoOp":  d.NoOp,
		"Flush": d.Flush,
		"Sync":  d.Sync,
		"InternAtom": func() error {
			_, err := d.Atom("WM_NAME")
			return err
		},
		"EventsQueued": func() error {
			_, err := d.EventsQueued(QueuedAfterReading)
			return err
		},
		"PollEvent": func() error {
			_, _, err := d.PollEvent()
			return err
		},
		"NextEvent": func() error {
			_, err := d.NextEvent()
			return err
		},
		"XUtil": func() error {
			_, err := d.XUtil()
			return err
		},
	}
	for name, call := range calls {
		assert.Truef(t, xerrors.Is(call(), ErrDisplayClosed), "%s after Close", name)
	}
	assert.Nil(t, d.CheckError())
}

func TestScreens(t *testing.T) {
	d, _ := testDisplay(t)

	s, err := d.Screen(0)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Number())
	assert.Equal(t, d.DefaultScreen().Number(), s.Number())

	for _, n := range []int{-1, 1} {
		_, err := d.Screen(n)
		assert.True(t, xerrors.Is(err, ErrScreenOutOfRange), "screen %d", n)
	}
}

func TestRequestSequence(t *testing.T) {
	d, _ := testDisplay(t)
	assert.EqualValues(t, 1, d.NextRequest())
	assert.EqualValues(t, 0, d.LastKnownRequestProcessed())

	require.NoError(t, d.NoOp())
	require.NoError(t, d.NoOp())
	assert.EqualValues(t, 3, d.NextRequest())

	require.NoError(t, d.Sync())
	assert.EqualValues(t, 4, d.NextRequest())
	assert.EqualValues(t, 3, d.LastKnownRequestProcessed())
}

func TestEventSequenceProcessed(t *testing.T) {
	d, _ := testDisplay(t)
	b, err := d.DefaultScreen().NewDefaultWindowBuilder()
	require.NoError(t, err)
	b.Attributes().SetEventMask(StructureNotifyMask)
	w, err := b.Build()
	require.NoError(t, err)
	before := d.LastKnownRequestProcessed()

	mapSeq := d.NextRequest()
	require.NoError(t, w.Map())
	assert.Equal(t, before, d.LastKnownRequestProcessed())

	ev, err := d.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, EventMapNotify, ev.Kind)
	assert.Equal(t, mapSeq, d.LastKnownRequestProcessed())
}

func TestSequenceWidening(t *testing.T) {
	d, _ := testDisplay(t)
	d.issued(0xfffe)
	d.issued(0xffff)
	d.processed(0xfffe)
	d.issued(0)
	d.issued(1)
	assert.EqualValues(t, 0x10002, d.NextRequest())
	assert.EqualValues(t, 0xfffe, d.LastKnownRequestProcessed())

	d.processed(0)
	assert.EqualValues(t, 0x10000, d.LastKnownRequestProcessed())
	// older than what is known
	d.processed(0xffff)
	assert.EqualValues(t, 0x10000, d.LastKnownRequestProcessed())
}

func TestCheckError(t *testing.T) {
	buf, logOpt := bufferLogger()
	d, srv := testDisplay(t, logOpt)

	assert.Nil(t, d.CheckError())

	srv.FailNext(127, fakex.BadImplementation)
	require.NoError(t, d.NoOp())
	ev := d.CheckError()
	require.NotNil(t, ev)
	assert.Equal(t, BadImplementation, ev.Code)
	assert.EqualValues(t, 127, ev.MajorOpcode)
	assert.Equal(t, "BadImplementation (server does not implement operation)", ev.Text())
	assert.Nil(t, d.CheckError(), "slot is emptied")

	// only the first of two errors is kept
	srv.FailNext(127, fakex.BadValue)
	srv.FailNext(43, fakex.BadAccess)
	require.NoError(t, d.NoOp())
	require.NoError(t, d.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.GetInputFocusUnchecked(c).Cookie
	}))
	ev = d.CheckError()
	require.NotNil(t, ev)
	assert.Equal(t, BadValue, ev.Code)
	assert.Contains(t, buf.String(), "dropping protocol error")
	assert.Nil(t, d.CheckError())
}

func TestSendEvent(t *testing.T) {
	d, srv := testDisplay(t)
	root, _ := d.DefaultScreen().RootWindowID()

	typ, err := d.Atom("_XWRAP_TEST")
	require.NoError(t, err)
	msg := NewClientMessage(root, typ.ID(), 1, 2, 3)
	require.NoError(t, d.SendEvent(root, false, SubstructureRedirectMask, msg))
	require.NoError(t, d.Sync())

	sent := srv.SentEvents()
	require.Len(t, sent, 1)
	assert.EqualValues(t, root, sent[0].Destination)
	assert.EqualValues(t, SubstructureRedirectMask, sent[0].Mask)
	assert.EqualValues(t, xproto.ClientMessage|0x80, sent[0].Event[0])

	bad := &ClientMessage{Format: 7}
	assert.True(t, xerrors.Is(d.SendEvent(root, false, 0, bad), ErrUnknownEnumValue))
	assert.True(t, xerrors.Is(d.SendEvent(root, false, 0, RawEvent{}), ErrSendEvent))
}

func TestEventQueue(t *testing.T) {
	d, _ := testDisplay(t)
	b, err := d.DefaultScreen().NewDefaultWindowBuilder()
	require.NoError(t, err)
	b.Attributes().SetEventMask(StructureNotifyMask)
	w, err := b.Build()
	require.NoError(t, err)

	n, err := d.EventsQueued(QueuedAlready)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, w.Map())
	n, err = d.Pending()
	require.NoError(t, err)
	// the MapNotify may still be in flight before a round trip
	assert.LessOrEqual(t, n, 1)

	require.NoError(t, d.Sync())
	n, err = d.EventsQueued(QueuedAlready)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ev, ok, err := d.PollEvent()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventMapNotify, ev.Kind)
	simple := ev.Simple()
	assert.Equal(t, EventMapNotify, simple.Kind)
	assert.Equal(t, w.ID(), simple.Window)

	_, ok, err = d.PollEvent()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.Unmap())
	ev, err = d.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, EventUnmapNotify, ev.Kind)

	_, err = d.EventsQueued(QueuedMode(9))
	assert.True(t, xerrors.Is(err, ErrUnknownEnumValue))
}

func TestEventsHeldByConnection(t *testing.T) {
	d, srv := testDisplay(t)
	b, err := d.DefaultScreen().NewDefaultWindowBuilder()
	require.NoError(t, err)
	w, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, srv.ReadLock())
	msg := NewClientMessage(w.ID(), xproto.AtomString, 1)
	require.NoError(t, d.SendEvent(w.ID(), false, NoEventMask, msg))
	_, ok, err := d.PollEvent()
	require.NoError(t, err)
	assert.False(t, ok, "nothing can be read yet")

	require.NoError(t, srv.ReadUnlock())
	ev, err := d.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, EventClientMessage, ev.Kind)
}

func TestNextEventReadError(t *testing.T) {
	d, srv := testDisplay(t)
	require.NoError(t, srv.ReadError())

	_, err := d.NextEvent()
	assert.Equal(t, ErrConnectionClosed, err)
	assert.False(t, d.Closed())
	assert.NoError(t, d.Close())
}

func TestSerializedCalls(t *testing.T) {
	d, srv := testDisplay(t, WithSerializedCalls())

	names := []string{"_A", "_B", "_C", "_D", "_E", "_F", "_G", "_H"}
	atoms := make([]Atom, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			a, err := d.Atom(name)
			assert.NoError(t, err)
			atoms[i] = a
		}(i, name)
	}
	wg.Wait()

	for i, name := range names {
		assert.EqualValues(t, srv.Atom(name), atoms[i], name)
	}
	assert.EqualValues(t, len(names)+1, d.NextRequest())
}

func TestXUtil(t *testing.T) {
	d, _ := testDisplay(t)
	xu, err := d.XUtil()
	require.NoError(t, err)
	again, err := d.XUtil()
	require.NoError(t, err)
	assert.Same(t, xu, again)
	assert.Equal(t, d.Conn(), xu.Conn())
}
