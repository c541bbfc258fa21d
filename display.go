package xwrap

import (
	"log"
	"net"
	"os"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/bigreq"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"golang.org/x/xerrors"
)

// ErrConnectionClosed is returned by NextEvent when the server side of the
// connection went away.
var ErrConnectionClosed = xerrors.New("xwrap: connection to X server closed")

// QueuedMode selects how much work EventsQueued does before counting.
type QueuedMode int

const (
	// QueuedAlready counts events already read from the connection.
	QueuedAlready QueuedMode = iota
	// QueuedAfterReading first moves everything the connection has
	// received into the queue.
	QueuedAfterReading
	// QueuedAfterFlush flushes the output buffer, then reads.
	QueuedAfterFlush
)

// Option configures a Display.
type Option func(*Display)

// WithSerializedCalls makes every wrapped call take a per-display lock, for
// sharing one Display between goroutines. NextEvent does not hold the lock
// while it waits.
func WithSerializedCalls() Option {
	return func(d *Display) { d.serialize = true }
}

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Display) { d.log = logger{l} }
}

// Display is an open connection to an X server. It owns the connection
// and must be closed exactly once.
type Display struct {
	conn          *xgb.Conn
	setup         *xproto.SetupInfo
	name          string
	defaultScreen int
	log           logger
	errs          *errorSlot
	serialize     bool
	callMu        sync.Mutex

	mu            sync.Mutex
	closed        bool
	events        queue
	lastRequest   uint64
	lastProcessed uint64

	xuOnce sync.Once
	xu     *xgbutil.XUtil
	xuErr  error

	bigOnce sync.Once
	bigLen  uint32
}

// Open connects to the X server named by name, or by $DISPLAY when name
// is empty.
func Open(name string, opts ...Option) (*Display, error) {
	if name == "" {
		name = os.Getenv("DISPLAY")
	}
	conn, err := xgb.NewConnDisplay(name)
	if err != nil {
		return nil, xerrors.Errorf("failed to open display %q: %w", name, err)
	}
	return newDisplay(conn, name, opts), nil
}

// OpenNet performs the connection setup over an already established
// connection.
func OpenNet(c net.Conn, opts ...Option) (*Display, error) {
	conn, err := xgb.NewConnNet(c)
	if err != nil {
		return nil, xerrors.Errorf("failed to set up X connection over %s: %w", c.RemoteAddr(), err)
	}
	return newDisplay(conn, c.RemoteAddr().String(), opts), nil
}

func newDisplay(conn *xgb.Conn, name string, opts []Option) *Display {
	d := &Display{
		conn:          conn,
		setup:         xproto.Setup(conn),
		name:          name,
		defaultScreen: conn.DefaultScreen,
		log:           newLogger(),
		events:        newQueue(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.errs = &errorSlot{log: d.log}
	if d.defaultScreen < 0 || d.defaultScreen >= len(d.setup.Roots) {
		d.defaultScreen = 0
	}
	return d
}

// Close closes the connection. Calling it again returns ErrDisplayClosed.
func (d *Display) Close() error {
	if d.serialize {
		d.callMu.Lock()
		defer d.callMu.Unlock()
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDisplayClosed
	}
	d.closed = true
	d.mu.Unlock()

	d.conn.Close()
	return nil
}

// Closed reports whether Close was called.
func (d *Display) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// call runs f on the connection. It fails with ErrDisplayClosed after
// Close and holds the call lock in serialized mode.
func (d *Display) call(f func(c *xgb.Conn) error) error {
	if d.serialize {
		d.callMu.Lock()
		defer d.callMu.Unlock()
	}
	if d.Closed() {
		return ErrDisplayClosed
	}
	return f(d.conn)
}

// request sends the unchecked request made by f. Its errors arrive later
// through the error slot.
func (d *Display) request(f func(c *xgb.Conn) *xgb.Cookie) error {
	return d.call(func(c *xgb.Conn) error {
		d.issued(f(c).Sequence)
		return nil
	})
}

// Call runs f with the underlying connection under the same rules as the
// wrapped calls. Requests made by f are not tracked by NextRequest.
func (d *Display) Call(f func(c *xgb.Conn) error) error { return d.call(f) }

// CallXUtil runs f with the shared xgbutil handle, see XUtil.
func (d *Display) CallXUtil(f func(xu *xgbutil.XUtil) error) error {
	return d.call(func(c *xgb.Conn) error {
		xu, err := d.xutil()
		if err != nil {
			return err
		}
		return f(xu)
	})
}

// Conn returns the underlying connection. It stays owned by the Display.
func (d *Display) Conn() *xgb.Conn { return d.conn }

// XUtil returns an xgbutil handle sharing this connection, created on
// first use. Creating it makes a few requests, including an unmapped
// helper window.
func (d *Display) XUtil() (*xgbutil.XUtil, error) {
	if d.Closed() {
		return nil, ErrDisplayClosed
	}
	return d.xutil()
}

func (d *Display) xutil() (*xgbutil.XUtil, error) {
	d.xuOnce.Do(func() {
		d.xu, d.xuErr = xgbutil.NewConnXgb(d.conn)
		if d.xuErr != nil {
			d.xuErr = xerrors.Errorf("failed to create xgbutil handle: %w", d.xuErr)
		}
	})
	return d.xu, d.xuErr
}

// issued records the sequence number of a request sent by the Display.
func (d *Display) issued(seq uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.lastRequest&^0xffff | uint64(seq)
	if v < d.lastRequest {
		v += 0x10000
	}
	d.lastRequest = v
}

// processed records that the server has handled request seq.
func (d *Display) processed(seq uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.lastRequest&^0xffff | uint64(seq)
	if v > d.lastRequest && v >= 0x10000 {
		v -= 0x10000
	}
	if v > d.lastProcessed && v <= d.lastRequest {
		d.lastProcessed = v
	}
}

// NextRequest is the sequence number the next request sent through the
// Display will get.
func (d *Display) NextRequest() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRequest + 1
}

// LastKnownRequestProcessed is the highest sequence number the server is
// known to have handled, taken from replies, events and errors.
func (d *Display) LastKnownRequestProcessed() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastProcessed
}

// DisplayString is the name used to open the display.
func (d *Display) DisplayString() string { return d.name }

func (d *Display) ProtocolVersion() uint16  { return d.setup.ProtocolMajorVersion }
func (d *Display) ProtocolRevision() uint16 { return d.setup.ProtocolMinorVersion }
func (d *Display) ServerVendor() string     { return d.setup.Vendor }
func (d *Display) VendorRelease() uint32    { return d.setup.ReleaseNumber }

// MaxRequestSize is the largest request the server accepts without
// BIG-REQUESTS, in 4 byte units.
func (d *Display) MaxRequestSize() uint16 { return d.setup.MaximumRequestLength }

// ExtendedMaxRequestSize enables BIG-REQUESTS on first use and returns the
// resulting limit in 4 byte units. ok is false if the extension is missing.
func (d *Display) ExtendedMaxRequestSize() (size uint32, ok bool) {
	d.bigOnce.Do(func() {
		err := d.call(func(c *xgb.Conn) error {
			if err := bigreq.Init(c); err != nil {
				return err
			}
			cookie := bigreq.Enable(c)
			d.issued(cookie.Sequence)
			reply, err := cookie.Reply()
			d.processed(cookie.Sequence)
			if err != nil {
				return err
			}
			d.bigLen = reply.MaximumRequestLength
			return nil
		})
		if err != nil {
			d.log.Printf("BIG-REQUESTS unavailable: %v", err)
		}
	})
	return d.bigLen, d.bigLen != 0
}

// ImageByteOrder is xproto.ImageOrderLSBFirst or xproto.ImageOrderMSBFirst.
func (d *Display) ImageByteOrder() byte { return d.setup.ImageByteOrder }

func (d *Display) BitmapBitOrder() byte { return d.setup.BitmapFormatBitOrder }

// PixmapFormats lists the depths the server supports for images.
func (d *Display) PixmapFormats() []xproto.Format {
	return append([]xproto.Format(nil), d.setup.PixmapFormats...)
}

// ScreenCount is the number of screens.
func (d *Display) ScreenCount() int { return len(d.setup.Roots) }

// DefaultScreen returns the screen selected by the display name.
func (d *Display) DefaultScreen() *Screen {
	return &Screen{display: d, info: &d.setup.Roots[d.defaultScreen], number: d.defaultScreen}
}

// Screen returns screen n.
func (d *Display) Screen(n int) (*Screen, error) {
	if n < 0 || n >= len(d.setup.Roots) {
		return nil, xerrors.Errorf("screen %d of %d: %w", n, len(d.setup.Roots), ErrScreenOutOfRange)
	}
	return &Screen{display: d, info: &d.setup.Roots[n], number: n}, nil
}

// VisualFromID finds a visual on any screen.
func (d *Display) VisualFromID(id xproto.Visualid) (*Visual, error) {
	for _, screen := range d.setup.Roots {
		for _, depth := range screen.AllowedDepths {
			for _, v := range depth.Visuals {
				if v.VisualId == id {
					return newVisual(v, depth.Depth), nil
				}
			}
		}
	}
	return nil, xerrors.Errorf("visual 0x%x: %w", id, ErrVisualNotFound)
}

// NoOp sends a NoOperation request.
func (d *Display) NoOp() error {
	return d.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.NoOperation(c).Cookie
	})
}

// Flush exists for parity with Xlib. Requests are written as soon as they
// are made, so there is nothing to flush.
func (d *Display) Flush() error {
	return d.call(func(c *xgb.Conn) error { return nil })
}

// Sync makes a round trip to the server. Afterwards every error caused by
// an earlier request is in the error slot and every earlier event is
// queued.
func (d *Display) Sync() error {
	err := d.call(func(c *xgb.Conn) error {
		cookie := xproto.GetInputFocus(c)
		d.issued(cookie.Sequence)
		_, err := cookie.Reply()
		d.processed(cookie.Sequence)
		return err
	})
	if err != nil {
		return wrapError("sync", err)
	}
	d.drain()
	return nil
}

// CheckError returns the pending protocol error, if any, and empties the
// slot. It syncs first so errors of requests already made are seen.
func (d *Display) CheckError() *ErrorEvent {
	if err := d.Sync(); err != nil && !xerrors.Is(err, ErrDisplayClosed) {
		d.log.Printf("sync before error check failed: %v", err)
	}
	return d.errs.take()
}

// SendEvent asks the server to send ev to window. A zero mask sends it to
// the window's owner; otherwise it goes to clients selecting any of mask.
func (d *Display) SendEvent(window xproto.Window, propagate bool, mask EventMask, ev EventCreator) error {
	b, err := ev.EventBytes()
	if err != nil {
		return err
	}
	return d.request(func(c *xgb.Conn) *xgb.Cookie {
		return xproto.SendEvent(c, propagate, window, uint32(mask), string(b)).Cookie
	})
}

// stash handles one item read off the connection. Errors go to the slot.
func (d *Display) stash(ev xgb.Event, err xgb.Error) (Event, bool) {
	if err != nil {
		d.processed(err.SequenceId())
		if e, ok := newErrorEvent(err); ok {
			d.errs.put(e)
		} else {
			d.log.Printf("unexpected error value: %v", err)
		}
		return Event{}, false
	}
	e := newEvent(ev)
	if seq, ok := e.sequence(); ok {
		d.processed(seq)
	}
	return e, true
}

// drain moves everything already received into the local queue.
func (d *Display) drain() {
	for {
		ev, err := d.conn.PollForEvent()
		if ev == nil && err == nil {
			return
		}
		if e, ok := d.stash(ev, err); ok {
			d.mu.Lock()
			d.events.push(e)
			d.mu.Unlock()
		}
	}
}

func (d *Display) popQueued() (Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events.pop()
}

// EventsQueued counts queued events after doing the work mode asks for.
func (d *Display) EventsQueued(mode QueuedMode) (int, error) {
	switch mode {
	case QueuedAlready:
	case QueuedAfterReading, QueuedAfterFlush:
		if err := d.call(func(*xgb.Conn) error { return nil }); err != nil {
			return 0, err
		}
		d.drain()
	default:
		return 0, xerrors.Errorf("queued mode %d: %w", mode, ErrUnknownEnumValue)
	}
	if d.Closed() {
		return 0, ErrDisplayClosed
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events.len(), nil
}

// Pending is EventsQueued(QueuedAfterFlush).
func (d *Display) Pending() (int, error) { return d.EventsQueued(QueuedAfterFlush) }

// PollEvent returns the next event without blocking. ok is false when
// none has arrived.
func (d *Display) PollEvent() (Event, bool, error) {
	if d.Closed() {
		return Event{}, false, ErrDisplayClosed
	}
	if ev, ok := d.popQueued(); ok {
		return ev, true, nil
	}
	for {
		xev, xerr := d.conn.PollForEvent()
		if xev == nil && xerr == nil {
			return Event{}, false, nil
		}
		if ev, ok := d.stash(xev, xerr); ok {
			return ev, true, nil
		}
	}
}

// NextEvent blocks until an event arrives. Protocol errors read while
// waiting go to the error slot.
func (d *Display) NextEvent() (Event, error) {
	for {
		if d.Closed() {
			return Event{}, ErrDisplayClosed
		}
		if ev, ok := d.popQueued(); ok {
			return ev, nil
		}
		xev, xerr := d.conn.WaitForEvent()
		if xev == nil && xerr == nil {
			return Event{}, ErrConnectionClosed
		}
		if ev, ok := d.stash(xev, xerr); ok {
			return ev, nil
		}
	}
}
