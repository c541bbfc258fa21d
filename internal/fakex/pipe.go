package fakex

import (
	"bytes"
	"io"
	"net"
	"time"

	"golang.org/x/xerrors"
)

type pipeAddr string

func (pipeAddr) Network() string  { return "fakex" }
func (a pipeAddr) String() string { return string(a) }

var (
	ErrNotImplemented = xerrors.New("fakex: not implemented")
	ErrClosed         = xerrors.New("fakex: server closed")
	ErrWrite          = xerrors.New("fakex: server write failed")
	ErrRead           = xerrors.New("fakex: server read failed")
)

type ioResult struct {
	n   int
	err error
}

type ioRequest struct {
	b      []byte
	result chan ioResult
}

type (
	writeLock    struct{}
	writeUnlock  struct{}
	writeError   struct{}
	writeSuccess struct{}
	readLock     struct{}
	readUnlock   struct{}
	readError    struct{}
	readSuccess  struct{}
)

// pipe is an in-memory net.Conn. Every successful Write is handed to
// respond and whatever it returns becomes readable.
type pipe struct {
	respond func([]byte) []byte
	addr    pipeAddr
	in, out chan ioRequest
	control chan interface{}
	done    chan struct{}
}

func newPipe(name string, respond func([]byte) []byte) *pipe {
	p := &pipe{
		respond: respond,
		addr:    pipeAddr(name),
		in:      make(chan ioRequest),
		out:     make(chan ioRequest),
		control: make(chan interface{}),
		done:    make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *pipe) loop() {
	defer close(p.done)

	in, out := p.in, chan ioRequest(nil)
	buf := &bytes.Buffer{}
	failRead, failWrite, lockedRead := false, false, false

	for {
		select {
		case req := <-in:
			if failWrite {
				req.result <- ioResult{0, ErrWrite}
				break
			}
			buf.Write(p.respond(req.b))
			req.result <- ioResult{len(req.b), nil}
			if !lockedRead && buf.Len() > 0 {
				out = p.out
			}
		case req := <-out:
			if failRead {
				req.result <- ioResult{0, ErrRead}
				break
			}
			n, err := buf.Read(req.b)
			req.result <- ioResult{n, err}
			if buf.Len() == 0 {
				out = nil
			}
		case c := <-p.control:
			switch c.(type) {
			case nil:
				return
			case writeLock:
				in = nil
			case writeUnlock:
				in = p.in
			case writeError:
				failWrite = true
			case writeSuccess:
				failWrite = false
			case readLock:
				out, lockedRead = nil, true
			case readUnlock:
				lockedRead = false
				if buf.Len() > 0 {
					out = p.out
				}
			case readError:
				failRead = true
				out = p.out
			case readSuccess:
				failRead = false
				if buf.Len() == 0 {
					out = nil
				}
			}
		}
	}
}

// Close stops the pipe. Pending and later reads return io.EOF, writes
// return ErrClosed. A second Close returns ErrClosed.
func (p *pipe) Close() error {
	select {
	case p.control <- nil:
		<-p.done
		return nil
	case <-p.done:
	}
	return ErrClosed
}

// Write blocks while writes are locked.
func (p *pipe) Write(b []byte) (int, error) {
	res := make(chan ioResult)
	select {
	case p.in <- ioRequest{b, res}:
		r := <-res
		return r.n, r.err
	case <-p.done:
	}
	return 0, ErrClosed
}

// Read blocks while reads are locked or nothing is buffered.
func (p *pipe) Read(b []byte) (int, error) {
	res := make(chan ioResult)
	select {
	case p.out <- ioRequest{b, res}:
		r := <-res
		return r.n, r.err
	case <-p.done:
	}
	return 0, io.EOF
}

func (p *pipe) LocalAddr() net.Addr                { return p.addr }
func (p *pipe) RemoteAddr() net.Addr               { return p.addr }
func (p *pipe) SetDeadline(t time.Time) error      { return ErrNotImplemented }
func (p *pipe) SetReadDeadline(t time.Time) error  { return ErrNotImplemented }
func (p *pipe) SetWriteDeadline(t time.Time) error { return ErrNotImplemented }

func (p *pipe) send(c interface{}) error {
	select {
	case p.control <- c:
		return nil
	case <-p.done:
	}
	return ErrClosed
}

// WriteLock makes writes block until WriteUnlock or Close.
func (p *pipe) WriteLock() error { return p.send(writeLock{}) }

func (p *pipe) WriteUnlock() error { return p.send(writeUnlock{}) }

// WriteError makes every write fail with ErrWrite.
func (p *pipe) WriteError() error {
	if err := p.WriteUnlock(); err != nil {
		return err
	}
	return p.send(writeError{})
}

func (p *pipe) WriteSuccess() error {
	if err := p.WriteUnlock(); err != nil {
		return err
	}
	return p.send(writeSuccess{})
}

// ReadLock makes reads block even when data is buffered.
func (p *pipe) ReadLock() error { return p.send(readLock{}) }

func (p *pipe) ReadUnlock() error { return p.send(readUnlock{}) }

// ReadError makes blocked and later reads fail with ErrRead.
func (p *pipe) ReadError() error {
	if err := p.ReadUnlock(); err != nil {
		return err
	}
	return p.send(readError{})
}

func (p *pipe) ReadSuccess() error {
	if err := p.ReadUnlock(); err != nil {
		return err
	}
	return p.send(readSuccess{})
}
