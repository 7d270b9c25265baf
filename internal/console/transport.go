package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"
)

// Transport is a bidirectional byte stream to one console endpoint.
//
// Implementations are not safe for concurrent readers; Session serializes
// all access except Close, which may be called from any goroutine to abort
// a pending read.
type Transport interface {
	// ReadUntil blocks until one of markers has been read and returns
	// everything up to and including it. A zero timeout blocks forever.
	// On timeout it returns the bytes read so far together with
	// ErrReadTimeout. Bytes past the marker stay buffered.
	ReadUntil(timeout time.Duration, markers ...[]byte) ([]byte, error)

	// Write sends p in full.
	Write(p []byte) error

	// Alive probes the underlying socket without consuming data.
	Alive() bool

	// Close releases the stream. Pending reads fail. Safe to call twice.
	Close() error
}

// Dialer opens a Transport to address.
type Dialer func(ctx context.Context, address string, timeout time.Duration) (Transport, error)

// DialTCP is the default Dialer.
func DialTCP(ctx context.Context, address string, timeout time.Duration) (Transport, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewTransport(conn), nil
}

const (
	readChunk  = 4096
	probeDelay = time.Millisecond
)

type connTransport struct {
	conn    net.Conn
	pending []byte
	chunk   []byte
	telnet  telnetFilter
	closed  atomic.Bool
}

// NewTransport wraps an established connection. Telnet option negotiation
// sent by the remote is stripped from the inbound stream.
func NewTransport(conn net.Conn) Transport {
	return &connTransport{
		conn:  conn,
		chunk: make([]byte, readChunk),
	}
}

func (t *connTransport) ReadUntil(timeout time.Duration, markers ...[]byte) ([]byte, error) {
	if t.closed.Load() {
		return nil, net.ErrClosed
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	for {
		if end := matchEnd(t.pending, markers); end >= 0 {
			out := make([]byte, end)
			copy(out, t.pending[:end])
			t.pending = append(t.pending[:0], t.pending[end:]...)
			return out, nil
		}

		n, err := t.conn.Read(t.chunk)
		if n > 0 {
			t.pending = t.telnet.filter(t.pending, t.chunk[:n])
		}
		if err != nil {
			out := t.pending
			t.pending = nil
			if isTimeout(err) {
				return out, ErrReadTimeout
			}
			return out, err
		}
	}
}

func (t *connTransport) Write(p []byte) error {
	if t.closed.Load() {
		return net.ErrClosed
	}
	if err := t.conn.SetWriteDeadline(time.Time{}); err != nil {
		return err
	}
	_, err := t.conn.Write(p)
	return err
}

func (t *connTransport) Alive() bool {
	if t.closed.Load() {
		return false
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(probeDelay)); err != nil {
		return false
	}
	defer t.conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	n, err := t.conn.Read(t.chunk)
	if n > 0 {
		t.pending = t.telnet.filter(t.pending, t.chunk[:n])
	}
	if err == nil || isTimeout(err) {
		return true
	}
	return false
}

func (t *connTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	return t.conn.Close()
}

// matchEnd returns the end offset of the earliest marker occurrence in buf,
// or -1 when none is present.
func matchEnd(buf []byte, markers [][]byte) int {
	best := -1
	for _, m := range markers {
		if len(m) == 0 {
			continue
		}
		if i := bytes.Index(buf, m); i >= 0 {
			if end := i + len(m); best < 0 || end < best {
				best = end
			}
		}
	}
	return best
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// closedErr reports whether err means the stream is gone.
func closedErr(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// Telnet command bytes.
const (
	iac  = 255
	dont = 254
	do   = 253
	wont = 252
	will = 251
	sb   = 250
	se   = 240
)

type telnetState uint8

const (
	tsData telnetState = iota
	tsIAC
	tsOption
	tsSub
	tsSubIAC
)

// telnetFilter removes IAC sequences. It keeps state across chunks so a
// sequence split between two reads is still recognised.
type telnetFilter struct {
	state telnetState
}

func (f *telnetFilter) filter(dst, src []byte) []byte {
	for _, b := range src {
		switch f.state {
		case tsData:
			if b == iac {
				f.state = tsIAC
				continue
			}
			dst = append(dst, b)
		case tsIAC:
			switch {
			case b == iac:
				dst = append(dst, iac)
				f.state = tsData
			case b >= will && b <= dont:
				f.state = tsOption
			case b == sb:
				f.state = tsSub
			default:
				f.state = tsData
			}
		case tsOption:
			f.state = tsData
		case tsSub:
			if b == iac {
				f.state = tsSubIAC
			}
		case tsSubIAC:
			if b == se {
				f.state = tsData
			} else {
				f.state = tsSub
			}
		}
	}
	return dst
}
