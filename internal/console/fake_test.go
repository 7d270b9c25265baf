package console

import (
	"bytes"
	"context"
	"net"
	"sync"
	"time"
)

// scriptedTransport is an in-memory console. respond maps each written
// line to the bytes the console prints next. A blocking read with nothing
// to return waits until Close.
type scriptedTransport struct {
	mu      sync.Mutex
	in      []byte
	writes  []string
	respond func(line string) string
	wake    chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func newScriptedTransport(greeting string, respond func(line string) string) *scriptedTransport {
	return &scriptedTransport{
		in:      []byte(greeting),
		respond: respond,
		wake:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

// loginScript accepts admin/secret and answers blank lines with a prompt.
// Other lines are looked up in replies.
func loginScript(replies map[string]string) func(string) string {
	return func(line string) string {
		switch line {
		case "admin \n":
			return "Password: "
		case "secret \n":
			return "+Logged in.\r\nmangos>"
		case "\n":
			return "mangos>"
		case "quit \n":
			return ""
		}
		return replies[line]
	}
}

func (s *scriptedTransport) dialer() Dialer {
	return func(context.Context, string, time.Duration) (Transport, error) {
		return s, nil
	}
}

func (s *scriptedTransport) feed(text string) {
	s.mu.Lock()
	s.in = append(s.in, text...)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *scriptedTransport) ReadUntil(timeout time.Duration, markers ...[]byte) ([]byte, error) {
	var expire <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expire = timer.C
	}
	for {
		s.mu.Lock()
		if end := matchEnd(s.in, markers); end >= 0 {
			out := append([]byte(nil), s.in[:end]...)
			s.in = s.in[end:]
			s.mu.Unlock()
			return out, nil
		}
		s.mu.Unlock()

		select {
		case <-s.closed:
			return nil, net.ErrClosed
		case <-expire:
			s.mu.Lock()
			out := s.in
			s.in = nil
			s.mu.Unlock()
			return out, ErrReadTimeout
		case <-s.wake:
		}
	}
}

func (s *scriptedTransport) Write(p []byte) error {
	select {
	case <-s.closed:
		return net.ErrClosed
	default:
	}
	s.mu.Lock()
	s.writes = append(s.writes, string(p))
	reply := s.respond(string(p))
	s.mu.Unlock()
	if reply != "" {
		s.feed(reply)
	}
	return nil
}

func (s *scriptedTransport) Alive() bool {
	select {
	case <-s.closed:
		return false
	default:
		return true
	}
}

func (s *scriptedTransport) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *scriptedTransport) written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}

func (s *scriptedTransport) count(line string) int {
	n := 0
	for _, w := range s.written() {
		if w == line {
			n++
		}
	}
	return n
}

func (s *scriptedTransport) pending() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.in)
}
