// Package consoletest provides an in-process fake of the remote
// administration console for tests.
package consoletest

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Default credentials accepted by a Server.
const (
	Username = "admin"
	Password = "secret"
	Prompt   = "mangos>"
)

// Server speaks the console login and prompt protocol on 127.0.0.1.
//
// Replies are registered per command with Handle. Unknown commands get
// "There is no such command." like the real console.
type Server struct {
	listener net.Listener

	mu        sync.Mutex
	replies   map[string]string
	hangups   map[string]string
	commands  []string
	logins    []string
	newlines  int
	conns     []net.Conn
	rejectAll bool

	wg sync.WaitGroup
}

// NewServer starts a Server. It is closed when the test finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := &Server{
		listener: ln,
		replies:  make(map[string]string),
		hangups:  make(map[string]string),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.listener.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Handle registers the reply printed for cmd. Lines are sent with CRLF
// endings. cmd is matched after trimming surrounding whitespace.
func (s *Server) Handle(cmd, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[strings.TrimSpace(cmd)] = reply
}

// Hangup makes the server write partial and then drop the connection
// when cmd arrives, without printing a prompt.
func (s *Server) Hangup(cmd, partial string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hangups[strings.TrimSpace(cmd)] = partial
}

// RejectLogins makes every login fail with "-Wrong pass.".
func (s *Server) RejectLogins() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAll = true
}

// Push writes unsolicited text followed by a prompt to every open
// connection, like a broadcast arriving between commands.
func (s *Server) Push(text string) {
	s.mu.Lock()
	conns := append([]net.Conn(nil), s.conns...)
	s.mu.Unlock()
	for _, c := range conns {
		_, _ = c.Write([]byte(crlf(text) + Prompt))
	}
}

// Commands returns the non-empty command lines received so far, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Logins returns the raw username and password lines received.
func (s *Server) Logins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.logins...)
}

// Newlines returns how many bare newlines were received after login.
func (s *Server) Newlines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newlines
}

// Close stops the server and drops all connections.
func (s *Server) Close() {
	_ = s.listener.Close()
	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.serve(conn)
		}()
	}
}

func (s *Server) serve(conn net.Conn) {
	r := bufio.NewReader(conn)
	write := func(text string) bool {
		_, err := conn.Write([]byte(text))
		return err == nil
	}

	if !write("Username: ") {
		return
	}
	user, err := r.ReadString('\n')
	if err != nil {
		return
	}
	if !write("Password: ") {
		return
	}
	pass, err := r.ReadString('\n')
	if err != nil {
		return
	}

	s.mu.Lock()
	s.logins = append(s.logins, user, pass)
	reject := s.rejectAll
	s.mu.Unlock()

	if reject || strings.TrimSpace(user) != Username || strings.TrimSpace(pass) != Password {
		write("-Wrong pass.\r\nUsername: ")
		return
	}
	if !write("+Logged in.\r\n" + Prompt) {
		return
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		if cmd == "" {
			s.mu.Lock()
			s.newlines++
			s.mu.Unlock()
			if !write(Prompt) {
				return
			}
			continue
		}
		if cmd == "quit" {
			return
		}

		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		reply, ok := s.replies[cmd]
		partial, hangup := s.hangups[cmd]
		s.mu.Unlock()

		if hangup {
			write(crlf(partial))
			return
		}
		if !ok {
			reply = "There is no such command.\n"
		}
		if !write(crlf(reply) + Prompt) {
			return
		}
	}
}

func crlf(text string) string {
	return strings.ReplaceAll(text, "\n", "\r\n")
}
