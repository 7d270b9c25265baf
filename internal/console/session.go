// Package console drives a CMaNGOS-style remote administration console over
// a raw stream socket: connect, log in, keep the prompt synchronized and run
// one command at a time.
package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Protocol defaults.
const (
	DefaultPrompt        = "mangos>"
	DefaultFlushTimeout  = 200 * time.Millisecond
	DefaultDialTimeout   = 5 * time.Second
	DefaultLoginTimeout  = 10 * time.Second
	DefaultLogoutCommand = "quit"

	UsernamePrompt = "Username:"
	PasswordPrompt = "Password:"
)

// Replies that mean the console refused the login.
var loginRejections = []string{
	"-No such user",
	"-Wrong pass",
	"-Not enough privileges",
	"Invalid",
}

// Config holds the connection parameters for one Session.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// Prompt is the literal marker that ends every console reply.
	Prompt string

	// FlushTimeout bounds the first read of the prompt flush.
	FlushTimeout time.Duration

	DialTimeout  time.Duration
	LoginTimeout time.Duration

	// LogoutCommand is sent by Close. No reply is read.
	LogoutCommand string
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) withDefaults() Config {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = DefaultFlushTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = DefaultLoginTimeout
	}
	if c.LogoutCommand == "" {
		c.LogoutCommand = DefaultLogoutCommand
	}
	return c
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Sessions log nothing by default.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDialer replaces the TCP dialer, e.g. with an in-memory transport.
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		if d != nil {
			s.dial = d
		}
	}
}

// Session is one authenticated operator connection to the console.
//
// A Session runs at most one exchange at a time; concurrent callers are
// serialized. Once a fatal error occurs the Session is Failed and every
// later exchange fails fast. A Closed Session cannot be reopened.
type Session struct {
	cfg    Config
	prompt []byte
	logger *log.Logger
	dial   Dialer

	// mu serializes exchanges on the stream.
	mu sync.Mutex

	connMu    sync.Mutex
	transport Transport
	failure   error

	state     atomic.Int32
	closeOnce sync.Once
}

// NewSession creates a disconnected Session. Nothing is dialed until
// Connect or Open.
func NewSession(cfg Config, opts ...Option) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:    cfg,
		prompt: []byte(cfg.Prompt),
		logger: log.New(io.Discard),
		dial:   DialTCP,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("console", cfg.Address())
	return s
}

// State returns the current connection state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// String returns a description of the session endpoint.
func (s *Session) String() string {
	return fmt.Sprintf("console://%s@%s", s.cfg.Username, s.cfg.Address())
}

// Open connects and logs in. It is what callers normally use.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return err
	}
	return s.loginLocked(ctx)
}

// Connect opens the transport. When a transport is already open and its
// socket is alive, Connect does nothing.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Session) connectLocked(ctx context.Context) error {
	switch s.State() {
	case StateClosed:
		return ErrSessionClosed
	case StateFailed:
		return s.failedErr("connect")
	}

	if t := s.currentTransport(); t != nil {
		if t.Alive() {
			return nil
		}
		s.logger.Warn("console connection lost, redialing")
		_ = t.Close()
		s.setTransport(nil)
	}

	s.setState(StateConnecting)
	t, err := s.dial(ctx, s.cfg.Address(), s.cfg.DialTimeout)
	if err != nil {
		return s.fail(&ConnectionError{
			Address: s.cfg.Address(),
			Message: "dial failed",
			Cause:   err,
		})
	}
	if !s.setTransport(t) {
		_ = t.Close()
		return ErrSessionClosed
	}
	s.setState(StateAwaitingUsername)
	s.logger.Info("connected")
	return nil
}

// Login performs the username/password handshake and synchronizes the
// prompt. It is a no-op on a session that is already logged in.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginLocked(ctx)
}

func (s *Session) loginLocked(ctx context.Context) error {
	switch st := s.State(); st {
	case StateAuthenticated, StatePromptReady:
		return nil
	case StateClosed:
		return ErrSessionClosed
	case StateFailed:
		return s.failedErr("login")
	case StateAwaitingUsername:
	default:
		return fmt.Errorf("login in state %s: %w", st, ErrNotConnected)
	}

	t := s.currentTransport()
	user := s.cfg.Username
	timeout := s.cfg.LoginTimeout

	if _, err := s.read(ctx, t, timeout, []byte(UsernamePrompt)); err != nil {
		return s.fail(&AuthenticationError{User: user, Message: "username prompt not observed", Cause: err})
	}
	if err := t.Write(credentialLine(user)); err != nil {
		return s.fail(&ConnectionError{Address: s.cfg.Address(), Message: "write username", Cause: err})
	}
	s.setState(StateAwaitingPassword)

	reply, err := s.read(ctx, t, timeout, []byte(PasswordPrompt), []byte(UsernamePrompt))
	if err != nil {
		return s.fail(&AuthenticationError{User: user, Message: rejection(reply, "password prompt not observed"), Cause: err})
	}
	if bytes.HasSuffix(reply, []byte(UsernamePrompt)) {
		return s.fail(&AuthenticationError{User: user, Message: rejection(reply, "username rejected")})
	}
	if err := t.Write(credentialLine(s.cfg.Password)); err != nil {
		return s.fail(&ConnectionError{Address: s.cfg.Address(), Message: "write password", Cause: err})
	}

	reply, err = s.read(ctx, t, timeout, s.prompt, []byte(UsernamePrompt))
	if err != nil {
		return s.fail(&AuthenticationError{User: user, Message: rejection(reply, "prompt not observed after login"), Cause: err})
	}
	if bytes.HasSuffix(reply, []byte(UsernamePrompt)) {
		return s.fail(&AuthenticationError{User: user, Message: rejection(reply, "credentials rejected")})
	}
	s.setState(StateAuthenticated)
	s.logger.Info("logged in", "user", user)

	return s.syncLocked(ctx)
}

// SyncPrompt discards stale output so the next read starts at a clean
// prompt boundary: a short bounded read for whatever is buffered, then a
// bare newline, then a blocking read up to the re-emitted prompt. Exactly
// one newline is written per call.
func (s *Session) SyncPrompt(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable("sync"); err != nil {
		return err
	}
	return s.syncLocked(ctx)
}

func (s *Session) syncLocked(ctx context.Context) error {
	t := s.currentTransport()

	stale, err := s.read(ctx, t, s.cfg.FlushTimeout, s.prompt)
	if err != nil && !errors.Is(err, ErrReadTimeout) {
		return s.fail(&ProtocolError{Op: "sync", Message: "flush read failed", Cause: err})
	}
	if len(bytes.TrimSpace(bytes.TrimSuffix(stale, s.prompt))) > 0 {
		s.logger.Debug("discarded stale console output", "bytes", len(stale))
	}

	if err := t.Write([]byte("\n")); err != nil {
		return s.fail(&ProtocolError{Op: "sync", Message: "write newline", Cause: err})
	}
	if _, err := s.read(ctx, t, 0, s.prompt); err != nil {
		return s.fail(&ProtocolError{Op: "sync", Message: readFailure(err), Cause: err})
	}
	s.setState(StatePromptReady)
	return nil
}

// Close sends the logout command and releases the transport. Repeated calls
// return nil. Close may be called while an exchange is blocked; the pending
// read then fails with a ProtocolError.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		prev := s.State()
		s.setState(StateClosed)

		s.connMu.Lock()
		t := s.transport
		s.transport = nil
		s.connMu.Unlock()
		if t == nil {
			return
		}

		// The logout line is only polite when no exchange owns the stream.
		if prev != StateFailed && s.mu.TryLock() {
			if werr := t.Write(credentialLine(s.cfg.LogoutCommand)); werr != nil {
				s.logger.Debug("logout write failed", "err", werr)
			}
			s.mu.Unlock()
		}
		err = t.Close()
		s.logger.Info("closed")
	})
	return err
}

// read runs one bounded or blocking read. Cancelling ctx closes the
// transport, which fails the read.
func (s *Session) read(ctx context.Context, t Transport, timeout time.Duration, markers ...[]byte) ([]byte, error) {
	if t == nil {
		return nil, ErrNotConnected
	}
	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	data, err := t.ReadUntil(timeout, markers...)
	if err != nil && ctx.Err() != nil {
		return data, fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return data, err
}

// usable checks the state before an exchange.
func (s *Session) usable(op string) error {
	switch st := s.State(); st {
	case StateAuthenticated, StatePromptReady:
		return nil
	case StateClosed:
		return ErrSessionClosed
	case StateFailed:
		return s.failedErr(op)
	default:
		return fmt.Errorf("%s in state %s: %w", op, st, ErrNotConnected)
	}
}

// fail records err and moves the session to Failed. The transport is
// closed because its position in the stream is unknown.
func (s *Session) fail(err error) error {
	s.connMu.Lock()
	if s.failure == nil {
		s.failure = err
	}
	t := s.transport
	s.connMu.Unlock()

	s.setState(StateFailed)
	if t != nil {
		_ = t.Close()
	}
	s.logger.Error("console session failed", "err", err)
	return err
}

func (s *Session) failedErr(op string) error {
	s.connMu.Lock()
	cause := s.failure
	s.connMu.Unlock()
	msg := "session unusable after earlier failure"
	if cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, cause)
	}
	return &ProtocolError{Op: op, Message: msg, Cause: ErrSessionFailed}
}

func (s *Session) currentTransport() Transport {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.transport
}

// setTransport installs t unless the session was closed meanwhile.
func (s *Session) setTransport(t Transport) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if t != nil && s.State() == StateClosed {
		return false
	}
	s.transport = t
	return true
}

// setState moves to next. Closed is final and Failed only leads to Closed.
func (s *Session) setState(next State) {
	for {
		cur := State(s.state.Load())
		if cur == next || cur == StateClosed {
			return
		}
		if cur == StateFailed && next != StateClosed {
			return
		}
		if s.state.CompareAndSwap(int32(cur), int32(next)) {
			s.logger.Debug("state", "from", cur, "to", next)
			return
		}
	}
}

// credentialLine frames a login or logout line the way the console's
// tokenizer expects: trailing space, then newline.
func credentialLine(s string) []byte {
	return []byte(s + " \n")
}

func rejection(reply []byte, fallback string) string {
	for _, phrase := range loginRejections {
		if bytes.Contains(reply, []byte(phrase)) {
			return "console replied " + strconv.Quote(phrase)
		}
	}
	return fallback
}

func readFailure(err error) string {
	switch {
	case errors.Is(err, ErrReadTimeout):
		return "timed out waiting for prompt"
	case closedErr(err):
		return "stream closed before prompt"
	default:
		return "read failed"
	}
}
