// Package connectortest provides an in-memory connector for tests.
package connectortest

import (
	"context"
	"errors"
	"sync"

	"github.com/eugenetaranov/mangosctl/internal/connector"
)

// ErrNoReply is returned for commands without a scripted reply.
var ErrNoReply = errors.New("no scripted reply")

// Fake replies to commands from a fixed table and records what it was sent.
type Fake struct {
	mu       sync.Mutex
	replies  map[string]string
	errs     map[string]error
	commands []string

	// Fallback answers commands missing from the table. When nil, such
	// commands fail with ErrNoReply.
	Fallback func(cmd string) (string, error)

	Connected bool
	Closed    bool
}

var _ connector.Connector = (*Fake)(nil)

// New returns a fake that answers each command in replies.
func New(replies map[string]string) *Fake {
	if replies == nil {
		replies = make(map[string]string)
	}
	return &Fake{replies: replies, errs: make(map[string]error)}
}

// Reply sets the reply to cmd.
func (f *Fake) Reply(cmd, out string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[cmd] = out
	return f
}

// Fail makes cmd return err.
func (f *Fake) Fail(cmd string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[cmd] = err
	return f
}

// Commands returns the commands executed so far.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *Fake) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Connected = true
	return nil
}

func (f *Fake) Execute(ctx context.Context, cmd string) (*connector.Result, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	err, failed := f.errs[cmd]
	out, ok := f.replies[cmd]
	fallback := f.Fallback
	f.mu.Unlock()

	if failed {
		return nil, err
	}
	if !ok {
		if fallback == nil {
			return nil, ErrNoReply
		}
		var ferr error
		if out, ferr = fallback(cmd); ferr != nil {
			return nil, ferr
		}
	}
	return &connector.Result{Command: cmd, Output: out}, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

func (f *Fake) String() string {
	return "fake"
}
