// Package ra provides a connector for the CMaNGOS remote access console.
package ra

import (
	"context"
	"time"

	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/console"
)

// Connector runs commands on one console session.
type Connector struct {
	session *console.Session
}

var _ connector.Connector = (*Connector)(nil)

// New creates a connector with its own session. Nothing is dialed until
// Connect.
func New(cfg console.Config, opts ...console.Option) *Connector {
	return &Connector{session: console.NewSession(cfg, opts...)}
}

// Wrap adapts an existing session.
func Wrap(s *console.Session) *Connector {
	return &Connector{session: s}
}

// Session returns the underlying console session.
func (c *Connector) Session() *console.Session {
	return c.session
}

// Connect opens and authenticates the session.
func (c *Connector) Connect(ctx context.Context) error {
	return c.session.Open(ctx)
}

// Execute runs a command line on the console.
func (c *Connector) Execute(ctx context.Context, cmd string) (*connector.Result, error) {
	start := time.Now()
	out, err := c.session.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return &connector.Result{
		Command:  cmd,
		Output:   out,
		Duration: time.Since(start),
	}, nil
}

// Close logs out and releases the session.
func (c *Connector) Close() error {
	return c.session.Close()
}

// String returns the console endpoint.
func (c *Connector) String() string {
	return c.session.String()
}
