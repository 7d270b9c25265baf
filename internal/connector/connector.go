// Package connector defines the interface for running commands on a console.
package connector

import (
	"context"
	"time"
)

// Result holds the reply to one command.
type Result struct {
	Command  string
	Output   string
	Duration time.Duration
}

// Connector is the interface for connecting to and running commands on a
// console.
type Connector interface {
	// Connect establishes and authenticates the connection.
	Connect(ctx context.Context) error

	// Execute runs a command line and returns the reply.
	Execute(ctx context.Context, cmd string) (*Result, error)

	// Close terminates the connection.
	Close() error

	// String returns a human-readable description of the connection.
	String() string
}
