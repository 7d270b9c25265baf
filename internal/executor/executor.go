// Package executor runs runbooks against consoles.
package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/output"
	"github.com/eugenetaranov/mangosctl/internal/runbook"
)

// ConnectorFactory returns a new, unconnected connector for a console
// profile. Every play gets its own connector.
type ConnectorFactory func(profile string) (connector.Connector, error)

// Executor runs runbooks. Set the exported fields before calling Run.
type Executor struct {
	Output *output.Output
	Logger *log.Logger

	// DryRun renders and prints every task without connecting.
	DryRun bool
	// Debug shows task details and console replies.
	Debug bool
	// ExtraVars override play vars in every play.
	ExtraVars map[string]any

	connect ConnectorFactory
}

// New returns an executor that prints to stdout and logs nowhere.
func New(connect ConnectorFactory) *Executor {
	return &Executor{
		Output:  output.New(os.Stdout),
		Logger:  log.New(io.Discard),
		connect: connect,
	}
}

// RunResult is the outcome of one runbook run.
type RunResult struct {
	ID      string // tags every log record of the run
	Success bool
	Stats   *Stats
}

// Stats counts task outcomes across a run.
type Stats struct {
	Plays, Tasks                 int
	OK, Changed, Failed, Skipped int

	Started, Finished time.Time
}

func (s *Stats) count(status output.Status) {
	switch status {
	case output.StatusOK:
		s.OK++
	case output.StatusChanged:
		s.Changed++
	case output.StatusSkipped:
		s.Skipped++
	}
}

// Duration is the wall time of the run.
func (s *Stats) Duration() time.Duration { return s.Finished.Sub(s.Started) }

func (s *Stats) GetOK() int                 { return s.OK }
func (s *Stats) GetChanged() int            { return s.Changed }
func (s *Stats) GetFailed() int             { return s.Failed }
func (s *Stats) GetSkipped() int            { return s.Skipped }
func (s *Stats) GetDuration() time.Duration { return s.Duration() }

// Run executes the plays of rb in order and stops at the first failed
// play. Play failures are reported in the result; the error is kept for
// problems with the executor itself.
func (e *Executor) Run(ctx context.Context, rb *runbook.Runbook) (*RunResult, error) {
	if e.connect == nil {
		return nil, errors.New("executor has no connector factory")
	}

	res := &RunResult{
		ID:      uuid.NewString(),
		Success: true,
		Stats:   &Stats{Plays: len(rb.Plays), Started: time.Now()},
	}
	logger := e.Logger.With("run", res.ID)
	logger.Info("runbook started", "path", rb.Path, "plays", len(rb.Plays), "dry_run", e.DryRun)

	if e.Debug {
		e.Output.SetDebug(true)
	}
	e.Output.Runbook(rb.Path)

	for _, play := range rb.Plays {
		pr := &playRun{
			exec:   e,
			play:   play,
			stats:  res.Stats,
			logger: logger.With("console", play.GetConsole()),
			scope:  e.scopeFor(play),
			notify: make(map[string]bool),
		}
		if err := pr.run(ctx); err != nil {
			res.Success = false
			logger.Error("play failed", "play", play.Name, "console", play.GetConsole(), "err", err)
			e.Output.Error("Play failed: %v", err)
			break
		}
	}

	res.Stats.Finished = time.Now()
	e.Output.Recap(res.Stats)
	logger.Info("runbook finished",
		"success", res.Success,
		"changed", res.Stats.Changed,
		"failed", res.Stats.Failed,
		"duration", res.Stats.Duration())

	return res, nil
}

// scopeFor builds a play's variables. Later sources win: play vars,
// extra vars, then the process environment under "env".
func (e *Executor) scopeFor(play *runbook.Play) *Scope {
	sc := &Scope{
		Vars:       make(map[string]any, len(play.Vars)+len(e.ExtraVars)+1),
		Registered: make(map[string]any),
	}
	for k, v := range play.Vars {
		sc.Vars[k] = v
	}
	for k, v := range e.ExtraVars {
		sc.Vars[k] = v
	}
	sc.Vars["env"] = environ()
	return sc
}

// environ returns the process environment as a map.
func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
