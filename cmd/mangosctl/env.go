package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/eugenetaranov/mangosctl/internal/config"
	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/connector/ra"
	"github.com/eugenetaranov/mangosctl/internal/console"
	"github.com/eugenetaranov/mangosctl/internal/executor"
	"github.com/eugenetaranov/mangosctl/internal/logging"
	"github.com/eugenetaranov/mangosctl/internal/output"
	"github.com/eugenetaranov/mangosctl/internal/runbook"
)

// cliEnv holds what every console-facing command needs.
type cliEnv struct {
	cfg    *config.Config
	logger *log.Logger
	out    *output.Output

	mu        sync.Mutex
	passwords map[string]string
}

// loadEnv reads the config and builds the logger from the global flags.
func loadEnv() (*cliEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", cfg.Path, err)
	}
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path, "consoles", cfg.Names())
	}

	out := output.New(os.Stdout)
	if noColor {
		out.SetColor(false)
	}
	out.SetDebug(debug)

	return &cliEnv{
		cfg:       cfg,
		logger:    logger,
		out:       out,
		passwords: make(map[string]string),
	}, nil
}

// profile resolves a console profile, prompting for a missing password
// when stdin is a terminal. Prompted passwords are reused per profile.
func (e *cliEnv) profile(name string) (config.Profile, error) {
	p, err := e.cfg.Profile(name)
	if err != nil {
		return config.Profile{}, err
	}
	if p.Password != "" {
		return p, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if pw, ok := e.passwords[name]; ok {
		p.Password = pw
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p, nil
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", p.Username, p.Console().Address())
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return config.Profile{}, fmt.Errorf("failed to read password: %w", err)
	}
	p.Password = string(pw)
	e.passwords[name] = p.Password
	return p, nil
}

// connector creates an unconnected console connector for a profile.
func (e *cliEnv) connector(name string) (*ra.Connector, error) {
	p, err := e.profile(name)
	if err != nil {
		return nil, err
	}
	return ra.New(p.Console(), console.WithLogger(e.logger.With("console", name))), nil
}

// connectorFactory hands the executor one connector per play. override,
// when set, replaces the default profile of plays that name none.
func (e *cliEnv) connectorFactory(override string) executor.ConnectorFactory {
	return func(name string) (connector.Connector, error) {
		if override != "" && (name == "" || name == runbook.DefaultConsole) {
			name = override
		}
		return e.connector(name)
	}
}
