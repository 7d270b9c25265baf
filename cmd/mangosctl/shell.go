package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/console"
	"github.com/eugenetaranov/mangosctl/internal/output"
)

const (
	historyFileName = ".mangosctl_history"
	historySize     = 500
)

// shellCmd opens an interactive console
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive console",
	Long: `Connect to a console and read commands interactively, with history.
Type "exit" or "quit", or press Ctrl-D, to leave.

When stdin is not a terminal, commands are read one per line:
  echo "server info" | mangosctl shell`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(func(ctx context.Context, env *cliEnv, conn connector.Connector) error {
			le := newLineEditor()
			defer le.Close()

			if le.interactive {
				env.out.Info("Connected to %s. Type \"exit\" to leave.", conn.String())
			}
			return runShell(ctx, conn, le, env.out, conn.String()+"> ")
		})
	},
}

// lineReader yields one command line per call and io.EOF when input ends.
type lineReader interface {
	GetLine(prompt string) (string, error)
}

// runShell sends each line to the console and prints the reply. Refused
// or unanswered commands are reported and the loop continues; errors that
// leave the session unusable end it.
func runShell(ctx context.Context, conn connector.Connector, in lineReader, out *output.Output, prompt string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := in.GetLine(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		res, err := conn.Execute(ctx, line)
		if err != nil {
			if console.IsFatal(err) || ctx.Err() != nil {
				return err
			}
			out.Error("%v", err)
			continue
		}
		out.Reply(res.Output)
	}
}

// lineEditor reads lines with readline on a terminal and a scanner
// otherwise.
type lineEditor struct {
	interactive bool
	rl          *readline.Instance
	scanner     *bufio.Scanner
}

func newLineEditor() *lineEditor {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return &lineEditor{scanner: bufio.NewScanner(os.Stdin)}
	}

	cfg := &readline.Config{
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.HistoryFile = filepath.Join(home, historyFileName)
	}

	rl, err := readline.NewFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return &lineEditor{scanner: bufio.NewScanner(os.Stdin)}
	}
	return &lineEditor{interactive: true, rl: rl}
}

func (le *lineEditor) GetLine(prompt string) (string, error) {
	if !le.interactive {
		if !le.scanner.Scan() {
			if err := le.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return le.scanner.Text(), nil
	}

	le.rl.SetPrompt(prompt)
	line, err := le.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", io.EOF
		}
		return "", err
	}
	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (le *lineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}
