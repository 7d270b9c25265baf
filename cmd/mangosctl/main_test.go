package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenetaranov/mangosctl/internal/connector/connectortest"
	"github.com/eugenetaranov/mangosctl/internal/console"
	"github.com/eugenetaranov/mangosctl/internal/output"
)

func TestParseExtraVars(t *testing.T) {
	vars, err := parseExtraVars([]string{"delay=600", "motd=Back soon = promise"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"delay": "600", "motd": "Back soon = promise"}, vars)

	_, err = parseExtraVars([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseExtraVars([]string{"=x"})
	assert.Error(t, err)
}

// scriptedLines feeds fixed lines, then io.EOF.
type scriptedLines []string

func (s *scriptedLines) GetLine(string) (string, error) {
	if len(*s) == 0 {
		return "", io.EOF
	}
	line := (*s)[0]
	*s = (*s)[1:]
	return line, nil
}

func newShellOutput() (*output.Output, *bytes.Buffer) {
	var buf bytes.Buffer
	out := output.New(&buf)
	out.SetColor(false)
	return out, &buf
}

func TestRunShell(t *testing.T) {
	conn := connectortest.New(map[string]string{
		"server info": "Players online: 3\n",
	})
	out, buf := newShellOutput()
	lines := scriptedLines{"", "  server info  ", "bogus", "quit", "never sent"}

	err := runShell(context.Background(), conn, &lines, out, "> ")
	require.NoError(t, err)

	assert.Equal(t, []string{"server info", "bogus"}, conn.Commands())
	assert.Contains(t, buf.String(), "Players online: 3")
	assert.Contains(t, buf.String(), "no scripted reply")
}

func TestRunShellFatalErrorEnds(t *testing.T) {
	conn := connectortest.New(nil).
		Fail("saveall", &console.ProtocolError{Op: "execute", Message: "prompt not observed"})
	out, _ := newShellOutput()
	lines := scriptedLines{"saveall", "server info"}

	err := runShell(context.Background(), conn, &lines, out, "> ")
	require.Error(t, err)
	assert.True(t, console.IsFatal(err))
	assert.Equal(t, []string{"saveall"}, conn.Commands())
}

func TestRunShellEOF(t *testing.T) {
	conn := connectortest.New(nil)
	out, _ := newShellOutput()
	var lines scriptedLines

	assert.NoError(t, runShell(context.Background(), conn, &lines, out, "> "))
	assert.Empty(t, conn.Commands())
}

func TestRunShellCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := connectortest.New(nil)
	out, _ := newShellOutput()
	lines := scriptedLines{"server info"}

	assert.ErrorIs(t, runShell(ctx, conn, &lines, out, "> "), context.Canceled)
}

func TestScheduleInvalidSpec(t *testing.T) {
	err := schedule(context.Background(), "every tuesday", log.New(io.Discard), func(context.Context) {})
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestScheduleRunsUntilCancelled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping scheduler timing test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 8)

	done := make(chan error, 1)
	go func() {
		done <- schedule(ctx, "@every 1s", log.New(io.Discard), func(context.Context) {
			runs <- struct{}{}
		})
	}()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job never ran")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestValidateRunbooks(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "save.yaml")
	bad := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(good, []byte("tasks:\n  - server: save\n"), 0o600))
	require.NoError(t, os.WriteFile(bad, []byte("tasks:\n  - reboot: now\n    retries: -1\n"), 0o600))

	var buf bytes.Buffer
	out := output.New(&buf)
	out.SetColor(false)

	failed := validateRunbooks(out, []string{good, bad, filepath.Join(dir, "missing.yaml")})
	assert.Equal(t, 2, failed)

	text := buf.String()
	assert.Contains(t, text, "✓ "+good+" (1 plays, 1 tasks)")
	assert.Contains(t, text, "✗ "+bad+" FAILED")
	assert.Contains(t, text, "unknown module 'reboot'")
	assert.Contains(t, text, "    play 1: task 1: unknown module")
	assert.Contains(t, text, "    retries cannot be negative")
	assert.Contains(t, text, "failed to read runbook")
}
