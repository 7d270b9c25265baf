package executor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/connector/connectortest"
	"github.com/eugenetaranov/mangosctl/internal/console"
	_ "github.com/eugenetaranov/mangosctl/internal/module/account"
	_ "github.com/eugenetaranov/mangosctl/internal/module/announce"
	_ "github.com/eugenetaranov/mangosctl/internal/module/console"
	_ "github.com/eugenetaranov/mangosctl/internal/module/server"
	"github.com/eugenetaranov/mangosctl/internal/output"
	"github.com/eugenetaranov/mangosctl/internal/runbook"
)

// harness hands out one fake per play and keeps them for inspection.
type harness struct {
	replies  map[string]string
	fail     map[string]error
	profiles []string
	fakes    []*connectortest.Fake
}

func (h *harness) connect(profile string) (connector.Connector, error) {
	h.profiles = append(h.profiles, profile)
	f := connectortest.New(nil)
	for cmd, out := range h.replies {
		f.Reply(cmd, out)
	}
	for cmd, err := range h.fail {
		f.Fail(cmd, err)
	}
	h.fakes = append(h.fakes, f)
	return f, nil
}

func newExecutor(t *testing.T, h *harness) (*Executor, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	e := New(h.connect)
	e.Output = output.New(&buf)
	e.Output.SetColor(false)
	return e, &buf
}

func parse(t *testing.T, doc string) *runbook.Runbook {
	t.Helper()
	rb, err := runbook.Parse([]byte(doc), "test.yaml")
	require.NoError(t, err)
	return rb
}

func TestRunMaintenance(t *testing.T) {
	h := &harness{replies: map[string]string{
		"announce Restart in 300s ":   "",
		"account create test s3cret ": "Account created: test",
		"server restart 300 ":         "Server will restart in 5 Minute(s).\n",
		"saveall ":                    "All players saved.\n",
	}}
	e, buf := newExecutor(t, h)

	rb := parse(t, `
- name: Weekly maintenance
  vars: {delay: 300}
  tasks:
    - name: Warn players
      announce: {message: "Restart in {{ delay }}s"}
    - account: {action: create, username: test, password: s3cret}
      register: created
    - server: {action: restart, delay: "{{ delay }}"}
      when: created.changed
      notify: [save]
  handlers:
    - name: save
      server: {action: save}
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.Stats.Changed)
	assert.Equal(t, 0, res.Stats.Failed)

	require.Len(t, h.fakes, 1)
	f := h.fakes[0]
	assert.True(t, f.Connected)
	assert.True(t, f.Closed)
	assert.Equal(t, []string{
		"announce Restart in 300s ",
		"account create test s3cret ",
		"server restart 300 ",
		"saveall ",
	}, f.Commands())
	assert.Equal(t, []string{runbook.DefaultConsole}, h.profiles)
	assert.Contains(t, buf.String(), "RUNNING HANDLERS")
	assert.NotContains(t, buf.String(), "s3cret")
}

func TestRunWhenSkips(t *testing.T) {
	h := &harness{replies: map[string]string{
		"account create test pw ": "Account with this name already exist!",
	}}
	e, _ := newExecutor(t, h)

	rb := parse(t, `
tasks:
  - account: {action: create, username: test, password: pw}
    register: created
    ignore_errors: true
  - server: {action: restart}
    when: created.changed
  - console: saveall
    when: created.failed
    register: saved
`)
	h.replies["saveall"] = "All players saved.\n"

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Stats.Failed)
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.Equal(t, 1, res.Stats.Changed)
	assert.Equal(t, []string{"account create test pw ", "saveall"}, h.fakes[0].Commands())
}

func TestRunIgnoredFailurePrintsOneLine(t *testing.T) {
	h := &harness{replies: map[string]string{
		"account create test pw ": "Account with this name already exist!",
		"saveall ":                "All players saved.\n",
	}}
	e, buf := newExecutor(t, h)

	rb := parse(t, `
tasks:
  - account: {action: create, username: test, password: pw}
    ignore_errors: true
  - server: save
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Stats.Failed)

	text := buf.String()
	assert.Equal(t, 1, strings.Count(text, "account: "), text)
	assert.Contains(t, text, " ignored\n    → console refused account create")
	assert.NotContains(t, text, "FAILED")
}

func TestRunIgnoredBadConditionStillReported(t *testing.T) {
	h := &harness{replies: map[string]string{"saveall ": "All players saved.\n"}}
	e, buf := newExecutor(t, h)

	rb := parse(t, `
vars: {realm: Kalimdor}
tasks:
  - server: save
    when: realm < 3
    ignore_errors: true
  - server: save
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Stats.Failed)
	assert.Equal(t, 1, res.Stats.Changed)
	assert.Contains(t, buf.String(), " ignored\n    → failed to evaluate 'when' condition")
}

func TestRunFailureStopsPlay(t *testing.T) {
	h := &harness{replies: map[string]string{
		"account create test pw ": "Account with this name already exist!",
	}}
	e, buf := newExecutor(t, h)

	rb := parse(t, `
- tasks:
    - account: {action: create, username: test, password: pw}
    - console: saveall
- tasks:
    - console: saveall
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Stats.Failed)
	require.Len(t, h.fakes, 1)
	assert.Equal(t, []string{"account create test pw "}, h.fakes[0].Commands())
	assert.True(t, h.fakes[0].Closed)
	assert.Contains(t, buf.String(), "Play failed")
}

func TestRunRetries(t *testing.T) {
	h := &harness{replies: map[string]string{}}
	e, _ := newExecutor(t, h)

	rb := parse(t, `
tasks:
  - console: {cmd: saveall, expect: saved}
    retries: 2
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Len(t, h.fakes[0].Commands(), 3)
}

func TestRunFatalErrorNotRetriedOrIgnored(t *testing.T) {
	h := &harness{fail: map[string]error{
		"saveall": &console.ProtocolError{Op: "execute", Message: "connection lost", Cause: errors.New("EOF")},
	}, replies: map[string]string{"server info": "ok"}}
	e, _ := newExecutor(t, h)

	rb := parse(t, `
tasks:
  - console: saveall
    retries: 3
    ignore_errors: true
  - console: server info
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, []string{"saveall"}, h.fakes[0].Commands())
}

func TestRunLoop(t *testing.T) {
	h := &harness{replies: map[string]string{
		"account onlinelist ": "-[ Account]-\n| Id | Account |\n-===-\n" +
			"|1|alice|c1|1.1.1.1|0|1|\n" +
			"|2|bob|c2|2.2.2.2|0|1|\n" +
			"-===-\n",
		`send message alice "Restart soon" `: "",
		`send message bob "Restart soon" `:   "",
	}}
	e, _ := newExecutor(t, h)

	rb := parse(t, `
tasks:
  - account: {action: online}
    register: online
  - console: 'send message {{ account.username }} "Restart soon" '
    loop: "{{ online.data.accounts }}"
    loop_var: account
    register: sent
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{
		"account onlinelist ",
		`send message alice "Restart soon" `,
		`send message bob "Restart soon" `,
	}, h.fakes[0].Commands())
}

func TestRunDryRun(t *testing.T) {
	h := &harness{}
	e, buf := newExecutor(t, h)
	e.DryRun = true

	rb := parse(t, `
console: realm2
gather_facts: true
tasks:
  - server: {action: shutdown, delay: 60}
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Stats.Skipped)
	assert.False(t, h.fakes[0].Connected)
	assert.Empty(t, h.fakes[0].Commands())
	assert.Equal(t, []string{"realm2"}, h.profiles)
	assert.Contains(t, buf.String(), "○ server: {action=\"shutdown\", delay=60}")
}

func TestRunGatherFacts(t *testing.T) {
	h := &harness{replies: map[string]string{
		"server info ":       "Online players: 3 (max: 10) Queued players: 0 (max: 0)\nServer uptime: 1 Hour(s).\n",
		"server plimit ":     "Player limits: amount 100, min. security level Player, allowed to login Yes.\n",
		"announce 3 online ": "",
	}}
	e, _ := newExecutor(t, h)

	rb := parse(t, `
gather_facts: true
tasks:
  - announce: "{{ facts.players_online }} online"
    when: facts.players_online != 0
`)

	res, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "announce 3 online ", h.fakes[0].Commands()[2])
}

func TestRunConnectorFactoryError(t *testing.T) {
	var buf bytes.Buffer
	e := New(func(profile string) (connector.Connector, error) {
		return nil, errors.New("no console profile " + profile)
	})
	e.Output = output.New(&buf)

	res, err := e.Run(context.Background(), parse(t, "tasks:\n  - console: saveall\n"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.True(t, strings.Contains(buf.String(), "no console profile default"))
}

func TestRunWithoutFactory(t *testing.T) {
	_, err := New(nil).Run(context.Background(), parse(t, "tasks:\n  - console: saveall\n"))
	assert.Error(t, err)
}

func TestRunCancelledDuringRetryDelay(t *testing.T) {
	h := &harness{}
	e, _ := newExecutor(t, h)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rb := parse(t, `
tasks:
  - console: saveall
    retries: 5
    delay: 60
`)

	res, err := e.Run(ctx, rb)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Len(t, h.fakes[0].Commands(), 1)
}

func TestRunExtraVarsOverridePlayVars(t *testing.T) {
	h := &harness{replies: map[string]string{
		"announce Restart in 60s ": "",
	}}
	e, _ := newExecutor(t, h)
	e.ExtraVars = map[string]any{"delay": "60"}

	rb := parse(t, `
- vars: {delay: 300}
  tasks:
    - announce: "Restart in {{ delay }}s"
`)

	result, err := e.Run(context.Background(), rb)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, h.fakes, 1)
	assert.Equal(t, []string{"announce Restart in 60s "}, h.fakes[0].Commands())
}

func TestRunLogsRunID(t *testing.T) {
	h := &harness{replies: map[string]string{"saveall ": "All players saved.\n"}}
	e, _ := newExecutor(t, h)
	var logs bytes.Buffer
	e.Logger = log.New(&logs)

	result, err := e.Run(context.Background(), parse(t, "tasks:\n  - server: save\n"))
	require.NoError(t, err)
	assert.True(t, result.Success)

	_, err = uuid.Parse(result.ID)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "runbook started")
	assert.Contains(t, logs.String(), result.ID)
}
