package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenetaranov/mangosctl/internal/console"
)

const sample = `
log:
  level: debug
  format: json
consoles:
  default:
    host: 10.0.0.5
    port: 3443
    username: gm
    password: secret
    flush_timeout: 200ms
    dial_timeout: 5s
  ptr:
    host: ptr.example.org
    port: 3444
    username: gm
    prompt: "ptr>"
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HOST", "PORT", "USERNAME", "PASSWORD", "PROMPT", "LOG_LEVEL"} {
		key := EnvPrefix + "_" + k
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"default", "ptr"}, cfg.Names())

	p := cfg.Consoles["default"]
	assert.Equal(t, "10.0.0.5", p.Host)
	assert.Equal(t, 200*time.Millisecond, p.FlushTimeout)
	assert.Equal(t, 5*time.Second, p.DialTimeout)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("log: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Contains(t, cfg.Consoles, DefaultProfile)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("consoles: [1, 2"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mangosctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestProfile(t *testing.T) {
	clearEnv(t)
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	p, err := cfg.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", p.Host)

	p, err = cfg.Profile("ptr")
	require.NoError(t, err)
	assert.Equal(t, "ptr>", p.Prompt)

	_, err = cfg.Profile("live")
	assert.ErrorContains(t, err, "unknown console profile")
}

func TestProfileEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MANGOSCTL_HOST", "192.168.1.20")
	t.Setenv("MANGOSCTL_PORT", "4000")
	t.Setenv("MANGOSCTL_PASSWORD", "fromenv")
	t.Setenv("MANGOSCTL_LOG_LEVEL", "warn")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	p, err := cfg.Profile("default")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", p.Host)
	assert.Equal(t, 4000, p.Port)
	assert.Equal(t, "fromenv", p.Password)
	assert.Equal(t, "gm", p.Username)

	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestProfileEnvInvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("MANGOSCTL_PORT", "abc")

	cfg := Default()
	_, err := cfg.Profile("")
	assert.ErrorContains(t, err, "invalid environment")
}

func TestValidate(t *testing.T) {
	valid := Profile{Host: "h", Port: 3443, Username: "u"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr string
	}{
		{"no host", func(p *Profile) { p.Host = "" }, "host"},
		{"port zero", func(p *Profile) { p.Port = 0 }, "port"},
		{"port too high", func(p *Profile) { p.Port = 70000 }, "port"},
		{"no user", func(p *Profile) { p.Username = "" }, "username"},
		{"negative timeout", func(p *Profile) { p.DialTimeout = -time.Second }, "timeouts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.ErrorContains(t, p.Validate(), tt.wantErr)
		})
	}
}

func TestConsole(t *testing.T) {
	p := Profile{Host: "h", Port: 3443, Username: "u", Password: "p", FlushTimeout: time.Second}
	c := p.Console()
	assert.Equal(t, console.DefaultPrompt, c.Prompt)
	assert.Equal(t, "h:3443", c.Address())
	assert.Equal(t, time.Second, c.FlushTimeout)
}

const sampleTOML = `
[log]
level = "warn"

[consoles.default]
host = "10.0.0.7"
port = 3443
username = "gm"
flush_timeout = "150ms"
`

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mangosctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)

	p := cfg.Consoles["default"]
	assert.Equal(t, "10.0.0.7", p.Host)
	assert.Equal(t, 150*time.Millisecond, p.FlushTimeout)
}

func TestParseTOMLInvalid(t *testing.T) {
	_, err := ParseTOML([]byte("[consoles"))
	assert.Error(t, err)
}
