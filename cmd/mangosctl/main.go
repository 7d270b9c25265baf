// Command mangosctl drives the remote access console of a CMaNGOS world
// server: one-off commands, an interactive shell, and YAML runbooks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/eugenetaranov/mangosctl/internal/module/account"
	_ "github.com/eugenetaranov/mangosctl/internal/module/announce"
	_ "github.com/eugenetaranov/mangosctl/internal/module/ban"
	_ "github.com/eugenetaranov/mangosctl/internal/module/character"
	_ "github.com/eugenetaranov/mangosctl/internal/module/console"
	_ "github.com/eugenetaranov/mangosctl/internal/module/lookup"
	_ "github.com/eugenetaranov/mangosctl/internal/module/mail"
	_ "github.com/eugenetaranov/mangosctl/internal/module/server"
)

// Set by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath  string
	consoleName string
	debug       bool
	dryRun      bool
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "mangosctl",
	Short: "CMaNGOS remote console automation",
	Long: `mangosctl drives the remote access console of a CMaNGOS world server.
Run one-off commands, open an interactive shell, or automate maintenance
with YAML runbooks.

Console profiles are read from ./mangosctl.yaml (or .toml) or
~/.config/mangosctl/config.yaml and can be overridden with MANGOSCTL_*
environment variables.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default ./mangosctl.yaml or ~/.config/mangosctl/config.yaml)")
	flags.StringVar(&consoleName, "console", "", `console profile (default "default")`)
	flags.BoolVarP(&debug, "debug", "d", false, "show console replies and debug logs")
	flags.BoolVarP(&dryRun, "dry-run", "n", false, "print what would be sent without connecting")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(execCmd, factsCmd, shellCmd, runCmd, validateCmd, modulesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
