package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/pkg/facts"
)

// execCmd runs a single console command
var execCmd = &cobra.Command{
	Use:   "exec <command...>",
	Short: "Run one console command and print the reply",
	Long: `Connect to a console, run one command and print its raw reply.

Examples:
  mangosctl exec server info
  mangosctl exec --console ptr account onlinelist`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line := strings.Join(args, " ")
		return withConsole(func(ctx context.Context, env *cliEnv, conn connector.Connector) error {
			res, err := conn.Execute(ctx, line)
			if err != nil {
				return err
			}
			env.logger.Debug("command finished", "command", line, "duration", res.Duration)
			env.out.Reply(res.Output)
			return nil
		})
	},
}

// factsCmd prints console facts
var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Print the facts gathered from a console",
	Long:  `Connect to a console and print the facts available to runbooks as {{ facts.* }}.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConsole(func(ctx context.Context, env *cliEnv, conn connector.Connector) error {
			f, err := facts.Gather(ctx, conn)
			if err != nil {
				return err
			}
			env.out.Facts(f)
			return nil
		})
	},
}

// withConsole connects to the selected profile, runs fn and closes the
// console.
func withConsole(fn func(ctx context.Context, env *cliEnv, conn connector.Connector) error) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	conn, err := env.connector(consoleName)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			env.logger.Warn("close console", "console", conn.String(), "err", err)
		}
	}()

	if dryRun {
		env.out.Info("dry run: would connect to %s", conn.String())
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := conn.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return fn(ctx, env, conn)
}
