package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eugenetaranov/mangosctl/internal/executor"
	"github.com/eugenetaranov/mangosctl/internal/runbook"
)

var runCmd = &cobra.Command{
	Use:   "run <runbook.yaml>",
	Short: "Run a runbook",
	Long: `Run a runbook against the console profiles its plays name.

  mangosctl run maintenance.yaml
  mangosctl run maintenance.yaml -e delay=600 --dry-run
  mangosctl run maintenance.yaml --schedule "0 4 * * 3"

With --schedule the command keeps running and starts the runbook on every
tick of the cron expression; a tick is skipped while the previous run is
still going.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunbook,
}

func init() {
	runCmd.Flags().StringSliceP("extra-vars", "e", nil, "extra variables as key=value, overriding play vars")
	runCmd.Flags().String("schedule", "", "repeat the runbook on a cron schedule")
}

func runRunbook(cmd *cobra.Command, args []string) error {
	rb, err := runbook.ParseFile(args[0])
	if err != nil {
		return err
	}

	pairs, err := cmd.Flags().GetStringSlice("extra-vars")
	if err != nil {
		return err
	}
	extra, err := parseExtraVars(pairs)
	if err != nil {
		return err
	}
	spec, err := cmd.Flags().GetString("schedule")
	if err != nil {
		return err
	}

	env, err := loadEnv()
	if err != nil {
		return err
	}

	exec := executor.New(env.connectorFactory(consoleName))
	exec.Output = env.out
	exec.Logger = env.logger
	exec.Debug = debug
	exec.DryRun = dryRun
	exec.ExtraVars = extra

	ctx, cancel := signalContext()
	defer cancel()

	if spec != "" {
		return schedule(ctx, spec, env.logger, func(ctx context.Context) {
			res, err := exec.Run(ctx, rb)
			switch {
			case err != nil:
				env.logger.Error("scheduled run failed", "err", err)
			case !res.Success:
				env.logger.Warn("scheduled run finished with failures", "run", res.ID)
			}
		})
	}

	res, err := exec.Run(ctx, rb)
	if err != nil {
		return err
	}
	if !res.Success {
		os.Exit(1)
	}
	return nil
}

// parseExtraVars turns key=value pairs into variables. Values keep any
// further '=' signs.
func parseExtraVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid extra var %q (expected key=value)", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

// signalContext is cancelled on SIGINT or SIGTERM so an interrupted run
// still logs out of its console.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
