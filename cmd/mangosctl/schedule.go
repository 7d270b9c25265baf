package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// schedule runs job on a standard five-field cron spec (or a descriptor
// such as "@weekly") until ctx is done. A run still in progress when the
// next one is due is skipped, so two runs never share a console.
func schedule(ctx context.Context, spec string, logger *log.Logger, job func(ctx context.Context)) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(sched, cron.FuncJob(func() { job(ctx) }))
	c.Start()

	for _, entry := range c.Entries() {
		logger.Info("runbook scheduled", "schedule", spec, "next", entry.Next)
	}

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
