package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/eugenetaranov/mangosctl/internal/connector"
	"github.com/eugenetaranov/mangosctl/internal/console"
	"github.com/eugenetaranov/mangosctl/internal/module"
	"github.com/eugenetaranov/mangosctl/internal/output"
	"github.com/eugenetaranov/mangosctl/internal/runbook"
	"github.com/eugenetaranov/mangosctl/pkg/facts"
)

// playRun is the state of one play: its session, variables, and the
// handlers notified so far.
type playRun struct {
	exec   *Executor
	play   *runbook.Play
	stats  *Stats
	logger *log.Logger

	conn   connector.Connector
	scope  *Scope
	notify map[string]bool
}

func (pr *playRun) out() *output.Output { return pr.exec.Output }

func (pr *playRun) run(ctx context.Context) error {
	conn, err := pr.exec.connect(pr.play.GetConsole())
	if err != nil {
		return fmt.Errorf("failed to create connector: %w", err)
	}
	pr.conn = conn
	defer func() {
		if err := conn.Close(); err != nil {
			pr.logger.Warn("close console", "err", err)
		}
	}()

	name := pr.play.Name
	if name == "" {
		name = pr.play.GetConsole()
	}
	pr.out().Play(name, conn.String())

	if pr.exec.DryRun {
		pr.logger.Debug("dry run: not connecting", "endpoint", conn.String())
	} else if err := pr.open(ctx); err != nil {
		return err
	}

	for _, task := range pr.play.Tasks {
		pr.stats.Tasks++
		status, err := pr.task(ctx, task)
		if err == nil {
			pr.stats.count(status)
			continue
		}
		pr.stats.Failed++
		if !pr.ignored(ctx, task, err) {
			return err
		}
	}

	return pr.handlers(ctx)
}

// open connects the session and gathers facts when the play asks for them.
func (pr *playRun) open(ctx context.Context) error {
	if err := pr.conn.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	if !pr.play.GatherFacts {
		return nil
	}

	f, err := facts.Gather(ctx, pr.conn)
	if err != nil {
		pr.out().Task(output.Task{Name: "Gathering Facts", Status: output.StatusFailed, Message: err.Error()})
		return fmt.Errorf("failed to gather facts: %w", err)
	}
	pr.scope.Vars["facts"] = f
	pr.out().Task(output.Task{Name: "Gathering Facts", Status: output.StatusOK})
	return nil
}

// task runs a task, or each of its loop items, unless its condition
// skips it.
func (pr *playRun) task(ctx context.Context, task *runbook.Task) (output.Status, error) {
	if task.HasLoop() {
		return pr.loop(ctx, task)
	}
	run, err := pr.when(task)
	if err != nil {
		return pr.fail(ctx, task, pr.line(task), err)
	}
	if !run {
		return output.StatusSkipped, nil
	}
	return pr.once(ctx, task)
}

func (pr *playRun) line(task *runbook.Task) output.Task {
	return output.Task{Name: task.String(), Module: task.Module}
}

// ignored reports whether the play goes on after task failed with err.
// Fatal errors and cancellation are never ignored.
func (pr *playRun) ignored(ctx context.Context, task *runbook.Task, err error) bool {
	return task.IgnoreErrors && !console.IsFatal(err) && ctx.Err() == nil
}

// fail prints the task's one status line for err: ignored when the play
// goes on, failed otherwise.
func (pr *playRun) fail(ctx context.Context, task *runbook.Task, line output.Task, err error) (output.Status, error) {
	line.Status, line.Message = output.StatusFailed, err.Error()
	if pr.ignored(ctx, task, err) {
		line.Status = output.StatusIgnored
	}
	pr.out().Task(line)
	return output.StatusFailed, err
}

// when evaluates the task's condition and prints the skip.
func (pr *playRun) when(task *runbook.Task) (bool, error) {
	if task.When == "" {
		return true, nil
	}
	ok, err := evalCondition(task.When, pr.scope)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate 'when' condition: %w", err)
	}
	if !ok {
		line := pr.line(task)
		line.Status, line.Message = output.StatusSkipped, "when condition not met"
		pr.out().Task(line)
	}
	return ok, nil
}

// once renders the parameters, runs the module with retries, registers
// the result and notifies handlers on change.
func (pr *playRun) once(ctx context.Context, task *runbook.Task) (output.Status, error) {
	line := pr.line(task)
	line.Endpoint = pr.conn.String()
	fail := func(err error) (output.Status, error) {
		return pr.fail(ctx, task, line, err)
	}

	mod := module.Get(task.Module)
	if mod == nil {
		return fail(fmt.Errorf("unknown module: %s", task.Module))
	}

	params, err := renderParams(task.Params, pr.scope)
	switch {
	case pr.exec.DryRun && (err == nil || errors.Is(err, errUndefined)):
		// Registered results never exist in a dry run.
		line.Status, line.Note = output.StatusSkipped, "dry run"
		pr.out().Task(line)
		return output.StatusSkipped, nil
	case err != nil:
		return fail(fmt.Errorf("failed to render parameters: %w", err))
	}

	res, err := pr.attempt(ctx, mod, task, params)
	if err != nil {
		pr.register(task, map[string]any{"changed": false, "failed": true, "message": err.Error()})
		return fail(err)
	}

	pr.register(task, map[string]any{
		"changed": res.Changed,
		"failed":  false,
		"message": res.Message,
		"data":    res.Data,
		"output":  res.Data["output"],
	})

	line.Status = output.StatusOK
	if res.Changed {
		line.Status = output.StatusChanged
		for _, h := range task.Notify {
			pr.notify[h] = true
		}
	}
	line.Message = res.Message
	line.Output, _ = res.Data["output"].(string)
	pr.out().Task(line)
	return line.Status, nil
}

// attempt runs the module up to task.Retries+1 times. Errors that leave
// the session unusable end the attempts at once.
func (pr *playRun) attempt(ctx context.Context, mod module.Module, task *runbook.Task, params map[string]any) (*module.Result, error) {
	attempts := max(task.Retries+1, 1)
	var err error
	for n := 1; n <= attempts; n++ {
		if n > 1 {
			pr.out().Info("Retry %d/%d for task: %s", n, attempts, task)
			if err := sleep(ctx, time.Duration(task.Delay)*time.Second); err != nil {
				return nil, err
			}
		}

		var res *module.Result
		if res, err = mod.Run(ctx, pr.conn, params); err == nil {
			return res, nil
		}
		if console.IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		pr.logger.Debug("task attempt failed", "task", task.String(), "attempt", n, "err", err)
	}
	return nil, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (pr *playRun) register(task *runbook.Task, value map[string]any) {
	if task.Register != "" {
		pr.scope.Registered[task.Register] = value
	}
}

// loop runs the task once per item with the item bound to its loop var
// and "loop_index". The registered value collects every item's result.
func (pr *playRun) loop(ctx context.Context, task *runbook.Task) (output.Status, error) {
	items, err := pr.items(task)
	if errors.Is(err, errUndefined) && pr.exec.DryRun {
		line := pr.line(task)
		line.Status, line.Note = output.StatusSkipped, "dry run"
		pr.out().Task(line)
		return output.StatusSkipped, nil
	}
	if err != nil {
		return pr.fail(ctx, task, pr.line(task), err)
	}

	name := task.GetLoopVar()
	defer func() {
		delete(pr.scope.Vars, name)
		delete(pr.scope.Vars, "loop_index")
	}()

	var results []any
	ran, changed := false, false
	for i, item := range items {
		pr.scope.Vars[name] = item
		pr.scope.Vars["loop_index"] = i

		run, err := pr.when(task)
		if err != nil {
			return pr.fail(ctx, task, pr.line(task), err)
		}
		if !run {
			continue
		}
		ran = true

		status, err := pr.once(ctx, task)
		if err != nil {
			return status, err
		}
		changed = changed || status == output.StatusChanged
		if task.Register != "" {
			results = append(results, pr.scope.Registered[task.Register])
		}
	}

	pr.register(task, map[string]any{"changed": changed, "failed": false, "results": results})

	switch {
	case changed:
		return output.StatusChanged, nil
	case !ran:
		return output.StatusSkipped, nil
	}
	return output.StatusOK, nil
}

// items resolves a literal loop list or a loop expression such as
// "{{ online.data.accounts }}".
func (pr *playRun) items(task *runbook.Task) ([]any, error) {
	var raw any = task.Loop
	if task.LoopExpr != "" {
		raw = task.LoopExpr
	}
	v, err := render(raw, pr.scope)
	if err != nil {
		return nil, fmt.Errorf("failed to render loop: %w", err)
	}
	switch items := v.(type) {
	case []any:
		return items, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("loop must be a list, got %T", v)
}

// handlers runs the notified handlers once each, in definition order.
func (pr *playRun) handlers(ctx context.Context) error {
	if len(pr.notify) == 0 {
		return nil
	}
	pr.out().Section("RUNNING HANDLERS")

	for _, h := range pr.play.Handlers {
		if !pr.notify[h.Name] {
			continue
		}
		pr.stats.Tasks++
		status, err := pr.once(ctx, h)
		if err != nil {
			pr.stats.Failed++
			if pr.ignored(ctx, h, err) {
				continue
			}
			return fmt.Errorf("handler '%s' failed: %w", h.Name, err)
		}
		pr.stats.count(status)
	}
	return nil
}
