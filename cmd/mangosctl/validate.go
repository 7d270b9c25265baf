package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eugenetaranov/mangosctl/internal/module"
	"github.com/eugenetaranov/mangosctl/internal/output"
	"github.com/eugenetaranov/mangosctl/internal/runbook"
)

var validateCmd = &cobra.Command{
	Use:   "validate <runbook.yaml>...",
	Short: "Check runbooks without connecting",
	Long: `Parse runbooks and report every problem found: YAML syntax, empty
plays, unknown modules, negative retries or delays, unnamed handlers and
notify targets without a handler.

  mangosctl validate runbooks/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := output.New(cmd.OutOrStdout())
		if noColor {
			out.SetColor(false)
		}
		if failed := validateRunbooks(out, args); failed > 0 {
			return fmt.Errorf("%d of %d runbook(s) failed validation", failed, len(args))
		}
		return nil
	},
}

// validateRunbooks prints one line per runbook, followed by its problems,
// and returns how many failed.
func validateRunbooks(out *output.Output, paths []string) int {
	failed := 0
	for _, path := range paths {
		rb, err := runbook.ParseFile(path)
		if err != nil {
			failed++
			out.Task(output.Task{Name: path, Status: output.StatusFailed})
			for _, line := range strings.Split(err.Error(), "\n") {
				out.Reply("    " + line)
			}
			continue
		}
		tasks := 0
		for _, p := range rb.Plays {
			tasks += len(p.Tasks) + len(p.Handlers)
		}
		out.Task(output.Task{Name: path, Status: output.StatusOK, Note: fmt.Sprintf("%d plays, %d tasks", len(rb.Plays), tasks)})
	}
	return failed
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules runbook tasks can use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		for _, name := range module.List() {
			fmt.Fprintln(w, name)
		}
	},
}
