package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/contfrac/internal/harness"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Replay the example session against the configured store",
		Long: `Create a small directory tree, write four files, move a subtree between
home directories and read the files back through their new paths, printing
the tree after each stage.

The tree must be empty. Point --db at a fresh file to try it:
  contfrac demo --db /tmp/demo.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := harness.Demo()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load demo", err)
			}

			return withSession(cmd, rootOpts, func(s *session) error {
				children, err := s.tree.List(s.ctx, "/")
				if err != nil {
					return s.out.Fail(err)
				}
				if len(children) > 0 {
					_ = s.out.Error(ErrCodeAlreadyExists, "demo needs an empty tree", nil)
					return &ExitError{Code: ExitCommandError, Message: "demo needs an empty tree", Reported: true}
				}

				result, err := harness.New(s.tree, s.logger).Execute(s.ctx, scenario)
				if err != nil {
					return WrapExitError(ExitFailure, "demo failed", err)
				}

				if s.out.Format == "json" {
					if err := s.out.Success(result); err != nil {
						return err
					}
				} else if err := harness.WriteTranscript(s.out.Writer, result); err != nil {
					return err
				}

				if !result.Pass {
					for _, msg := range result.Errors {
						fmt.Fprintln(s.out.GetErrWriter(), msg)
					}
					return NewExitError(ExitFailure, "demo did not complete as expected")
				}
				return nil
			})
		},
	}
}
