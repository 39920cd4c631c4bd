package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/contfrac/internal/printer"
)

// PathResult is the JSON payload of commands that report an ordinal path.
type PathResult struct {
	Path    string `json:"path"`
	Ordinal string `json:"ordinal,omitempty"`
}

// NewMkdirCommand creates the mkdir command.
func NewMkdirCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>...",
		Short: "Create nodes and any missing parents",
		Long: `Create each path, appending every missing component as the new last
child of its parent. Prints the ordinal path of each node.

Example:
  contfrac mkdir /home/adrian/documents /usr`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				results := make([]PathResult, 0, len(args))
				for _, p := range args {
					ord, err := s.tree.Create(s.ctx, p)
					if err != nil {
						return s.out.Fail(err)
					}
					results = append(results, PathResult{Path: p, Ordinal: ord.String()})
				}
				if s.out.Format == "json" {
					return s.out.Success(results)
				}
				for _, r := range results {
					fmt.Fprintf(s.out.Writer, "%s %s\n", r.Path, r.Ordinal)
				}
				return nil
			})
		},
	}
}

// NewLsCommand creates the ls command.
func NewLsCommand(rootOpts *RootOptions) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List the children of a node in ordinal order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := argOr(args, 0, "/")
			return withSession(cmd, rootOpts, func(s *session) error {
				entries, err := s.tree.List(s.ctx, p)
				if err != nil {
					return s.out.Fail(err)
				}
				switch {
				case s.out.Format == "json":
					return s.out.Success(printer.ToJSON(entries))
				case long:
					return printer.Long(s.out.Writer, entries)
				default:
					for _, e := range entries {
						fmt.Fprintln(s.out.Writer, e.Name)
					}
					return nil
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "show ordinal path, label, bound and decimal key")
	return cmd
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print a node and all of its descendants",
		Long: `Print a subtree in pre-order, indenting two spaces per level.

The whole subtree is read with a single range query over its labels.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := argOr(args, 0, "/")
			return withSession(cmd, rootOpts, func(s *session) error {
				entries, err := s.tree.Walk(s.ctx, p)
				if err != nil {
					return s.out.Fail(err)
				}
				switch {
				case s.out.Format == "json":
					return s.out.Success(printer.ToJSON(entries))
				case long:
					return printer.Long(s.out.Writer, entries)
				default:
					return printer.Print(s.out.Writer, entries)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "show ordinal path, label, bound and decimal key")
	return cmd
}

// NewWriteCommand creates the write command.
func NewWriteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "write <path> [text|-]",
		Short: "Replace the content of a node, creating it if needed",
		Long: `Replace the content of a node with text, or with standard input when the
text is "-" or omitted.

Example:
  contfrac write /home/adrian/notes.txt "Hello"
  echo Hello | contfrac write /home/adrian/notes.txt -`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := args[0]
			var r io.Reader
			if text := argOr(args, 1, "-"); text != "-" {
				r = strings.NewReader(text)
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to read standard input", err)
				}
				r = bytes.NewReader(data)
			}

			return withSession(cmd, rootOpts, func(s *session) error {
				if err := s.tree.WriteFile(s.ctx, p, r); err != nil {
					return s.out.Fail(err)
				}
				s.out.VerboseLog("wrote %s", p)
				if s.out.Format == "json" {
					return s.out.Success(PathResult{Path: p})
				}
				return nil
			})
		},
	}
}

// CatResult is the JSON payload of cat.
type CatResult struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// NewCatCommand creates the cat command.
func NewCatCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print the content of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				data, err := s.tree.ReadFile(s.ctx, args[0])
				if err != nil {
					return s.out.Fail(err)
				}
				if s.out.Format == "json" {
					return s.out.Success(CatResult{Path: args[0], Content: string(data)})
				}
				_, err = s.out.Writer.Write(data)
				return err
			})
		},
	}
}

// NewRmCommand creates the rm command.
func NewRmCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path>",
		Short: "Remove a node with all of its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				if err := s.tree.Remove(s.ctx, args[0]); err != nil {
					return s.out.Fail(err)
				}
				if s.out.Format == "json" {
					return s.out.Success(PathResult{Path: args[0]})
				}
				return nil
			})
		},
	}
}

const relocateHelp = `If <to> exists, <from> becomes its new last child. Otherwise the parent of
<to> is created as needed and <from> becomes its new last child, named after
the final component of <to>. Prints the new ordinal path.`

// NewMvCommand creates the mv command.
func NewMvCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <from> <to>",
		Short: "Move a subtree",
		Long: "Move a subtree in one transaction, relabelling every node.\n\n" + relocateHelp + `

Example:
  contfrac mv /home/adrian/documents /home/other`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				ord, err := s.tree.Move(s.ctx, args[0], args[1])
				if err != nil {
					return s.out.Fail(err)
				}
				return reportPath(s, args[1], ord.String())
			})
		},
	}
}

// NewCpCommand creates the cp command.
func NewCpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cp <from> <to>",
		Short: "Copy a subtree",
		Long:  "Copy a subtree and its content in one transaction.\n\n" + relocateHelp,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				ord, err := s.tree.Copy(s.ctx, args[0], args[1])
				if err != nil {
					return s.out.Fail(err)
				}
				return reportPath(s, args[1], ord.String())
			})
		},
	}
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <name>",
		Short: "Rename a node in place",
		Long:  "Change the final name of a node. Labels are not affected.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				if err := s.tree.Rename(s.ctx, args[0], args[1]); err != nil {
					return s.out.Fail(err)
				}
				if s.out.Format == "json" {
					return s.out.Success(PathResult{Path: args[0]})
				}
				return nil
			})
		},
	}
}

func reportPath(s *session, p, ordinal string) error {
	if s.out.Format == "json" {
		return s.out.Success(PathResult{Path: p, Ordinal: ordinal})
	}
	fmt.Fprintln(s.out.Writer, ordinal)
	return nil
}

// argOr returns args[i], or def when there are fewer arguments.
func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}
