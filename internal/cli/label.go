package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/contfrac/internal/label"
)

// LabelResult is the label pair of one ordinal path.
type LabelResult struct {
	Ordinal string `json:"ordinal"`
	Label   string `json:"label"`
	Bound   string `json:"bound"`
	Decimal string `json:"decimal"`
	SortKey string `json:"sort_key"`
}

// NewLabelCommand creates the label command.
func NewLabelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "label <ordinal-path>",
		Short: "Compute the label of an ordinal path",
		Long: `Compute the exact continued-fraction label of a dot-separated ordinal path,
its sibling bound and its decimal key. No store is opened; decimal places and
the label bound come from the config.

Example:
  contfrac label 2.4
  contfrac label 1.2.1 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			out := newFormatter(cmd, rootOpts)

			res, err := computeLabel(args[0], cfg.Limit(), cfg.DecimalPlaces)
			if err != nil {
				code := ErrCodeInvalidPath
				exit := ExitCommandError
				if errors.Is(err, label.ErrOverflow) {
					code, exit = ErrCodeOverflow, ExitFailure
				}
				_ = out.Error(code, err.Error(), nil)
				return &ExitError{Code: exit, Message: code, Err: err, Reported: true}
			}

			if out.Format == "json" {
				return out.Success(res)
			}
			tw := tabwriter.NewWriter(out.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "ordinal\t%s\n", res.Ordinal)
			fmt.Fprintf(tw, "label\t%s\n", res.Label)
			fmt.Fprintf(tw, "bound\t%s\n", res.Bound)
			fmt.Fprintf(tw, "decimal\t%s\n", res.Decimal)
			fmt.Fprintf(tw, "key\t%s\n", res.SortKey)
			return tw.Flush()
		},
	}
}

func computeLabel(s string, limit label.Limit, places int) (LabelResult, error) {
	p, err := label.ParsePath(s)
	if err != nil {
		return LabelResult{}, err
	}
	pair, err := label.Of(p, limit)
	if err != nil {
		return LabelResult{}, err
	}
	key, err := label.SortKey(pair.Label, places)
	if err != nil {
		return LabelResult{}, err
	}
	return LabelResult{
		Ordinal: p.String(),
		Label:   pair.Label.String(),
		Bound:   pair.Bound.String(),
		Decimal: label.DecimalString(pair.Label, places),
		SortKey: key,
	}, nil
}
