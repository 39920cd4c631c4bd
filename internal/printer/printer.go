// Package printer renders tree listings.
package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/roach88/contfrac/internal/tree"
)

// Print writes one line per entry: two spaces per level below the first
// entry, then "/" and the name. The root prints as "/".
func Print(w io.Writer, entries []tree.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	depth0 := entries[0].Depth
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, outline(e, depth0)); err != nil {
			return err
		}
	}
	return nil
}

// Long is Print with aligned columns for the ordinal path, exact label,
// sibling bound and decimal key.
func Long(w io.Writer, entries []tree.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tORDINAL\tLABEL\tBOUND\tDECIMAL")
	depth0 := entries[0].Depth
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			outline(e, depth0), e.Path, e.Label, e.Bound, e.Decimal)
	}
	return tw.Flush()
}

func outline(e tree.Entry, depth0 int) string {
	return strings.Repeat("  ", e.Depth-depth0) + "/" + e.Name
}

// EntryJSON is the machine-readable form of an entry.
type EntryJSON struct {
	Name    string `json:"name"`
	Ordinal string `json:"ordinal"`
	Depth   int    `json:"depth"`
	Label   string `json:"label"`
	Bound   string `json:"bound"`
	Decimal string `json:"decimal"`
}

// ToJSON converts entries for JSON output.
func ToJSON(entries []tree.Entry) []EntryJSON {
	out := make([]EntryJSON, len(entries))
	for i, e := range entries {
		out[i] = EntryJSON{
			Name:    e.Name,
			Ordinal: e.Path.String(),
			Depth:   e.Depth,
			Label:   e.Label.String(),
			Bound:   e.Bound.String(),
			Decimal: e.Decimal,
		}
	}
	return out
}

// JSON writes entries as an indented JSON array.
func JSON(w io.Writer, entries []tree.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToJSON(entries))
}
