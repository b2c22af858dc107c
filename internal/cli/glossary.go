package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/sillage/internal/cli/formatter"
	"github.com/spf13/cobra"
)

// glossary defines the terms sheets and commands use.
var glossary = map[string]string{
	"accord":         "A reusable blend of materials only. Formulas can use an accord as a single ingredient at the accord's own concentration.",
	"formula":        "A finished blend of materials and accords plus a diluent.",
	"material":       "A raw ingredient in your catalog, with its stock dilutions, category, pyramid levels and optional IFRA limit.",
	"dilution":       "How much of a stock is pure material, in percent. A line's dilution must be one of the material's stock dilutions.",
	"diluent":        "The carrier, such as ethanol or DPG, added on top of the ingredients. It adds weight but no active material.",
	"active mass":    "Sum over all lines of weight times dilution. The part of the blend that actually smells.",
	"concentration":  "Active mass over total weight, in percent. Shown as the Final dilution and never stored.",
	"pure %":         "A line's pure material as a share of the total weight. This is what IFRA limits are checked against.",
	"ifra limit":     "The maximum pure percentage of a material in the finished blend. A line exactly at its limit is compliant.",
	"scale":          "Multiply every ingredient and the diluent by one factor to reach a total weight. Concentration is unchanged.",
	"dilute":         "Change only the diluent weight to reach a target concentration. Fails when the ingredients alone are already weaker than the target.",
	"pyramid":        "The top, heart and base levels a material contributes to.",
	"base":           "A blend marked as a starting point for other work.",
	"published":      "Visible to every user of the catalog. Others can read and duplicate it but not change it.",
	"archive":        "Hide an entry from lists without deleting it. Archived entries can be restored.",
}

func newGlossaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "glossary [TERM]",
		Short: "Explain perfumery and sheet terms",
		Args:  cobra.ArbitraryArgs,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return filterSuggestions(glossaryTerms(), toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			terms := glossaryTerms()
			if len(args) > 0 {
				term := strings.ToLower(strings.Join(args, " "))
				def, ok := glossary[term]
				if !ok {
					matches := filterSuggestions(terms, term)
					if len(matches) != 1 {
						return fmt.Errorf("no glossary entry for %q", term)
					}
					term, def = matches[0], glossary[matches[0]]
				}
				write(cmd, formatter.FormatGlossary([]formatter.GlossaryEntry{{Term: term, Definition: def}}))
				return nil
			}
			entries := make([]formatter.GlossaryEntry, len(terms))
			for i, t := range terms {
				entries[i] = formatter.GlossaryEntry{Term: t, Definition: glossary[t]}
			}
			write(cmd, formatter.FormatGlossary(entries))
			return nil
		},
	}
}

func glossaryTerms() []string {
	keys := make([]string, 0, len(glossary))
	for k := range glossary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
