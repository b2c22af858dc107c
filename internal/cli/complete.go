package cli

import (
	"strings"

	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/service"
	"github.com/spf13/cobra"
)

type completionFunc = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// filterSuggestions returns items from pool that start with prefix,
// ignoring case.
func filterSuggestions(pool []string, prefix string) []string {
	if prefix == "" {
		return pool
	}
	lp := strings.ToLower(prefix)
	var result []string
	for _, s := range pool {
		if strings.HasPrefix(strings.ToLower(s), lp) {
			result = append(result, s)
		}
	}
	return result
}

// completeBlendTitles completes the first argument with blend titles of kind.
func completeBlendTitles(app *App, kind domain.BlendKind) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return blendTitles(app, cmd, kind, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeLineArgs completes a blend title, then an ingredient: a line already
// on the sheet for editing commands, or any catalog entry for add.
func completeLineArgs(app *App, kind domain.BlendKind, catalog bool) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		switch len(args) {
		case 0:
			return blendTitles(app, cmd, kind, toComplete), cobra.ShellCompDirectiveNoFileComp
		case 1:
			if catalog {
				if accord, _ := cmd.Flags().GetBool("accord"); accord {
					return blendTitles(app, cmd, domain.BlendAccord, toComplete), cobra.ShellCompDirectiveNoFileComp
				}
				return materialTitles(app, cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
			}
			return lineTitles(app, cmd, kind, args[0], toComplete), cobra.ShellCompDirectiveNoFileComp
		default:
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	}
}

func completeMaterialTitles(app *App) completionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return materialTitles(app, cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

func blendTitles(app *App, cmd *cobra.Command, kind domain.BlendKind, prefix string) []string {
	blends, err := app.Blends.List(app.ctx(cmd), service.BlendListFilter{Kind: kind})
	if err != nil {
		return nil
	}
	titles := make([]string, 0, len(blends))
	for _, b := range blends {
		titles = append(titles, b.Title)
	}
	return filterSuggestions(titles, prefix)
}

func materialTitles(app *App, cmd *cobra.Command, prefix string) []string {
	materials, err := app.Materials.List(app.ctx(cmd), false)
	if err != nil {
		return nil
	}
	titles := make([]string, 0, len(materials))
	for _, m := range materials {
		titles = append(titles, m.Title)
	}
	return filterSuggestions(titles, prefix)
}

func lineTitles(app *App, cmd *cobra.Command, kind domain.BlendKind, blend, prefix string) []string {
	ctx := app.ctx(cmd)
	id, err := resolveBlendID(ctx, app, kind, blend)
	if err != nil {
		return nil
	}
	sheet, err := app.Blends.Sheet(ctx, id)
	if err != nil {
		return nil
	}
	titles := make([]string, 0, len(sheet.Rows))
	for _, r := range sheet.Rows {
		if !r.Missing {
			titles = append(titles, r.Title)
		}
	}
	return filterSuggestions(titles, prefix)
}
