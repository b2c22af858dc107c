package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alexanderramin/sillage/internal/calc"
	"github.com/alexanderramin/sillage/internal/cli/formatter"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/alexanderramin/sillage/internal/importer"
	"github.com/alexanderramin/sillage/internal/service"
	"github.com/spf13/cobra"
)

// blendCmdSpec parameterizes the accord and formula command trees, which
// share every subcommand.
type blendCmdSpec struct {
	kind   domain.BlendKind
	plural string
}

func newBlendCmd(app *App, spec blendCmdSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:     string(spec.kind),
		Aliases: []string{strings.ToLower(spec.plural)},
		Short:   fmt.Sprintf("Compose and scale %s", strings.ToLower(spec.plural)),
	}

	cmd.AddCommand(
		newBlendNewCmd(app, spec),
		newBlendListCmd(app, spec),
		newBlendShowCmd(app, spec),
		newBlendAddCmd(app, spec),
		newBlendWeightCmd(app, spec),
		newBlendDilutionCmd(app, spec),
		newBlendDropCmd(app, spec),
		newBlendDiluentCmd(app, spec),
		newBlendScaleCmd(app, spec),
		newBlendDiluteCmd(app, spec),
		newBlendArchiveCmd(app, spec),
		newBlendRestoreCmd(app, spec),
		newBlendRemoveCmd(app, spec),
		newBlendDuplicateCmd(app, spec),
		newBlendPublishCmd(app, spec),
		newBlendBaseCmd(app, spec),
		newBlendRenameCmd(app, spec),
		newBlendNoteCmd(app, spec),
		newBlendExportCmd(app, spec),
	)

	for _, sub := range cmd.Commands() {
		switch sub.Name() {
		case "new", "list":
		case "add":
			sub.ValidArgsFunction = completeLineArgs(app, spec.kind, true)
		case "weight", "dilution", "drop":
			sub.ValidArgsFunction = completeLineArgs(app, spec.kind, false)
		default:
			sub.ValidArgsFunction = completeBlendTitles(app, spec.kind)
		}
	}

	return cmd
}

// withBlend resolves args[0] to a blend of spec.kind and runs fn with it.
func withBlend(app *App, spec blendCmdSpec, fn func(ctx context.Context, cmd *cobra.Command, id string, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := app.ctx(cmd)
		id, err := resolveBlendID(ctx, app, spec.kind, args[0])
		if err != nil {
			return err
		}
		return fn(ctx, cmd, id, args[1:])
	}
}

// withLine additionally resolves args[1] to a line on the blend's sheet.
func withLine(app *App, spec blendCmdSpec, fn func(ctx context.Context, cmd *cobra.Command, id, refID string, args []string) error) func(*cobra.Command, []string) error {
	return withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, args []string) error {
		sheet, err := app.Blends.Sheet(ctx, id)
		if err != nil {
			return err
		}
		refID, err := resolveLine(sheet, args[0])
		if err != nil {
			return err
		}
		return fn(ctx, cmd, id, refID, args[1:])
	})
}

func printSheet(cmd *cobra.Command, s *service.Sheet) {
	write(cmd, formatter.FormatSheet(s))
}

func newBlendNewCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "new TITLE",
		Short: fmt.Sprintf("Create an empty %s", spec.kind),
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.Blends.Create(app.ctx(cmd), spec.kind, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printf(cmd, "Created %s %s %s\n", spec.kind, b.DisplayTitle(), formatter.TruncID(b.ID))
			return nil
		},
	}
}

func newBlendListCmd(app *App, spec blendCmdSpec) *cobra.Command {
	var all, archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", strings.ToLower(spec.plural)),
		RunE: func(cmd *cobra.Command, args []string) error {
			blends, err := app.Blends.List(app.ctx(cmd), service.BlendListFilter{
				Kind:            spec.kind,
				IncludeArchived: all,
				OnlyArchived:    archived,
			})
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatBlendList(spec.plural, blends)+"\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include archived entries")
	cmd.Flags().BoolVar(&archived, "archived", false, "Only archived entries")

	return cmd
}

func newBlendShowCmd(app *App, spec blendCmdSpec) *cobra.Command {
	var tree, ifra bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: fmt.Sprintf("Show a %s sheet with totals and IFRA checks", spec.kind),
		Args:  cobra.ExactArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, _ []string) error {
			sheet, err := app.Blends.Sheet(ctx, id)
			if err != nil {
				return err
			}
			switch {
			case tree:
				accords := map[string]*service.Sheet{}
				for _, r := range sheet.Rows {
					if r.Kind != domain.LineAccord || r.Missing {
						continue
					}
					if sub, err := app.Blends.Sheet(ctx, r.RefID); err == nil {
						accords[r.RefID] = sub
					}
				}
				write(cmd, formatter.RenderTree(formatter.CompositionTree(sheet, accords)))
			case ifra:
				write(cmd, formatter.FormatIFRAReport(sheet))
			default:
				printSheet(cmd, sheet)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&tree, "tree", false, "Show the composition as a tree, expanding accords")
	cmd.Flags().BoolVar(&ifra, "ifra", false, "Show IFRA limit usage only")

	return cmd
}

func newBlendAddCmd(app *App, spec blendCmdSpec) *cobra.Command {
	var (
		accord bool
		weight float64
	)

	short := "Add a material to an accord"
	if spec.kind == domain.BlendFormula {
		short = "Add a material or, with --accord, an accord to a formula"
	}

	cmd := &cobra.Command{
		Use:   "add ID INGREDIENT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, args []string) error {
			kind := domain.LineMaterial
			var (
				refID string
				err   error
			)
			if accord {
				kind = domain.LineAccord
				refID, err = resolveBlendID(ctx, app, domain.BlendAccord, args[0])
			} else {
				refID, err = resolveMaterialID(ctx, app, args[0])
			}
			if err != nil {
				return err
			}
			sheet, err := app.Blends.AddLine(ctx, id, kind, refID)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("weight") {
				if sheet, err = app.Blends.SetWeight(ctx, id, refID, weight); err != nil {
					return err
				}
			}
			printSheet(cmd, sheet)
			return nil
		}),
	}

	if spec.kind == domain.BlendFormula {
		cmd.Flags().BoolVar(&accord, "accord", false, "INGREDIENT names an accord rather than a material")
	}
	cmd.Flags().Float64Var(&weight, "weight", 0, "Initial weight in grams")

	return cmd
}

func newBlendWeightCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "weight ID INGREDIENT GRAMS",
		Short: "Set an ingredient's weight",
		Args:  cobra.ExactArgs(3),
		RunE: withLine(app, spec, func(ctx context.Context, cmd *cobra.Command, id, refID string, args []string) error {
			w, err := parseWeight(args[0])
			if err != nil {
				return err
			}
			sheet, err := app.Blends.SetWeight(ctx, id, refID, w)
			if err != nil {
				return err
			}
			printSheet(cmd, sheet)
			return nil
		}),
	}
}

func newBlendDilutionCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "dilution ID INGREDIENT PERCENT",
		Short: "Pick one of a material's stock dilutions",
		Args:  cobra.ExactArgs(3),
		RunE: withLine(app, spec, func(ctx context.Context, cmd *cobra.Command, id, refID string, args []string) error {
			d, err := parsePercent(args[0])
			if err != nil {
				return err
			}
			sheet, err := app.Blends.SetDilution(ctx, id, refID, d)
			if err != nil {
				return err
			}
			printSheet(cmd, sheet)
			return nil
		}),
	}
}

func newBlendDropCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "drop ID INGREDIENT",
		Short: "Remove an ingredient line",
		Args:  cobra.ExactArgs(2),
		RunE: withLine(app, spec, func(ctx context.Context, cmd *cobra.Command, id, refID string, _ []string) error {
			sheet, err := app.Blends.RemoveLine(ctx, id, refID)
			if err != nil {
				return err
			}
			printSheet(cmd, sheet)
			return nil
		}),
	}
}

func newBlendDiluentCmd(app *App, spec blendCmdSpec) *cobra.Command {
	var (
		name   string
		weight float64
	)

	cmd := &cobra.Command{
		Use:   "diluent ID",
		Short: "Set the diluent name and weight",
		Args:  cobra.ExactArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, _ []string) error {
			current, err := app.Blends.Sheet(ctx, id)
			if err != nil {
				return err
			}
			d := current.Snapshot.Diluent
			if cmd.Flags().Changed("name") {
				d.Name = name
			}
			if cmd.Flags().Changed("weight") {
				d.Weight = weight
			}
			sheet, err := app.Blends.SetDiluent(ctx, id, d.Name, d.Weight)
			if err != nil {
				return err
			}
			printSheet(cmd, sheet)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Diluent name, e.g. Ethanol")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Diluent weight in grams")

	return cmd
}

func newBlendScaleCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "scale ID [GRAMS]",
		Short: "Scale every ingredient and the diluent to a total weight",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, args []string) error {
			target, err := valueOrPrompt(app, args, "Scale to total weight (g)", "100", parseGrams)
			if err != nil {
				return err
			}
			sheet, err := app.Blends.ScaleToWeight(ctx, id, target)
			if err != nil {
				return err
			}
			printSheet(cmd, sheet)
			return nil
		}),
	}
}

func newBlendDiluteCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "dilute ID [PERCENT]",
		Short: "Adjust only the diluent to reach a final concentration",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, args []string) error {
			target, err := valueOrPrompt(app, args, "Target concentration (%)", "20", parsePercent)
			if err != nil {
				return err
			}
			sheet, err := app.Blends.ScaleToDilution(ctx, id, target)
			if errors.Is(err, calc.ErrUnreachableConcentration) {
				return fmt.Errorf("cannot reach %s: %w", formatter.Dilution(target), err)
			}
			if err != nil {
				return err
			}
			printSheet(cmd, sheet)
			return nil
		}),
	}
}

func newBlendArchiveCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "archive ID",
		Short: fmt.Sprintf("Archive a %s", spec.kind),
		Args:  cobra.ExactArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, _ []string) error {
			if err := app.Blends.Archive(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Archived %s %s\n", spec.kind, formatter.TruncID(id))
			return nil
		}),
	}
}

func newBlendRestoreCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "restore ID",
		Short: fmt.Sprintf("Restore an archived %s", spec.kind),
		Args:  cobra.ExactArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, _ []string) error {
			if err := app.Blends.Restore(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Restored %s %s\n", spec.kind, formatter.TruncID(id))
			return nil
		}),
	}
}

func newBlendRemoveCmd(app *App, spec blendCmdSpec) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove ID...",
		Short: fmt.Sprintf("Delete one or more %s", strings.ToLower(spec.plural)),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := app.ctx(cmd)
			ids := make([]string, 0, len(args))
			for _, a := range args {
				id, err := resolveBlendID(ctx, app, spec.kind, a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := confirm(app, yes, fmt.Sprintf("Delete %d %s permanently?", len(ids), strings.ToLower(spec.plural))); err != nil {
				return err
			}
			if len(ids) == 1 {
				if err := app.Blends.Delete(ctx, ids[0]); err != nil {
					return err
				}
				printf(cmd, "Deleted %s %s\n", spec.kind, formatter.TruncID(ids[0]))
				return nil
			}
			n, err := app.Blends.BulkDelete(ctx, ids)
			if err != nil {
				return err
			}
			printf(cmd, "Deleted %d %s\n", n, strings.ToLower(spec.plural))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newBlendDuplicateCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate ID",
		Short: fmt.Sprintf("Copy a %s into a new private draft", spec.kind),
		Args:  cobra.ExactArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, _ []string) error {
			dup, err := app.Blends.Duplicate(ctx, id)
			if err != nil {
				return err
			}
			printf(cmd, "Created %s %s %s\n", spec.kind, dup.DisplayTitle(), formatter.TruncID(dup.ID))
			return nil
		}),
	}
}

func newBlendPublishCmd(app *App, spec blendCmdSpec) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "publish ID",
		Short: fmt.Sprintf("Share a %s with other users", spec.kind),
		Args:  cobra.ExactArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, _ []string) error {
			published := !undo
			b, err := app.Blends.Update(ctx, id, service.BlendPatch{IsPublished: &published})
			if err != nil {
				return err
			}
			printf(cmd, "%s %s\n", b.DisplayTitle(), formatter.StatusPill(b.IsArchived(), b.IsPublished))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Make the entry private again")

	return cmd
}

func newBlendBaseCmd(app *App, spec blendCmdSpec) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "base ID",
		Short: fmt.Sprintf("Mark a %s as a base for other work", spec.kind),
		Args:  cobra.ExactArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, _ []string) error {
			isBase := !undo
			b, err := app.Blends.Update(ctx, id, service.BlendPatch{IsBase: &isBase})
			if err != nil {
				return err
			}
			if b.IsBase {
				printf(cmd, "%s is now a base\n", b.DisplayTitle())
			} else {
				printf(cmd, "%s is no longer a base\n", b.DisplayTitle())
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "Unmark")

	return cmd
}

func newBlendRenameCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID TITLE",
		Short: fmt.Sprintf("Rename a %s", spec.kind),
		Args:  cobra.MinimumNArgs(2),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, args []string) error {
			title := strings.Join(args, " ")
			b, err := app.Blends.Update(ctx, id, service.BlendPatch{Title: &title})
			if err != nil {
				return err
			}
			printf(cmd, "Renamed to %s\n", b.DisplayTitle())
			return nil
		}),
	}
}

func newBlendNoteCmd(app *App, spec blendCmdSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "note ID [TEXT]",
		Short: "Set or clear the free-form note",
		Args:  cobra.MinimumNArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, args []string) error {
			note := strings.Join(args, " ")
			if _, err := app.Blends.Update(ctx, id, service.BlendPatch{Note: &note}); err != nil {
				return err
			}
			if note == "" {
				printf(cmd, "Note cleared\n")
			} else {
				printf(cmd, "Note saved\n")
			}
			return nil
		}),
	}
}

func newBlendExportCmd(app *App, spec blendCmdSpec) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: fmt.Sprintf("Write a %s and everything it uses as YAML", spec.kind),
		Args:  cobra.ExactArgs(1),
		RunE: withBlend(app, spec, func(ctx context.Context, cmd *cobra.Command, id string, _ []string) error {
			doc, err := app.Import.Export(ctx, id)
			if err != nil {
				return err
			}
			data, err := importer.Encode(doc)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			printf(cmd, "Exported %d materials and %d blends to %s\n", len(doc.Materials), len(doc.Blends), out)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "File to write (default stdout)")

	return cmd
}
