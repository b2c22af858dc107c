package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sillage/internal/cli/formatter"
	"github.com/alexanderramin/sillage/internal/domain"
	"github.com/spf13/cobra"
)

func newMaterialCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "material",
		Aliases: []string{"materials", "mat"},
		Short:   "Manage the raw material catalog",
	}

	cmd.AddCommand(
		newMaterialAddCmd(app),
		newMaterialListCmd(app),
		newMaterialInspectCmd(app),
		newMaterialUpdateCmd(app),
		newMaterialDilutionsCmd(app),
		newMaterialArchiveCmd(app),
		newMaterialRestoreCmd(app),
		newMaterialRemoveCmd(app),
		newMaterialSearchCmd(app),
	)

	for _, sub := range cmd.Commands() {
		switch sub.Name() {
		case "inspect", "update", "dilutions", "archive", "restore", "remove":
			sub.ValidArgsFunction = completeMaterialTitles(app)
		}
	}

	return cmd
}

// materialFlags are the editable catalog fields shared by add and update.
type materialFlags struct {
	title, cas, altName, category, obtained, description string
	pyramid                                              []string
	ifra                                                 float64
	dilutions                                            []float64
	publish                                              bool
}

func (f *materialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Material title")
	cmd.Flags().StringVar(&f.cas, "cas", "", "CAS number")
	cmd.Flags().StringVar(&f.altName, "alt-name", "", "Alternative or trade name")
	cmd.Flags().StringVar(&f.category, "category", "", "Olfactive category name")
	cmd.Flags().StringSliceVar(&f.pyramid, "pyramid", nil, "Pyramid levels (top, heart, base)")
	cmd.Flags().Var(newPercentValue(&f.ifra), "ifra", "IFRA limit in percent of the finished product (0 for none)")
	cmd.Flags().Var(&percentListValue{values: &f.dilutions}, "dilutions", "Stock dilutions in percent, e.g. 100,10,1")
	cmd.Flags().StringVar(&f.obtained, "obtained", "", "Date obtained (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.description, "description", "", "Free-form description")
	cmd.Flags().BoolVar(&f.publish, "publish", false, "Make the material visible to other users")
}

// apply copies every flag the user set onto m.
func (f *materialFlags) apply(cmd *cobra.Command, m *domain.Material) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		m.Title = f.title
	}
	if changed("cas") {
		m.CAS = strings.TrimSpace(f.cas)
	}
	if changed("alt-name") {
		m.AltName = strings.TrimSpace(f.altName)
	}
	if changed("category") {
		m.Category = domain.Category{Name: strings.TrimSpace(f.category)}
	}
	if changed("pyramid") {
		m.Pyramid = m.Pyramid[:0]
		for _, p := range f.pyramid {
			m.Pyramid = append(m.Pyramid, domain.PyramidLevel(strings.ToLower(strings.TrimSpace(p))))
		}
	}
	if changed("ifra") {
		m.IFRALimit = f.ifra
	}
	if changed("dilutions") {
		m.Dilutions = f.dilutions
	}
	if changed("obtained") {
		if strings.TrimSpace(f.obtained) == "" {
			m.DateObtained = nil
		} else {
			d, err := time.Parse("2006-01-02", f.obtained)
			if err != nil {
				return fmt.Errorf("invalid date %q: use YYYY-MM-DD", f.obtained)
			}
			m.DateObtained = &d
		}
	}
	if changed("description") {
		m.Description = f.description
	}
	if changed("publish") {
		m.IsPublished = f.publish
	}
	return nil
}

func newMaterialAddCmd(app *App) *cobra.Command {
	var f materialFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a material to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := &domain.Material{}
			if err := f.apply(cmd, m); err != nil {
				return err
			}
			if err := app.Materials.Create(app.ctx(cmd), m); err != nil {
				return err
			}
			printf(cmd, "Added material %s %s\n", m.Title, formatter.TruncID(m.ID))
			return nil
		},
	}

	f.register(cmd)
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newMaterialListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List materials",
		RunE: func(cmd *cobra.Command, args []string) error {
			materials, err := app.Materials.List(app.ctx(cmd), all)
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatMaterialList(materials)+"\n")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include archived materials")

	return cmd
}

func newMaterialInspectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect ID",
		Short: "Show every field of a material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := app.ctx(cmd)
			id, err := resolveMaterialID(ctx, app, args[0])
			if err != nil {
				return err
			}
			m, err := app.Materials.Get(ctx, id)
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatMaterialInspect(m)+"\n")
			return nil
		},
	}
}

func newMaterialUpdateCmd(app *App) *cobra.Command {
	var (
		f           materialFlags
		clearFields []string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change material fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := app.ctx(cmd)
			id, err := resolveMaterialID(ctx, app, args[0])
			if err != nil {
				return err
			}
			m, err := app.Materials.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := f.apply(cmd, m); err != nil {
				return err
			}
			if err := app.Materials.Update(ctx, m); err != nil {
				return err
			}
			for _, field := range clearFields {
				if err := app.Materials.RemoveField(ctx, id, field); err != nil {
					return err
				}
			}
			printf(cmd, "Updated material %s\n", m.Title)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringSliceVar(&clearFields, "clear", nil, "Optional fields to remove (cas, alt_name)")

	return cmd
}

func newMaterialDilutionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dilutions ID PERCENT...",
		Short: "Replace the stock dilutions a material is available in",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := app.ctx(cmd)
			id, err := resolveMaterialID(ctx, app, args[0])
			if err != nil {
				return err
			}
			var ds []float64
			list := &percentListValue{values: &ds}
			for _, a := range args[1:] {
				if err := list.Set(a); err != nil {
					return err
				}
			}
			m, err := app.Materials.SetDilutions(ctx, id, ds)
			if err != nil {
				return err
			}
			printf(cmd, "%s is available at %s\n", m.Title, formatter.Dilutions(m.Dilutions))
			return nil
		},
	}
}

func newMaterialArchiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "archive ID",
		Short: "Hide a material from lists and search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := app.ctx(cmd)
			id, err := resolveMaterialID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Materials.Archive(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Archived material %s\n", formatter.TruncID(id))
			return nil
		},
	}
}

func newMaterialRestoreCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore ID",
		Short: "Bring an archived material back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := app.ctx(cmd)
			id, err := resolveMaterialID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Materials.Restore(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Restored material %s\n", formatter.TruncID(id))
			return nil
		},
	}
}

func newMaterialRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a material that no blend uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := app.ctx(cmd)
			id, err := resolveMaterialID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := confirm(app, yes, "Delete this material permanently?"); err != nil {
				return err
			}
			if err := app.Materials.Delete(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Deleted material %s\n", formatter.TruncID(id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newMaterialSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find materials by title, CAS number or alternative name",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			materials, err := app.Materials.Search(app.ctx(cmd), strings.Join(args, " "))
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatMaterialList(materials)+"\n")
			return nil
		},
	}
}

func newCategoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "List or add olfactive categories",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := app.Categories.List(app.ctx(cmd))
			if err != nil {
				return err
			}
			write(cmd, formatter.FormatCategoryList(categories))
			return nil
		},
	}

	var color string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a custom category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Categories.Create(app.ctx(cmd), args[0], color)
			if err != nil {
				return err
			}
			printf(cmd, "Added category %s\n", formatter.CategoryBadge(*c))
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "Hex color such as #83a598")

	cmd.AddCommand(list, add)
	return cmd
}
