package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alexanderramin/sillage/internal/cli"
	"github.com/alexanderramin/sillage/internal/config"
	"github.com/alexanderramin/sillage/internal/db"
	"github.com/alexanderramin/sillage/internal/repository"
	"github.com/alexanderramin/sillage/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger, closeLog := config.NewLogger(cfg)
	defer closeLog.Close()

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	materialRepo := repository.NewSQLiteMaterialRepo(database)
	categoryRepo := repository.NewSQLiteCategoryRepo(database)
	blendRepo := repository.NewSQLiteBlendRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	observer := service.NewLogUseCaseObserver(logger)

	app := &cli.App{
		Materials:  service.NewMaterialService(materialRepo, categoryRepo, blendRepo, uow, observer),
		Categories: service.NewCategoryService(categoryRepo, uow),
		Blends:     service.NewBlendService(blendRepo, materialRepo, uow, cfg.DefaultDiluent, observer),
		Import:     service.NewImportService(materialRepo, blendRepo, uow, cfg.DefaultDiluent, observer),
		Owner:      cfg.Owner,
		Config:     cfg,
		ConfigPath: cfgPath,
	}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Debug("starting", "db_path", cfg.DBPath, "owner", cfg.Owner)
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
