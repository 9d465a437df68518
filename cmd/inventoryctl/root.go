package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-voice-intake/config"
	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/platform/postgres"
	"github.com/fekuna/omnipos-voice-intake/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-voice-intake/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-voice-intake/internal/product/usecase"
	"github.com/fekuna/omnipos-voice-intake/internal/report"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app opens the backing services lazily so that --help works offline.
type app struct {
	reportDir string
	logger    logger.ZapLogger
	migrate   func(ctx context.Context) error
	products  func() (product.UseCase, func(), error)
	now       func() time.Time
}

func newPostgresApp(cfg *config.Config, log logger.ZapLogger) *app {
	connect := func() (*sqlx.DB, error) {
		return postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    2,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
	}

	return &app{
		reportDir: cfg.Report.OutputDir,
		logger:    log,
		now:       time.Now,
		migrate: func(ctx context.Context) error {
			db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()
			return prodRepoPkg.Migrate(ctx, db)
		},
		products: func() (product.UseCase, func(), error) {
			db, err := connect()
			if err != nil {
				return nil, nil, err
			}
			uc := prodUCPkg.NewProductUseCase(prodRepoPkg.NewPGRepository(db), nil, log)
			return uc, func() { db.Close() }, nil
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Operate the voice intake inventory",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(a), newReportCmd(a), newPrintCmd(a))
	return root
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the products table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			a.logger.Info("Schema is up to date")
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var (
		owner int64
		out   string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export an owner's products to xlsx",
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := a.list(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(products) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "owner %d has no products\n", owner)
				return nil
			}

			dir := out
			if dir == "" {
				dir = a.reportDir
			}
			path, err := report.ExportXLSX(products, dir, owner, a.now())
			if err != nil {
				return err
			}
			a.logger.Info("Report exported", zap.Int64("owner_id", owner), zap.String("path", path))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().Int64Var(&owner, "owner", 0, "owner (actor) id")
	cmd.Flags().StringVar(&out, "out", "", "output directory (defaults to REPORT_OUTPUT_DIR)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newPrintCmd(a *app) *cobra.Command {
	var owner int64
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print an owner's products with per-currency totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := a.list(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if len(products) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "owner %d has no products\n", owner)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.PrintView(products, report.DefaultLabels))
			return nil
		},
	}
	cmd.Flags().Int64Var(&owner, "owner", 0, "owner (actor) id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func (a *app) list(ctx context.Context, owner int64) ([]model.Product, error) {
	uc, closeFn, err := a.products()
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return uc.ListProducts(ctx, owner)
}
