package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/kenttraders/aimarketops/backend-go/internal/analytics"
	"github.com/kenttraders/aimarketops/backend-go/internal/app"
	"github.com/kenttraders/aimarketops/backend-go/internal/config"
	"github.com/kenttraders/aimarketops/backend-go/internal/domain"
	"github.com/kenttraders/aimarketops/backend-go/internal/drive"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository"
	"github.com/kenttraders/aimarketops/backend-go/internal/repository/postgres"
	"github.com/kenttraders/aimarketops/backend-go/internal/storage"
	"github.com/kenttraders/aimarketops/backend-go/pkg/logger"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string; enables stored history, persistence and sync",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		newDBURLFlag(),
		&cli.StringFlag{
			Name:    "mode",
			Usage:   "Data source mode: mock, live or stored",
			EnvVars: []string{"DATA_SOURCE_MODE"},
		},
		&cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory with sellerdynamics.json, shopify.json and orders.json snapshots (mock mode)",
		},
		&cli.BoolFlag{
			Name:  "persist",
			Usage: "Save computed runs to the database",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Indent JSON output",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "warn",
			EnvVars: []string{"LOG_LEVEL"},
		},
	}
}

// withApp builds the restock service from config and flags for the duration of one command.
func withApp(opts app.Options, fn func(c *cli.Context, a *app.App) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		logger.Configure(os.Stderr, "console")
		logger.SetLevel(c.String("log-level"))

		cfg := config.Load()
		if mode := c.String("mode"); mode != "" {
			cfg.DataSource.Mode = mode
		}
		if dir := c.String("snapshot-dir"); dir != "" {
			cfg.DataSource.FixturesDir = dir
		}
		if c.Bool("persist") {
			cfg.Restock.PersistRuns = true
		}

		if dsn := c.String("db-url"); dsn != "" {
			db, err := postgres.Open("pgx", dsn)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()
			opts.DB = db
			cfg.DataSource.HistoryFromDB = true
		}

		a, err := app.Build(c.Context, cfg, opts)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(c, a)
	}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func main() {
	cliApp := &cli.App{
		Name:  "restock",
		Usage: "Compute restock recommendations, optimizations and alerts",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "recommend",
				Usage:  "Print restock recommendations and purchase orders",
				Action: withApp(app.Options{}, runRecommend),
			},
			{
				Name:  "optimize",
				Usage: "Print inventory optimizations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "all, overstock, pricing or efficiency",
						Value: "all",
					},
				},
				Action: withApp(app.Options{}, runOptimize),
			},
			{
				Name:  "alerts",
				Usage: "Print stock alerts",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "threshold",
						Usage: "Low stock threshold; 0 uses RESTOCK_ALERT_THRESHOLD",
					},
					&cli.BoolFlag{
						Name:  "predictions",
						Usage: "Include predicted stockouts",
						Value: true,
					},
				},
				Action: withApp(app.Options{}, runAlerts),
			},
			{
				Name:  "export",
				Usage: "Upload a CSV and JSON restock report to object storage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "local-dir",
						Usage: "Write the report under this directory instead of the configured bucket",
					},
				},
				Action: runExport,
			},
			{
				Name:   "sync",
				Usage:  "Save the current upstream products to the database",
				Action: withApp(app.Options{}, runSync),
			},
			{
				Name:  "import-orders",
				Usage: "Append an order CSV export to the database order history",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "CSV with product_id or sku, quantity and created_at columns",
					},
					&cli.StringFlag{
						Name:    "drive-folder",
						Usage:   "Google Drive folder path whose CSV and XLSX exports are imported",
						EnvVars: []string{"GOOGLE_DRIVE_ORDERS_FOLDER"},
					},
					&cli.StringFlag{
						Name:  "sku-prefix",
						Usage: "Prefix applied to bare SKUs",
						Value: analytics.DefaultSKUPrefix,
					},
				},
				Action: runImportOrders,
			},
			{
				Name:  "runs",
				Usage: "List persisted restock runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
					},
				},
				Action: withApp(app.Options{}, runListRuns),
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("restock command failed")
	}
}

func runRecommend(c *cli.Context, a *app.App) error {
	result, err := a.Service.AutoRestock(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, result)
}

func runOptimize(c *cli.Context, a *app.App) error {
	mode, ok := domain.ParseOptimizationMode(c.String("type"))
	if !ok {
		return fmt.Errorf("unknown optimization type %q", c.String("type"))
	}
	report, err := a.Service.Optimize(c.Context, mode)
	if err != nil {
		return err
	}
	return printJSON(c, report)
}

func runAlerts(c *cli.Context, a *app.App) error {
	report, err := a.Service.Alerts(c.Context, c.Int("threshold"), c.Bool("predictions"))
	if err != nil {
		return err
	}
	return printJSON(c, report)
}

func runExport(c *cli.Context) error {
	opts := app.Options{}
	if dir := c.String("local-dir"); dir != "" {
		opts.Storage = storage.NewLocalStorage(dir)
	}
	return withApp(opts, func(c *cli.Context, a *app.App) error {
		keys, err := a.Service.ExportReport(c.Context)
		if err != nil {
			return err
		}
		return printJSON(c, keys)
	})(c)
}

func runSync(c *cli.Context, a *app.App) error {
	res, err := a.Service.SyncProducts(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, res)
}

func runListRuns(c *cli.Context, a *app.App) error {
	runs, err := a.Service.ListRuns(c.Context, &repository.RunFilter{Limit: c.Int("limit")})
	if err != nil {
		return err
	}
	return printJSON(c, runs)
}

func runImportOrders(c *cli.Context) error {
	logger.Configure(os.Stderr, "console")
	logger.SetLevel(c.String("log-level"))

	file, folder := c.String("file"), c.String("drive-folder")
	if (file == "") == (folder == "") {
		return fmt.Errorf("import-orders needs exactly one of --file or --drive-folder")
	}
	dsn := c.String("db-url")
	if dsn == "" {
		return fmt.Errorf("import-orders requires --db-url or DATABASE_URL")
	}
	db, err := postgres.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(c.Context); err != nil {
		return err
	}

	importer := analytics.NewOrderImporter(postgres.NewRestockRepository(db))
	importer.SKUPrefix = c.String("sku-prefix")

	if folder != "" {
		return importDriveFolder(c, importer, folder)
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	report, err := importer.ImportCSV(c.Context, f)
	if err != nil {
		return err
	}
	return printJSON(c, report)
}

func importDriveFolder(c *cli.Context, importer *analytics.OrderImporter, folder string) error {
	cfg := config.Load()
	if cfg.Drive.CredentialsFile == "" {
		return fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_FILE is required for drive imports")
	}
	svc, err := drive.NewServiceFromFile(c.Context, cfg.Drive.CredentialsFile)
	if err != nil {
		return err
	}
	folderID, err := svc.FindFolderByPath(c.Context, folder)
	if err != nil {
		return err
	}

	report, err := drive.NewOrderFolderImporter(svc, importer).ImportFolder(c.Context, folderID)
	if err != nil {
		return err
	}
	return printJSON(c, report)
}
