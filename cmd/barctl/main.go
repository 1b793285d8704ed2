// Command barctl applies a sales export to a bar inventory kept in spreadsheet files
// (or a SQL database) and prints the deduction report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fekuna/omnipos-bar-service/internal/database"
	"github.com/fekuna/omnipos-bar-service/internal/deduction"
	"github.com/fekuna/omnipos-bar-service/internal/inventory"
	"github.com/fekuna/omnipos-bar-service/internal/inventory/dto"
	invRepoPkg "github.com/fekuna/omnipos-bar-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-bar-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-bar-service/internal/logger"
	"github.com/fekuna/omnipos-bar-service/internal/tabular"
	"go.uber.org/zap"
)

type options struct {
	inventoryPath string
	recipesPath   string
	movementsPath string
	salesPath     string
	dryRun        bool
	lowStock      bool
	dbDriver      string
	dbDSN         string
	verbose       bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "barctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logConfig := &logger.ZapLoggerConfig{
		Encoding:          "console",
		Level:             "warn",
		DisableCaller:     true,
		DisableStacktrace: true,
	}
	if opts.verbose {
		logConfig.IsDevelopment = true
		logConfig.Level = "debug"
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	var repo inventory.Repository
	if opts.dbDSN != "" {
		sqlRepo, closeDB, err := openSQL(ctx, opts, out)
		if err != nil {
			return err
		}
		defer closeDB()
		repo = sqlRepo
	} else {
		repo = invRepoPkg.NewCSVRepository(opts.inventoryPath, opts.recipesPath, opts.movementsPath)
	}

	uc := invUCPkg.NewInventoryUseCase(repo, nil, appLogger)

	if opts.salesPath != "" {
		table, err := tabular.ReadFile(opts.salesPath)
		if err != nil {
			return fmt.Errorf("could not read sales file: %w", err)
		}
		report, err := uc.ImportSales(ctx, &dto.ImportSalesInput{
			Source: filepath.Base(opts.salesPath),
			Table:  table,
			UserID: os.Getenv("USER"),
			DryRun: opts.dryRun,
		})
		if err != nil {
			var formatErr *deduction.InputFormatError
			if errors.As(err, &formatErr) {
				return errors.New(formatErr.Msg)
			}
			return err
		}
		printReport(out, report, opts.dryRun)
		appLogger.Debug("sales import finished", zap.String("sales", opts.salesPath), zap.Bool("dry_run", opts.dryRun))
	}

	if opts.lowStock {
		rows, err := uc.ListLowStock(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(out, "No items at or below their low-stock threshold.")
		}
		for i := range rows {
			fmt.Fprintf(out, "LOW  %s: %s bottles (threshold %s)\n",
				rows[i].ItemName, deduction.FormatOz(rows[i].OnHandValue()), deduction.FormatOz(rows[i].LowThreshold.Float64))
		}
	}
	return nil
}

// openSQL opens the database and seeds it from the spreadsheet files when they exist.
func openSQL(ctx context.Context, opts *options, out io.Writer) (*invRepoPkg.SQLRepository, func(), error) {
	db, err := database.Open(&database.Config{Driver: opts.dbDriver, DSN: opts.dbDSN})
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open database: %w", err)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("unable to ensure schema: %w", err)
	}
	repo := invRepoPkg.NewSQLRepository(db)

	if _, err := os.Stat(opts.inventoryPath); err == nil {
		seed := invRepoPkg.NewCSVRepository(opts.inventoryPath, opts.recipesPath, "")
		rows, err := seed.FindAll(ctx, nil)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		entries, err := seed.ListRecipes(ctx)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := repo.UpsertItems(ctx, rows); err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := repo.ReplaceRecipes(ctx, entries); err != nil {
			db.Close()
			return nil, nil, err
		}
		fmt.Fprintf(out, "Loaded %d inventory items and %d recipe entries into the database.\n", len(rows), len(entries))
	}
	return repo, func() { db.Close() }, nil
}

func printReport(out io.Writer, report *deduction.Report, dryRun bool) {
	if dryRun {
		fmt.Fprintln(out, "Dry run, inventory not saved.")
	}
	for _, line := range report.Lines() {
		fmt.Fprintln(out, line)
	}
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("barctl", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.inventoryPath, "inventory", "inventory.csv", "inventory spreadsheet (.csv)")
	fs.StringVar(&opts.recipesPath, "recipes", "recipes.csv", "recipes spreadsheet (.csv)")
	fs.StringVar(&opts.movementsPath, "movements", "", "append deduction history to this .csv")
	fs.StringVar(&opts.salesPath, "sales", "", "sales export to apply (.csv or .xlsx)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print the report without saving inventory")
	fs.BoolVar(&opts.lowStock, "low", false, "list items at or below their low-stock threshold")
	fs.StringVar(&opts.dbDriver, "db-driver", database.DriverSQLite, "database driver when -db-dsn is set (sqlite or postgres)")
	fs.StringVar(&opts.dbDSN, "db-dsn", "", "load the spreadsheets into this database and work there")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.salesPath == "" && !opts.lowStock {
		return nil, errors.New("nothing to do: pass -sales and/or -low")
	}
	return opts, nil
}
