package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/syssam/erdkit/compiler/gen/sqlddl"
	"github.com/syssam/erdkit/compiler/load"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/dialect/schema"

	// Database drivers for the supported dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNoDSN reports a missing connection string.
var ErrNoDSN = errors.New("no connection string given (use --dsn or set apply.dsn in .erdkit.yaml)")

// driverNames maps dialects to registered database/sql driver names.
var driverNames = map[dialect.Dialect]string{
	dialect.Postgres: "postgres",
	dialect.MySQL:    "mysql",
	dialect.SQLite:   "sqlite",
}

func applyCommand() *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Create the diagram's schema on a live database",
		ArgsUsage: "[diagram.json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dialect",
				Aliases: []string{"d"},
				Usage:   "SQL dialect (postgres, mysql, sqlite)",
			},
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "database connection string",
				Sources: cli.EnvVars("ERDKIT_DSN"),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the statements without executing them",
			},
		},
		Action: runApply,
	}
}

func runApply(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfigHere()
	if err != nil {
		return err
	}
	source := firstNonEmpty(cmd.Args().First(), cfg.Source)
	if source == "" {
		return ErrNoSource
	}
	d, err := dialect.Parse(firstNonEmpty(cmd.String("dialect"), cfg.Apply.Dialect, "postgres"))
	if err != nil {
		return err
	}

	g, err := load.JSONFile(source)
	if err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}
	statements := sqlddl.New(d).Statements(g)

	if cmd.Bool("dry-run") {
		for _, stmt := range statements {
			fmt.Println(stmt)
			fmt.Println()
		}
		return nil
	}

	dsn := firstNonEmpty(cmd.String("dsn"), cfg.Apply.DSN)
	if dsn == "" {
		return ErrNoDSN
	}
	db, err := sql.Open(driverNames[d], dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := schema.Apply(ctx, db, statements); err != nil {
		return err
	}
	logger.Info("schema applied",
		zap.String("dialect", d.String()),
		zap.Int("statements", len(statements)),
	)
	return nil
}
