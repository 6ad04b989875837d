package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/syssam/erdkit/compiler/gen/sqlddl"
	"github.com/syssam/erdkit/compiler/load"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/dialect/schema"
)

// ErrValidationFailed reports validation errors in the lowered schema.
var ErrValidationFailed = errors.New("schema validation failed")

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate the relational lowering of a diagram document",
		ArgsUsage: "[diagram.json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dialect",
				Aliases: []string{"d"},
				Usage:   "SQL dialect to lower for (postgres, mysql, sqlite)",
				Value:   "postgres",
			},
		},
		Action: runValidate,
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfigHere()
	if err != nil {
		return err
	}
	source := firstNonEmpty(cmd.Args().First(), cfg.Source)
	if source == "" {
		return ErrNoSource
	}
	d, err := dialect.Parse(cmd.String("dialect"))
	if err != nil {
		return err
	}

	g, err := load.JSONFile(source)
	if err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}

	result := schema.ValidateSchema(sqlddl.Lower(g, d))
	if result.HasErrors() || result.HasWarnings() {
		fmt.Print(result.String())
	}
	if result.HasErrors() {
		return ErrValidationFailed
	}
	return nil
}
