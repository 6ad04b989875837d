package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/syssam/erdkit/compiler/load"
	"github.com/syssam/erdkit/diagram"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a SQL DDL script as a diagram document",
		ArgsUsage: "schema.sql",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output document path (default: stdout)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "diagram name",
				Value: "imported",
			},
		},
		Action: runImport,
	}
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path := cmd.Args().First()
	if path == "" {
		return ErrNoSource
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	res := load.DDL(string(src), diagram.WithName(cmd.String("name")))
	for _, d := range res.Diagnostics {
		logger.Warn("statement skipped",
			zap.Int("line", d.Line),
			zap.String("reason", d.Message),
		)
	}
	logger.Info("import complete",
		zap.Int("tables", len(res.Tables)),
		zap.Int("entities", len(res.Graph.Entities())),
		zap.Int("skipped", len(res.Diagnostics)),
	)

	data, err := diagram.EncodeJSON(res.Graph)
	if err != nil {
		return err
	}
	if out := cmd.String("out"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	fmt.Print(string(data))
	return nil
}
