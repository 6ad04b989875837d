package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/syssam/erdkit/compiler/gen"
	"github.com/syssam/erdkit/compiler/gen/golang"
	"github.com/syssam/erdkit/compiler/gen/graphql"
	"github.com/syssam/erdkit/compiler/gen/sqlddl"
	"github.com/syssam/erdkit/compiler/gen/ts"
	"github.com/syssam/erdkit/compiler/load"
	"github.com/syssam/erdkit/dialect"
	"github.com/syssam/erdkit/diagram"
)

// Export command errors.
var (
	ErrNoSource      = errors.New("no diagram document given (pass a file or set source in .erdkit.yaml)")
	ErrUnknownFormat = errors.New("unknown export format")
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Aliases:   []string{"gen"},
		Usage:     "Generate code from a diagram document",
		ArgsUsage: "[diagram.json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "target format (ts, go, graphql, postgres, mysql, sqlite, json, binary)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output directory",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "package",
				Aliases: []string{"p"},
				Usage:   "package name for the go format",
			},
		},
		Action: runExport,
	}
}

func runExport(ctx context.Context, cmd *cli.Command) error {
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
	format := firstNonEmpty(cmd.String("format"), cfg.Export.Format, "ts")
	outDir := firstNonEmpty(cmd.String("out"), cfg.Export.Out, ".")
	pkg := firstNonEmpty(cmd.String("package"), cfg.Export.Package)

	return export(ctx, logger, source, format, outDir, pkg)
}

func export(ctx context.Context, logger *zap.Logger, source, format, outDir, pkg string) error {
	g, err := load.JSONFile(source)
	if err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}

	artifacts, err := emit(g, format, pkg)
	if err != nil {
		return err
	}

	writer := gen.NewWriter(outDir)
	if err := writer.Write(ctx, artifacts); err != nil {
		return err
	}
	m := writer.Metrics()
	logger.Info("export complete",
		zap.String("format", format),
		zap.String("out", outDir),
		zap.Int("files", m.FilesWritten),
		zap.Int64("bytes", m.TotalBytes),
	)
	return nil
}

// emit produces the artifacts for one target format. The json and binary
// formats re-encode the document instead of running an emitter.
func emit(g *diagram.Graph, format, pkg string) ([]gen.Artifact, error) {
	switch format {
	case "json":
		data, err := diagram.EncodeJSON(g)
		if err != nil {
			return nil, err
		}
		return []gen.Artifact{{Name: "diagram.json", Content: data}}, nil
	case "binary":
		data, err := diagram.EncodeBinary(g)
		if err != nil {
			return nil, err
		}
		return []gen.Artifact{{Name: "diagram.bin", Content: data}}, nil
	}
	e, err := emitterFor(format, pkg)
	if err != nil {
		return nil, err
	}
	return gen.Emit(e, g)
}

func emitterFor(format, pkg string) (gen.Emitter, error) {
	switch format {
	case "ts":
		return ts.New(), nil
	case "go":
		e := golang.New()
		if pkg != "" {
			e.Package = pkg
		}
		return e, nil
	case "graphql":
		return graphql.New(), nil
	}
	if d, err := dialect.Parse(format); err == nil {
		return sqlddl.New(d), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}
