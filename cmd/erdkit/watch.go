package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-export the diagram whenever the document changes",
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
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
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

	run := func() {
		if err := export(ctx, logger, source, format, outDir, pkg); err != nil {
			logger.Error("export failed", zap.Error(err))
		}
	}
	run()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Watch the directory, not the file: editors replace files on save,
	// which would drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(source)); err != nil {
		return err
	}
	logger.Info("watching", zap.String("source", source))

	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}

	// Saves arrive as bursts of events; coalesce them.
	var pending *time.Timer
	debounced := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if p, err := filepath.Abs(event.Name); err != nil || p != abs {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(100*time.Millisecond, func() {
				select {
				case debounced <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-debounced:
			logger.Debug("document changed", zap.String("source", source))
			run()
		}
	}
}
