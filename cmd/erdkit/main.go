// Command erdkit works with ER diagram documents: it exports a diagram
// to TypeORM entities, Go models, GraphQL SDL, SQL DDL or a normalized
// document, imports existing DDL scripts back into a diagram, validates
// the relational lowering, and applies the generated schema to a live
// database.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cmd := &cli.Command{
		Name:  "erdkit",
		Usage: "ER diagram import, export and schema tooling",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			exportCommand(),
			importCommand(),
			validateCommand(),
			applyCommand(),
			watchCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "erdkit:", err)
		os.Exit(1)
	}
}

// newLogger builds the command logger. Output goes to stderr so piped
// document output stays clean.
func newLogger(cmd *cli.Command) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cmd.Bool("debug") {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}
