// Package cmd hosts the CLI: argument validation and the parse → emit
// pipeline. All conversion logic lives in internal/.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/rbx2rojo/internal/project"
	"github.com/agentic-research/rbx2rojo/internal/rbxl"
)

const (
	version        = "1.0.0"
	inputExtension = ".rbxlx"
)

var (
	verbose    bool
	outputFlag string
)

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "",
		"output directory (overrides the positional argument)")
}

var rootCmd = &cobra.Command{
	Use:     "rbx2rojo <place.rbxlx> [output-dir]",
	Short:   "Convert Roblox place files (.rbxlx) to Rojo project structures",
	Version: version,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := "."
		if len(args) == 2 {
			output = args[1]
		}
		if outputFlag != "" {
			output = outputFlag
		}
		log, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		defer func() { _ = log.Sync() }()
		return run(log, args[0], output)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// run validates the paths, parses the place file and emits the project.
// The output directory is only created once parsing has succeeded, so a
// failed parse leaves nothing on disk.
func run(log *zap.Logger, input, output string) error {
	info, err := os.Stat(input)
	if err != nil || info.IsDir() {
		return fmt.Errorf("input file does not exist: %s", input)
	}
	if !strings.EqualFold(filepath.Ext(input), inputExtension) {
		return fmt.Errorf("input file is not a %s file: %s", inputExtension, input)
	}

	mkOutput := func() error { return nil }
	if outInfo, err := os.Stat(output); err == nil {
		if !outInfo.IsDir() {
			return fmt.Errorf("output path is not a directory: %s", output)
		}
		if err := checkWritable(output); err != nil {
			return fmt.Errorf("output directory is not writable: %s: %w", output, err)
		}
	} else {
		mkOutput = func() error {
			if err := os.MkdirAll(output, 0o755); err != nil {
				return fmt.Errorf("create output directory %s: %w", output, err)
			}
			log.Info("created output directory", zap.String("path", output))
			return nil
		}
	}

	log.Info("starting conversion",
		zap.String("version", version),
		zap.String("input", input),
		zap.String("output", output))
	start := time.Now()

	game, err := rbxl.NewParser(input, log).Parse()
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}
	log.Info("parsed place",
		zap.String("game", game.Name),
		zap.Int("instances", len(game.Nodes)),
		zap.Int("roots", len(game.Roots)))
	warnWorkspace(log, game)

	if err := mkOutput(); err != nil {
		return err
	}
	created, err := project.NewEmitter(game, osfs.New(output), log).Emit()
	if err != nil {
		return fmt.Errorf("generate project in %s: %w", output, err)
	}

	log.Info("conversion complete",
		zap.Int("created", len(created)),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("project", output))
	return nil
}

// checkWritable probes the directory with a throwaway temp file.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".rbx2rojo-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func warnWorkspace(log *zap.Logger, game *rbxl.GameData) {
	for _, ref := range game.Roots {
		node := game.Nodes[ref]
		if node == nil || node.Class != "Workspace" {
			continue
		}
		if len(node.Children) == 0 {
			log.Warn("Workspace exists but has no children")
		}
		return
	}
	log.Warn("no Workspace found in the place file")
}
