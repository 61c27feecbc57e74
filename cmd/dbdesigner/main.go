package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	_ "github.com/joho/godotenv/autoload"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/spf13/cobra"
	"github.com/tordrt/dbdesigner/internal/config"
	"github.com/tordrt/dbdesigner/internal/editor"
	"github.com/tordrt/dbdesigner/internal/schema"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dbdesigner",
	Short: "Design relational database schemas and generate DDL",
	Long: `dbdesigner edits database designs (tables, columns and relationships) and
generates CREATE TABLE scripts for MySQL, PostgreSQL or SQL Server. Designs are
JSON or YAML documents; existing databases can be reverse engineered into one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: ./dbdesigner.yaml or ~/.dbdesigner/dbdesigner.yaml)")
	flags.String("engine", "", "Engine for new designs: "+engineNames())
	flags.String("database-name", "", "Database name for new designs")
	flags.String("id-strategy", "", "Id generator for new objects: uuid or sequence")
	flags.Int("history-limit", 0, "Undo snapshots to keep (0 keeps all)")
	flags.String("store-dir", "", "Directory holding the diagram library")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig resolves defaults, the config file, DBDESIGNER_* variables and flags
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return config.Config{}, err
	}
	return config.Load(v, configFile)
}

// engineNames lists the supported engines for help and error text
func engineNames() string {
	names := make([]string, 0, len(schema.Engines()))
	for _, e := range schema.Engines() {
		names = append(names, string(e))
	}
	return strings.Join(names, ", ")
}

func newLogger() logger.Logger {
	return logger.NewConsoleLogger()
}

// debugLogger returns log when --verbose is set and nil otherwise
func debugLogger(log logger.Logger) logger.Logger {
	if verbose {
		return log
	}
	return nil
}

func newSession(cfg config.Config, initial schema.Schema, log logger.Logger) (*editor.Session, error) {
	ids, err := editor.GeneratorFor(cfg.IDStrategy)
	if err != nil {
		return nil, err
	}
	return editor.NewSession(
		editor.WithInitialSchema(initial),
		editor.WithIDGenerator(ids),
		editor.WithHistoryLimit(cfg.HistoryLimit),
		editor.WithLogger(debugLogger(log)),
	), nil
}

func parseTableList(tables string) []string {
	if tables == "" {
		return nil
	}
	tableList := strings.Split(tables, ",")
	for i, t := range tableList {
		tableList[i] = strings.TrimSpace(t)
	}
	return tableList
}

// formatFromPath guesses an output format from a file extension
func formatFromPath(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sql":
		return "sql"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".md":
		return "markdown"
	case ".txt":
		return "text"
	case ".mmd":
		return "mermaid"
	}
	return fallback
}

// createOutput opens path for writing, or falls back to the command's stdout
func createOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create output file")
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close output file: %v\n", err)
		}
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
