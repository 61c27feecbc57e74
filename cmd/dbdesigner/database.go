package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/tordrt/dbdesigner"
)

var (
	dbURL            string
	tables           string
	excludeTables    string
	schemaName       string
	designName       string
	introspectOutput string
	introspectDir    string
	introspectFormat string
	splitThreshold   int
)

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Reverse engineer a database into a design",
	Long: `Introspect reads tables, columns, keys and indexes from PostgreSQL, MySQL or
SQLite and writes them as a design document, DDL or documentation.`,
	Example: `  dbdesigner introspect --url postgres://localhost/shop -o shop.json
  dbdesigner introspect --url sqlite://data.db -f markdown -d docs/schema`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dbURL == "" {
			return errors.New("--url must be specified")
		}
		if introspectDir != "" && introspectOutput != "" {
			return errors.New("cannot use both --output-dir and --output flags")
		}

		s, err := dbdesigner.ExtractSchema(cmd.Context(), dbURL, &dbdesigner.Options{
			Tables:        parseTableList(tables),
			ExcludeTables: parseTableList(excludeTables),
			SchemaName:    schemaName,
			DatabaseName:  designName,
		})
		if err != nil {
			return errors.Wrap(err, "failed to extract schema")
		}

		f := introspectFormat
		if !cmd.Flags().Changed("format") {
			f = formatFromPath(introspectOutput, introspectFormat)
		}

		shouldSplit := introspectDir != "" && (splitThreshold == 0 || len(s.Database.Tables) > splitThreshold)
		if shouldSplit {
			return dbdesigner.FormatSchema(s, &dbdesigner.OutputOptions{OutputDir: introspectDir, Format: f})
		}

		w, done, err := createOutput(cmd, introspectOutput)
		if err != nil {
			return err
		}
		defer done()
		return dbdesigner.FormatSchema(s, &dbdesigner.OutputOptions{Writer: w, Format: f})
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Create a design's tables in a database",
	Long: `Apply generates DDL for the target database's engine and executes it one
statement at a time, stopping at the first failure. Statements are not wrapped
in a transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dbURL == "" {
			return errors.New("--url must be specified")
		}
		s, err := dbdesigner.LoadFile(args[0])
		if err != nil {
			return err
		}

		log := newLogger()
		n, err := dbdesigner.ApplySchema(cmd.Context(), debugLogger(log), dbURL, s)
		if err != nil {
			if n > 0 {
				log.Warn("%d statements were applied before the failure", n)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements\n", n)
		return nil
	},
}

func init() {
	introspectCmd.Flags().StringVar(&dbURL, "url", "", "Database URL (postgres://, mysql://, sqlite:// or sqlserver://)")
	introspectCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	introspectCmd.Flags().StringVar(&excludeTables, "exclude", "", "Tables to leave out (comma-separated, optional)")
	introspectCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	introspectCmd.Flags().StringVar(&designName, "name", "", "Name of the design (default: the database name)")
	introspectCmd.Flags().StringVarP(&introspectOutput, "output", "o", "", "Output file (default: stdout)")
	introspectCmd.Flags().StringVarP(&introspectDir, "output-dir", "d", "", "Output directory for multi-file markdown or text")
	introspectCmd.Flags().StringVarP(&introspectFormat, "format", "f", "json", "Output format: json, yaml, sql, markdown, text or mermaid")
	introspectCmd.Flags().IntVar(&splitThreshold, "split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")

	applyCmd.Flags().StringVar(&dbURL, "url", "", "Database URL (postgres://, mysql:// or sqlserver://)")

	rootCmd.AddCommand(introspectCmd, applyCmd)
}
