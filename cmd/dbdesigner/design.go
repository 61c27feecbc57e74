package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/tordrt/dbdesigner"
	"github.com/tordrt/dbdesigner/internal/schema"
	"github.com/tordrt/dbdesigner/internal/sqlcheck"
	"github.com/tordrt/dbdesigner/internal/sqlgen"
)

var (
	outputFile string
	outputDir  string
	format     string
	dialect    string
	checkSQL   bool
)

var newCmd = &cobra.Command{
	Use:   "new FILE",
	Short: "Create an empty design document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := dbdesigner.SaveFile(args[0], schema.New(cfg.DatabaseName, cfg.Engine)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", args[0], cfg.Engine)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Generate DDL, documentation or a diagram from a design",
	Long: `Export reads a JSON or YAML design and writes it as sql, json, yaml,
markdown, text or mermaid. Markdown and text can be split into one file per
table with --output-dir.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := dbdesigner.LoadFile(args[0])
		if err != nil {
			return err
		}
		if dialect != "" {
			engine := schema.Engine(dialect)
			if !engine.IsKnown() {
				return errors.Newf("unknown dialect %s (use %s)", dialect, engineNames())
			}
			s.Database.Engine = engine
		}

		if outputDir != "" && outputFile != "" {
			return errors.New("cannot use both --output-dir and --output flags")
		}
		f := format
		if !cmd.Flags().Changed("format") {
			f = formatFromPath(outputFile, format)
		}
		if outputDir != "" {
			return dbdesigner.FormatSchema(s, &dbdesigner.OutputOptions{OutputDir: outputDir, Format: f})
		}

		w, done, err := createOutput(cmd, outputFile)
		if err != nil {
			return err
		}
		defer done()
		return dbdesigner.FormatSchema(s, &dbdesigner.OutputOptions{Writer: w, Format: f})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a design document",
	Long: `Validate decodes a design and checks every reference in it. With --sql the
design is also rendered as MySQL DDL and parsed to prove the script is valid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := dbdesigner.LoadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ok: %s (%s) with %d tables and %d relationships\n",
			s.Database.Name, s.Database.Engine, len(s.Database.Tables), len(s.Database.Relationships))

		if !checkSQL {
			return nil
		}
		sum, err := sqlcheck.MySQL(sqlgen.Generate(s, sqlgen.WithDialect(sqlgen.MySQL{})))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "sql ok: %d statements, %d tables, %d indexes, %d foreign keys\n",
			sum.Statements, len(sum.Tables), sum.Indexes, sum.ForeignKeys)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file markdown or text")
	exportCmd.Flags().StringVarP(&format, "format", "f", "sql", "Output format: sql, json, yaml, markdown, text or mermaid")
	exportCmd.Flags().StringVar(&dialect, "dialect", "", "Generate for this engine instead of the design's own: "+engineNames())

	validateCmd.Flags().BoolVar(&checkSQL, "sql", false, "Also parse the generated MySQL DDL")

	rootCmd.AddCommand(newCmd, exportCmd, validateCmd)
}
