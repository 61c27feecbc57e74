package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tordrt/dbdesigner"
	"github.com/tordrt/dbdesigner/internal/store"
)

var (
	diagramName        string
	diagramDescription string
	diagramID          string
	diagramOutput      string
	diagramFormat      string
	unstar             bool
)

var diagramsCmd = &cobra.Command{
	Use:   "diagrams",
	Short: "Manage the local diagram library",
}

// withStore runs fn against the library configured by --store-dir
func withStore(cmd *cobra.Command, fn func(st *store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg.StoreDir, newLogger())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

var diagramsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved diagrams, starred first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st *store.Store) error {
			list, err := st.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tENGINE\tTABLES\tRELATIONSHIPS\tUPDATED\t")
			for _, d := range list {
				name := d.Name
				if d.Starred {
					name = "* " + name
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t\n", d.ID, name, d.Engine, d.TableCount, d.RelationshipCount, d.UpdatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		})
	},
}

var diagramsSaveCmd = &cobra.Command{
	Use:   "save FILE",
	Short: "Save a design document into the library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := dbdesigner.LoadFile(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd, func(st *store.Store) error {
			if diagramID == "" {
				d, err := st.Create(diagramName, diagramDescription, s)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s as %s\n", d.Name, d.ID)
				return nil
			}

			d, changed, err := st.SaveSchema(diagramID, s)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is unchanged\n", d.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", d.ID)
			return nil
		})
	},
}

var diagramsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Write a saved diagram as a document, DDL or documentation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st *store.Store) error {
			d, err := st.Get(args[0])
			if err != nil {
				return err
			}
			f := diagramFormat
			if !cmd.Flags().Changed("format") {
				f = formatFromPath(diagramOutput, diagramFormat)
			}
			w, done, err := createOutput(cmd, diagramOutput)
			if err != nil {
				return err
			}
			defer done()
			return dbdesigner.FormatSchema(*d.Schema, &dbdesigner.OutputOptions{Writer: w, Format: f})
		})
	},
}

var diagramsStarCmd = &cobra.Command{
	Use:   "star ID",
	Short: "Star a diagram so it is listed first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st *store.Store) error {
			return st.SetStarred(args[0], !unstar)
		})
	},
}

var diagramsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a saved diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st *store.Store) error {
			if err := st.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	diagramsSaveCmd.Flags().StringVar(&diagramName, "name", "", "Diagram name (default: the database name)")
	diagramsSaveCmd.Flags().StringVar(&diagramDescription, "description", "", "Diagram description")
	diagramsSaveCmd.Flags().StringVar(&diagramID, "id", "", "Update this diagram instead of creating one")

	diagramsShowCmd.Flags().StringVarP(&diagramOutput, "output", "o", "", "Output file (default: stdout)")
	diagramsShowCmd.Flags().StringVarP(&diagramFormat, "format", "f", "json", "Output format: json, yaml, sql, markdown, text or mermaid")

	diagramsStarCmd.Flags().BoolVar(&unstar, "unstar", false, "Remove the star instead")

	diagramsCmd.AddCommand(diagramsListCmd, diagramsSaveCmd, diagramsShowCmd, diagramsStarCmd, diagramsDeleteCmd)
	rootCmd.AddCommand(diagramsCmd)
}
