package cli

import (
	"fmt"
	"strings"

	"github.com/smallnest/raglab/app"
	"github.com/smallnest/raglab/sqlrag"
	"github.com/spf13/cobra"
)

// SQLCmd creates the sql command.
func SQLCmd() *cobra.Command {
	var (
		topK   int
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "sql <question>",
		Short: "Answer a question from a SQLite database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			if cmd.Flags().Changed("top-k") {
				e.cfg.SQLTopK = topK
			}
			if dbPath != "" {
				e.cfg.SQLitePath = dbPath
			}

			pipeline, closeFn, err := app.NewSQLPipeline(cmd.Context(), e.cfg, app.Options{Logger: e.logger})
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := pipeline.Query(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return render(e.out, e.format, result)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", sqlrag.DefaultTopK, "Maximum rows the generated query may return")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default RAGLAB_SQLITE_PATH)")
	return cmd
}

// ImportCSVCmd creates the import-csv command.
func ImportCSVCmd() *cobra.Command {
	var (
		table  string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "import-csv <file.csv>",
		Short: "Load a CSV file into a SQLite table",
		Long:  "Creates or replaces the table, inferring INTEGER, REAL or TEXT for each column.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			if dbPath != "" {
				e.cfg.SQLitePath = dbPath
			}

			n, err := sqlrag.ImportCSV(cmd.Context(), e.cfg.SQLitePath, table, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Imported %d rows into %s (%s)\n", n, table, e.cfg.SQLitePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&table, "table", "t", "", "Table name")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default RAGLAB_SQLITE_PATH)")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

// SchemaCmd creates the schema command.
func SchemaCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "schema [table...]",
		Short: "Print the schema the model sees",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			if dbPath != "" {
				e.cfg.SQLitePath = dbPath
			}

			db, err := sqlrag.Open(cmd.Context(), e.cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			schema, err := db.Schema(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, strings.TrimSpace(schema))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default RAGLAB_SQLITE_PATH)")
	return cmd
}
