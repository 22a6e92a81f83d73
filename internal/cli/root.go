// Package cli implements the raglab command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/smallnest/raglab/app"
	"github.com/smallnest/raglab/config"
	"github.com/smallnest/raglab/log"
	"github.com/smallnest/raglab/rag"
	"github.com/spf13/cobra"
)

// UnavailableMessage is printed when the model endpoint answers 503.
const UnavailableMessage = "The model service is unavailable, try again later."

type contextKey struct{}

// env is what every command needs after flag parsing.
type env struct {
	cfg    *config.Config
	logger log.Logger
	format string
	out    io.Writer
}

func envFrom(cmd *cobra.Command) *env {
	e, _ := cmd.Context().Value(contextKey{}).(*env)
	return e
}

// NewRootCmd creates the raglab command tree.
func NewRootCmd(version string) *cobra.Command {
	var (
		logLevel string
		format   string
	)

	root := &cobra.Command{
		Use:   "raglab",
		Short: "Retrieval-augmented answers from the web or a SQLite database",
		Long: `raglab answers questions with retrieval-augmented generation.

  web    searches the web, indexes the top pages and answers from them
  sql    turns a question into SQL, runs it and explains the result

Environment variables (also read from .env):
  OPENAI_API_KEY         API key for the chat and embedding models
  OPENAI_BASE_URL        OpenAI compatible endpoint
  RAGLAB_SEARCH_PROVIDER duckduckgo (default), brave or tavily
  RAGLAB_VECTOR_STORE    memory (default), redis or postgres
  RAGLAB_SQLITE_PATH     database used by sql, schema and import-csv`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			logger, err := app.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			log.SetDefaultLogger(logger)

			if err := checkFormat(format); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, contextKey{}, &env{
				cfg:    cfg,
				logger: logger,
				format: format,
				out:    cmd.OutOrStdout(),
			}))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error or none")
	root.PersistentFlags().StringVar(&format, "format", formatText, "Output format: text, json or html")

	root.AddCommand(WebCmd())
	root.AddCommand(SQLCmd())
	root.AddCommand(ImportCSVCmd())
	root.AddCommand(SchemaCmd())
	root.AddCommand(GraphCmd())
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, version string, args []string) int {
	root := NewRootCmd(version)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		report(os.Stderr, err)
		return 1
	}
	return 0
}

func report(w io.Writer, err error) {
	if errors.Is(err, rag.ErrServiceUnavailable) {
		fmt.Fprintln(w, UnavailableMessage)
		return
	}
	fmt.Fprintln(w, "Error:", err)
}
