package cli

import (
	"strings"

	"github.com/smallnest/raglab/app"
	"github.com/spf13/cobra"
)

// WebCmd creates the web command.
func WebCmd() *cobra.Command {
	var (
		topK     int
		maxPages int
		provider string
	)

	cmd := &cobra.Command{
		Use:   "web <query>",
		Short: "Answer a question from web search results",
		Long: `Searches the web, fetches the top pages, splits and embeds them,
retrieves the chunks closest to the query and asks the model to answer
from those chunks only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			if cmd.Flags().Changed("top-k") {
				e.cfg.TopK = topK
			}
			if cmd.Flags().Changed("max-pages") {
				e.cfg.MaxPages = maxPages
			}
			if provider != "" {
				e.cfg.SearchProvider = strings.ToLower(provider)
			}

			pipeline, closeFn, err := app.NewWebPipeline(cmd.Context(), e.cfg, app.Options{Logger: e.logger})
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

	cmd.Flags().IntVarP(&topK, "top-k", "k", 5, "Number of chunks to retrieve")
	cmd.Flags().IntVar(&maxPages, "max-pages", 3, "Number of search hits to fetch")
	cmd.Flags().StringVar(&provider, "provider", "", "Search provider: duckduckgo, brave or tavily")
	return cmd
}
