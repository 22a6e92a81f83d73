package cli

import (
	"fmt"

	"github.com/smallnest/raglab/graph"
	"github.com/smallnest/raglab/rag"
	"github.com/smallnest/raglab/sqlrag"
	"github.com/spf13/cobra"
)

// GraphCmd creates the graph command.
func GraphCmd() *cobra.Command {
	var ascii bool

	cmd := &cobra.Command{
		Use:       "graph [web|sql]",
		Short:     "Print a pipeline as a Mermaid flowchart",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"web", "sql"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e := envFrom(cmd)
			name := "web"
			if len(args) == 1 {
				name = args[0]
			}

			var mermaid, path string
			switch name {
			case "sql":
				exporter := graph.NewExporter(sqlrag.NewPipelineGraph())
				mermaid, path = exporter.DrawMermaid(), exporter.DrawASCII()
			default:
				exporter := graph.NewExporter(rag.NewPipelineGraph(true))
				mermaid, path = exporter.DrawMermaid(), exporter.DrawASCII()
			}

			if ascii {
				fmt.Fprint(e.out, path)
			} else {
				fmt.Fprint(e.out, mermaid)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ascii, "ascii", false, "Print the node path instead of Mermaid")
	return cmd
}
