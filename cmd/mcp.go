package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/codegram/codegram/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the preview
generator and post search to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd)
		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "codegram MCP server started on stdio (documents=%d)\n", a.index.Count())

		srv := mcpserver.NewServer(a.posts, a.index, a.metrics)
		return srv.Serve()
	},
}

func init() {
	mcpCmd.Flags().StringVar(&serveImport, "import", "", "directory of snippet files to publish as posts")
	rootCmd.AddCommand(mcpCmd)
}
