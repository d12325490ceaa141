package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codegram/codegram/internal/export"
	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/progress"
)

var (
	renderOutput      string
	renderConcurrency int
	renderType        string
	renderCategory    string
	renderMinify      bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the preview document of every post to a directory",
	Long: `Seeds the demo community (plus any imported snippets), renders each post
the way the playground would and writes one HTML file per post along with
an index.html that shows them all in sandboxed iframes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd)
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := export.Run(ctx, a.posts, export.Options{
			Dir:         renderOutput,
			Concurrency: renderConcurrency,
			Minify:      renderMinify,
			Filter:      feed.ListFilter{Type: renderType, Category: renderCategory},
			Reporter:    progress.NewReporter(os.Stderr),
			Metrics:     a.metrics,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d preview(s); open %s\n", len(res.Entries), res.Index)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "previews", "output directory")
	renderCmd.Flags().IntVar(&renderConcurrency, "concurrency", 4, "number of posts rendered in parallel")
	renderCmd.Flags().StringVar(&renderType, "type", "", "only render posts of this type (snippet or documentation)")
	renderCmd.Flags().StringVar(&renderCategory, "category", "", "only render posts in this category")
	renderCmd.Flags().BoolVar(&renderMinify, "minify", false, "minify the written documents")
	renderCmd.Flags().StringVar(&serveImport, "import", "", "directory of snippet files to publish as posts")
	renderCmd.Flags().IntVar(&serveFakePosts, "fake-posts", 0, "number of generated posts to add")
	rootCmd.AddCommand(renderCmd)
}
