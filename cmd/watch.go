package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/playground"
	"github.com/codegram/codegram/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Serve the playground and preview FILE live as it is edited",
	Long: `Starts the server like serve and pushes FILE into every open playground
whenever it is saved. The preview language follows the file extension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := os.Stat(args[0]); err != nil {
			return err
		}

		return runServer(ctx, func(ctx context.Context, pg *playground.Playground) {
			w, err := watch.New(args[0], pg.Broadcast, watch.Options{Logger: logger})
			if err != nil {
				logger.Error("watching file", zap.Error(err))
				return
			}
			logger.Info("watching file", zap.String("file", args[0]), zap.String("language", w.Language()))
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped", zap.Error(err))
			}
		})
	},
}

func init() {
	addServeFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
