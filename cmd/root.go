package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/config"
	"github.com/codegram/codegram/internal/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "codegram",
	Short: "Social code sharing with sandboxed live previews",
	Long: `CodeGram serves a feed of code snippets and documentation posts and a
playground that renders HTML, CSS and React code live inside a sandboxed
iframe. It can also export previews to static files and expose the
preview generator to AI agents over MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == initCmd.Name() || cmd.Name() == versionCmd.Name() {
			return nil
		}
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(logging.Options{
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
