package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/playground"
	"github.com/codegram/codegram/internal/sandbox"
	"github.com/codegram/codegram/internal/server"
	"github.com/codegram/codegram/internal/web"
)

var (
	serveHost      string
	servePort      int
	serveOpen      bool
	serveImport    string
	serveFakePosts int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feed API and the live preview playground",
	Long: `Starts the CodeGram HTTP server: the feed, stories, messages and search
APIs, the playground page and the preview websocket. All data lives in
memory and is seeded with a demo community on every start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, nil)
	},
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveHost, "host", "", "address to bind (default from config)")
	cmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default from config)")
	cmd.Flags().BoolVar(&serveOpen, "open", false, "open the playground in a browser")
	cmd.Flags().StringVar(&serveImport, "import", "", "directory of snippet files to publish as posts")
	cmd.Flags().IntVar(&serveFakePosts, "fake-posts", 0, "number of generated posts to add to the demo feed")
}

// applyServeFlags overlays the flags the user set on the loaded config.
func applyServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if f.Changed("port") {
		cfg.Server.Port = servePort
	}
	if f.Changed("open") {
		cfg.Server.Open = serveOpen
	}
	if f.Changed("import") {
		cfg.Demo.ImportDir = serveImport
	}
	if f.Changed("fake-posts") {
		cfg.Demo.FakePosts = serveFakePosts
	}
}

// runServer serves until ctx is cancelled. ready, if set, is called with
// the playground once the listener is bound.
func runServer(ctx context.Context, ready func(ctx context.Context, pg *playground.Playground)) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := web.New()
	if err != nil {
		return err
	}
	docs := sandbox.NewStore()
	pg := playground.New(docs, playground.Options{
		Debounce:        cfg.Preview.Debounce,
		Settle:          cfg.Preview.SettleDelay,
		DefaultViewport: cfg.Viewport(),
		Logger:          logger,
		Metrics:         a.metrics,
		Posts:           a.posts,
	})

	srv := server.New(server.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		AllowAll: cfg.Server.AllowAll,
	}, server.Deps{
		Users:      a.users,
		Posts:      a.posts,
		Stories:    a.stories,
		Messages:   a.messages,
		Search:     a.index,
		Docs:       docs,
		Playground: pg,
		Page:       page,
		Metrics:    a.metrics,
		Logger:     logger,
	})

	addr, err := srv.Listen()
	if err != nil {
		return err
	}
	url := fmt.Sprintf("http://%s/", addr)
	fmt.Fprintf(os.Stderr, "codegram %s playground at %s\n", Version, url)

	if cfg.Server.Open {
		if err := openBrowser(url); err != nil {
			logger.Warn("opening browser", zap.Error(err))
		}
	}
	if ready != nil {
		go ready(ctx, pg)
	}

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nShutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	return srv.Serve()
}

func init() {
	addServeFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}
