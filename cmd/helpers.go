package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/codegram/codegram/internal/config"
	"github.com/codegram/codegram/internal/db"
	"github.com/codegram/codegram/internal/feed"
	"github.com/codegram/codegram/internal/messages"
	"github.com/codegram/codegram/internal/metrics"
	"github.com/codegram/codegram/internal/mockdata"
	"github.com/codegram/codegram/internal/profile"
	"github.com/codegram/codegram/internal/search"
	"github.com/codegram/codegram/internal/stories"
	"github.com/codegram/codegram/internal/walker"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `codegram init` to create a config file", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return c, nil
}

// app is the in-memory community every command works against.
type app struct {
	db       *db.DB
	users    *profile.Store
	posts    *feed.Store
	stories  *stories.Store
	messages *messages.Store
	index    *search.Index
	metrics  *metrics.Metrics
}

// newApp opens the database, seeds the demo community, imports snippets
// from cfg.Demo.ImportDir and indexes every post for search.
func newApp(ctx context.Context, c *config.Config, log *zap.Logger) (*app, error) {
	database, err := db.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	users := profile.NewStore(database)
	a := &app{
		db:       database,
		users:    users,
		posts:    feed.NewStore(database, users),
		stories:  stories.NewStore(database),
		messages: messages.NewStore(database, users),
		metrics:  metrics.New(),
	}
	stores := mockdata.Stores{Users: a.users, Posts: a.posts, Stories: a.stories, Messages: a.messages}

	now := time.Now()
	sum, err := mockdata.Seed(ctx, stores, mockdata.Options{
		Now:       now,
		FakePosts: c.Demo.FakePosts,
		Seed:      uint64(c.Demo.Seed),
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("seeding: %w", err)
	}
	log.Info("seeded demo data",
		zap.Int("users", sum.Users),
		zap.Int("posts", sum.Posts),
		zap.Int("stories", sum.Stories),
		zap.Int("conversations", sum.Conversations),
	)

	if c.Demo.ImportDir != "" {
		if err := a.importDir(ctx, c, now, log); err != nil {
			database.Close()
			return nil, err
		}
	}

	a.index, err = search.NewIndex(search.NewHashEmbedder(search.DefaultDimensions))
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	all, err := a.posts.All(ctx)
	if err != nil {
		database.Close()
		return nil, err
	}
	if err := a.index.IndexAll(ctx, all, runtime.NumCPU()); err != nil {
		database.Close()
		return nil, fmt.Errorf("indexing posts: %w", err)
	}
	log.Debug("indexed posts", zap.Int("documents", a.index.Count()))
	return a, nil
}

func (a *app) importDir(ctx context.Context, c *config.Config, now time.Time, log *zap.Logger) error {
	files, err := walker.Walk(walker.Config{
		RootDir: c.Demo.ImportDir,
		Include: c.Demo.Include,
		Exclude: c.Demo.Exclude,
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", c.Demo.ImportDir, err)
	}
	me, err := a.users.Current(ctx)
	if err != nil {
		return err
	}
	imported, err := mockdata.Import(ctx, a.posts, *me, files, now)
	if err != nil {
		return err
	}
	log.Info("imported snippets", zap.String("dir", c.Demo.ImportDir), zap.Int("posts", len(imported)))
	return nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
