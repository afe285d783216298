package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/topodraw/pkg/buildinfo"
	"github.com/matzehuels/topodraw/pkg/cache"
	"github.com/matzehuels/topodraw/pkg/convert"
	"github.com/matzehuels/topodraw/pkg/style"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "topodraw"

	// redisEnv selects the Redis cache when set to an address or redis:// URL.
	redisEnv = "TOPODRAW_REDIS_ADDR"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Stdin and Stdout back "-" as input or output path.
	Stdin  io.Reader
	Stdout io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "topodraw converts containerlab topologies to draw.io diagrams and back",
		Long: `topodraw draws containerlab topology files as tiered draw.io diagrams and
recovers topology files from draw.io documents.

Tiers come from graph-level labels, or are derived from the link structure
when no labels are set. Use --interactive to set them node by node.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.drawCommand())
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.themesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a conversion runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *convert.Runner {
	return convert.NewRunner(c.newCache(ctx, noCache), nil, c.Logger)
}

// newCache picks the cache backend: none, Redis when redisEnv is set, else
// the XDG file cache. Backends that fail to open fall back to no cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	if addr := os.Getenv(redisEnv); addr != "" {
		rc, err := cache.NewRedisCache(ctx, redisOptions(addr))
		if err == nil {
			c.Logger.Debug("using redis cache", "addr", addr)
			return rc
		}
		c.Logger.Warn("redis cache unavailable, continuing without cache", "err", err)
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable, continuing without cache", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

func redisOptions(addr string) cache.RedisOptions {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		return cache.RedisOptions{URL: addr}
	}
	return cache.RedisOptions{Addr: addr}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/topodraw/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// loadStyle resolves --theme: a bundled theme name, or a path to a YAML or
// TOML style file.
func loadStyle(theme string) (*style.Config, error) {
	switch strings.ToLower(filepath.Ext(theme)) {
	case ".yaml", ".yml", ".toml":
		return style.Select(theme, "")
	}
	if strings.ContainsRune(theme, os.PathSeparator) {
		return style.Select(theme, "")
	}
	return style.Select("", theme)
}
