package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/penwyp/go-usage-board/internal/application/usage"
	"github.com/penwyp/go-usage-board/internal/core/cache"
	"github.com/penwyp/go-usage-board/internal/core/daterange"
	"github.com/penwyp/go-usage-board/internal/data/aggregator"
	"github.com/penwyp/go-usage-board/internal/data/client"
	"github.com/penwyp/go-usage-board/internal/presentation/formatter"
	"github.com/penwyp/go-usage-board/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Configuration sources
	configFile string
	apiURL     string

	// Selection
	rangeFlag  string
	engineFlag string
	page       int

	// Output related
	outputFormat string
	timezone     string
	refresh      time.Duration

	rootCmd = &cobra.Command{
		Use:   "go-usage-board [flags]",
		Short: "Multi-engine AI assistant usage dashboard",
		Long: `go-usage-board prints cost and token usage for Claude, OpenAI Codex and Google Gemini.

Claude statistics are required; Codex and Gemini are included when the backend can provide them.

Examples:
  go-usage-board                                  # Last 7 days, all engines
  go-usage-board --range today                    # Today only
  go-usage-board --range all --engine codex       # All-time Codex usage
  go-usage-board --output json                    # Machine readable output
  go-usage-board --page 2                         # Second page of projects
  go-usage-board --refresh 1m                     # Re-render every minute`,
		SilenceUsage: true,
		RunE:         runDashboard,
	}
)

const (
	defaultLogFile    = "~/.go-usage-board/logs/app.log"
	defaultConfigFile = "~/.go-usage-board/config.toml"
	defaultEnvFile    = "~/.go-usage-board/.env"
)

var errLoadFailed = errors.New(usage.UserErrorMessage)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigFile,
		"Config file path (TOML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")

	rootCmd.Flags().StringVar(&apiURL, "api", "",
		"Statistics backend base URL (default "+client.DefaultBaseURL+")")
	rootCmd.Flags().StringVarP(&rangeFlag, "range", "R", "",
		"Date range (today, 7d, 30d, all)")
	rootCmd.Flags().StringVarP(&engineFlag, "engine", "e", "",
		"Engine filter (all, claude, codex, gemini)")
	rootCmd.Flags().IntVarP(&page, "page", "p", 1,
		"Project table page")

	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "",
		"Output format (table, json, csv, summary)")
	rootCmd.Flags().StringVar(&timezone, "timezone", "",
		"Timezone used to resolve dates (e.g., Asia/Shanghai, UTC)")
	rootCmd.Flags().DurationVar(&refresh, "refresh", 0,
		"Re-render at this interval until interrupted (0 = once)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	initLogging()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := util.InitializeTimeProvider(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDashboard(cfg, client.NewHTTPClient(cfg.APIBaseURL, cfg.HTTPTimeout), nil)
	if err != nil {
		return err
	}
	d.width = util.TerminalWidth()
	d.color = util.IsTerminal() && cfg.Output == usage.OutputTable

	out := cmd.OutOrStdout()
	if refresh <= 0 {
		return d.render(ctx, out)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	return d.loop(ctx, out, refresh, hup)
}

func initLogging() {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		logFile = ""
	}
	util.InitLogger(logLevel, logFile, debug)
}

// resolveConfig layers flags over environment over the config file.
func resolveConfig(cmd *cobra.Command) (usage.Config, error) {
	path := expandPath(configFile)
	loaded, err := usage.LoadFrom(path)
	if err != nil {
		return usage.Config{}, err
	}
	for _, warning := range loaded.Warnings {
		util.LogWarn(warning, util.F("file", path))
	}

	cfg := loaded.Config
	if err := usage.ApplyEnv(&cfg, ".env", expandPath(defaultEnvFile)); err != nil {
		return usage.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIBaseURL = apiURL
	}
	if flags.Changed("range") {
		cfg.Range = rangeFlag
	}
	if flags.Changed("engine") {
		cfg.Engine = engineFlag
	}
	if flags.Changed("page") {
		cfg.Page = page
	}
	if flags.Changed("output") {
		cfg.Output = strings.ToLower(outputFormat)
	}
	if flags.Changed("timezone") {
		cfg.Timezone = timezone
	}

	if err := cfg.Validate(); err != nil {
		return usage.Config{}, err
	}
	return cfg, nil
}

// dashboard renders one usage view per load.
type dashboard struct {
	loader    *usage.Loader
	cache     *usage.Cache
	rng       daterange.Range
	filter    aggregator.Filter
	formatter formatter.Formatter
	page      int
	width     int
	color     bool
}

func newDashboard(cfg usage.Config, c client.StatsClient, clock util.Clock) (*dashboard, error) {
	rng, err := daterange.Parse(cfg.Range)
	if err != nil {
		return nil, err
	}
	filter, err := aggregator.ParseFilter(cfg.Engine)
	if err != nil {
		return nil, err
	}
	f, err := formatter.New(cfg.Output)
	if err != nil {
		return nil, err
	}

	cacheOpts := []cache.Option{cache.WithTTL(cfg.CacheTTL), cache.WithCapacity(cfg.CacheCapacity)}
	if clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(clock))
	}

	cache := usage.NewCache(cacheOpts...)
	return &dashboard{
		loader:    usage.NewLoader(c, cache, usage.NewStore(), clock),
		cache:     cache,
		rng:       rng,
		filter:    filter,
		formatter: f,
		page:      cfg.Page,
		width:     80,
	}, nil
}

// render loads the range, waits for every secondary engine to settle and
// writes the view. Primary failures surface as the single user message.
func (d *dashboard) render(ctx context.Context, w io.Writer) error {
	req, err := d.loader.Load(ctx, d.rng)
	if err != nil {
		return errLoadFailed
	}

	select {
	case <-req.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	snapshot := d.loader.Store().Snapshot()
	view, err := snapshot.View(d.filter)
	if err != nil {
		return err
	}
	if len(view.FailedEngines) > 0 {
		util.LogDebug("Secondary engines unavailable", util.F("engines", view.FailedEngines))
	}
	stats := d.cache.Stats()
	util.LogDebug("Usage cache",
		util.F("entries", d.cache.Len()),
		util.F("hits", stats.Hits),
		util.F("misses", stats.Misses),
		util.F("evictions", stats.Evictions))

	return d.formatter.Format(w, view, formatter.Options{
		Range:  d.rng,
		Window: req.Window,
		Page:   d.page,
		Width:  d.width,
		Color:  d.color,
	})
}

// loop re-renders every interval. Loads inside the cache TTL are served
// from cache; a failed load is reported and retried on the next tick. A
// value on reload drops the cache and renders immediately.
func (d *dashboard) loop(ctx context.Context, w io.Writer, interval time.Duration, reload <-chan os.Signal) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if d.color {
			util.ClearScreen(w)
		}
		if err := d.render(ctx, w); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(w, "%s (retrying in %s)\n", err, interval)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-reload:
			d.cache.Purge()
			util.LogInfo("Usage cache purged, reloading")
		}
	}
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
