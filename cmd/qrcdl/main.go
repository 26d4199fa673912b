package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ytget/qrcdl"
	"github.com/ytget/qrcdl/client"
	"github.com/ytget/qrcdl/internal/config"
	"github.com/ytget/qrcdl/internal/logger"
	"github.com/ytget/qrcdl/internal/lyriccache"
	"github.com/ytget/qrcdl/internal/namescript"
)

// app holds state shared by the subcommands. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	configPath string
	flags      flagValues

	cfg    *config.Config
	dl     *qrcdl.Downloader
	format qrcdl.Format
	closer func() error
}

type flagValues struct {
	output      string
	format      string
	timeout     string
	retries     int
	userAgent   string
	proxy       string
	cache       bool
	cachePath   string
	nameScript  string
	charset     string
	logLevel    string
	concurrency int
}

var (
	errColor  = color.New(color.FgHiRed)
	okColor   = color.New(color.FgHiGreen)
	dimColor  = color.New(color.FgHiBlack)
	headColor = color.New(color.FgCyan, color.Bold)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := a.rootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "qrcdl",
		Short:         "Download QQ Music lyrics and convert word-timed lyrics to ASS karaoke subtitles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", config.DefaultPath(), "Config file (.toml, .yaml)")
	pf.StringVarP(&a.flags.output, "output", "o", "", "Output directory")
	pf.StringVarP(&a.flags.format, "format", "f", "", "Lyric format: qrc, lrc or ass")
	pf.StringVar(&a.flags.timeout, "http-timeout", "", "HTTP timeout (e.g., 30s, 1m)")
	pf.IntVar(&a.flags.retries, "retries", 0, "HTTP retries for transient errors")
	pf.StringVar(&a.flags.userAgent, "ua", "", "Override User-Agent header")
	pf.StringVar(&a.flags.proxy, "proxy", "", "Proxy URL (http/https/socks5)")
	pf.BoolVar(&a.flags.cache, "cache", false, "Cache downloaded lyrics")
	pf.StringVar(&a.flags.cachePath, "cache-path", "", "SQLite cache file (empty keeps the cache in memory)")
	pf.StringVar(&a.flags.nameScript, "name-script", "", "JavaScript file defining fileName(song)")
	pf.StringVar(&a.flags.charset, "charset", "", "Encoding of plain text lyric files")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: TRACE, DEBUG, INFO, WARN, ERROR")

	root.AddCommand(
		a.searchCommand(),
		a.getCommand(),
		a.decryptCommand(),
		a.encryptCommand(),
		a.convertCommand(),
		a.watchCommand(),
		&cobra.Command{
			Use:   "interactive",
			Short: "Search and download lyrics through a menu",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			},
		},
	)
	return root
}

// setup loads the config file, applies flags that were set explicitly and
// builds the downloader.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output.Dir = a.flags.output
	}
	if changed("format") {
		cfg.Output.Format = a.flags.format
	}
	if changed("http-timeout") {
		cfg.HTTP.Timeout = a.flags.timeout
	}
	if changed("retries") {
		cfg.HTTP.Retries = a.flags.retries
	}
	if changed("ua") {
		cfg.HTTP.UserAgent = a.flags.userAgent
	}
	if changed("proxy") {
		cfg.HTTP.Proxy = a.flags.proxy
	}
	if changed("cache") {
		cfg.Cache.Enabled = a.flags.cache
	}
	if changed("cache-path") {
		cfg.Cache.Path = a.flags.cachePath
		cfg.Cache.Enabled = true
	}
	if changed("name-script") {
		cfg.Output.NameScript = a.flags.nameScript
	}
	if changed("charset") {
		cfg.ASS.Charset = a.flags.charset
	}
	if changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if changed("concurrency") {
		cfg.Output.Concurrency = a.flags.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logger.CreateLoggerFromConfig(&cfg.Log)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	logger.SetGlobalLogger(log)

	a.format, err = qrcdl.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	dl := qrcdl.New().
		WithHTTPClient(client.NewWith(cfg.ClientConfig())).
		WithOutputDir(cfg.Output.Dir).
		WithStyle(cfg.Style()).
		WithCharset(cfg.ASS.Charset)

	if cfg.Output.NameScript != "" {
		script, err := namescript.Load(cfg.Output.NameScript)
		if err != nil {
			return fmt.Errorf("naming script: %w", err)
		}
		dl = dl.WithNameScript(script)
	}

	if cfg.Cache.Enabled {
		ttl, _ := cfg.CacheTTL()
		if cfg.Cache.Path == "" {
			dl = dl.WithCache(lyriccache.NewMemoryCache(), ttl)
		} else {
			cache, err := openCache(cfg.Cache.Path)
			if err != nil {
				return err
			}
			a.closer = cache.Close
			dl = dl.WithCache(cache, ttl)
		}
	}

	a.dl = dl
	logger.WithComponent(logger.ComponentApp).Debug("Configured", map[string]interface{}{
		"config": a.configPath,
		"output": cfg.Output.Dir,
		"format": a.format.String(),
		"cache":  cfg.Cache.Enabled,
	})
	return nil
}

// openCache opens the SQLite lyric cache and drops entries that expired since
// the last run.
func openCache(path string) (*lyriccache.SQLiteCache, error) {
	cache, err := lyriccache.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	log := logger.WithComponent(logger.ComponentCache)
	n, err := cache.Purge()
	if err != nil {
		log.Warn("Cache purge failed", map[string]interface{}{"path": path, "error": err})
		return cache, nil
	}
	if n > 0 {
		log.Debug("Purged expired entries", map[string]interface{}{"path": path, "removed": n})
	}
	return cache, nil
}
