package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hiringscan-engine/internal/config"
	"hiringscan-engine/internal/logger"
)

const dataDirEnv = "HIRINGSCAN_DATA_DIR"

// app is the state shared by all subcommands after PersistentPreRunE.
type app struct {
	cfgPath  string
	tagsPath string
	logLevel string
	console  bool

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "engine",
		Short:         "Crawl company sites for hiring signals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "config file (default $"+dataDirEnv+"/config.yml, created on first use)")
	f.StringVar(&a.tagsPath, "tags", "", "yaml file with tag rules overriding the config")
	f.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default from config)")
	f.BoolVar(&a.console, "console", false, "human readable log output")

	root.AddCommand(newCrawlCmd(a), newDiffCmd(a), newConfigCmd(a))
	return root
}

func dataDir() string {
	if d := os.Getenv(dataDirEnv); d != "" {
		return d
	}
	return "."
}

func (a *app) init() error {
	if a.cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir(), "")
		if err != nil {
			return fmt.Errorf("config bootstrap failed: %w", err)
		}
		a.cfgPath = p
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", a.cfgPath, err)
	}
	if a.tagsPath != "" {
		if err := config.OverlayTags(&cfg, a.tagsPath); err != nil {
			return fmt.Errorf("tags overlay (%s): %w", a.tagsPath, err)
		}
	}

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.log, err = logger.New(level, a.console)
	if err != nil {
		return err
	}

	normalized, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		a.log.Warn("config", zap.String("warning", w))
	}
	if !res.OK() {
		return config.Validate(cfg)
	}
	if !filepath.IsAbs(normalized.Store.Path) && os.Getenv(dataDirEnv) != "" {
		normalized.Store.Path = filepath.Join(dataDir(), normalized.Store.Path)
	}
	a.cfg = normalized
	a.log.Debug("config loaded", zap.String("path", a.cfgPath), zap.String("store", a.cfg.Store.Path))
	return nil
}
