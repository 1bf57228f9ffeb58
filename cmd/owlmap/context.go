package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"owlmap/internal/apply"
	"owlmap/internal/booklet"
	"owlmap/internal/classify"
	"owlmap/internal/config"
	"owlmap/internal/logging"
	"owlmap/internal/matcher"
	"owlmap/internal/store"
	"owlmap/internal/vocab"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// JSONMode reports whether --json was passed.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// openStore opens the configured store. Write commands hold the advisory lock
// until the returned store is closed.
func (c *commandContext) openStore(ctx context.Context, opts store.Options) (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Paths.Database, opts)
	switch {
	case err == nil:
		return st, nil
	case errors.Is(err, store.ErrLocked):
		return nil, fmt.Errorf("open store: another owlmap command is writing to it: %w", err)
	default:
		return nil, fmt.Errorf("open store: %w", err)
	}
}

// withStore opens the store, runs fn and closes it again.
func (c *commandContext) withStore(ctx context.Context, opts store.Options, fn func(*store.Store, *slog.Logger) error) error {
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st, logger)
}

func (c *commandContext) vocabCache() *vocab.Cache {
	cfg := c.configValue()
	return vocab.NewCache(vocab.Discoverer{
		DirKeyword:           cfg.Vocab.DirKeyword,
		Extensions:           cfg.Vocab.FileExtensions,
		PreferChapterOrdered: cfg.Vocab.PreferChapterOrdered,
	})
}

func (c *commandContext) matcher() *matcher.Matcher {
	cfg := c.configValue()
	return matcher.New(matcher.Options{
		FuzzyThreshold:  cfg.Matching.FuzzyThreshold,
		FuzzyConfidence: cfg.Matching.FuzzyConfidence,
	})
}

func (c *commandContext) flagOptions() classify.FlagOptions {
	cfg := c.configValue()
	return classify.FlagOptions{
		ShortTermLength:    cfg.Matching.ShortTermLength,
		ShortContextLength: cfg.Matching.ShortContextLength,
	}
}

func (c *commandContext) decisionLog() *apply.DecisionLog {
	return apply.NewDecisionLog(c.configValue().DecisionLogPath())
}

func (c *commandContext) bookletLoader() *booklet.Loader {
	return booklet.NewLoader()
}

// withRunID tags ctx with a fresh run identifier for log correlation.
func withRunID(ctx context.Context) context.Context {
	return logging.WithRunID(ctx, uuid.NewString())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
