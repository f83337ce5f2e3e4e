// Package config loads settings from GITKID_* environment variables. Command
// line flags override them.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"

	gitbackend "github.com/thiagokokada/gitkid/internal/git/backend"
)

const EnvPrefix = "GITKID_"

// LogFormat represents the log output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

type Config struct {
	// Backend is the git library: gogit, gitcli or libgit2.
	Backend string `koanf:"backend"`
	// Repo is the repository path.
	Repo      string    `koanf:"repo"`
	LogFormat LogFormat `koanf:"log_format"`
	// Limit is the default number of commits printed by log.
	Limit int `koanf:"limit"`
	// Style is the chroma style used to colour diffs.
	Style string `koanf:"style"`
}

func Default() Config {
	return Config{
		Backend:   string(gitbackend.DefaultKind),
		Repo:      ".",
		LogFormat: LogFormatText,
		Limit:     100,
		Style:     "github-dark",
	}
}

// Load reads the configuration from environ, which defaults to os.Environ.
func Load(environ func() []string) (Config, error) {
	if environ == nil {
		environ = os.Environ
	}
	k := koanf.New(".")
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return key, strings.TrimSpace(value)
		},
		EnvironFunc: environ,
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}
	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogFormat = LogFormat(strings.ToLower(string(cfg.LogFormat)))
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := gitbackend.ParseKind(c.Backend); err != nil {
		return fmt.Errorf("%sBACKEND: %w", EnvPrefix, err)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%sLOG_FORMAT: unknown format %q", EnvPrefix, c.LogFormat)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%sLIMIT: must not be negative", EnvPrefix)
	}
	return nil
}

// Kind returns the parsed backend kind.
func (c Config) Kind() gitbackend.Kind {
	kind, err := gitbackend.ParseKind(c.Backend)
	if err != nil {
		return gitbackend.DefaultKind
	}
	return kind
}
