// Package config resolves the CLI defaults from .scandir.yaml, .env and
// SCANDIR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// FileName is the config file looked up in the working directory.
const FileName = ".scandir.yaml"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Environment variables that override file values.
const (
	EnvFollowLinks = "SCANDIR_FOLLOW_LINKS"
	EnvPostOrder   = "SCANDIR_POST_ORDER"
	EnvMaxDepth    = "SCANDIR_MAX_DEPTH"
	EnvFormat      = "SCANDIR_FORMAT"
	EnvExclude     = "SCANDIR_EXCLUDE"
	EnvGitignore   = "SCANDIR_GITIGNORE"
)

// Config holds defaults for the ls and walk commands. Flags override it.
type Config struct {
	FollowLinks bool     `yaml:"follow_links"`
	PostOrder   bool     `yaml:"post_order"`
	MaxDepth    int      `yaml:"max_depth"`
	Format      string   `yaml:"format"`
	Include     []string `yaml:"include,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	Gitignore   bool     `yaml:"gitignore"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{Format: FormatText}
}

// Load reads the config file at path. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve builds the effective config.
//
// It loads .env from the working directory (existing environment variables
// win), then the config file at path, or FileName if path is empty. A missing
// default file is not an error; a missing explicit file is. Environment
// variables are applied last and the result is validated.
func Resolve(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	cfg, err := Load(path)

	switch {
	case errors.Is(err, ErrConfigNotFound) && !explicit:
		cfg = Default()
	case err != nil:
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	err = cfg.ApplyEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from the SCANDIR_* variables that lookup finds.
// SCANDIR_EXCLUDE is a comma-separated pattern list.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvFollowLinks); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFollowLinks, err)
		}

		c.FollowLinks = b
	}

	if v, ok := lookup(EnvPostOrder); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPostOrder, err)
		}

		c.PostOrder = b
	}

	if v, ok := lookup(EnvMaxDepth); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxDepth, err)
		}

		c.MaxDepth = n
	}

	if v, ok := lookup(EnvFormat); ok {
		c.Format = strings.ToLower(strings.TrimSpace(v))
	}

	if v, ok := lookup(EnvExclude); ok {
		c.Exclude = splitList(v)
	}

	if v, ok := lookup(EnvGitignore); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvGitignore, err)
		}

		c.Gitignore = b
	}

	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid format %q (expected: text | json | yaml)", c.Format)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}

	return nil
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	return out
}
