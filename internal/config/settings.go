// Package config loads shlerp settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/synka777/shlerp-cmd/internal/detect"
	"github.com/synka777/shlerp-cmd/internal/history"
)

// ErrInvalidSettings wraps every settings problem: unreadable file, bad YAML,
// bad environment value or failed validation.
var ErrInvalidSettings = errors.New("invalid settings")

// EnvConfig names the settings file when --config is not given.
const EnvConfig = "SHLERP_CONFIG"

// Settings is the complete configuration of a run.
type Settings struct {
	Rules   RulesSettings   `yaml:"rules"`
	History HistorySettings `yaml:"history"`
	Detect  DetectSettings  `yaml:"detect"`
	Logs    LogSettings     `yaml:"logs"`

	// Source is the file the settings were read from, empty for defaults.
	Source string `yaml:"-"`
}

// RulesSettings locate the catalog and bound the election.
type RulesSettings struct {
	// Path of a catalog file. Empty uses the built-in catalog.
	Path string `yaml:"path"`

	// HistoryLimit bounds each recency list.
	// Default: 5 per category, Range: >= 1
	HistoryLimit history.Limits `yaml:"history_limit"`

	// Threshold is the minimum total of a vanilla winner.
	// Default: 3, Range: >= 0
	Threshold int `yaml:"threshold"`
}

// HistorySettings select the recency history store.
type HistorySettings struct {
	// Backend: "json", "sqlite" or "memory"
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// DetectSettings tune the classifier.
type DetectSettings struct {
	// TieRetry re-evaluates the whole category once before reporting a tie.
	// Default: false
	TieRetry bool `yaml:"tie_retry"`

	// IncludeHidden crawls dot entries during vanilla matching.
	IncludeHidden bool `yaml:"include_hidden"`

	// SkipDirs are never crawled.
	SkipDirs []string `yaml:"skip_dirs"`

	// MaxTransitions caps the classifier state machine.
	// Default: 16, Range: >= 10
	MaxTransitions int `yaml:"max_transitions"`

	// CacheSize is the number of file contents cached per classification.
	CacheSize int `yaml:"cache_size"`

	// MaxContentBytes caps content pattern reads. 0 reads whole files.
	MaxContentBytes int64 `yaml:"max_content_bytes"`
}

// LogSettings locate the execution log.
type LogSettings struct {
	Dir string `yaml:"dir"`
}

// Dir returns the per-user shlerp directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".shlerp"
	}
	return filepath.Join(base, "shlerp")
}

// DefaultPath is where settings are looked up when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "settings.yaml")
}

// Default returns the settings used when no file exists.
func Default() *Settings {
	dir := Dir()
	return &Settings{
		Rules: RulesSettings{
			HistoryLimit: history.Limits{Frameworks: 5, Vanilla: 5},
			Threshold:    3,
		},
		History: HistorySettings{
			Backend: string(history.BackendJSON),
			Path:    filepath.Join(dir, "rules_history.json"),
		},
		Detect: DetectSettings{
			SkipDirs:        []string{".git", ".hg", ".svn"},
			MaxTransitions:  16,
			CacheSize:       64,
			MaxContentBytes: 1 << 20,
		},
		Logs: LogSettings{Dir: filepath.Join(dir, "logs")},
	}
}

// Load reads settings from path, $SHLERP_CONFIG or the default location, in
// that order, then applies environment overrides. A .env file in the working
// directory is loaded first. A missing file at the default location yields
// the defaults; a missing file that was asked for explicitly is an error.
func Load(path string) (*Settings, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	s := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidSettings, path, err)
		}
		s.Source = path
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("%w: reading settings file: %v", ErrInvalidSettings, err)
	}

	if err := s.applyEnv(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	s.expandPaths()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return s, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: loading %s: %v", ErrInvalidSettings, path, err)
	}
	return nil
}

// applyEnv overrides settings from SHLERP_* variables.
//
// Environment variables:
//   - SHLERP_RULES_PATH: catalog file
//   - SHLERP_HISTORY_LIMIT_FRAMEWORKS, SHLERP_HISTORY_LIMIT_VANILLA: list limits
//   - SHLERP_THRESHOLD: vanilla threshold
//   - SHLERP_HISTORY_BACKEND, SHLERP_HISTORY_PATH: history store
//   - SHLERP_TIE_RETRY: retry the full category once on a tie
//   - SHLERP_INCLUDE_HIDDEN: crawl dot entries
//   - SHLERP_LOG_DIR: execution log directory
func (s *Settings) applyEnv() error {
	if err := parseEnvString("SHLERP_RULES_PATH", &s.Rules.Path); err != nil {
		return err
	}
	if err := parseEnvInt("SHLERP_HISTORY_LIMIT_FRAMEWORKS", &s.Rules.HistoryLimit.Frameworks); err != nil {
		return err
	}
	if err := parseEnvInt("SHLERP_HISTORY_LIMIT_VANILLA", &s.Rules.HistoryLimit.Vanilla); err != nil {
		return err
	}
	if err := parseEnvInt("SHLERP_THRESHOLD", &s.Rules.Threshold); err != nil {
		return err
	}
	if err := parseEnvString("SHLERP_HISTORY_BACKEND", &s.History.Backend); err != nil {
		return err
	}
	if err := parseEnvString("SHLERP_HISTORY_PATH", &s.History.Path); err != nil {
		return err
	}
	if err := parseEnvBool("SHLERP_TIE_RETRY", &s.Detect.TieRetry); err != nil {
		return err
	}
	if err := parseEnvBool("SHLERP_INCLUDE_HIDDEN", &s.Detect.IncludeHidden); err != nil {
		return err
	}
	return parseEnvString("SHLERP_LOG_DIR", &s.Logs.Dir)
}

func (s *Settings) expandPaths() {
	s.Rules.Path = expandHome(s.Rules.Path)
	s.History.Path = expandHome(s.History.Path)
	s.Logs.Dir = expandHome(s.Logs.Dir)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate checks if the settings have valid values
func (s *Settings) Validate() error {
	if s.Rules.HistoryLimit.Frameworks < 1 {
		return fmt.Errorf("rules.history_limit.frameworks must be at least 1 (got %d)", s.Rules.HistoryLimit.Frameworks)
	}
	if s.Rules.HistoryLimit.Vanilla < 1 {
		return fmt.Errorf("rules.history_limit.vanilla must be at least 1 (got %d)", s.Rules.HistoryLimit.Vanilla)
	}
	if s.Rules.Threshold < 0 {
		return fmt.Errorf("rules.threshold cannot be negative (got %d)", s.Rules.Threshold)
	}

	switch history.Backend(s.History.Backend) {
	case history.BackendJSON, history.BackendSQLite:
		if s.History.Path == "" {
			return fmt.Errorf("history.path is required for the %s backend", s.History.Backend)
		}
	case history.BackendMemory:
	default:
		return fmt.Errorf("history.backend must be 'json', 'sqlite' or 'memory' (got %q)", s.History.Backend)
	}

	if s.Detect.MaxTransitions < detect.MinTransitions {
		return fmt.Errorf("detect.max_transitions must be at least %d (got %d)", detect.MinTransitions, s.Detect.MaxTransitions)
	}
	if s.Detect.CacheSize < 1 {
		return fmt.Errorf("detect.cache_size must be at least 1 (got %d)", s.Detect.CacheSize)
	}
	if s.Detect.MaxContentBytes < 0 {
		return fmt.Errorf("detect.max_content_bytes cannot be negative (got %d)", s.Detect.MaxContentBytes)
	}
	if s.Logs.Dir == "" {
		return fmt.Errorf("logs.dir is required")
	}
	return nil
}

// String returns a human-readable representation of the settings
func (s *Settings) String() string {
	return fmt.Sprintf(
		"Settings{Rules: %q, HistoryLimit: %d/%d, Threshold: %d, "+
			"History: %s@%s, TieRetry: %t, IncludeHidden: %t, Logs: %s}",
		s.Rules.Path, s.Rules.HistoryLimit.Frameworks, s.Rules.HistoryLimit.Vanilla,
		s.Rules.Threshold, s.History.Backend, s.History.Path,
		s.Detect.TieRetry, s.Detect.IncludeHidden, s.Logs.Dir,
	)
}

// DetectOptions returns the classifier options the settings describe.
func (s *Settings) DetectOptions() detect.Options {
	return detect.Options{
		Threshold:       s.Rules.Threshold,
		TieRetry:        s.Detect.TieRetry,
		MaxTransitions:  s.Detect.MaxTransitions,
		IncludeHidden:   s.Detect.IncludeHidden,
		SkipDirs:        append([]string(nil), s.Detect.SkipDirs...),
		CacheSize:       s.Detect.CacheSize,
		MaxContentBytes: s.Detect.MaxContentBytes,
	}
}
