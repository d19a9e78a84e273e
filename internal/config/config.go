package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Source names shared by the registry, the config file, and cover priority lists.
const (
	SourceIGDB       = "IGDB"
	SourceRAWG       = "RAWG"
	SourceOpenCritic = "OpenCritic"
)

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// IGDB contains configuration for the IGDB catalog, authenticated through Twitch.
type IGDB struct {
	Enabled      bool   `toml:"enabled"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
	Priority     int    `toml:"priority"`
}

// RAWG contains configuration for the RAWG community catalog.
type RAWG struct {
	Enabled  bool   `toml:"enabled"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Priority int    `toml:"priority"`
}

// OpenCritic contains configuration for the OpenCritic API served through RapidAPI.
type OpenCritic struct {
	Enabled     bool   `toml:"enabled"`
	RapidAPIKey string `toml:"rapidapi_key"`
	BaseURL     string `toml:"base_url"`
	Priority    int    `toml:"priority"`
	// EnrichLimit caps how many search hits are expanded with full game details.
	EnrichLimit int `toml:"enrich_limit"`
}

// Sources contains settings shared by every source adapter.
type Sources struct {
	RequestTimeoutSeconds   int     `toml:"request_timeout_seconds"`
	CacheTTLSeconds         int     `toml:"cache_ttl_seconds"`
	RateLimitPerSecond      float64 `toml:"rate_limit_per_second"`
	RateLimitBurst          int     `toml:"rate_limit_burst"`
	BreakerFailureThreshold int     `toml:"breaker_failure_threshold"`
	BreakerTimeoutSeconds   int     `toml:"breaker_timeout_seconds"`
	SearchLimit             int     `toml:"search_limit"`
	NameMatchLimit          int     `toml:"name_match_limit"`
}

// Search contains relevance, grouping, and presentation settings for search.
type Search struct {
	MinRelevance       int      `toml:"min_relevance"`
	MaxResults         int      `toml:"max_results"`
	DateToleranceDays  int      `toml:"date_tolerance_days"`
	CoverPriority      []string `toml:"cover_priority"`
	CoverDeprioritized []string `toml:"cover_deprioritized"`
	PopularLimit       int      `toml:"popular_limit"`
	NewLimit           int      `toml:"new_limit"`
}

// Preferences lists the sources a user wants shown, in order. A missing list
// keeps every source; an empty list hides them all.
type Preferences struct {
	Details []string `toml:"details,omitempty"`
	Ratings []string `toml:"ratings,omitempty"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for gamelens.
//
// Configuration sections by subsystem:
//   - Paths: cache and log directories
//   - IGDB, RAWG, OpenCritic: per-source credentials, endpoints, and priority
//   - Sources: timeouts, response cache TTL, rate limits, and circuit breaker
//   - Search: relevance threshold, result bound, date tolerance, cover priority
//   - Preferences: which sources appear in details and ratings views
//   - Logging: log format and level
//   - Metrics: optional Prometheus textfile path
type Config struct {
	Paths       Paths       `toml:"paths"`
	IGDB        IGDB        `toml:"igdb"`
	RAWG        RAWG        `toml:"rawg"`
	OpenCritic  OpenCritic  `toml:"opencritic"`
	Sources     Sources     `toml:"sources"`
	Search      Search      `toml:"search"`
	Preferences Preferences `toml:"preferences"`
	Logging     Logging     `toml:"logging"`
	Metrics     Metrics     `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheDBPath returns the location of the SQLite response cache.
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.Paths.CacheDir, "responses.db")
}

// TokenStatePath returns the location of the persisted IGDB access token.
func (c *Config) TokenStatePath() string {
	return filepath.Join(c.Paths.CacheDir, "igdb_token.json")
}

// RequestTimeout returns the per-request source timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Sources.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns how long source responses stay fresh in the response cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Sources.CacheTTLSeconds) * time.Second
}

// BreakerTimeout returns how long an open circuit stays open before probing.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.Sources.BreakerTimeoutSeconds) * time.Second
}

// EnabledSources reports the names of enabled sources in config order.
func (c *Config) EnabledSources() []string {
	var names []string
	if c.IGDB.Enabled {
		names = append(names, SourceIGDB)
	}
	if c.RAWG.Enabled {
		names = append(names, SourceRAWG)
	}
	if c.OpenCritic.Enabled {
		names = append(names, SourceOpenCritic)
	}
	return names
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "gamelens")
	}
	return "~/.cache/gamelens"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
