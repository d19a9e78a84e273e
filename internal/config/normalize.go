package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIGDB()
	c.normalizeRAWG()
	c.normalizeOpenCritic()
	c.normalizeSources()
	c.normalizeSearch()
	c.normalizePreferences()
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// envOverride returns the trimmed environment value when set and non-empty,
// otherwise the trimmed current value.
func envOverride(current, key string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(current)
}

func withDefault(value, fallback string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if value == "" {
		return fallback
	}
	return value
}

func (c *Config) normalizeIGDB() {
	c.IGDB.ClientID = envOverride(c.IGDB.ClientID, "TWITCH_CLIENT_ID")
	c.IGDB.ClientSecret = envOverride(c.IGDB.ClientSecret, "TWITCH_CLIENT_SECRET")
	c.IGDB.BaseURL = withDefault(c.IGDB.BaseURL, defaultIGDBBaseURL)
	c.IGDB.TokenURL = withDefault(c.IGDB.TokenURL, defaultIGDBTokenURL)
}

func (c *Config) normalizeRAWG() {
	c.RAWG.APIKey = envOverride(c.RAWG.APIKey, "RAWG_API_KEY")
	c.RAWG.BaseURL = withDefault(c.RAWG.BaseURL, defaultRAWGBaseURL)
}

func (c *Config) normalizeOpenCritic() {
	c.OpenCritic.RapidAPIKey = envOverride(c.OpenCritic.RapidAPIKey, "OPENCRITIC_RAPIDAPI_KEY")
	c.OpenCritic.BaseURL = withDefault(c.OpenCritic.BaseURL, defaultOpenCriticBaseURL)
	if c.OpenCritic.EnrichLimit <= 0 {
		c.OpenCritic.EnrichLimit = defaultOpenCriticEnrichLimit
	}
}

func (c *Config) normalizeSources() {
	if c.Sources.SearchLimit <= 0 {
		c.Sources.SearchLimit = defaultSearchLimit
	}
	if c.Sources.NameMatchLimit <= 0 {
		c.Sources.NameMatchLimit = defaultNameMatchLimit
	}
}

func (c *Config) normalizeSearch() {
	if c.Search.CoverPriority == nil {
		c.Search.CoverPriority = DefaultCoverPriority()
	} else {
		c.Search.CoverPriority = canonicalSourceList(c.Search.CoverPriority)
	}
	if c.Search.CoverDeprioritized == nil {
		c.Search.CoverDeprioritized = DefaultCoverDeprioritized()
	} else {
		c.Search.CoverDeprioritized = canonicalSourceList(c.Search.CoverDeprioritized)
	}
	if c.Search.PopularLimit <= 0 {
		c.Search.PopularLimit = defaultPopularLimit
	}
	if c.Search.NewLimit <= 0 {
		c.Search.NewLimit = defaultNewLimit
	}
}

func (c *Config) normalizePreferences() {
	if c.Preferences.Details != nil {
		c.Preferences.Details = canonicalSourceList(c.Preferences.Details)
	}
	if c.Preferences.Ratings != nil {
		c.Preferences.Ratings = canonicalSourceList(c.Preferences.Ratings)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() error {
	if strings.TrimSpace(c.Metrics.TextfilePath) == "" {
		c.Metrics.TextfilePath = ""
		return nil
	}
	var err error
	if c.Metrics.TextfilePath, err = expandPath(c.Metrics.TextfilePath); err != nil {
		return fmt.Errorf("metrics.textfile_path: %w", err)
	}
	return nil
}

// canonicalSourceList maps names onto the canonical source spelling, drops
// blanks and duplicates, and keeps unknown names as written. The result is
// never nil so an explicitly empty list stays distinguishable from an absent one.
func canonicalSourceList(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		canonical := CanonicalSourceName(name)
		if canonical == "" {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}

// CanonicalSourceName returns the registered spelling of a source name,
// matching case-insensitively. Unknown names are returned trimmed.
func CanonicalSourceName(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, known := range []string{SourceIGDB, SourceRAWG, SourceOpenCritic} {
		if strings.EqualFold(trimmed, known) {
			return known
		}
	}
	return trimmed
}
