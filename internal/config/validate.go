package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateCredentials(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateSources() error {
	if len(c.EnabledSources()) == 0 {
		return errors.New("at least one of igdb, rawg, or opencritic must be enabled")
	}
	priorities := make(map[int]string, 3)
	for _, entry := range []struct {
		name     string
		enabled  bool
		priority int
		baseURL  string
	}{
		{SourceIGDB, c.IGDB.Enabled, c.IGDB.Priority, c.IGDB.BaseURL},
		{SourceRAWG, c.RAWG.Enabled, c.RAWG.Priority, c.RAWG.BaseURL},
		{SourceOpenCritic, c.OpenCritic.Enabled, c.OpenCritic.Priority, c.OpenCritic.BaseURL},
	} {
		if !entry.enabled {
			continue
		}
		section := strings.ToLower(entry.name)
		if strings.TrimSpace(entry.baseURL) == "" {
			return fmt.Errorf("%s.base_url must be set when %s.enabled is true", section, section)
		}
		if other, ok := priorities[entry.priority]; ok {
			return fmt.Errorf("%s.priority duplicates the priority of %s", section, strings.ToLower(other))
		}
		priorities[entry.priority] = entry.name
	}
	return nil
}

func (c *Config) validateCredentials() error {
	hint := c.configHint()
	if c.IGDB.Enabled {
		if c.IGDB.ClientID == "" || c.IGDB.ClientSecret == "" {
			return fmt.Errorf("igdb.client_id and igdb.client_secret are required when igdb is enabled. Set TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET or edit %s", hint)
		}
		if strings.TrimSpace(c.IGDB.TokenURL) == "" {
			return errors.New("igdb.token_url must be set when igdb.enabled is true")
		}
	}
	if c.RAWG.Enabled && c.RAWG.APIKey == "" {
		return fmt.Errorf("rawg.api_key is required when rawg is enabled. Set RAWG_API_KEY or edit %s", hint)
	}
	if c.OpenCritic.Enabled && c.OpenCritic.RapidAPIKey == "" {
		return fmt.Errorf("opencritic.rapidapi_key is required when opencritic is enabled. Set OPENCRITIC_RAPIDAPI_KEY or edit %s", hint)
	}
	return nil
}

func (c *Config) configHint() string {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Sprintf("%s (create with 'gamelens config init')", defaultPath)
}

func (c *Config) validateLimits() error {
	if err := ensurePositiveMap(map[string]int{
		"sources.request_timeout_seconds":   c.Sources.RequestTimeoutSeconds,
		"sources.rate_limit_burst":          c.Sources.RateLimitBurst,
		"sources.breaker_failure_threshold": c.Sources.BreakerFailureThreshold,
		"sources.breaker_timeout_seconds":   c.Sources.BreakerTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Sources.CacheTTLSeconds < 0 {
		return errors.New("sources.cache_ttl_seconds must be >= 0")
	}
	if c.Sources.RateLimitPerSecond <= 0 {
		return errors.New("sources.rate_limit_per_second must be positive")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.MinRelevance < 0 || c.Search.MinRelevance > 100 {
		return errors.New("search.min_relevance must be between 0 and 100")
	}
	if c.Search.MaxResults <= 0 {
		return errors.New("search.max_results must be positive")
	}
	if c.Search.DateToleranceDays < 0 {
		return errors.New("search.date_tolerance_days must be >= 0")
	}
	for _, name := range c.Search.CoverPriority {
		for _, other := range c.Search.CoverDeprioritized {
			if name == other {
				return fmt.Errorf("search.cover_priority and search.cover_deprioritized both list %s", name)
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
