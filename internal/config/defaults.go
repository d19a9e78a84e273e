package config

const (
	defaultConfigPath              = "~/.config/gamelens/config.toml"
	projectConfigName              = "gamelens.toml"
	defaultLogDir                  = "~/.local/share/gamelens/logs"
	defaultIGDBBaseURL             = "https://api.igdb.com/v4"
	defaultIGDBTokenURL            = "https://id.twitch.tv/oauth2/token"
	defaultRAWGBaseURL             = "https://api.rawg.io/api"
	defaultOpenCriticBaseURL       = "https://opencritic-api.p.rapidapi.com"
	defaultOpenCriticEnrichLimit   = 5
	defaultRequestTimeoutSeconds   = 10
	defaultCacheTTLSeconds         = 3600
	defaultRateLimitPerSecond      = 4
	defaultRateLimitBurst          = 4
	defaultBreakerFailureThreshold = 5
	defaultBreakerTimeoutSeconds   = 30
	defaultSearchLimit             = 20
	defaultNameMatchLimit          = 5
	defaultMinRelevance            = 50
	defaultMaxResults              = 20
	defaultDateToleranceDays       = 31
	defaultPopularLimit            = 12
	defaultNewLimit                = 4
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// DefaultCoverPriority lists sources whose cover art wins a merge, best first.
func DefaultCoverPriority() []string {
	return []string{SourceIGDB, SourceOpenCritic}
}

// DefaultCoverDeprioritized lists sources whose cover art loses to every other source.
func DefaultCoverDeprioritized() []string {
	return []string{SourceRAWG}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		IGDB: IGDB{
			Enabled:  true,
			BaseURL:  defaultIGDBBaseURL,
			TokenURL: defaultIGDBTokenURL,
			Priority: 1,
		},
		RAWG: RAWG{
			Enabled:  true,
			BaseURL:  defaultRAWGBaseURL,
			Priority: 2,
		},
		OpenCritic: OpenCritic{
			Enabled:     false,
			BaseURL:     defaultOpenCriticBaseURL,
			Priority:    3,
			EnrichLimit: defaultOpenCriticEnrichLimit,
		},
		Sources: Sources{
			RequestTimeoutSeconds:   defaultRequestTimeoutSeconds,
			CacheTTLSeconds:         defaultCacheTTLSeconds,
			RateLimitPerSecond:      defaultRateLimitPerSecond,
			RateLimitBurst:          defaultRateLimitBurst,
			BreakerFailureThreshold: defaultBreakerFailureThreshold,
			BreakerTimeoutSeconds:   defaultBreakerTimeoutSeconds,
			SearchLimit:             defaultSearchLimit,
			NameMatchLimit:          defaultNameMatchLimit,
		},
		Search: Search{
			MinRelevance:       defaultMinRelevance,
			MaxResults:         defaultMaxResults,
			DateToleranceDays:  defaultDateToleranceDays,
			CoverPriority:      DefaultCoverPriority(),
			CoverDeprioritized: DefaultCoverDeprioritized(),
			PopularLimit:       defaultPopularLimit,
			NewLimit:           defaultNewLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
