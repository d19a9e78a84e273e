package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gamelens/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test
// and placeholder credentials for every source. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.IGDB.ClientID = "test-client"
	cfgVal.IGDB.ClientSecret = "test-secret"
	cfgVal.RAWG.APIKey = "test-rawg"
	cfgVal.OpenCritic.RapidAPIKey = "test-opencritic"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBaseURLs points every source at the given server root, e.g. an
// httptest server.
func WithBaseURLs(root string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.IGDB.BaseURL = root + "/igdb"
		b.cfg.IGDB.TokenURL = root + "/token"
		b.cfg.RAWG.BaseURL = root + "/rawg"
		b.cfg.OpenCritic.BaseURL = root + "/opencritic"
	}
}

// WithOpenCritic enables the OpenCritic source.
func WithOpenCritic() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenCritic.Enabled = true
	}
}

// WithCacheTTL overrides the response cache lifetime in seconds.
func WithCacheTTL(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources.CacheTTLSeconds = seconds
	}
}

// BaseDir returns the temp root used by the builder.
func (b *configBuilder) BaseDir() string {
	return b.baseDir
}

// WithOnlySources enables exactly the named sources.
func WithOnlySources(names ...string) ConfigOption {
	return func(b *configBuilder) {
		enabled := make(map[string]bool, len(names))
		for _, name := range names {
			enabled[config.CanonicalSourceName(name)] = true
		}
		b.cfg.IGDB.Enabled = enabled[config.SourceIGDB]
		b.cfg.RAWG.Enabled = enabled[config.SourceRAWG]
		b.cfg.OpenCritic.Enabled = enabled[config.SourceOpenCritic]
	}
}

// WriteConfig marshals cfg to a TOML file in a fresh temp dir and returns
// its path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
