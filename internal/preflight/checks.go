package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"gamelens/internal/config"
	"gamelens/internal/services"
	"gamelens/internal/sources"
)

// ProbeQuery is the search term used to exercise a source end to end.
const ProbeQuery = "portal"

const probeTimeout = 15 * time.Second

// CheckCredentials reports, per source, whether the credentials an enabled
// source needs are present. It does not contact the source.
func CheckCredentials(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		credentialResult(config.SourceIGDB, cfg.IGDB.Enabled,
			credential{"TWITCH_CLIENT_ID", cfg.IGDB.ClientID},
			credential{"TWITCH_CLIENT_SECRET", cfg.IGDB.ClientSecret},
		),
		credentialResult(config.SourceRAWG, cfg.RAWG.Enabled,
			credential{"RAWG_API_KEY", cfg.RAWG.APIKey},
		),
		credentialResult(config.SourceOpenCritic, cfg.OpenCritic.Enabled,
			credential{"OPENCRITIC_RAPIDAPI_KEY", cfg.OpenCritic.RapidAPIKey},
		),
	}
}

// credential pairs an environment variable name with its resolved value.
type credential struct {
	env   string
	value string
}

func credentialResult(source string, enabled bool, creds ...credential) Result {
	name := source + " credentials"
	if !enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	var missing []string
	for _, c := range creds {
		if strings.TrimSpace(c.value) == "" {
			missing = append(missing, c.env)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: "missing " + strings.Join(missing, ", ")}
	}
	return Result{Name: name, Passed: true, Detail: "Configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSource runs a probe search against one source with a single attempt.
func CheckSource(ctx context.Context, source sources.Searcher) Result {
	name := source.Name()

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	records, err := source.Search(checkCtx, ProbeQuery)
	if err != nil {
		return Result{Name: name, Detail: summarizeSourceError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%d results in %s)", len(records), time.Since(start).Round(time.Millisecond))}
}

// summarizeSourceError produces a human-readable summary for probe failures.
func summarizeSourceError(err error) string {
	switch services.Outcome(err) {
	case "misconfigured":
		return "auth failed (check credentials)"
	case "rate_limited":
		return "rate limited (try again later)"
	case "timeout":
		return "probe timed out (source unresponsive)"
	case "unavailable":
		return "source unavailable: " + err.Error()
	}
	return err.Error()
}
