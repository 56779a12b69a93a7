// Package config provides YAML configuration file loading and validation.
// It handles environment variable expansion, default values and checks
// that every setting is usable before a replay run starts.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ggwpez/wtfwt/internal/fetch"
	"github.com/ggwpez/wtfwt/internal/logging"
	"github.com/ggwpez/wtfwt/internal/project"
	"github.com/ggwpez/wtfwt/internal/snapshot"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
)

// Config represents the root configuration structure loaded from YAML.
type Config struct {
	RPC      RPC      `yaml:"rpc"`
	Fetch    Fetch    `yaml:"fetch"`
	Snapshot Snapshot `yaml:"snapshot"`
	Project  Project  `yaml:"project"`
	Lockfile Lockfile `yaml:"lockfile"`
	Log      Log      `yaml:"log"`
}

// RPC controls calls made to the node.
type RPC struct {
	Timeout    time.Duration `yaml:"timeout"`     // per JSON-RPC call (e.g., "30s")
	MaxRetries int           `yaml:"max_retries"` // HTTP JSON path only (0 = no retries)
}

// Fetch selects how the raw block is obtained.
type Fetch struct {
	Strategy string `yaml:"strategy"` // "binary" or "json"
}

// Snapshot configures the external snapshot tool.
type Snapshot struct {
	Tool string `yaml:"tool"` // executable name or path
}

// Project configures the generated replay crate.
type Project struct {
	Dir string `yaml:"dir"`
}

// Lockfile configures where Cargo.lock is downloaded from.
type Lockfile struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		RPC:      RPC{Timeout: defaultTimeout, MaxRetries: defaultMaxRetries},
		Fetch:    Fetch{Strategy: string(fetch.KindBinary)},
		Snapshot: Snapshot{Tool: snapshot.DefaultTool},
		Project:  Project{Dir: project.DefaultDir},
		Lockfile: Lockfile{BaseURL: project.DefaultLockfileBaseURL, Timeout: defaultTimeout},
		Log:      Log{Level: logging.DefaultLevel, Format: "console"},
	}
}

// Validate checks every field. It may emit warnings (to stderr) for
// suspicious timeouts but does not fail on warnings.
func (c *Config) Validate() error {
	if c.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc.timeout must be > 0")
	}
	if c.RPC.MaxRetries < 0 {
		return fmt.Errorf("rpc.max_retries must be >= 0")
	}
	if _, err := fetch.ParseKind(c.Fetch.Strategy); err != nil {
		return fmt.Errorf("fetch.strategy: %w", err)
	}
	if strings.TrimSpace(c.Snapshot.Tool) == "" {
		return fmt.Errorf("snapshot.tool is required")
	}
	if strings.TrimSpace(c.Project.Dir) == "" {
		return fmt.Errorf("project.dir is required")
	}
	if err := project.CheckDir(c.Project.Dir, "."); err != nil {
		return fmt.Errorf("project.dir: %w", err)
	}
	if c.Lockfile.Timeout <= 0 {
		return fmt.Errorf("lockfile.timeout must be > 0")
	}

	u, err := url.Parse(c.Lockfile.BaseURL)
	if err != nil {
		return fmt.Errorf("lockfile.base_url: %w", err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("lockfile.base_url %q: expected an http or https url", c.Lockfile.BaseURL)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q: expected console or json", c.Log.Format)
	}

	warnTimeout := func(scope string, d time.Duration) {
		const low = 500 * time.Millisecond
		const high = 10 * time.Minute
		if d < low {
			fmt.Fprintf(os.Stderr, "Warning: %s timeout is very low (%s); requests may fail under normal network jitter\n", scope, d)
		}
		if d > high {
			fmt.Fprintf(os.Stderr, "Warning: %s timeout is very high (%s); failures may take a long time to surface\n", scope, d)
		}
	}
	warnTimeout("rpc", c.RPC.Timeout)
	warnTimeout("lockfile", c.Lockfile.Timeout)

	return nil
}

// Load reads a YAML configuration file with Read and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read parses a YAML configuration file on top of Default, expanding
// environment variables. Keys missing from the file keep their default
// values. The result is not validated; callers that override fields
// afterwards validate once they are done.
//
// Environment variable expansion:
//
//	Values can use ${VAR} syntax which will be expanded using os.ExpandEnv().
//	Example: base_url: ${LOCKFILE_MIRROR}
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadEnv reads environment variables from a .env file in the current working directory
// and sets them using os.Setenv. It runs before config loading so that ${VAR}
// references resolve.
//
// File format:
//   - Each line contains KEY=VALUE
//   - Empty lines are ignored
//   - Lines starting with # are treated as comments
//   - Values can be quoted with single or double quotes (quotes are stripped)
//
// A missing .env file is not an error.
func LoadEnv() {
	loadEnvFile(".env")
}

func loadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on first "=" to handle values that might contain "="
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			value = strings.Trim(value, `"'`)
			os.Setenv(key, value)
		}
	}
}
