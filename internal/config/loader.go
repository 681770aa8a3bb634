package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix marks the environment variables read by Load.
	EnvPrefix = "REGCTL_"

	maxConfigFileSize = 1024 * 1024
)

// DefaultPath returns the per-user config file location,
// typically ~/.config/regctl/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "regctl", "config.yaml")
}

// Load reads configuration in precedence order (highest first):
//
//  1. REGCTL_* environment variables
//  2. the YAML file at path
//  3. built-in defaults
//
// An empty path loads DefaultPath when it exists. An explicit path that
// does not exist is an error.
//
// Environment names map onto keys by splitting at the first underscore
// after the prefix:
//
//	REGCTL_WORKERS              -> workers
//	REGCTL_PROBE_TIMEOUT        -> probe.timeout
//	REGCTL_TRANSPORT_SNAPSHOT_DIR -> transport.snapshot_dir
//
// REGCTL_PROBE_PORTS takes a comma-separated list.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		content, err := readConfigFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, err
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envKey maps REGCTL_SECTION_FIELD_NAME to section.field_name.
func envKey(name, value string) (string, any) {
	lower := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key := lower
	if section, field, ok := strings.Cut(lower, "_"); ok {
		key = section + "." + field
	}
	if key == "probe.ports" {
		return key, parsePorts(value)
	}
	return key, value
}

// parsePorts keeps unparsable entries as zero so validation reports them.
func parsePorts(s string) []int {
	var ports []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		p, err := strconv.Atoi(f)
		if err != nil {
			p = 0
		}
		ports = append(ports, p)
	}
	return ports
}
