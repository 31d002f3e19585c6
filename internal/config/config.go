package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of every environment variable the tool reads.
const EnvPrefix = "PGSQLCHECK_"

// DefaultFile is read when no file is given explicitly and it exists in the working directory.
const DefaultFile = ".pgsql-check.env"

// ErrNoConnection means neither a connection string nor a schema file was configured.
var ErrNoConnection = errors.New("no connection string or schema file configured")

// Config holds every setting the checker needs.
type Config struct {
	ConnectionString string   `koanf:"connection_string"`
	SchemaFile       string   `koanf:"schema"`
	TypeName         string   `koanf:"type"`
	TextField        string   `koanf:"field"`
	Excludes         []string `koanf:"exclude"`
	Concurrency      int      `koanf:"concurrency"`
	Verbose          bool     `koanf:"verbose"`
}

// Validate reports ErrNoConnection when nothing can be validated against.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ConnectionString) == "" && c.SchemaFile == "" {
		return ErrNoConnection
	}
	return nil
}

func defaults() map[string]any {
	return map[string]any{
		"type":        "Command",
		"field":       "Text",
		"exclude":     []string{"vendor", "*_test.go"},
		"concurrency": 8,
		"verbose":     false,
	}
}

// flagKeys maps flag names onto config keys where they differ.
var flagKeys = map[string]string{
	"dsn": "connection_string",
}

// Load resolves the configuration. Precedence, highest first: explicitly set
// flags, PGSQLCHECK_* environment variables, the config file, defaults.
// path may be empty, in which case DefaultFile is used if present. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
		}
	}

	// PGSQLCHECK_CONNECTION_STRING -> connection_string
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = envKey(key)
		return key, typedValue(key, value)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// listKeys are the keys whose flat string values are comma separated lists.
var listKeys = map[string]bool{
	"exclude": true,
}

// typedValue splits list keys; "gen, mocks" becomes ["gen" "mocks"].
func typedValue(key, value string) any {
	if !listKeys[key] {
		return value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// loadFile reads YAML files by extension and KEY=VALUE files otherwise.
func loadFile(k *koanf.Koanf, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("error reading config file %s: %w", path, err)
		}
		return nil
	}

	values, err := readFile(path)
	if err != nil {
		return err
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return nil
}

// readFile parses KEY=VALUE lines. Keys may carry the environment prefix.
// Comments and blank lines are ignored.
func readFile(path string) (map[string]any, error) {
	raw, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	values := make(map[string]any, len(raw))
	for key, value := range raw {
		key = envKey(strings.ToUpper(key))
		values[key] = typedValue(key, value)
	}
	return values, nil
}
