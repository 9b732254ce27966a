package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a config file, choosing the decoder by file extension.
func Load(path string) (Config, error) {
	var c Config

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("failed loading config: %w", err)
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".toml"):
		err = toml.NewDecoder(f).Decode(&c)
	case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
		err = yaml.NewDecoder(f).Decode(&c)
	case strings.HasSuffix(path, ".json"):
		err = json.NewDecoder(f).Decode(&c)
	default:
		err = fmt.Errorf("unsupported config format: %s", path)
	}

	if err != nil {
		return c, fmt.Errorf("failed loading config: %w", err)
	}

	return c, nil
}
