package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// VerifyConfigOnStartup makes sure a config file exists and carries every
// key the current version knows about. It should be called when the
// application starts.
func VerifyConfigOnStartup(configPath string) {
	if err := EnsureConfigExists(configPath); err != nil {
		log.Printf("Error ensuring config exists: %v", err)
		return
	}
	if err := EnsureConfigUpdated(configPath); err != nil {
		log.Printf("Error updating config: %v", err)
	}
}

// EnsureConfigExists creates the config file from example-config.toml or,
// failing that, from the built-in defaults.
func EnsureConfigExists(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), os.ModePerm); err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if _, err := os.Stat("example-config.toml"); err == nil {
		err := copyFile("example-config.toml", configPath)
		if err == nil {
			return nil
		}
		log.Printf("Failed to copy example config: %v. Writing defaults instead.", err)
	}

	if err := SaveConfig(CreateDefaultConfig(), configPath); err != nil {
		return errors.Wrap(err, "failed to write default config")
	}
	return nil
}

// EnsureConfigUpdated rewrites the config file when whole sections or the
// tuning keys added after the first release are missing from it.
func EnsureConfigUpdated(configPath string) error {
	var rawConfig map[string]any
	if _, err := toml.DecodeFile(configPath, &rawConfig); err != nil {
		return err
	}

	var cfg Config
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return err
	}

	isUpdated := false
	for _, section := range []string{"bot", "reddit", "twitter", "imgur", "clip_host", "streamable", "notifications", "options"} {
		if _, ok := rawConfig[section]; !ok {
			isUpdated = true
		}
	}

	if streamable, ok := rawConfig["streamable"].(map[string]any); ok {
		for _, key := range []string{"poll_attempts", "poll_interval"} {
			if _, exists := streamable[key]; !exists {
				isUpdated = true
			}
		}
	}
	if options, ok := rawConfig["options"].(map[string]any); ok {
		for _, key := range []string{"ledger", "extract_timeout", "reply_log"} {
			if _, exists := options[key]; !exists {
				isUpdated = true
			}
		}
	}

	if !isUpdated {
		return nil
	}

	applyDefaults(&cfg)
	log.Printf("Adding missing keys to %s", configPath)
	return SaveConfig(&cfg, configPath)
}

func copyFile(srcPath, dstPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	return os.WriteFile(dstPath, data, 0o600)
}
