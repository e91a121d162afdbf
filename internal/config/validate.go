package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateDestination(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/packmule/config.toml"
		}
		return fmt.Errorf("telegram.bot_token is required. Set PACKMULE_BOT_TOKEN env var or edit %s (create with 'packmule config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateDestination() error {
	// Destination credentials are optional: without them packmule runs in
	// download-only mode. If one half is set, the other must be too.
	hasURL := strings.TrimSpace(c.Destination.APIURL) != ""
	hasKey := strings.TrimSpace(c.Destination.APIKey) != ""
	if hasURL != hasKey {
		return errors.New("destination.api_url and destination.api_key must be set together")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
