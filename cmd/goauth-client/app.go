package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/config"
	"github.com/MrEthical07/goAuthClient/internal/logging"
	"github.com/MrEthical07/goAuthClient/session"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const engineKey = "engine"

func newApp() *cli.App {
	return &cli.App{
		Name:    "goauth-client",
		Usage:   "portal sign-in from the terminal",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			refreshCommand(),
			authorizeCommand(),
			configCommand(),
		},
		After: func(c *cli.Context) error {
			if engine, ok := c.App.Metadata[engineKey].(*goAuthClient.Engine); ok {
				engine.Close()
			}
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"GOAUTHCLIENT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "dotenv file read before the environment",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "authentication service URL, overrides the configuration",
		},
		&cli.StringFlag{
			Name:    "state-dir",
			Usage:   "directory holding the session (default: user config dir)",
			EnvVars: []string{"GOAUTHCLIENT_STATE_DIR"},
		},
		&cli.StringFlag{
			Name:    "passphrase",
			Usage:   "seal the state directory with this passphrase",
			EnvVars: []string{"GOAUTHCLIENT_PASSPHRASE"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
			Value: "warn",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "json or text",
			Value: "text",
		},
	}
}

func loadConfig(c *cli.Context) (goAuthClient.Config, error) {
	cfg, err := config.Load(
		config.WithConfigFile(c.String("config")),
		config.WithDotEnv(c.String("env-file")),
	)
	if err != nil {
		return goAuthClient.Config{}, err
	}
	if u := c.String("base-url"); u != "" {
		cfg.Transport.BaseURL = u
	}
	return cfg, nil
}

func newLogger(c *cli.Context) *slog.Logger {
	return logging.New(logging.Config{
		Level:  c.String("log-level"),
		Format: c.String("log-format"),
		Output: c.App.ErrWriter,
	})
}

func stateDir(c *cli.Context) (string, error) {
	if dir := c.String("state-dir"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate state dir: %w", err)
	}
	return filepath.Join(base, "goauth-client"), nil
}

// openEngine builds and initializes the engine once per invocation.
func openEngine(c *cli.Context) (*goAuthClient.Engine, error) {
	if engine, ok := c.App.Metadata[engineKey].(*goAuthClient.Engine); ok {
		return engine, nil
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if cfg.Transport.BaseURL == "" {
		return nil, errors.New("no authentication service configured; set --base-url or transport.base_url")
	}
	// One-shot processes never see user interaction.
	cfg.Inactivity.Enabled = false
	logger := newLogger(c)

	dir, err := stateDir(c)
	if err != nil {
		return nil, err
	}
	backend, err := session.OpenFileBackend(session.FileOptions{
		Dir:        dir,
		Passphrase: c.String("passphrase"),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	engine, err := goAuthClient.New().
		WithConfig(cfg).
		WithBackend(backend).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[engineKey] = engine

	if nav := engine.Init(c.Context); !nav.IsZero() {
		logger.Info("stored session discarded", "navigate", nav.Path)
	}
	return engine, nil
}
