package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultsite/internal"
	pkgconfig "github.com/starford/vaultsite/pkg/config"
)

var version = "dev"

// loadConfig reads the config file, applies command-line overrides and
// validates the result.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	if cmd.IsSet("vault") {
		cfg.Vault.Path = cmd.String("vault")
	}
	if cmd.IsSet("out") {
		cfg.Site.Output = cmd.String("out")
	}
	if cmd.IsSet("port") {
		cfg.Serve.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("watch") {
		cfg.Serve.Watch = cmd.Bool("watch")
	}
	if cmd.IsSet("index") {
		cfg.SQLite.Path = cmd.String("index")
	}
	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func action(run func(context.Context, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		opts := []internal.Option{
			internal.WithConfig(cfg),
			internal.WithVersion(version),
		}
		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("app run error: %w", err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "vaultsite",
		Usage:   "Turn a Markdown vault with [[wikilinks]] into a static HTML site",
		Version: version,
		Action:  action(internal.Build),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory to read notes from",
				Sources: cli.EnvVars("VAULT_PATH"),
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory for the generated site",
				Sources: cli.EnvVars("SITE_OUTPUT"),
			},
			&cli.StringFlag{
				Name:    "index",
				Usage:   "SQLite file recording builds for search",
				Sources: cli.EnvVars("SQLITE_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the site once",
				Action: action(internal.Build),
			},
			{
				Name:   "serve",
				Usage:  "Build, serve and rebuild on change",
				Action: action(internal.Serve),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "HTTP port",
						Sources: cli.EnvVars("HTTP_PORT"),
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Rebuild when vault files change",
						Value: true,
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Expose build and search tools over MCP stdio",
				Action: action(internal.MCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
