package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mdkeep-go/internal/cli/config"
	"github.com/yndnr/mdkeep-go/internal/cli/output"
	"github.com/yndnr/mdkeep-go/internal/infra/confloader"
	servercfg "github.com/yndnr/mdkeep-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show the effective server configuration (secrets masked)",
				ArgsUsage: "[FILE]",
				Action:    configShow,
			},
			{
				Name:      "validate",
				Usage:     "Validate a server configuration file",
				ArgsUsage: "[FILE]",
				Action:    configValidate,
			},
			{
				Name:  "cli",
				Usage: "CLI local configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show CLI configuration",
						Action: configCLIShow,
					},
					{
						Name:  "set",
						Usage: "Update CLI configuration",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "default-server", Usage: "Default server address"},
							&cli.StringFlag{Name: "default-output", Usage: "Default output format"},
							&cli.StringFlag{Name: "server-config", Usage: "Server config file for config show|validate"},
						},
						Action: configCLISet,
					},
				},
			},
		},
	}
}

// loadServerConfig reads the server configuration the way mdkeep-server
// does: defaults, then FILE, then MDKEEP_ environment variables.
func loadServerConfig(c *cli.Context) (string, *servercfg.ServerConfig, error) {
	path := c.Args().First()
	if path == "" {
		path = cliConfig(c).ServerConfigFile
	}
	if path == "" {
		return "", nil, errors.New("FILE is required (or set server_config_file in the CLI config)")
	}

	cfg := servercfg.Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		return path, nil, err
	}
	return path, cfg, nil
}

func configShow(c *cli.Context) error {
	_, cfg, err := loadServerConfig(c)
	if err != nil {
		return err
	}
	sanitized := servercfg.Sanitize(cfg)

	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	// Nested sections read best as YAML; table output uses it too.
	if flags.Output == output.FormatJSON {
		return render(c, sanitized)
	}
	return (&output.YAMLFormatter{}).Format(stdout(c), sanitized)
}

func configValidate(c *cli.Context) error {
	path, cfg, err := loadServerConfig(c)
	if err != nil {
		return err
	}

	w := stdout(c)
	if err := servercfg.Verify(cfg); err != nil {
		fmt.Fprintf(w, "✗ Configuration is invalid: %s\n", path)
		for _, e := range unwrapJoined(err) {
			fmt.Fprintf(w, "  - %v\n", e)
		}
		return cli.Exit("validation failed", 1)
	}
	fmt.Fprintf(w, "✓ Configuration is valid: %s\n", path)
	return nil
}

func unwrapJoined(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func configCLIShow(c *cli.Context) error {
	w := stdout(c)
	fmt.Fprintf(w, "# %s\n", c.String("config"))
	return (&output.YAMLFormatter{}).Format(w, cliConfig(c))
}

func configCLISet(c *cli.Context) error {
	cfg := *cliConfig(c)
	if c.IsSet("default-server") {
		cfg.Server = c.String("default-server")
	}
	if c.IsSet("default-output") {
		format, err := output.ParseFormat(c.String("default-output"))
		if err != nil {
			return err
		}
		cfg.Output = string(format)
	}
	if c.IsSet("server-config") {
		cfg.ServerConfigFile = c.String("server-config")
	}

	path := c.String("config")
	if err := config.Save(&cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout(c), "Saved %s\n", path)
	return nil
}
