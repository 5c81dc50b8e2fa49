package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mdkeep-go/internal/cli/config"
	"github.com/yndnr/mdkeep-go/internal/cli/connection"
	"github.com/yndnr/mdkeep-go/internal/cli/output"
	"github.com/yndnr/mdkeep-go/internal/infra/buildinfo"
)

// cliConfigKey is the App.Metadata slot holding the loaded *config.CLIConfig.
const cliConfigKey = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "mdkeep-cli",
		Usage:   "mdkeep backup service command-line tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			BackupCommand(),
			SystemCommand(),
			ConfigCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = map[string]any{}
			}
			c.App.Metadata[cliConfigKey] = cfg
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "mdkeep server address (e.g., localhost:5090 or unix:///run/mdkeep.sock)",
			EnvVars: []string{"MDKEEP_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file",
			EnvVars: []string{"MDKEEP_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
	}
}

// GlobalFlags defines flags available to all commands, resolved against
// the CLI config file.
type GlobalFlags struct {
	Server  string
	Output  output.Format
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context. Unset flags fall
// back to the CLI config file, then to built-in defaults.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := cliConfig(c)

	server := c.String("server")
	if server == "" {
		server = cfg.Server
	}
	if server == "" {
		server = config.DefaultServer
	}

	outName := c.String("output")
	if outName == "" {
		outName = cfg.Output
	}
	format, err := output.ParseFormat(outName)
	if err != nil {
		return nil, err
	}

	return &GlobalFlags{
		Server:  server,
		Output:  format,
		Verbose: c.Bool("verbose"),
	}, nil
}

func cliConfig(c *cli.Context) *config.CLIConfig {
	if c.App != nil {
		if cfg, ok := c.App.Metadata[cliConfigKey].(*config.CLIConfig); ok {
			return cfg
		}
	}
	return config.Default()
}

// EnsureConnected returns an HTTP client for the selected server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, err
	}
	client := connection.NewHTTPClient(flags.Server)
	if flags.Verbose {
		fmt.Fprintf(stderr(c), "server: %s\n", client.BaseURL())
	}
	return client, nil
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return output.NewFormatter(flags.Output).Format(stdout(c), data)
}

// isTable reports whether the human-readable format is selected.
func isTable(c *cli.Context) bool {
	flags, err := ParseGlobalFlags(c)
	return err == nil && flags.Output == output.FormatTable
}

func stdout(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func stderr(c *cli.Context) io.Writer {
	if c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
