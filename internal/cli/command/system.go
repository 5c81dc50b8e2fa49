package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mdkeep-go/internal/cli/connection"
	"github.com/yndnr/mdkeep-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "version",
				Usage:  "Show client and server versions",
				Action: systemVersion,
			},
		},
	}
}

type healthResult struct {
	Status  string `json:"status" yaml:"status"`
	Time    string `json:"time" yaml:"time"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`

	NextBackup string `json:"next_backup,omitempty" yaml:"next_backup,omitempty"`
}

func fetchHealth(c *cli.Context) (*connection.HTTPClient, *healthResult, error) {
	client, err := EnsureConnected(c)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := requestContext(10 * time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/health")
	if err != nil {
		return client, nil, err
	}
	var result healthResult
	if err := connection.ParseResponse(resp, &result); err != nil {
		return client, nil, err
	}
	return client, &result, nil
}

func systemHealth(c *cli.Context) error {
	client, result, err := fetchHealth(c)
	if err != nil {
		PrintError("health check failed: %v", err)
		return cli.Exit("server unhealthy", 1)
	}

	if !isTable(c) {
		return render(c, result)
	}
	w := stdout(c)
	if result.Status == "healthy" {
		fmt.Fprintf(w, "✓ Server is healthy\n")
		fmt.Fprintf(w, "  Target: %s\n", client.BaseURL())
		if result.NextBackup != "" {
			fmt.Fprintf(w, "  Next backup: %s\n", result.NextBackup)
		}
		return nil
	}
	fmt.Fprintf(w, "✗ Server is unhealthy: %s\n", result.Status)
	return cli.Exit("", 1)
}

type versionResult struct {
	Client buildinfo.Info `json:"client" yaml:"client"`
	Server string         `json:"server" yaml:"server"`
}

func systemVersion(c *cli.Context) error {
	result := versionResult{Client: buildinfo.Get(), Server: "unreachable"}
	_, health, err := fetchHealth(c)
	switch {
	case err != nil:
		if c.Bool("verbose") {
			fmt.Fprintf(stderr(c), "server version: %v\n", err)
		}
	case health.Version != "":
		result.Server = health.Version
	default:
		result.Server = "unknown"
	}

	if !isTable(c) {
		return render(c, result)
	}
	w := stdout(c)
	fmt.Fprintf(w, "Client: %s (%s) %s\n", result.Client.Version, result.Client.Commit, result.Client.Platform)
	fmt.Fprintf(w, "Server: %s\n", result.Server)
	return nil
}
