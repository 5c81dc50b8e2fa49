package config

// DefaultServer is the address the CLI dials when nothing else is set.
const DefaultServer = "localhost:5090"

// CLIConfig is the configuration for mdkeep-cli (~/.mdkeep/cli.yaml).
//
// Values here are defaults; --server and --output flags and the
// MDKEEP_SERVER environment variable take precedence.
type CLIConfig struct {
	Server string `yaml:"server"`
	Output string `yaml:"output"` // table, json, yaml

	// ServerConfigFile is the server config read by `config show|validate`
	// when no FILE argument is given.
	ServerConfigFile string `yaml:"server_config_file,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: DefaultServer,
		Output: "table",
	}
}
