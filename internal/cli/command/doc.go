// Package command defines the mdkeep-cli commands on urfave/cli/v2.
//
//   - backup: list, create, get, restore, delete, export, exports, import
//   - system: health, version
//   - config: show and validate a server config file; cli show|set
//
// Global --server and --output flags fall back to the CLI config file
// (~/.mdkeep/cli.yaml) when unset.
package command
