// Package config defines the mdkeep-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation (addresses, directories, schedule, key length)
//   - sanitize.go: masking of secrets for logs and `config show`
//
// Configuration is loaded through internal/infra/confloader from a YAML
// file, MDKEEP_* environment variables and command-line overrides.
package config
