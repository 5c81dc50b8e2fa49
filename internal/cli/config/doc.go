// Package config loads and saves the mdkeep-cli configuration file.
package config
