// Package confloader loads configuration with koanf and watches the
// configuration file for changes.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (MDKEEP_ prefix)
//  3. Configuration file (YAML)
//  4. Values already set on the target struct
//
// Environment names map to keys by lowercasing and turning a double
// underscore into a level separator, so MDKEEP_STORAGE__STATE_DIR sets
// storage.state_dir.
package confloader
