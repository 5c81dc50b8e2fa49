// Package output renders mdkeep-cli results as a table, JSON or YAML.
//
// The table formatter reflects over structs, slices and maps and takes
// column names from json tags, so the same response types serve all
// three formats.
package output
