// Package cmap provides a concurrent map with string keys, split into
// independently locked shards.
package cmap
