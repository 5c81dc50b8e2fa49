// Package handler implements the mdkeep HTTP API.
//
// Every JSON response uses the envelope defined in types.go. The export
// download and /metrics are the exceptions: they return the raw backup
// file and the Prometheus text format respectively.
package handler
