// Package buildinfo exposes version information for the mdkeep binaries.
//
// Version, Commit and BuildTime are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/mdkeep-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are not injected, values are taken from the module build
// information embedded by the Go toolchain where available.
package buildinfo
