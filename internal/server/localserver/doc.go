// Package localserver serves the HTTP API on a Unix domain socket.
//
// The socket is created with mode 0600 so only the server's user can
// reach it. mdkeep-cli connects with --server unix:///path/to/socket.
package localserver
