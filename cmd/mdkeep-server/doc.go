// Package main provides the entry point for mdkeep-server.
//
// mdkeep-server owns the markdown editor's state store and its backup
// database. It takes automatic backups on startup, on every document
// save and on a schedule, and serves the HTTP API the editor and
// mdkeep-cli use to list, restore, export and import backups.
package main
