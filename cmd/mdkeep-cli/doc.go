// Package main provides the entry point for mdkeep-cli.
//
// mdkeep-cli talks to a running mdkeep-server over HTTP:
//
//	mdkeep-cli backup list
//	mdkeep-cli backup create --note "before refactor"
//	mdkeep-cli -o json backup get 01HX...
//	mdkeep-cli backup export --dir ~/notes-backups
//	mdkeep-cli config validate /etc/mdkeep/server.yaml
package main
