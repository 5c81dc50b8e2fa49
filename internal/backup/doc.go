// Package backup ties the editor state to the backup database.
//
// Service captures and restores snapshots; Retention keeps the number of
// stored backups bounded; Hooks run automatic backups at application
// start, on document save and on a cron schedule. Hook failures are
// logged and never reach the caller.
package backup
