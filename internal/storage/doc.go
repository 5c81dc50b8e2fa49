// Package storage provides the embedded storage layer for mdkeep.
//
// Two Badger databases back the service:
//
//   - State store: the editor's flat key-value entries (documents,
//     style configuration, settings), exposed through KVStore.
//   - Backup database: snapshot payloads and their index entries,
//     managed by the backupdb subpackage on top of BadgerEngine.
//
// BadgerEngine owns the Badger handle, the background value-log GC
// loop and the Prometheus size gauges; higher layers only use its
// transactional View/Update and the byte-level Get/Set/Delete/Scan.
package storage
