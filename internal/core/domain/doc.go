// Package domain defines the core domain models for mdkeep.
//
// Domain models are pure value objects without any IO dependencies.
// This package contains:
//
//   - Snapshot: a captured copy of the editor state (documents,
//     style configuration and settings)
//   - SnapshotRecord / IndexEntry: the two records persisted per backup
//   - Errors: domain error definitions with structured codes
package domain
