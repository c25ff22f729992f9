// Package store provides the SQLite conformance store.
//
// The store holds two things:
//   - Model tables: one table per entity of a compiled model, created by
//     ApplyModel, against which generated query text is prepared (Check)
//     to catch syntax and binding errors without executing anything
//   - Plans: compiled query plans keyed by the fingerprint of their query
//     text, written idempotently
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Plan listings use ORDER BY seq ASC, fingerprint COLLATE BINARY ASC
//
// Logical Identity
//   - Plans are ordered by an insertion seq INTEGER, never timestamps
//   - Reports are stored as canonical JSON
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
