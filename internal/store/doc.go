// Package store provides SQLite-backed history of evaluation runs.
//
// The store records:
//   - Runs: the program evaluated, its content hash and the outcome
//   - Component evaluations: one row per component the engine solved
//   - Answer sets: the models of a run, content-addressed per run
//
// # Deterministic Reads
//
// Every list query has a total order that does not depend on wall time:
// runs by id (UUIDv7, so creation order), component evaluations by seq,
// answer sets by index. Empty results are empty slices, never nil.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Writing the same answer set twice,
// or the same component evaluation, leaves one row.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
