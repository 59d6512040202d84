// Package store persists run history in SQLite.
//
// One writer, many readers: the engine writes a complete run in a
// single transaction, reporting commands read it back. WAL mode keeps
// reads from blocking behind the writer. All writes are idempotent via
// ON CONFLICT DO NOTHING, so re-persisting a run is harmless.
package store
