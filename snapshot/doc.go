// Package snapshot persists container and operator state so a run can be
// audited and a later run can backfill: skip every operator whose most
// recent record says it already succeeded.
//
// A Store keeps whole ContainerSnapshot records ordered by TakenAt. Each
// store stamps TakenAt from a Clock that never repeats a value, so "most
// recent" is well defined even for writes landing in the same nanosecond.
//
// Backends:
//
//   - MemoryStore (this package): tests and single-process runs
//   - snapshot/objectstore: JSON objects on local disk or S3
//   - snapshot/badgerstore: embedded badger database
//   - snapshot/sqlstore: PostgreSQL tables
//
// Backends register a Factory under their provider name; import them for
// side effects and call New with a Config.
package snapshot
