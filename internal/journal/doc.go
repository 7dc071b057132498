// Package journal persists one record per protocol round trip in a SQLite
// database: target file, mode, transport used, operation count, duration and
// outcome. The journal is an audit trail, not a queue; failed inserts never
// fail the round trip that produced them.
package journal
