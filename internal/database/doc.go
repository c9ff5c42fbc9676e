// Package database persists job records in SQLite.
//
// Each job is one row in the jobs table, keyed by id. Scalar fields map to
// columns; warnings, thumbnail references and probe metadata are stored as
// JSON text. The database uses WAL mode and creates its schema on open.
//
// Database implements jobs.Persister.
package database
