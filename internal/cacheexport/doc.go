// Package cacheexport moves latin cache entries to and from SQLite files.
//
// Export writes a fresh database next to the destination and renames it into
// place. Import reads every row first, then applies them through the store's
// edit path so values are sanitized exactly like manual edits, and saves once.
// Databases carry a schema_version row; files written by a different version
// are rejected with ErrSchemaMismatch.
package cacheexport
