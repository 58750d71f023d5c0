// Package migrator applies database schema migrations.
//
// Features:
// - Supports both forward (`up`) and rollback (`down`) migrations to any target version
// - Applies steps strictly in order, and stops at the first failing step
// - Tracks the schema version and the history of applied steps via a Store
// - Executes steps through a pluggable Executor (database connection or client process)
// - Supports dry runs that only report the planned steps
package migrator
