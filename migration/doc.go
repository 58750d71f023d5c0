// Package migration contains the pure core of dbsync: parsing migration files
// into up and down changes, and selecting the ordered steps that move a
// database schema between two versions.
//
// Migration files contain two line annotations:
//
//	-- @UP
//	CREATE TABLE users (id INTEGER PRIMARY KEY);
//	-- @DOWN
//	DROP TABLE users;
//
// The version of a migration is the run of digits at the start of its file
// name, e.g. 20250101120000_create_users.sql has version 20250101120000.
package migration
