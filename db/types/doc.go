// Package types contains the database types and errors shared by the database
// implementation, the executors and the migrator. They are defined separately
// so that packages using them don't depend on a specific database driver.
package types
