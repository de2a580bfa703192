package sqlite

import "database/sql"

// NewStoreWithoutMigrations wraps db without touching its schema, for
// tests that drive the store against sqlmock.
func NewStoreWithoutMigrations(db *sql.DB) *Store {
	return newStore(db)
}
