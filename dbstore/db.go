package dbstore

import (
	_ "github.com/lib/pq"
)

// DBStore records the settlement journal in PostgreSQL. Connections are
// opened per call; the journal is an audit record and its failures never
// affect settlement.
type DBStore struct {
	dbConnStr string
}

// NewDBStore creates a new DBStore instance with the provided connection
// string.
//
// Parameters:
// - connStr: the database connection string.
//
// Returns:
// - *DBStore: a pointer to the newly created DBStore instance.
// - error: an error if the creation of the DBStore instance fails.
func NewDBStore(connStr string) (*DBStore, error) {
	return &DBStore{
		dbConnStr: connStr,
	}, nil
}
