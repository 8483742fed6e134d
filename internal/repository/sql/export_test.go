package sql

import "database/sql"

// GetTx is a test helper to extract the transaction from a Store.
func GetTx(s *Store) *sql.Tx {
	return s.txn
}
