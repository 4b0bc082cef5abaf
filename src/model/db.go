package model

import "github.com/jmoiron/sqlx"

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so every function here
// can run standalone or as part of a caller's transaction.
type DBTX interface {
	sqlx.Queryer
	sqlx.Execer
}
