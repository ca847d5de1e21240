package storage

import "github.com/jackc/pgx/v5/pgxpool"

// GetPool is used by tests to query the database directly.
func (r *PostgresRepo) GetPool() *pgxpool.Pool {
	return r.pool
}
