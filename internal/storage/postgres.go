package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// PostgresRepo archives finished matches.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrArchiveUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrArchiveUnavailable, err)
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func wrapErr(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return domain.ErrDuplicateMatchId
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrDatabase, err)
}

// SaveMatch stores the match and its standings in one transaction.
func (r *PostgresRepo) SaveMatch(ctx context.Context, m domain.MatchResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO matches(id, rounds, started_at, finished_at) VALUES($1, $2, $3, $4)",
		m.Id, m.Rounds, m.StartedAt, m.FinishedAt,
	)
	if err != nil {
		return wrapErr(err)
	}

	batch := &pgx.Batch{}
	for _, s := range m.Standings {
		batch.Queue(
			"INSERT INTO match_players(match_id, player_id, nickname, character_id, score, rank) VALUES($1, $2, $3, $4, $5, $6)",
			m.Id, s.PlayerId, s.Nickname, s.CharacterId, s.Score, s.Rank,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return wrapErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr(err)
	}
	return nil
}

// RecentMatches returns the latest matches, newest first, with standings by rank.
func (r *PostgresRepo) RecentMatches(ctx context.Context, limit int) ([]domain.MatchResult, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, rounds, started_at, finished_at FROM matches ORDER BY finished_at DESC, id LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MatchResult, error) {
		var m domain.MatchResult
		err := row.Scan(&m.Id, &m.Rounds, &m.StartedAt, &m.FinishedAt)
		m.Standings = []domain.MatchStanding{}
		return m, err
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	if len(matches) == 0 {
		return matches, nil
	}

	ids := make([]string, len(matches))
	index := make(map[string]int, len(matches))
	for i, m := range matches {
		ids[i] = m.Id
		index[m.Id] = i
	}

	rows, err = r.pool.Query(ctx,
		"SELECT match_id, player_id, nickname, character_id, score, rank FROM match_players WHERE match_id = ANY($1) ORDER BY match_id, rank",
		ids,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var matchId string
		var s domain.MatchStanding
		if err := rows.Scan(&matchId, &s.PlayerId, &s.Nickname, &s.CharacterId, &s.Score, &s.Rank); err != nil {
			return nil, wrapErr(err)
		}
		i := index[matchId]
		matches[i].Standings = append(matches[i].Standings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return matches, nil
}
