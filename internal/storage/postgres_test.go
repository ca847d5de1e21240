package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/akapranchikova/quizzz/internal/storage"
	"github.com/akapranchikova/quizzz/internal/storage/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var repo *storage.PostgresRepo

func TestMain(m *testing.M) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}
	if err := migrations.Migrate(connString); err != nil {
		panic(err)
	}

	repo, err = storage.NewPostgresRepo(ctx, connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	repo.Close()
	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

func newMatch(finishedAt time.Time) domain.MatchResult {
	return domain.MatchResult{
		Id:         uuid.NewString(),
		Rounds:     8,
		StartedAt:  finishedAt.Add(-20 * time.Minute),
		FinishedAt: finishedAt,
		Standings: []domain.MatchStanding{
			{PlayerId: uuid.NewString(), Nickname: "naruto", CharacterId: "fox", Score: 4200, Rank: 1},
			{PlayerId: uuid.NewString(), Nickname: "sasuke", CharacterId: "hawk", Score: 3100, Rank: 2},
		},
	}
}

func TestPostgresRepo(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	older := newMatch(base)
	newer := newMatch(base.Add(time.Hour))

	t.Run("SaveMatch", func(t *testing.T) {
		require.NoError(t, repo.SaveMatch(ctx, older))
		require.NoError(t, repo.SaveMatch(ctx, newer))

		var count int
		err := repo.GetPool().QueryRow(ctx, "SELECT count(*) FROM match_players WHERE match_id = $1", older.Id).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("SaveMatch_Duplicate", func(t *testing.T) {
		err := repo.SaveMatch(ctx, older)
		assert.ErrorIs(t, err, domain.ErrDuplicateMatchId)
	})

	t.Run("SaveMatch_DuplicateLeavesNoPartialRows", func(t *testing.T) {
		dup := newMatch(base.Add(2 * time.Hour))
		dup.Standings = append(dup.Standings, dup.Standings[0])
		assert.ErrorIs(t, repo.SaveMatch(ctx, dup), domain.ErrDuplicateMatchId)

		var count int
		err := repo.GetPool().QueryRow(ctx, "SELECT count(*) FROM matches WHERE id = $1", dup.Id).Scan(&count)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("RecentMatches", func(t *testing.T) {
		matches, err := repo.RecentMatches(ctx, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, newer.Id, matches[0].Id)
		assert.Equal(t, older.Id, matches[1].Id)
		assert.Equal(t, newer.Standings, matches[0].Standings)
		assert.True(t, newer.FinishedAt.Equal(matches[0].FinishedAt))
	})

	t.Run("RecentMatches_Limit", func(t *testing.T) {
		matches, err := repo.RecentMatches(ctx, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, newer.Id, matches[0].Id)
	})
}
