package activity

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresAppend(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO activity_log").
		WithArgs(pgxmock.AnyArg(), "admin", "admin", "ingest", "extract.zip", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewPostgres(mock)
	stored, err := store.Append(context.Background(), Entry{
		User: "admin", Role: "admin", Action: "ingest", Detail: "extract.zip",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"id", "username", "role", "action", "detail", "created_at"}).
		AddRow("id-1", "hong", "manager", "view", "", created)

	mock.ExpectQuery("SELECT id, username, role, action, detail, created_at").
		WithArgs("hong", 10).
		WillReturnRows(rows)

	store := NewPostgres(mock)
	out, err := store.List(context.Background(), Filter{User: "hong", Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "view", out[0].Action)
	assert.Equal(t, created, out[0].CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPurge(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM activity_log").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	store := NewPostgres(mock)
	n, err := store.Purge(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, username").WillReturnError(assert.AnError)

	store := NewPostgres(mock)
	_, err = store.List(context.Background(), Filter{})
	require.Error(t, err)
}
