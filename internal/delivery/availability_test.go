package delivery

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestStore_IncrementFailures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithDB(mock, 4)

	mock.ExpectQuery(`INSERT INTO feed_link_availability`).
		WithArgs("https://example.org/feed", "timeout").
		WillReturnRows(pgxmock.NewRows([]string{"consecutive_failures"}).AddRow(3))

	n, err := store.IncrementFailures(context.Background(), "https://example.org/feed", "timeout")
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ShouldDisable(t *testing.T) {
	store := NewWithDB(nil, 1)
	require.False(t, store.ShouldDisable(4))
	require.True(t, store.ShouldDisable(5))
	require.True(t, store.ShouldDisable(6))
}
