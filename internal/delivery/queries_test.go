package delivery

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"zoterharvest/internal/domain"
)

func TestStore_UpsertJournal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithDB(mock, 4)

	mock.ExpectQuery(`INSERT INTO zeder_journals`).
		WithArgs("42", "Journal of Testing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store.UpsertJournal(context.Background(), &domain.JournalParams{ZederID: "42", Name: "Journal of Testing"})
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_URLAlreadyDelivered_Found(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithDB(mock, 4)

	rows := pgxmock.NewRows([]string{"id", "hash", "main_title", "delivery_state", "error_message", "delivered_at"}).
		AddRow(int64(1), "abc123", "A Study", string(domain.StateAutomatic), "", time.Now())
	mock.ExpectQuery(`SELECT r.id`).
		WithArgs("https://example.org/a1", "").
		WillReturnRows(rows)

	entry, err := store.URLAlreadyDelivered(context.Background(), "https://example.org/a1", nil)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, "abc123", entry.Hash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_URLAlreadyDelivered_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithDB(mock, 4)

	mock.ExpectQuery(`SELECT r.id`).
		WithArgs("https://example.org/a1", "").
		WillReturnError(pgx.ErrNoRows)

	entry, err := store.URLAlreadyDelivered(context.Background(), "https://example.org/a1", nil)
	require.NoError(t, err)
	require.Nil(t, entry)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_HashAlreadyDelivered_ExcludesIgnoredStates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithDB(mock, 4)

	mock.ExpectQuery(`SELECT id, hash, main_title, delivery_state, error_message, delivered_at`).
		WithArgs("abc123", string(domain.StateError), string(domain.StateReset)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "hash", "main_title", "delivery_state", "error_message", "delivered_at"}))

	entries, err := store.HashAlreadyDelivered(context.Background(), "abc123", []domain.DeliveryState{domain.StateError, domain.StateReset})
	require.NoError(t, err)
	require.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Archive_InsertsNewRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithDB(mock, 4)
	catalog := domain.CatalogRecord{Hash: "abc123", Title: "A Study", URL: "https://example.org/a1"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, delivery_state FROM delivered_marc_records WHERE hash = \$1`).
		WithArgs("abc123").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO delivered_marc_records`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivered_marc_records_urls")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = store.Archive(context.Background(), 1, catalog, domain.StateAutomatic, "")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Archive_UpdatesRetryableExistingRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewWithDB(mock, 4)
	catalog := domain.CatalogRecord{Hash: "abc123", Title: "A Study", URL: "https://example.org/a1"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, delivery_state FROM delivered_marc_records WHERE hash = \$1`).
		WithArgs("abc123").
		WillReturnRows(pgxmock.NewRows([]string{"id", "delivery_state"}).AddRow(int64(3), string(domain.StateError)))
	mock.ExpectExec(`UPDATE delivered_marc_records`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivered_marc_records_urls")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = store.Archive(context.Background(), 1, catalog, domain.StateAutomatic, "")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDoiSuffix(t *testing.T) {
	require.Equal(t, "/10.1/xyz", doiSuffix("https://doi.org/10.1/xyz"))
	require.Equal(t, "", doiSuffix("https://example.org/a1"))
}
