package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfeld/newsvault/internal/news"
)

func newMockStore(t *testing.T) (*SnapshotStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithPool(mock, "snapshots", nil)
	require.NoError(t, err)
	return store, mock
}

func TestSaveReplacesRowsInTransaction(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	items := []news.Article{
		{Title: "First", Description: "d1", URL: "https://a", Date: "2025-01-14", Source: "S1"},
		{Title: "Second", Description: "d2", URL: "https://b", Date: "2025-01-13", Source: "S2"},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM snapshots").
		WithArgs("deep-learning").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs("deep-learning", 0, "First", "d1", "https://a", "2025-01-14", "S1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs("deep-learning", 1, "Second", "d2", "https://b", "2025-01-13", "S2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), "deep-learning", items))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEmptySnapshotOnlyDeletes(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM snapshots").
		WithArgs("deep-learning").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), "deep-learning", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM snapshots").
		WithArgs("deep-learning").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs("deep-learning", 0, "First", "d1", "https://a", "2025-01-14", "S1").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Save(context.Background(), "deep-learning", []news.Article{
		{Title: "First", Description: "d1", URL: "https://a", Date: "2025-01-14", Source: "S1"},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadReturnsRowsInOrder(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"title", "description", "url", "published_on", "source"}).
		AddRow("First", "d1", "https://a", "2025-01-14", "S1").
		AddRow("Second", "d2", "https://b", "2025-01-13", "S2")
	mock.ExpectQuery("SELECT title, description, url, published_on, source FROM snapshots").
		WithArgs("deep-learning").
		WillReturnRows(rows)

	items := store.Load(context.Background(), "deep-learning")

	require.Len(t, items, 2)
	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, "2025-01-13", items[1].Date)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadQueryFailureIsEmpty(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT title, description, url, published_on, source FROM snapshots").
		WithArgs("deep-learning").
		WillReturnError(errors.New("connection refused"))

	assert.Empty(t, store.Load(context.Background(), "deep-learning"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(nil, "snapshots", nil)
	assert.Error(t, err)

	_, err = NewWithPool(mock, "bad;table", nil)
	assert.Error(t, err)

	store, err := NewWithPool(mock, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "snapshots", store.table)
}
