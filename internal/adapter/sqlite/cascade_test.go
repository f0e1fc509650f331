package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/crmlite/internal/adapter/sqlite"
	"github.com/Strob0t/crmlite/internal/domain"
	"github.com/Strob0t/crmlite/internal/domain/opportunity"
)

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewStore(sqlx.NewDb(db, "sqlite")), mock
}

func TestDeleteOpportunityDeletesChildrenFirst(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM opportunities WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`DELETE FROM strategies WHERE opportunity_id = \?`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM interactions WHERE opportunity_id = \?`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM opportunities WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := store.DeleteOpportunity(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, opportunity.CascadeResult{Interactions: 4, Strategies: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOpportunityRollsBackOnChildFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM opportunities WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`DELETE FROM strategies WHERE opportunity_id = \?`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM interactions WHERE opportunity_id = \?`).
		WithArgs(int64(7)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	res, err := store.DeleteOpportunity(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, opportunity.CascadeResult{}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOpportunityMissingRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM opportunities WHERE id = \?`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := store.DeleteOpportunity(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOpportunityRollsBackWhenMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE opportunities SET name = \?, updated_at = \? WHERE id = \?`).
		WithArgs("Renamed", sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	name := "Renamed"
	_, err := store.UpdateOpportunity(context.Background(), 3, opportunity.UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
