package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdAccountRepoSetDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ad_accounts SET is_default = false WHERE shop = \\$1").
		WithArgs(testShop).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE ad_accounts SET is_default = true WHERE shop = \\$1 AND account_id = \\$2").
		WithArgs(testShop, "act_2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewAdAccountRepo(db)
	require.NoError(t, repo.SetDefault(context.Background(), testShop, "act_2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdAccountRepoSetDefaultUnknownAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE ad_accounts SET is_default = false WHERE shop = \\$1").
		WithArgs(testShop).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE ad_accounts SET is_default = true WHERE shop = \\$1 AND account_id = \\$2").
		WithArgs(testShop, "act_9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewAdAccountRepo(db)
	err = repo.SetDefault(context.Background(), testShop, "act_9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
