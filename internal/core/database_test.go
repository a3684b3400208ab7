// AngelaMos | 2026
// database_test.go

package core

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestInTxSerializableRetriesSerializationFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE widgets").
		WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE widgets").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	attempts := 0
	err := InTxSerializable(context.Background(), db, func(tx *sqlx.Tx) error {
		attempts++
		_, err := tx.ExecContext(context.Background(), "UPDATE widgets SET n = 1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxSerializableGivesUpAfterRetries(t *testing.T) {
	db, mock := newMockDB(t)

	for i := 0; i < serializableAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE widgets").
			WillReturnError(&pgconn.PgError{Code: "40001"})
		mock.ExpectRollback()
	}

	err := InTxSerializable(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE widgets SET n = 1")
		return err
	})
	require.Error(t, err)
	assert.True(t, IsSerializationFailure(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxSerializableDoesNotRetryOrdinaryErrors(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE widgets").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := InTxSerializable(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE widgets SET n = 1")
		return err
	})
	require.Error(t, err)
	assert.False(t, IsSerializationFailure(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
