package sql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyhunko/academy-backend/internal/repository"
	"github.com/iyhunko/academy-backend/internal/repository/sql"
)

func TestStore_WithinTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		// given
		mock.ExpectBegin()
		mock.ExpectPrepare("UPDATE courses").
			ExpectExec().
			WithArgs("c1", "u1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectPrepare("INSERT INTO users").
			ExpectExec().
			WithArgs("u1", "c1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// when
		err = sql.NewStore(db).WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			require.NotNil(t, sql.GetTx(tx.(*sql.Store)), "repositories must share the transaction")
			if _, err := tx.Courses().AddStudent(ctx, "c1", "u1"); err != nil {
				return err
			}
			return tx.Users().AddEnrolledCourse(ctx, "u1", "c1")
		})

		// then
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		// given
		mock.ExpectBegin()
		mock.ExpectPrepare("UPDATE courses").
			ExpectExec().
			WithArgs("c1", "u1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectPrepare("INSERT INTO users").
			ExpectExec().
			WithArgs("u1", "c1", sqlmock.AnyArg()).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		// when
		err = sql.NewStore(db).WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			if _, err := tx.Courses().AddStudent(ctx, "c1", "u1"); err != nil {
				return err
			}
			return tx.Users().AddEnrolledCourse(ctx, "u1", "c1")
		})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		store := sql.NewStore(db)
		err = store.WithinTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
			return tx.WithinTransaction(ctx, func(context.Context, repository.Store) error { return nil })
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		called := false
		err = sql.NewStore(db).WithinTransaction(ctx, func(context.Context, repository.Store) error {
			called = true
			return nil
		})

		assert.Error(t, err)
		assert.False(t, called)
	})
}
