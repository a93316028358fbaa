package sqladapter

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/tokenfield/internal/database"
	"github.com/allisson/tokenfield/internal/errors"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)

		rows := sqlmock.NewRows([]string{"id", "email", "email_token"}).
			AddRow("cus_1", nil, []byte("tok_email"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customers WHERE id = $1")).
			WithArgs("cus_1").
			WillReturnRows(rows)

		a, err := Load(ctx, db, database.DriverPostgres, "customers", "id", "cus_1")
		require.NoError(t, err)

		assert.True(t, a.IsPersisted())
		assert.False(t, a.IsNewRecord())
		assert.Equal(t, "cus_1", a.ReadField("id"))
		assert.Nil(t, a.ReadField("email"))
		// Byte slices from the driver come back as strings.
		assert.Equal(t, "tok_email", a.ReadField("email_token"))
		assert.True(t, a.HasField("email_token"))
		assert.False(t, a.HasField("ssn_token"))
		assert.Empty(t, a.ChangedSinceLoad())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customers WHERE id = $1")).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

		a, err := Load(ctx, db, database.DriverPostgres, "customers", "id", "missing")
		require.Error(t, err)
		assert.Nil(t, a)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("QueryError", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customers WHERE id = $1")).
			WithArgs("cus_1").
			WillReturnError(assert.AnError)

		a, err := Load(ctx, db, database.DriverPostgres, "customers", "id", "cus_1")
		require.Error(t, err)
		assert.Nil(t, a)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_ChangeTracking(t *testing.T) {
	db, _ := newMockDB(t)
	a := New(db, database.DriverPostgres, "customers", "id", []string{"id", "email", "email_token"})

	assert.True(t, a.IsNewRecord())
	assert.False(t, a.IsPersisted())

	a.WriteField("email", "a@b.com")
	a.MarkChanged("email_token")
	assert.Equal(t, []string{"email", "email_token"}, a.ChangedSinceLoad())
}

func TestAdapter_ApplyTargetedUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)

		rows := sqlmock.NewRows([]string{"id", "email", "email_token"}).
			AddRow("cus_1", nil, nil)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customers WHERE id = $1")).
			WithArgs("cus_1").
			WillReturnRows(rows)

		a, err := Load(ctx, db, database.DriverPostgres, "customers", "id", "cus_1")
		require.NoError(t, err)

		// Columns are applied in sorted order.
		mock.ExpectExec(regexp.QuoteMeta("UPDATE customers SET email = $1, email_token = $2 WHERE id = $3")).
			WithArgs(nil, "tok_email", "cus_1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = a.ApplyTargetedUpdate(ctx, map[string]any{
			"email_token": "tok_email",
			"email":       nil,
		})
		require.NoError(t, err)

		assert.Equal(t, "tok_email", a.ReadField("email_token"))
		assert.Empty(t, a.ChangedSinceLoad())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyUpdateIsNoop", func(t *testing.T) {
		db, mock := newMockDB(t)
		a := New(db, database.DriverPostgres, "customers", "id", []string{"id"})

		require.NoError(t, a.ApplyTargetedUpdate(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingIdentifier", func(t *testing.T) {
		db, _ := newMockDB(t)
		a := New(db, database.DriverPostgres, "customers", "id", []string{"id", "email_token"})

		err := a.ApplyTargetedUpdate(ctx, map[string]any{"email_token": "tok"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	})

	t.Run("HonorsContextTransaction", func(t *testing.T) {
		db, mock := newMockDB(t)

		rows := sqlmock.NewRows([]string{"id", "email_token"}).AddRow("cus_1", nil)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customers WHERE id = $1")).
			WithArgs("cus_1").
			WillReturnRows(rows)

		a, err := Load(ctx, db, database.DriverPostgres, "customers", "id", "cus_1")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE customers SET email_token = $1 WHERE id = $2")).
			WithArgs("tok_email", "cus_1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		txManager := database.NewTxManager(db)
		err = txManager.WithTx(ctx, func(ctx context.Context) error {
			return a.ApplyTargetedUpdate(ctx, map[string]any{"email_token": "tok_email"})
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("InsertNewRecord", func(t *testing.T) {
		db, mock := newMockDB(t)
		a := New(db, database.DriverPostgres, "customers", "id", []string{"id", "email", "email_token"})
		a.WriteField("id", "cus_1")
		a.WriteField("email_token", "tok_email")

		// Nil columns are omitted; the rest insert in sorted order.
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customers (email_token, id) VALUES ($1, $2)")).
			WithArgs("tok_email", "cus_1").
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, a.Save(ctx))
		assert.True(t, a.IsPersisted())
		assert.Empty(t, a.ChangedSinceLoad())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateChangedColumns", func(t *testing.T) {
		db, mock := newMockDB(t)

		rows := sqlmock.NewRows([]string{"id", "email", "email_token"}).
			AddRow("cus_1", nil, "tok_old")
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customers WHERE id = $1")).
			WithArgs("cus_1").
			WillReturnRows(rows)

		a, err := Load(ctx, db, database.DriverPostgres, "customers", "id", "cus_1")
		require.NoError(t, err)

		a.WriteField("email_token", "tok_new")

		mock.ExpectExec(regexp.QuoteMeta("UPDATE customers SET email_token = $1 WHERE id = $2")).
			WithArgs("tok_new", "cus_1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, a.Save(ctx))
		assert.Empty(t, a.ChangedSinceLoad())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateWithoutChangesIsNoop", func(t *testing.T) {
		db, mock := newMockDB(t)

		rows := sqlmock.NewRows([]string{"id", "email"}).AddRow("cus_1", nil)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM customers WHERE id = $1")).
			WithArgs("cus_1").
			WillReturnRows(rows)

		a, err := Load(ctx, db, database.DriverPostgres, "customers", "id", "cus_1")
		require.NoError(t, err)

		require.NoError(t, a.Save(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertNothingFails", func(t *testing.T) {
		db, _ := newMockDB(t)
		a := New(db, database.DriverPostgres, "customers", "id", []string{"id", "email"})

		err := a.Save(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	})
}
