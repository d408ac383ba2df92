package sqlbase

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, migrations map[int]string) (*MigrationManager, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return NewMigrationManager(logger, db, migrations), mock
}

func TestMigrationManagerAppliesPendingMigrationsInOrder(t *testing.T) {
	manager, mock := newTestManager(t, map[int]string{
		2: "CREATE TABLE second (id INT)",
		1: "CREATE TABLE first (id INT)",
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	// Version 1 must run before version 2, whatever the map order.
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE first").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(1).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE second").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(2).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, manager.RunMigrations(t.Context()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationManagerSkipsAppliedVersions(t *testing.T) {
	manager, mock := newTestManager(t, map[int]string{
		1: "CREATE TABLE first (id INT)",
		2: "CREATE TABLE second (id INT)",
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))

	require.NoError(t, manager.RunMigrations(t.Context()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationManagerRollsBackFailedMigration(t *testing.T) {
	manager, mock := newTestManager(t, map[int]string{
		1: "CREATE TABLE first (id INT)",
	})

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE first").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err := manager.RunMigrations(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute migration 1")
	require.NoError(t, mock.ExpectationsWereMet())
}
