package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMigrationPart(t *testing.T) {
	content := `
-- +migrate Up
CREATE TABLE users (id int);
ALTER TABLE users ADD COLUMN name text;

-- +migrate Down
DROP TABLE users;
`
	t.Run("Extract Up", func(t *testing.T) {
		up := extractMigrationPart(content, "Up")
		assert.Contains(t, up, "CREATE TABLE users")
		assert.Contains(t, up, "ALTER TABLE users")
		assert.NotContains(t, up, "DROP TABLE users")
		assert.NotContains(t, up, "-- +migrate Up")
	})

	t.Run("Extract Down", func(t *testing.T) {
		down := extractMigrationPart(content, "Down")
		assert.Contains(t, down, "DROP TABLE users")
		assert.NotContains(t, down, "CREATE TABLE users")
	})
}

func writeMigration(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunMigrationsUp(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dir := t.TempDir()
	applied := writeMigration(t, dir, "0001_users.sql", "-- +migrate Up\nCREATE TABLE users (id int);")
	pending := writeMigration(t, dir, "0002_orders.sql", "-- +migrate Up\nCREATE TABLE orders (id text);\n-- +migrate Down\nDROP TABLE orders;")

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("0001_users.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WithArgs("0002_orders.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE orders").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("0002_orders.sql").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, runMigrationsUp(context.Background(), db, []string{applied, pending}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsUp_FailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	file := writeMigration(t, t.TempDir(), "0001_bad.sql", "-- +migrate Up\nCREATE TABLE broken (;")

	mock.ExpectQuery("SELECT EXISTS.*schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE broken").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = runMigrationsUp(context.Background(), db, []string{file})
	assert.ErrorContains(t, err, "0001_bad.sql")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsDown(t *testing.T) {
	t.Run("NothingApplied", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnError(sql.ErrNoRows)

		assert.NoError(t, runMigrationsDown(context.Background(), db, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollsBackLatest", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		file := writeMigration(t, t.TempDir(), "0002_orders.sql",
			"-- +migrate Up\nCREATE TABLE orders (id text);\n-- +migrate Down\nDROP TABLE orders;")

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0002_orders.sql"))
		mock.ExpectBegin()
		mock.ExpectExec("DROP TABLE orders").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM schema_migrations").
			WithArgs("0002_orders.sql").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, runMigrationsDown(context.Background(), db, []string{file}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingFile", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT version FROM schema_migrations").
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("0009_gone.sql"))

		assert.ErrorContains(t, runMigrationsDown(context.Background(), db, nil), "0009_gone.sql")
	})
}

func TestRun_UnknownMode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	err = run(context.Background(), db, "sideways", t.TempDir())
	assert.EqualError(t, err, "unknown mode: sideways (use 'up' or 'down')")
}

func TestMigrationsParse(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		content, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Up"), f)
		assert.NotEmpty(t, extractMigrationPart(string(content), "Down"), f)
	}
}
