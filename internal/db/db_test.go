package db

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"stackstore-be/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		sslMode  string
		expected string
	}{
		{"DefaultSSLMode", "", "host=localhost user=shop password=secret dbname=stackstore port=5432 sslmode=disable connect_timeout=5"},
		{"ExplicitSSLMode", "require", "host=localhost user=shop password=secret dbname=stackstore port=5432 sslmode=require connect_timeout=5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				DBHost:     "localhost",
				DBUser:     "shop",
				DBPassword: "secret",
				DBName:     "stackstore",
				DBPort:     "5432",
				DBSSLMode:  tt.sslMode,
			}
			assert.Equal(t, tt.expected, buildDSN(cfg))
		})
	}
}

func TestConnect(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		seed, mock, err := sqlmock.NewWithDSN("db_connect_ok", sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer seed.Close()
		mock.ExpectPing()

		db, err := connect("sqlmock", "db_connect_ok")
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, 25, db.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PingFailure", func(t *testing.T) {
		seed, mock, err := sqlmock.NewWithDSN("db_connect_down", sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer seed.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		db, err := connect("sqlmock", "db_connect_down")
		assert.Nil(t, db)
		assert.ErrorContains(t, err, "failed to ping DB: connection refused")
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		db, err := connect("not_registered", "")
		assert.Nil(t, db)
		assert.ErrorContains(t, err, "failed to connect to DB")
	})
}

func TestNewDatabase_Unreachable(t *testing.T) {
	cfg := &config.Config{DBHost: "invalid_host", DBPort: "5432"}

	db, err := NewDatabase(cfg)
	assert.Nil(t, db)
	assert.ErrorContains(t, err, "failed to ping DB")
}

func TestInitDB_ExitsOnFailure(t *testing.T) {
	if os.Getenv("STACKSTORE_DB_CRASHER") == "1" {
		InitDB(&config.Config{DBHost: "invalid_host", DBPort: "5432"})
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestInitDB_ExitsOnFailure")
	cmd.Env = append(os.Environ(), "STACKSTORE_DB_CRASHER=1")
	err := cmd.Run()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.False(t, exitErr.Success())
}
