package database

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexeviet/seat-hold/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "vexeviet"})
	assert.Equal(t, "app:pw@tcp(db:3306)/vexeviet?charset=utf8mb4&parseTime=true&loc=UTC", dsn)

	dsn = DSN(config.DBConfig{User: "root", Host: "127.0.0.1", Port: "3307", Name: "x"})
	assert.Equal(t, "root@tcp(127.0.0.1:3307)/x?charset=utf8mb4&parseTime=true&loc=UTC", dsn)
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS client_state")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
