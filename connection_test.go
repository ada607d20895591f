package oscarodin

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionRejectsUnknownDrivers(t *testing.T) {
	err := NewConnection(ConnectionProps{Driver: "sqlite3", ConnString: "file::memory:"})
	assert.EqualError(t, err, `unsupported database driver "sqlite3"`)
}

func TestSetConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	SetConnection(db)
	assert.Same(t, db, GetConnection())
	assert.Same(t, db, New().db)

	CloseConnection()
	assert.Nil(t, GetConnection())
	assert.NoError(t, mock.ExpectationsWereMet())

	// closing twice is a no-op
	CloseConnection()
}
