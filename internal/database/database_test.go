package database_test

import (
	"bytes"
	"log"
	"os"
	"testing"

	"taskapi/internal/config"
	"taskapi/internal/database"
	"taskapi/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_SQLiteMigrates(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file:database_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	defer database.Close(db)

	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Task{}))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := database.Open(config.DatabaseConfig{Driver: "memory"})
	assert.Error(t, err)
}

func TestOpen_MissingRecordIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file:database_notfound_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	defer database.Close(db)

	err = db.First(&models.Task{}, 999).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NotContains(t, buf.String(), "record not found")

	// Real failures still reach the log.
	db.Exec("SELECT * FROM no_such_table")
	assert.Contains(t, buf.String(), "no_such_table")
}
