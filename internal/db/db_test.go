package db

import (
	"testing"
	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMigratesAndSeeds(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:db_open_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		Seed:         true,
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, gdb.Model(&models.Group{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	// Seeding twice is a no-op.
	require.NoError(t, SeedGroups(gdb))
	require.NoError(t, gdb.Model(&models.Group{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
