package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	settings := &Settings{}
	settings.Database.SQLite.Enabled = true
	settings.Database.SQLite.Path = "trackwise.db"
	settings.Recommend.Count = 30
	settings.Enrich.BatchSize = 50
	return settings
}

func TestValidateSettings(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsNoDatabase(t *testing.T) {
	settings := validSettings()
	settings.Database.SQLite.Enabled = false

	err := ValidateSettings(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database enabled")
}

func TestValidateSettingsBothDatabases(t *testing.T) {
	settings := validSettings()
	settings.Database.MySQL.Enabled = true

	err := ValidateSettings(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pick one")
}

func TestValidateSettingsBadCounts(t *testing.T) {
	settings := validSettings()
	settings.Recommend.Count = 0
	assert.Error(t, ValidateSettings(settings))

	settings = validSettings()
	settings.Enrich.BatchSize = -1
	assert.Error(t, ValidateSettings(settings))
}
