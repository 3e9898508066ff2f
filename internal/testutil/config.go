package testutil

import (
	"testing"

	"booktracker/internal/config"

	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	UpdateCovers         bool
	CoverCacheDir        string
	GeminiAPIKey         string
	GeminiModel          string
	DriveFolderID        string
	DriveCredentialsFile string
	DriveTokenFile       string
	DriveClientID        string
	DriveClientSecret    string
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		UpdateCovers:         config.UpdateCovers,
		CoverCacheDir:        config.CoverCacheDir,
		GeminiAPIKey:         config.GeminiAPIKey,
		GeminiModel:          config.GeminiModel,
		DriveFolderID:        config.DriveFolderID,
		DriveCredentialsFile: config.DriveCredentialsFile,
		DriveTokenFile:       config.DriveTokenFile,
		DriveClientID:        config.DriveClientID,
		DriveClientSecret:    config.DriveClientSecret,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.UpdateCovers = state.UpdateCovers
	config.CoverCacheDir = state.CoverCacheDir
	config.GeminiAPIKey = state.GeminiAPIKey
	config.GeminiModel = state.GeminiModel
	config.DriveFolderID = state.DriveFolderID
	config.DriveCredentialsFile = state.DriveCredentialsFile
	config.DriveTokenFile = state.DriveTokenFile
	config.DriveClientID = state.DriveClientID
	config.DriveClientSecret = state.DriveClientSecret
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}
