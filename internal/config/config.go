package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// UpdateCovers controls whether cached cover images should be re-downloaded
	UpdateCovers bool
	// CoverCacheDir is the directory holding locally cached cover images
	CoverCacheDir string
	// GeminiAPIKey is the API key for the Gemini generative fallback
	GeminiAPIKey string
	// GeminiModel is the Gemini model used for metadata enrichment
	GeminiModel string
	// DriveFolderID is the parent folder for cover backups on Google Drive
	DriveFolderID string
	// DriveCredentialsFile points to the service-account credentials JSON
	DriveCredentialsFile string
	// DriveTokenFile is where the user OAuth token is persisted
	DriveTokenFile string
	// DriveClientID is the OAuth client id for the user-credential fallback
	DriveClientID string
	// DriveClientSecret is the OAuth client secret for the user-credential fallback
	DriveClientSecret string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("covers.cachedir", "./covers_cache")
	viper.SetDefault("gemini.model", "gemini-1.5-flash")
	viper.SetDefault("drive.tokenfile", "token.json")

	// Get values from viper
	UpdateCovers = viper.GetBool("UpdateCovers")
	CoverCacheDir = viper.GetString("covers.cachedir")
	GeminiAPIKey = viper.GetString("gemini.apikey")
	GeminiModel = viper.GetString("gemini.model")
	DriveFolderID = viper.GetString("drive.folderid")
	DriveCredentialsFile = viper.GetString("drive.credentialsfile")
	DriveTokenFile = viper.GetString("drive.tokenfile")
	DriveClientID = viper.GetString("drive.clientid")
	DriveClientSecret = viper.GetString("drive.clientsecret")
}

// SetUpdateCovers sets the UpdateCovers flag
func SetUpdateCovers(update bool) {
	UpdateCovers = update
}
