package constants

const (
	// Config keys
	SettingDatabase     = "database"
	SettingYear         = "year"
	SettingTimezone     = "timezone"
	SettingResyncWindow = "resync_window"
	SettingNotify       = "notify"
	SettingDebug        = "debug"

	// EnvPrefix scopes configuration environment variables (FLEETCAL_DATABASE, ...)
	EnvPrefix = "FLEETCAL"

	// Environment variables read outside of viper
	EnvAccessKey     = "FLEETCAL_ACCESS_KEY"
	EnvAccessKeyHash = "FLEETCAL_ACCESS_KEY_HASH"
	EnvDBConnection  = "FLEETCAL_DB_CONNECTION"

	// Default Settings Values
	DefaultTimezone = "Local"
	DefaultNotify   = false
)
