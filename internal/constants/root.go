package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName              = "fleetcal"
	DefaultKeyringUser   = "database-connection"
	AccessKeyKeyringUser = "access-key-hash"
	DefaultConfigDir     = "~/.config/fleetcal"
	DefaultDatabasePath  = "~/.config/fleetcal/fleetcal.db"
	Version              = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// MaxDriversPerUnit caps the driver slots of a single vehicle assignment
	MaxDriversPerUnit = 3

	// ChangeChannel is the PostgreSQL NOTIFY channel raised by the services trigger
	ChangeChannel = "service_changes"

	// Sync constants
	DefaultResyncWindow  = 100 * time.Millisecond
	OutcomeBufferSize    = 64
	StoreCallTimeout     = 10 * time.Second
	ListenerMinReconnect = 10 * time.Second
	ListenerMaxReconnect = time.Minute

	// Log rotation
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "fleetcal-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.fleetcal"
	NotifyMinInterval      = 2 * time.Second
)

// Session States
const (
	StateCalendar SessionState = iota
	StateDetail
	StateEditing
	StateUnlock
	StateFilterClient
	StateConfirmDelete
)
