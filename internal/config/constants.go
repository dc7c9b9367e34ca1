package config

const (
	// DefaultDatabasePath is the default path for the local sync database
	DefaultDatabasePath = "./shelfsync.db"
)
