// Package database provides the local data access layer for the agent.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, pragmas, migrations
//	├── credentials/     # Server address, account and cached tokens
//	├── sessions/        # Durable reading-session queue
//	└── settings/        # Key-value settings
//
// Each sub-package provides a Repository type over the shared *gorm.DB:
//
//	db, err := database.NewDatabase("./shelfsync.db")
//	sessionsRepo := sessions.NewRepository(db.DB)
//	credsRepo := credentials.NewRepository(db.DB)
//
// The database is opened in WAL journal mode so that already-ended
// sessions survive abrupt process termination; Close checkpoints the WAL
// so a normal exit leaves no recovery burden.
package database
