// Package database provides SQLite connectivity for the local command
// journal.
//
// The journal records every command published to the EcoNet cloud so an
// operator can see what was asked of a device and whether the broker
// accepted it. The package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Embedded forward-only schema migrations
//   - Connection lifecycle and health checks
//
// All queries use parameterised statements and the database file is
// created with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Journal.Path,
//	    WALMode:     cfg.Journal.WALMode,
//	    BusyTimeout: cfg.Journal.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	applied, err := db.Migrate(ctx)
//	if err != nil {
//	    return err
//	}
//
// Migration files live in the top-level migrations package, named
// YYYYMMDD_HHMMSS_description.sql. They are forward-only and applied in
// version order; a step older than the newest applied version is never
// run, so new steps must sort after every released one. Migrations are
// additive: new columns must be nullable or carry a default.
package database
