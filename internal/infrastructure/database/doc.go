// Package database provides the SQLite store used for the execute audit log.
//
// Schema changes live as paired up/down SQL files in the top-level
// migrations package, which embeds them and registers the set here:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
package database
