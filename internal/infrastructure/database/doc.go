// Package database provides the SQLite connection that stores the sensor
// update audit trail.
//
// The database is optional. Open returns ErrDisabled when the database
// section of the configuration is switched off, and callers then run
// without an audit trail.
//
// Migrations are plain SQL file pairs supplied as an fs.FS (normally the
// embedded migrations package):
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive. New columns must be nullable or carry a default.
package database
