package main

import (
	"database/sql"
	"log"
)

// The database only holds OAuth tokens. Sync state deliberately lives in
// the ownership tags on the child events themselves, so a lost or stale
// database never desynchronizes anything.
func dbInit(db *sql.DB) {
	var dbVersion int
	err := db.QueryRow("SELECT version FROM db_version WHERE name='fcsync'").Scan(&dbVersion)
	if err != nil {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS db_version (
			name TEXT PRIMARY KEY,
			version INTEGER
		)`)
		if err != nil {
			log.Fatalf("Error creating db_version table: %v", err)
		}
		_, err = db.Exec(`INSERT INTO db_version (name, version) VALUES ('fcsync', 0)`)
		if err != nil {
			log.Fatalf("Error initializing db_version table: %v", err)
		}
		dbVersion = 0
	}

	if dbVersion == 0 {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		account_name TEXT PRIMARY KEY,
		token TEXT)`)
		if err != nil {
			log.Fatalf("Error creating tokens table: %v", err)
		}

		_, err = db.Exec(`UPDATE db_version SET version = 1 WHERE name = 'fcsync'`)
		if err != nil {
			log.Fatalf("Error updating db_version table: %v", err)
		}
	}
}
