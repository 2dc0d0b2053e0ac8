package store

import "fmt"

// Booleans are stored as 0/1 integers on both drivers so scanning is uniform.
var coreSchema = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		noteId          TEXT PRIMARY KEY,
		title           TEXT NOT NULL DEFAULT '',
		type            TEXT NOT NULL DEFAULT 'text',
		mime            TEXT NOT NULL DEFAULT 'text/html',
		blobId          TEXT NOT NULL DEFAULT '',
		isProtected     INTEGER NOT NULL DEFAULT 0,
		isDeleted       INTEGER NOT NULL DEFAULT 0,
		utcDateModified TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS branches (
		branchId        TEXT PRIMARY KEY,
		noteId          TEXT NOT NULL,
		parentNoteId    TEXT NOT NULL,
		notePosition    INTEGER NOT NULL DEFAULT 0,
		prefix          TEXT NOT NULL DEFAULT '',
		isExpanded      INTEGER NOT NULL DEFAULT 0,
		isDeleted       INTEGER NOT NULL DEFAULT 0,
		utcDateModified TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS attributes (
		attributeId     TEXT PRIMARY KEY,
		noteId          TEXT NOT NULL,
		type            TEXT NOT NULL,
		name            TEXT NOT NULL,
		value           TEXT NOT NULL DEFAULT '',
		position        INTEGER NOT NULL DEFAULT 0,
		isInheritable   INTEGER NOT NULL DEFAULT 0,
		isDeleted       INTEGER NOT NULL DEFAULT 0,
		utcDateModified TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS attachments (
		attachmentId    TEXT PRIMARY KEY,
		ownerId         TEXT NOT NULL,
		role            TEXT NOT NULL DEFAULT 'file',
		mime            TEXT NOT NULL DEFAULT '',
		title           TEXT NOT NULL DEFAULT '',
		blobId          TEXT NOT NULL DEFAULT '',
		position        INTEGER NOT NULL DEFAULT 0,
		isDeleted       INTEGER NOT NULL DEFAULT 0,
		utcDateModified TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_branches_parent ON branches(parentNoteId)`,
	`CREATE INDEX IF NOT EXISTS idx_branches_note ON branches(noteId)`,
	`CREATE INDEX IF NOT EXISTS idx_attributes_note ON attributes(noteId)`,
	`CREATE INDEX IF NOT EXISTS idx_attachments_owner ON attachments(ownerId)`,
}

func (db *DB) blobSchema() string {
	contentType := "BLOB"
	if db.driver == DriverPostgres {
		contentType = "BYTEA"
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS blobs (
		blobId          TEXT PRIMARY KEY,
		content         %s,
		utcDateModified TEXT NOT NULL DEFAULT ''
	)`, contentType)
}

// applySchema runs each statement separately; pgx rejects multi-statement
// strings on the extended protocol.
func (db *DB) applySchema() error {
	stmts := append(append([]string{}, coreSchema...), db.blobSchema())
	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
