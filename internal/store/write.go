package store

import (
	"context"
	"fmt"

	"github.com/starford/notegraph/internal/events"
	"github.com/starford/notegraph/internal/models"
)

// Entity table names accepted by MarkDeleted.
const (
	TableNotes       = "notes"
	TableBranches    = "branches"
	TableAttributes  = "attributes"
	TableAttachments = "attachments"
)

var primaryKeys = map[string]string{
	TableNotes:       "noteId",
	TableBranches:    "branchId",
	TableAttributes:  "attributeId",
	TableAttachments: "attachmentId",
}

// PutNote inserts or replaces a note row and clears its deleted flag.
func (db *DB) PutNote(ctx context.Context, n models.NoteRow) error {
	_, err := db.conn.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO notes (noteId, title, type, mime, blobId, isProtected, isDeleted, utcDateModified)
		VALUES (%s, 0, %s)
		ON CONFLICT(noteId) DO UPDATE SET
			title           = excluded.title,
			type            = excluded.type,
			mime            = excluded.mime,
			blobId          = excluded.blobId,
			isProtected     = excluded.isProtected,
			isDeleted       = 0,
			utcDateModified = excluded.utcDateModified
	`, db.placeholders(1, 6), db.ph(7)),
		n.NoteID, n.Title, n.Type, n.Mime, n.BlobID, boolInt(n.IsProtected), n.UTCDateModified)
	if err != nil {
		return fmt.Errorf("store: put note: %w", err)
	}
	db.publish(events.EntityChanged, TableNotes, n.NoteID)
	return nil
}

// PutBranch inserts or replaces a branch row.
func (db *DB) PutBranch(ctx context.Context, b models.BranchRow) error {
	_, err := db.conn.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO branches (branchId, noteId, parentNoteId, notePosition, prefix, isExpanded, isDeleted, utcDateModified)
		VALUES (%s, 0, %s)
		ON CONFLICT(branchId) DO UPDATE SET
			noteId          = excluded.noteId,
			parentNoteId    = excluded.parentNoteId,
			notePosition    = excluded.notePosition,
			prefix          = excluded.prefix,
			isExpanded      = excluded.isExpanded,
			isDeleted       = 0,
			utcDateModified = excluded.utcDateModified
	`, db.placeholders(1, 6), db.ph(7)),
		b.BranchID, b.NoteID, b.ParentNoteID, b.NotePosition, b.Prefix, boolInt(b.IsExpanded), b.UTCDateModified)
	if err != nil {
		return fmt.Errorf("store: put branch: %w", err)
	}
	db.publish(events.EntityChanged, TableBranches, b.BranchID)
	return nil
}

// PutAttribute inserts or replaces an attribute row.
func (db *DB) PutAttribute(ctx context.Context, a models.AttributeRow) error {
	_, err := db.conn.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO attributes (attributeId, noteId, type, name, value, position, isInheritable, isDeleted, utcDateModified)
		VALUES (%s, 0, %s)
		ON CONFLICT(attributeId) DO UPDATE SET
			noteId          = excluded.noteId,
			type            = excluded.type,
			name            = excluded.name,
			value           = excluded.value,
			position        = excluded.position,
			isInheritable   = excluded.isInheritable,
			isDeleted       = 0,
			utcDateModified = excluded.utcDateModified
	`, db.placeholders(1, 7), db.ph(8)),
		a.AttributeID, a.NoteID, a.Type, a.Name, a.Value, a.Position, boolInt(a.IsInheritable), a.UTCDateModified)
	if err != nil {
		return fmt.Errorf("store: put attribute: %w", err)
	}
	db.publish(events.EntityChanged, TableAttributes, a.AttributeID)
	return nil
}

// PutAttachment inserts or replaces an attachment row.
func (db *DB) PutAttachment(ctx context.Context, a models.AttachmentRow) error {
	_, err := db.conn.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO attachments (attachmentId, ownerId, role, mime, title, blobId, position, isDeleted, utcDateModified)
		VALUES (%s, 0, %s)
		ON CONFLICT(attachmentId) DO UPDATE SET
			ownerId         = excluded.ownerId,
			role            = excluded.role,
			mime            = excluded.mime,
			title           = excluded.title,
			blobId          = excluded.blobId,
			position        = excluded.position,
			isDeleted       = 0,
			utcDateModified = excluded.utcDateModified
	`, db.placeholders(1, 7), db.ph(8)),
		a.AttachmentID, a.OwnerID, a.Role, a.Mime, a.Title, a.BlobID, a.Position, a.UTCDateModified)
	if err != nil {
		return fmt.Errorf("store: put attachment: %w", err)
	}
	db.publish(events.EntityChanged, TableAttachments, a.AttachmentID)
	return nil
}

// PutBlob inserts or replaces blob content.
func (db *DB) PutBlob(ctx context.Context, blobID string, content []byte, utcDateModified string) error {
	_, err := db.conn.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO blobs (blobId, content, utcDateModified)
		VALUES (%s)
		ON CONFLICT(blobId) DO UPDATE SET
			content         = excluded.content,
			utcDateModified = excluded.utcDateModified
	`, db.placeholders(1, 3)), blobID, content, utcDateModified)
	if err != nil {
		return fmt.Errorf("store: put blob: %w", err)
	}
	db.publish(events.EntityChanged, "blobs", blobID)
	return nil
}

// MarkDeleted soft-deletes the row id in table (one of the Table* constants).
func (db *DB) MarkDeleted(ctx context.Context, table, id string) error {
	pk, ok := primaryKeys[table]
	if !ok {
		return fmt.Errorf("store: mark deleted: unknown table %q", table)
	}
	_, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET isDeleted = 1 WHERE %s = %s`, table, pk, db.ph(1)), id)
	if err != nil {
		return fmt.Errorf("store: mark deleted: %w", err)
	}
	db.publish(events.EntityDeleted, table, id)
	return nil
}

func (db *DB) publish(kind events.Kind, entityName, entityID string) {
	if db.bus == nil {
		return
	}
	db.bus.Publish(events.Event{Kind: kind, EntityName: entityName, EntityID: entityID})
}
