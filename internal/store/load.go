package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/starford/notegraph/internal/models"
)

// SubtreeNoteIDs returns rootID plus every note reachable from it through
// non-deleted parent→child branches. The root is included even when it has
// no children or no note row.
func (db *DB) SubtreeNoteIDs(ctx context.Context, rootID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		WITH RECURSIVE tree(noteId) AS (
			SELECT CAST(%s AS TEXT)
			UNION
			SELECT branches.noteId
			FROM branches
			JOIN tree ON branches.parentNoteId = tree.noteId
			WHERE branches.isDeleted = 0
		)
		SELECT noteId FROM tree
	`, db.ph(1)), rootID)
	if err != nil {
		return nil, fmt.Errorf("store: subtree: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Notes returns the non-deleted note rows among noteIDs.
func (db *DB) Notes(ctx context.Context, noteIDs []string) ([]models.NoteRow, error) {
	var out []models.NoteRow
	for _, chunk := range chunks(noteIDs, db.chunkSize) {
		rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
			SELECT noteId, title, type, mime, blobId, utcDateModified, isProtected
			FROM notes
			WHERE isDeleted = 0 AND noteId IN (%s)
		`, db.placeholders(1, len(chunk))), toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("store: notes: %w", err)
		}
		err = scanAll(rows, func(rows *sql.Rows) error {
			var r models.NoteRow
			var protected int
			if err := rows.Scan(&r.NoteID, &r.Title, &r.Type, &r.Mime, &r.BlobID, &r.UTCDateModified, &protected); err != nil {
				return err
			}
			r.IsProtected = protected != 0
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("store: notes: %w", err)
		}
	}
	return out, nil
}

// Branches returns the non-deleted branches whose parent is among
// parentNoteIDs, ordered by notePosition.
func (db *DB) Branches(ctx context.Context, parentNoteIDs []string) ([]models.BranchRow, error) {
	var out []models.BranchRow
	for _, chunk := range chunks(parentNoteIDs, db.chunkSize) {
		rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
			SELECT branchId, noteId, parentNoteId, prefix, notePosition, isExpanded, utcDateModified
			FROM branches
			WHERE isDeleted = 0 AND parentNoteId IN (%s)
			ORDER BY notePosition, branchId
		`, db.placeholders(1, len(chunk))), toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("store: branches: %w", err)
		}
		err = scanAll(rows, func(rows *sql.Rows) error {
			var r models.BranchRow
			var expanded int
			if err := rows.Scan(&r.BranchID, &r.NoteID, &r.ParentNoteID, &r.Prefix, &r.NotePosition, &expanded, &r.UTCDateModified); err != nil {
				return err
			}
			r.IsExpanded = expanded != 0
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("store: branches: %w", err)
		}
	}
	// Chunks are ordered individually; restore the global order.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NotePosition != out[j].NotePosition {
			return out[i].NotePosition < out[j].NotePosition
		}
		return out[i].BranchID < out[j].BranchID
	})
	return out, nil
}

// Attributes returns the non-deleted attributes owned by noteIDs, ordered by position.
func (db *DB) Attributes(ctx context.Context, noteIDs []string) ([]models.AttributeRow, error) {
	var out []models.AttributeRow
	for _, chunk := range chunks(noteIDs, db.chunkSize) {
		rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
			SELECT attributeId, noteId, type, name, value, isInheritable, position, utcDateModified
			FROM attributes
			WHERE isDeleted = 0 AND noteId IN (%s)
			ORDER BY position, attributeId
		`, db.placeholders(1, len(chunk))), toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("store: attributes: %w", err)
		}
		err = scanAll(rows, func(rows *sql.Rows) error {
			var r models.AttributeRow
			var inheritable int
			if err := rows.Scan(&r.AttributeID, &r.NoteID, &r.Type, &r.Name, &r.Value, &inheritable, &r.Position, &r.UTCDateModified); err != nil {
				return err
			}
			r.IsInheritable = inheritable != 0
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("store: attributes: %w", err)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].AttributeID < out[j].AttributeID
	})
	return out, nil
}

// Attachments returns the non-deleted attachments owned by ownerIDs, sorted
// by position after the fetch.
func (db *DB) Attachments(ctx context.Context, ownerIDs []string) ([]models.AttachmentRow, error) {
	var out []models.AttachmentRow
	for _, chunk := range chunks(ownerIDs, db.chunkSize) {
		rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
			SELECT attachmentId, ownerId, role, mime, title, blobId, position, utcDateModified
			FROM attachments
			WHERE isDeleted = 0 AND ownerId IN (%s)
		`, db.placeholders(1, len(chunk))), toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("store: attachments: %w", err)
		}
		err = scanAll(rows, func(rows *sql.Rows) error {
			var r models.AttachmentRow
			if err := rows.Scan(&r.AttachmentID, &r.OwnerID, &r.Role, &r.Mime, &r.Title, &r.BlobID, &r.Position, &r.UTCDateModified); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("store: attachments: %w", err)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].AttachmentID < out[j].AttachmentID
	})
	return out, nil
}

// Blob returns the content of blobID. ok is false when no such blob exists.
func (db *DB) Blob(ctx context.Context, blobID string) (content []byte, ok bool, err error) {
	err = db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT content FROM blobs WHERE blobId = %s`, db.ph(1)), blobID,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: blob: %w", err)
	}
	return content, true, nil
}

func scanAll(rows *sql.Rows, fn func(*sql.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
