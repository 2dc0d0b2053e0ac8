package graph

import (
	"context"
	"fmt"

	"github.com/starford/notegraph/internal/models"
)

// RowSource is the read side of the row store used by the loader.
type RowSource interface {
	SubtreeNoteIDs(ctx context.Context, rootID string) ([]string, error)
	Notes(ctx context.Context, noteIDs []string) ([]models.NoteRow, error)
	Branches(ctx context.Context, parentNoteIDs []string) ([]models.BranchRow, error)
	Attributes(ctx context.Context, noteIDs []string) ([]models.AttributeRow, error)
	Attachments(ctx context.Context, ownerIDs []string) ([]models.AttachmentRow, error)
}

// Source is what a Cache loads from.
type Source interface {
	RowSource
	BlobSource
}

// LoadRows reads every non-deleted row of the subtree under rootID. An empty
// closure yields empty Rows and no error.
func LoadRows(ctx context.Context, src RowSource, rootID string) (models.Rows, error) {
	var rows models.Rows

	ids, err := src.SubtreeNoteIDs(ctx, rootID)
	if err != nil {
		return rows, fmt.Errorf("subtree of %q: %w", rootID, err)
	}
	if len(ids) == 0 {
		return rows, nil
	}

	if rows.Notes, err = src.Notes(ctx, ids); err != nil {
		return rows, err
	}
	if rows.Branches, err = src.Branches(ctx, ids); err != nil {
		return rows, err
	}
	if rows.Attributes, err = src.Attributes(ctx, ids); err != nil {
		return rows, err
	}
	if rows.Attachments, err = src.Attachments(ctx, ids); err != nil {
		return rows, err
	}
	return rows, nil
}
