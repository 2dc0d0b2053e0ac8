package graph

import (
	"context"
	"fmt"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// Attachment is a blob owned by a note.
type Attachment struct {
	graph *Graph

	AttachmentID    string
	OwnerID         string
	Role            string
	Mime            string
	Title           string
	BlobID          string
	Position        int
	UTCDateModified string
}

func newAttachment(g *Graph, row models.AttachmentRow) *Attachment {
	return &Attachment{
		graph:           g,
		AttachmentID:    row.AttachmentID,
		OwnerID:         row.OwnerID,
		Role:            row.Role,
		Mime:            row.Mime,
		Title:           row.Title,
		BlobID:          row.BlobID,
		Position:        row.Position,
		UTCDateModified: row.UTCDateModified,
	}
}

func (a *Attachment) EntityKind() EntityKind { return KindAttachment }
func (a *Attachment) EntityID() string       { return a.AttachmentID }

// Note returns the owner note.
func (a *Attachment) Note() *Note {
	return a.graph.notes[a.OwnerID]
}

// HasStringContent reports whether the attachment mime denotes text.
func (a *Attachment) HasStringContent() bool {
	return IsStringContent("", a.Mime)
}

// Content reads the attachment blob. See Note.Content for the silent flag.
// Attachments of a protected note are as restricted as its own content.
func (a *Attachment) Content(ctx context.Context, silent bool) ([]byte, error) {
	if owner := a.Note(); owner != nil && owner.IsProtected {
		return nil, fmt.Errorf("attachment %s of note %s: %w", a.AttachmentID, a.OwnerID, apperr.ErrProtected)
	}
	return a.graph.readBlob(ctx, "attachment", a.AttachmentID, a.BlobID, a.HasStringContent(), silent)
}

// AttachmentPojo is the JSON shape of an attachment.
type AttachmentPojo struct {
	AttachmentID string `json:"attachment_id"`
	OwnerID      string `json:"owner_id"`
	Role         string `json:"role"`
	Mime         string `json:"mime"`
	Title        string `json:"title"`
	Position     int    `json:"position"`
	BlobID       string `json:"blob_id"`
}

func (a *Attachment) Pojo() AttachmentPojo {
	return AttachmentPojo{
		AttachmentID: a.AttachmentID,
		OwnerID:      a.OwnerID,
		Role:         a.Role,
		Mime:         a.Mime,
		Title:        a.Title,
		Position:     a.Position,
		BlobID:       a.BlobID,
	}
}
