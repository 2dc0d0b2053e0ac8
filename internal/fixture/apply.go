package fixture

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/storage"
)

// Note defaults applied when a fixture leaves them out.
const (
	DefaultNoteType       = "text"
	DefaultNoteMime       = "text/html"
	DefaultAttachmentRole = "file"
	DefaultAttachmentMime = "application/octet-stream"
)

// Writer is the subset of store.DB the seeder needs.
type Writer interface {
	PutNote(ctx context.Context, n models.NoteRow) error
	PutBranch(ctx context.Context, b models.BranchRow) error
	PutAttribute(ctx context.Context, a models.AttributeRow) error
	PutAttachment(ctx context.Context, a models.AttachmentRow) error
	PutBlob(ctx context.Context, blobID string, content []byte, utcDateModified string) error
}

// Stats counts the rows written by Apply.
type Stats struct {
	Notes       int
	Branches    int
	Attributes  int
	Attachments int
}

// BranchID is the id Apply gives the branch placing child under parent.
func BranchID(parentID, childID string) string {
	return parentID + "_" + childID
}

// BlobID is the id Apply gives the content blob of a note or attachment.
func BlobID(id string) string {
	return "blob-" + id
}

type applier struct {
	w     Writer
	files storage.Provider
	now   string
	stats Stats
}

// Apply writes doc through w. Ids are derived from the fixture so applying
// the same document twice updates rows in place. files resolves content_file
// references and may be nil when none are used.
func Apply(ctx context.Context, w Writer, doc *Document, files storage.Provider) (Stats, error) {
	a := &applier{
		w:     w,
		files: files,
		now:   time.Now().UTC().Format("2006-01-02 15:04:05.000Z"),
	}
	if err := a.notes(ctx, doc.Root, doc.Notes); err != nil {
		return a.stats, err
	}
	return a.stats, nil
}

func (a *applier) notes(ctx context.Context, parentID string, list []Note) error {
	for i := range list {
		if err := a.note(ctx, parentID, (i+1)*10, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) note(ctx context.Context, parentID string, position int, n *Note) error {
	content, err := a.content(n.Content, n.ContentFile)
	if err != nil {
		return fmt.Errorf("fixture: note %s: %w", n.ID, err)
	}
	if err := a.w.PutBlob(ctx, BlobID(n.ID), content, a.now); err != nil {
		return err
	}
	if err := a.w.PutNote(ctx, models.NoteRow{
		NoteID:          n.ID,
		Title:           n.Title,
		Type:            orDefault(n.Type, DefaultNoteType),
		Mime:            orDefault(n.Mime, DefaultNoteMime),
		BlobID:          BlobID(n.ID),
		IsProtected:     n.Protected,
		UTCDateModified: a.now,
	}); err != nil {
		return err
	}
	a.stats.Notes++

	if parentID != "" {
		if err := a.branch(ctx, parentID, position, n); err != nil {
			return err
		}
	}
	for _, extra := range n.AlsoUnder {
		if err := a.branch(ctx, extra, position, n); err != nil {
			return err
		}
	}

	pos := 0
	for i, l := range n.Labels {
		pos += 10
		if err := a.attribute(ctx, n.ID+"-l"+strconv.Itoa(i), n.ID, models.AttributeLabel, l.Name, l.Value, l.Inheritable, pos); err != nil {
			return err
		}
	}
	for i, r := range n.Relations {
		pos += 10
		if err := a.attribute(ctx, n.ID+"-r"+strconv.Itoa(i), n.ID, models.AttributeRelation, r.Name, r.Target, r.Inheritable, pos); err != nil {
			return err
		}
	}

	for i, att := range n.Attachments {
		if err := a.attachment(ctx, n.ID, (i+1)*10, att); err != nil {
			return err
		}
	}
	return a.notes(ctx, n.ID, n.Children)
}

func (a *applier) branch(ctx context.Context, parentID string, position int, n *Note) error {
	err := a.w.PutBranch(ctx, models.BranchRow{
		BranchID:        BranchID(parentID, n.ID),
		NoteID:          n.ID,
		ParentNoteID:    parentID,
		Prefix:          n.Prefix,
		NotePosition:    position,
		IsExpanded:      n.Expanded,
		UTCDateModified: a.now,
	})
	if err == nil {
		a.stats.Branches++
	}
	return err
}

func (a *applier) attribute(ctx context.Context, id, noteID, typ, name, value string, inheritable bool, position int) error {
	err := a.w.PutAttribute(ctx, models.AttributeRow{
		AttributeID:     id,
		NoteID:          noteID,
		Type:            typ,
		Name:            name,
		Value:           value,
		IsInheritable:   inheritable,
		Position:        position,
		UTCDateModified: a.now,
	})
	if err == nil {
		a.stats.Attributes++
	}
	return err
}

func (a *applier) attachment(ctx context.Context, ownerID string, position int, att Attachment) error {
	content, err := a.content(att.Content, att.ContentFile)
	if err != nil {
		return fmt.Errorf("fixture: attachment %s: %w", att.ID, err)
	}
	if err := a.w.PutBlob(ctx, BlobID(att.ID), content, a.now); err != nil {
		return err
	}
	err = a.w.PutAttachment(ctx, models.AttachmentRow{
		AttachmentID:    att.ID,
		OwnerID:         ownerID,
		Role:            orDefault(att.Role, DefaultAttachmentRole),
		Mime:            orDefault(att.Mime, DefaultAttachmentMime),
		Title:           att.Title,
		BlobID:          BlobID(att.ID),
		Position:        position,
		UTCDateModified: a.now,
	})
	if err == nil {
		a.stats.Attachments++
	}
	return err
}

func (a *applier) content(inline, file string) ([]byte, error) {
	if file == "" {
		return []byte(inline), nil
	}
	if a.files == nil {
		return nil, fmt.Errorf("content_file %q given but no file provider", file)
	}
	return a.files.Read(file)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
