// Package models defines the raw row types shared by the store and the graph cache.
package models

// Attribute types.
const (
	AttributeLabel    = "label"
	AttributeRelation = "relation"
)

// NoteRow is a non-deleted row of the notes table.
type NoteRow struct {
	NoteID          string
	Title           string
	Type            string
	Mime            string
	BlobID          string
	UTCDateModified string
	IsProtected     bool
}

// BranchRow links a child note to a parent note.
type BranchRow struct {
	BranchID        string
	NoteID          string
	ParentNoteID    string
	Prefix          string
	NotePosition    int
	IsExpanded      bool
	UTCDateModified string
}

// AttributeRow is a label or relation owned by a note.
// For relations Value holds the target noteId.
type AttributeRow struct {
	AttributeID     string
	NoteID          string
	Type            string
	Name            string
	Value           string
	IsInheritable   bool
	Position        int
	UTCDateModified string
}

// AttachmentRow is a blob attached to an owner note.
type AttachmentRow struct {
	AttachmentID    string
	OwnerID         string
	Role            string
	Mime            string
	Title           string
	BlobID          string
	Position        int
	UTCDateModified string
}

// Rows is the full result of one loader pass.
type Rows struct {
	Notes       []NoteRow
	Branches    []BranchRow
	Attributes  []AttributeRow
	Attachments []AttachmentRow
}
