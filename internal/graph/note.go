package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// ProtectedTitle replaces the title of protected notes.
const ProtectedTitle = "[protected]"

// Note is a node of the graph. Exported fields mirror the note row; the link
// accessors return slices owned by the graph which must not be modified.
type Note struct {
	graph *Graph

	NoteID          string
	Title           string
	Type            string
	Mime            string
	BlobID          string
	UTCDateModified string
	IsProtected     bool

	// skeleton is true until the note's own row has been applied.
	skeleton bool

	parentBranches  []*Branch
	parents         []*Note
	children        []*Note
	ownedAttributes []*Attribute
	targetRelations []*Attribute
	attachments     []*Attachment

	memo atomic.Pointer[attributeMemo]
}

func (n *Note) fill(row models.NoteRow) {
	n.skeleton = false
	n.Title = row.Title
	n.Type = row.Type
	n.Mime = row.Mime
	n.BlobID = row.BlobID
	n.UTCDateModified = row.UTCDateModified
	n.IsProtected = row.IsProtected
	if n.IsProtected {
		n.Title = ProtectedTitle
	}
}

// IsSkeleton reports whether the note is only a placeholder for an id
// referenced by a loaded row.
func (n *Note) IsSkeleton() bool { return n.skeleton }

func (n *Note) EntityKind() EntityKind { return KindNote }
func (n *Note) EntityID() string       { return n.NoteID }

func (n *Note) ParentBranches() []*Branch { return n.parentBranches }
func (n *Note) ParentNotes() []*Note      { return n.parents }
func (n *Note) ChildNotes() []*Note       { return n.children }
func (n *Note) HasChildren() bool         { return len(n.children) > 0 }

// TargetRelations returns the relations in the graph pointing at this note.
func (n *Note) TargetRelations() []*Attribute { return n.targetRelations }

// Attachments are ordered by position.
func (n *Note) Attachments() []*Attachment { return n.attachments }

func (n *Note) AttachmentByTitle(title string) *Attachment {
	for _, a := range n.attachments {
		if a.Title == title {
			return a
		}
	}
	return nil
}

// ChildBranches returns the branches to the note's children in child order.
func (n *Note) ChildBranches() []*Branch {
	out := make([]*Branch, 0, len(n.children))
	for _, child := range n.children {
		if b := n.graph.BranchFromChildAndParent(child.NoteID, n.NoteID); b != nil {
			out = append(out, b)
		}
	}
	return out
}

// VisibleChildBranches skips imageLink-hidden branches and children labelled
// shareHiddenFromTree.
func (n *Note) VisibleChildBranches() []*Branch {
	var out []*Branch
	for _, b := range n.ChildBranches() {
		if b.IsHidden {
			continue
		}
		if child := b.ChildNote(); child != nil && child.IsLabelTruthy(LabelShareHidden) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func (n *Note) VisibleChildNotes() []*Note {
	branches := n.VisibleChildBranches()
	out := make([]*Note, 0, len(branches))
	for _, b := range branches {
		out = append(out, b.ChildNote())
	}
	return out
}

func (n *Note) HasVisibleChildren() bool {
	return len(n.VisibleChildBranches()) > 0
}

// HasStringContent reports whether the note's content is text.
func (n *Note) HasStringContent() bool {
	return IsStringContent(n.Type, n.Mime)
}

// Content reads the note blob. A missing blob is an apperr.ErrNotFound error
// unless silent is set, in which case Content returns (nil, nil).
func (n *Note) Content(ctx context.Context, silent bool) ([]byte, error) {
	if n.IsProtected {
		return nil, fmt.Errorf("note %s: %w", n.NoteID, apperr.ErrProtected)
	}
	return n.graph.readBlob(ctx, "note", n.NoteID, n.BlobID, n.HasStringContent(), silent)
}

// JSONContent decodes the note content as JSON. Blank content yields nil.
func (n *Note) JSONContent(ctx context.Context) (any, error) {
	content, err := n.Content(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("note %s: decode json content: %w", n.NoteID, err)
	}
	return v, nil
}

// JSONContentSafely is JSONContent with all errors mapped to nil.
func (n *Note) JSONContentSafely(ctx context.Context) any {
	v, err := n.JSONContent(ctx)
	if err != nil {
		return nil
	}
	return v
}

// NotePojo is the JSON shape of a note.
type NotePojo struct {
	NoteID          string           `json:"note_id"`
	Title           string           `json:"title"`
	Type            string           `json:"type"`
	Mime            string           `json:"mime"`
	UTCDateModified string           `json:"utc_date_modified"`
	Attributes      []AttributePojo  `json:"attributes"`
	Attachments     []AttachmentPojo `json:"attachments"`
	ParentNoteIDs   []string         `json:"parent_note_ids"`
	ChildNoteIDs    []string         `json:"child_note_ids"`
}

// Pojo serializes the note. Only labels are included among the resolved
// attributes; relations point at notes the reader may not see.
func (n *Note) Pojo() NotePojo {
	p := NotePojo{
		NoteID:          n.NoteID,
		Title:           n.Title,
		Type:            n.Type,
		Mime:            n.Mime,
		UTCDateModified: n.UTCDateModified,
		Attributes:      []AttributePojo{},
		Attachments:     make([]AttachmentPojo, 0, len(n.attachments)),
		ParentNoteIDs:   make([]string, 0, len(n.parents)),
		ChildNoteIDs:    make([]string, 0, len(n.children)),
	}
	for _, a := range n.Labels("") {
		p.Attributes = append(p.Attributes, a.Pojo())
	}
	for _, a := range n.attachments {
		p.Attachments = append(p.Attachments, a.Pojo())
	}
	for _, parent := range n.parents {
		p.ParentNoteIDs = append(p.ParentNoteIDs, parent.NoteID)
	}
	for _, child := range n.children {
		p.ChildNoteIDs = append(p.ChildNoteIDs, child.NoteID)
	}
	return p
}
