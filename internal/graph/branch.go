package graph

import "github.com/starford/notegraph/internal/models"

// Branch places a child note under a parent note.
type Branch struct {
	graph *Graph

	BranchID        string
	NoteID          string
	ParentNoteID    string
	Prefix          string
	NotePosition    int
	IsExpanded      bool
	UTCDateModified string

	// IsHidden is set when the parent renders the child inline through an
	// imageLink relation, so it should not appear again as a tree entry.
	IsHidden bool
}

func newBranch(g *Graph, row models.BranchRow) *Branch {
	return &Branch{
		graph:           g,
		BranchID:        row.BranchID,
		NoteID:          row.NoteID,
		ParentNoteID:    row.ParentNoteID,
		Prefix:          row.Prefix,
		NotePosition:    row.NotePosition,
		IsExpanded:      row.IsExpanded,
		UTCDateModified: row.UTCDateModified,
	}
}

func (b *Branch) EntityKind() EntityKind { return KindBranch }
func (b *Branch) EntityID() string       { return b.BranchID }

// ChildNote returns the note placed by this branch. It may be a skeleton if
// the child's row was not loaded.
func (b *Branch) ChildNote() *Note {
	return b.graph.notes[b.NoteID]
}

// ParentNote returns the parent note. It may be a skeleton.
func (b *Branch) ParentNote() *Note {
	return b.graph.notes[b.ParentNoteID]
}

// BranchPojo is the JSON shape of a branch.
type BranchPojo struct {
	BranchID     string `json:"branch_id"`
	NoteID       string `json:"note_id"`
	ParentNoteID string `json:"parent_note_id"`
	Prefix       string `json:"prefix,omitempty"`
	NotePosition int    `json:"note_position"`
	IsExpanded   bool   `json:"is_expanded"`
	IsHidden     bool   `json:"is_hidden"`
}

// Pojo returns the serializable form of the branch.
func (b *Branch) Pojo() BranchPojo {
	return BranchPojo{
		BranchID:     b.BranchID,
		NoteID:       b.NoteID,
		ParentNoteID: b.ParentNoteID,
		Prefix:       b.Prefix,
		NotePosition: b.NotePosition,
		IsExpanded:   b.IsExpanded,
		IsHidden:     b.IsHidden,
	}
}
