// Package graph holds the in-memory note graph of a shared subtree and
// resolves effective attributes through parents and templates.
package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/starford/notegraph/internal/apperr"
)

type branchKey struct {
	childID  string
	parentID string
}

// Graph is one loaded snapshot. It is not modified after build, except for
// attribute memos which are filled under resolveMu.
type Graph struct {
	generation uint64
	rootID     string
	treeRootID string
	blobs      BlobSource
	logger     *slog.Logger

	notes               map[string]*Note
	branches            map[string]*Branch
	childParentToBranch map[branchKey]*Branch
	attributes          map[string]*Attribute
	attachments         map[string]*Attachment
	aliasToNote         map[string]*Note

	shareRoot    *Note
	indexEnabled bool

	resolveMu sync.Mutex
}

// Stats counts the entities of a graph. Skeletons counts notes referenced
// by a branch, attribute or attachment whose row was not loaded.
type Stats struct {
	Notes       int `json:"notes"`
	Skeletons   int `json:"skeletons"`
	Branches    int `json:"branches"`
	Attributes  int `json:"attributes"`
	Attachments int `json:"attachments"`
}

func (g *Graph) Generation() uint64 { return g.generation }

// RootID is the noteId the subtree was loaded from.
func (g *Graph) RootID() string { return g.rootID }

// Note returns a loaded note. Skeleton placeholders are not returned.
func (g *Graph) Note(noteID string) *Note {
	n, ok := g.notes[noteID]
	if !ok || n.skeleton {
		return nil
	}
	return n
}

// Notes returns the notes in the order of ids. Unless ignoreMissing is set, the
// first absent id fails the call with apperr.ErrNotFound.
func (g *Graph) Notes(noteIDs []string, ignoreMissing bool) ([]*Note, error) {
	out := make([]*Note, 0, len(noteIDs))
	for _, id := range noteIDs {
		n := g.Note(id)
		if n == nil {
			if ignoreMissing {
				continue
			}
			return nil, fmt.Errorf("note %q: %w", id, apperr.ErrNotFound)
		}
		out = append(out, n)
	}
	return out, nil
}

func (g *Graph) Branch(branchID string) *Branch { return g.branches[branchID] }

func (g *Graph) BranchFromChildAndParent(childNoteID, parentNoteID string) *Branch {
	return g.childParentToBranch[branchKey{childID: childNoteID, parentID: parentNoteID}]
}

func (g *Graph) Attribute(attributeID string) *Attribute { return g.attributes[attributeID] }

func (g *Graph) Attachment(attachmentID string) *Attachment { return g.attachments[attachmentID] }

// Entity looks an id up in the map for kind.
func (g *Graph) Entity(kind EntityKind, id string) (Entity, error) {
	var e Entity
	switch kind {
	case KindNote:
		if n := g.Note(id); n != nil {
			e = n
		}
	case KindBranch:
		if b := g.Branch(id); b != nil {
			e = b
		}
	case KindAttribute:
		if a := g.Attribute(id); a != nil {
			e = a
		}
	case KindAttachment:
		if a := g.Attachment(id); a != nil {
			e = a
		}
	default:
		return nil, fmt.Errorf("%w: %s", apperr.ErrUnknownKind, kind)
	}
	if e == nil {
		return nil, fmt.Errorf("%s %q: %w", kind, id, apperr.ErrNotFound)
	}
	return e, nil
}

// NoteByAlias finds the note carrying the shareAlias label value alias.
func (g *Graph) NoteByAlias(alias string) *Note { return g.aliasToNote[alias] }

// ShareRoot is the note labelled shareRoot, if any.
func (g *Graph) ShareRoot() *Note { return g.shareRoot }

// IndexEnabled reports whether some note carries the shareIndex label.
func (g *Graph) IndexEnabled() bool { return g.indexEnabled }

// IDs returns the sorted ids of all entities of kind. Skeleton notes are
// excluded.
func (g *Graph) IDs(kind EntityKind) []string {
	var ids []string
	switch kind {
	case KindNote:
		for id, n := range g.notes {
			if !n.skeleton {
				ids = append(ids, id)
			}
		}
	case KindBranch:
		ids = keys(g.branches)
	case KindAttribute:
		ids = keys(g.attributes)
	case KindAttachment:
		ids = keys(g.attachments)
	}
	sort.Strings(ids)
	return ids
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (g *Graph) Stats() Stats {
	s := Stats{
		Branches:    len(g.branches),
		Attributes:  len(g.attributes),
		Attachments: len(g.attachments),
	}
	for _, n := range g.notes {
		if n.skeleton {
			s.Skeletons++
		} else {
			s.Notes++
		}
	}
	return s
}
