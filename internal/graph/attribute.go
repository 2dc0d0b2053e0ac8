package graph

import (
	"fmt"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/models"
)

// Attribute names with structural meaning.
const (
	RelationTemplate = "template"
	RelationInherit  = "inherit"
	RelationImage    = "imageLink"

	LabelShareAlias       = "shareAlias"
	LabelShareRoot        = "shareRoot"
	LabelShareIndex       = "shareIndex"
	LabelShareCredentials = "shareCredentials"
	LabelShareHidden      = "shareHiddenFromTree"
	LabelArchived         = "archived"
)

// Attribute is a label or a relation owned by a note.
type Attribute struct {
	graph *Graph

	AttributeID     string
	NoteID          string
	Type            string
	Name            string
	Value           string
	IsInheritable   bool
	Position        int
	UTCDateModified string
}

func newAttribute(g *Graph, row models.AttributeRow) *Attribute {
	return &Attribute{
		graph:           g,
		AttributeID:     row.AttributeID,
		NoteID:          row.NoteID,
		Type:            row.Type,
		Name:            row.Name,
		Value:           row.Value,
		IsInheritable:   row.IsInheritable,
		Position:        row.Position,
		UTCDateModified: row.UTCDateModified,
	}
}

func (a *Attribute) EntityKind() EntityKind { return KindAttribute }
func (a *Attribute) EntityID() string       { return a.AttributeID }

func (a *Attribute) IsLabel() bool    { return a.Type == models.AttributeLabel }
func (a *Attribute) IsRelation() bool { return a.Type == models.AttributeRelation }

// IsTemplateLink reports whether the attribute is a template or inherit relation.
func (a *Attribute) IsTemplateLink() bool {
	return a.IsRelation() && (a.Name == RelationTemplate || a.Name == RelationInherit)
}

// IsAffectingSubtree reports whether changing the attribute can change the
// resolved attributes of notes other than its owner.
func (a *Attribute) IsAffectingSubtree() bool {
	return a.IsInheritable || a.IsTemplateLink()
}

// Note returns the owning note.
func (a *Attribute) Note() *Note {
	return a.graph.notes[a.NoteID]
}

// TargetNote returns the relation target, or nil for labels and for targets
// outside the loaded subtree.
func (a *Attribute) TargetNote() *Note {
	if !a.IsRelation() {
		return nil
	}
	return a.graph.Note(a.Value)
}

// Target is the strict form of TargetNote: it fails on labels.
func (a *Attribute) Target() (*Note, error) {
	if !a.IsRelation() {
		return nil, fmt.Errorf("attribute %s (%s %q): %w", a.AttributeID, a.Type, a.Name, apperr.ErrNotRelation)
	}
	return a.graph.Note(a.Value), nil
}

// AttributePojo is the JSON shape of an attribute.
type AttributePojo struct {
	AttributeID   string `json:"attribute_id"`
	NoteID        string `json:"note_id"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	Value         string `json:"value"`
	Position      int    `json:"position"`
	IsInheritable bool   `json:"is_inheritable"`
}

func (a *Attribute) Pojo() AttributePojo {
	return AttributePojo{
		AttributeID:   a.AttributeID,
		NoteID:        a.NoteID,
		Type:          a.Type,
		Name:          a.Name,
		Value:         a.Value,
		Position:      a.Position,
		IsInheritable: a.IsInheritable,
	}
}
