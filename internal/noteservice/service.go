package noteservice

import (
	"context"
	"fmt"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/checksum"
	"github.com/starford/notegraph/internal/graph"
	"github.com/starford/notegraph/internal/models"
)

// NoteDetail is the full representation of a note with resolved attributes.
type NoteDetail struct {
	NoteID          string                 `json:"note_id"`
	ShareID         string                 `json:"share_id"`
	Title           string                 `json:"title"`
	Type            string                 `json:"type"`
	Mime            string                 `json:"mime"`
	IsProtected     bool                   `json:"is_protected"`
	IsArchived      bool                   `json:"is_archived"`
	UTCDateModified string                 `json:"utc_date_modified"`
	Attributes      []graph.AttributePojo  `json:"attributes"`
	Attachments     []graph.AttachmentPojo `json:"attachments"`
	ParentNoteIDs   []string               `json:"parent_note_ids"`
	Children        []ChildItem            `json:"children"`
}

// ChildItem is a visible child entry of a note.
type ChildItem struct {
	BranchID    string `json:"branch_id"`
	NoteID      string `json:"note_id"`
	ShareID     string `json:"share_id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Prefix      string `json:"prefix,omitempty"`
	Position    int    `json:"position"`
	HasChildren bool   `json:"has_children"`
}

// ShareInfo describes the shared subtree as a whole.
type ShareInfo struct {
	RootNoteID   string      `json:"root_note_id"`
	ShareID      string      `json:"share_id"`
	Title        string      `json:"title"`
	IndexEnabled bool        `json:"index_enabled"`
	Children     []ChildItem `json:"children"`
	Stats        graph.Stats `json:"stats"`
}

// Content is the body of a note or attachment.
type Content struct {
	Data     []byte
	Mime     string
	IsText   bool
	Checksum string
}

// Service answers read requests from the cached note graph.
type Service struct {
	cache *graph.Cache
}

// NewService creates a new note service.
func NewService(cache *graph.Cache) *Service {
	return &Service{cache: cache}
}

func (s *Service) graph(ctx context.Context) (*graph.Graph, error) {
	return s.cache.EnsureLoaded(ctx)
}

func (s *Service) note(ctx context.Context, noteID string) (*graph.Note, error) {
	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	n := g.Note(noteID)
	if n == nil {
		return nil, fmt.Errorf("note %q: %w", noteID, apperr.ErrNotFound)
	}
	return n, nil
}

// GetNote returns the note with its resolved attributes and visible children.
func (s *Service) GetNote(ctx context.Context, noteID string) (*NoteDetail, error) {
	n, err := s.note(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return buildNoteDetail(n), nil
}

// NoteByAlias resolves a shareAlias label value to its note.
func (s *Service) NoteByAlias(ctx context.Context, alias string) (*NoteDetail, error) {
	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	n := g.NoteByAlias(alias)
	if n == nil {
		return nil, fmt.Errorf("alias %q: %w", alias, apperr.ErrNotFound)
	}
	return buildNoteDetail(n), nil
}

// ShareRoot describes the note labelled shareRoot, falling back to the
// loaded subtree root.
func (s *Service) ShareRoot(ctx context.Context) (*ShareInfo, error) {
	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	root := g.ShareRoot()
	if root == nil {
		root = g.Note(g.RootID())
	}
	if root == nil {
		return nil, fmt.Errorf("share root: %w", apperr.ErrNotFound)
	}
	return &ShareInfo{
		RootNoteID:   root.NoteID,
		ShareID:      root.ShareID(),
		Title:        root.Title,
		IndexEnabled: g.IndexEnabled(),
		Children:     childItems(root),
		Stats:        g.Stats(),
	}, nil
}

// Attributes returns the resolved attributes of a note, optionally filtered.
func (s *Service) Attributes(ctx context.Context, noteID, typ, name string) ([]graph.AttributePojo, error) {
	switch typ {
	case "", models.AttributeLabel, models.AttributeRelation:
	default:
		return nil, fmt.Errorf("attribute type %q: %w", typ, apperr.ErrInvalidArgument)
	}
	n, err := s.note(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return attributePojos(n.Attributes(typ, name)), nil
}

// Children lists the visible children of a note in tree order.
func (s *Service) Children(ctx context.Context, noteID string) ([]ChildItem, error) {
	n, err := s.note(ctx, noteID)
	if err != nil {
		return nil, err
	}
	return childItems(n), nil
}

// Content reads the body of a note.
func (s *Service) Content(ctx context.Context, noteID string) (*Content, error) {
	n, err := s.note(ctx, noteID)
	if err != nil {
		return nil, err
	}
	data, err := n.Content(ctx, false)
	if err != nil {
		return nil, err
	}
	return &Content{Data: data, Mime: n.Mime, IsText: n.HasStringContent(), Checksum: checksum.Sum(data)}, nil
}

// Attachment returns attachment metadata.
func (s *Service) Attachment(ctx context.Context, attachmentID string) (*graph.AttachmentPojo, error) {
	a, err := s.attachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	p := a.Pojo()
	return &p, nil
}

// AttachmentContent reads the body of an attachment.
func (s *Service) AttachmentContent(ctx context.Context, attachmentID string) (*Content, error) {
	a, err := s.attachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	data, err := a.Content(ctx, false)
	if err != nil {
		return nil, err
	}
	return &Content{Data: data, Mime: a.Mime, IsText: a.HasStringContent(), Checksum: checksum.Sum(data)}, nil
}

func (s *Service) attachment(ctx context.Context, attachmentID string) (*graph.Attachment, error) {
	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	a := g.Attachment(attachmentID)
	if a == nil {
		return nil, fmt.Errorf("attachment %q: %w", attachmentID, apperr.ErrNotFound)
	}
	return a, nil
}

// Branch returns a branch by id.
func (s *Service) Branch(ctx context.Context, branchID string) (*graph.BranchPojo, error) {
	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	b := g.Branch(branchID)
	if b == nil {
		return nil, fmt.Errorf("branch %q: %w", branchID, apperr.ErrNotFound)
	}
	p := b.Pojo()
	return &p, nil
}

// Entity looks up any entity by kind name ("notes", "branches", ...) and id.
func (s *Service) Entity(ctx context.Context, kindName, id string) (any, error) {
	kind, err := graph.ParseEntityKind(kindName)
	if err != nil {
		return nil, err
	}
	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}
	e, err := g.Entity(kind, id)
	if err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case *graph.Note:
		return buildNoteDetail(v), nil
	case *graph.Branch:
		return v.Pojo(), nil
	case *graph.Attribute:
		return v.Pojo(), nil
	case *graph.Attachment:
		return v.Pojo(), nil
	}
	return nil, fmt.Errorf("%w: %s", apperr.ErrUnknownKind, kind)
}

// Ready loads the graph if needed and reports load failures.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.graph(ctx)
	return err
}

// Reset drops the cached graph.
func (s *Service) Reset() {
	s.cache.Reset()
}

func buildNoteDetail(n *graph.Note) *NoteDetail {
	d := &NoteDetail{
		NoteID:          n.NoteID,
		ShareID:         n.ShareID(),
		Title:           n.Title,
		Type:            n.Type,
		Mime:            n.Mime,
		IsProtected:     n.IsProtected,
		IsArchived:      n.IsArchived(),
		UTCDateModified: n.UTCDateModified,
		Attributes:      attributePojos(n.Attributes("", "")),
		Attachments:     []graph.AttachmentPojo{},
		ParentNoteIDs:   []string{},
		Children:        childItems(n),
	}
	for _, a := range n.Attachments() {
		d.Attachments = append(d.Attachments, a.Pojo())
	}
	for _, p := range n.ParentNotes() {
		d.ParentNoteIDs = append(d.ParentNoteIDs, p.NoteID)
	}
	return d
}

func childItems(n *graph.Note) []ChildItem {
	branches := n.VisibleChildBranches()
	items := make([]ChildItem, 0, len(branches))
	for _, b := range branches {
		child := b.ChildNote()
		if child.IsSkeleton() {
			continue
		}
		items = append(items, ChildItem{
			BranchID:    b.BranchID,
			NoteID:      child.NoteID,
			ShareID:     child.ShareID(),
			Title:       child.Title,
			Type:        child.Type,
			Prefix:      b.Prefix,
			Position:    b.NotePosition,
			HasChildren: child.HasVisibleChildren(),
		})
	}
	return items
}

func attributePojos(attrs []*graph.Attribute) []graph.AttributePojo {
	out := make([]graph.AttributePojo, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a.Pojo())
	}
	return out
}
