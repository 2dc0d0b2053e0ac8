package graph

import (
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/starford/notegraph/internal/models"
)

// DefaultTreeRootID is the note at the top of the whole tree. It never
// inherits from parents.
const DefaultTreeRootID = "root"

// BuildOptions parameterize Build.
type BuildOptions struct {
	Generation uint64
	RootID     string
	TreeRootID string
	Blobs      BlobSource
	Logger     *slog.Logger
}

// Build wires a graph out of loaded rows. Placeholders are created first for
// every note referenced structurally, so rows can be applied in any order.
func Build(rows models.Rows, opts BuildOptions) *Graph {
	if opts.TreeRootID == "" {
		opts.TreeRootID = DefaultTreeRootID
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	g := &Graph{
		generation:          opts.Generation,
		rootID:              opts.RootID,
		treeRootID:          opts.TreeRootID,
		blobs:               opts.Blobs,
		logger:              opts.Logger,
		notes:               make(map[string]*Note, len(rows.Notes)),
		branches:            make(map[string]*Branch, len(rows.Branches)),
		childParentToBranch: make(map[branchKey]*Branch, len(rows.Branches)),
		attributes:          make(map[string]*Attribute, len(rows.Attributes)),
		attachments:         make(map[string]*Attachment, len(rows.Attachments)),
		aliasToNote:         make(map[string]*Note),
	}

	for _, r := range rows.Notes {
		g.placeholder(r.NoteID)
	}
	for _, r := range rows.Branches {
		g.placeholder(r.NoteID)
		g.placeholder(r.ParentNoteID)
	}
	for _, r := range rows.Attributes {
		g.placeholder(r.NoteID)
	}
	for _, r := range rows.Attachments {
		g.placeholder(r.OwnerID)
	}

	for _, r := range rows.Notes {
		g.notes[r.NoteID].fill(r)
	}
	for _, r := range rows.Branches {
		g.addBranch(r)
	}
	for _, r := range rows.Attributes {
		g.addAttribute(r)
	}
	for _, r := range rows.Attachments {
		g.addAttachment(r)
	}
	for _, n := range g.notes {
		n.sortLinks()
	}

	if s := g.Stats(); s.Skeletons > 0 {
		g.logger.Debug("graph: skeleton notes after build", "count", s.Skeletons)
	}
	return g
}

func (g *Graph) placeholder(noteID string) {
	if _, ok := g.notes[noteID]; ok {
		return
	}
	g.notes[noteID] = &Note{graph: g, NoteID: noteID, skeleton: true}
}

func (g *Graph) addBranch(row models.BranchRow) {
	key := branchKey{childID: row.NoteID, parentID: row.ParentNoteID}
	if prev, ok := g.childParentToBranch[key]; ok {
		g.logger.Warn("graph: duplicate branch for child and parent, keeping first",
			"kept", prev.BranchID, "dropped", row.BranchID,
			"note_id", row.NoteID, "parent_note_id", row.ParentNoteID)
		return
	}
	b := newBranch(g, row)
	g.branches[b.BranchID] = b
	g.childParentToBranch[key] = b

	child := g.notes[row.NoteID]
	parent := g.notes[row.ParentNoteID]
	child.parentBranches = append(child.parentBranches, b)
	child.parents = append(child.parents, parent)
	parent.children = append(parent.children, child)
}

func (g *Graph) addAttribute(row models.AttributeRow) {
	a := newAttribute(g, row)
	g.attributes[a.AttributeID] = a

	owner := g.notes[a.NoteID]
	owner.ownedAttributes = append(owner.ownedAttributes, a)

	switch {
	case a.IsRelation():
		if target, ok := g.notes[a.Value]; ok {
			target.targetRelations = append(target.targetRelations, a)
		}
		if a.Name == RelationImage {
			if b := g.BranchFromChildAndParent(a.Value, a.NoteID); b != nil {
				b.IsHidden = true
			}
		}
	case a.Name == LabelShareAlias:
		if alias := strings.TrimSpace(a.Value); alias != "" {
			g.aliasToNote[alias] = owner
		}
	case a.Name == LabelShareRoot:
		g.shareRoot = owner
	case a.Name == LabelShareIndex:
		g.indexEnabled = true
	}
}

func (g *Graph) addAttachment(row models.AttachmentRow) {
	a := newAttachment(g, row)
	g.attachments[a.AttachmentID] = a
	owner := g.notes[a.OwnerID]
	owner.attachments = append(owner.attachments, a)
}

// sortLinks orders parents and children by branch position. Loader rows are
// already ordered this way; rows from other sources may not be.
func (n *Note) sortLinks() {
	if len(n.parentBranches) > 1 {
		sort.SliceStable(n.parentBranches, func(i, j int) bool {
			return n.parentBranches[i].NotePosition < n.parentBranches[j].NotePosition
		})
		for i, b := range n.parentBranches {
			n.parents[i] = b.ParentNote()
		}
	}
	if len(n.children) > 1 {
		pos := make(map[string]int, len(n.children))
		for _, child := range n.children {
			if b := n.graph.BranchFromChildAndParent(child.NoteID, n.NoteID); b != nil {
				pos[child.NoteID] = b.NotePosition
			}
		}
		sort.SliceStable(n.children, func(i, j int) bool {
			return pos[n.children[i].NoteID] < pos[n.children[j].NoteID]
		})
	}
	if len(n.attachments) > 1 {
		sort.SliceStable(n.attachments, func(i, j int) bool {
			return n.attachments[i].Position < n.attachments[j].Position
		})
	}
}
