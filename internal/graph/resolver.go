package graph

import (
	"context"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/starford/notegraph/internal/models"
)

type attributeMemo struct {
	generation  uint64
	all         []*Attribute
	inheritable []*Attribute
}

func (n *Note) cachedMemo() *attributeMemo {
	m := n.memo.Load()
	if m == nil || m.generation != n.graph.generation {
		return nil
	}
	return m
}

// allAttributes returns the resolved attribute list: owned attributes first,
// then attributes inherited from parents, then those imported through
// template/inherit relations, deduplicated by attributeId.
func (n *Note) allAttributes() []*Attribute {
	if m := n.cachedMemo(); m != nil {
		return m.all
	}
	g := n.graph
	g.resolveMu.Lock()
	defer g.resolveMu.Unlock()
	return g.resolve(n, mapset.NewSet[string]())
}

// InheritableAttributes returns the resolved attributes passed down to children.
func (n *Note) InheritableAttributes() []*Attribute {
	if m := n.cachedMemo(); m != nil {
		return m.inheritable
	}
	g := n.graph
	g.resolveMu.Lock()
	defer g.resolveMu.Unlock()
	return g.inheritable(n, mapset.NewSet[string]())
}

// resolve must be called with resolveMu held. visited holds the notes on the
// current resolution path; reaching one of them again contributes nothing.
// A result truncated that way is memoized like any other, so inside a cycle
// the answer depends on which note was asked first.
func (g *Graph) resolve(n *Note, visited mapset.Set[string]) []*Attribute {
	if visited.Contains(n.NoteID) {
		return nil
	}
	if m := n.cachedMemo(); m != nil {
		return m.all
	}

	path := visited.Clone()
	path.Add(n.NoteID)

	collected := slices.Clone(n.ownedAttributes)
	if n.NoteID != g.treeRootID {
		for _, parent := range n.parents {
			collected = append(collected, g.inheritable(parent, path)...)
		}
	}

	var templated []*Attribute
	for _, a := range collected {
		if !a.IsTemplateLink() {
			continue
		}
		if tmpl, ok := g.notes[a.Value]; ok {
			templated = append(templated, g.resolve(tmpl, path)...)
		}
	}

	seen := mapset.NewSet[string]()
	all := make([]*Attribute, 0, len(collected)+len(templated))
	for _, a := range slices.Concat(collected, templated) {
		if seen.Add(a.AttributeID) {
			all = append(all, a)
		}
	}
	inheritable := make([]*Attribute, 0, len(all))
	for _, a := range all {
		if a.IsInheritable {
			inheritable = append(inheritable, a)
		}
	}

	n.memo.Store(&attributeMemo{generation: g.generation, all: all, inheritable: inheritable})
	resolutionCounter.Add(context.Background(), 1)
	return all
}

func (g *Graph) inheritable(n *Note, visited mapset.Set[string]) []*Attribute {
	if visited.Contains(n.NoteID) {
		return nil
	}
	if m := n.cachedMemo(); m == nil {
		g.resolve(n, visited)
	}
	if m := n.cachedMemo(); m != nil {
		return m.inheritable
	}
	return nil
}

func matches(a *Attribute, typ, name string) bool {
	return (typ == "" || a.Type == typ) && (name == "" || a.Name == name)
}

func isCredentials(a *Attribute) bool {
	return a.IsLabel() && a.Name == LabelShareCredentials
}

func filterAttributes(in []*Attribute, keep func(*Attribute) bool) []*Attribute {
	var out []*Attribute
	for _, a := range in {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// Attributes returns resolved attributes filtered by type and name; empty
// arguments match anything. shareCredentials labels are never returned.
func (n *Note) Attributes(typ, name string) []*Attribute {
	return filterAttributes(n.allAttributes(), func(a *Attribute) bool {
		return matches(a, typ, name) && !isCredentials(a)
	})
}

// Credentials returns the resolved shareCredentials labels.
func (n *Note) Credentials() []*Attribute {
	return filterAttributes(n.allAttributes(), isCredentials)
}

func (n *Note) HasAttribute(typ, name string) bool {
	return n.Attribute(typ, name) != nil
}

// Attribute returns the first resolved attribute matching type and name.
func (n *Note) Attribute(typ, name string) *Attribute {
	for _, a := range n.allAttributes() {
		if matches(a, typ, name) && !isCredentials(a) {
			return a
		}
	}
	return nil
}

func (n *Note) AttributeValue(typ, name string) string {
	if a := n.Attribute(typ, name); a != nil {
		return a.Value
	}
	return ""
}

func (n *Note) Labels(name string) []*Attribute {
	return n.Attributes(models.AttributeLabel, name)
}

func (n *Note) LabelValues(name string) []string {
	labels := n.Labels(name)
	out := make([]string, 0, len(labels))
	for _, a := range labels {
		out = append(out, a.Value)
	}
	return out
}

func (n *Note) Label(name string) *Attribute { return n.Attribute(models.AttributeLabel, name) }
func (n *Note) HasLabel(name string) bool    { return n.Label(name) != nil }
func (n *Note) LabelValue(name string) string {
	return n.AttributeValue(models.AttributeLabel, name)
}

// IsLabelTruthy reports whether the label exists with a value other than "false".
func (n *Note) IsLabelTruthy(name string) bool {
	l := n.Label(name)
	return l != nil && l.Value != "false"
}

func (n *Note) Relations(name string) []*Attribute {
	return n.Attributes(models.AttributeRelation, name)
}

func (n *Note) Relation(name string) *Attribute { return n.Attribute(models.AttributeRelation, name) }
func (n *Note) HasRelation(name string) bool    { return n.Relation(name) != nil }
func (n *Note) RelationValue(name string) string {
	return n.AttributeValue(models.AttributeRelation, name)
}

// RelationTarget returns the target of the first relation with the given name.
func (n *Note) RelationTarget(name string) *Note {
	if r := n.Relation(name); r != nil {
		return r.TargetNote()
	}
	return nil
}

func ownedName(name string) string {
	if strings.HasPrefix(name, "#") || strings.HasPrefix(name, "~") {
		return name[1:]
	}
	return name
}

// OwnedAttributes filters the note's own attributes. It never resolves
// inheritance.
func (n *Note) OwnedAttributes(typ, name string) []*Attribute {
	name = ownedName(name)
	return filterAttributes(n.ownedAttributes, func(a *Attribute) bool {
		return matches(a, typ, name)
	})
}

func (n *Note) OwnedAttribute(typ, name string) *Attribute {
	name = ownedName(name)
	for _, a := range n.ownedAttributes {
		if matches(a, typ, name) {
			return a
		}
	}
	return nil
}

func (n *Note) OwnedLabels(name string) []*Attribute {
	return n.OwnedAttributes(models.AttributeLabel, name)
}

func (n *Note) OwnedLabel(name string) *Attribute {
	return n.OwnedAttribute(models.AttributeLabel, name)
}

func (n *Note) HasOwnedLabel(name string) bool { return n.OwnedLabel(name) != nil }

func (n *Note) OwnedLabelValue(name string) string {
	if l := n.OwnedLabel(name); l != nil {
		return l.Value
	}
	return ""
}

func (n *Note) OwnedRelations(name string) []*Attribute {
	return n.OwnedAttributes(models.AttributeRelation, name)
}

func (n *Note) OwnedRelation(name string) *Attribute {
	return n.OwnedAttribute(models.AttributeRelation, name)
}

func (n *Note) HasOwnedRelation(name string) bool { return n.OwnedRelation(name) != nil }

func (n *Note) IsArchived() bool { return n.HasLabel(LabelArchived) }

// IsInherited reports whether another note uses this one as a template.
func (n *Note) IsInherited() bool {
	for _, r := range n.targetRelations {
		if r.IsTemplateLink() {
			return true
		}
	}
	return false
}

// ShareID is the public identifier of the note: empty for the share root,
// the owned shareAlias when set, otherwise the noteId.
func (n *Note) ShareID() string {
	if n.HasOwnedLabel(LabelShareRoot) {
		return ""
	}
	if alias := n.OwnedLabelValue(LabelShareAlias); alias != "" {
		return alias
	}
	return n.NoteID
}
