package graph

import (
	"fmt"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
)

// EntityKind is the closed set of entity types held by a Graph.
type EntityKind int

const (
	KindNote EntityKind = iota + 1
	KindBranch
	KindAttribute
	KindAttachment
)

func (k EntityKind) String() string {
	switch k {
	case KindNote:
		return "notes"
	case KindBranch:
		return "branches"
	case KindAttribute:
		return "attributes"
	case KindAttachment:
		return "attachments"
	default:
		return fmt.Sprintf("EntityKind(%d)", int(k))
	}
}

// ParseEntityKind maps a table-style name ("notes", "branch", ...) to its kind.
func ParseEntityKind(name string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "notes", "note":
		return KindNote, nil
	case "branches", "branch":
		return KindBranch, nil
	case "attributes", "attribute":
		return KindAttribute, nil
	case "attachments", "attachment":
		return KindAttachment, nil
	}
	return 0, fmt.Errorf("%w: %q", apperr.ErrUnknownKind, name)
}

// Entity is implemented by *Note, *Branch, *Attribute and *Attachment.
type Entity interface {
	EntityKind() EntityKind
	EntityID() string
}

var (
	_ Entity = (*Note)(nil)
	_ Entity = (*Branch)(nil)
	_ Entity = (*Attribute)(nil)
	_ Entity = (*Attachment)(nil)
)
