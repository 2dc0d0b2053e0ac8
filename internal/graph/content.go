package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/notegraph/internal/apperr"
)

// BlobSource reads blob content by id. ok is false when no such blob exists.
type BlobSource interface {
	Blob(ctx context.Context, blobID string) (content []byte, ok bool, err error)
}

var stringNoteTypes = map[string]bool{
	"text":        true,
	"code":        true,
	"relationMap": true,
	"search":      true,
	"render":      true,
	"book":        true,
	"mermaid":     true,
	"canvas":      true,
}

var stringMimes = map[string]bool{
	"application/javascript":   true,
	"application/x-javascript": true,
	"application/json":         true,
	"application/x-sql":        true,
	"image/svg+xml":            true,
}

// IsStringContent reports whether content of the given note type and mime is
// text rather than binary. Either argument may be empty.
func IsStringContent(noteType, mime string) bool {
	if stringNoteTypes[noteType] {
		return true
	}
	return strings.HasPrefix(mime, "text/") || stringMimes[mime]
}

func (g *Graph) readBlob(ctx context.Context, what, id, blobID string, text, silent bool) ([]byte, error) {
	var (
		content []byte
		ok      bool
	)
	if g.blobs != nil && blobID != "" {
		var err error
		content, ok, err = g.blobs.Blob(ctx, blobID)
		if err != nil {
			return nil, fmt.Errorf("%s %s: read blob: %w", what, id, err)
		}
	}
	if !ok {
		if silent {
			return nil, nil
		}
		return nil, fmt.Errorf("content of %s %q (blob %q): %w", what, id, blobID, apperr.ErrNotFound)
	}
	if content == nil && text {
		content = []byte{}
	}
	return content, nil
}
