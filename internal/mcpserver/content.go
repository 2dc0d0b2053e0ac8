package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notegraph/internal/noteservice"
)

const maxContentSize = 10 << 20 // 10 MB

func (s *Server) readContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID := req.GetString("note_id", "")
	attachmentID := req.GetString("attachment_id", "")

	var (
		c   *noteservice.Content
		uri string
		err error
	)
	switch {
	case attachmentID != "":
		c, err = s.svc.AttachmentContent(ctx, attachmentID)
		uri = "notegraph://attachments/" + attachmentID
	case noteID != "":
		c, err = s.svc.Content(ctx, noteID)
		uri = "notegraph://notes/" + noteID
	default:
		return mcp.NewToolResultError("note_id or attachment_id is required"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(c.Data) > maxContentSize {
		return mcp.NewToolResultError(fmt.Sprintf("content too large: %d bytes (max %d)", len(c.Data), maxContentSize)), nil
	}
	if c.IsText {
		return mcp.NewToolResultText(string(c.Data)), nil
	}

	encoded := base64.StdEncoding.EncodeToString(c.Data)
	summary := fmt.Sprintf("%s, %d bytes, sha256 %s", c.Mime, len(c.Data), c.Checksum)
	if strings.HasPrefix(c.Mime, "image/") {
		return mcp.NewToolResultImage(summary, encoded, c.Mime), nil
	}
	return mcp.NewToolResultResource(summary, mcp.BlobResourceContents{
		URI:      uri,
		MIMEType: c.Mime,
		Blob:     encoded,
	}), nil
}
