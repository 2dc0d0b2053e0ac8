// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the cached note graph to LLMs via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/noteservice"
)

const attributeModelURI = "notegraph://attribute-model"

// Server wraps the MCP server with note graph tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notegraph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Get a note with its effective attributes, attachments and visible children."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Note id")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("get_attributes",
		mcp.WithDescription("List the effective attributes of a note: owned, inherited from parents, "+
			"and imported through template relations. See the "+attributeModelURI+" resource."),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("type", mcp.Description("Only this attribute type"), mcp.Enum(models.AttributeLabel, models.AttributeRelation)),
		mcp.WithString("name", mcp.Description("Only attributes with this name")),
	), s.getAttributes)

	s.mcp.AddTool(mcp.NewTool("find_by_alias",
		mcp.WithDescription("Find the note whose shareAlias label has the given value."),
		mcp.WithString("alias", mcp.Required(), mcp.Description("Alias to look up")),
	), s.findByAlias)

	s.mcp.AddTool(mcp.NewTool("list_children",
		mcp.WithDescription("List the visible children of a note in tree order. "+
			"Omit note_id to list the top of the shared tree."),
		mcp.WithString("note_id", mcp.Description("Parent note id (empty for the share root)")),
	), s.listChildren)

	s.mcp.AddTool(mcp.NewTool("read_content",
		mcp.WithDescription("Read the body of a note, or of an attachment when attachment_id is given."),
		mcp.WithString("note_id", mcp.Description("Note id")),
		mcp.WithString("attachment_id", mcp.Description("Attachment id")),
	), s.readContent)

	s.mcp.AddResource(
		mcp.NewResource(attributeModelURI, "Attribute Model",
			mcp.WithResourceDescription("How effective note attributes are resolved."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readAttributeModel,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := req.RequireString("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, noteID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note), nil
}

func (s *Server) getAttributes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID, err := req.RequireString("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	attrs, err := s.svc.Attributes(ctx, noteID, req.GetString("type", ""), req.GetString("name", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(attrs), nil
}

func (s *Server) findByAlias(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	alias, err := req.RequireString("alias")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.NoteByAlias(ctx, alias)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note), nil
}

func (s *Server) listChildren(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	noteID := req.GetString("note_id", "")
	if noteID == "" {
		info, err := s.svc.ShareRoot(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(info.Children), nil
	}
	children, err := s.svc.Children(ctx, noteID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(children), nil
}

func (s *Server) readAttributeModel(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      attributeModelURI,
			MIMEType: "text/markdown",
			Text:     AttributeModel,
		},
	}, nil
}
