package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/store"
	"github.com/starford/notegraph/internal/testutil"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	cache, db := testutil.SeededCache(t)
	return New(noteservice.NewService(cache), "test"), db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_note":
		result, err = srv.getNote(ctx, req)
	case "get_attributes":
		result, err = srv.getAttributes(ctx, req)
	case "find_by_alias":
		result, err = srv.findByAlias(ctx, req)
	case "list_children":
		result, err = srv.listChildren(ctx, req)
	case "read_content":
		result, err = srv.readContent(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_note", map[string]interface{}{"note_id": "guide"})
	if r.IsError {
		t.Fatalf("get_note failed: %s", resultText(r))
	}
	var note noteservice.NoteDetail
	if err := json.Unmarshal([]byte(resultText(r)), &note); err != nil {
		t.Fatal(err)
	}
	if note.Title != "Guide" || note.ShareID != "getting-started" {
		t.Errorf("note = %+v", note)
	}
}

func TestGetNoteMissing(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_note", map[string]interface{}{"note_id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
	r = callTool(t, srv, "get_note", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without note_id")
	}
}

func TestGetAttributes(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_attributes", map[string]interface{}{
		"note_id": "data",
		"type":    "label",
	})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("get_attributes failed: %s", text)
	}
	if !strings.Contains(text, `"name": "color"`) || !strings.Contains(text, `"note_id": "_share"`) {
		t.Errorf("inherited color missing: %s", text)
	}

	r = callTool(t, srv, "get_attributes", map[string]interface{}{"note_id": "data", "type": "tag"})
	if !r.IsError {
		t.Error("expected error for unknown attribute type")
	}
}

func TestFindByAlias(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "find_by_alias", map[string]interface{}{"alias": "getting-started"})
	if !strings.Contains(resultText(r), `"note_id": "guide"`) {
		t.Errorf("alias result = %s", resultText(r))
	}
	r = callTool(t, srv, "find_by_alias", map[string]interface{}{"alias": "nothing"})
	if !r.IsError {
		t.Error("expected error for unknown alias")
	}
}

func TestListChildren(t *testing.T) {
	srv, _ := testServer(t)

	var top []noteservice.ChildItem
	r := callTool(t, srv, "list_children", map[string]interface{}{})
	if err := json.Unmarshal([]byte(resultText(r)), &top); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if len(top) != 4 || top[0].NoteID != "guide" {
		t.Errorf("share root children = %+v", top)
	}

	r = callTool(t, srv, "list_children", map[string]interface{}{"note_id": "guide"})
	if text := resultText(r); text != "[]" {
		t.Errorf("guide children = %s, want []", text)
	}
}

func TestReadContent_Text(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_content", map[string]interface{}{"note_id": "guide"})
	if text := resultText(r); text != "<p>hello</p>" {
		t.Errorf("content = %q", text)
	}

	r = callTool(t, srv, "read_content", map[string]interface{}{"attachment_id": "att1"})
	if text := resultText(r); text != "<svg/>" {
		t.Errorf("attachment content = %q", text)
	}
}

func TestReadContent_Binary(t *testing.T) {
	srv, db := testServer(t)
	testutil.Seed(t, db, "root: _share\nnotes:\n  - {id: bin, title: Bin, type: file, mime: application/pdf, content: \"%PDF\"}\n")

	r := callTool(t, srv, "read_content", map[string]interface{}{"note_id": "bin"})
	if r.IsError || len(r.Content) != 2 {
		t.Fatalf("result = %+v", r)
	}
	res, ok := r.Content[1].(mcp.EmbeddedResource)
	if !ok {
		t.Fatalf("content[1] = %T", r.Content[1])
	}
	blob, ok := res.Resource.(mcp.BlobResourceContents)
	if !ok {
		t.Fatalf("resource = %T", res.Resource)
	}
	if blob.Blob != base64.StdEncoding.EncodeToString([]byte("%PDF")) || blob.URI != "notegraph://notes/bin" {
		t.Errorf("blob = %+v", blob)
	}

	r = callTool(t, srv, "read_content", map[string]interface{}{"note_id": "pic"})
	img, ok := r.Content[1].(mcp.ImageContent)
	if !ok || img.MIMEType != "image/png" {
		t.Errorf("image result = %+v", r.Content)
	}
}

func TestReadContent_Errors(t *testing.T) {
	srv, _ := testServer(t)

	for _, args := range []map[string]interface{}{
		{},
		{"note_id": "secret"},
		{"attachment_id": "missing"},
	} {
		if r := callTool(t, srv, "read_content", args); !r.IsError {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestAttributeModelResource(t *testing.T) {
	srv, _ := testServer(t)

	contents, err := srv.readAttributeModel(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != attributeModelURI || !strings.Contains(tc.Text, "first occurrence wins") {
		t.Errorf("resource = %+v", contents)
	}
}
