// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes CloudNotes list operations via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cloudnotes/internal/apperr"
	"github.com/starford/cloudnotes/internal/notelist"
	"github.com/starford/cloudnotes/internal/parser"
)

const noteFormatURI = "cloudnotes://note-format"

// Server wraps the MCP server with CloudNotes tools.
type Server struct {
	mcp  *server.MCPServer
	list *notelist.Synchronizer
}

// New creates a new MCP server with all CloudNotes tools registered.
func New(list *notelist.Synchronizer) *Server {
	s := &Server{list: list}

	s.mcp = server.NewMCPServer(
		"CloudNotes",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes newest first. Each line is '<row>: <title>'; drafts show as '(draft)'."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full text of the note at a row and select it."),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row index, 0 is the newest note")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create an empty draft note at row 0. Refused while a draft already exists. "+
			"Fill the draft with edit_note(row=0). Read the format first via get_note_format "+
			"or the cloudnotes://note-format resource."),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("edit_note",
		mcp.WithDescription("Replace the text of the note at a row. The first line becomes the title. "+
			"The edited note moves to row 0."),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row index of the note to edit")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw note text following the CloudNotes note format")),
	), s.editNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete the note at a row."),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row index of the note to delete")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("share_note",
		mcp.WithDescription("Return the shareable text (title and content joined) of the note at a row."),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row index of the note to share")),
	), s.shareNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search through note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns how CloudNotes splits raw text into title and content. "+
			"Call this before creating or editing notes."),
	), s.getNoteFormat)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("How raw note text maps to title and content."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server with every tool and resource registered.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns list errors into tool-level errors the model can act on.
func toolError(err error, row int) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrRowOutOfRange), errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("no note at row %d", row))
	case errors.Is(err, apperr.ErrDraftExists):
		return mcp.NewToolResultError("a draft already exists at row 0; edit it with edit_note(row=0)")
	case errors.Is(err, apperr.ErrUnavailable):
		return mcp.NewToolResultError("the note store could not be read; try again")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes := s.list.Notes(ctx)
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		title := n.Title
		if n.IsDraft() {
			title = "(draft)"
		}
		lines[i] = fmt.Sprintf("%d: %s", i, title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	row, err := req.RequireInt("row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.list.Select(ctx, row)
	if err != nil {
		return toolError(err, row), nil
	}
	return mcp.NewToolResultText(parser.Join(note.Title, note.Content)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := s.list.Create(ctx)
	if err != nil {
		return toolError(err, 0), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created draft %s at row 0", note.ID)), nil
}

func (s *Server) editNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	row, err := req.RequireInt("row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.list.Edit(ctx, row, text)
	if err != nil {
		return toolError(err, row), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated %q, now at row 0", note.Title)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	row, err := req.RequireInt("row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	selected, err := s.list.Delete(ctx, row)
	if err != nil {
		return toolError(err, row), nil
	}
	if selected == notelist.NoSelection {
		return mcp.NewToolResultText("deleted; the list is now empty"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted; row %d selected", selected)), nil
}

func (s *Server) shareNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	row, err := req.RequireInt("row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.list.Share(ctx, row)
	if err != nil {
		return toolError(err, row), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.list.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNoteFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormat), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}
