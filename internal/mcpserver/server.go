// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Berkana tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/berkana/internal/apperr"
	"github.com/starford/berkana/internal/models"
	"github.com/starford/berkana/internal/noteservice"
	"github.com/starford/berkana/internal/notestore"
)

const exportFormatURI = "berkana://export-format"

// searchLimit caps the number of search_notes results.
const searchLimit = 20

// Server wraps the MCP server with Berkana tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all Berkana tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Berkana",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive search through note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its topics, forward links and backlinks."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note about a contact. Use [[Label]] to link notes and "+
			"create topics, #hashtag for inline topics. Read the "+exportFormatURI+" resource "+
			"or call get_export_format for the conventions."),
		mcp.WithString("contactId", mcp.Required(), mcp.Description("Contact the note is about")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body")),
		mcp.WithString("authorContactId", mcp.Description("Author contact; defaults to the contact zero")),
		mcp.WithString("title", mcp.Description("Optional title; derived from content when empty")),
		mcp.WithArray("tags", mcp.Description("Optional tags"), mcp.WithStringItems()),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Update the title or content of a note. Links and topics are re-derived."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("content", mcp.Description("New content")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithNumber("if_version", mcp.Description("Expected sync_version; the update fails on mismatch")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_forward_links",
		mcp.WithDescription("Find all notes the specified note links to."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.getForwardLinks)

	s.mcp.AddTool(mcp.NewTool("resolve_wikilinks",
		mcp.WithDescription("Resolve the [[wikilinks]] of a note to the notes and topics they point at."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.resolveWikilinks)

	s.mcp.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("List topics, optionally only those of one contact."),
		mcp.WithString("contactId", mcp.Description("Optional contact id")),
	), s.listTopics)

	s.mcp.AddTool(mcp.NewTool("get_journal",
		mcp.WithDescription("Get the journal note of a day, creating it on first access."),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD; defaults to today")),
	), s.getJournal)

	s.mcp.AddTool(mcp.NewTool("export_notes",
		mcp.WithDescription("Export notes as a JSON envelope."),
		mcp.WithArray("ids", mcp.Description("Note ids to export; omit for all notes"), mcp.WithStringItems()),
	), s.exportNotes)

	s.mcp.AddTool(mcp.NewTool("import_notes",
		mcp.WithDescription("Import a JSON export envelope."),
		mcp.WithString("payload", mcp.Required(), mcp.Description("Export envelope JSON")),
		mcp.WithBoolean("overwrite", mcp.Description("Replace notes whose id already exists")),
		mcp.WithBoolean("generate_new_ids", mcp.Description("Import every note under a fresh id")),
	), s.importNotes)

	s.mcp.AddTool(mcp.NewTool("get_export_format",
		mcp.WithDescription("Returns the Berkana export format and content conventions."),
	), s.getExportFormat)

	// Resource: export format contract.
	s.mcp.AddResource(
		mcp.NewResource(exportFormatURI, "Export Format",
			mcp.WithResourceDescription("JSON export envelope and note content conventions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readExportFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(id string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id))
	}
	return mcp.NewToolResultError(err.Error())
}

func noteLines(notes []*models.Note, empty string) string {
	if len(notes) == 0 {
		return empty
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = n.ID + "\t" + n.Title
	}
	return strings.Join(lines, "\n")
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.svc.Search(ctx, query)
	if len(results) > searchLimit {
		results = results[:searchLimit]
	}
	refs := make([]noteservice.NoteRef, len(results))
	for i, n := range results {
		refs[i] = noteservice.NoteRef{ID: n.ID, Title: n.Title}
	}
	return jsonResult(refs)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(note)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contactID, err := req.RequireString("contactId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := s.svc.CreateNote(ctx, notestore.NewNote{
		ContactID:       contactID,
		AuthorContactID: req.GetString("authorContactId", s.svc.Store().ContactZero()),
		Content:         content,
		Title:           req.GetString("title", ""),
		Tags:            req.GetStringSlice("tags", nil),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", note.ID)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var u notestore.NoteUpdate
	args := req.GetArguments()
	if _, ok := args["content"]; ok {
		content := req.GetString("content", "")
		u.Content = &content
	}
	if _, ok := args["title"]; ok {
		title := req.GetString("title", "")
		if strings.TrimSpace(title) == "" {
			return mcp.NewToolResultError("title must not be empty"), nil
		}
		u.Title = &title
	}

	note, err := s.svc.UpdateNote(ctx, id, u, req.GetInt("if_version", 0))
	if err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s (sync_version %d)", note.ID, note.SyncVersion)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(noteLines(bl, "no backlinks found")), nil
}

func (s *Server) getForwardLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fl, err := s.svc.ForwardLinks(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(noteLines(fl, "no forward links found")), nil
}

func (s *Server) resolveWikilinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	targets, err := s.svc.Wikilinks(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}
	return jsonResult(targets)
}

func (s *Server) listTopics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if contactID := req.GetString("contactId", ""); contactID != "" {
		return jsonResult(s.svc.ContactTopics(ctx, contactID))
	}
	return jsonResult(s.svc.Topics(ctx))
}

func (s *Server) getJournal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day := time.Now()
	if raw := req.GetString("date", ""); raw != "" {
		d, err := time.Parse(notestore.DateKeyLayout, raw)
		if err != nil {
			return mcp.NewToolResultError("date must be YYYY-MM-DD"), nil
		}
		day = d
	}
	return jsonResult(s.svc.Journal(ctx, day))
}

func (s *Server) exportNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.svc.Export(ctx, req.GetStringSlice("ids", nil))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) importNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload, err := req.RequireString("payload")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := s.svc.ImportDefaults()
	opts.Overwrite = req.GetBool("overwrite", opts.Overwrite)
	opts.GenerateNewIDs = req.GetBool("generate_new_ids", opts.GenerateNewIDs)

	notes, err := s.svc.Import(ctx, []byte(payload), opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported: %d", len(notes))), nil
}

func (s *Server) getExportFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ExportFormatContract), nil
}

func (s *Server) readExportFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      exportFormatURI,
			MIMEType: "text/markdown",
			Text:     ExportFormatContract,
		},
	}, nil
}
