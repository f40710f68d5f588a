// Package mcpserver exposes log queries as MCP tools over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marcelocantos/boxlog/internal/repository"
	"github.com/marcelocantos/boxlog/internal/render"
)

// Options configures the tool handlers.
type Options struct {
	Version string
	// DefaultPath is used when a tool call names no file.
	DefaultPath string
	// Key decrypts files when a tool call supplies none.
	Key string
}

// Handlers implements the boxlog tools.
type Handlers struct {
	opts Options
}

// New returns an MCP server with the query_logs, group_logs and
// list_sessions tools registered.
func New(opts Options) *server.MCPServer {
	s := server.NewMCPServer("boxlog", opts.Version, server.WithToolCapabilities(false))
	h := &Handlers{opts: opts}

	pathArg := mcp.WithString("path", mcp.Description("Log file to read. Defaults to the configured log."))
	keyArg := mcp.WithString("key", mcp.Description("Decryption key for encrypted logs."))

	s.AddTool(mcp.NewTool("query_logs",
		mcp.WithDescription("Return log records matching the given filters as JSON."),
		pathArg, keyArg,
		mcp.WithString("levels", mcp.Description("Comma-separated levels, e.g. \"warning,error\". Signposts are excluded when set.")),
		mcp.WithString("sessions", mcp.Description("Session range, e.g. \"3\" or \"2..5\".")),
		mcp.WithString("versions", mcp.Description("Version range, e.g. \"1.0..1.2\".")),
		mcp.WithString("since", mcp.Description("Earliest timestamp, RFC 3339 or YYYY-MM-DD.")),
		mcp.WithString("until", mcp.Description("Latest timestamp, RFC 3339 or YYYY-MM-DD.")),
		mcp.WithString("text", mcp.Description("Case-sensitive substring of message, function, file or metadata.")),
		mcp.WithString("where", mcp.Description("Starlark boolean expression over kind, message, level, label, source, file, function, line, session, version, date, group, id, metadata.")),
		mcp.WithString("sort", mcp.Description("date-asc, date-desc, alpha-asc or alpha-desc.")),
		mcp.WithNumber("limit", mcp.Description("Return at most this many records, taken from the end.")),
	), h.QueryLogs)

	s.AddTool(mcp.NewTool("group_logs",
		mcp.WithDescription("Count records by a field across the whole file."),
		pathArg, keyArg,
		mcp.WithString("by", mcp.Required(), mcp.Description("kind, level, label, source, file, function, version, session or group.")),
		mcp.WithString("order", mcp.Description("alpha-asc, alpha-desc, count-desc or count-asc.")),
	), h.GroupLogs)

	s.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the session headers in a log file with their record counts."),
		pathArg, keyArg,
	), h.ListSessions)

	return s
}

// Serve runs the server on stdin and stdout until the client disconnects.
func Serve(opts Options) error {
	return server.ServeStdio(New(opts))
}

func (h *Handlers) open(req mcp.CallToolRequest) (*repository.Repository, error) {
	path := req.GetString("path", h.opts.DefaultPath)
	if path == "" {
		return nil, errors.New("no log file given")
	}
	repo, err := repository.Open(path)
	if err != nil {
		return nil, err
	}
	if err := repo.SetDecryptionKey(req.GetString("key", h.opts.Key)); err != nil {
		return nil, err
	}
	return repo, nil
}

// QueryLogs handles query_logs.
func (h *Handlers) QueryLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := h.open(req)
	if err != nil {
		return toolError(err), nil
	}
	q, err := repository.Spec{
		Levels:   req.GetString("levels", ""),
		Sessions: req.GetString("sessions", ""),
		Versions: req.GetString("versions", ""),
		Since:    req.GetString("since", ""),
		Until:    req.GetString("until", ""),
		Text:     req.GetString("text", ""),
		Where:    req.GetString("where", ""),
	}.Build()
	if err != nil {
		return toolError(err), nil
	}
	records, err := repo.Entries(q)
	if err != nil {
		return toolError(err), nil
	}
	if s := req.GetString("sort", ""); s != "" {
		opt, err := repository.ParseSortOption(s)
		if err != nil {
			return toolError(err), nil
		}
		repository.Sort(records, opt)
	}
	if limit := req.GetInt("limit", 0); limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	var buf bytes.Buffer
	if err := render.NewPrinter(&buf, render.Options{Format: render.JSON}).Records(records); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// GroupLogs handles group_logs.
func (h *Handlers) GroupLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	by, err := req.RequireString("by")
	if err != nil {
		return toolError(err), nil
	}
	field, err := repository.ParseField(by)
	if err != nil {
		return toolError(err), nil
	}
	order, err := repository.ParseGroupOrder(req.GetString("order", "count-desc"))
	if err != nil {
		return toolError(err), nil
	}
	repo, err := h.open(req)
	if err != nil {
		return toolError(err), nil
	}
	groups, err := repo.GroupBy(field, order)
	if err != nil {
		return toolError(err), nil
	}

	var buf bytes.Buffer
	if err := render.NewPrinter(&buf, render.Options{Format: render.JSON}).Groups(field, groups); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// ListSessions handles list_sessions.
func (h *Handlers) ListSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := h.open(req)
	if err != nil {
		return toolError(err), nil
	}
	headers, err := repo.Headers()
	if err != nil {
		return toolError(err), nil
	}
	records, err := repo.Entries(nil)
	if err != nil {
		return toolError(err), nil
	}

	var buf bytes.Buffer
	if err := render.NewPrinter(&buf, render.Options{Format: render.JSON}).Sessions(headers, records); err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	if errors.Is(err, repository.ErrInvalidDecryptionKey) {
		msg = fmt.Sprintf("%s (pass the correct \"key\" argument)", msg)
	}
	return mcp.NewToolResultError(msg)
}
